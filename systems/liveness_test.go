package systems

import (
	"math"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/bounce/components"
)

func newTestLiveness(w *ecs.World, elim Eliminator) (*Liveness, *Counters) {
	counters := &Counters{}
	spawn := func() r2.Vec { return r2.Vec{X: 400, Y: 100} }
	return NewLiveness(w, testConfig(), testRNG(), counters, elim, spawn), counters
}

// TestLivenessUnstick pins a ball in place and expects a push within one window.
func TestLivenessUnstick(t *testing.T) {
	tests := []struct {
		name   string
		at     r2.Vec
		inward bool // escape must head toward the arena center
	}{
		{"open field", r2.Vec{X: 400, Y: 600}, false},
		{"left wall", r2.Vec{X: 20, Y: 600}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			w := ecs.NewWorld()
			live, counters := newTestLiveness(w, &recordingEliminator{})
			ball := newTestBall(w, 0, "Red", tc.at, r2.Vec{X: -300, Y: 110})
			posMap := ecs.NewMap[components.Position](w)
			velMap := ecs.NewMap[components.Velocity](w)

			dt := 1.0 / 60
			pushedAt := -1.0
			for i := 1; i <= 120 && pushedAt < 0; i++ {
				posMap.Get(ball).Set(tc.at)
				live.Update(dt, nil)
				if counters.StuckPushes > 0 {
					pushedAt = float64(i) * dt
				}
			}

			if pushedAt < 0 {
				t.Fatal("stuck ball was never pushed")
			}
			if pushedAt > cfg.Liveness.StuckWindow+3*dt {
				t.Errorf("push at %.3fs, want within %.3fs", pushedAt, cfg.Liveness.StuckWindow)
			}
			v := velMap.Get(ball).Vec()
			want := cfg.Ball.BaseSpeed * cfg.Liveness.StuckEscapeFactor
			if math.Abs(r2.Norm(v)-want) > 1e-6 {
				t.Errorf("escape speed = %f, want %f", r2.Norm(v), want)
			}
			if tc.inward && v.X <= 0 {
				t.Errorf("wall escape should head toward the center, got %v", v)
			}
		})
	}
}

func TestLivenessClamp(t *testing.T) {
	w := ecs.NewWorld()
	live, counters := newTestLiveness(w, &recordingEliminator{})
	ball := newTestBall(w, 0, "Red", r2.Vec{X: -5, Y: 600}, r2.Vec{X: -300, Y: 120})
	posMap := ecs.NewMap[components.Position](w)
	velMap := ecs.NewMap[components.Velocity](w)

	live.Update(1.0/60, nil)

	if p := posMap.Get(ball); p.X != 14 {
		t.Errorf("x = %v, want clamped to radius 14", p.X)
	}
	if v := velMap.Get(ball); v.X <= 0 {
		t.Errorf("velocity should be flipped inward, got %+v", v)
	}
	if counters.OutOfBounds != 1 {
		t.Errorf("out of bounds = %d, want 1", counters.OutOfBounds)
	}
}

func TestLivenessRespawnsNonFinite(t *testing.T) {
	w := ecs.NewWorld()
	live, counters := newTestLiveness(w, &recordingEliminator{})
	safe := r2.Vec{X: 300, Y: 500}
	ball := newTestBall(w, 0, "Red", safe, r2.Vec{X: 200, Y: 200})
	posMap := ecs.NewMap[components.Position](w)
	velMap := ecs.NewMap[components.Velocity](w)

	posMap.Get(ball).X = math.NaN()
	live.Update(1.0/60, nil)

	if got := posMap.Get(ball).Vec(); got != safe {
		t.Errorf("respawned at %v, want last safe %v", got, safe)
	}
	if !finite(velMap.Get(ball).Vec()) {
		t.Error("velocity still not finite")
	}
	if counters.Respawns != 1 {
		t.Errorf("respawns = %d, want 1", counters.Respawns)
	}
}

func TestLivenessMinimumSpeed(t *testing.T) {
	w := ecs.NewWorld()
	live, counters := newTestLiveness(w, &recordingEliminator{})
	ball := newTestBall(w, 0, "Red", r2.Vec{X: 400, Y: 600}, r2.Vec{X: 30, Y: 40})
	velMap := ecs.NewMap[components.Velocity](w)

	live.Update(1.0/60, nil)

	if got := r2.Norm(velMap.Get(ball).Vec()); math.Abs(got-320) > 1e-6 {
		t.Errorf("speed = %f, want restored to 320", got)
	}
	if counters.SpeedRestores != 1 {
		t.Errorf("speed restores = %d, want 1", counters.SpeedRestores)
	}
}

func TestLivenessCrushed(t *testing.T) {
	w := ecs.NewWorld()
	elim := &recordingEliminator{}
	live, counters := newTestLiveness(w, elim)
	inside := newTestBall(w, 0, "Red", r2.Vec{X: 400, Y: 100}, r2.Vec{X: 200, Y: 200})
	outside := newTestBall(w, 1, "Blue", r2.Vec{X: 400, Y: 600}, r2.Vec{X: 200, Y: 200})

	live.Update(1.0/60, []Box{{Min: r2.Vec{X: 300, Y: 50}, Max: r2.Vec{X: 500, Y: 150}}})

	if elim.eliminated[inside] != components.ReasonCrushed {
		t.Errorf("ball inside the swept box not crushed: %v", elim.eliminated)
	}
	if _, ok := elim.eliminated[outside]; ok {
		t.Error("ball outside the swept box was eliminated")
	}
	if counters.Crushed != 1 {
		t.Errorf("crushed = %d, want 1", counters.Crushed)
	}
}

// TestLivenessZeroWindowSamplesEachStep feeds a config that skipped
// validation; the update must still return and sample once per step.
func TestLivenessZeroWindowSamplesEachStep(t *testing.T) {
	cfg := testConfig()
	cfg.Liveness.StuckWindow = 0
	w := ecs.NewWorld()
	counters := &Counters{}
	live := NewLiveness(w, cfg, testRNG(), counters, &recordingEliminator{}, func() r2.Vec { return r2.Vec{X: 400, Y: 100} })
	at := r2.Vec{X: 400, Y: 600}
	ball := newTestBall(w, 0, "Red", at, r2.Vec{X: -300, Y: 110})
	posMap := ecs.NewMap[components.Position](w)

	samples := cfg.Liveness.StuckSamples
	if samples < 2 {
		samples = 2
	}
	for i := 0; i < samples+1 && counters.StuckPushes == 0; i++ {
		posMap.Get(ball).Set(at)
		live.Update(1.0/60, nil)
	}
	if counters.StuckPushes == 0 {
		t.Errorf("no push after %d steps with a zero window", samples+1)
	}
}

// TestLivenessUndrift feeds an axis-aligned velocity and expects a turn of
// the plain nudge in the open and the stronger nudge near a wall.
func TestLivenessUndrift(t *testing.T) {
	cfg := testConfig()
	tests := []struct {
		name string
		at   r2.Vec
		want float64
	}{
		{"open field", r2.Vec{X: 400, Y: 600}, cfg.Liveness.DriftNudge},
		{"near top wall", r2.Vec{X: 400, Y: 20}, cfg.Liveness.DriftWallNudge},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := ecs.NewWorld()
			live, counters := newTestLiveness(w, &recordingEliminator{})
			start := r2.Vec{X: cfg.Ball.BaseSpeed}
			ball := newTestBall(w, 0, "Red", tc.at, start)
			velMap := ecs.NewMap[components.Velocity](w)

			live.Update(1.0/60, nil)

			v := velMap.Get(ball).Vec()
			if counters.DriftNudges != 1 {
				t.Fatalf("drift nudges = %d, want 1", counters.DriftNudges)
			}
			if got := math.Abs(angleOf(v)); math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("turned by %f rad, want %f", got, tc.want)
			}
			if math.Abs(r2.Norm(v)-r2.Norm(start)) > 1e-6 {
				t.Errorf("speed changed to %f", r2.Norm(v))
			}
		})
	}

	// A diagonal heading is left alone.
	w := ecs.NewWorld()
	live, counters := newTestLiveness(w, &recordingEliminator{})
	diag := r2.Vec{X: 200, Y: 250}
	ball := newTestBall(w, 0, "Red", r2.Vec{X: 400, Y: 600}, diag)
	live.Update(1.0/60, nil)
	if counters.DriftNudges != 0 || ecs.NewMap[components.Velocity](w).Get(ball).Vec() != diag {
		t.Errorf("diagonal velocity was nudged")
	}
}
