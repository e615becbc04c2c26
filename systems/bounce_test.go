package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/bounce/components"
)

// TestBounceVelocity checks speed preservation, separation and twist range
// against a set of incoming directions.
func TestBounceVelocity(t *testing.T) {
	const speed = 320.0
	twistMin, twistMax := 0.2, 0.6

	tests := []struct {
		name string
		v    r2.Vec
		n    r2.Vec
	}{
		{"head on floor", r2.Vec{Y: 320}, r2.Vec{Y: -1}},
		{"glancing wall", r2.Vec{X: -300, Y: 110}, r2.Vec{X: 1}},
		{"diagonal ceiling", r2.Vec{X: 200, Y: -200}, r2.Vec{Y: 1}},
		{"slow ball", r2.Vec{X: 5, Y: 5}, r2.Vec{X: -1}},
	}

	rng := rand.New(rand.NewSource(7))
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reflected := reflect(tc.v, tc.n)
			for i := 0; i < 200; i++ {
				out := BounceVelocity(tc.v, tc.n, speed, twistMin, twistMax, rng)

				if math.Abs(r2.Norm(out)-speed) > 1e-6 {
					t.Fatalf("speed = %f, want %f", r2.Norm(out), speed)
				}
				if r2.Dot(out, tc.n) < -1e-9 {
					t.Fatalf("velocity %v points into the surface %v", out, tc.n)
				}

				cos := r2.Dot(r2.Unit(out), r2.Unit(reflected))
				angle := math.Acos(clampFloat(cos, -1, 1))
				if angle < twistMin-1e-9 || angle >= twistMax+1e-9 {
					// A twist that would point into the surface falls back to the reflection.
					if angle > 1e-9 {
						t.Fatalf("twist angle %f outside [%f, %f)", angle, twistMin, twistMax)
					}
				}
			}
		})
	}
}

func TestBounceVelocityMovingAway(t *testing.T) {
	// Already separating: no reflection, only the twist.
	v := r2.Vec{X: 0, Y: -320}
	n := r2.Vec{Y: -1}
	out := BounceVelocity(v, n, 320, 0.2, 0.6, testRNG())
	if out.Y >= 0 {
		t.Errorf("separating ball was reflected back: %v", out)
	}
}

func TestResolverDebounce(t *testing.T) {
	cfg := testConfig()
	w := ecs.NewWorld()
	counters := &Counters{}
	fx := &recordingEffects{}
	r := NewResolver(w, cfg, testRNG(), fx, counters)

	ball := newTestBall(w, 0, "Red", r2.Vec{X: 400, Y: 600}, r2.Vec{Y: 320})
	peg := newTestObstacle(w, 1, r2.Vec{X: 400, Y: 620}, components.Body{Radius: 8}, components.Static{})
	velMap := ecs.NewMap[components.Velocity](w)

	r.Resolve([]Contact{obstacleContact(ball, peg, r2.Vec{Y: -1})}, 1.0, 1.0/60)
	after := *velMap.Get(ball)
	if after.Y >= 0 {
		t.Fatalf("first contact should bounce upward, got %+v", after)
	}

	// Same obstacle within the debounce interval
	r.Resolve([]Contact{obstacleContact(ball, peg, r2.Vec{Y: -1})}, 1.0+cfg.Bounce.Debounce/2, 1.0/60)
	if *velMap.Get(ball) != after {
		t.Errorf("debounced contact changed velocity: %+v -> %+v", after, *velMap.Get(ball))
	}
	if counters.Debounced != 1 || counters.Bounces != 1 {
		t.Errorf("bounces=%d debounced=%d, want 1 and 1", counters.Bounces, counters.Debounced)
	}
	if fx.obstacleHits != 1 {
		t.Errorf("obstacle hits = %d, want 1", fx.obstacleHits)
	}

	// After the debounce interval the contact counts again
	r.Resolve([]Contact{obstacleContact(ball, peg, r2.Vec{Y: -1})}, 1.0+cfg.Bounce.Debounce*2, 1.0/60)
	if counters.Bounces != 2 {
		t.Errorf("bounces = %d after debounce expired, want 2", counters.Bounces)
	}
}

func TestResolverTrapEscape(t *testing.T) {
	cfg := testConfig()
	w := ecs.NewWorld()
	counters := &Counters{}
	r := NewResolver(w, cfg, testRNG(), &recordingEffects{}, counters)

	ball := newTestBall(w, 0, "Red", r2.Vec{X: 400, Y: 600}, r2.Vec{X: 320})
	trackMap := ecs.NewMap[components.Tracking](w)
	velMap := ecs.NewMap[components.Velocity](w)

	var pegs []ecs.Entity
	for i := 0; i < cfg.Bounce.TrapThreshold; i++ {
		pegs = append(pegs, newTestObstacle(w, i+1, r2.Vec{X: 380 + float64(i)*10, Y: 620}, components.Body{Radius: 6}, components.Static{}))
	}

	now := 0.0
	for _, peg := range pegs {
		now += 0.1
		r.Resolve([]Contact{obstacleContact(ball, peg, r2.Vec{Y: -1})}, now, 1.0/60)
	}

	if counters.TrapEscapes != 1 {
		t.Fatalf("trap escapes = %d, want 1", counters.TrapEscapes)
	}
	if n := len(trackMap.Get(ball).Contacts); n != 0 {
		t.Errorf("contact log not cleared after trap: %d entries", n)
	}
	want := cfg.Ball.BaseSpeed * cfg.Bounce.TrapEscapeFactor
	if got := r2.Norm(velMap.Get(ball).Vec()); math.Abs(got-want) > 1e-6 {
		t.Errorf("escape speed = %f, want %f", got, want)
	}
}

func TestResolverTrapWindowPrunes(t *testing.T) {
	cfg := testConfig()
	w := ecs.NewWorld()
	counters := &Counters{}
	r := NewResolver(w, cfg, testRNG(), &recordingEffects{}, counters)
	ball := newTestBall(w, 0, "Red", r2.Vec{X: 400, Y: 600}, r2.Vec{X: 320})

	// Distinct obstacles spaced wider than the window never trap.
	now := 0.0
	for i := 0; i < cfg.Bounce.TrapThreshold*2; i++ {
		peg := newTestObstacle(w, i+1, r2.Vec{X: 400, Y: 620}, components.Body{Radius: 6}, components.Static{})
		r.Resolve([]Contact{obstacleContact(ball, peg, r2.Vec{Y: -1})}, now, 1.0/60)
		now += cfg.Bounce.TrapWindow
	}
	if counters.TrapEscapes != 0 {
		t.Errorf("trap escapes = %d, want 0", counters.TrapEscapes)
	}
}

func TestResolverCornerEscape(t *testing.T) {
	cfg := testConfig()
	w := ecs.NewWorld()
	counters := &Counters{}
	r := NewResolver(w, cfg, testRNG(), &recordingEffects{}, counters)
	ball := newTestBall(w, 0, "Red", r2.Vec{X: 15, Y: 15}, r2.Vec{X: -320})
	velMap := ecs.NewMap[components.Velocity](w)

	r.Resolve([]Contact{{Phase: ContactBegin, A: ball, AKind: components.KindBall, Wall: WallLeft, Normal: r2.Vec{X: 1}}}, 1, 1.0/60)

	v := velMap.Get(ball).Vec()
	if counters.CornerEscapes != 1 {
		t.Fatalf("corner escapes = %d, want 1", counters.CornerEscapes)
	}
	if v.X <= 0 || v.Y <= 0 {
		t.Errorf("corner escape should head into the arena, got %v", v)
	}
}

func TestResolverSlideBreak(t *testing.T) {
	cfg := testConfig()
	w := ecs.NewWorld()
	counters := &Counters{}
	r := NewResolver(w, cfg, testRNG(), &recordingEffects{}, counters)
	ball := newTestBall(w, 0, "Red", r2.Vec{X: 400, Y: 1186}, r2.Vec{X: 320})
	velMap := ecs.NewMap[components.Velocity](w)

	dt := 1.0 / 60
	persist := Contact{Phase: ContactPersist, A: ball, AKind: components.KindBall, Wall: WallBottom, Normal: r2.Vec{Y: -1}}
	steps := int(cfg.Bounce.SlideThreshold/dt) + 2
	for i := 0; i < steps; i++ {
		r.Resolve([]Contact{persist}, float64(i)*dt, dt)
	}
	if counters.SlideEscapes != 1 {
		t.Fatalf("slide escapes = %d, want 1", counters.SlideEscapes)
	}
	if v := velMap.Get(ball).Vec(); v.Y >= 0 {
		t.Errorf("slide break should push off the floor, got %v", v)
	}
}

func TestResolverBossContact(t *testing.T) {
	cfg := testConfig()
	w := ecs.NewWorld()
	counters := &Counters{}
	fx := &recordingEffects{}
	r := NewResolver(w, cfg, testRNG(), fx, counters)

	boss := ecs.NewMap3[components.Position, components.Body, components.Boss](w).NewEntity(
		&components.Position{X: 400, Y: 300},
		&components.Body{Kind: components.KindBoss, Shape: components.ShapeCircle, Radius: 50},
		&components.Boss{Health: 1000, MaxHealth: 1000},
	)
	ball := newTestBall(w, 0, "Red", r2.Vec{X: 430, Y: 340}, r2.Vec{Y: -320})
	buffs := ecs.NewMap[components.Buffs](w).Get(ball)
	buffs.Add(components.Buff{ID: 1, Kind: components.BuffSpeed, Multiplier: 1.5})
	buffs.Add(components.Buff{ID: 2, Kind: components.BuffDamage, Multiplier: 2})
	velMap := ecs.NewMap[components.Velocity](w)

	away := r2.Vec{X: 0.6, Y: 0.8}
	wantSpeed := cfg.Ball.BaseSpeed * 1.5 * cfg.Bounce.BossReboundFactor
	const hits = 50
	for i := 0; i < hits; i++ {
		velMap.Get(ball).Set(r2.Vec{Y: -320})
		// The contact normal disagrees with the centers; the rebound follows the centers.
		r.Resolve([]Contact{{
			Phase:  ContactBegin,
			A:      ball,
			AKind:  components.KindBall,
			B:      boss,
			BKind:  components.KindBoss,
			Normal: r2.Vec{Y: 1},
			Depth:  1,
		}}, float64(i), 1.0/60)

		v := velMap.Get(ball).Vec()
		if math.Abs(r2.Norm(v)-wantSpeed) > 1e-6 {
			t.Fatalf("rebound speed = %f, want %f", r2.Norm(v), wantSpeed)
		}
		angle := math.Acos(clampFloat(r2.Dot(r2.Unit(v), away), -1, 1))
		if angle > cfg.Bounce.BossJitter+1e-9 {
			t.Fatalf("rebound %v is %f rad off the away direction, want <= %f", v, angle, cfg.Bounce.BossJitter)
		}
	}

	if want := hits * 10 * 2.0; math.Abs(fx.bossDamage-want) > 1e-9 {
		t.Errorf("boss damage = %v, want %v", fx.bossDamage, want)
	}
	if counters.BossRebounds != hits {
		t.Errorf("boss rebounds = %d, want %d", counters.BossRebounds, hits)
	}
	if counters.Bounces != 0 {
		t.Errorf("boss contact counted as %d generic bounces", counters.Bounces)
	}
}

func TestResolverNonBouncingContacts(t *testing.T) {
	tests := []struct {
		name        string
		kind        components.BodyKind
		pickups     int
		projectiles int
	}{
		{"item is picked up", components.KindItem, 1, 0},
		{"projectile passes through", components.KindProjectile, 0, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := ecs.NewWorld()
			counters := &Counters{}
			fx := &recordingEffects{}
			r := NewResolver(w, testConfig(), testRNG(), fx, counters)

			start := r2.Vec{X: 200, Y: -150}
			ball := newTestBall(w, 0, "Red", r2.Vec{X: 400, Y: 600}, start)
			other := ecs.NewMap2[components.Position, components.Body](w).NewEntity(
				&components.Position{X: 410, Y: 600},
				&components.Body{Kind: tc.kind, Shape: components.ShapeCircle, Radius: 8},
			)

			r.Resolve([]Contact{{
				Phase:  ContactBegin,
				A:      ball,
				AKind:  components.KindBall,
				B:      other,
				BKind:  tc.kind,
				Normal: r2.Vec{X: -1},
				Depth:  1,
			}}, 1, 1.0/60)

			if v := ecs.NewMap[components.Velocity](w).Get(ball).Vec(); v != start {
				t.Errorf("velocity changed to %v, want %v", v, start)
			}
			if fx.pickups != tc.pickups {
				t.Errorf("pickups = %d, want %d", fx.pickups, tc.pickups)
			}
			if fx.projectileHits != tc.projectiles {
				t.Errorf("projectile hits = %d, want %d", fx.projectileHits, tc.projectiles)
			}
			if counters.Bounces != 0 || counters.BossRebounds != 0 {
				t.Errorf("counted a bounce: %+v", *counters)
			}
		})
	}
}
