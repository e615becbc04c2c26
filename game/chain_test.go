package game

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/bounce/config"
	"github.com/pthm-cable/bounce/level"
	"github.com/pthm-cable/bounce/telemetry"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
	}{
		{"e74c3c", 0xe74c3c},
		{"#3498db", 0x3498db},
		{"000000", 0},
		{"nope", 0xffffff},
		{"1ffffff", 0xffffff},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseColor(tt.in); got != tt.want {
				t.Errorf("ParseColor(%q) = %06x, want %06x", tt.in, got, tt.want)
			}
		})
	}
}

func TestCrusherTravel(t *testing.T) {
	cfg := config.Defaults() // 800 x 1200
	r, err := NewRace(cfg, cfg.Roster[:1], 1)
	if err != nil {
		t.Fatalf("NewRace: %v", err)
	}

	tests := []struct {
		name   string
		def    level.ObstacleDef
		travel float64
	}{
		{
			name:   "rect toward far x edge",
			def:    level.ObstacleDef{Shape: level.ShapeRect, X: 20, Y: 300, Width: 40, Height: 100, Crusher: &level.CrusherDef{Axis: "x", Direction: 1}},
			travel: 760,
		},
		{
			name:   "rect toward near x edge",
			def:    level.ObstacleDef{Shape: level.ShapeRect, X: 780, Y: 300, Width: 40, Height: 100, Crusher: &level.CrusherDef{Axis: "x", Direction: -1}},
			travel: 760,
		},
		{
			name:   "circle toward far y edge",
			def:    level.ObstacleDef{Shape: level.ShapeCircle, X: 400, Y: 100, Radius: 50, Crusher: &level.CrusherDef{Axis: "y", Direction: 1}},
			travel: 1050,
		},
		{
			name:   "authored distance caps travel",
			def:    level.ObstacleDef{Shape: level.ShapeRect, X: 20, Y: 300, Width: 40, Height: 100, Crusher: &level.CrusherDef{Axis: "x", Direction: 1, Distance: 200}},
			travel: 200,
		},
		{
			name:   "rotated rect uses its bounds",
			def:    level.ObstacleDef{Shape: level.ShapeRect, X: 100, Y: 300, Width: 100, Height: 20, Angle: 90, Crusher: &level.CrusherDef{Axis: "x", Direction: -1}},
			travel: 90,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := obstacleBody(&tt.def)
			c := r.crusher(tt.def.Crusher, r2.Vec{X: tt.def.X, Y: tt.def.Y}, &body)
			if math.Abs(c.Travel-tt.travel) > 1e-6 {
				t.Errorf("travel = %v, want %v", c.Travel, tt.travel)
			}
		})
	}
}

func TestChainPoints(t *testing.T) {
	cfg := fastConfig(t)
	levels := []*level.Level{builtin(t, "course"), builtin(t, "gauntlet")}

	chain, err := NewChain(cfg, levels, 3, 42)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	var races []telemetry.RaceResult
	chain.OnRace = func(rr telemetry.RaceResult) { races = append(races, rr) }

	res, err := chain.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Races != 2 || len(races) != 2 {
		t.Fatalf("races = %d (%d delivered), want 2", res.Races, len(races))
	}
	if res.Expired {
		t.Error("chain reported expired")
	}

	want := make(map[string]int)
	for i, rr := range races {
		if rr.Run != 3 || rr.Race != i {
			t.Errorf("race %d stamped run=%d race=%d", i, rr.Run, rr.Race)
		}
		for _, p := range rr.Placements {
			want[p.Name] += p.Points
		}
	}
	for i, s := range res.Table {
		if s.Points != want[s.Name] {
			t.Errorf("%s points = %d, want %d", s.Name, s.Points, want[s.Name])
		}
		if s.Rank != i+1 {
			t.Errorf("%s rank = %d, want %d", s.Name, s.Rank, i+1)
		}
		if i > 0 && s.Points > res.Table[i-1].Points {
			t.Errorf("table not sorted by points at %d: %+v", i, res.Table)
		}
	}
	if res.Winner != res.Table[0].Name {
		t.Errorf("winner = %q, want table leader %q", res.Winner, res.Table[0].Name)
	}
	if res.Levels != "course,gauntlet" {
		t.Errorf("levels = %q", res.Levels)
	}
}

func TestChainNoLevels(t *testing.T) {
	if _, err := NewChain(config.Defaults(), nil, 0, 1); !errors.Is(err, ErrNoLevels) {
		t.Errorf("error = %v, want ErrNoLevels", err)
	}
}

func TestChainWatchdogSkipsRemainingLevels(t *testing.T) {
	cfg := fastConfig(t)
	cfg.Watchdog.ChainWallClock = time.Nanosecond
	levels := []*level.Level{builtin(t, "course"), builtin(t, "gauntlet"), builtin(t, "boss_arena")}

	chain, err := NewChain(cfg, levels, 0, 1)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	res, err := chain.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Expired {
		t.Error("chain did not report expiry")
	}
	if res.Races >= len(levels) {
		t.Errorf("played %d races after the chain deadline", res.Races)
	}
}

func TestWatchdogRaceContext(t *testing.T) {
	wd := NewWatchdog(context.Background(), time.Nanosecond, 0)
	defer wd.Stop()

	ctx, cancel := wd.Race()
	defer cancel()
	<-ctx.Done()
	if wd.Expired() {
		t.Error("race ceiling expired the chain")
	}

	wd.Stop()
	if !wd.Expired() {
		t.Error("stopped watchdog not expired")
	}
}
