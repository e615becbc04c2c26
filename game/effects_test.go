package game

import (
	"testing"

	"github.com/pthm-cable/bounce/renderer"
)

func TestDiffEffects(t *testing.T) {
	prev := &Snapshot{
		Tick:  10,
		Level: "course",
		Balls: []BallView{
			{Index: 0, X: 1, Y: 1, Color: 0xff0000},
			{Index: 1, X: 2, Y: 2},
			{Index: 2, X: 3, Y: 3, Finished: true},
		},
		Obstacles: []ObstacleView{
			{ID: 1, Behavior: "breakable", X: 50, Y: 50},
			{ID: 2, Behavior: "breakable", X: 60, Y: 60},
			{ID: 3, Behavior: "static", X: 70, Y: 70},
		},
		Boss: &BossView{X: 400, Y: 100, State: "attacking"},
	}
	cur := &Snapshot{
		Tick:  11,
		Level: "course",
		Balls: []BallView{
			{Index: 0, X: 1, Y: 1, Color: 0xff0000, Finished: true},
			{Index: 1, X: 2, Y: 2, Eliminated: true},
			{Index: 2, X: 3, Y: 3, Finished: true},
		},
		Obstacles: []ObstacleView{
			{ID: 1, Behavior: "breakable", X: 50, Y: 50, Disabled: true},
		},
		Boss: &BossView{X: 400, Y: 100, State: "dead"},
	}

	got := diffEffects(prev, cur)
	counts := map[renderer.ParticleType]int{}
	for _, fx := range got {
		counts[fx.Type]++
	}

	want := map[renderer.ParticleType]int{
		renderer.ParticleFinish:  1,
		renderer.ParticleDestroy: 1,
		renderer.ParticleBreak:   2,
		renderer.ParticleBoss:    1,
	}
	for typ, n := range want {
		if counts[typ] != n {
			t.Errorf("type %d: %d effects, want %d", typ, counts[typ], n)
		}
	}
	if got[0].Color != 0xff0000 {
		t.Errorf("finish burst color = %06x, want ball color", got[0].Color)
	}
}

func TestDiffEffectsNewRace(t *testing.T) {
	prev := &Snapshot{Tick: 500, Level: "course", Boss: &BossView{State: "attacking"}}
	cur := &Snapshot{Tick: 0, Level: "gauntlet"}
	if fx := diffEffects(prev, cur); len(fx) != 0 {
		t.Errorf("got %d effects across races, want 0", len(fx))
	}
}
