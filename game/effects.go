package game

import "github.com/pthm-cable/bounce/renderer"

// Burst sizes per event.
const (
	finishBurst  = 24
	destroyBurst = 30
	breakBurst   = 16
	bossBurst    = 80
)

const (
	breakColor = 0xff9632
	bossColor  = 0xffcc33
)

// effect is a particle burst caused by a change between two snapshots.
type effect struct {
	X, Y  float64
	Count int
	Type  renderer.ParticleType
	Color uint32
}

// diffEffects compares consecutive snapshots of the same race and returns
// the bursts for balls that finished or were eliminated, obstacles that
// broke and a boss that died. Snapshots of different races yield nothing.
func diffEffects(prev, cur *Snapshot) []effect {
	if prev.Level != cur.Level || cur.Tick < prev.Tick {
		return nil
	}
	var out []effect

	before := make(map[int]*BallView, len(prev.Balls))
	for i := range prev.Balls {
		before[prev.Balls[i].Index] = &prev.Balls[i]
	}
	for i := range cur.Balls {
		b := &cur.Balls[i]
		p, ok := before[b.Index]
		if !ok {
			continue
		}
		switch {
		case b.Finished && !p.Finished:
			out = append(out, effect{X: b.X, Y: b.Y, Count: finishBurst, Type: renderer.ParticleFinish, Color: b.Color})
		case b.Eliminated && !p.Eliminated:
			out = append(out, effect{X: b.X, Y: b.Y, Count: destroyBurst, Type: renderer.ParticleDestroy, Color: b.Color})
		}
	}

	now := make(map[int]*ObstacleView, len(cur.Obstacles))
	for i := range cur.Obstacles {
		now[cur.Obstacles[i].ID] = &cur.Obstacles[i]
	}
	for i := range prev.Obstacles {
		o := &prev.Obstacles[i]
		if o.Disabled || o.Behavior != "breakable" {
			continue
		}
		if c, ok := now[o.ID]; !ok || c.Disabled {
			out = append(out, effect{X: o.X, Y: o.Y, Count: breakBurst, Type: renderer.ParticleBreak, Color: breakColor})
		}
	}

	if prev.Boss != nil && prev.Boss.State != "dead" && (cur.Boss == nil || cur.Boss.State == "dead") {
		out = append(out, effect{X: prev.Boss.X, Y: prev.Boss.Y, Count: bossBurst, Type: renderer.ParticleBoss, Color: bossColor})
	}
	return out
}
