package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/bounce/components"
)

// Box is an axis-aligned region in world space.
type Box struct {
	Min, Max r2.Vec
}

// BehaviorEngine advances scripted obstacle motion and keeps physics bodies
// in lockstep with the authored pose.
type BehaviorEngine struct {
	filter *ecs.Filter3[components.Position, components.Body, components.Obstacle]
	obsMap *ecs.Map2[components.Body, components.Obstacle]
	sched  *Scheduler

	swept []Box
}

// NewBehaviorEngine creates the obstacle behavior engine.
func NewBehaviorEngine(w *ecs.World, sched *Scheduler) *BehaviorEngine {
	return &BehaviorEngine{
		filter: ecs.NewFilter3[components.Position, components.Body, components.Obstacle](w),
		obsMap: ecs.NewMap2[components.Body, components.Obstacle](w),
		sched:  sched,
	}
}

// Update advances every obstacle by dt seconds. Crushers only move while live.
func (e *BehaviorEngine) Update(dt float64, live bool) {
	e.swept = e.swept[:0]

	query := e.filter.Query()
	for query.Next() {
		pos, body, obs := query.Get()

		switch b := obs.Behavior.(type) {
		case *components.Rotating:
			body.Angle = normalizeAngle(body.Angle + b.RadPerSec*dt)
		case *components.Moving:
			pos.Set(r2.Add(obs.Origin, r2.Scale(advanceMoving(b, dt), b.Axis)))
		case *components.Breakable:
			body.Disabled = b.Destroyed
		case *components.Crusher:
			if box, ok := e.advanceCrusher(b, pos, body, obs, dt, live); ok {
				e.swept = append(e.swept, box)
			}
		case *components.Keyframe:
			p, angle := advanceKeyframe(b, dt)
			pos.Set(p)
			body.Angle = angle
		}
	}
}

// advanceMoving steps the ping-pong phase and returns the offset along the axis.
func advanceMoving(m *components.Moving, dt float64) float64 {
	if m.Distance <= 0 {
		return 0
	}
	m.Phase = math.Mod(m.Phase+(m.Speed/m.Distance)*dt, 2)
	return MovingOffset(m.Phase, m.Distance)
}

// MovingOffset maps a phase in [0, 2) to a ping-pong offset in [-distance/2, distance/2].
func MovingOffset(phase, distance float64) float64 {
	t := phase
	if phase > 1 {
		t = 2 - phase
	}
	return (t - 0.5) * distance
}

func (e *BehaviorEngine) advanceCrusher(c *components.Crusher, pos *components.Position, body *components.Body, obs *components.Obstacle, dt float64, live bool) (Box, bool) {
	c.Sweeping = false
	if !live || c.Waiting {
		pos.Set(r2.Add(obs.Origin, r2.Scale(c.Offset, c.Dir)))
		return Box{}, false
	}

	prev := r2.Add(obs.Origin, r2.Scale(c.Offset, c.Dir))
	c.Offset += c.Speed * dt
	if c.Offset >= c.Travel-1e-9 {
		c.Offset = c.Travel
		c.Waiting = true
		e.armCrusherReset(c)
	}
	cur := r2.Add(obs.Origin, r2.Scale(c.Offset, c.Dir))
	pos.Set(cur)

	lo1, hi1 := rectAABB(prev, body.HalfW, body.HalfH, body.Angle)
	lo2, hi2 := rectAABB(cur, body.HalfW, body.HalfH, body.Angle)
	c.SweptMin = r2.Vec{X: math.Min(lo1.X, lo2.X), Y: math.Min(lo1.Y, lo2.Y)}
	c.SweptMax = r2.Vec{X: math.Max(hi1.X, hi2.X), Y: math.Max(hi1.Y, hi2.Y)}
	c.Sweeping = true
	return Box{Min: c.SweptMin, Max: c.SweptMax}, true
}

func (e *BehaviorEngine) armCrusherReset(c *components.Crusher) {
	if c.Armed {
		return
	}
	c.Armed = true
	e.sched.After(c.ResetDelay, func() {
		c.Offset = 0
		c.Waiting = false
		c.Armed = false
	})
}

// advanceKeyframe steps the track clock and interpolates the pose.
func advanceKeyframe(k *components.Keyframe, dt float64) (r2.Vec, float64) {
	k.Elapsed += dt
	return SamplePose(k.Keys, k.Elapsed, k.Loop)
}

// SamplePose linearly interpolates a keyframe track at time t.
func SamplePose(keys []components.KeyPose, t float64, loop bool) (r2.Vec, float64) {
	if len(keys) == 0 {
		return r2.Vec{}, 0
	}
	first, last := keys[0], keys[len(keys)-1]
	span := last.T - first.T
	if loop && span > 0 {
		t = first.T + math.Mod(t-first.T, span)
		if t < first.T {
			t += span
		}
	}
	if t <= first.T {
		return first.Pos, first.Angle
	}
	if t >= last.T {
		return last.Pos, last.Angle
	}
	for i := 1; i < len(keys); i++ {
		a, b := keys[i-1], keys[i]
		if t > b.T {
			continue
		}
		f := (t - a.T) / (b.T - a.T)
		pos := r2.Add(a.Pos, r2.Scale(f, r2.Sub(b.Pos, a.Pos)))
		return pos, a.Angle + f*(b.Angle-a.Angle)
	}
	return last.Pos, last.Angle
}

// Hit registers a ball contact against a breakable obstacle. It returns true
// on the single hit that destroys it.
func (e *BehaviorEngine) Hit(obstacle ecs.Entity, ballName string) bool {
	body, obs := e.obsMap.Get(obstacle)
	if obs == nil {
		return false
	}
	b, ok := obs.Behavior.(*components.Breakable)
	if !ok || b.Destroyed || !b.CanDamage(ballName) {
		return false
	}
	b.Health--
	if b.Health > 0 {
		return false
	}
	b.Health = 0
	b.Destroyed = true
	body.Disabled = true
	return true
}

// Swept returns the boxes active crushers swept during the last update.
func (e *BehaviorEngine) Swept() []Box { return e.swept }

// Reset returns every obstacle to its authored pose and initial state.
func (e *BehaviorEngine) Reset() {
	e.swept = e.swept[:0]
	query := e.filter.Query()
	for query.Next() {
		pos, body, obs := query.Get()
		pos.Set(obs.Origin)
		body.Angle = obs.OriginAngle
		body.Disabled = false
		switch b := obs.Behavior.(type) {
		case *components.Moving:
			b.Phase = 0.5
			pos.Set(r2.Add(obs.Origin, r2.Scale(MovingOffset(b.Phase, b.Distance), b.Axis)))
		case *components.Breakable:
			b.Health = b.MaxHealth
			b.Destroyed = false
		case *components.Crusher:
			b.Offset = 0
			b.Waiting = false
			b.Armed = false
			b.Sweeping = false
		case *components.Keyframe:
			b.Elapsed = 0
			p, angle := SamplePose(b.Keys, 0, b.Loop)
			pos.Set(p)
			body.Angle = angle
		}
	}
}
