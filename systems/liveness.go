package systems

import (
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/bounce/components"
	"github.com/pthm-cable/bounce/config"
)

// Eliminator removes a ball from the race for good.
type Eliminator interface {
	Eliminate(ball ecs.Entity, reason string)
}

// Liveness is the per-tick watchdog that keeps balls inside the arena and moving.
type Liveness struct {
	cfg           config.LivenessConfig
	baseSpeed     float64
	width, height float64
	rng           *rand.Rand
	counters      *Counters
	eliminator    Eliminator
	interval      float64 // seconds between history samples
	spawn         func() r2.Vec

	filter  *ecs.Filter5[components.Position, components.Velocity, components.Body, components.Ball, components.Tracking]
	buffMap *ecs.Map[components.Buffs]

	crushed []ecs.Entity
}

// NewLiveness creates the liveness governor. spawn returns a safe respawn point.
func NewLiveness(w *ecs.World, cfg *config.Config, rng *rand.Rand, counters *Counters, eliminator Eliminator, spawn func() r2.Vec) *Liveness {
	samples := cfg.Liveness.StuckSamples
	if samples < 2 {
		samples = 2
	}
	return &Liveness{
		cfg:        cfg.Liveness,
		baseSpeed:  cfg.Ball.BaseSpeed,
		width:      cfg.Arena.Width,
		height:     cfg.Arena.Height,
		rng:        rng,
		counters:   counters,
		eliminator: eliminator,
		interval:   cfg.Liveness.StuckWindow / float64(samples),
		spawn:      spawn,
		filter:     ecs.NewFilter5[components.Position, components.Velocity, components.Body, components.Ball, components.Tracking](w),
		buffMap:    ecs.NewMap[components.Buffs](w),
	}
}

// Update runs every correction for one step of dt seconds. swept holds the
// boxes active crushers covered during this step.
func (l *Liveness) Update(dt float64, swept []Box) {
	l.crushed = l.crushed[:0]
	samples := l.cfg.StuckSamples
	if samples < 2 {
		samples = 2
	}

	query := l.filter.Query()
	for query.Next() {
		pos, vel, body, ball, tr := query.Get()
		if ball.Done() {
			continue
		}
		e := query.Entity()
		speed := EffectiveSpeed(l.baseSpeed, ball, l.buffMap.Get(e))

		// Anomalies: non-finite state respawns at the last safe point.
		if !finite(pos.Vec()) || !finite(vel.Vec()) {
			p := tr.LastSafe
			if !finite(p) || (p == r2.Vec{}) {
				p = l.spawn()
			}
			pos.Set(p)
			vel.Set(fromAngle(randomAngle(l.rng), speed))
			tr.ClearHistory()
			l.counters.Respawns++
		}

		l.clamp(pos, vel, body.Radius)
		l.unstick(pos, vel, tr, speed, dt, samples)
		l.undrift(pos, vel)

		if v := vel.Vec(); r2.Norm(v) < l.cfg.MinSpeedFactor*speed {
			vel.Set(withSpeed(v, speed, fromAngle(randomAngle(l.rng), 1)))
			l.counters.SpeedRestores++
		}

		for _, box := range swept {
			if circleInBox(pos.Vec(), body.Radius, box.Min, box.Max) {
				l.crushed = append(l.crushed, e)
				break
			}
		}

		tr.LastSafe = pos.Vec()
	}

	// Elimination mutates components outside the query.
	for _, e := range l.crushed {
		l.counters.Crushed++
		l.eliminator.Eliminate(e, components.ReasonCrushed)
	}
}

// clamp pins a ball inside the arena with an inelastic flip on the violated axis.
func (l *Liveness) clamp(pos *components.Position, vel *components.Velocity, r float64) {
	loss := l.cfg.EnergyLoss
	out := false
	if pos.X < r {
		pos.X = r
		if vel.X < 0 {
			vel.X = -vel.X * loss
		}
		out = true
	} else if pos.X > l.width-r {
		pos.X = l.width - r
		if vel.X > 0 {
			vel.X = -vel.X * loss
		}
		out = true
	}
	if pos.Y < r {
		pos.Y = r
		if vel.Y < 0 {
			vel.Y = -vel.Y * loss
		}
		out = true
	} else if pos.Y > l.height-r {
		pos.Y = l.height - r
		if vel.Y > 0 {
			vel.Y = -vel.Y * loss
		}
		out = true
	}
	if out {
		l.counters.OutOfBounds++
	}
}

// nearWall reports whether p is within the wall proximity distance of any side.
func (l *Liveness) nearWall(p r2.Vec) bool {
	d := l.cfg.WallProximity
	return p.X < d || p.X > l.width-d || p.Y < d || p.Y > l.height-d
}

// unstick samples position history and pushes a ball that has not moved far
// enough over the whole window.
func (l *Liveness) unstick(pos *components.Position, vel *components.Velocity, tr *components.Tracking, speed, dt float64, samples int) {
	if l.interval > 0 {
		tr.SampleAccum += dt
		for tr.SampleAccum >= l.interval {
			tr.SampleAccum -= l.interval
			tr.PushHistory(pos.Vec(), samples)
		}
	} else {
		// No usable window: sample once per step.
		tr.PushHistory(pos.Vec(), samples)
	}
	if !tr.HistoryFull() || tr.MaxDisplacement() >= l.cfg.StuckThreshold {
		return
	}

	p := pos.Vec()
	var angle float64
	if l.nearWall(p) {
		center := r2.Vec{X: l.width / 2, Y: l.height / 2}
		angle = angleOf(r2.Sub(center, p)) + jitter(l.rng, l.cfg.StuckSpread)
	} else {
		angle = randomAngle(l.rng)
	}
	vel.Set(fromAngle(angle, speed*l.cfg.StuckEscapeFactor))
	tr.ClearHistory()
	l.counters.StuckPushes++
}

// undrift nudges velocities that have collapsed onto one axis.
func (l *Liveness) undrift(pos *components.Position, vel *components.Velocity) {
	v := vel.Vec()
	s := r2.Norm(v)
	if s < 1e-9 {
		return
	}
	if math.Abs(v.X)/s >= l.cfg.DriftEpsilon && math.Abs(v.Y)/s >= l.cfg.DriftEpsilon {
		return
	}
	nudge := l.cfg.DriftNudge
	if l.nearWall(pos.Vec()) {
		nudge = l.cfg.DriftWallNudge
	}
	if l.rng.Intn(2) == 0 {
		nudge = -nudge
	}
	vel.Set(rotate(v, nudge))
	l.counters.DriftNudges++
}
