package systems

import (
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/bounce/components"
	"github.com/pthm-cable/bounce/config"
)

// Effects receives the contact outcomes that are not velocity changes.
type Effects interface {
	// DamageBoss applies contact damage from a ball to the boss.
	DamageBoss(ball ecs.Entity, amount float64)
	// ProjectileHit resolves a projectile touching a ball or the boss.
	ProjectileHit(projectile, target ecs.Entity)
	// PickUp hands an item to a ball.
	PickUp(ball, item ecs.Entity)
	// ObstacleHit reports an accepted ball contact with an obstacle.
	ObstacleHit(ball, obstacle ecs.Entity)
}

// Counters tallies corrective actions taken by the resolver and the liveness governor.
type Counters struct {
	Bounces       int
	Debounced     int
	TrapEscapes   int
	CornerEscapes int
	SlideEscapes  int
	BossRebounds  int
	OutOfBounds   int
	Respawns      int
	StuckPushes   int
	DriftNudges   int
	SpeedRestores int
	Crushed       int
}

// EffectiveSpeed returns base speed scaled by the ball multiplier and active speed buffs.
func EffectiveSpeed(base float64, ball *components.Ball, buffs *components.Buffs) float64 {
	s := base * ball.SpeedMultiplier
	if buffs != nil {
		s *= buffs.Factor(components.BuffSpeed)
	}
	return s
}

// EffectiveDamage returns the ball damage scaled by active damage buffs.
func EffectiveDamage(ball *components.Ball, buffs *components.Buffs) float64 {
	d := ball.Damage
	if buffs != nil {
		d *= buffs.Factor(components.BuffDamage)
	}
	return d
}

// Resolver replaces the substrate's bounce response with gameplay-tuned reflection,
// debounce, trap detection and slide breaking.
type Resolver struct {
	cfg           config.BounceConfig
	baseSpeed     float64
	width, height float64
	rng           *rand.Rand
	effects       Effects
	counters      *Counters

	posMap   *ecs.Map[components.Position]
	velMap   *ecs.Map[components.Velocity]
	ballMap  *ecs.Map[components.Ball]
	buffMap  *ecs.Map[components.Buffs]
	trackMap *ecs.Map[components.Tracking]
	obsMap   *ecs.Map[components.Obstacle]
}

// NewResolver creates a bounce resolver bound to the given world.
func NewResolver(w *ecs.World, cfg *config.Config, rng *rand.Rand, effects Effects, counters *Counters) *Resolver {
	return &Resolver{
		cfg:       cfg.Bounce,
		baseSpeed: cfg.Ball.BaseSpeed,
		width:     cfg.Arena.Width,
		height:    cfg.Arena.Height,
		rng:       rng,
		effects:   effects,
		counters:  counters,
		posMap:    ecs.NewMap[components.Position](w),
		velMap:    ecs.NewMap[components.Velocity](w),
		ballMap:   ecs.NewMap[components.Ball](w),
		buffMap:   ecs.NewMap[components.Buffs](w),
		trackMap:  ecs.NewMap[components.Tracking](w),
		obsMap:    ecs.NewMap[components.Obstacle](w),
	}
}

// Resolve handles one physics step worth of contact events.
// now is the race clock and dt the step length, both in seconds.
func (r *Resolver) Resolve(contacts []Contact, now, dt float64) {
	for i := range contacts {
		c := &contacts[i]
		if c.AKind == components.KindProjectile {
			if c.Phase == ContactBegin {
				r.effects.ProjectileHit(c.A, c.B)
			}
			continue
		}
		if c.AKind != components.KindBall {
			continue
		}

		switch c.Phase {
		case ContactBegin:
			r.begin(c, now)
		case ContactPersist:
			r.persist(c, dt)
		case ContactEnd:
			if tr := r.trackMap.Get(c.A); tr != nil && tr.SlideKey == c.SurfaceKey() {
				tr.SlideKey = 0
				tr.SlideTime = 0
			}
		}
	}
}

func (r *Resolver) begin(c *Contact, now float64) {
	switch c.BKind {
	case components.KindBoss:
		r.bossContact(c)
		return
	case components.KindItem:
		r.effects.PickUp(c.A, c.B)
		return
	case components.KindProjectile:
		return
	case components.KindObstacle:
		obs := r.obsMap.Get(c.B)
		if obs == nil {
			return
		}
		switch r.logContact(c.A, obs.ID, now) {
		case contactDebounced:
			return
		case contactTrapped:
			r.effects.ObstacleHit(c.A, c.B)
			r.trapEscape(c.A)
			return
		}
		r.effects.ObstacleHit(c.A, c.B)
	}
	r.bounce(c.A, c.Normal)
}

type contactVerdict uint8

const (
	contactAccepted contactVerdict = iota
	contactDebounced
	contactTrapped
)

// logContact records an obstacle contact in the ball's sliding window and
// decides whether it is a debounced repeat or completes a trap.
func (r *Resolver) logContact(ball ecs.Entity, obstacle int, now float64) contactVerdict {
	tr := r.trackMap.Get(ball)
	if tr == nil {
		return contactAccepted
	}

	// Drop entries that left the trap window
	kept := tr.Contacts[:0]
	for _, rec := range tr.Contacts {
		if now-rec.T <= r.cfg.TrapWindow {
			kept = append(kept, rec)
		}
	}
	tr.Contacts = kept

	for _, rec := range tr.Contacts {
		if rec.Obstacle == obstacle && now-rec.T < r.cfg.Debounce {
			r.counters.Debounced++
			return contactDebounced
		}
	}
	tr.Contacts = append(tr.Contacts, components.ContactRecord{Obstacle: obstacle, T: now})

	if r.cfg.TrapThreshold > 0 && distinctObstacles(tr.Contacts) >= r.cfg.TrapThreshold {
		tr.Contacts = tr.Contacts[:0]
		return contactTrapped
	}
	return contactAccepted
}

func distinctObstacles(log []components.ContactRecord) int {
	n := 0
	for i, rec := range log {
		seen := false
		for _, prev := range log[:i] {
			if prev.Obstacle == rec.Obstacle {
				seen = true
				break
			}
		}
		if !seen {
			n++
		}
	}
	return n
}

// speedOf returns the effective speed of a ball entity.
func (r *Resolver) speedOf(e ecs.Entity) float64 {
	ball := r.ballMap.Get(e)
	if ball == nil {
		return r.baseSpeed
	}
	return EffectiveSpeed(r.baseSpeed, ball, r.buffMap.Get(e))
}

// bounce applies the generic reflection with twist, or the corner escape.
func (r *Resolver) bounce(e ecs.Entity, n r2.Vec) {
	vel := r.velMap.Get(e)
	pos := r.posMap.Get(e)
	if vel == nil || pos == nil {
		return
	}
	speed := r.speedOf(e)

	if dir, ok := r.cornerEscape(pos.Vec()); ok {
		vel.Set(r2.Scale(speed, dir))
		r.counters.CornerEscapes++
		return
	}

	vel.Set(BounceVelocity(vel.Vec(), n, speed, r.cfg.TwistMin, r.cfg.TwistMax, r.rng))
	r.counters.Bounces++
}

// BounceVelocity reflects v across n, twists it by a random angle in
// [twistMin, twistMax) away from the surface, and rescales it to speed.
func BounceVelocity(v, n r2.Vec, speed, twistMin, twistMax float64, rng *rand.Rand) r2.Vec {
	out := v
	if r2.Dot(v, n) < 0 {
		out = reflect(v, n)
	}
	if r2.Norm(out) < 1e-9 || !finite(out) {
		out = n
	}

	twist := twistMin + rng.Float64()*(twistMax-twistMin)
	if rng.Intn(2) == 0 {
		twist = -twist
	}
	twisted := rotate(out, twist)
	if r2.Dot(twisted, n) < 0 {
		twisted = rotate(out, -twist)
	}
	if r2.Dot(twisted, n) < 0 {
		twisted = out
	}
	return withSpeed(twisted, speed, n)
}

// cornerEscape returns a diagonal heading toward the interior when p is within
// the corner margin of two perpendicular walls.
func (r *Resolver) cornerEscape(p r2.Vec) (r2.Vec, bool) {
	m := r.cfg.CornerMargin
	var sx, sy float64
	switch {
	case p.X < m:
		sx = 1
	case p.X > r.width-m:
		sx = -1
	default:
		return r2.Vec{}, false
	}
	switch {
	case p.Y < m:
		sy = 1
	case p.Y > r.height-m:
		sy = -1
	default:
		return r2.Vec{}, false
	}
	angle := math.Atan2(sy, sx) + jitter(r.rng, r.cfg.CornerJitter)
	return fromAngle(angle, 1), true
}

// trapEscape frees a ball bouncing among obstacles with one strong random push.
func (r *Resolver) trapEscape(e ecs.Entity) {
	vel := r.velMap.Get(e)
	if vel == nil {
		return
	}
	vel.Set(fromAngle(randomAngle(r.rng), r.speedOf(e)*r.cfg.TrapEscapeFactor))
	r.counters.TrapEscapes++
}

func (r *Resolver) bossContact(c *Contact) {
	ball := r.ballMap.Get(c.A)
	if ball == nil {
		return
	}
	r.effects.DamageBoss(c.A, EffectiveDamage(ball, r.buffMap.Get(c.A)))

	vel := r.velMap.Get(c.A)
	pos := r.posMap.Get(c.A)
	bossPos := r.posMap.Get(c.B)
	if vel == nil || pos == nil {
		return
	}
	away := c.Normal
	if bossPos != nil {
		if d := r2.Sub(pos.Vec(), bossPos.Vec()); r2.Norm(d) > 1e-9 {
			away = r2.Unit(d)
		}
	}
	away = rotate(away, jitter(r.rng, r.cfg.BossJitter))
	vel.Set(r2.Scale(r.speedOf(c.A)*r.cfg.BossReboundFactor, away))
	r.counters.BossRebounds++
}

// persist accumulates continuous contact with one blocking surface and forces
// a bounce along the surface normal once the slide threshold is passed.
func (r *Resolver) persist(c *Contact, dt float64) {
	if c.BKind != components.KindObstacle && !c.IsWall() {
		return
	}
	tr := r.trackMap.Get(c.A)
	if tr == nil {
		return
	}
	key := c.SurfaceKey()
	if tr.SlideKey != key {
		tr.SlideKey = key
		tr.SlideTime = 0
	}
	tr.SlideTime += dt
	if tr.SlideTime <= r.cfg.SlideThreshold {
		return
	}

	if vel := r.velMap.Get(c.A); vel != nil {
		dir := rotate(c.Normal, jitter(r.rng, r.cfg.SlideJitter))
		vel.Set(r2.Scale(r.speedOf(c.A)*r.cfg.SlideFactor, dir))
		r.counters.SlideEscapes++
	}
	tr.SlideTime = 0
}
