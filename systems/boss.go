package systems

import (
	"errors"
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/bounce/components"
	"github.com/pthm-cable/bounce/config"
	"github.com/pthm-cable/bounce/level"
)

// BossState is the boss lifecycle state.
type BossState uint8

const (
	BossAbsent BossState = iota
	BossIdle
	BossAttacking
	BossDead
)

func (s BossState) String() string {
	switch s {
	case BossIdle:
		return "idle"
	case BossAttacking:
		return "attacking"
	case BossDead:
		return "dead"
	}
	return "absent"
}

// Attack patterns.
const (
	PatternSpiral = "spiral"
	PatternSpread = "spread"
	PatternAimed  = "aimed"
	PatternRandom = "random"
	PatternBurst  = "burst"
	PatternCycle  = "cycle"
)

// minAttackInterval bounds how often the attack timer re-arms.
const minAttackInterval = 0.05

var cyclePatterns = []string{PatternSpiral, PatternSpread, PatternAimed, PatternRandom, PatternBurst}

// ErrBossSpawned is returned when spawning a second boss.
var ErrBossSpawned = errors.New("boss: already spawned")

// BossSystem runs the boss spawn/attack/death state machine and its attack patterns.
type BossSystem struct {
	cfg    config.BossConfig
	rng    *rand.Rand
	sched  *Scheduler
	combat *Combat

	bossMapper *ecs.Map3[components.Position, components.Body, components.Boss]
	ballFilter *ecs.Filter3[components.Position, components.Body, components.Ball]

	entity      ecs.Entity
	state       BossState
	pattern     string
	current     string // pattern used by the last attack
	cycleIdx    int
	interval    float64
	timer       *Timer
	spiralAngle float64
	fade        float64
	onDeath     func()
	deathFired  bool
}

// NewBossSystem creates an absent boss. onDeath runs exactly once when the boss dies.
func NewBossSystem(w *ecs.World, cfg *config.Config, rng *rand.Rand, sched *Scheduler, combat *Combat, onDeath func()) *BossSystem {
	return &BossSystem{
		cfg:        cfg.Boss,
		rng:        rng,
		sched:      sched,
		combat:     combat,
		bossMapper: ecs.NewMap3[components.Position, components.Body, components.Boss](w),
		ballFilter: ecs.NewFilter3[components.Position, components.Body, components.Ball](w),
		onDeath:    onDeath,
	}
}

// Spawn creates the boss body: absent to idle.
func (b *BossSystem) Spawn(def *level.BossDef) (ecs.Entity, error) {
	if b.state != BossAbsent {
		return b.entity, ErrBossSpawned
	}
	body := &components.Body{Kind: components.KindBoss, Shape: components.ShapeCircle, Radius: def.Size}
	if def.Shape == level.ShapeRect {
		body.Shape = components.ShapeRect
		body.HalfW, body.HalfH = def.Size, def.Size
	}
	b.entity = b.bossMapper.NewEntity(
		&components.Position{X: def.X, Y: def.Y},
		body,
		&components.Boss{Health: def.Health, MaxHealth: def.Health},
	)
	b.pattern = def.Pattern
	b.current = def.Pattern
	b.interval = def.AttackInterval
	if b.interval <= 0 {
		b.interval = b.cfg.AttackInterval
	}
	if b.interval < minAttackInterval {
		b.interval = minAttackInterval
	}
	b.state = BossIdle
	b.fade = 1
	b.deathFired = false
	return b.entity, nil
}

// StartAttacking arms the attack timer: idle to attacking. Other states are unchanged.
func (b *BossSystem) StartAttacking() {
	if b.state != BossIdle {
		return
	}
	b.state = BossAttacking
	b.arm()
}

func (b *BossSystem) arm() {
	b.timer = b.sched.After(b.interval, func() {
		if b.state != BossAttacking {
			return
		}
		b.Attack()
		b.arm()
	})
}

// State returns the lifecycle state.
func (b *BossSystem) State() BossState { return b.state }

// Entity returns the boss entity and whether one exists.
func (b *BossSystem) Entity() (ecs.Entity, bool) { return b.entity, b.state != BossAbsent }

// Alive reports whether the boss can still be damaged.
func (b *BossSystem) Alive() bool { return b.state == BossIdle || b.state == BossAttacking }

// Pattern returns the pattern of the most recent attack.
func (b *BossSystem) Pattern() string { return b.current }

// Fade returns the cosmetic opacity after death.
func (b *BossSystem) Fade() float64 { return b.fade }

// Health returns current and maximum health.
func (b *BossSystem) Health() (float64, float64) {
	if b.state == BossAbsent {
		return 0, 0
	}
	_, _, boss := b.bossMapper.Get(b.entity)
	return boss.Health, boss.MaxHealth
}

// Position returns the boss center.
func (b *BossSystem) Position() r2.Vec {
	if b.state == BossAbsent {
		return r2.Vec{}
	}
	pos, _, _ := b.bossMapper.Get(b.entity)
	return pos.Vec()
}

// TakeDamage applies damage and returns the amount that landed. At zero health
// the boss dies exactly once; later calls land nothing.
func (b *BossSystem) TakeDamage(amount float64) float64 {
	if !b.Alive() || amount <= 0 {
		return 0
	}
	_, body, boss := b.bossMapper.Get(b.entity)
	applied := math.Min(amount, boss.Health)
	boss.Health -= amount
	if boss.Health > 0 {
		return applied
	}
	boss.Health = 0
	b.state = BossDead
	b.timer.Cancel()
	body.Disabled = true
	if !b.deathFired {
		b.deathFired = true
		if b.onDeath != nil {
			b.onDeath()
		}
	}
	return applied
}

// Update advances the cosmetic death fade.
func (b *BossSystem) Update(dt float64) {
	if b.state == BossDead && b.fade > 0 && b.cfg.FadeDuration > 0 {
		b.fade = math.Max(0, b.fade-dt/b.cfg.FadeDuration)
	}
}

// Attack fires the active pattern once.
func (b *BossSystem) Attack() {
	if b.state != BossAttacking {
		return
	}
	pattern := b.pattern
	if pattern == PatternCycle {
		pattern = cyclePatterns[b.cycleIdx%len(cyclePatterns)]
		b.cycleIdx++
	}
	b.current = pattern

	down := math.Pi / 2
	switch pattern {
	case PatternSpiral:
		b.shoot(b.spiralAngle)
		b.spiralAngle = normalizeAngle(b.spiralAngle + b.cfg.SpiralStep)
	case PatternSpread:
		center := down
		if target, ok := b.nearestBall(); ok {
			center = angleOf(r2.Sub(target, b.Position()))
		}
		n := b.cfg.SpreadCount
		for i := 0; i < n; i++ {
			offset := 0.0
			if n > 1 {
				offset = -b.cfg.SpreadArc/2 + b.cfg.SpreadArc*float64(i)/float64(n-1)
			}
			b.shoot(center + offset)
		}
	case PatternAimed:
		target, ok := b.nearestBall()
		if !ok {
			return
		}
		aim := angleOf(r2.Sub(target, b.Position()))
		for _, off := range [...]float64{-b.cfg.AimedJitter, 0, b.cfg.AimedJitter} {
			b.shoot(aim + off)
		}
	case PatternRandom:
		for i := 0; i < 3; i++ {
			b.shoot(randomAngle(b.rng))
		}
	case PatternBurst:
		for i := 0; i < b.cfg.BurstShots; i++ {
			if i == 0 {
				b.shoot(down)
				continue
			}
			b.sched.After(float64(i)*b.cfg.BurstGap, func() {
				if b.state == BossAttacking {
					b.shoot(down)
				}
			})
		}
	}
}

func (b *BossSystem) shoot(angle float64) {
	_, body, _ := b.bossMapper.Get(b.entity)
	dir := fromAngle(angle, 1)
	origin := r2.Add(b.Position(), r2.Scale(body.BoundingRadius()+b.cfg.ProjectileRadius, dir))
	b.combat.Spawn(origin, r2.Scale(b.cfg.ProjectileSpeed, dir), components.Projectile{
		FromBoss: true,
		Owner:    -1,
		Damage:   b.cfg.ProjectileDamage,
		Lifetime: b.cfg.ProjectileLifetime,
	}, b.cfg.ProjectileRadius)
}

// nearestBall returns the position of the closest racing ball.
func (b *BossSystem) nearestBall() (r2.Vec, bool) {
	center := b.Position()
	best, found := r2.Vec{}, false
	bestD := math.Inf(1)
	query := b.ballFilter.Query()
	for query.Next() {
		pos, body, ball := query.Get()
		if ball.Done() || body.Disabled {
			continue
		}
		if d := r2.Norm(r2.Sub(pos.Vec(), center)); d < bestD {
			bestD, best, found = d, pos.Vec(), true
		}
	}
	return best, found
}

// Reset cancels the attack timer and returns the system to absent. The boss
// entity itself is removed by the owner of the world.
func (b *BossSystem) Reset() {
	b.timer.Cancel()
	b.timer = nil
	b.state = BossAbsent
	b.entity = ecs.Entity{}
	b.cycleIdx = 0
	b.spiralAngle = 0
	b.fade = 1
	b.deathFired = false
}
