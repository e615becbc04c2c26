package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/bounce/components"
	"github.com/pthm-cable/bounce/config"
)

// WeaponStats accumulates usage of one weapon over a race.
type WeaponStats struct {
	ID     string
	Shots  int
	Hits   int
	Damage float64
}

type shot struct {
	owner  int
	weapon string
	from   r2.Vec
	to     r2.Vec
	radius float64
	def    config.WeaponConfig
	damage float64
}

// Combat owns projectiles, ball weapons, damage and item buffs.
type Combat struct {
	weapons       map[string]config.WeaponConfig
	width, height float64
	baseSpeed     float64
	projRadius    float64
	sched         *Scheduler
	eliminator    Eliminator
	boss          *BossSystem

	projMapper *ecs.Map4[components.Position, components.Velocity, components.Body, components.Projectile]
	projFilter *ecs.Filter2[components.Position, components.Projectile]
	armed      *ecs.Filter4[components.Position, components.Body, components.Ball, components.Buffs]
	ballMap    *ecs.Map4[components.Velocity, components.Body, components.Ball, components.Buffs]
	itemMap    *ecs.Map2[components.Body, components.Item]
	projMap    *ecs.Map[components.Projectile]
	world      *ecs.World

	now     float64
	buffSeq uint64
	usage   []WeaponStats
	usageIx map[string]int
	shots   []shot
	expired []ecs.Entity
	damaged func(ball *components.Ball, amount float64)
}

// NewCombat creates the combat system. The boss is attached later with SetBoss.
func NewCombat(w *ecs.World, cfg *config.Config, sched *Scheduler, eliminator Eliminator) *Combat {
	c := &Combat{
		weapons:    cfg.Derived.WeaponIndex,
		width:      cfg.Arena.Width,
		height:     cfg.Arena.Height,
		baseSpeed:  cfg.Ball.BaseSpeed,
		projRadius: cfg.Boss.ProjectileRadius,
		sched:      sched,
		eliminator: eliminator,
		projMapper: ecs.NewMap4[components.Position, components.Velocity, components.Body, components.Projectile](w),
		projFilter: ecs.NewFilter2[components.Position, components.Projectile](w),
		armed:      ecs.NewFilter4[components.Position, components.Body, components.Ball, components.Buffs](w),
		ballMap:    ecs.NewMap4[components.Velocity, components.Body, components.Ball, components.Buffs](w),
		itemMap:    ecs.NewMap2[components.Body, components.Item](w),
		projMap:    ecs.NewMap[components.Projectile](w),
		world:      w,
		usageIx:    make(map[string]int),
	}
	// Usage rows follow the configured weapon order.
	for _, wc := range cfg.Weapons {
		c.usageIx[wc.ID] = len(c.usage)
		c.usage = append(c.usage, WeaponStats{ID: wc.ID})
	}
	return c
}

// SetBoss attaches the boss that ball weapons and contacts can damage.
func (c *Combat) SetBoss(b *BossSystem) { c.boss = b }

// OnDamage registers a callback for damage taken by balls.
func (c *Combat) OnDamage(fn func(ball *components.Ball, amount float64)) { c.damaged = fn }

// Usage returns per-weapon statistics in configuration order.
func (c *Combat) Usage() []WeaponStats {
	return append([]WeaponStats(nil), c.usage...)
}

// Spawn creates a projectile moving with vel.
func (c *Combat) Spawn(at, vel r2.Vec, p components.Projectile, radius float64) ecs.Entity {
	p.Spawned = c.sched.Now()
	return c.projMapper.NewEntity(
		&components.Position{X: at.X, Y: at.Y},
		&components.Velocity{X: vel.X, Y: vel.Y},
		&components.Body{Kind: components.KindProjectile, Shape: components.ShapeCircle, Radius: radius, Sensor: true},
		&p,
	)
}

// Update ticks weapon cooldowns, fires ready weapons and prunes spent projectiles.
func (c *Combat) Update(now, dt float64) {
	c.now = now
	c.fire(dt)
	c.prune()
}

func (c *Combat) fire(dt float64) {
	if len(c.weapons) == 0 {
		return
	}
	type target struct {
		index int
		pos   r2.Vec
	}
	var living []target
	query := c.armed.Query()
	for query.Next() {
		pos, body, ball, _ := query.Get()
		if !ball.Done() && !body.Disabled {
			living = append(living, target{index: ball.Index, pos: pos.Vec()})
		}
	}

	bossAlive := c.boss != nil && c.boss.Alive()
	var bossPos r2.Vec
	if bossAlive {
		bossPos = c.boss.Position()
	}

	c.shots = c.shots[:0]
	query = c.armed.Query()
	for query.Next() {
		pos, body, ball, buffs := query.Get()
		if ball.Done() || body.Disabled {
			continue
		}
		p := pos.Vec()
		for i := range ball.Weapons {
			slot := &ball.Weapons[i]
			slot.Cooldown -= dt
			if slot.Cooldown > 0 {
				continue
			}
			def, ok := c.weapons[slot.ID]
			if !ok {
				continue
			}

			aim, found := r2.Vec{}, false
			if bossAlive && r2.Norm(r2.Sub(bossPos, p)) <= def.Range {
				aim, found = bossPos, true
			} else {
				best := math.Inf(1)
				for _, t := range living {
					if t.index == ball.Index {
						continue
					}
					if d := r2.Norm(r2.Sub(t.pos, p)); d <= def.Range && d < best {
						best, aim, found = d, t.pos, true
					}
				}
			}
			if !found {
				// Stay ready until a target comes into range.
				slot.Cooldown = 0
				continue
			}
			slot.Cooldown = def.Cooldown
			c.shots = append(c.shots, shot{
				owner:  ball.Index,
				weapon: slot.ID,
				from:   p,
				to:     aim,
				radius: body.Radius,
				def:    def,
				damage: def.Damage * buffs.Factor(components.BuffDamage),
			})
		}
	}

	for _, s := range c.shots {
		dir := withSpeed(r2.Sub(s.to, s.from), 1, r2.Vec{Y: -1})
		origin := r2.Add(s.from, r2.Scale(s.radius+c.projRadius, dir))
		lifetime := 0.0
		if s.def.ProjectileSpeed > 0 {
			lifetime = s.def.Range / s.def.ProjectileSpeed
		}
		c.Spawn(origin, r2.Scale(s.def.ProjectileSpeed, dir), components.Projectile{
			Owner:    s.owner,
			Weapon:   s.weapon,
			Damage:   s.damage,
			Lifetime: lifetime,
			Piercing: s.def.Piercing,
		}, c.projRadius)
		if i, ok := c.usageIx[s.weapon]; ok {
			c.usage[i].Shots++
		}
	}
}

// prune removes projectiles that are spent, expired or outside the arena.
func (c *Combat) prune() {
	c.expired = c.expired[:0]
	query := c.projFilter.Query()
	for query.Next() {
		pos, p := query.Get()
		out := pos.X < 0 || pos.Y < 0 || pos.X > c.width || pos.Y > c.height
		if p.Dead || out || (p.Lifetime > 0 && c.now-p.Spawned >= p.Lifetime) {
			c.expired = append(c.expired, query.Entity())
		}
	}
	for _, e := range c.expired {
		c.world.RemoveEntity(e)
	}
}

// Projectiles returns the number of live projectiles.
func (c *Combat) Projectiles() int {
	n := 0
	query := c.projFilter.Query()
	for query.Next() {
		n++
	}
	return n
}

// ProjectileHit resolves a projectile touching a ball or the boss.
func (c *Combat) ProjectileHit(projectile, target ecs.Entity) {
	p := c.projMap.Get(projectile)
	if p == nil || p.Dead {
		return
	}

	if c.boss != nil {
		if be, ok := c.boss.Entity(); ok && be == target {
			if p.FromBoss {
				return
			}
			landed := c.boss.TakeDamage(p.Damage)
			c.credit(p.Owner, landed)
			c.recordHit(p, landed)
			if !p.Piercing {
				p.Dead = true
			}
			return
		}
	}

	if !c.world.Alive(target) {
		return
	}
	_, _, ball, _ := c.ballMap.Get(target)
	if ball == nil || ball.Done() {
		return
	}
	landed := c.Hurt(target, p.Damage)
	if !p.FromBoss {
		c.recordHit(p, landed)
	}
	if !p.Piercing {
		p.Dead = true
	}
}

func (c *Combat) recordHit(p *components.Projectile, landed float64) {
	if i, ok := c.usageIx[p.Weapon]; ok {
		c.usage[i].Hits++
		c.usage[i].Damage += landed
	}
}

// credit adds boss damage to the ball with roster index owner.
func (c *Combat) credit(owner int, amount float64) {
	if owner < 0 || amount <= 0 {
		return
	}
	query := c.armed.Query()
	for query.Next() {
		_, _, ball, _ := query.Get()
		if ball.Index == owner {
			ball.DamageDealt += amount
		}
	}
}

// Hurt applies damage to a ball and eliminates it at zero health. It returns
// the amount that landed; invincible and finished balls take nothing.
func (c *Combat) Hurt(e ecs.Entity, amount float64) float64 {
	_, _, ball, buffs := c.ballMap.Get(e)
	if ball == nil || ball.Done() || amount <= 0 {
		return 0
	}
	if buffs != nil && buffs.Has(components.BuffInvincibility) {
		return 0
	}
	landed := math.Min(amount, ball.Health)
	ball.Health -= amount
	if c.damaged != nil {
		c.damaged(ball, landed)
	}
	if ball.Health <= 0 {
		ball.Health = 0
		c.eliminator.Eliminate(e, components.ReasonDestroyed)
	}
	return landed
}

// DamageBoss applies contact damage from a ball and credits what landed.
func (c *Combat) DamageBoss(e ecs.Entity, amount float64) {
	if c.boss == nil {
		return
	}
	landed := c.boss.TakeDamage(amount)
	if landed <= 0 {
		return
	}
	if _, _, ball, _ := c.ballMap.Get(e); ball != nil {
		ball.DamageDealt += landed
	}
}

// PickUp applies an item's buff to a ball and schedules its expiry.
func (c *Combat) PickUp(e, item ecs.Entity) bool {
	itemBody, it := c.itemMap.Get(item)
	if it == nil || it.Taken {
		return false
	}
	vel, body, ball, buffs := c.ballMap.Get(e)
	if ball == nil || ball.Done() || buffs == nil {
		return false
	}
	it.Taken = true
	itemBody.Disabled = true

	c.buffSeq++
	id := c.buffSeq
	buffs.Add(components.Buff{ID: id, Kind: it.Buff, Multiplier: it.Multiplier})
	c.applyBuffs(vel, body, ball, buffs)

	if it.Duration > 0 {
		c.sched.After(it.Duration, func() {
			if !c.world.Alive(e) {
				return
			}
			vel, body, ball, buffs := c.ballMap.Get(e)
			buffs.Remove(id)
			c.applyBuffs(vel, body, ball, buffs)
		})
	}
	return true
}

// applyBuffs refreshes the buff-dependent body radius and speed.
func (c *Combat) applyBuffs(vel *components.Velocity, body *components.Body, ball *components.Ball, buffs *components.Buffs) {
	body.Radius = ball.BaseRadius * buffs.Factor(components.BuffSize)
	if ball.Done() {
		return
	}
	speed := EffectiveSpeed(c.baseSpeed, ball, buffs)
	vel.Set(withSpeed(vel.Vec(), speed, r2.Vec{Y: -speed}))
}

// Reset zeroes the usage counters and removes every projectile.
func (c *Combat) Reset() {
	for i := range c.usage {
		c.usage[i] = WeaponStats{ID: c.usage[i].ID}
	}
	c.now = 0
	c.buffSeq = 0
	c.expired = c.expired[:0]
	query := c.projFilter.Query()
	for query.Next() {
		c.expired = append(c.expired, query.Entity())
	}
	for _, e := range c.expired {
		c.world.RemoveEntity(e)
	}
}
