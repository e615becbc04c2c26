// Package systems contains the ECS systems that drive a race.
package systems

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/bounce/components"
)

// Wall identifies one side of the arena.
type Wall uint8

const (
	WallNone Wall = iota
	WallLeft
	WallRight
	WallTop
	WallBottom
)

func (w Wall) String() string {
	switch w {
	case WallLeft:
		return "left"
	case WallRight:
		return "right"
	case WallTop:
		return "top"
	case WallBottom:
		return "bottom"
	}
	return "none"
}

// ContactPhase tells whether a contact pair is new, ongoing or just separated.
type ContactPhase uint8

const (
	ContactBegin ContactPhase = iota
	ContactPersist
	ContactEnd
)

// Contact is one touching pair reported by the physics step.
// A is the moving body (ball or projectile); B is the other entity, or zero for walls.
type Contact struct {
	Phase  ContactPhase
	A      ecs.Entity
	AKind  components.BodyKind
	B      ecs.Entity
	BKind  components.BodyKind
	Wall   Wall
	Normal r2.Vec // unit, points toward A
	Depth  float64
}

// IsWall reports whether the contact is against the arena boundary.
func (c *Contact) IsWall() bool { return c.Wall != WallNone }

// SurfaceKey identifies the touched surface for continuous-contact tracking.
func (c *Contact) SurfaceKey() uint64 {
	if c.IsWall() {
		return uint64(c.Wall)
	}
	return uint64(c.B.ID())<<8 | 0xff
}

type pairKey struct {
	a, b ecs.Entity
	wall Wall
}

func (c *Contact) key() pairKey { return pairKey{a: c.A, b: c.B, wall: c.Wall} }

type bodyRef struct {
	e    ecs.Entity
	pos  r2.Vec
	body components.Body
}

// Physics is the rigid-body substrate: it integrates motion, detects contacts,
// separates blocking overlaps and reports contact pairs. Velocity response is
// left to the bounce resolver.
type Physics struct {
	width, height float64

	movers  *ecs.Filter3[components.Position, components.Velocity, components.Body]
	bodies  *ecs.Filter2[components.Position, components.Body]
	posMap  *ecs.Map[components.Position]
	buffMap *ecs.Map[components.Buffs]
	projMap *ecs.Map[components.Projectile]
	ballMap *ecs.Map[components.Ball]

	balls, projectiles, others []bodyRef

	prev     []Contact
	prevKeys map[pairKey]int
	current  []Contact
	curKeys  map[pairKey]int
	events   []Contact
}

// NewPhysics creates the physics substrate for an arena of the given size.
func NewPhysics(w *ecs.World, width, height float64) *Physics {
	return &Physics{
		width:    width,
		height:   height,
		movers:   ecs.NewFilter3[components.Position, components.Velocity, components.Body](w),
		bodies:   ecs.NewFilter2[components.Position, components.Body](w),
		posMap:   ecs.NewMap[components.Position](w),
		buffMap:  ecs.NewMap[components.Buffs](w),
		projMap:  ecs.NewMap[components.Projectile](w),
		ballMap:  ecs.NewMap[components.Ball](w),
		prevKeys: make(map[pairKey]int),
		curKeys:  make(map[pairKey]int),
	}
}

// Bounds returns the arena size.
func (p *Physics) Bounds() (width, height float64) { return p.width, p.height }

// Step advances motion by dt seconds and returns the contact events of this step.
// The returned slice is reused by the next call.
func (p *Physics) Step(dt float64) []Contact {
	p.integrate(dt)
	p.gather()

	p.current = p.current[:0]
	clear(p.curKeys)

	for i := range p.balls {
		p.collideBall(i)
	}
	for i := range p.projectiles {
		p.collideProjectile(&p.projectiles[i])
	}

	for _, b := range p.balls {
		if pos := p.posMap.Get(b.e); pos != nil {
			pos.Set(b.pos)
		}
	}

	return p.classify()
}

// Forget drops tracked pairs involving e so a re-enabled body starts fresh.
func (p *Physics) Forget(e ecs.Entity) {
	kept := p.prev[:0]
	for _, c := range p.prev {
		if c.A != e && c.B != e {
			kept = append(kept, c)
		}
	}
	p.prev = kept
	p.reindex()
}

// Reset clears all tracked pairs.
func (p *Physics) Reset() {
	p.prev = p.prev[:0]
	p.current = p.current[:0]
	clear(p.prevKeys)
	clear(p.curKeys)
}

func (p *Physics) integrate(dt float64) {
	query := p.movers.Query()
	for query.Next() {
		pos, vel, body := query.Get()
		if body.Disabled {
			continue
		}
		pos.X += vel.X * dt
		pos.Y += vel.Y * dt
	}
}

func (p *Physics) gather() {
	p.balls = p.balls[:0]
	p.projectiles = p.projectiles[:0]
	p.others = p.others[:0]

	query := p.bodies.Query()
	for query.Next() {
		pos, body := query.Get()
		if body.Disabled {
			continue
		}
		ref := bodyRef{e: query.Entity(), pos: pos.Vec(), body: *body}
		switch body.Kind {
		case components.KindBall:
			p.balls = append(p.balls, ref)
		case components.KindProjectile:
			p.projectiles = append(p.projectiles, ref)
		default:
			p.others = append(p.others, ref)
		}
	}
}

func (p *Physics) ghost(e ecs.Entity) bool {
	b := p.buffMap.Get(e)
	return b != nil && b.Has(components.BuffGhost)
}

func (p *Physics) collideBall(i int) {
	b := &p.balls[i]
	r := b.body.Radius

	// Arena walls
	walls := [...]struct {
		wall  Wall
		depth float64
		n     r2.Vec
	}{
		{WallLeft, r - b.pos.X, r2.Vec{X: 1}},
		{WallRight, b.pos.X + r - p.width, r2.Vec{X: -1}},
		{WallTop, r - b.pos.Y, r2.Vec{Y: 1}},
		{WallBottom, b.pos.Y + r - p.height, r2.Vec{Y: -1}},
	}
	for _, w := range walls {
		if w.depth > 0 {
			b.pos = r2.Add(b.pos, r2.Scale(w.depth, w.n))
			p.add(Contact{A: b.e, AKind: components.KindBall, Wall: w.wall, Normal: w.n, Depth: w.depth})
		}
	}

	// Other balls, each pair once
	ghostA := p.ghost(b.e)
	for j := i + 1; j < len(p.balls); j++ {
		o := &p.balls[j]
		if ghostA || p.ghost(o.e) {
			continue
		}
		n, depth, hit := circleCircle(b.pos, r, o.pos, o.body.Radius)
		if !hit {
			continue
		}
		half := r2.Scale(depth/2, n)
		b.pos = r2.Add(b.pos, half)
		o.pos = r2.Sub(o.pos, half)
		p.add(Contact{A: b.e, AKind: components.KindBall, B: o.e, BKind: components.KindBall, Normal: n, Depth: depth})
		p.add(Contact{A: o.e, AKind: components.KindBall, B: b.e, BKind: components.KindBall, Normal: r2.Scale(-1, n), Depth: depth})
	}

	// Obstacles, boss and items
	for k := range p.others {
		o := &p.others[k]
		n, depth, hit := overlap(b.pos, r, o)
		if !hit {
			continue
		}
		if !o.body.Sensor {
			b.pos = r2.Add(b.pos, r2.Scale(depth, n))
		}
		p.add(Contact{A: b.e, AKind: components.KindBall, B: o.e, BKind: o.body.Kind, Normal: n, Depth: depth})
	}
}

func (p *Physics) collideProjectile(pr *bodyRef) {
	proj := p.projMap.Get(pr.e)
	if proj == nil || proj.Dead {
		return
	}
	r := pr.body.Radius
	for k := range p.balls {
		b := &p.balls[k]
		if !proj.FromBoss {
			if ball := p.ballMap.Get(b.e); ball != nil && ball.Index == proj.Owner {
				continue
			}
		}
		if n, depth, hit := circleCircle(pr.pos, r, b.pos, b.body.Radius); hit {
			p.add(Contact{A: pr.e, AKind: components.KindProjectile, B: b.e, BKind: components.KindBall, Normal: n, Depth: depth})
		}
	}
	if proj.FromBoss {
		return
	}
	for k := range p.others {
		o := &p.others[k]
		if o.body.Kind != components.KindBoss {
			continue
		}
		if n, depth, hit := overlap(pr.pos, r, o); hit {
			p.add(Contact{A: pr.e, AKind: components.KindProjectile, B: o.e, BKind: components.KindBoss, Normal: n, Depth: depth})
		}
	}
}

// overlap tests a circle against any body shape. The normal points toward the circle.
func overlap(c r2.Vec, radius float64, o *bodyRef) (r2.Vec, float64, bool) {
	if o.body.Shape == components.ShapeCircle {
		return circleCircle(c, radius, o.pos, o.body.Radius)
	}
	return circleRect(c, radius, o.pos, o.body.HalfW, o.body.HalfH, o.body.Angle)
}

func (p *Physics) add(c Contact) {
	k := c.key()
	if _, dup := p.curKeys[k]; dup {
		return
	}
	p.curKeys[k] = len(p.current)
	p.current = append(p.current, c)
}

// classify tags current contacts as Begin or Persist and emits End for pairs
// that separated, then rolls current into prev.
func (p *Physics) classify() []Contact {
	p.events = p.events[:0]
	for _, c := range p.current {
		if _, was := p.prevKeys[c.key()]; was {
			c.Phase = ContactPersist
		} else {
			c.Phase = ContactBegin
		}
		p.events = append(p.events, c)
	}
	for _, c := range p.prev {
		if _, still := p.curKeys[c.key()]; !still {
			c.Phase = ContactEnd
			p.events = append(p.events, c)
		}
	}

	p.prev, p.current = p.current, p.prev
	p.prevKeys, p.curKeys = p.curKeys, p.prevKeys
	return p.events
}

func (p *Physics) reindex() {
	clear(p.prevKeys)
	for i, c := range p.prev {
		p.prevKeys[c.key()] = i
	}
}
