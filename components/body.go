package components

import "math"

// BodyKind identifies what a physics body belongs to.
type BodyKind uint8

const (
	KindBall BodyKind = iota
	KindObstacle
	KindBoss
	KindProjectile
	KindItem
)

func (k BodyKind) String() string {
	switch k {
	case KindBall:
		return "ball"
	case KindObstacle:
		return "obstacle"
	case KindBoss:
		return "boss"
	case KindProjectile:
		return "projectile"
	case KindItem:
		return "item"
	}
	return "unknown"
}

// Shape is the collision geometry of a body.
type Shape uint8

const (
	ShapeCircle Shape = iota
	ShapeRect
)

// Body holds physical properties of an entity.
// Rectangles are centered on the entity position and rotated by Angle.
type Body struct {
	Kind     BodyKind
	Shape    Shape
	Radius   float64 // circles
	HalfW    float64 // rectangles
	HalfH    float64
	Angle    float64 // radians
	Sensor   bool    // reports contacts but never blocks
	Disabled bool    // excluded from contact detection
}

// BoundingRadius returns the radius of a circle enclosing the body.
func (b *Body) BoundingRadius() float64 {
	if b.Shape == ShapeCircle {
		return b.Radius
	}
	return math.Hypot(b.HalfW, b.HalfH)
}

// Extent returns the half size of the body's axis-aligned bounds.
func (b *Body) Extent() (ex, ey float64) {
	if b.Shape == ShapeCircle {
		return b.Radius, b.Radius
	}
	c, s := math.Abs(math.Cos(b.Angle)), math.Abs(math.Sin(b.Angle))
	return b.HalfW*c + b.HalfH*s, b.HalfW*s + b.HalfH*c
}
