package components

import "gonum.org/v1/gonum/spatial/r2"

// Obstacle holds the authored identity and behavior of an arena obstacle.
// The physics body pose is written by the behavior engine every tick.
type Obstacle struct {
	ID          int
	Origin      r2.Vec  // authored center
	OriginAngle float64 // authored rotation, radians
	Behavior    Behavior
}

// Behavior is the closed set of obstacle behaviors. Exactly one is active per obstacle.
type Behavior interface {
	behaviorTag() string
}

// Static obstacles never move.
type Static struct{}

// Rotating obstacles spin around their center.
type Rotating struct {
	RadPerSec float64 // signed by direction
}

// Moving obstacles ping-pong along an axis around their authored center.
type Moving struct {
	Axis     r2.Vec // unit
	Distance float64
	Speed    float64
	Phase    float64 // [0, 2)
}

// Breakable obstacles lose health on qualifying hits and vanish at zero.
type Breakable struct {
	Health    int
	MaxHealth int
	Allowed   []string // ball names; empty = anyone
	Destroyed bool
}

// Crusher obstacles sweep toward an arena edge, wait, then snap back.
type Crusher struct {
	Dir        r2.Vec // unit travel direction
	Speed      float64
	Travel     float64 // distance from start pose to the edge
	ResetDelay float64

	Offset  float64 // distance travelled this cycle
	Waiting bool
	Armed   bool // reset is scheduled

	// World-space box swept during the last tick while active.
	SweptMin, SweptMax r2.Vec
	Sweeping           bool
}

// KeyPose is one sample of a keyframe track.
type KeyPose struct {
	T     float64
	Pos   r2.Vec
	Angle float64 // radians
}

// Keyframe obstacles follow an authored animation track.
type Keyframe struct {
	Keys    []KeyPose
	Loop    bool
	Elapsed float64
}

func (Static) behaviorTag() string     { return "static" }
func (*Rotating) behaviorTag() string  { return "rotating" }
func (*Moving) behaviorTag() string    { return "moving" }
func (*Breakable) behaviorTag() string { return "breakable" }
func (*Crusher) behaviorTag() string   { return "crusher" }
func (*Keyframe) behaviorTag() string  { return "keyframe" }

// BehaviorName returns the authored tag of a behavior.
func BehaviorName(b Behavior) string {
	if b == nil {
		return "static"
	}
	return b.behaviorTag()
}

// Period returns the duration of one full crusher cycle.
func (c *Crusher) Period() float64 {
	if c.Speed <= 0 {
		return c.ResetDelay
	}
	return c.Travel/c.Speed + c.ResetDelay
}

// CanDamage reports whether the named ball may damage this breakable.
func (b *Breakable) CanDamage(name string) bool {
	if len(b.Allowed) == 0 {
		return true
	}
	for _, a := range b.Allowed {
		if a == name {
			return true
		}
	}
	return false
}
