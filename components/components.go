// Package components defines ECS components for the race simulation.
package components

import "gonum.org/v1/gonum/spatial/r2"

// Elimination reasons.
const (
	ReasonCrushed   = "crushed"
	ReasonDestroyed = "destroyed"
	ReasonLost      = "lost" // body vanished or never recovered from an anomaly
)

// WeaponSlot is one weapon carried by a ball.
type WeaponSlot struct {
	ID       string
	Cooldown float64 // seconds until the weapon can fire again
}

// Ball holds gameplay state for a racing entity.
// Position and velocity live in their own components and are owned by physics.
type Ball struct {
	Index int // roster order, stable across a chain
	Name  string
	Color uint32 // 0xRRGGBB

	BaseRadius      float64
	Health          float64
	MaxHealth       float64
	SpeedMultiplier float64
	Damage          float64

	Finished   bool
	Rank       int
	FinishTime float64 // race clock seconds
	TimedOut   bool

	Eliminated bool
	Reason     string

	DamageDealt float64 // to the boss
	Progress    float64 // 0 at spawn, 1 at the goal
	Fade        float64 // 1 = fully visible

	Weapons []WeaponSlot
}

// Done reports whether the ball no longer races.
func (b *Ball) Done() bool { return b.Finished || b.Eliminated }

// ContactRecord is one accepted obstacle contact.
type ContactRecord struct {
	Obstacle int
	T        float64
}

// Tracking holds transient per-ball bookkeeping used by the bounce resolver
// and the liveness governor. It is cleared between races.
type Tracking struct {
	Contacts []ContactRecord

	// Position history ring sampled at a fixed interval over the stuck window.
	History     []r2.Vec
	HistoryHead int
	HistoryLen  int
	SampleAccum float64

	// Continuous contact with one surface.
	SlideKey  uint64
	SlideTime float64

	LastSafe r2.Vec
}

// Reset clears all tracking state.
func (t *Tracking) Reset(pos r2.Vec) {
	t.Contacts = t.Contacts[:0]
	t.HistoryHead = 0
	t.HistoryLen = 0
	t.SampleAccum = 0
	t.SlideKey = 0
	t.SlideTime = 0
	t.LastSafe = pos
}

// PushHistory appends a sample to the ring, growing it to size on first use.
func (t *Tracking) PushHistory(p r2.Vec, size int) {
	if len(t.History) != size {
		t.History = make([]r2.Vec, size)
		t.HistoryHead = 0
		t.HistoryLen = 0
	}
	t.History[t.HistoryHead] = p
	t.HistoryHead = (t.HistoryHead + 1) % size
	if t.HistoryLen < size {
		t.HistoryLen++
	}
}

// HistoryFull reports whether the ring spans the whole window.
func (t *Tracking) HistoryFull() bool {
	return len(t.History) > 0 && t.HistoryLen == len(t.History)
}

// MaxDisplacement returns the largest distance of any sample from the oldest one.
func (t *Tracking) MaxDisplacement() float64 {
	if t.HistoryLen == 0 {
		return 0
	}
	n := len(t.History)
	oldest := t.History[(t.HistoryHead-t.HistoryLen+n)%n]
	var maxD float64
	for i := 0; i < t.HistoryLen; i++ {
		d := r2.Norm(r2.Sub(t.History[(t.HistoryHead-1-i+n)%n], oldest))
		if d > maxD {
			maxD = d
		}
	}
	return maxD
}

// ClearHistory empties the position ring.
func (t *Tracking) ClearHistory() {
	t.HistoryHead = 0
	t.HistoryLen = 0
	t.SampleAccum = 0
}
