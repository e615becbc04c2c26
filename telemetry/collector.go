package telemetry

import "github.com/pthm-cable/bounce/components"

// Collector accumulates race events between flushes and produces Diagnostics.
type Collector struct {
	finishes    int
	timeouts    int
	destroyed   int
	lost        int
	countdowns  int
	forced      int
	watchdog    int
	damageTaken float64
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// RecordFinish records a ball being ranked.
func (c *Collector) RecordFinish(timedOut bool) {
	c.finishes++
	if timedOut {
		c.timeouts++
	}
}

// RecordElimination records a ball leaving the race for good.
func (c *Collector) RecordElimination(reason string) {
	switch reason {
	case components.ReasonDestroyed:
		c.destroyed++
	case components.ReasonCrushed:
		// counted by the liveness governor
	default:
		c.lost++
	}
}

// RecordCountdown records the start of the end-of-race countdown.
func (c *Collector) RecordCountdown() {
	c.countdowns++
}

// RecordForceFinish records a race ended by countdown, time budget or watchdog.
func (c *Collector) RecordForceFinish() {
	c.forced++
}

// RecordWatchdog records a wall-clock watchdog expiry.
func (c *Collector) RecordWatchdog() {
	c.watchdog++
}

// RecordDamage records damage taken by a ball.
func (c *Collector) RecordDamage(amount float64) {
	c.damageTaken += amount
}

// Finishes returns the number of balls ranked since the last flush.
func (c *Collector) Finishes() int { return c.finishes }

// DamageTaken returns the damage balls took since the last flush.
func (c *Collector) DamageTaken() float64 { return c.damageTaken }

// Countdowns returns how many countdowns started since the last flush.
func (c *Collector) Countdowns() int { return c.countdowns }

// Flush merges the event counts into corrections and resets the collector.
// corrections carries the counters kept by the physics-side systems.
func (c *Collector) Flush(corrections Diagnostics) Diagnostics {
	d := corrections
	d.Destroyed = c.destroyed
	d.Lost = c.lost
	d.Timeouts = c.timeouts
	d.ForceFinishes = c.forced
	d.WatchdogExpiries = c.watchdog

	*c = Collector{}
	return d
}
