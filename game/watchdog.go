package game

import (
	"context"
	"time"
)

// Watchdog holds the wall-clock ceilings of one chain run. The chain
// deadline bounds every race context it hands out; a zero duration means no
// ceiling.
type Watchdog struct {
	raceLimit time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	start  time.Time
}

// NewWatchdog starts the chain clock.
func NewWatchdog(parent context.Context, raceLimit, chainLimit time.Duration) *Watchdog {
	w := &Watchdog{raceLimit: raceLimit, start: time.Now()}
	if chainLimit > 0 {
		w.ctx, w.cancel = context.WithTimeout(parent, chainLimit)
	} else {
		w.ctx, w.cancel = context.WithCancel(parent)
	}
	return w
}

// Race returns the context for the next race. It expires at the race
// ceiling or the chain ceiling, whichever comes first.
func (w *Watchdog) Race() (context.Context, context.CancelFunc) {
	if w.raceLimit > 0 {
		return context.WithTimeout(w.ctx, w.raceLimit)
	}
	return context.WithCancel(w.ctx)
}

// Expired reports whether the chain ceiling passed or the parent was cancelled.
func (w *Watchdog) Expired() bool { return w.ctx.Err() != nil }

// Elapsed returns the wall time since the chain started.
func (w *Watchdog) Elapsed() time.Duration { return time.Since(w.start) }

// Stop releases the chain context.
func (w *Watchdog) Stop() { w.cancel() }
