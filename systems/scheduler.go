package systems

import "container/heap"

// Timer is a scheduled callback. Cancel is idempotent.
type Timer struct {
	due       float64
	seq       uint64
	fn        func()
	index     int // heap index, -1 once removed
	cancelled bool
}

// Cancel prevents the callback from running. Safe to call more than once.
func (t *Timer) Cancel() {
	if t == nil {
		return
	}
	t.cancelled = true
}

// Pending reports whether the timer is still waiting to fire.
func (t *Timer) Pending() bool {
	return t != nil && !t.cancelled && t.index >= 0
}

// Due returns the race-clock time the timer fires at.
func (t *Timer) Due() float64 { return t.due }

// timerHeap implements heap.Interface ordered by (due, seq).
type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].due != h[j].due {
		return h[i].due < h[j].due
	}
	return h[i].seq < h[j].seq
}
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[0 : n-1]
	return t
}

// Scheduler is a per-race time-ordered event queue advanced in race-clock seconds.
// Callbacks run on the caller goroutine inside Advance.
type Scheduler struct {
	now   float64
	seq   uint64
	queue timerHeap
}

// NewScheduler creates an empty scheduler at time zero.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Now returns the current scheduler time.
func (s *Scheduler) Now() float64 { return s.now }

// After schedules fn to run once the clock reaches now+delay.
// Negative delays fire on the next Advance.
func (s *Scheduler) After(delay float64, fn func()) *Timer {
	if delay < 0 {
		delay = 0
	}
	s.seq++
	t := &Timer{due: s.now + delay, seq: s.seq, fn: fn}
	heap.Push(&s.queue, t)
	return t
}

// Advance moves the clock to now and runs every due callback in order.
// Each callback sees the clock at its own due time, so timers it schedules
// are relative to when it fired; those due at or before now also run.
func (s *Scheduler) Advance(now float64) int {
	if now < s.now {
		now = s.now
	}
	fired := 0
	for len(s.queue) > 0 && s.queue[0].due <= now {
		t := heap.Pop(&s.queue).(*Timer)
		if t.cancelled {
			continue
		}
		if t.due > s.now {
			s.now = t.due
		}
		t.fn()
		fired++
	}
	s.now = now
	return fired
}

// Len returns the number of queued timers, including cancelled ones not yet drained.
func (s *Scheduler) Len() int { return len(s.queue) }

// Reset cancels every pending timer and rewinds the clock. Idempotent.
func (s *Scheduler) Reset() {
	for _, t := range s.queue {
		t.cancelled = true
		t.index = -1
	}
	s.queue = s.queue[:0]
	s.now = 0
}
