package game

import (
	"sort"
	"time"
)

// PerfStats tracks rolling execution time per named phase.
type PerfStats struct {
	samples    map[string][]time.Duration
	maxSamples int
}

// NewPerfStats creates a new performance stats tracker.
func NewPerfStats() *PerfStats {
	return &PerfStats{
		samples:    make(map[string][]time.Duration),
		maxSamples: 120, // ~2 seconds of samples at 60fps
	}
}

// Record adds a duration sample for the named phase.
func (p *PerfStats) Record(name string, d time.Duration) {
	p.samples[name] = append(p.samples[name], d)
	if len(p.samples[name]) > p.maxSamples {
		p.samples[name] = p.samples[name][1:]
	}
}

// Avg returns the average duration for the named phase.
func (p *PerfStats) Avg(name string) time.Duration {
	s := p.samples[name]
	if len(s) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range s {
		total += d
	}
	return total / time.Duration(len(s))
}

// Averages returns the average duration of every phase.
func (p *PerfStats) Averages() map[string]time.Duration {
	out := make(map[string]time.Duration, len(p.samples))
	for name := range p.samples {
		out[name] = p.Avg(name)
	}
	return out
}

// Total returns the sum of all average durations.
func (p *PerfStats) Total() time.Duration {
	var total time.Duration
	for name := range p.samples {
		total += p.Avg(name)
	}
	return total
}

// SortedNames returns phase names sorted by average duration, descending.
func (p *PerfStats) SortedNames() []string {
	return sortByDuration(p.Averages())
}

// mergePhases combines simulation and draw timings into one table. Draw
// phases are prefixed so they never collide with simulation phases.
func mergePhases(sim map[string]time.Duration, draw map[string]time.Duration) (map[string]time.Duration, time.Duration) {
	out := make(map[string]time.Duration, len(sim)+len(draw))
	var total time.Duration
	for name, d := range sim {
		out[name] = d
		total += d
	}
	for name, d := range draw {
		out["draw:"+name] = d
		total += d
	}
	return out, total
}

// sortByDuration returns the keys of m, slowest first, ties by name.
func sortByDuration(m map[string]time.Duration) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if m[names[i]] != m[names[j]] {
			return m[names[i]] > m[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
