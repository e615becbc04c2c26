package game

import (
	"testing"
	"time"

	"github.com/pthm-cable/bounce/systems"
	"github.com/pthm-cable/bounce/telemetry"
)

func TestPerfStatsRolling(t *testing.T) {
	p := NewPerfStats()
	p.maxSamples = 3
	for _, ms := range []int{10, 20, 30, 40} {
		p.Record("draw", time.Duration(ms)*time.Millisecond)
	}
	// Oldest sample dropped: avg of 20, 30, 40
	if got := p.Avg("draw"); got != 30*time.Millisecond {
		t.Errorf("Avg = %v, want 30ms", got)
	}
	if got := p.Avg("missing"); got != 0 {
		t.Errorf("Avg(missing) = %v, want 0", got)
	}
}

func TestPerfStatsSortedNames(t *testing.T) {
	p := NewPerfStats()
	p.Record("a", 1*time.Millisecond)
	p.Record("b", 5*time.Millisecond)
	p.Record("c", 5*time.Millisecond)
	p.Record("d", 3*time.Millisecond)

	want := []string{"b", "c", "d", "a"}
	got := p.SortedNames()
	if len(got) != len(want) {
		t.Fatalf("SortedNames = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SortedNames = %v, want %v", got, want)
		}
	}
	if p.Total() != 14*time.Millisecond {
		t.Errorf("Total = %v, want 14ms", p.Total())
	}
}

func TestMergePhases(t *testing.T) {
	sim := map[string]time.Duration{"physics": 4 * time.Millisecond, "resolve": 2 * time.Millisecond}
	draw := map[string]time.Duration{"physics": time.Millisecond}

	merged, total := mergePhases(sim, draw)
	if len(merged) != 3 {
		t.Fatalf("merged %d phases, want 3", len(merged))
	}
	if merged["draw:physics"] != time.Millisecond {
		t.Errorf("draw phase = %v, want 1ms", merged["draw:physics"])
	}
	if total != 7*time.Millisecond {
		t.Errorf("total = %v, want 7ms", total)
	}
}

func TestEveryPhaseHasLabel(t *testing.T) {
	labels := systems.NewSystemRegistry().Labels()
	phases := []string{
		telemetry.PhaseScheduler, telemetry.PhaseBehavior, telemetry.PhasePhysics, telemetry.PhaseResolve,
		telemetry.PhaseLiveness, telemetry.PhaseOutcome, telemetry.PhaseCombat,
	}
	for _, p := range phases {
		if _, ok := labels[p]; !ok {
			t.Errorf("phase %q has no display name", p)
		}
	}
}
