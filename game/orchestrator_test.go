package game

import (
	"context"
	"errors"
	"testing"

	"github.com/pthm-cable/bounce/level"
	"github.com/pthm-cable/bounce/telemetry"
)

func TestOrchestratorRunsInOrder(t *testing.T) {
	cfg := fastConfig(t)
	cfg.Orchestrator.Workers = 2
	levels := []*level.Level{builtin(t, "course"), builtin(t, "gauntlet")}

	const runs = 4
	o := NewOrchestrator(cfg)
	if o.Workers() != 2 {
		t.Fatalf("workers = %d, want 2", o.Workers())
	}

	var races []telemetry.RaceResult
	var chains []telemetry.ChainResult
	perfCalls := 0
	o.PerfWindow = 60
	o.OnRace = func(rr telemetry.RaceResult) { races = append(races, rr) }
	o.OnChain = func(c telemetry.ChainResult) { chains = append(chains, c) }
	o.OnPerf = func(stats telemetry.PerfStats, run, race, ticks int) {
		perfCalls++
		if ticks <= 0 {
			t.Errorf("run %d race %d reported %d ticks", run, race, ticks)
		}
	}

	sum, err := o.Run(context.Background(), levels, runs, 100)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if sum.Chains != runs {
		t.Errorf("chains = %d, want %d", sum.Chains, runs)
	}
	if sum.Races != runs*len(levels) {
		t.Errorf("races = %d, want %d", sum.Races, runs*len(levels))
	}
	if len(chains) != runs || len(races) != runs*len(levels) || perfCalls != len(races) {
		t.Fatalf("callbacks: chains=%d races=%d perf=%d", len(chains), len(races), perfCalls)
	}

	for i, c := range chains {
		if c.Run != i {
			t.Errorf("chain %d delivered as run %d", i, c.Run)
		}
		if c.Seed != 100+int64(i) {
			t.Errorf("run %d seed = %d, want %d", i, c.Seed, 100+int64(i))
		}
	}
	for i := 1; i < len(races); i++ {
		prev, cur := races[i-1], races[i]
		if cur.Run < prev.Run || (cur.Run == prev.Run && cur.Race <= prev.Race) {
			t.Errorf("race %d out of order: run %d race %d after run %d race %d",
				i, cur.Run, cur.Race, prev.Run, prev.Race)
		}
	}
}

// Sandboxes share nothing, so the worker count must not change results.
func TestOrchestratorWorkerCountIndependent(t *testing.T) {
	levels := []*level.Level{builtin(t, "gauntlet")}

	collect := func(workers int) []string {
		cfg := fastConfig(t)
		cfg.Orchestrator.Workers = workers
		o := NewOrchestrator(cfg)
		var order []string
		o.OnRace = func(rr telemetry.RaceResult) { order = append(order, rr.Order()) }
		if _, err := o.Run(context.Background(), levels, 3, 7); err != nil {
			t.Fatalf("Run with %d workers: %v", workers, err)
		}
		return order
	}

	serial, parallel := collect(1), collect(3)
	if len(serial) != len(parallel) {
		t.Fatalf("result counts differ: %d vs %d", len(serial), len(parallel))
	}
	for i := range serial {
		if serial[i] != parallel[i] {
			t.Errorf("run %d differs:\n1 worker:  %s\n3 workers: %s", i, serial[i], parallel[i])
		}
	}
}

func TestOrchestratorEdgeCases(t *testing.T) {
	cfg := fastConfig(t)
	o := NewOrchestrator(cfg)

	sum, err := o.Run(context.Background(), []*level.Level{builtin(t, "course")}, 0, 1)
	if err != nil || sum.Races != 0 {
		t.Errorf("zero runs = %+v, %v", sum, err)
	}
	if _, err := o.Run(context.Background(), nil, 2, 1); !errors.Is(err, ErrNoLevels) {
		t.Errorf("no levels error = %v, want ErrNoLevels", err)
	}
}

func TestOrchestratorReportsBadLevel(t *testing.T) {
	cfg := fastConfig(t)
	cfg.Orchestrator.Workers = 2
	o := NewOrchestrator(cfg)

	chains := 0
	o.OnChain = func(telemetry.ChainResult) { chains++ }

	levels := []*level.Level{{Name: "broken"}}
	_, err := o.Run(context.Background(), levels, 2, 1)
	if !errors.Is(err, level.ErrNoSpawnZone) {
		t.Errorf("error = %v, want ErrNoSpawnZone", err)
	}
	if chains != 0 {
		t.Errorf("failed chains delivered %d times", chains)
	}
}
