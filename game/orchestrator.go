package game

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/pthm-cable/bounce/config"
	"github.com/pthm-cable/bounce/level"
	"github.com/pthm-cable/bounce/telemetry"
)

// job is one chain run handed to a worker.
type job struct {
	run    int
	seed   int64
	levels []*level.Level
}

// racePerf pairs a race with the timing gathered while it ran.
type racePerf struct {
	stats telemetry.PerfStats
	ticks int
}

// chainOutput is everything a worker produced for one job.
type chainOutput struct {
	run   int
	races []telemetry.RaceResult
	perf  []racePerf
	chain telemetry.ChainResult
	err   error
}

// Orchestrator runs many chains concurrently, each in its own sandbox with
// its own config copy, random source and world. Results are delivered on
// the caller goroutine in run order.
type Orchestrator struct {
	cfg        *config.Config
	numWorkers int
	agg        *telemetry.Aggregator

	// Worker pool channels
	workChan chan job         // sends jobs to workers
	doneChan chan chainOutput // workers hand back results
	stopChan chan struct{}    // signals workers to exit
	wg       sync.WaitGroup   // tracks workers and the feeder
	running  bool

	// PerfWindow enables per-race timing when positive.
	PerfWindow int

	OnRace  func(telemetry.RaceResult)
	OnChain func(telemetry.ChainResult)
	OnPerf  func(stats telemetry.PerfStats, run, race, ticks int)
}

// NewOrchestrator creates an orchestrator. Workers default to GOMAXPROCS.
func NewOrchestrator(cfg *config.Config) *Orchestrator {
	n := cfg.Orchestrator.Workers
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return &Orchestrator{
		cfg:        cfg,
		numWorkers: n,
		agg:        telemetry.NewAggregator(),
	}
}

// Workers returns the pool size.
func (o *Orchestrator) Workers() int { return o.numWorkers }

// Summary returns the aggregate of everything delivered so far.
func (o *Orchestrator) Summary() telemetry.Summary { return o.agg.Summary() }

// Run plays runs chains over levels with seeds baseSeed, baseSeed+1, ...
// It returns the aggregate summary and the first chain error, if any.
// Cancelling ctx force-finishes the chains still running.
func (o *Orchestrator) Run(ctx context.Context, levels []*level.Level, runs int, baseSeed int64) (telemetry.Summary, error) {
	if runs <= 0 {
		return o.agg.Summary(), nil
	}
	if len(levels) == 0 {
		return o.agg.Summary(), ErrNoLevels
	}

	o.startWorkers(ctx, runs)
	defer o.stopWorkers()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for run := 0; run < runs; run++ {
			select {
			case o.workChan <- job{run: run, seed: baseSeed + int64(run), levels: levels}:
			case <-o.stopChan:
				return
			}
		}
	}()

	// Reorder so callbacks see runs in sequence.
	pending := make(map[int]chainOutput)
	next := 0
	var firstErr error
	for next < runs {
		out := <-o.doneChan
		pending[out.run] = out
		for {
			ready, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			if err := o.deliver(ready); err != nil && firstErr == nil {
				firstErr = err
			}
			next++
		}
	}
	return o.agg.Summary(), firstErr
}

// startWorkers launches persistent worker goroutines.
func (o *Orchestrator) startWorkers(ctx context.Context, runs int) {
	if o.running {
		return
	}

	o.workChan = make(chan job, o.numWorkers)
	o.doneChan = make(chan chainOutput, runs)
	o.stopChan = make(chan struct{})
	o.running = true

	for i := 0; i < o.numWorkers; i++ {
		o.wg.Add(1)
		go o.worker(ctx)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (o *Orchestrator) stopWorkers() {
	if !o.running {
		return
	}

	close(o.stopChan)
	o.wg.Wait()
	close(o.workChan)
	close(o.doneChan)
	o.running = false
}

// worker runs in a goroutine, playing chains until stopped.
func (o *Orchestrator) worker(ctx context.Context) {
	defer o.wg.Done()

	for {
		select {
		case <-o.stopChan:
			return
		case j, ok := <-o.workChan:
			if !ok {
				return
			}
			o.doneChan <- o.play(ctx, j)
		}
	}
}

// play runs one chain in its own sandbox. A panic inside the sandbox is
// reported as that run's error.
func (o *Orchestrator) play(ctx context.Context, j job) (out chainOutput) {
	out.run = j.run
	defer func() {
		if r := recover(); r != nil {
			out.err = fmt.Errorf("run %d: panic: %v", j.run, r)
		}
	}()

	cfg := o.cfg.Clone()
	if ts := cfg.Orchestrator.TimeScale; ts > 0 {
		if err := cfg.SetTimeScale(ts); err != nil {
			out.err = fmt.Errorf("run %d: %w", j.run, err)
			return out
		}
	}

	chain, err := NewChain(cfg, j.levels, j.run, j.seed)
	if err != nil {
		out.err = fmt.Errorf("run %d: %w", j.run, err)
		return out
	}

	var perf *telemetry.PerfCollector
	if o.PerfWindow > 0 {
		perf = telemetry.NewPerfCollector(o.PerfWindow)
		chain.Race().SetPerf(perf)
	}
	chain.OnRace = func(rr telemetry.RaceResult) {
		out.races = append(out.races, rr)
		if perf != nil {
			out.perf = append(out.perf, racePerf{stats: perf.Stats(), ticks: rr.Ticks})
			perf = telemetry.NewPerfCollector(o.PerfWindow)
			chain.Race().SetPerf(perf)
		}
	}

	out.chain, out.err = chain.Run(ctx)
	if out.err != nil {
		out.err = fmt.Errorf("run %d: %w", j.run, out.err)
	}
	return out
}

// deliver folds one chain output into the aggregate and fires callbacks.
func (o *Orchestrator) deliver(out chainOutput) error {
	for i, rr := range out.races {
		o.agg.AddRace(rr)
		if o.OnRace != nil {
			o.OnRace(rr)
		}
		if o.OnPerf != nil && i < len(out.perf) {
			o.OnPerf(out.perf[i].stats, rr.Run, rr.Race, out.perf[i].ticks)
		}
	}
	if out.err != nil {
		slog.Error("chain failed", "run", out.run, "error", out.err)
		return out.err
	}
	o.agg.AddChain(out.chain)
	if o.OnChain != nil {
		o.OnChain(out.chain)
	}
	return nil
}
