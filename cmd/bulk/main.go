// Command bulk runs many chains headless in parallel and writes CSV output.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pthm-cable/bounce/config"
	"github.com/pthm-cable/bounce/game"
	"github.com/pthm-cable/bounce/level"
	"github.com/pthm-cable/bounce/telemetry"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.LoadEnv(); err != nil {
		slog.Warn("failed to load .env", "error", err)
	}

	configPath := flag.String("config", config.Env(config.EnvConfig, ""), "Path to config.yaml (empty = use defaults)")
	levels := flag.String("levels", config.Env(config.EnvLevels, ""), "Comma-separated level names or files (empty = all builtins)")
	runs := flag.Int("runs", 0, "Number of chains (0 = use config)")
	workers := flag.Int("workers", -1, "Parallel workers (-1 = use config, 0 = GOMAXPROCS)")
	seed := flag.Int64("seed", 0, "Base seed; run i uses seed+i (0 = time-based)")
	outputDir := flag.String("output", config.Env(config.EnvOutput, ""), "Output directory for CSV files (empty = none)")
	timeScale := flag.Float64("time-scale", 0, "Time scale override (0 = use config)")
	perfWindow := flag.Int("perf", 0, "Collect per-race timing over this many ticks (0 = off)")
	replays := flag.Bool("replays", false, "Save a replay file for every bookmarked race")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *runs > 0 {
		cfg.Orchestrator.Runs = *runs
	}
	if *workers >= 0 {
		cfg.Orchestrator.Workers = *workers
	}
	if *timeScale > 0 {
		cfg.Orchestrator.TimeScale = *timeScale
	}
	if cfg.Orchestrator.Runs <= 0 {
		cfg.Orchestrator.Runs = 1
	}

	lvls, err := level.ResolveList(*levels)
	if err != nil {
		slog.Error("failed to resolve levels", "error", err)
		os.Exit(1)
	}
	names := make([]string, len(lvls))
	for i, l := range lvls {
		names[i] = l.Name
	}

	baseSeed := *seed
	if baseSeed == 0 {
		baseSeed = time.Now().UnixNano()
	}

	om, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output", "error", err)
		os.Exit(1)
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	replayScale := cfg.Derived.TimeScale
	if cfg.Orchestrator.TimeScale > 0 {
		replayScale = cfg.Orchestrator.TimeScale
	}
	replayDir := "replays"
	if om != nil {
		replayDir = filepath.Join(om.Dir(), "replays")
	}

	detector := telemetry.NewBookmarkDetector(20)
	orch := game.NewOrchestrator(cfg)
	orch.PerfWindow = *perfWindow
	orch.OnRace = func(rr telemetry.RaceResult) {
		if err := om.WriteRace(rr); err != nil {
			slog.Error("failed to write race", "run", rr.Run, "race", rr.Race, "error", err)
		}
		for _, bm := range detector.Check(rr) {
			bm.LogBookmark()
			if !*replays {
				continue
			}
			result := rr
			replay := &telemetry.Replay{
				Version:   telemetry.ReplayVersion,
				Seed:      rr.Seed,
				Run:       rr.Run,
				Race:      rr.Race,
				Levels:    names,
				TimeScale: replayScale,
				Result:    &result,
				Bookmark:  &bm,
			}
			path, err := telemetry.SaveReplay(replay, replayDir)
			if err != nil {
				slog.Error("failed to save replay", "error", err)
				continue
			}
			slog.Info("replay saved", "path", path)
		}
	}
	orch.OnChain = func(c telemetry.ChainResult) {
		c.LogStats()
		if err := om.WriteChain(c); err != nil {
			slog.Error("failed to write chain", "run", c.Run, "error", err)
		}
	}
	orch.OnPerf = func(stats telemetry.PerfStats, run, race, ticks int) {
		if err := om.WritePerf(stats, run, race, ticks); err != nil {
			slog.Error("failed to write perf", "run", run, "race", race, "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting bulk run",
		"runs", cfg.Orchestrator.Runs,
		"workers", orch.Workers(),
		"levels", names,
		"seed", baseSeed,
		"time_scale", replayScale,
	)
	start := time.Now()
	summary, runErr := orch.Run(ctx, lvls, cfg.Orchestrator.Runs, baseSeed)
	summary.LogStats()
	slog.Info("bulk run complete", "elapsed", time.Since(start).String())

	if err := om.WriteSummary(summary); err != nil {
		slog.Error("failed to write summary", "error", err)
	}
	if runErr != nil {
		om.Close()
		slog.Error("bulk run failed", "error", runErr)
		os.Exit(1)
	}
}
