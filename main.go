package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/bounce/config"
	"github.com/pthm-cable/bounce/game"
	"github.com/pthm-cable/bounce/level"
	"github.com/pthm-cable/bounce/server"
	"github.com/pthm-cable/bounce/telemetry"
	"github.com/pthm-cable/bounce/tui"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	// CLI flags
	configPath := flag.String("config", config.Env(config.EnvConfig, ""), "Path to config.yaml (empty = use defaults)")
	levels := flag.String("level", config.Env(config.EnvLevels, ""), "Comma-separated level names or files (empty = all builtins)")
	seed := flag.Int64("seed", 0, "Chain seed (0 = time-based)")
	race := flag.Int("race", 0, "Level index to open; earlier levels are played without display")
	hold := flag.Bool("hold", false, "Stay on a finished race instead of advancing")
	headless := flag.Bool("headless", false, "Play the chain without display and log results")
	useTUI := flag.Bool("tui", false, "Render in the terminal")
	serveAddr := flag.String("serve", config.Env(config.EnvAddr, ""), "Stream over websockets on this address")
	loop := flag.Bool("loop", false, "With -serve, restart the chain with the next seed after the last level")
	replayPath := flag.String("replay", "", "Replay file to play instead of -level/-seed/-race")
	logPath := flag.String("log", "", "With -tui, write logs to this file")
	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	levelList := *levels
	rngSeed := *seed
	raceIndex := *race
	if *replayPath != "" {
		replay, err := telemetry.LoadReplay(*replayPath)
		if err != nil {
			slog.Error("failed to load replay", "error", err)
			os.Exit(1)
		}
		if err := cfg.SetTimeScale(replay.TimeScale); err != nil {
			slog.Error("invalid replay time scale", "error", err)
			os.Exit(1)
		}
		levelList = strings.Join(replay.Levels, ",")
		rngSeed = replay.Seed
		raceIndex = replay.Race
		slog.Info("playing replay", "path", *replayPath, "seed", rngSeed, "race", raceIndex, "levels", replay.Levels)
	}

	lvls, err := level.ResolveList(levelList)
	if err != nil {
		slog.Error("failed to resolve levels", "error", err)
		os.Exit(1)
	}
	if raceIndex < 0 || raceIndex >= len(lvls) {
		slog.Error("race index outside level list", "race", raceIndex, "levels", len(lvls))
		os.Exit(1)
	}

	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *headless:
		err = runHeadless(ctx, cfg, lvls, rngSeed)
	case *useTUI:
		err = runTUI(ctx, cfg, lvls, rngSeed, raceIndex, *hold, *logPath)
	case *serveAddr != "":
		err = runServer(ctx, cfg, lvls, rngSeed, raceIndex, *serveAddr, *loop)
	default:
		err = runWindow(cfg, lvls, rngSeed, raceIndex, *hold)
	}
	if err != nil {
		slog.Error("exiting", "error", err)
		os.Exit(1)
	}
}

// runHeadless plays one chain without display.
func runHeadless(ctx context.Context, cfg *config.Config, lvls []*level.Level, seed int64) error {
	chain, err := game.NewChain(cfg, lvls, 0, seed)
	if err != nil {
		return err
	}
	chain.OnRace = func(rr telemetry.RaceResult) {
		rr.LogStats()
	}

	slog.Info("starting headless chain", "seed", seed, "levels", len(lvls), "time_scale", cfg.Derived.TimeScale)
	res, err := chain.Run(ctx)
	if err != nil {
		return err
	}
	res.LogStats()
	return nil
}

// runTUI plays the chain in the terminal. Logs go to logPath or nowhere,
// since stdout belongs to the screen.
func runTUI(ctx context.Context, cfg *config.Config, lvls []*level.Level, seed int64, race int, hold bool, logPath string) error {
	var sink io.Writer = io.Discard
	if logPath != "" {
		f, err := os.Create(logPath)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		sink = f
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(sink, nil)))
	game.SetLogWriter(sink)

	session, err := game.NewSession(cfg, lvls, seed)
	if err != nil {
		return err
	}
	session.OnRace = func(rr telemetry.RaceResult) {
		rr.LogStats()
	}
	if err := session.Seek(ctx, race); err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initialising screen: %w", err)
	}
	defer screen.Fini()

	tick := time.Duration(cfg.Physics.DT * float64(time.Second))
	return tui.New(screen, session, tick, hold).Run(ctx)
}

// runServer streams the chain over websockets until interrupted.
func runServer(ctx context.Context, cfg *config.Config, lvls []*level.Level, seed int64, race int, addr string, loop bool) error {
	session, err := game.NewSession(cfg, lvls, seed)
	if err != nil {
		return err
	}
	if err := session.Seek(ctx, race); err != nil {
		return err
	}

	r := &server.Runner{
		Session:  session,
		Hub:      server.NewHub(),
		Every:    cfg.Telemetry.SnapshotEvery,
		Interval: time.Duration(cfg.Physics.DT * float64(time.Second)),
		Pause:    int(3 / cfg.Physics.DT),
		Loop:     loop,
	}
	return server.Serve(ctx, addr, r)
}

// runWindow opens the raylib viewer.
func runWindow(cfg *config.Config, lvls []*level.Level, seed int64, race int, hold bool) error {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Bounce")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGame(game.Options{
		Config: cfg,
		Levels: lvls,
		Seed:   seed,
		Race:   race,
		Hold:   hold,
	})
	if err != nil {
		return err
	}
	defer g.Unload()

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()
	}
	return nil
}
