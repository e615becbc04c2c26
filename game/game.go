package game

import (
	"context"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/bounce/camera"
	"github.com/pthm-cable/bounce/config"
	"github.com/pthm-cable/bounce/level"
	"github.com/pthm-cable/bounce/renderer"
	"github.com/pthm-cable/bounce/systems"
	"github.com/pthm-cable/bounce/telemetry"
	"github.com/pthm-cable/bounce/ui"
)

// Viewer constants
const (
	MaxStepsPerFrame = 10
	trailLength      = 40
	advanceDelay     = 3.0 // seconds a finished race stays on screen
	maxParticles     = 2000
	perfLogInterval  = 600 // ticks between perf log lines
)

// Options configures the interactive viewer.
type Options struct {
	Config *config.Config
	Levels []*level.Level
	Seed   int64
	Race   int  // level index to open, earlier levels are played headless
	Hold   bool // stay on a finished race instead of advancing
}

// Game is the interactive raylib viewer over a Session.
type Game struct {
	cfg     *config.Config
	session *Session
	opts    Options

	// Rendering
	camera           *camera.Camera
	arena            *renderer.ArenaRenderer
	particles        *renderer.ParticleSystem
	particleRenderer *renderer.ParticleRenderer

	// UI
	hud       *ui.HUD
	standings *ui.StandingsPanel
	inspector *ui.Inspector
	controls  *ui.ControlsPanel
	toolbar   *ui.Toolbar
	perfPanel *ui.PerfPanel
	registry  *systems.SystemRegistry
	overlays  *ui.OverlayRegistry

	perf       *telemetry.PerfCollector // simulation phases
	renderPerf *PerfStats               // draw phases

	// State
	snap          Snapshot
	prev          Snapshot
	trails        map[int][]rl.Vector2
	selected      int // ball index, -1 for none
	paused        bool
	stepsPerFrame int
	finishedFor   float32 // seconds since the current race completed

	screenWidth, screenHeight float32
}

// NewGame creates the viewer and loads the first race. The raylib window
// must already be open.
func NewGame(opts Options) (*Game, error) {
	cfg := opts.Config
	session, err := NewSession(cfg, opts.Levels, opts.Seed)
	if err != nil {
		return nil, err
	}

	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	arenaW := float32(cfg.Arena.Width)
	arenaH := float32(cfg.Arena.Height)

	g := &Game{
		cfg:              cfg,
		session:          session,
		opts:             opts,
		camera:           camera.New(w, h, arenaW, arenaH),
		arena:            renderer.NewArenaRenderer(arenaW, arenaH),
		particles:        renderer.NewParticleSystem(maxParticles, opts.Seed),
		particleRenderer: renderer.NewParticleRenderer(),
		hud:              ui.NewHUD(),
		standings:        ui.NewStandingsPanel(0, 0, 280),
		inspector:        ui.NewInspector(0, 0, 260),
		controls:         ui.NewControlsPanel(0, 0, 220),
		toolbar:          ui.NewToolbar(0, 0),
		perfPanel:        ui.NewPerfPanel(0, 0),
		registry:         systems.NewSystemRegistry(),
		overlays:         ui.NewOverlayRegistry(),
		perf:             telemetry.NewPerfCollector(120),
		renderPerf:       NewPerfStats(),
		trails:           make(map[int][]rl.Vector2),
		selected:         -1,
		stepsPerFrame:    1,
		screenWidth:      w,
		screenHeight:     h,
	}
	session.OnRace = g.logRaceResult
	g.layout()

	if opts.Race > 0 {
		if err := session.Seek(context.Background(), opts.Race); err != nil {
			return nil, err
		}
	}
	g.raceLoaded()
	return g, nil
}

// Update handles input and advances the session by the current speed.
func (g *Game) Update() {
	g.handleInput()
	g.perf.RecordFrame()

	frame := rl.GetFrameTime()
	if !g.paused {
		for i := 0; i < g.stepsPerFrame; i++ {
			g.session.Step()
			if tick := g.session.Race().Tick(); tick > 0 && tick%perfLogInterval == 0 && !g.session.Finished() {
				g.logPerfStats()
			}
		}
		g.refresh()
		g.particles.Update(frame)

		if g.session.Finished() {
			g.finishedFor += frame
			if !g.opts.Hold && g.finishedFor >= advanceDelay {
				g.next()
			}
		}
	}

	if g.overlays.IsEnabled(ui.OverlayFollowLeader) {
		if i := g.snap.Leader(); i >= 0 {
			b := &g.snap.Balls[i]
			g.camera.Follow(float32(b.X), float32(b.Y), 0.08)
		}
	}
}

// refresh takes a new snapshot and turns state changes into effects.
func (g *Game) refresh() {
	g.prev = g.snap
	g.snap = g.session.Snapshot()

	for _, fx := range diffEffects(&g.prev, &g.snap) {
		g.particles.Burst(float32(fx.X), float32(fx.Y), fx.Count, fx.Type, ui.RGB(fx.Color))
	}

	for i := range g.snap.Balls {
		b := &g.snap.Balls[i]
		if b.Finished || b.Eliminated {
			continue
		}
		t := append(g.trails[b.Index], rl.Vector2{X: float32(b.X), Y: float32(b.Y)})
		if len(t) > trailLength {
			t = t[len(t)-trailLength:]
		}
		g.trails[b.Index] = t
	}
}

// next advances the session to the following level.
func (g *Game) next() {
	if err := g.session.Next(); err != nil {
		slog.Error("loading next level", "error", err)
		g.paused = true
		return
	}
	g.raceLoaded()
}

// restart replays the chain from its first level.
func (g *Game) restart() {
	if err := g.session.Restart(); err != nil {
		slog.Error("restarting chain", "error", err)
		g.paused = true
		return
	}
	g.raceLoaded()
}

// raceLoaded resets per-race viewer state after a level load.
func (g *Game) raceLoaded() {
	g.session.Race().SetPerf(g.perf)
	g.snap = g.session.Snapshot()
	g.prev = g.snap
	g.trails = make(map[int][]rl.Vector2)
	g.particles.Clear()
	g.finishedFor = 0

	slog.Info("race loaded",
		"level", g.snap.Level,
		"index", g.session.Index(),
		"of", g.session.Len(),
		"seed", g.session.Seed(),
	)
}

// layout places panels for the current screen size.
func (g *Game) layout() {
	sw, sh := int32(g.screenWidth), int32(g.screenHeight)
	const margin = 10

	x, y := ui.AnchorTopRight.Place(sw, sh, 280, 0, margin)
	g.standings.SetPosition(x, y+40)

	x, y = ui.AnchorBottomRight.Place(sw, sh, 260, 420, margin)
	g.inspector.SetPosition(x, y)

	x, y = ui.AnchorBottomLeft.Place(sw, sh, 220, 260, margin)
	g.controls.SetPosition(x, y-30)

	g.toolbar.SetPosition(float32(margin), g.screenHeight-34)
	g.perfPanel.SetPosition(margin, 120)
}

// Unload releases viewer resources.
func (g *Game) Unload() {
	g.logPerfStats()
}

// Session returns the underlying session.
func (g *Game) Session() *Session { return g.session }
