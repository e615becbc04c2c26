package game

import (
	"fmt"
	"math"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/bounce/renderer"
	"github.com/pthm-cable/bounce/ui"
)

const controlsHelp = "SPACE pause | ,/. speed | N next | R restart | arrows pan | wheel zoom | HOME reset | H overlays | click select"

// obstacleColors by behavior name.
var obstacleColors = map[string]rl.Color{
	"static":    {R: 90, G: 100, B: 120, A: 255},
	"rotating":  {R: 80, G: 150, B: 200, A: 255},
	"moving":    {R: 90, G: 180, B: 140, A: 255},
	"breakable": {R: 210, G: 140, B: 60, A: 255},
	"crusher":   {R: 200, G: 60, B: 60, A: 255},
	"keyframe":  {R: 160, G: 110, B: 210, A: 255},
}

// Draw renders the game state.
func (g *Game) Draw() {
	rl.BeginDrawing()

	start := time.Now()
	g.arena.Draw(g.camera)
	if g.overlays.IsEnabled(ui.OverlayZones) {
		g.drawZones()
	}
	g.renderPerf.Record("arena", time.Since(start))

	start = time.Now()
	g.drawObstacles()
	g.drawItems()
	if g.overlays.IsEnabled(ui.OverlayTrails) {
		g.drawTrails()
	}
	g.drawBalls()
	g.drawProjectiles()
	g.drawBoss()
	g.drawSelectionIndicator()
	g.drawActiveOverlays()
	g.renderPerf.Record("entities", time.Since(start))

	start = time.Now()
	g.particleRenderer.Draw(g.camera, g.particles.Particles)
	g.renderPerf.Record("particles", time.Since(start))

	start = time.Now()
	g.drawUI()
	g.renderPerf.Record("ui", time.Since(start))

	rl.EndDrawing()
}

// drawZones highlights the spawn zone and the goal.
func (g *Game) drawZones() {
	s := &g.snap
	g.arena.DrawZone(g.camera, renderer.Zone{
		X: float32(s.Spawn.X), Y: float32(s.Spawn.Y), W: float32(s.Spawn.W), H: float32(s.Spawn.H),
	}, rl.Color{R: 80, G: 140, B: 220, A: 40}, "spawn")

	goal := rl.Color{R: 80, G: 220, B: 120, A: 50}
	switch {
	case s.Goal != nil:
		g.arena.DrawZone(g.camera, renderer.Zone{
			X: float32(s.Goal.X), Y: float32(s.Goal.Y), W: float32(s.Goal.W), H: float32(s.Goal.H),
		}, goal, "goal")
	case s.GoalLine != nil:
		goal.A = 200
		g.arena.DrawGoalLine(g.camera, float32(*s.GoalLine), goal)
	}
}

func (g *Game) drawObstacles() {
	for i := range g.snap.Obstacles {
		o := &g.snap.Obstacles[i]
		if o.Disabled {
			continue
		}
		color, ok := obstacleColors[o.Behavior]
		if !ok {
			color = rl.Gray
		}
		g.drawShape(o.X, o.Y, o.Circle, o.Radius, o.HalfW, o.HalfH, o.Angle, color)

		if o.Health > 0 {
			sx, sy := g.camera.WorldToScreen(float32(o.X), float32(o.Y))
			txt := fmt.Sprintf("%d", o.Health)
			rl.DrawText(txt, int32(sx)-rl.MeasureText(txt, 12)/2, int32(sy)-6, 12, rl.White)
		}
	}
}

// drawShape draws a circle or a rotated box in world coordinates.
func (g *Game) drawShape(x, y float64, circle bool, radius, halfW, halfH, angle float64, color rl.Color) {
	sx, sy := g.camera.WorldToScreen(float32(x), float32(y))
	if circle {
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, g.camera.Scale(float32(radius)), color)
		return
	}
	w := g.camera.Scale(float32(halfW * 2))
	h := g.camera.Scale(float32(halfH * 2))
	rl.DrawRectanglePro(
		rl.Rectangle{X: sx, Y: sy, Width: w, Height: h},
		rl.Vector2{X: w / 2, Y: h / 2},
		float32(angle*180/math.Pi),
		color,
	)
}

func (g *Game) drawItems() {
	pulse := float32(math.Sin(g.snap.Time*4))*0.2 + 0.8
	for _, it := range g.snap.Items {
		sx, sy := g.camera.WorldToScreen(float32(it.X), float32(it.Y))
		r := g.camera.Scale(float32(it.Radius)) * pulse
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, r, rl.Color{R: 240, G: 220, B: 90, A: 200})
		if len(it.Buff) > 0 {
			label := string(it.Buff[0])
			rl.DrawText(label, int32(sx)-rl.MeasureText(label, 12)/2, int32(sy)-6, 12, rl.Black)
		}
	}
}

func (g *Game) drawTrails() {
	for i := range g.snap.Balls {
		b := &g.snap.Balls[i]
		trail := g.trails[b.Index]
		color := ui.RGB(b.Color)
		for j := 1; j < len(trail); j++ {
			x0, y0 := g.camera.WorldToScreen(trail[j-1].X, trail[j-1].Y)
			x1, y1 := g.camera.WorldToScreen(trail[j].X, trail[j].Y)
			alpha := float64(j) / float64(len(trail)) * 0.6 * b.Fade
			rl.DrawLineV(rl.Vector2{X: x0, Y: y0}, rl.Vector2{X: x1, Y: y1}, ui.Fade(color, alpha))
		}
	}
}

func (g *Game) drawBalls() {
	showNames := g.overlays.IsEnabled(ui.OverlayNames)
	for i := range g.snap.Balls {
		b := &g.snap.Balls[i]
		if b.Fade <= 0 {
			continue
		}
		sx, sy := g.camera.WorldToScreen(float32(b.X), float32(b.Y))
		r := g.camera.Scale(float32(b.Radius))
		color := ui.Fade(ui.RGB(b.Color), b.Fade)
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, r, color)
		rl.DrawCircleLines(int32(sx), int32(sy), r, ui.Fade(rl.White, 0.6*b.Fade))

		if !showNames {
			continue
		}
		label := b.Name
		if b.Rank > 0 {
			label = fmt.Sprintf("#%d %s", b.Rank, b.Name)
		}
		lw := rl.MeasureText(label, 12)
		rl.DrawText(label, int32(sx)-lw/2, int32(sy-r)-26, 12, ui.Fade(rl.White, b.Fade))

		if b.MaxHealth > 0 && !b.Finished {
			ratio := float32(b.Health / b.MaxHealth)
			bw := max(r*2, 24)
			bx := sx - bw/2
			by := sy - r - 10
			rl.DrawRectangleV(rl.Vector2{X: bx, Y: by}, rl.Vector2{X: bw, Y: 4}, rl.Color{R: 40, G: 40, B: 40, A: 200})
			rl.DrawRectangleV(rl.Vector2{X: bx, Y: by}, rl.Vector2{X: bw * ratio, Y: 4}, healthColor(ratio))
		}
	}
}

func (g *Game) drawProjectiles() {
	for _, p := range g.snap.Projectiles {
		sx, sy := g.camera.WorldToScreen(float32(p.X), float32(p.Y))
		color := rl.Color{R: 120, G: 220, B: 255, A: 255}
		if p.FromBoss {
			color = rl.Color{R: 255, G: 90, B: 70, A: 255}
		}
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, max(g.camera.Scale(float32(p.Radius)), 1.5), color)
	}
}

func (g *Game) drawBoss() {
	b := g.snap.Boss
	if b == nil || b.Fade <= 0 {
		return
	}
	color := rl.Color{R: 170, G: 40, B: 90, A: 255}
	if b.State == "attacking" {
		color = rl.Color{R: 230, G: 200, B: 60, A: 255}
	}
	color = ui.Fade(color, b.Fade)
	g.drawShape(b.X, b.Y, b.Circle, b.Size, b.Size, b.Size, 0, color)
}

// drawSelectionIndicator draws a pulsing ring around the selected ball.
func (g *Game) drawSelectionIndicator() {
	b, ok := g.selectedBall()
	if !ok || b.Fade <= 0 {
		return
	}
	sx, sy := g.camera.WorldToScreen(float32(b.X), float32(b.Y))
	radius := g.camera.Scale(float32(b.Radius)) + 6

	pulse := float32(math.Sin(float64(g.snap.Tick)*0.1))*0.3 + 0.7
	alpha := uint8(255 * pulse)
	rl.DrawCircleLines(int32(sx), int32(sy), radius, rl.Color{R: 255, G: 255, B: 255, A: alpha})
	rl.DrawCircleLines(int32(sx), int32(sy), radius+1, rl.Color{R: 255, G: 255, B: 255, A: alpha / 2})
}

// drawUI draws the HUD, panels and toolbar.
func (g *Game) drawUI() {
	s := &g.snap
	cfg := g.cfg

	data := ui.HUDData{
		Title:     "Bounce",
		Level:     s.Level,
		LevelNum:  g.session.Index() + 1,
		Levels:    g.session.Len(),
		Tick:      s.Tick,
		Time:      s.Time,
		Budget:    cfg.Race.TimeBudget,
		Speed:     g.stepsPerFrame,
		TimeScale: cfg.Derived.TimeScale,
		FPS:       rl.GetFPS(),
		Paused:    g.paused,
		Countdown: s.Countdown,
		Complete:  s.Complete,
		Reason:    s.Reason,
	}
	if s.Boss != nil {
		data.HasBoss = true
		data.BossHP = s.Boss.Health
		data.BossMaxHP = s.Boss.MaxHealth
		data.BossState = s.Boss.State
		data.Pattern = s.Boss.Pattern
	}
	g.hud.Draw(data)

	g.standings.Draw(g.standingRows())

	if b, ok := g.selectedBall(); ok {
		g.inspector.Draw(g.inspectorData(b))
	}

	if g.overlays.IsEnabled(ui.OverlayPerf) {
		phases, total := mergePhases(g.perf.Stats().PhaseAvg, g.renderPerf.Averages())
		g.perfPanel.Draw(ui.PerfPanelData{PhaseTimes: phases, Total: total, Labels: g.registry.Labels()}, sortByDuration(phases))
	}

	g.controls.Draw(g.overlays)

	act := g.toolbar.Draw(ui.ToolbarState{Paused: g.paused, Speed: g.stepsPerFrame, MaxSpeed: MaxStepsPerFrame})
	g.applyToolbar(act)

	g.hud.DrawControls(int32(g.screenWidth), int32(g.screenHeight)-40, controlsHelp)
}

// standingRows orders balls by rank, then by progress, with chain points.
func (g *Game) standingRows() []ui.StandingRow {
	points := make(map[string]int)
	for _, st := range g.session.Standings() {
		points[st.Name] = st.Points
	}

	order := RaceOrder(g.snap.Balls)
	rows := make([]ui.StandingRow, 0, len(order))
	for _, i := range order {
		b := &g.snap.Balls[i]
		health := float32(0)
		if b.MaxHealth > 0 {
			health = float32(b.Health / b.MaxHealth)
		}
		rows = append(rows, ui.StandingRow{
			Name:     b.Name,
			Color:    ui.RGB(b.Color),
			Rank:     b.Rank,
			Status:   b.Status,
			Progress: float32(b.Progress),
			Health:   health,
			Points:   points[b.Name],
		})
	}
	return rows
}

func healthColor(ratio float32) rl.Color {
	switch {
	case ratio < 0.3:
		return rl.Color{R: 200, G: 100, B: 100, A: 255}
	case ratio < 0.6:
		return rl.Color{R: 200, G: 180, B: 100, A: 255}
	default:
		return rl.Color{R: 100, G: 200, B: 100, A: 255}
	}
}

func speedOf(vx, vy float64) float64 {
	return math.Hypot(vx, vy)
}
