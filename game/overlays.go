package game

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/bounce/ui"
)

// drawActiveOverlays renders the enabled world-space debug overlays.
func (g *Game) drawActiveOverlays() {
	for _, id := range g.overlays.EnabledOverlays() {
		switch id {
		case ui.OverlayVelocity:
			g.drawVelocityVectors()
		case ui.OverlayBodies:
			g.drawCollisionBodies()
		// Follow, trails, names, zones and perf are handled where they draw
		}
	}
}

// drawVelocityVectors draws a line along each racing ball's velocity,
// scaled to a quarter second of travel.
func (g *Game) drawVelocityVectors() {
	const lookahead = 0.25
	color := rl.Color{R: 120, G: 255, B: 160, A: 200}
	for i := range g.snap.Balls {
		b := &g.snap.Balls[i]
		if b.Finished || b.Eliminated {
			continue
		}
		x0, y0 := g.camera.WorldToScreen(float32(b.X), float32(b.Y))
		x1, y1 := g.camera.WorldToScreen(float32(b.X+b.VX*lookahead), float32(b.Y+b.VY*lookahead))
		rl.DrawLineEx(rl.Vector2{X: x0, Y: y0}, rl.Vector2{X: x1, Y: y1}, 2, color)
		rl.DrawCircleV(rl.Vector2{X: x1, Y: y1}, 3, color)
	}
}

// drawCollisionBodies outlines every collision body, including disabled
// obstacles, so the resolver's view of the arena is visible.
func (g *Game) drawCollisionBodies() {
	color := rl.Color{R: 200, G: 200, B: 100, A: 160}
	disabled := rl.Color{R: 120, G: 120, B: 120, A: 90}

	for i := range g.snap.Obstacles {
		o := &g.snap.Obstacles[i]
		c := color
		if o.Disabled {
			c = disabled
		}
		g.outlineShape(o.X, o.Y, o.Circle, o.Radius, o.HalfW, o.HalfH, o.Angle, c)
	}
	for i := range g.snap.Balls {
		b := &g.snap.Balls[i]
		g.outlineShape(b.X, b.Y, true, b.Radius, 0, 0, 0, color)
	}
	if b := g.snap.Boss; b != nil {
		g.outlineShape(b.X, b.Y, b.Circle, b.Size, b.Size, b.Size, 0, color)
	}
}

// outlineShape draws the outline of a circle or rotated box.
func (g *Game) outlineShape(x, y float64, circle bool, radius, halfW, halfH, angle float64, color rl.Color) {
	if circle {
		sx, sy := g.camera.WorldToScreen(float32(x), float32(y))
		rl.DrawCircleLines(int32(sx), int32(sy), g.camera.Scale(float32(radius)), color)
		return
	}

	cos, sin := math.Cos(angle), math.Sin(angle)
	corners := [4][2]float64{
		{-halfW, -halfH},
		{halfW, -halfH},
		{halfW, halfH},
		{-halfW, halfH},
	}

	var pts [4]rl.Vector2
	for i, c := range corners {
		wx := x + c[0]*cos - c[1]*sin
		wy := y + c[0]*sin + c[1]*cos
		sx, sy := g.camera.WorldToScreen(float32(wx), float32(wy))
		pts[i] = rl.Vector2{X: sx, Y: sy}
	}
	for i := 0; i < 4; i++ {
		rl.DrawLineV(pts[i], pts[(i+1)%4], color)
	}
}
