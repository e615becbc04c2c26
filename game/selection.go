package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/bounce/ui"
)

// pickSlop is the extra world distance around a ball that still counts as a hit.
const pickSlop = 8.0

// pickBall returns the index into s.Balls of the ball closest to (wx, wy)
// within its radius plus slop, or -1. Faded balls cannot be picked.
func pickBall(s *Snapshot, wx, wy, slop float64) int {
	best := -1
	bestDist := 0.0
	for i := range s.Balls {
		b := &s.Balls[i]
		if b.Fade <= 0 {
			continue
		}
		dx, dy := b.X-wx, b.Y-wy
		d2 := dx*dx + dy*dy
		reach := b.Radius + slop
		if d2 > reach*reach {
			continue
		}
		if best < 0 || d2 < bestDist {
			best = i
			bestDist = d2
		}
	}
	return best
}

// handleSelection selects the ball under a left click. Clicking empty
// arena clears the selection.
func (g *Game) handleSelection() {
	if !rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		return
	}
	m := rl.GetMousePosition()
	if m.Y > g.screenHeight-44 {
		return // toolbar
	}
	wx, wy := g.camera.ScreenToWorld(m.X, m.Y)
	if i := pickBall(&g.snap, float64(wx), float64(wy), pickSlop/float64(g.camera.Zoom)); i >= 0 {
		g.selected = g.snap.Balls[i].Index
		return
	}
	g.selected = -1
}

// selectedBall returns the selected ball in the current snapshot.
func (g *Game) selectedBall() (*BallView, bool) {
	if g.selected < 0 {
		return nil, false
	}
	for i := range g.snap.Balls {
		if g.snap.Balls[i].Index == g.selected {
			return &g.snap.Balls[i], true
		}
	}
	return nil, false
}

// inspectorData builds the inspector panel rows for a ball.
func (g *Game) inspectorData(b *BallView) ui.InspectorData {
	data := ui.InspectorData{
		Name:      b.Name,
		Color:     ui.RGB(b.Color),
		Status:    b.Status,
		Rank:      b.Rank,
		Health:    float32(b.Health),
		MaxHealth: float32(b.MaxHealth),
		Speed:     float32(speedOf(b.VX, b.VY)),
		Buffs:     b.Buffs,
		Weapons:   b.Weapons,
		Trail:     g.trails[b.Index],
	}
	if b.Eliminated {
		data.Status = "eliminated"
	}
	for _, f := range b.Fields {
		data.Fields = append(data.Fields, ui.FieldRow{Label: f.Label, Text: f.Text, Frac: float32(f.Frac), Bar: f.Bar})
	}
	return data
}
