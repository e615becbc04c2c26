package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title     string
	Level     string
	LevelNum  int // 1-based
	Levels    int
	Tick      int
	Time      float64 // race clock seconds
	Budget    float64
	Speed     int
	TimeScale float64
	FPS       int32
	Paused    bool
	Countdown float64 // seconds left, 0 when not running
	Complete  bool
	Reason    string

	HasBoss   bool
	BossHP    float64
	BossMaxHP float64
	BossState string
	Pattern   string
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Level %d/%d: %s", data.LevelNum, data.Levels, data.Level),
		10, 35, 16, rl.LightGray,
	)

	rl.DrawText(
		fmt.Sprintf("Time: %.1f/%.0fs | Tick: %d | Speed: %dx (scale %.1f) | FPS: %d",
			data.Time, data.Budget, data.Tick, data.Speed, data.TimeScale, data.FPS),
		10, 55, 16, rl.LightGray,
	)

	statusText := "Racing"
	statusColor := rl.Yellow
	switch {
	case data.Paused:
		statusText = "PAUSED"
	case data.Complete:
		statusText = "Finished: " + data.Reason
		statusColor = rl.Green
	case data.Countdown > 0:
		statusText = fmt.Sprintf("Countdown: %.1fs", data.Countdown)
		statusColor = rl.Orange
	}
	rl.DrawText(statusText, 10, 75, 16, statusColor)

	if data.HasBoss {
		h.drawBossBar(data)
	}
}

// drawBossBar renders the boss health across the top center.
func (h *HUD) drawBossBar(data HUDData) {
	r := h.renderer
	width := int32(300)
	x := (int32(rl.GetScreenWidth()) - width) / 2
	y := int32(12)

	ratio := float32(0)
	if data.BossMaxHP > 0 {
		ratio = clamp01(float32(data.BossHP / data.BossMaxHP))
	}
	rl.DrawRectangle(x, y, width, 14, r.Theme.BarBg)
	rl.DrawRectangle(x, y, int32(float32(width)*ratio), 14, r.Theme.BarFillLow)
	rl.DrawRectangleLines(x, y, width, 14, r.Theme.PanelBorder)

	label := fmt.Sprintf("BOSS %.0f/%.0f  %s  %s", data.BossHP, data.BossMaxHP, data.BossState, data.Pattern)
	rl.DrawText(label, x, y+18, r.Theme.FontSize, rl.White)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanelData holds performance metrics for display.
type PerfPanelData struct {
	PhaseTimes map[string]time.Duration
	Total      time.Duration
	Labels     map[string]string // display names by phase, optional
}

// PerfPanel renders the per-phase timing panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(data PerfPanelData, sortedNames []string) {
	x := p.x
	y := p.y

	rl.DrawText("Frame Timing", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Total: %s", data.Total.Round(time.Microsecond)), x, y, 14, rl.Yellow)
	y += 16

	for i, name := range sortedNames {
		if i >= 12 {
			break
		}

		avg := data.PhaseTimes[name]
		pct := float64(0)
		if data.Total > 0 {
			pct = float64(avg) / float64(data.Total) * 100
		}

		color := rl.LightGray
		if pct > 20 {
			color = rl.Red
		} else if pct > 10 {
			color = rl.Orange
		}

		label := name
		if l, ok := data.Labels[name]; ok {
			label = l
		}
		rl.DrawText(
			fmt.Sprintf("%-16s %6s %5.1f%%", label, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}

// StandingRow is one ball in the standings panel.
type StandingRow struct {
	Name     string
	Color    rl.Color
	Rank     int // 0 while racing
	Status   string
	Progress float32 // [0, 1]
	Health   float32 // [0, 1]
	Points   int     // chain points before this race
}

// StandingsPanel renders the live race order and chain points.
type StandingsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewStandingsPanel creates a new standings panel.
func NewStandingsPanel(x, y, width int32) *StandingsPanel {
	return &StandingsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (s *StandingsPanel) SetPosition(x, y int32) {
	s.x = x
	s.y = y
}

// Height returns the panel height for n rows.
func (s *StandingsPanel) Height(n int) int32 {
	r := s.renderer
	return r.Theme.Padding*2 + 20 + int32(n)*(r.Theme.LineHeight+6)
}

// Draw renders rows in the given order.
func (s *StandingsPanel) Draw(rows []StandingRow) {
	r := s.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	r.DrawPanel(s.x, s.y, s.width, s.Height(len(rows)))

	y := s.y + padding
	rl.DrawText("Standings", s.x+padding, y, 16, rl.White)
	y += 20

	barW := s.width - padding*2 - 14
	for i, row := range rows {
		place := fmt.Sprintf("%d.", i+1)
		if row.Rank > 0 {
			place = fmt.Sprintf("#%d", row.Rank)
		}

		rl.DrawRectangle(s.x+padding, y+2, 10, 10, row.Color)
		nameColor := rl.LightGray
		if row.Status != "racing" {
			nameColor = r.Theme.Muted
		}
		rl.DrawText(fmt.Sprintf("%-3s %-8s %-10s %3dpt", place, row.Name, row.Status, row.Points),
			s.x+padding+14, y, r.Theme.FontSize, nameColor)
		y += lineHeight

		// Progress above, health below
		bx := s.x + padding + 14
		rl.DrawRectangle(bx, y, barW, 2, r.Theme.BarBg)
		rl.DrawRectangle(bx, y, int32(float32(barW)*clamp01(row.Progress)), 2, r.Theme.BarFill)
		rl.DrawRectangle(bx, y+3, barW, 2, r.Theme.BarBg)
		rl.DrawRectangle(bx, y+3, int32(float32(barW)*clamp01(row.Health)), 2, r.HealthColor(row.Health))
		y += 6
	}
}
