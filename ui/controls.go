package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// ControlsPanel renders the overlay toggles panel.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  false,
	}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// SetVisible shows or hides the panel.
func (c *ControlsPanel) SetVisible(visible bool) {
	c.visible = visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Draw renders the controls panel.
func (c *ControlsPanel) Draw(overlays *OverlayRegistry) int32 {
	if !c.visible {
		return c.y
	}

	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	categories := overlays.Categories()
	totalItems := 0
	for _, cat := range categories {
		totalItems += len(overlays.ByCategory(cat)) + 1 // +1 for category header
	}
	panelHeight := int32(totalItems)*lineHeight + padding*3 + lineHeight

	r.DrawPanel(c.x, c.y, c.width, panelHeight)

	y := c.y + padding
	rl.DrawText("Overlays", c.x+padding, y, 16, rl.White)
	y += lineHeight + 4

	for _, category := range categories {
		rl.DrawText(categoryLabel(category), c.x+padding, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += lineHeight

		for _, desc := range overlays.ByCategory(category) {
			c.drawToggle(c.x+padding, y, desc, overlays.IsEnabled(desc.ID), c.width-padding*2)
			y += lineHeight
		}

		y += 4 // Gap between categories
	}

	return y
}

// drawToggle draws a single overlay toggle line.
func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)

	nameColor := r.Theme.LabelColor
	if enabled {
		nameColor = rl.White
	}
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "view":
		return "View"
	case "debug":
		return "Debug"
	default:
		return cat
	}
}

// ToolbarState is what the toolbar shows.
type ToolbarState struct {
	Paused   bool
	Speed    int
	MaxSpeed int
}

// ToolbarAction reports what the user clicked this frame.
type ToolbarAction struct {
	TogglePause bool
	Restart     bool
	NextLevel   bool
	Speed       int // new steps per frame
}

// Toolbar renders the raygui playback controls.
type Toolbar struct {
	x, y float32
}

// NewToolbar creates a toolbar at the given position.
func NewToolbar(x, y float32) *Toolbar {
	return &Toolbar{x: x, y: y}
}

// SetPosition updates the toolbar position.
func (t *Toolbar) SetPosition(x, y float32) {
	t.x = x
	t.y = y
}

// Width returns the horizontal space the toolbar takes.
func (t *Toolbar) Width() float32 { return 3*90 + 200 + 60 }

// Draw renders the toolbar and returns the clicked actions.
func (t *Toolbar) Draw(state ToolbarState) ToolbarAction {
	act := ToolbarAction{Speed: state.Speed}
	x := t.x

	if gui.Button(rl.Rectangle{X: x, Y: t.y, Width: 80, Height: 24}, toggleText(state.Paused, "Resume", "Pause")) {
		act.TogglePause = true
	}
	x += 90
	if gui.Button(rl.Rectangle{X: x, Y: t.y, Width: 80, Height: 24}, "Restart") {
		act.Restart = true
	}
	x += 90
	if gui.Button(rl.Rectangle{X: x, Y: t.y, Width: 80, Height: 24}, "Next level") {
		act.NextLevel = true
	}
	x += 90

	maxSpeed := float32(max(state.MaxSpeed, 1))
	v := gui.SliderBar(
		rl.Rectangle{X: x + 40, Y: t.y + 2, Width: 160, Height: 20},
		"Speed", fmt.Sprintf("%dx", state.Speed),
		float32(state.Speed), 1, maxSpeed,
	)
	if s := int(v + 0.5); s != state.Speed {
		act.Speed = s
	}
	return act
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
