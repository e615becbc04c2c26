package ui

import (
	"fmt"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// InspectorData holds all the data needed to render the ball inspector.
type InspectorData struct {
	Name      string
	Color     rl.Color
	Status    string
	Rank      int
	Health    float32
	MaxHealth float32
	Speed     float32
	Buffs     []string
	Weapons   []string
	Fields    []FieldRow
	Trail     []rl.Vector2 // recent world positions, oldest first
}

// Inspector renders the selected ball panel.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Draw renders the inspector panel for the given data.
func (ins *Inspector) Draw(data InspectorData) int32 {
	r := ins.renderer
	padding := r.Theme.Padding
	contentWidth := ins.width - padding*2

	rows := 6 + len(data.Fields)
	panelHeight := int32(80) + int32(rows)*(r.Theme.LineHeight+2) + padding*3
	r.DrawPanel(ins.x, ins.y, ins.width, panelHeight)

	y := ins.y + padding
	y = ins.drawPreview(ins.x+padding, y, contentWidth, 60, data)
	y = r.DrawSpacer(y, 8)

	y = ins.drawHeader(ins.x+padding, y, data)
	y = r.DrawSpacer(y, 4)

	y = r.DrawSectionHeader(ins.x+padding, y, "Stats")
	y = r.DrawHealthBar(ins.x+padding, y, "Health", data.Health, data.MaxHealth, contentWidth)
	y = r.DrawLabelValue(ins.x+padding, y, "Speed", fmt.Sprintf("%.0f", data.Speed))
	y = r.DrawLabelValue(ins.x+padding, y, "Buffs", listOrNone(data.Buffs))
	y = r.DrawLabelValue(ins.x+padding, y, "Weapons", listOrNone(data.Weapons))
	y += 6

	y = r.DrawSection(ins.x+padding, y, "Race", data.Fields, contentWidth)
	return y
}

// drawPreview renders the ball's recent path scaled into a box.
func (ins *Inspector) drawPreview(x, y, width, height int32, data InspectorData) int32 {
	rl.DrawRectangle(x, y, width, height, rl.Color{R: 25, G: 30, B: 35, A: 255})
	rl.DrawRectangleLinesEx(rl.Rectangle{X: float32(x), Y: float32(y), Width: float32(width), Height: float32(height)}, 1, rl.Color{R: 50, G: 60, B: 70, A: 255})

	if len(data.Trail) < 2 {
		rl.DrawCircle(x+width/2, y+height/2, 10, data.Color)
		return y + height
	}

	minX, minY := data.Trail[0].X, data.Trail[0].Y
	maxX, maxY := minX, minY
	for _, p := range data.Trail[1:] {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	pad := float32(8)
	availW := float32(width) - pad*2
	availH := float32(height) - pad*2
	scale := min(availW/max(maxX-minX, 1), availH/max(maxY-minY, 1))
	offX := float32(x) + pad + (availW-(maxX-minX)*scale)/2
	offY := float32(y) + pad + (availH-(maxY-minY)*scale)/2

	at := func(p rl.Vector2) rl.Vector2 {
		return rl.Vector2{X: offX + (p.X-minX)*scale, Y: offY + (p.Y-minY)*scale}
	}
	for i := 1; i < len(data.Trail); i++ {
		alpha := float64(i) / float64(len(data.Trail))
		rl.DrawLineV(at(data.Trail[i-1]), at(data.Trail[i]), Fade(data.Color, alpha))
	}
	rl.DrawCircleV(at(data.Trail[len(data.Trail)-1]), 4, data.Color)

	return y + height
}

// drawHeader renders the ball name and status.
func (ins *Inspector) drawHeader(x, y int32, data InspectorData) int32 {
	r := ins.renderer

	title := data.Name
	if data.Rank > 0 {
		title = fmt.Sprintf("#%d %s", data.Rank, data.Name)
	}
	headerColor := data.Color
	if data.Status == "eliminated" {
		headerColor = rl.Gray
	}
	rl.DrawText(title, x, y, 18, headerColor)
	rl.DrawText(strings.ToUpper(data.Status), x+rl.MeasureText(title, 18)+10, y+4, r.Theme.FontSize, r.Theme.Muted)
	return y + r.Theme.LineHeight + 6
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
