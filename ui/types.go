// Package ui provides the raylib HUD, panels and controls for the race viewer.
// Panels take plain row data so they stay independent of the simulation.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// FieldRow is one labelled value in a panel.
type FieldRow struct {
	Label string
	Text  string
	Frac  float32 // bar fill in [0, 1]
	Bar   bool    // draw as a bar instead of text
}

// PanelAnchor specifies where a panel is anchored on screen.
type PanelAnchor int

const (
	AnchorTopLeft PanelAnchor = iota
	AnchorTopRight
	AnchorBottomLeft
	AnchorBottomRight
)

// Place returns the top-left corner of a panel of the given size.
func (a PanelAnchor) Place(screenW, screenH, panelW, panelH, margin int32) (x, y int32) {
	switch a {
	case AnchorTopRight:
		return screenW - panelW - margin, margin
	case AnchorBottomLeft:
		return margin, screenH - panelH - margin
	case AnchorBottomRight:
		return screenW - panelW - margin, screenH - panelH - margin
	default:
		return margin, margin
	}
}

// Theme holds UI styling constants.
type Theme struct {
	PanelBg        rl.Color
	PanelBorder    rl.Color
	SectionHeader  rl.Color
	LabelColor     rl.Color
	ValueColor     rl.Color
	BarBg          rl.Color
	BarFill        rl.Color
	BarFillLow     rl.Color
	BarFillMedium  rl.Color
	BarFillHigh    rl.Color
	Muted          rl.Color
	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 20, G: 25, B: 30, A: 240},
		PanelBorder:    rl.Color{R: 60, G: 70, B: 80, A: 255},
		SectionHeader:  rl.Yellow,
		LabelColor:     rl.LightGray,
		ValueColor:     rl.LightGray,
		BarBg:          rl.Color{R: 40, G: 40, B: 40, A: 255},
		BarFill:        rl.Color{R: 100, G: 150, B: 200, A: 255},
		BarFillLow:     rl.Color{R: 200, G: 100, B: 100, A: 255},
		BarFillMedium:  rl.Color{R: 200, G: 180, B: 100, A: 255},
		BarFillHigh:    rl.Color{R: 100, G: 200, B: 100, A: 255},
		Muted:          rl.Color{R: 110, G: 110, B: 110, A: 255},
		Padding:        10,
		LineHeight:     16,
		LabelWidth:     70,
		BarHeight:      12,
		FontSize:       12,
		HeaderFontSize: 14,
	}
}

// RGB converts a 0xRRGGBB color to an opaque raylib color.
func RGB(c uint32) rl.Color {
	return rl.Color{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: 255}
}

// Fade returns c with its alpha scaled by f in [0, 1].
func Fade(c rl.Color, f float64) rl.Color {
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	c.A = uint8(float64(c.A) * f)
	return c
}
