package tui

import "math"

// Projection maps arena world coordinates onto a grid of terminal cells.
type Projection struct {
	Cols, Rows   int
	CellW, CellH float64 // world units per cell
}

// NewProjection fits a worldW x worldH arena into cols x rows cells.
func NewProjection(worldW, worldH float64, cols, rows int) Projection {
	cols = max(cols, 1)
	rows = max(rows, 1)
	return Projection{
		Cols:  cols,
		Rows:  rows,
		CellW: worldW / float64(cols),
		CellH: worldH / float64(rows),
	}
}

// Cell returns the cell containing a world point, clamped to the grid.
func (p Projection) Cell(x, y float64) (int, int) {
	cx := int(math.Floor(x / p.CellW))
	cy := int(math.Floor(y / p.CellH))
	return min(max(cx, 0), p.Cols-1), min(max(cy, 0), p.Rows-1)
}

// Center returns the world coordinates of a cell center.
func (p Projection) Center(cx, cy int) (float64, float64) {
	return (float64(cx) + 0.5) * p.CellW, (float64(cy) + 0.5) * p.CellH
}

// Cover calls fn for every cell whose center lies inside the shape. A
// shape smaller than one cell still covers the cell holding its center.
func (p Projection) Cover(x, y float64, circle bool, radius, halfW, halfH, angle float64, fn func(cx, cy int)) {
	reach := radius
	if !circle {
		reach = math.Hypot(halfW, halfH)
	}
	x0, y0 := p.Cell(x-reach, y-reach)
	x1, y1 := p.Cell(x+reach, y+reach)

	cos, sin := math.Cos(-angle), math.Sin(-angle)
	hit := false
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			wx, wy := p.Center(cx, cy)
			dx, dy := wx-x, wy-y
			var inside bool
			if circle {
				inside = dx*dx+dy*dy <= radius*radius
			} else {
				lx := dx*cos - dy*sin
				ly := dx*sin + dy*cos
				inside = math.Abs(lx) <= halfW && math.Abs(ly) <= halfH
			}
			if inside {
				fn(cx, cy)
				hit = true
			}
		}
	}
	if !hit {
		fn(p.Cell(x, y))
	}
}
