// Package renderer draws the arena floor, walls, zones and effect particles.
package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/bounce/camera"
)

// Zone is an axis-aligned world rectangle.
type Zone struct {
	X, Y, W, H float32
}

// ArenaRenderer renders the arena floor as shaded tiles with wall edges.
type ArenaRenderer struct {
	width, height float32 // world units
	tileSize      float32
	seed          uint32
}

// NewArenaRenderer creates a renderer for an arena of the given size.
func NewArenaRenderer(width, height float32) *ArenaRenderer {
	return &ArenaRenderer{width: width, height: height, tileSize: 50, seed: 0x9e3779b9}
}

// Resize updates the arena dimensions.
func (r *ArenaRenderer) Resize(width, height float32) {
	r.width = width
	r.height = height
}

// Draw renders the floor and walls through the camera.
func (r *ArenaRenderer) Draw(cam *camera.Camera) {
	rl.ClearBackground(rl.Color{R: 10, G: 12, B: 16, A: 255})

	minX, minY, maxX, maxY := cam.VisibleWorldBounds()
	gx0 := int(math.Max(0, math.Floor(float64(minX/r.tileSize))))
	gy0 := int(math.Max(0, math.Floor(float64(minY/r.tileSize))))
	gx1 := int(math.Min(float64(r.width/r.tileSize), math.Ceil(float64(maxX/r.tileSize))))
	gy1 := int(math.Min(float64(r.height/r.tileSize), math.Ceil(float64(maxY/r.tileSize))))

	gridH := r.height / r.tileSize
	for gy := gy0; gy < gy1; gy++ {
		// Darker toward the goal end
		depthDarken := 1.0 - float32(gy)/gridH*0.35
		for gx := gx0; gx < gx1; gx++ {
			v := r.tileNoise(gx, gy)
			gray := float32(28) + v*8
			if (gx+gy)%2 == 0 {
				gray += 4
			}
			c := rl.Color{
				R: uint8(gray * depthDarken),
				G: uint8((gray + 3) * depthDarken),
				B: uint8((gray + 8) * depthDarken),
				A: 255,
			}
			r.drawTile(cam, float32(gx)*r.tileSize, float32(gy)*r.tileSize, c)
		}
	}

	r.drawWalls(cam)
}

func (r *ArenaRenderer) drawTile(cam *camera.Camera, wx, wy float32, c rl.Color) {
	w := min(r.tileSize, r.width-wx)
	h := min(r.tileSize, r.height-wy)
	sx, sy := cam.WorldToScreen(wx, wy)
	rl.DrawRectangleV(rl.Vector2{X: sx, Y: sy}, rl.Vector2{X: cam.Scale(w) + 1, Y: cam.Scale(h) + 1}, c)
}

// drawWalls outlines the arena with a highlight on the top and left edges
// and a shadow on the bottom and right.
func (r *ArenaRenderer) drawWalls(cam *camera.Camera) {
	thick := max(cam.Scale(6), 2)
	x0, y0 := cam.WorldToScreen(0, 0)
	x1, y1 := cam.WorldToScreen(r.width, r.height)

	highlight := rl.Color{R: 120, G: 140, B: 170, A: 255}
	shadow := rl.Color{R: 50, G: 60, B: 75, A: 255}
	rl.DrawRectangleV(rl.Vector2{X: x0 - thick, Y: y0 - thick}, rl.Vector2{X: x1 - x0 + 2*thick, Y: thick}, highlight)
	rl.DrawRectangleV(rl.Vector2{X: x0 - thick, Y: y0}, rl.Vector2{X: thick, Y: y1 - y0}, highlight)
	rl.DrawRectangleV(rl.Vector2{X: x0 - thick, Y: y1}, rl.Vector2{X: x1 - x0 + 2*thick, Y: thick}, shadow)
	rl.DrawRectangleV(rl.Vector2{X: x1, Y: y0}, rl.Vector2{X: thick, Y: y1 - y0}, shadow)
}

// DrawZone fills a world rectangle with a translucent color and outline.
func (r *ArenaRenderer) DrawZone(cam *camera.Camera, z Zone, fill rl.Color, label string) {
	sx, sy := cam.WorldToScreen(z.X, z.Y)
	rect := rl.Rectangle{X: sx, Y: sy, Width: cam.Scale(z.W), Height: cam.Scale(z.H)}
	rl.DrawRectangleRec(rect, fill)
	outline := fill
	outline.A = 220
	rl.DrawRectangleLinesEx(rect, 2, outline)
	if label != "" {
		rl.DrawText(label, int32(sx)+4, int32(sy)+4, 14, outline)
	}
}

// DrawGoalLine draws a dashed horizontal line at world y.
func (r *ArenaRenderer) DrawGoalLine(cam *camera.Camera, y float32, c rl.Color) {
	const dash = 20
	for x := float32(0); x < r.width; x += 2 * dash {
		sx0, sy := cam.WorldToScreen(x, y)
		sx1, _ := cam.WorldToScreen(min(x+dash, r.width), y)
		rl.DrawLineEx(rl.Vector2{X: sx0, Y: sy}, rl.Vector2{X: sx1, Y: sy}, 3, c)
	}
}

// tileNoise returns a stable pseudo-random value in [0, 1) per tile.
func (r *ArenaRenderer) tileNoise(gx, gy int) float32 {
	h := uint32(gx)*73856093 ^ uint32(gy)*19349663 ^ r.seed
	h ^= h >> 13
	h *= 0x5bd1e995
	h ^= h >> 15
	return float32(h&0xffff) / 0x10000
}
