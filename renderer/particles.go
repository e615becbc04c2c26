package renderer

import (
	"math"
	"math/rand"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/bounce/camera"
)

// ParticleType selects how a burst looks.
type ParticleType uint8

const (
	ParticleFinish  ParticleType = iota // ball reached the goal
	ParticleDestroy                     // ball eliminated
	ParticleBreak                       // obstacle broken
	ParticleBoss                        // boss destroyed
)

// Particle is one effect particle in world coordinates.
type Particle struct {
	X, Y    float32
	VX, VY  float32 // world units per second
	Life    float32 // seconds left
	MaxLife float32
	Size    float32
	Color   rl.Color
	Type    ParticleType
}

// ParticleSystem emits, advances and draws effect particles.
type ParticleSystem struct {
	Particles []Particle
	rng       *rand.Rand
	max       int
}

// NewParticleSystem creates a particle system capped at max live particles.
func NewParticleSystem(max int, seed int64) *ParticleSystem {
	return &ParticleSystem{rng: rand.New(rand.NewSource(seed)), max: max}
}

// Count returns the number of live particles.
func (ps *ParticleSystem) Count() int { return len(ps.Particles) }

// Burst emits n particles radiating from (x, y).
func (ps *ParticleSystem) Burst(x, y float32, n int, typ ParticleType, color rl.Color) {
	speed, life, size := float32(120), float32(0.8), float32(4)
	switch typ {
	case ParticleDestroy:
		speed, life = 80, 1.0
		color = rl.Color{R: 100, G: 80, B: 60, A: 255}
	case ParticleBreak:
		speed, life, size = 60, 0.6, 3
		color = rl.Color{R: 255, G: 150, B: 50, A: 255}
	case ParticleBoss:
		speed, life, size = 200, 1.5, 6
	}

	for i := 0; i < n && len(ps.Particles) < ps.max; i++ {
		a := ps.rng.Float64() * 2 * math.Pi
		s := speed * (0.5 + ps.rng.Float32())
		ps.Particles = append(ps.Particles, Particle{
			X:       x,
			Y:       y,
			VX:      float32(math.Cos(a)) * s,
			VY:      float32(math.Sin(a)) * s,
			Life:    life,
			MaxLife: life,
			Size:    size,
			Color:   color,
			Type:    typ,
		})
	}
}

// Update advances particles by dt seconds and drops expired ones.
func (ps *ParticleSystem) Update(dt float32) {
	drag := float32(math.Exp(-2 * float64(dt)))
	alive := ps.Particles[:0]
	for _, p := range ps.Particles {
		p.Life -= dt
		if p.Life <= 0 {
			continue
		}
		p.X += p.VX * dt
		p.Y += p.VY * dt
		p.VX *= drag
		p.VY *= drag
		alive = append(alive, p)
	}
	ps.Particles = alive
}

// Clear removes all particles.
func (ps *ParticleSystem) Clear() { ps.Particles = ps.Particles[:0] }

// ParticleRenderer renders effect particles.
type ParticleRenderer struct{}

// NewParticleRenderer creates a new particle renderer.
func NewParticleRenderer() *ParticleRenderer {
	return &ParticleRenderer{}
}

// Draw renders all particles.
func (r *ParticleRenderer) Draw(cam *camera.Camera, particles []Particle) {
	for i := range particles {
		p := &particles[i]
		if !cam.IsVisible(p.X, p.Y, p.Size) {
			continue
		}

		lifeRatio := p.Life / p.MaxLife
		color := p.Color
		color.A = uint8(lifeRatio * 200)

		size := cam.Scale(p.Size * lifeRatio)
		if size < 0.5 {
			size = 0.5
		}
		sx, sy := cam.WorldToScreen(p.X, p.Y)
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, size, color)
	}
}
