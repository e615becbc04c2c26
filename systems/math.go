package systems

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"
)

// clampFloat clamps a value between min and max.
func clampFloat(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// normalizeAngle wraps an angle to [-Pi, Pi].
func normalizeAngle(angle float64) float64 {
	return math.Remainder(angle, 2*math.Pi)
}

// rotate turns v around the origin by alpha radians.
func rotate(v r2.Vec, alpha float64) r2.Vec {
	return r2.Rotate(v, alpha, r2.Vec{})
}

// fromAngle returns a vector of the given length pointing at angle.
func fromAngle(angle, length float64) r2.Vec {
	return r2.Vec{X: math.Cos(angle) * length, Y: math.Sin(angle) * length}
}

// angleOf returns the heading of v.
func angleOf(v r2.Vec) float64 {
	return math.Atan2(v.Y, v.X)
}

// reflect mirrors v across the surface with unit normal n.
func reflect(v, n r2.Vec) r2.Vec {
	return r2.Sub(v, r2.Scale(2*r2.Dot(v, n), n))
}

// withSpeed rescales v to the given length, using fallback's direction when v is degenerate.
func withSpeed(v r2.Vec, speed float64, fallback r2.Vec) r2.Vec {
	n := r2.Norm(v)
	if n < 1e-9 || !finite(v) {
		v, n = fallback, r2.Norm(fallback)
		if n < 1e-9 {
			return r2.Vec{X: 0, Y: speed}
		}
	}
	return r2.Scale(speed/n, v)
}

// finite reports whether both components are real numbers.
func finite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// jitter returns a uniform value in [-amount, amount).
func jitter(rng *rand.Rand, amount float64) float64 {
	return (rng.Float64()*2 - 1) * amount
}

// randomAngle returns a uniform angle in [0, 2Pi).
func randomAngle(rng *rand.Rand) float64 {
	return rng.Float64() * 2 * math.Pi
}

// circleCircle tests two circles. The normal points from b toward a.
func circleCircle(a r2.Vec, ra float64, b r2.Vec, rb float64) (normal r2.Vec, depth float64, hit bool) {
	d := r2.Sub(a, b)
	dist := r2.Norm(d)
	depth = ra + rb - dist
	if depth <= 0 {
		return r2.Vec{}, 0, false
	}
	if dist < 1e-9 {
		return r2.Vec{X: 0, Y: -1}, depth, true
	}
	return r2.Scale(1/dist, d), depth, true
}

// circleRect tests a circle against a rotated rectangle. The normal points from the rectangle toward the circle.
func circleRect(c r2.Vec, radius float64, center r2.Vec, halfW, halfH, angle float64) (normal r2.Vec, depth float64, hit bool) {
	local := rotate(r2.Sub(c, center), -angle)

	closest := r2.Vec{
		X: clampFloat(local.X, -halfW, halfW),
		Y: clampFloat(local.Y, -halfH, halfH),
	}
	inside := closest == local

	var n r2.Vec
	if inside {
		// Push out through the nearest face.
		dx := halfW - math.Abs(local.X)
		dy := halfH - math.Abs(local.Y)
		if dx < dy {
			n = r2.Vec{X: math.Copysign(1, local.X)}
			depth = dx + radius
		} else {
			n = r2.Vec{Y: math.Copysign(1, local.Y)}
			depth = dy + radius
		}
	} else {
		d := r2.Sub(local, closest)
		dist := r2.Norm(d)
		if dist >= radius {
			return r2.Vec{}, 0, false
		}
		n = r2.Scale(1/dist, d)
		depth = radius - dist
	}
	return rotate(n, angle), depth, true
}

// rectAABB returns the axis-aligned bounds of a rotated rectangle.
func rectAABB(center r2.Vec, halfW, halfH, angle float64) (lo, hi r2.Vec) {
	c, s := math.Abs(math.Cos(angle)), math.Abs(math.Sin(angle))
	ex := halfW*c + halfH*s
	ey := halfW*s + halfH*c
	return r2.Vec{X: center.X - ex, Y: center.Y - ey}, r2.Vec{X: center.X + ex, Y: center.Y + ey}
}

// circleInBox reports whether a circle lies entirely inside an axis-aligned box.
func circleInBox(c r2.Vec, radius float64, lo, hi r2.Vec) bool {
	return c.X-radius >= lo.X && c.X+radius <= hi.X && c.Y-radius >= lo.Y && c.Y+radius <= hi.Y
}
