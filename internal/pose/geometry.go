package pose

import "math"

// Dist returns the Euclidean distance between two points in normalised
// coordinate space.
func Dist(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// AngleDeg returns the angle at vertex b formed by the segments b-a and
// b-c, in degrees. The result is folded into [0, 180] so reflex angles
// report their interior equivalent.
func AngleDeg(a, b, c Point) float64 {
	rad := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)
	deg := math.Abs(rad * 180 / math.Pi)
	if deg > 180 {
		deg = 360 - deg
	}
	return deg
}

// Clamp01 clamps v into [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Normalise mirrors p horizontally when mirrored is set and clamps both
// coordinates into [0,1]. Visibility is passed through unchanged.
func Normalise(p Point, mirrored bool) Point {
	x := p.X
	if mirrored {
		x = 1 - x
	}
	return Point{X: Clamp01(x), Y: Clamp01(p.Y), Visibility: p.Visibility}
}
