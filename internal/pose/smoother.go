package pose

// Smoother applies an exponential moving average to a stream of 2D points.
// Alpha is the weight of the new observation; the first observation seeds
// the filter directly. Position smoothing keeps hit-tests from flickering
// between adjacent grid positions, so callers that need true motion speed
// must compute it from the raw stream, not the smoothed one.
type Smoother struct {
	alpha  float64
	x, y   float64
	seeded bool
}

// DefaultSmoothingAlpha is the EMA weight used for landmark smoothing.
const DefaultSmoothingAlpha = 0.35

// NewSmoother returns a Smoother with the given new-observation weight.
// Alpha outside (0,1] falls back to DefaultSmoothingAlpha.
func NewSmoother(alpha float64) *Smoother {
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultSmoothingAlpha
	}
	return &Smoother{alpha: alpha}
}

// Update folds p into the average and returns the smoothed point.
// Visibility is carried through from the raw point.
func (s *Smoother) Update(p Point) Point {
	if !s.seeded {
		s.x, s.y = p.X, p.Y
		s.seeded = true
	} else {
		s.x = (1-s.alpha)*s.x + s.alpha*p.X
		s.y = (1-s.alpha)*s.y + s.alpha*p.Y
	}
	return Point{X: s.x, Y: s.y, Visibility: p.Visibility}
}

// Value returns the current smoothed point and whether the filter has
// been seeded.
func (s *Smoother) Value() (Point, bool) {
	return Point{X: s.x, Y: s.y}, s.seeded
}

// Reset clears the filter so the next observation seeds it again.
func (s *Smoother) Reset() {
	s.seeded = false
	s.x, s.y = 0, 0
}
