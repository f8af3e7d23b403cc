package pose

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSmootherSeedsOnFirstObservation(t *testing.T) {
	s := NewSmoother(0.35)

	_, seeded := s.Value()
	assert.False(t, seeded)

	got := s.Update(Point{X: 0.4, Y: 0.6, Visibility: 0.9})
	assert.Equal(t, 0.4, got.X)
	assert.Equal(t, 0.6, got.Y)
	assert.Equal(t, 0.9, got.Visibility)

	_, seeded = s.Value()
	assert.True(t, seeded)
}

func TestSmootherEMA(t *testing.T) {
	s := NewSmoother(0.5)
	s.Update(Point{X: 0, Y: 0})

	got := s.Update(Point{X: 1, Y: 0.2})
	assert.InDelta(t, 0.5, got.X, 1e-9)
	assert.InDelta(t, 0.1, got.Y, 1e-9)

	got = s.Update(Point{X: 1, Y: 0.2})
	assert.InDelta(t, 0.75, got.X, 1e-9)
	assert.InDelta(t, 0.15, got.Y, 1e-9)
}

func TestSmootherConvergesToConstantInput(t *testing.T) {
	s := NewSmoother(0.35)
	target := Point{X: 0.3, Y: 0.7}
	s.Update(Point{X: 0.9, Y: 0.1})
	var got Point
	for i := 0; i < 50; i++ {
		got = s.Update(target)
	}
	assert.InDelta(t, target.X, got.X, 1e-4)
	assert.InDelta(t, target.Y, got.Y, 1e-4)
}

func TestSmootherBadAlphaFallsBack(t *testing.T) {
	for _, alpha := range []float64{0, -1, 1.5} {
		s := NewSmoother(alpha)
		assert.Equal(t, DefaultSmoothingAlpha, s.alpha, "alpha %v", alpha)
	}
	// alpha of exactly 1 tracks the input with no smoothing
	s := NewSmoother(1)
	s.Update(Point{X: 0.1, Y: 0.1})
	got := s.Update(Point{X: 0.8, Y: 0.3})
	assert.InDelta(t, 0.8, got.X, 1e-9)
}

func TestSmootherReset(t *testing.T) {
	s := NewSmoother(0.35)
	s.Update(Point{X: 0.5, Y: 0.5})
	s.Reset()

	_, seeded := s.Value()
	assert.False(t, seeded)

	got := s.Update(Point{X: 0.2, Y: 0.9})
	assert.Equal(t, 0.2, got.X)
	assert.Equal(t, 0.9, got.Y)
}
