package pose

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDist(t *testing.T) {
	assert.InDelta(t, 0, Dist(Point{X: 0.5, Y: 0.5}, Point{X: 0.5, Y: 0.5}), 1e-9)
	assert.InDelta(t, 5, Dist(Point{X: 0, Y: 0}, Point{X: 3, Y: 4}), 1e-9)
	assert.InDelta(t, 0.1, Dist(Point{X: 0.2, Y: 0.7}, Point{X: 0.2, Y: 0.8}), 1e-9)
}

func TestAngleDeg(t *testing.T) {
	origin := Point{X: 0.5, Y: 0.5}

	// right angle
	a := Point{X: 0.5, Y: 0.2}
	c := Point{X: 0.8, Y: 0.5}
	assert.InDelta(t, 90, AngleDeg(a, origin, c), 1e-6)

	// straight line through the vertex
	assert.InDelta(t, 180, AngleDeg(Point{X: 0.2, Y: 0.5}, origin, Point{X: 0.8, Y: 0.5}), 1e-6)

	// zero angle, both segments coincident
	assert.InDelta(t, 0, AngleDeg(a, origin, a), 1e-6)

	// order of the outer points does not matter
	assert.InDelta(t, AngleDeg(a, origin, c), AngleDeg(c, origin, a), 1e-9)

	// reflex configurations fold back under 180
	d := Point{X: 0.4, Y: 0.8}
	got := AngleDeg(a, origin, d)
	assert.LessOrEqual(t, got, 180.0)
	assert.GreaterOrEqual(t, got, 0.0)
}

func TestNormalise(t *testing.T) {
	p := Point{X: 0.2, Y: 0.7, Visibility: 0.9}

	same := Normalise(p, false)
	assert.Equal(t, p, same)

	flipped := Normalise(p, true)
	assert.InDelta(t, 0.8, flipped.X, 1e-9)
	assert.InDelta(t, 0.7, flipped.Y, 1e-9)
	assert.InDelta(t, 0.9, flipped.Visibility, 1e-9)

	// out-of-range coordinates clamp
	clamped := Normalise(Point{X: -0.25, Y: 1.5}, false)
	assert.Equal(t, 0.0, clamped.X)
	assert.Equal(t, 1.0, clamped.Y)
}

func TestFrameAccessors(t *testing.T) {
	f := NewFrame()
	assert.Len(t, f.Landmarks, NumLandmarks)

	_, ok := f.At(LeftWrist)
	assert.False(t, ok)
	assert.False(t, f.Has(LeftWrist, RightWrist))

	f.Set(LeftWrist, Point{X: 0.3, Y: 0.4, Visibility: 0.8})
	p, ok := f.At(LeftWrist)
	assert.True(t, ok)
	assert.Equal(t, 0.3, p.X)

	assert.True(t, f.Visible(LeftWrist, 0.5))
	assert.False(t, f.Visible(LeftWrist, 0.9))

	// out-of-range indices are simply not detected
	_, ok = f.At(-1)
	assert.False(t, ok)
	_, ok = f.At(NumLandmarks + 5)
	assert.False(t, ok)

	var nilFrame *Frame
	_, ok = nilFrame.At(Nose)
	assert.False(t, ok)
}
