package ladder

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// romStats accumulates range-of-motion evidence across a calibration
// session: a pool of neutral-height samples (hip level while standing)
// and the highest point each hand was ever seen at. Y is normalised
// screen space, so the per-hand extremum is a running minimum.
type romStats struct {
	neutralSamples []float64
	minY           [2]float64
	seen           [2]bool
}

func newROMStats() *romStats {
	return &romStats{minY: [2]float64{math.Inf(1), math.Inf(1)}}
}

// sampleNeutral records one hip-height observation. Callers pass the
// larger (lower on screen) of the two hip Ys so a tilted torso does not
// drag the baseline upward.
func (r *romStats) sampleNeutral(y float64) {
	r.neutralSamples = append(r.neutralSamples, y)
}

// observeHand folds a hand position into the per-hand reach extremum.
func (r *romStats) observeHand(side Side, y float64) {
	i := side.index()
	if y < r.minY[i] {
		r.minY[i] = y
	}
	r.seen[i] = true
}

// neutralY returns the mean of all neutral samples, or fallback when the
// hips were never observed.
func (r *romStats) neutralY(fallback float64) float64 {
	if len(r.neutralSamples) == 0 {
		return fallback
	}
	return stat.Mean(r.neutralSamples, nil)
}

// reach returns the highest observed Y for a hand, or fallback when the
// hand was never observed.
func (r *romStats) reach(side Side, fallback float64) float64 {
	i := side.index()
	if !r.seen[i] {
		return fallback
	}
	return r.minY[i]
}

// observed reports whether the hand has any reach evidence.
func (r *romStats) observed(side Side) bool {
	return r.seen[side.index()]
}
