// Package calibration defines the persisted per-user range-of-motion
// record produced by the calibration ladder and consumed by the feedback
// classifier.
package calibration

import (
	"errors"
	"fmt"
)

// Version is the schema tag written into every record. Bump when the
// wire shape changes; readers treat unknown versions as absent.
const Version = "1"

// ROM summarises the user's calibrated vertical range of motion.
// Y values are normalised screen coordinates, so smaller means higher.
type ROM struct {
	NeutralY       float64 `json:"neutralY"`
	MaxReachLeftY  float64 `json:"maxReachLeftY"`
	MaxReachRightY float64 `json:"maxReachRightY"`
}

// Record is the flat calibration artifact handed to persistence. Indices
// are 1-based rung numbers; a nil index means that hand was never saved.
type Record struct {
	T      int64 `json:"t"` // capture time, epoch millis
	Mirror bool  `json:"mirror"`

	// Ladder geometry at capture time.
	Count     int     `json:"count"`
	YTop      float64 `json:"yTop"`
	YBottom   float64 `json:"yBottom"`
	LeftX     float64 `json:"leftX"`
	RightX    float64 `json:"rightX"`
	HitRadius float64 `json:"hitRadius"`

	LeftIndex  *int    `json:"leftIndex"`
	RightIndex *int    `json:"rightIndex"`
	LeftY      float64 `json:"leftY"`
	RightY     float64 `json:"rightY"`

	ROM ROM `json:"rom"`

	Version string `json:"version"`
}

// Complete reports whether both hands were saved.
func (r *Record) Complete() bool {
	return r.LeftIndex != nil && r.RightIndex != nil
}

// Validate checks the record invariants: indices are either both set or
// both nil, and set indices fall inside the rung count.
func (r *Record) Validate() error {
	if (r.LeftIndex == nil) != (r.RightIndex == nil) {
		return errors.New("calibration: leftIndex and rightIndex must both be set or both be null")
	}
	if r.LeftIndex != nil {
		if *r.LeftIndex < 1 || *r.LeftIndex > r.Count {
			return fmt.Errorf("calibration: leftIndex %d outside rung range 1..%d", *r.LeftIndex, r.Count)
		}
		if *r.RightIndex < 1 || *r.RightIndex > r.Count {
			return fmt.Errorf("calibration: rightIndex %d outside rung range 1..%d", *r.RightIndex, r.Count)
		}
	}
	return nil
}

// Default returns the conservative built-in record used when no prior
// calibration exists. Exercising without a calibration is a supported,
// lower-quality mode; these values assume a standing adult roughly
// filling the frame.
func Default() Record {
	return Record{
		Count:     8,
		YTop:      0.12,
		YBottom:   0.85,
		LeftX:     0.30,
		RightX:    0.70,
		HitRadius: 0.06,
		ROM: ROM{
			NeutralY:       0.85,
			MaxReachLeftY:  0.30,
			MaxReachRightY: 0.30,
		},
		Version: Version,
	}
}
