// Package pose owns the landmark data model shared by the calibration
// ladder and the feedback classifier.
//
// A Frame is one inference result from the external pose model: up to 33
// body landmarks in normalised [0,1] screen-space coordinates. Frames are
// consumed whole by a single per-frame update and never retained, except
// for smoothed copies kept as component state.
package pose

// Canonical body-pose landmark indices. The numbering follows the fixed
// 33-point convention used by the upstream pose model.
const (
	Nose          = 0
	LeftShoulder  = 11
	RightShoulder = 12
	LeftElbow     = 13
	RightElbow    = 14
	LeftWrist     = 15
	RightWrist    = 16
	LeftHip       = 23
	RightHip      = 24
	LeftKnee      = 25
	RightKnee     = 26
	LeftAnkle     = 27
	RightAnkle    = 28

	// NumLandmarks is the size of a full landmark set.
	NumLandmarks = 33
)

// Point is a single detected landmark in normalised screen space.
// X and Y are in [0,1]; Visibility is the model's confidence in [0,1].
type Point struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"`
}

// Frame is one landmark set from the pose model. Entries are nil when the
// corresponding body part was not detected this frame.
type Frame struct {
	Landmarks []*Point `json:"landmarks"`
}

// At returns the landmark at index i and whether it was detected.
func (f *Frame) At(i int) (Point, bool) {
	if f == nil || i < 0 || i >= len(f.Landmarks) || f.Landmarks[i] == nil {
		return Point{}, false
	}
	return *f.Landmarks[i], true
}

// Has reports whether every given index was detected this frame.
func (f *Frame) Has(indices ...int) bool {
	for _, i := range indices {
		if _, ok := f.At(i); !ok {
			return false
		}
	}
	return true
}

// Visible reports whether the landmark at index i was detected with at
// least the given visibility confidence.
func (f *Frame) Visible(i int, minVisibility float64) bool {
	p, ok := f.At(i)
	return ok && p.Visibility >= minVisibility
}

// NewFrame returns a Frame with a full-size landmark slice, all undetected.
func NewFrame() *Frame {
	return &Frame{Landmarks: make([]*Point, NumLandmarks)}
}

// Set places a landmark at index i, growing the slice if needed.
func (f *Frame) Set(i int, p Point) {
	for len(f.Landmarks) <= i {
		f.Landmarks = append(f.Landmarks, nil)
	}
	q := p
	f.Landmarks[i] = &q
}
