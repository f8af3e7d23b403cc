// Package ladder implements the auto-calibration ladder: a stepwise state
// machine that watches the landmark stream for a hand held steadily on a
// virtual grid rung and records the result as the user's reachable range
// for each arm. Detection is purely motion-based; the user never confirms
// anything explicitly.
package ladder

import (
	"time"

	"github.com/reachwell/reachwell/internal/calibration"
	"github.com/reachwell/reachwell/internal/pose"
)

// Side identifies one arm.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

func (s Side) index() int {
	if s == Right {
		return 1
	}
	return 0
}

// Step is the calibration progression: which hand's result is still
// outstanding. There is no transition back from right to left.
type Step string

const (
	StepLeft  Step = "left"
	StepRight Step = "right"
	StepDone  Step = "done"
)

// Config holds the immutable ladder parameters chosen at calibration
// start. Y coordinates are normalised screen space (smaller is higher);
// rungs are indexed 1..RungCount from bottom to top.
type Config struct {
	RungCount int     // number of rungs
	TopY      float64 // y of the highest rung
	BottomY   float64 // y of the lowest rung
	LeftX     float64 // lane x for the left hand
	RightX    float64 // lane x for the right hand
	HitRadius float64 // max distance from a rung to count as on it

	HoldSeconds    float64 // required accumulated hold time
	SteadyFrames   int     // consecutive steady frames before the hold timer arms
	MaxSpeedPerSec float64 // raw-motion speed ceiling for a frame to count as steady
	MinVisibility  float64 // landmark confidence floor
	RequireHips    bool    // whether hip visibility is mandatory each frame

	SmoothingAlpha float64 // EMA weight for hand position smoothing
}

// DefaultConfig returns ladder parameters suitable for a standing adult
// roughly filling the frame.
func DefaultConfig() Config {
	return Config{
		RungCount:      8,
		TopY:           0.12,
		BottomY:        0.85,
		LeftX:          0.30,
		RightX:         0.70,
		HitRadius:      0.06,
		HoldSeconds:    5,
		SteadyFrames:   6,
		MaxSpeedPerSec: 0.25,
		MinVisibility:  0.5,
		RequireHips:    true,
		SmoothingAlpha: pose.DefaultSmoothingAlpha,
	}
}

// RungY returns the y coordinate of rung i (1-based, bottom to top).
func (c Config) RungY(i int) float64 {
	if c.RungCount <= 1 {
		return c.BottomY
	}
	step := (c.TopY - c.BottomY) / float64(c.RungCount-1)
	return c.BottomY + float64(i-1)*step
}

// NearestRung returns the rung whose y is closest to y.
func (c Config) NearestRung(y float64) int {
	best, bestDist := 1, -1.0
	for i := 1; i <= c.RungCount; i++ {
		d := y - c.RungY(i)
		if d < 0 {
			d = -d
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// laneX returns the lane x position for a hand.
func (c Config) laneX(side Side) float64 {
	if side == Right {
		return c.RightX
	}
	return c.LeftX
}

// Status is the per-frame derived output handed to the rendering
// collaborator. Rung indices are 1-based; 0 means none.
type Status struct {
	Step             Step    `json:"step"`
	Side             Side    `json:"side,omitempty"` // hand being calibrated; empty once done
	Saved            bool    `json:"saved"`          // a rung was saved this frame
	Progress         float64 `json:"progress"`       // hold progress in [0,1]
	CountdownSeconds float64 `json:"countdownSeconds"`

	LeftActive  int `json:"leftActive"`
	RightActive int `json:"rightActive"`
	LeftSaved   int `json:"leftSaved"`
	RightSaved  int `json:"rightSaved"`

	// Best reach seen so far, mapped to the nearest rung, for display.
	LeftMaxReach  int `json:"leftMaxReach"`
	RightMaxReach int `json:"rightMaxReach"`
}

// Session is one calibration attempt. It is mutated only by Update and is
// not safe for concurrent use; the frame loop owns it exclusively.
type Session struct {
	cfg    Config
	mirror bool

	step Step

	smoothed [2]*pose.Smoother
	lastRaw  [2]pose.Point
	hasRaw   [2]bool
	lastTick time.Time

	candidate int // rung accumulating steadiness, 0 none
	steady    int // consecutive steady frames
	held      float64
	saved     [2]int // saved rung per hand, 0 none

	rom *romStats
}

// NewSession starts a calibration attempt. The mirror flag records whether
// the presentation flips the horizontal axis; hand coordinates are
// un-mirrored before any geometry runs.
func NewSession(cfg Config, mirror bool) *Session {
	return &Session{
		cfg:    cfg,
		mirror: mirror,
		step:   StepLeft,
		smoothed: [2]*pose.Smoother{
			pose.NewSmoother(cfg.SmoothingAlpha),
			pose.NewSmoother(cfg.SmoothingAlpha),
		},
		rom: newROMStats(),
	}
}

// Step returns the current calibration step.
func (s *Session) Step() Step { return s.step }

// Done reports whether both hands have been calibrated.
func (s *Session) Done() bool { return s.step == StepDone }

// Config returns the ladder geometry in use.
func (s *Session) Config() Config { return s.cfg }

// activeSide returns the hand currently being calibrated.
func (s *Session) activeSide() Side {
	if s.step == StepRight {
		return Right
	}
	return Left
}

// resetProgress clears the steadiness counter and hold accumulator.
// Step and saved rungs are always preserved: transient tracking loss must
// never corrupt or abort completed work.
func (s *Session) resetProgress() {
	s.candidate = 0
	s.steady = 0
	s.held = 0
}

// Update consumes one landmark frame. It never fails: every precondition
// violation degrades to zero progress with the step unchanged.
func (s *Session) Update(frame *pose.Frame, now time.Time) Status {
	dt := 0.0
	if !s.lastTick.IsZero() {
		dt = now.Sub(s.lastTick).Seconds()
	}
	s.lastTick = now

	// ROM evidence accrues on every frame that offers it, independent of
	// hit/miss and of the progress preconditions below.
	s.sampleROM(frame)

	if s.step == StepDone {
		return s.status(false)
	}

	lw, lok := frame.At(pose.LeftWrist)
	rw, rok := frame.At(pose.RightWrist)
	if !lok || !rok {
		s.resetProgress()
		s.hasRaw = [2]bool{}
		return s.status(false)
	}
	if s.cfg.RequireHips && !s.hipsVisible(frame) {
		s.resetProgress()
		s.hasRaw = [2]bool{}
		return s.status(false)
	}

	left := pose.Normalise(lw, s.mirror)
	right := pose.Normalise(rw, s.mirror)
	hands := [2]pose.Point{left, right}

	side := s.activeSide()
	if hands[side.index()].Visibility < s.cfg.MinVisibility {
		s.resetProgress()
		s.hasRaw = [2]bool{}
		return s.status(false)
	}

	// Smoothed positions feed the hit-test; the raw delta feeds the speed
	// gate so the EMA's lag cannot mask real jitter.
	var smoothedPts [2]pose.Point
	for i := range hands {
		smoothedPts[i] = s.smoothed[i].Update(hands[i])
	}

	speed := 0.0
	i := side.index()
	if s.hasRaw[i] && dt > 0 {
		speed = pose.Dist(hands[i], s.lastRaw[i]) / dt
	}
	s.lastRaw = hands
	s.hasRaw = [2]bool{true, true}

	active := s.hitTest(side, smoothedPts[i])

	if active != s.candidate {
		s.candidate = active
		s.steady = 0
		s.held = 0
	}
	if s.candidate == 0 {
		return s.status(false)
	}

	if speed > s.cfg.MaxSpeedPerSec {
		s.steady = 0
		s.held = 0
		return s.status(false)
	}

	// Frames spent reaching the steadiness threshold do not accrue hold
	// time; only frames after it do.
	if s.steady < s.cfg.SteadyFrames {
		s.steady++
		return s.status(false)
	}
	s.held += dt

	if s.held >= s.cfg.HoldSeconds {
		s.saved[i] = s.candidate
		s.resetProgress()
		if s.step == StepLeft {
			s.step = StepRight
		} else {
			s.step = StepDone
		}
		// The save frame reports the hand that was just calibrated, not
		// the hand the advanced step moves on to.
		st := s.status(true)
		st.Side = side
		return st
	}
	return s.status(false)
}

func (s *Session) hipsVisible(frame *pose.Frame) bool {
	return frame.Visible(pose.LeftHip, s.cfg.MinVisibility) &&
		frame.Visible(pose.RightHip, s.cfg.MinVisibility)
}

// hitTest returns the rung the hand is on in its lane, or 0 when it is
// farther than HitRadius from every rung.
func (s *Session) hitTest(side Side, hand pose.Point) int {
	rung := s.cfg.NearestRung(hand.Y)
	target := pose.Point{X: s.cfg.laneX(side), Y: s.cfg.RungY(rung)}
	if pose.Dist(hand, target) > s.cfg.HitRadius {
		return 0
	}
	return rung
}

// sampleROM folds whatever landmarks this frame offers into the running
// ROM statistics: the lower hip as a neutral-height sample and each
// visible wrist as reach evidence.
func (s *Session) sampleROM(frame *pose.Frame) {
	lh, lok := frame.At(pose.LeftHip)
	rh, rok := frame.At(pose.RightHip)
	if lok && rok && lh.Visibility >= s.cfg.MinVisibility && rh.Visibility >= s.cfg.MinVisibility {
		y := lh.Y
		if rh.Y > y {
			y = rh.Y
		}
		s.rom.sampleNeutral(pose.Clamp01(y))
	}
	if w, ok := frame.At(pose.LeftWrist); ok && w.Visibility >= s.cfg.MinVisibility {
		s.rom.observeHand(Left, pose.Normalise(w, s.mirror).Y)
	}
	if w, ok := frame.At(pose.RightWrist); ok && w.Visibility >= s.cfg.MinVisibility {
		s.rom.observeHand(Right, pose.Normalise(w, s.mirror).Y)
	}
}

// status derives the per-frame output snapshot.
func (s *Session) status(saved bool) Status {
	progress := 0.0
	if s.cfg.HoldSeconds > 0 {
		progress = s.held / s.cfg.HoldSeconds
	}
	if saved || progress > 1 {
		progress = 1
	}

	st := Status{
		Step:             s.step,
		Saved:            saved,
		Progress:         progress,
		CountdownSeconds: s.cfg.HoldSeconds * (1 - progress),
		LeftSaved:        s.saved[0],
		RightSaved:       s.saved[1],
	}
	if s.step != StepDone {
		st.Side = s.activeSide()
	}

	// Active rungs for both hands, for rendering continuity.
	if p, ok := s.smoothed[0].Value(); ok {
		st.LeftActive = s.hitTest(Left, p)
	}
	if p, ok := s.smoothed[1].Value(); ok {
		st.RightActive = s.hitTest(Right, p)
	}

	if s.rom.observed(Left) {
		st.LeftMaxReach = s.cfg.NearestRung(s.rom.reach(Left, s.cfg.BottomY))
	}
	if s.rom.observed(Right) {
		st.RightMaxReach = s.cfg.NearestRung(s.rom.reach(Right, s.cfg.BottomY))
	}
	return st
}

// Record builds the persistable calibration artifact from the session.
// It is normally called once the session is done, but an incomplete
// session yields a valid record with null indices.
func (s *Session) Record(now time.Time) calibration.Record {
	rec := calibration.Record{
		T:         now.UnixMilli(),
		Mirror:    s.mirror,
		Count:     s.cfg.RungCount,
		YTop:      s.cfg.TopY,
		YBottom:   s.cfg.BottomY,
		LeftX:     s.cfg.LeftX,
		RightX:    s.cfg.RightX,
		HitRadius: s.cfg.HitRadius,
		Version:   calibration.Version,
	}

	if s.saved[0] != 0 && s.saved[1] != 0 {
		l, r := s.saved[0], s.saved[1]
		rec.LeftIndex = &l
		rec.RightIndex = &r
		rec.LeftY = s.cfg.RungY(l)
		rec.RightY = s.cfg.RungY(r)
	}

	rec.ROM = calibration.ROM{
		NeutralY:       s.rom.neutralY(s.cfg.BottomY),
		MaxReachLeftY:  s.rom.reach(Left, s.cfg.BottomY),
		MaxReachRightY: s.rom.reach(Right, s.cfg.BottomY),
	}
	return rec
}
