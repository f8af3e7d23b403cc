// Package feedback implements the phase-aware coaching classifier: given
// a live landmark frame, the active exercise, the persisted calibration
// and the current rep phase, it selects at most one short message per
// frame through an ordered rule cascade, then rate-limits what actually
// reaches the display.
package feedback

import (
	"sync"
	"time"

	"github.com/reachwell/reachwell/internal/calibration"
	"github.com/reachwell/reachwell/internal/pose"
	"github.com/reachwell/reachwell/internal/timeutil"
)

// Exercise selects which rule cascade runs.
type Exercise string

const (
	ShoulderAbduction Exercise = "shoulder_abduction"
	KneeRaise         Exercise = "knee_raise"
	ForwardReach      Exercise = "forward_reach"
	Squat             Exercise = "squat"
)

// Phase is the rep-level state for two-phase exercises, controlled by the
// exercise-flow collaborator. It is distinct from the calibration step.
type Phase string

const (
	PhaseUp       Phase = "up"
	PhaseWaitDown Phase = "waitDown"
)

// Config holds the classifier thresholds supplied at session start.
type Config struct {
	Level       int
	TotalLevels int

	ElbowStraightDeg  float64 // elbow angle below this counts as bent
	AngleToleranceDeg float64 // slack subtracted from angle thresholds

	ShoulderLevelTolerance float64
	UpTolerance            float64 // added to targetY for the raise check
	DownBuffer             float64 // added to neutralY for the lower check
	KneeLiftDelta          float64
	KneeAlignTolerance     float64
	ReachMinDist           float64

	RequireDownFrames int
	RequireUpFrames   int
	MinVisibility     float64

	Cooldown   time.Duration // minimum gap between rendered messages
	ClearAfter time.Duration // displayed text auto-clears after this
}

// DefaultConfig returns classifier thresholds tuned for a full-body view.
func DefaultConfig() Config {
	return Config{
		Level:                  1,
		TotalLevels:            5,
		ElbowStraightDeg:       160,
		AngleToleranceDeg:      10,
		ShoulderLevelTolerance: 0.05,
		UpTolerance:            0.02,
		DownBuffer:             0.05,
		KneeLiftDelta:          0.08,
		KneeAlignTolerance:     0.05,
		ReachMinDist:           0.25,
		RequireDownFrames:      5,
		RequireUpFrames:        5,
		MinVisibility:          0.5,
		Cooldown:               500 * time.Millisecond,
		ClearAfter:             1500 * time.Millisecond,
	}
}

// Status is the per-frame classifier output. Message carries the cascade
// selection for this frame; Shown reports whether the rate limiter let it
// through to the display.
type Status struct {
	Exercise Exercise `json:"exercise"`
	Phase    Phase    `json:"phase"`
	Level    int      `json:"level"`
	TargetY  float64  `json:"targetY"`
	Message  string   `json:"message,omitempty"`
	Severity Severity `json:"severity,omitempty"`
	Shown    bool     `json:"shown"`
}

// Session is one exercise run. Update is driven by the frame loop and is
// not safe for concurrent use; Displayed may be read from other
// goroutines (the auto-clear timer fires on one).
type Session struct {
	cfg      Config
	exercise Exercise
	cal      calibration.Record
	rules    []Rule
	clock    timeutil.Clock

	phase      Phase
	downStreak int
	upStreak   int
	targetY    float64

	lastShown time.Time
	hasShown  bool

	mu                sync.Mutex
	displayed         string
	displayedSeverity Severity
	clearTimer        timeutil.Timer
}

// NewSession starts an exercise run against a calibration record. A zero
// record (no prior calibration) falls back to conservative defaults
// rather than failing; exercising uncalibrated is a supported mode.
func NewSession(exercise Exercise, cfg Config, cal calibration.Record, clock timeutil.Clock) *Session {
	if cal.Version == "" {
		cal = calibration.Default()
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	s := &Session{
		cfg:      cfg,
		exercise: exercise,
		cal:      cal,
		rules:    rulesFor(exercise),
		clock:    clock,
		phase:    PhaseUp,
	}
	s.targetY = TargetY(cal.ROM, cfg.Level, cfg.TotalLevels)
	return s
}

// SetPhase switches the rep phase and zeroes both debounce counters.
func (s *Session) SetPhase(p Phase) {
	if p != s.phase {
		s.phase = p
		s.downStreak = 0
		s.upStreak = 0
	}
}

// Phase returns the current rep phase.
func (s *Session) Phase() Phase { return s.phase }

// SetLevel changes the difficulty level and recomputes the ROM target.
func (s *Session) SetLevel(level int) {
	s.cfg.Level = level
	s.targetY = TargetY(s.cal.ROM, level, s.cfg.TotalLevels)
	s.downStreak = 0
	s.upStreak = 0
}

// TargetY returns the current interpolated ROM target.
func (s *Session) TargetY() float64 { return s.targetY }

// Update runs the rule cascade for one frame and applies rate limiting.
func (s *Session) Update(frame *pose.Frame, mirror bool) Status {
	v := &frameView{
		frame:    frame,
		mirror:   mirror,
		cfg:      s.cfg,
		s:        s,
		targetY:  s.targetY,
		neutralY: s.cal.ROM.NeutralY,
	}

	var msg Message
	for _, rule := range s.rules {
		if m, ok := rule.Eval(v); ok {
			msg = m
			break
		}
	}

	st := Status{
		Exercise: s.exercise,
		Phase:    s.phase,
		Level:    s.cfg.Level,
		TargetY:  s.targetY,
		Message:  msg.Text,
		Severity: msg.Severity,
	}

	if msg.Text == "" {
		return st
	}
	if s.hasShown && s.clock.Since(s.lastShown) < s.cfg.Cooldown {
		return st
	}
	s.lastShown = s.clock.Now()
	s.hasShown = true
	st.Shown = true
	s.show(msg)
	return st
}

// show replaces the displayed message and re-arms the auto-clear timer.
// Each set gets an independent timer; a superseded timer is stopped so it
// cannot clear newer text.
func (s *Session) show(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clearTimer != nil {
		s.clearTimer.Stop()
	}
	s.displayed = msg.Text
	s.displayedSeverity = msg.Severity
	shown := msg.Text
	s.clearTimer = s.clock.AfterFunc(s.cfg.ClearAfter, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.displayed == shown {
			s.displayed = ""
			s.displayedSeverity = ""
		}
	})
}

// Displayed returns the text currently on screen and its severity.
// Empty text means the display has been cleared.
func (s *Session) Displayed() (string, Severity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayed, s.displayedSeverity
}

// Close stops any pending auto-clear timer.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clearTimer != nil {
		s.clearTimer.Stop()
		s.clearTimer = nil
	}
}
