// Package coach drives the calibration ladder and exercise feedback
// engines from a live landmark stream. The Runner owns session
// lifecycle, the frame-drop policy, and persistence of completed
// calibrations.
package coach

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reachwell/reachwell/internal/calibration"
	"github.com/reachwell/reachwell/internal/db"
	"github.com/reachwell/reachwell/internal/feedback"
	"github.com/reachwell/reachwell/internal/ladder"
	"github.com/reachwell/reachwell/internal/monitoring"
	"github.com/reachwell/reachwell/internal/pose"
	"github.com/reachwell/reachwell/internal/timeutil"
)

// Mode is the runner's current activity.
type Mode string

const (
	ModeIdle        Mode = "idle"
	ModeCalibrating Mode = "calibrating"
	ModeExercising  Mode = "exercising"
)

// Store is the persistence surface the runner needs. *db.CalibrationStore
// implements it; tests substitute a fake.
type Store interface {
	Write(rec calibration.Record, sessionID, userID string) error
	Load(scope string) (calibration.Record, error)
	RecordSession(sum db.SessionSummary) error
}

// Sample is one per-tick observation retained for session reports.
type Sample struct {
	T           time.Time `json:"t"`
	LeftWristY  float64   `json:"leftWristY"`
	RightWristY float64   `json:"rightWristY"`
	Progress    float64   `json:"progress"`
	TargetY     float64   `json:"targetY"`
	Message     string    `json:"message,omitempty"`
}

// maxSamples bounds per-session report history. At 15 frames/sec this
// covers roughly 20 minutes before the oldest half is dropped.
const maxSamples = 18000

// Status is the combined runner snapshot served to clients.
type Status struct {
	Mode      Mode             `json:"mode"`
	SessionID string           `json:"sessionId,omitempty"`
	UserID    string           `json:"userId,omitempty"`
	Ladder    *ladder.Status   `json:"ladder,omitempty"`
	Exercise  *feedback.Status `json:"exercise,omitempty"`
	Frames    int64            `json:"frames"`
}

// Runner processes frames for at most one active session. Frames arrive
// via Submit into a single-slot mailbox; each Tick drains the slot, so a
// slow tick drops stale frames instead of queueing them.
type Runner struct {
	cfg   RunnerConfig
	store Store
	clock timeutil.Clock

	mu        sync.Mutex
	mode      Mode
	sessionID string
	userID    string
	mirror    bool
	started   time.Time
	frames    int64
	shown     int64

	ladder    *ladder.Session
	exercise  *feedback.Session
	record    calibration.Record
	persisted bool // a completed ladder's write was already attempted

	pending *pose.Frame

	lastLadder   ladder.Status
	lastExercise feedback.Status

	samples []Sample
}

// RunnerConfig carries the engine configs the runner builds sessions from.
type RunnerConfig struct {
	Ladder       ladder.Config
	Feedback     func(level int) feedback.Config
	TickInterval time.Duration
}

// NewRunner creates an idle runner. clock may be nil for wall-clock time.
func NewRunner(cfg RunnerConfig, store Store, clock timeutil.Clock) *Runner {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if cfg.Feedback == nil {
		cfg.Feedback = func(level int) feedback.Config {
			c := feedback.DefaultConfig()
			c.Level = level
			return c
		}
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 66 * time.Millisecond
	}
	return &Runner{
		cfg:   cfg,
		store: store,
		clock: clock,
		mode:  ModeIdle,
	}
}

// StartCalibration begins a ladder session, ending any active session
// first. Returns the new session ID.
func (r *Runner) StartCalibration(userID string, mirror bool) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.finishLocked()
	r.sessionID = newSessionID()
	r.userID = userID
	r.mirror = mirror
	r.started = r.clock.Now()
	r.ladder = ladder.NewSession(r.cfg.Ladder, mirror)
	r.mode = ModeCalibrating
	monitoring.Logf("coach: calibration session %s started for user %s", r.sessionID, userID)
	return r.sessionID, nil
}

// StartExercise begins an exercise session against the user's stored
// calibration, ending any active session first. Falls back to the legacy
// record, then to conservative defaults, when no per-user record exists.
func (r *Runner) StartExercise(userID string, exercise feedback.Exercise, level int, mirror bool) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.store.Load(db.UserScope(userID))
	if err != nil {
		rec, err = r.store.Load(db.LegacyScope)
	}
	if err != nil {
		rec = calibration.Default()
		monitoring.Logf("coach: no calibration for user %s; using defaults", userID)
	}

	r.finishLocked()
	r.sessionID = newSessionID()
	r.userID = userID
	r.mirror = mirror
	r.started = r.clock.Now()
	r.record = rec
	r.exercise = feedback.NewSession(exercise, r.cfg.Feedback(level), rec, r.clock)
	r.mode = ModeExercising
	monitoring.Logf("coach: %s session %s started for user %s (level %d)", exercise, r.sessionID, userID, level)
	return r.sessionID, nil
}

// Submit hands the runner a frame. Only the newest unprocessed frame is
// kept; earlier unprocessed frames are overwritten.
func (r *Runner) Submit(frame *pose.Frame) {
	r.mu.Lock()
	r.pending = frame
	r.mu.Unlock()
}

// Tick processes the pending frame, if any, and returns the current
// snapshot. Safe to call with no frame pending.
func (r *Runner) Tick(now time.Time) Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	frame := r.pending
	r.pending = nil
	if frame == nil || r.mode == ModeIdle {
		return r.statusLocked()
	}
	r.frames++

	switch r.mode {
	case ModeCalibrating:
		st := r.ladder.Update(frame, now)
		r.lastLadder = st
		r.appendSample(frame, now, st.Progress, 0, "")
		if r.ladder.Done() && !r.persisted {
			r.persistLocked(now)
		}
	case ModeExercising:
		st := r.exercise.Update(frame, r.mirror)
		if st.Shown {
			r.shown++
		}
		r.lastExercise = st
		r.appendSample(frame, now, 0, st.TargetY, st.Message)
	}
	return r.statusLocked()
}

// persistLocked writes the completed ladder's record to every scope. The
// in-memory record stays authoritative for the rest of the session even
// when the write fails; the failure is logged once, not retried on every
// tick of the done ladder.
func (r *Runner) persistLocked(now time.Time) {
	rec := r.ladder.Record(now)
	r.record = rec
	r.persisted = true
	if err := r.store.Write(rec, r.sessionID, r.userID); err != nil {
		monitoring.Logf("coach: failed to persist calibration for session %s: %v", r.sessionID, err)
		return
	}
	monitoring.Logf("coach: calibration saved for user %s (session %s)", r.userID, r.sessionID)
}

// SetPhase forwards a rep-phase change to the active exercise session.
func (r *Runner) SetPhase(p feedback.Phase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode != ModeExercising {
		return fmt.Errorf("no exercise session active")
	}
	r.exercise.SetPhase(p)
	return nil
}

// SetLevel changes the active exercise's target level.
func (r *Runner) SetLevel(level int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode != ModeExercising {
		return fmt.Errorf("no exercise session active")
	}
	r.exercise.SetLevel(level)
	return nil
}

// Stop ends the active session, recording its summary.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finishLocked()
}

func (r *Runner) finishLocked() {
	if r.mode == ModeIdle {
		return
	}
	sum := db.SessionSummary{
		SessionID:     r.sessionID,
		UserID:        r.userID,
		Frames:        r.frames,
		MessagesShown: r.shown,
		Started:       r.started,
		Ended:         r.clock.Now(),
	}
	switch r.mode {
	case ModeCalibrating:
		sum.Kind = "calibration"
	case ModeExercising:
		sum.Kind = "exercise"
		sum.Exercise = string(r.lastExercise.Exercise)
		sum.Level = r.lastExercise.Level
	}
	if err := r.store.RecordSession(sum); err != nil {
		monitoring.Logf("coach: failed to record session %s: %v", r.sessionID, err)
	}
	if r.exercise != nil {
		r.exercise.Close()
	}
	r.mode = ModeIdle
	r.ladder = nil
	r.exercise = nil
	r.record = calibration.Record{}
	r.persisted = false
	r.frames = 0
	r.shown = 0
	r.lastLadder = ladder.Status{}
	r.lastExercise = feedback.Status{}
	r.samples = nil
	r.pending = nil
}

// Status returns the current snapshot without processing a frame.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statusLocked()
}

func (r *Runner) statusLocked() Status {
	st := Status{
		Mode:      r.mode,
		SessionID: r.sessionID,
		UserID:    r.userID,
		Frames:    r.frames,
	}
	switch r.mode {
	case ModeCalibrating:
		ls := r.lastLadder
		st.Ladder = &ls
	case ModeExercising:
		es := r.lastExercise
		es.Message, es.Severity = r.exercise.Displayed()
		st.Exercise = &es
	}
	return st
}

// Calibration returns the record backing the active exercise session, or
// the record produced by a completed calibration session.
func (r *Runner) Calibration() (calibration.Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.record, r.record.Version != ""
}

// Samples returns a copy of the session's retained report history.
func (r *Runner) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sample, len(r.samples))
	copy(out, r.samples)
	return out
}

func (r *Runner) appendSample(frame *pose.Frame, now time.Time, progress, targetY float64, msg string) {
	s := Sample{T: now, Progress: progress, TargetY: targetY, Message: msg}
	if p, ok := frame.At(pose.LeftWrist); ok {
		s.LeftWristY = p.Y
	}
	if p, ok := frame.At(pose.RightWrist); ok {
		s.RightWristY = p.Y
	}
	if len(r.samples) >= maxSamples {
		r.samples = append(r.samples[:0], r.samples[maxSamples/2:]...)
	}
	r.samples = append(r.samples, s)
}

// Run ticks the runner at the configured interval until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Tick(r.clock.Now())
		}
	}
}

func newSessionID() string {
	return "ses_" + uuid.New().String()
}
