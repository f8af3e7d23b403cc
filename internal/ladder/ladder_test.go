package ladder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reachwell/reachwell/internal/pose"
	"github.com/reachwell/reachwell/internal/testutil"
)

const frameDt = 100 * time.Millisecond

// testConfig keeps the default geometry but trims the hold so scenario
// loops stay short.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.HoldSeconds = 1
	cfg.SteadyFrames = 3
	return cfg
}

// holdFrame returns an upright frame with the given wrist pinned to a
// lane position.
func holdFrame(wrist int, x, y float64) *pose.Frame {
	f := testutil.UprightFrame()
	testutil.SetLandmark(f, wrist, x, y)
	return f
}

// runUntilSaved updates with the same frame until a rung saves or the
// frame budget runs out.
func runUntilSaved(t *testing.T, s *Session, f *pose.Frame, now *time.Time, maxFrames int) Status {
	t.Helper()
	for i := 0; i < maxFrames; i++ {
		*now = now.Add(frameDt)
		st := s.Update(f, *now)
		if st.Saved {
			return st
		}
	}
	t.Fatalf("no rung saved within %d frames", maxFrames)
	return Status{}
}

func TestRungGeometry(t *testing.T) {
	cfg := DefaultConfig()

	assert.InDelta(t, cfg.BottomY, cfg.RungY(1), 1e-9)
	assert.InDelta(t, cfg.TopY, cfg.RungY(cfg.RungCount), 1e-9)

	// rungs are evenly spaced and ascend (smaller y) with index
	for i := 2; i <= cfg.RungCount; i++ {
		assert.Less(t, cfg.RungY(i), cfg.RungY(i-1))
	}

	for i := 1; i <= cfg.RungCount; i++ {
		assert.Equal(t, i, cfg.NearestRung(cfg.RungY(i)))
	}
}

func TestSteadyHoldSavesRung(t *testing.T) {
	cfg := testConfig()
	s := NewSession(cfg, false)
	now := time.Now()

	f := holdFrame(pose.LeftWrist, cfg.LeftX, cfg.RungY(5))
	st := runUntilSaved(t, s, f, &now, 60)

	assert.True(t, st.Saved)
	assert.Equal(t, 5, st.LeftSaved)
	assert.Equal(t, Left, st.Side, "the save frame reports the hand just calibrated")
	assert.InDelta(t, 1.0, st.Progress, 1e-9)
	assert.Equal(t, StepRight, s.Step())
}

func TestHoldRequiresSteadyFramesFirst(t *testing.T) {
	cfg := testConfig()
	s := NewSession(cfg, false)
	now := time.Now()

	f := holdFrame(pose.LeftWrist, cfg.LeftX, cfg.RungY(4))

	// the first frames only build steadiness and accrue no hold time
	for i := 0; i < cfg.SteadyFrames; i++ {
		now = now.Add(frameDt)
		st := s.Update(f, now)
		assert.Zero(t, st.Progress, "frame %d accrued hold time early", i)
	}

	now = now.Add(frameDt)
	st := s.Update(f, now)
	assert.Greater(t, st.Progress, 0.0)
}

func TestMissedRungNeverAccrues(t *testing.T) {
	cfg := testConfig()
	s := NewSession(cfg, false)
	now := time.Now()

	// wrist centred between lanes, far from both
	f := holdFrame(pose.LeftWrist, 0.5, 0.5)
	for i := 0; i < 40; i++ {
		now = now.Add(frameDt)
		st := s.Update(f, now)
		assert.False(t, st.Saved)
		assert.Zero(t, st.Progress)
	}
	assert.Equal(t, StepLeft, s.Step())
}

func TestHipDropResetsProgressNotStep(t *testing.T) {
	cfg := testConfig()
	s := NewSession(cfg, false)
	now := time.Now()

	f := holdFrame(pose.LeftWrist, cfg.LeftX, cfg.RungY(5))

	// accrue partial hold
	for i := 0; i < cfg.SteadyFrames+4; i++ {
		now = now.Add(frameDt)
		s.Update(f, now)
	}

	// hips vanish for one frame
	noHips := holdFrame(pose.LeftWrist, cfg.LeftX, cfg.RungY(5))
	noHips.Landmarks[pose.LeftHip] = nil
	noHips.Landmarks[pose.RightHip] = nil
	now = now.Add(frameDt)
	st := s.Update(noHips, now)
	assert.Zero(t, st.Progress)
	assert.Equal(t, StepLeft, s.Step())

	// the hold restarts from scratch and still completes
	st = runUntilSaved(t, s, f, &now, 60)
	assert.Equal(t, 5, st.LeftSaved)
}

func TestFastMotionResetsHold(t *testing.T) {
	cfg := testConfig()
	s := NewSession(cfg, false)
	now := time.Now()

	y := cfg.RungY(5)
	f := holdFrame(pose.LeftWrist, cfg.LeftX, y)
	for i := 0; i < cfg.SteadyFrames+4; i++ {
		now = now.Add(frameDt)
		s.Update(f, now)
	}

	// jitter within the same rung's hit radius but above the speed gate
	jitter := holdFrame(pose.LeftWrist, cfg.LeftX, y+0.04)
	now = now.Add(frameDt)
	st := s.Update(jitter, now)
	assert.Zero(t, st.Progress)
	assert.Equal(t, StepLeft, s.Step())
}

func TestFullCalibrationFlow(t *testing.T) {
	cfg := testConfig()
	s := NewSession(cfg, false)
	now := time.Now()

	left := holdFrame(pose.LeftWrist, cfg.LeftX, cfg.RungY(5))
	st := runUntilSaved(t, s, left, &now, 60)
	require.Equal(t, 5, st.LeftSaved)
	require.Equal(t, Left, st.Side)
	require.Equal(t, StepRight, s.Step())

	right := holdFrame(pose.RightWrist, cfg.RightX, cfg.RungY(3))
	st = runUntilSaved(t, s, right, &now, 60)
	assert.Equal(t, 3, st.RightSaved)
	assert.Equal(t, Right, st.Side)
	assert.True(t, s.Done())

	// a done session ignores further frames and reports no active hand
	now = now.Add(frameDt)
	st = s.Update(left, now)
	assert.Equal(t, StepDone, s.Step())
	assert.False(t, st.Saved)
	assert.Empty(t, st.Side)

	rec := s.Record(now)
	require.NoError(t, rec.Validate())
	require.NotNil(t, rec.LeftIndex)
	require.NotNil(t, rec.RightIndex)
	assert.Equal(t, 5, *rec.LeftIndex)
	assert.Equal(t, 3, *rec.RightIndex)
	assert.InDelta(t, cfg.RungY(5), rec.LeftY, 1e-9)
	assert.InDelta(t, cfg.RungY(3), rec.RightY, 1e-9)
	assert.True(t, rec.Complete())
}

func TestIncompleteRecordHasNilIndices(t *testing.T) {
	cfg := testConfig()
	s := NewSession(cfg, false)
	now := time.Now()

	left := holdFrame(pose.LeftWrist, cfg.LeftX, cfg.RungY(6))
	runUntilSaved(t, s, left, &now, 60)

	rec := s.Record(now)
	require.NoError(t, rec.Validate())
	assert.Nil(t, rec.LeftIndex)
	assert.Nil(t, rec.RightIndex)
	assert.False(t, rec.Complete())
}

func TestMissingWristResetsProgress(t *testing.T) {
	cfg := testConfig()
	s := NewSession(cfg, false)
	now := time.Now()

	f := holdFrame(pose.LeftWrist, cfg.LeftX, cfg.RungY(5))
	for i := 0; i < cfg.SteadyFrames+4; i++ {
		now = now.Add(frameDt)
		s.Update(f, now)
	}

	gone := holdFrame(pose.LeftWrist, cfg.LeftX, cfg.RungY(5))
	gone.Landmarks[pose.RightWrist] = nil
	now = now.Add(frameDt)
	st := s.Update(gone, now)
	assert.Zero(t, st.Progress)
	assert.Equal(t, StepLeft, s.Step())
}

func TestROMEvidenceFeedsRecord(t *testing.T) {
	cfg := testConfig()
	s := NewSession(cfg, false)
	now := time.Now()

	// reach high with the left hand for several frames
	high := holdFrame(pose.LeftWrist, cfg.LeftX, 0.20)
	for i := 0; i < 10; i++ {
		now = now.Add(frameDt)
		s.Update(high, now)
	}

	rec := s.Record(now)
	assert.InDelta(t, 0.20, rec.ROM.MaxReachLeftY, 1e-9)
	// hips in the upright fixture sit at y=0.60
	assert.InDelta(t, 0.60, rec.ROM.NeutralY, 1e-9)
	// right hand never left the fixture's resting spot
	assert.InDelta(t, 0.62, rec.ROM.MaxReachRightY, 1e-9)
}

func TestMirrorFlipsLanes(t *testing.T) {
	cfg := testConfig()
	s := NewSession(cfg, true)
	now := time.Now()

	// in mirrored video the left lane appears at 1-LeftX
	f := holdFrame(pose.LeftWrist, 1-cfg.LeftX, cfg.RungY(5))
	st := runUntilSaved(t, s, f, &now, 60)
	assert.Equal(t, 5, st.LeftSaved)
}
