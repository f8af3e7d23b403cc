package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reachwell/reachwell/internal/calibration"
)

func TestTargetYEndpoints(t *testing.T) {
	rom := calibration.ROM{
		NeutralY:       0.80,
		MaxReachLeftY:  0.20,
		MaxReachRightY: 0.20,
	}
	span := rom.MaxReachLeftY - rom.NeutralY // -0.60

	// level 1 sits at 15% of the span, the top level at 65%
	assert.InDelta(t, rom.NeutralY+0.15*span, TargetY(rom, 1, 5), 1e-9)
	assert.InDelta(t, rom.NeutralY+0.65*span, TargetY(rom, 5, 5), 1e-9)

	// intermediate levels interpolate linearly
	assert.InDelta(t, rom.NeutralY+0.40*span, TargetY(rom, 3, 5), 1e-9)
}

func TestTargetYMonotonicInLevel(t *testing.T) {
	rom := calibration.ROM{NeutralY: 0.85, MaxReachLeftY: 0.25, MaxReachRightY: 0.30}
	prev := TargetY(rom, 1, 8)
	for level := 2; level <= 8; level++ {
		cur := TargetY(rom, level, 8)
		assert.Less(t, cur, prev, "level %d target should be higher on screen", level)
		prev = cur
	}
}

func TestTargetYUsesWeakerArmCeiling(t *testing.T) {
	rom := calibration.ROM{NeutralY: 0.80, MaxReachLeftY: 0.40, MaxReachRightY: 0.20}
	// the numerically smaller reach is the higher one; it sets the ceiling
	want := 0.80 + 0.65*(0.20-0.80)
	assert.InDelta(t, want, TargetY(rom, 5, 5), 1e-9)
}

func TestTargetYClampsLevel(t *testing.T) {
	rom := calibration.Default().ROM
	assert.Equal(t, TargetY(rom, 1, 5), TargetY(rom, 0, 5))
	assert.Equal(t, TargetY(rom, 1, 5), TargetY(rom, -3, 5))
	assert.Equal(t, TargetY(rom, 5, 5), TargetY(rom, 99, 5))
}

func TestTargetYSingleLevel(t *testing.T) {
	rom := calibration.ROM{NeutralY: 0.80, MaxReachLeftY: 0.30, MaxReachRightY: 0.30}
	// with one level only the base fraction applies
	assert.InDelta(t, 0.80+0.15*(0.30-0.80), TargetY(rom, 1, 1), 1e-9)
}
