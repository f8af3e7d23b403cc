package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEmptyConfigUsesDefaults(t *testing.T) {
	cfg := EmptyCoachConfig()

	assert.Equal(t, 8, cfg.GetRungCount())
	assert.Equal(t, 0.12, cfg.GetLadderTopY())
	assert.Equal(t, 0.85, cfg.GetLadderBottomY())
	assert.Equal(t, 0.06, cfg.GetHitRadius())
	assert.Equal(t, 5.0, cfg.GetHoldSeconds())
	assert.Equal(t, 6, cfg.GetSteadyFrames())
	assert.True(t, cfg.GetRequireHips())
	assert.Equal(t, 500*time.Millisecond, cfg.GetCooldown())
	assert.Equal(t, 1500*time.Millisecond, cfg.GetClearAfter())
	assert.Equal(t, 33*time.Millisecond, cfg.GetTickInterval())
}

func TestPartialConfigOverridesOnlyNamedFields(t *testing.T) {
	path := writeConfig(t, "partial.json", `{"rung_count": 10, "cooldown": "250ms"}`)

	cfg, err := LoadCoachConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.GetRungCount())
	assert.Equal(t, 250*time.Millisecond, cfg.GetCooldown())
	// untouched fields keep their defaults
	assert.Equal(t, 0.85, cfg.GetLadderBottomY())
	assert.Equal(t, 5, cfg.GetTotalLevels())
}

func TestLoadRejectsNonJSONExtension(t *testing.T) {
	path := writeConfig(t, "coach.yaml", `rung_count: 10`)
	_, err := LoadCoachConfig(path)
	assert.Error(t, err)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := LoadCoachConfig(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"rung count too small", `{"rung_count": 1}`},
		{"visibility out of range", `{"min_visibility": 1.5}`},
		{"alpha out of range", `{"smoothing_alpha": 0}`},
		{"negative hold", `{"hold_seconds": -1}`},
		{"inverted ladder", `{"ladder_top_y": 0.9, "ladder_bottom_y": 0.2}`},
		{"bad duration", `{"cooldown": "half a second"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, "bad.json", tc.body)
			_, err := LoadCoachConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestBundledDefaultsFileMatchesAccessors(t *testing.T) {
	cfg := MustLoadDefaultConfig()

	// the checked-in defaults file must agree with the hardcoded fallbacks
	assert.Equal(t, EmptyCoachConfig().GetRungCount(), cfg.GetRungCount())
	assert.Equal(t, EmptyCoachConfig().GetHoldSeconds(), cfg.GetHoldSeconds())
	assert.Equal(t, EmptyCoachConfig().GetCooldown(), cfg.GetCooldown())
	assert.Equal(t, EmptyCoachConfig().GetTickInterval(), cfg.GetTickInterval())
	assert.Equal(t, EmptyCoachConfig().GetTotalLevels(), cfg.GetTotalLevels())
}

func TestLadderConfigBuilder(t *testing.T) {
	path := writeConfig(t, "ladder.json", `{"rung_count": 12, "hold_seconds": 3, "require_hips": false}`)
	cfg, err := LoadCoachConfig(path)
	require.NoError(t, err)

	lc := cfg.LadderConfig()
	assert.Equal(t, 12, lc.RungCount)
	assert.Equal(t, 3.0, lc.HoldSeconds)
	assert.False(t, lc.RequireHips)
	assert.Equal(t, 0.12, lc.TopY)
}

func TestFeedbackConfigBuilder(t *testing.T) {
	path := writeConfig(t, "feedback.json", `{"total_levels": 8, "require_up_frames": 3, "clear_after": "2s"}`)
	cfg, err := LoadCoachConfig(path)
	require.NoError(t, err)

	fc := cfg.FeedbackConfig(4)
	assert.Equal(t, 4, fc.Level)
	assert.Equal(t, 8, fc.TotalLevels)
	assert.Equal(t, 3, fc.RequireUpFrames)
	assert.Equal(t, 2*time.Second, fc.ClearAfter)
	assert.Equal(t, 160.0, fc.ElbowStraightDeg)
}
