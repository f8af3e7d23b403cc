// Package config loads the coaching tuning parameters. Fields are
// pointer-typed so a partial JSON file only overrides what it names; the
// Get accessors supply defaults for everything else, and the same schema
// serves startup configuration and runtime updates.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/reachwell/reachwell/internal/feedback"
	"github.com/reachwell/reachwell/internal/ladder"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/coach.defaults.json"

// CoachConfig is the root tuning configuration for both engines.
type CoachConfig struct {
	// Ladder params
	RungCount      *int     `json:"rung_count,omitempty"`
	LadderTopY     *float64 `json:"ladder_top_y,omitempty"`
	LadderBottomY  *float64 `json:"ladder_bottom_y,omitempty"`
	LeftLaneX      *float64 `json:"left_lane_x,omitempty"`
	RightLaneX     *float64 `json:"right_lane_x,omitempty"`
	HitRadius      *float64 `json:"hit_radius,omitempty"`
	HoldSeconds    *float64 `json:"hold_seconds,omitempty"`
	SteadyFrames   *int     `json:"steady_frames,omitempty"`
	MaxSpeedPerSec *float64 `json:"max_speed_per_sec,omitempty"`
	MinVisibility  *float64 `json:"min_visibility,omitempty"`
	RequireHips    *bool    `json:"require_hips,omitempty"`
	SmoothingAlpha *float64 `json:"smoothing_alpha,omitempty"`

	// Feedback params
	TotalLevels       *int     `json:"total_levels,omitempty"`
	ElbowStraightDeg  *float64 `json:"elbow_straight_deg,omitempty"`
	AngleToleranceDeg *float64 `json:"angle_tolerance_deg,omitempty"`
	DownBuffer        *float64 `json:"down_buffer,omitempty"`
	RequireDownFrames *int     `json:"require_down_frames,omitempty"`
	RequireUpFrames   *int     `json:"require_up_frames,omitempty"`
	Cooldown          *string  `json:"cooldown,omitempty"`    // duration string like "500ms"
	ClearAfter        *string  `json:"clear_after,omitempty"` // duration string like "1500ms"

	// Frame loop params
	TickInterval *string `json:"tick_interval,omitempty"` // duration string like "33ms"
}

// EmptyCoachConfig returns a CoachConfig with all fields unset.
// Use LoadCoachConfig to load actual values from the defaults file.
func EmptyCoachConfig() *CoachConfig {
	return &CoachConfig{}
}

// LoadCoachConfig loads a CoachConfig from a JSON file. Fields omitted
// from the file retain their defaults, so partial configs are safe.
func LoadCoachConfig(path string) (*CoachConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyCoachConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching upward from the working directory. Panics if the file cannot be
// loaded; intended for test setup.
func MustLoadDefaultConfig() *CoachConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadCoachConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are usable.
func (c *CoachConfig) Validate() error {
	if c.RungCount != nil && *c.RungCount < 2 {
		return fmt.Errorf("rung_count must be at least 2, got %d", *c.RungCount)
	}
	if c.MinVisibility != nil {
		if *c.MinVisibility < 0 || *c.MinVisibility > 1 {
			return fmt.Errorf("min_visibility must be between 0 and 1, got %f", *c.MinVisibility)
		}
	}
	if c.SmoothingAlpha != nil {
		if *c.SmoothingAlpha <= 0 || *c.SmoothingAlpha > 1 {
			return fmt.Errorf("smoothing_alpha must be in (0,1], got %f", *c.SmoothingAlpha)
		}
	}
	if c.HoldSeconds != nil && *c.HoldSeconds <= 0 {
		return fmt.Errorf("hold_seconds must be positive, got %f", *c.HoldSeconds)
	}
	if c.LadderTopY != nil && c.LadderBottomY != nil && *c.LadderTopY >= *c.LadderBottomY {
		return fmt.Errorf("ladder_top_y (%f) must be above ladder_bottom_y (%f) in screen space",
			*c.LadderTopY, *c.LadderBottomY)
	}
	for name, v := range map[string]*string{
		"cooldown":      c.Cooldown,
		"clear_after":   c.ClearAfter,
		"tick_interval": c.TickInterval,
	} {
		if v != nil && *v != "" {
			if _, err := time.ParseDuration(*v); err != nil {
				return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
			}
		}
	}
	return nil
}

// GetRungCount returns the rung_count value or the default.
func (c *CoachConfig) GetRungCount() int {
	if c.RungCount == nil {
		return 8
	}
	return *c.RungCount
}

// GetLadderTopY returns the ladder_top_y value or the default.
func (c *CoachConfig) GetLadderTopY() float64 {
	if c.LadderTopY == nil {
		return 0.12
	}
	return *c.LadderTopY
}

// GetLadderBottomY returns the ladder_bottom_y value or the default.
func (c *CoachConfig) GetLadderBottomY() float64 {
	if c.LadderBottomY == nil {
		return 0.85
	}
	return *c.LadderBottomY
}

// GetLeftLaneX returns the left_lane_x value or the default.
func (c *CoachConfig) GetLeftLaneX() float64 {
	if c.LeftLaneX == nil {
		return 0.30
	}
	return *c.LeftLaneX
}

// GetRightLaneX returns the right_lane_x value or the default.
func (c *CoachConfig) GetRightLaneX() float64 {
	if c.RightLaneX == nil {
		return 0.70
	}
	return *c.RightLaneX
}

// GetHitRadius returns the hit_radius value or the default.
func (c *CoachConfig) GetHitRadius() float64 {
	if c.HitRadius == nil {
		return 0.06
	}
	return *c.HitRadius
}

// GetHoldSeconds returns the hold_seconds value or the default.
func (c *CoachConfig) GetHoldSeconds() float64 {
	if c.HoldSeconds == nil {
		return 5
	}
	return *c.HoldSeconds
}

// GetSteadyFrames returns the steady_frames value or the default.
func (c *CoachConfig) GetSteadyFrames() int {
	if c.SteadyFrames == nil {
		return 6
	}
	return *c.SteadyFrames
}

// GetMaxSpeedPerSec returns the max_speed_per_sec value or the default.
func (c *CoachConfig) GetMaxSpeedPerSec() float64 {
	if c.MaxSpeedPerSec == nil {
		return 0.25
	}
	return *c.MaxSpeedPerSec
}

// GetMinVisibility returns the min_visibility value or the default.
func (c *CoachConfig) GetMinVisibility() float64 {
	if c.MinVisibility == nil {
		return 0.5
	}
	return *c.MinVisibility
}

// GetRequireHips returns the require_hips value or the default.
func (c *CoachConfig) GetRequireHips() bool {
	if c.RequireHips == nil {
		return true
	}
	return *c.RequireHips
}

// GetSmoothingAlpha returns the smoothing_alpha value or the default.
func (c *CoachConfig) GetSmoothingAlpha() float64 {
	if c.SmoothingAlpha == nil {
		return 0.35
	}
	return *c.SmoothingAlpha
}

// GetTotalLevels returns the total_levels value or the default.
func (c *CoachConfig) GetTotalLevels() int {
	if c.TotalLevels == nil {
		return 5
	}
	return *c.TotalLevels
}

// GetElbowStraightDeg returns the elbow_straight_deg value or the default.
func (c *CoachConfig) GetElbowStraightDeg() float64 {
	if c.ElbowStraightDeg == nil {
		return 160
	}
	return *c.ElbowStraightDeg
}

// GetAngleToleranceDeg returns the angle_tolerance_deg value or the default.
func (c *CoachConfig) GetAngleToleranceDeg() float64 {
	if c.AngleToleranceDeg == nil {
		return 10
	}
	return *c.AngleToleranceDeg
}

// GetDownBuffer returns the down_buffer value or the default.
func (c *CoachConfig) GetDownBuffer() float64 {
	if c.DownBuffer == nil {
		return 0.05
	}
	return *c.DownBuffer
}

// GetRequireDownFrames returns the require_down_frames value or the default.
func (c *CoachConfig) GetRequireDownFrames() int {
	if c.RequireDownFrames == nil {
		return 5
	}
	return *c.RequireDownFrames
}

// GetRequireUpFrames returns the require_up_frames value or the default.
func (c *CoachConfig) GetRequireUpFrames() int {
	if c.RequireUpFrames == nil {
		return 5
	}
	return *c.RequireUpFrames
}

// GetCooldown parses and returns the cooldown as a time.Duration.
func (c *CoachConfig) GetCooldown() time.Duration {
	if c.Cooldown == nil || *c.Cooldown == "" {
		return 500 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.Cooldown)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// GetClearAfter parses and returns the clear_after as a time.Duration.
func (c *CoachConfig) GetClearAfter() time.Duration {
	if c.ClearAfter == nil || *c.ClearAfter == "" {
		return 1500 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.ClearAfter)
	if err != nil {
		return 1500 * time.Millisecond
	}
	return d
}

// GetTickInterval parses and returns the tick_interval as a time.Duration.
func (c *CoachConfig) GetTickInterval() time.Duration {
	if c.TickInterval == nil || *c.TickInterval == "" {
		return 33 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.TickInterval)
	if err != nil {
		return 33 * time.Millisecond
	}
	return d
}

// LadderConfig builds the calibration ladder parameters from this config.
func (c *CoachConfig) LadderConfig() ladder.Config {
	return ladder.Config{
		RungCount:      c.GetRungCount(),
		TopY:           c.GetLadderTopY(),
		BottomY:        c.GetLadderBottomY(),
		LeftX:          c.GetLeftLaneX(),
		RightX:         c.GetRightLaneX(),
		HitRadius:      c.GetHitRadius(),
		HoldSeconds:    c.GetHoldSeconds(),
		SteadyFrames:   c.GetSteadyFrames(),
		MaxSpeedPerSec: c.GetMaxSpeedPerSec(),
		MinVisibility:  c.GetMinVisibility(),
		RequireHips:    c.GetRequireHips(),
		SmoothingAlpha: c.GetSmoothingAlpha(),
	}
}

// FeedbackConfig builds classifier parameters at the given level.
func (c *CoachConfig) FeedbackConfig(level int) feedback.Config {
	cfg := feedback.DefaultConfig()
	cfg.Level = level
	cfg.TotalLevels = c.GetTotalLevels()
	cfg.ElbowStraightDeg = c.GetElbowStraightDeg()
	cfg.AngleToleranceDeg = c.GetAngleToleranceDeg()
	cfg.DownBuffer = c.GetDownBuffer()
	cfg.RequireDownFrames = c.GetRequireDownFrames()
	cfg.RequireUpFrames = c.GetRequireUpFrames()
	cfg.MinVisibility = c.GetMinVisibility()
	cfg.Cooldown = c.GetCooldown()
	cfg.ClearAfter = c.GetClearAfter()
	return cfg
}
