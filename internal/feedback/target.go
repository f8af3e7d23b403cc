package feedback

import "github.com/reachwell/reachwell/internal/calibration"

// Target fractions of the calibrated span. Level 1 asks for a little more
// than neutral; the final level caps at 65% of the span. Full-range
// targets are deliberately never demanded.
const (
	targetBaseFrac = 0.15
	targetSpanFrac = 0.50
)

// TargetY interpolates the ROM target for a level. The span runs from the
// calibrated neutral height to the higher (numerically smaller) of the two
// per-hand maximum-reach Ys; both arms share that single ceiling.
func TargetY(rom calibration.ROM, level, totalLevels int) float64 {
	t := 0.0
	if totalLevels > 1 {
		if level < 1 {
			level = 1
		}
		if level > totalLevels {
			level = totalLevels
		}
		t = float64(level-1) / float64(totalLevels-1)
	}
	maxReachY := rom.MaxReachLeftY
	if rom.MaxReachRightY < maxReachY {
		maxReachY = rom.MaxReachRightY
	}
	frac := targetBaseFrac + targetSpanFrac*t
	return rom.NeutralY + frac*(maxReachY-rom.NeutralY)
}
