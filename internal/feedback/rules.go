package feedback

import (
	"github.com/reachwell/reachwell/internal/pose"
)

// Severity tags a coaching message for the rendering collaborator.
type Severity string

const (
	SeverityWarning    Severity = "warning"
	SeverityCorrection Severity = "correction"
	SeveritySuccess    Severity = "success"
)

// Message is one selected coaching message. An empty Text means the
// cascade chose silence this frame.
type Message struct {
	Text     string   `json:"text"`
	Severity Severity `json:"severity"`
}

// Rule is one entry in an exercise's priority cascade. Eval returns the
// message to surface and whether the rule matched; evaluation stops at the
// first match.
type Rule struct {
	Name string
	Eval func(v *frameView) (Message, bool)
}

// frameView is the per-frame evaluation context handed to rules: the
// normalised frame plus the session thresholds and debounce counters.
type frameView struct {
	frame  *pose.Frame
	mirror bool
	cfg    Config
	s      *Session

	targetY  float64
	neutralY float64
}

// at returns landmark i mirrored and clamped.
func (v *frameView) at(i int) (pose.Point, bool) {
	p, ok := v.frame.At(i)
	if !ok {
		return pose.Point{}, false
	}
	return pose.Normalise(p, v.mirror), true
}

// visible reports whether every index meets the visibility floor.
func (v *frameView) visible(indices ...int) bool {
	for _, i := range indices {
		p, ok := v.frame.At(i)
		if !ok || p.Visibility < v.cfg.MinVisibility {
			return false
		}
	}
	return true
}

// rulesFor returns the ordered cascade for an exercise. Every cascade
// follows the same tiers: visibility warnings first, then gross posture,
// then joint angles, then exercise-specific position, then success.
func rulesFor(exercise Exercise) []Rule {
	switch exercise {
	case KneeRaise:
		return []Rule{
			{Name: "legs_visible", Eval: ruleLegsVisible},
			{Name: "shoulders_level", Eval: ruleShouldersLevel},
			{Name: "knee_lift", Eval: ruleKneeLift},
			{Name: "knee_over_ankle", Eval: ruleKneeOverAnkle},
			{Name: "success", Eval: ruleGenericSuccess},
		}
	case ForwardReach:
		return []Rule{
			{Name: "arms_visible", Eval: ruleArmsVisible},
			{Name: "shoulders_level", Eval: ruleShouldersLevel},
			{Name: "elbows_straight", Eval: ruleElbowsStraight},
			{Name: "reach_distance", Eval: ruleReachDistance},
			{Name: "success", Eval: ruleGenericSuccess},
		}
	case Squat:
		return []Rule{
			{Name: "legs_visible", Eval: ruleLegsVisible},
			{Name: "shoulders_level", Eval: ruleShouldersLevel},
			{Name: "knee_over_ankle", Eval: ruleKneeOverAnkle},
			{Name: "success", Eval: ruleGenericSuccess},
		}
	default: // ShoulderAbduction
		return []Rule{
			{Name: "arms_visible", Eval: ruleArmsVisible},
			{Name: "shoulders_level", Eval: ruleShouldersLevel},
			{Name: "elbows_straight", Eval: ruleElbowsStraight},
			{Name: "abduction_phase", Eval: ruleAbductionPhase},
		}
	}
}

func ruleArmsVisible(v *frameView) (Message, bool) {
	if v.visible(pose.LeftShoulder, pose.RightShoulder, pose.LeftWrist, pose.RightWrist) {
		return Message{}, false
	}
	return Message{Text: "Keep both arms visible to the camera", Severity: SeverityWarning}, true
}

func ruleLegsVisible(v *frameView) (Message, bool) {
	if v.visible(pose.LeftHip, pose.RightHip, pose.LeftKnee, pose.RightKnee, pose.LeftAnkle, pose.RightAnkle) {
		return Message{}, false
	}
	return Message{Text: "Keep your hips, knees and ankles visible", Severity: SeverityWarning}, true
}

// ruleShouldersLevel flags a tilted upper body. Shoulder Ys must agree
// within the configured tolerance.
func ruleShouldersLevel(v *frameView) (Message, bool) {
	l, lok := v.at(pose.LeftShoulder)
	r, rok := v.at(pose.RightShoulder)
	if !lok || !rok {
		return Message{}, false
	}
	diff := l.Y - r.Y
	if diff < 0 {
		diff = -diff
	}
	if diff <= v.cfg.ShoulderLevelTolerance {
		return Message{}, false
	}
	return Message{Text: "Keep your shoulders level", Severity: SeverityCorrection}, true
}

// ruleElbowsStraight checks the shoulder-elbow-wrist angle on each arm
// against the straightness threshold.
func ruleElbowsStraight(v *frameView) (Message, bool) {
	leftBent := elbowBent(v, pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist)
	rightBent := elbowBent(v, pose.RightShoulder, pose.RightElbow, pose.RightWrist)
	switch {
	case leftBent && rightBent:
		return Message{Text: "Straighten both arms", Severity: SeverityCorrection}, true
	case leftBent:
		return Message{Text: "Straighten your left arm", Severity: SeverityCorrection}, true
	case rightBent:
		return Message{Text: "Straighten your right arm", Severity: SeverityCorrection}, true
	}
	return Message{}, false
}

func elbowBent(v *frameView, shoulder, elbow, wrist int) bool {
	a, aok := v.at(shoulder)
	b, bok := v.at(elbow)
	c, cok := v.at(wrist)
	if !aok || !bok || !cok {
		return false
	}
	return pose.AngleDeg(a, b, c) < v.cfg.ElbowStraightDeg-v.cfg.AngleToleranceDeg
}

// ruleAbductionPhase implements the two-phase shoulder-abduction logic.
// Phase waitDown demands both wrists below the neutral line plus buffer
// for RequireDownFrames consecutive frames; phase up demands both wrists
// above the level target (within tolerance) for RequireUpFrames, with no
// partial credit on a momentary drop.
func ruleAbductionPhase(v *frameView) (Message, bool) {
	lw, lok := v.at(pose.LeftWrist)
	rw, rok := v.at(pose.RightWrist)
	if !lok || !rok {
		return Message{Text: "Keep both arms visible to the camera", Severity: SeverityWarning}, true
	}

	if v.s.phase == PhaseWaitDown {
		downLine := v.neutralY + v.cfg.DownBuffer
		leftDown := lw.Y > downLine
		rightDown := rw.Y > downLine
		switch {
		case !leftDown && !rightDown:
			v.s.downStreak = 0
			return Message{Text: "Lower both arms to your sides", Severity: SeverityCorrection}, true
		case !leftDown:
			v.s.downStreak = 0
			return Message{Text: "Lower your left arm", Severity: SeverityCorrection}, true
		case !rightDown:
			v.s.downStreak = 0
			return Message{Text: "Lower your right arm", Severity: SeverityCorrection}, true
		}
		v.s.downStreak++
		if v.s.downStreak >= v.cfg.RequireDownFrames {
			return Message{Text: "Reset complete. Raise your arms when ready", Severity: SeveritySuccess}, true
		}
		return Message{}, true
	}

	// Phase up. Above on screen means numerically smaller y.
	upLine := v.targetY + v.cfg.UpTolerance
	leftUp := lw.Y < upLine
	rightUp := rw.Y < upLine
	switch {
	case !leftUp && !rightUp:
		v.s.upStreak = 0
		return Message{Text: "Raise both arms higher", Severity: SeverityCorrection}, true
	case !leftUp:
		v.s.upStreak = 0
		return Message{Text: "Raise your left arm higher", Severity: SeverityCorrection}, true
	case !rightUp:
		v.s.upStreak = 0
		return Message{Text: "Raise your right arm higher", Severity: SeverityCorrection}, true
	}
	v.s.upStreak++
	if v.s.upStreak >= v.cfg.RequireUpFrames {
		return Message{Text: "Nice height! Hold it there", Severity: SeveritySuccess}, true
	}
	return Message{}, true
}

// ruleKneeLift requires at least one knee raised well above hip level.
func ruleKneeLift(v *frameView) (Message, bool) {
	lifted := kneeLifted(v, pose.LeftHip, pose.LeftKnee) || kneeLifted(v, pose.RightHip, pose.RightKnee)
	if lifted {
		return Message{}, false
	}
	return Message{Text: "Lift your knee higher", Severity: SeverityCorrection}, true
}

func kneeLifted(v *frameView, hip, knee int) bool {
	h, hok := v.at(hip)
	k, kok := v.at(knee)
	if !hok || !kok {
		return false
	}
	return k.Y < h.Y-v.cfg.KneeLiftDelta
}

// ruleKneeOverAnkle flags a knee drifting horizontally off its ankle,
// with an independent message per faulty side.
func ruleKneeOverAnkle(v *frameView) (Message, bool) {
	leftOff := kneeOffAnkle(v, pose.LeftKnee, pose.LeftAnkle)
	rightOff := kneeOffAnkle(v, pose.RightKnee, pose.RightAnkle)
	switch {
	case leftOff && rightOff:
		return Message{Text: "Keep your knees over your ankles", Severity: SeverityCorrection}, true
	case leftOff:
		return Message{Text: "Keep your left knee over your ankle", Severity: SeverityCorrection}, true
	case rightOff:
		return Message{Text: "Keep your right knee over your ankle", Severity: SeverityCorrection}, true
	}
	return Message{}, false
}

func kneeOffAnkle(v *frameView, knee, ankle int) bool {
	k, kok := v.at(knee)
	a, aok := v.at(ankle)
	if !kok || !aok {
		return false
	}
	dx := k.X - a.X
	if dx < 0 {
		dx = -dx
	}
	return dx > v.cfg.KneeAlignTolerance
}

// ruleReachDistance requires the leading wrist a minimum distance from
// its shoulder, per side.
func ruleReachDistance(v *frameView) (Message, bool) {
	leftShort := reachShort(v, pose.LeftShoulder, pose.LeftWrist)
	rightShort := reachShort(v, pose.RightShoulder, pose.RightWrist)
	switch {
	case leftShort && rightShort:
		return Message{Text: "Reach further forward", Severity: SeverityCorrection}, true
	case leftShort:
		return Message{Text: "Reach further with your left arm", Severity: SeverityCorrection}, true
	case rightShort:
		return Message{Text: "Reach further with your right arm", Severity: SeverityCorrection}, true
	}
	return Message{}, false
}

func reachShort(v *frameView, shoulder, wrist int) bool {
	s, sok := v.at(shoulder)
	w, wok := v.at(wrist)
	if !sok || !wok {
		return false
	}
	return pose.Dist(s, w) < v.cfg.ReachMinDist
}

func ruleGenericSuccess(v *frameView) (Message, bool) {
	return Message{Text: "Great form! Keep going", Severity: SeveritySuccess}, true
}
