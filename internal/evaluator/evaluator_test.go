package evaluator

import (
	"strings"
	"testing"

	"github.com/claude/kinetic/internal/models"
)

var text = models.PhaseFeedback{
	Correct: "correct",
	TooLow:  "too low",
	TooHigh: "too high",
	General: "general",
}

func angle(joint string, deg, conf float64) models.AngleCalculation {
	return models.AngleCalculation{Joint: joint, Angle: deg, Confidence: conf, Status: models.StatusUnknown}
}

func onePhase(specs ...models.JointAngleSpec) models.ExercisePhase {
	return models.ExercisePhase{Name: "phase", KeyAngles: specs, Feedback: text}
}

// TestScenarioTooLowNamesGap verifies a shoulder at 0° against a 90°±10° target
// is too_low, scores 0 and asks for a 90° increase.
func TestScenarioTooLowNamesGap(t *testing.T) {
	phase := onePhase(models.JointAngleSpec{Joint: "shoulder_flexion", MinAngle: 80, MaxAngle: 100, TargetAngle: 90, Tolerance: 10})
	fb := New().EvaluateAngles(map[string]models.AngleCalculation{
		"shoulder_flexion": angle("shoulder_flexion", 0, 0.9),
	}, phase)

	if len(fb.AngleResults) != 1 || fb.AngleResults[0].Status != models.StatusTooLow {
		t.Fatalf("angle results = %+v", fb.AngleResults)
	}
	if fb.OverallScore != 0 {
		t.Errorf("overall = %d, want 0", fb.OverallScore)
	}
	if len(fb.Suggestions) != 1 || !strings.Contains(fb.Suggestions[0], "90°") || !strings.Contains(fb.Suggestions[0], "Increase") {
		t.Errorf("suggestions = %v, want an increase of 90°", fb.Suggestions)
	}
	if fb.IsCorrect || fb.PhaseComplete {
		t.Error("expected incorrect, incomplete phase")
	}
}

// TestScenarioWithinTolerance verifies a knee at 178° against 180°±5° is
// correct with full credit.
func TestScenarioWithinTolerance(t *testing.T) {
	spec := models.JointAngleSpec{Joint: "knee_flexion", MinAngle: 170, MaxAngle: 180, TargetAngle: 180, Tolerance: 5}
	calc, contribution, msg, suggestion := Classify(angle("knee_flexion", 178, 0.9), spec, text)
	if calc.Status != models.StatusCorrect || contribution != 100 {
		t.Errorf("status=%s contribution=%v, want correct/100", calc.Status, contribution)
	}
	if calc.Deviation != 2 {
		t.Errorf("deviation = %v, want 2", calc.Deviation)
	}
	if msg != "correct" || suggestion != "" {
		t.Errorf("msg=%q suggestion=%q", msg, suggestion)
	}
}

// TestClassifyAtTargetIsFullCredit verifies angle == target always scores 100,
// even with zero tolerance or a target outside [min,max].
func TestClassifyAtTargetIsFullCredit(t *testing.T) {
	specs := []models.JointAngleSpec{
		{Joint: "j", MinAngle: 0, MaxAngle: 10, TargetAngle: 5, Tolerance: 0},
		{Joint: "j", MinAngle: 80, MaxAngle: 100, TargetAngle: 90, Tolerance: 10},
		{Joint: "j", MinAngle: -10, MaxAngle: 10, TargetAngle: 0, Tolerance: 5},
		{Joint: "j", MinAngle: 100, MaxAngle: 120, TargetAngle: 130, Tolerance: 1},
	}
	for _, spec := range specs {
		calc, contribution, _, _ := Classify(angle("j", spec.TargetAngle, 1), spec, text)
		if calc.Status != models.StatusCorrect || contribution != 100 {
			t.Errorf("spec %+v: status=%s contribution=%v", spec, calc.Status, contribution)
		}
	}
}

// TestClassifyBands walks each classification branch.
func TestClassifyBands(t *testing.T) {
	spec := models.JointAngleSpec{Joint: "knee_flexion", MinAngle: 80, MaxAngle: 100, TargetAngle: 90, Tolerance: 5}
	tests := []struct {
		name       string
		deg        float64
		status     string
		score      float64
		msg        string
		suggestion string
	}{
		{"inside tolerance", 93, models.StatusCorrect, 100, "correct", ""},
		{"partial credit", 98, models.StatusCorrect, 92, "general", ""},
		{"partial floor", 80, models.StatusCorrect, 90, "general", ""},
		{"too low", 70, models.StatusTooLow, 60, "too low", "Increase knee_flexion angle by 20°"},
		{"too high", 110, models.StatusTooHigh, 60, "too high", "Decrease knee_flexion angle by 20°"},
		{"far too high", 170, models.StatusTooHigh, 0, "too high", "Decrease knee_flexion angle by 80°"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc, score, msg, suggestion := Classify(angle("knee_flexion", tt.deg, 1), spec, text)
			if calc.Status != tt.status || score != tt.score || msg != tt.msg || suggestion != tt.suggestion {
				t.Errorf("got (%s, %v, %q, %q), want (%s, %v, %q, %q)",
					calc.Status, score, msg, suggestion, tt.status, tt.score, tt.msg, tt.suggestion)
			}
		})
	}
}

// TestClassifyPartialCreditFloor verifies the in-range branch never awards less
// than 50.
func TestClassifyPartialCreditFloor(t *testing.T) {
	spec := models.JointAngleSpec{Joint: "j", MinAngle: 0, MaxAngle: 180, TargetAngle: 0, Tolerance: 1}
	_, score, _, _ := Classify(angle("j", 170, 1), spec, text)
	if score != 50 {
		t.Errorf("score = %v, want 50", score)
	}
}

// TestEvaluateNoValidAngles verifies a phase with nothing measurable scores 0
// and is not correct.
func TestEvaluateNoValidAngles(t *testing.T) {
	phase := onePhase(
		models.JointAngleSpec{Joint: "knee_flexion", MinAngle: 80, MaxAngle: 100, TargetAngle: 90, Tolerance: 5},
		models.JointAngleSpec{Joint: "hip_flexion", MinAngle: 80, MaxAngle: 100, TargetAngle: 90, Tolerance: 5},
	)
	fb := New().EvaluateAngles(map[string]models.AngleCalculation{
		"knee_flexion": angle("knee_flexion", 90, 0.2),
	}, phase)
	if fb.OverallScore != 0 || fb.IsCorrect || fb.PhaseComplete {
		t.Errorf("feedback = %+v, want zero score and not correct", fb)
	}
	if len(fb.AngleResults) != 0 {
		t.Errorf("low-confidence joint should be excluded, got %v", fb.AngleResults)
	}
	if fb.Feedback[0] != "Cannot detect knee_flexion clearly" {
		t.Errorf("feedback = %v", fb.Feedback)
	}
	if fb.Suggestions[0] != "Ensure you are fully visible in the camera" {
		t.Errorf("suggestions = %v", fb.Suggestions)
	}

	empty := New().EvaluateAngles(nil, models.ExercisePhase{Name: "empty"})
	if empty.OverallScore != 0 || empty.IsCorrect {
		t.Errorf("empty phase = %+v", empty)
	}
}

// TestEvaluateConfidenceThreshold verifies confidence exactly at the threshold
// still counts.
func TestEvaluateConfidenceThreshold(t *testing.T) {
	phase := onePhase(models.JointAngleSpec{Joint: "j", MinAngle: 0, MaxAngle: 10, TargetAngle: 5, Tolerance: 5})
	fb := New().EvaluateAngles(map[string]models.AngleCalculation{"j": angle("j", 5, 0.5)}, phase)
	if fb.OverallScore != 100 || !fb.IsCorrect {
		t.Errorf("feedback = %+v, want 100/correct", fb)
	}
	fb = New().EvaluateAngles(map[string]models.AngleCalculation{"j": angle("j", 5, 0.49)}, phase)
	if fb.OverallScore != 0 {
		t.Errorf("below threshold should be excluded, got %d", fb.OverallScore)
	}
}

// TestEvaluateAveragesValidAngles verifies the overall score is the rounded
// mean over valid joints only, and the pass threshold.
func TestEvaluateAveragesValidAngles(t *testing.T) {
	phase := onePhase(
		models.JointAngleSpec{Joint: "a", MinAngle: 80, MaxAngle: 100, TargetAngle: 90, Tolerance: 5},
		models.JointAngleSpec{Joint: "b", MinAngle: 80, MaxAngle: 100, TargetAngle: 90, Tolerance: 5},
		models.JointAngleSpec{Joint: "missing", MinAngle: 80, MaxAngle: 100, TargetAngle: 90, Tolerance: 5},
	)
	fb := New().EvaluateAngles(map[string]models.AngleCalculation{
		"a": angle("a", 90, 1),   // 100
		"b": angle("b", 70.5, 1), // too low: 100 - 39 = 61
	}, phase)
	if fb.OverallScore != 81 { // round(161/2)
		t.Errorf("overall = %d, want 81", fb.OverallScore)
	}
	if !fb.IsCorrect || !fb.PhaseComplete {
		t.Error("81 should pass")
	}
	if len(fb.AngleResults) != 2 {
		t.Errorf("angle results = %d, want 2", len(fb.AngleResults))
	}
}

// TestEvaluateCapsMessages verifies feedback and suggestions are truncated to
// 3 and 2 in evaluation order.
func TestEvaluateCapsMessages(t *testing.T) {
	var specs []models.JointAngleSpec
	angles := map[string]models.AngleCalculation{}
	for _, j := range []string{"a", "b", "c", "d", "e"} {
		specs = append(specs, models.JointAngleSpec{Joint: j, MinAngle: 80, MaxAngle: 100, TargetAngle: 90, Tolerance: 5})
		angles[j] = angle(j, 0, 1)
	}
	fb := New().EvaluateAngles(angles, onePhase(specs...))
	if len(fb.Feedback) != 3 {
		t.Errorf("feedback = %d, want 3", len(fb.Feedback))
	}
	if len(fb.Suggestions) != 2 {
		t.Fatalf("suggestions = %d, want 2", len(fb.Suggestions))
	}
	if !strings.Contains(fb.Suggestions[0], " a ") || !strings.Contains(fb.Suggestions[1], " b ") {
		t.Errorf("suggestions out of order: %v", fb.Suggestions)
	}
	if len(fb.AngleResults) != 5 {
		t.Errorf("angle results = %d, want 5", len(fb.AngleResults))
	}
}

func lm(part string, x, y float64) models.Landmark {
	return models.Landmark{Part: part, Position: models.Point{X: x, Y: y}, Confidence: 0.9}
}

// armFrame builds a side-on frame with the left arm at the given pose.
func armFrame(raised bool) models.PoseFrame {
	elbow, wrist := lm("leftElbow", 0, 30), lm("leftWrist", 0, 60)
	if raised {
		elbow, wrist = lm("leftElbow", 30, 0), lm("leftWrist", 60, 0)
	}
	return models.PoseFrame{Landmarks: []models.Landmark{
		lm("leftShoulder", 0, 0), lm("leftHip", 0, 60), elbow, wrist,
	}}
}

var armRaise = &models.ExerciseDefinition{
	ID: "shoulder_flexion",
	Phases: []models.ExercisePhase{
		onePhase(
			models.JointAngleSpec{Joint: "shoulder_flexion", MinAngle: -10, MaxAngle: 10, TargetAngle: 0, Tolerance: 5},
			models.JointAngleSpec{Joint: "elbow_flexion", MinAngle: 170, MaxAngle: 180, TargetAngle: 180, Tolerance: 5},
		),
		onePhase(
			models.JointAngleSpec{Joint: "shoulder_flexion", MinAngle: 80, MaxAngle: 100, TargetAngle: 90, Tolerance: 10},
			models.JointAngleSpec{Joint: "elbow_flexion", MinAngle: 170, MaxAngle: 180, TargetAngle: 180, Tolerance: 5},
		),
	},
}

// TestEvaluateFrame verifies end-to-end evaluation from landmarks.
func TestEvaluateFrame(t *testing.T) {
	e := New()
	if fb := e.Evaluate(armFrame(false), armRaise.Phases[0]); fb.OverallScore != 100 {
		t.Errorf("arms down vs start = %+v", fb)
	}
	if fb := e.Evaluate(armFrame(true), armRaise.Phases[0]); fb.IsCorrect {
		t.Errorf("arms raised should not match start: %+v", fb)
	}
}

// TestDetectPhase verifies the best-matching phase is chosen and ties go to the
// lowest index.
func TestDetectPhase(t *testing.T) {
	e := New()
	if got := e.DetectPhase(armFrame(true), armRaise); got != 1 {
		t.Errorf("raised arm phase = %d, want 1", got)
	}
	if got := e.DetectPhase(armFrame(false), armRaise); got != 0 {
		t.Errorf("lowered arm phase = %d, want 0", got)
	}
	// No landmarks: every phase scores 0, lowest index wins.
	if got := e.DetectPhase(models.PoseFrame{}, armRaise); got != 0 {
		t.Errorf("empty frame phase = %d, want 0", got)
	}
	if got := e.DetectPhase(armFrame(true), &models.ExerciseDefinition{}); got != 0 {
		t.Errorf("no phases = %d, want 0", got)
	}
}

// TestVoiceCue verifies cue selection priorities.
func TestVoiceCue(t *testing.T) {
	tests := []struct {
		fb   models.ExerciseFeedback
		want string
	}{
		{models.ExerciseFeedback{IsCorrect: true, Feedback: []string{"Nice"}}, "Nice"},
		{models.ExerciseFeedback{IsCorrect: true}, "Good form!"},
		{models.ExerciseFeedback{Feedback: []string{"f"}, Suggestions: []string{"s"}}, "s"},
		{models.ExerciseFeedback{Feedback: []string{"f"}}, "f"},
		{models.ExerciseFeedback{}, "Adjust your position"},
	}
	for _, tt := range tests {
		if got := VoiceCue(tt.fb); got != tt.want {
			t.Errorf("VoiceCue(%+v) = %q, want %q", tt.fb, got, tt.want)
		}
	}
}
