// Package evaluator scores a pose against an exercise phase.
//
// An Evaluator holds only thresholds; every method is a pure function of its
// arguments and safe to call concurrently from any number of sessions.
package evaluator

import (
	"fmt"
	"math"

	"github.com/claude/kinetic/internal/models"
	"github.com/claude/kinetic/internal/pose"
)

const (
	DefaultMinConfidence = 0.5
	DefaultPassScore     = 80
	maxFeedback          = 3
	maxSuggestions       = 2
)

// Evaluator compares measured joint angles with phase specifications.
type Evaluator struct {
	// MinConfidence is the lowest joint confidence that still counts.
	MinConfidence float64
	// PassScore is the overall score at which a phase counts as correct.
	PassScore int
}

// New returns an Evaluator with the default thresholds.
func New() *Evaluator {
	return &Evaluator{MinConfidence: DefaultMinConfidence, PassScore: DefaultPassScore}
}

// Evaluate scores a frame against a phase.
func (e *Evaluator) Evaluate(frame models.PoseFrame, phase models.ExercisePhase) models.ExerciseFeedback {
	return e.EvaluateAngles(pose.JointAngles(frame), phase)
}

// EvaluateAngles scores precomputed joint angles against a phase.
func (e *Evaluator) EvaluateAngles(angles map[string]models.AngleCalculation, phase models.ExercisePhase) models.ExerciseFeedback {
	fb := models.ExerciseFeedback{
		Phase:        phase.Name,
		AngleResults: []models.AngleCalculation{},
		Feedback:     []string{},
		Suggestions:  []string{},
	}

	var total float64
	var valid int
	for _, spec := range phase.KeyAngles {
		calc, ok := angles[spec.Joint]
		if !ok || calc.Confidence < e.MinConfidence {
			fb.Feedback = appendCapped(fb.Feedback, maxFeedback, fmt.Sprintf("Cannot detect %s clearly", spec.Joint))
			fb.Suggestions = appendCapped(fb.Suggestions, maxSuggestions, "Ensure you are fully visible in the camera")
			continue
		}

		result, contribution, text, suggestion := Classify(calc, spec, phase.Feedback)
		total += contribution
		valid++
		fb.AngleResults = append(fb.AngleResults, result)
		if text != "" {
			fb.Feedback = appendCapped(fb.Feedback, maxFeedback, text)
		}
		if suggestion != "" {
			fb.Suggestions = appendCapped(fb.Suggestions, maxSuggestions, suggestion)
		}
	}

	if valid > 0 {
		fb.OverallScore = int(math.Round(total / float64(valid)))
	}
	fb.OverallScore = max(0, min(100, fb.OverallScore))
	fb.IsCorrect = valid > 0 && fb.OverallScore >= e.PassScore
	fb.PhaseComplete = fb.IsCorrect
	return fb
}

// Classify grades one measured angle against its specification and returns the
// annotated calculation, its score contribution, the feedback text and an
// optional corrective suggestion.
func Classify(calc models.AngleCalculation, spec models.JointAngleSpec, text models.PhaseFeedback) (models.AngleCalculation, float64, string, string) {
	deviation := math.Abs(calc.Angle - spec.TargetAngle)
	calc.Deviation = deviation

	switch {
	case deviation <= spec.Tolerance:
		calc.Status = models.StatusCorrect
		return calc, 100, text.Correct, ""
	case calc.Angle < spec.MinAngle:
		calc.Status = models.StatusTooLow
		return calc, math.Max(0, 100-2*deviation), text.TooLow,
			fmt.Sprintf("Increase %s angle by %d°", spec.Joint, int(math.Round(deviation)))
	case calc.Angle > spec.MaxAngle:
		calc.Status = models.StatusTooHigh
		return calc, math.Max(0, 100-2*deviation), text.TooHigh,
			fmt.Sprintf("Decrease %s angle by %d°", spec.Joint, int(math.Round(deviation)))
	default:
		calc.Status = models.StatusCorrect
		return calc, math.Max(50, 100-deviation), text.General, ""
	}
}

// DetectPhase returns the index of the phase that best matches the frame.
// Ties go to the lowest index; an exercise without phases yields 0.
func (e *Evaluator) DetectPhase(frame models.PoseFrame, exercise *models.ExerciseDefinition) int {
	if exercise == nil || len(exercise.Phases) == 0 {
		return 0
	}
	angles := pose.JointAngles(frame)
	best, bestScore := 0, -1
	for i, phase := range exercise.Phases {
		score := e.EvaluateAngles(angles, phase).OverallScore
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

// VoiceCue picks the single line worth speaking for a piece of feedback.
func VoiceCue(fb models.ExerciseFeedback) string {
	if fb.IsCorrect {
		if len(fb.Feedback) > 0 {
			return fb.Feedback[0]
		}
		return "Good form!"
	}
	if len(fb.Suggestions) > 0 {
		return fb.Suggestions[0]
	}
	if len(fb.Feedback) > 0 {
		return fb.Feedback[0]
	}
	return "Adjust your position"
}

func appendCapped(list []string, limit int, s string) []string {
	if len(list) >= limit {
		return list
	}
	return append(list, s)
}
