// Package tracker advances one session through an exercise's phases and
// counts repetitions.
package tracker

import (
	"fmt"

	"github.com/claude/kinetic/internal/evaluator"
	"github.com/claude/kinetic/internal/models"
)

// State is the lifecycle position of a Tracker.
type State int

const (
	Idle State = iota
	InPhase
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InPhase:
		return "in_phase"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// MarshalText lets State serialize as its name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a name written by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = Idle
	case "in_phase":
		*s = InPhase
	case "completed":
		*s = Completed
	default:
		return fmt.Errorf("unknown tracker state %q", text)
	}
	return nil
}

// Step is the outcome of feeding one frame to a Tracker.
type Step struct {
	Feedback            *models.ExerciseFeedback `json:"feedback,omitempty"`
	State               State                    `json:"state"`
	Phase               int                      `json:"phase"`
	PhaseName           string                   `json:"phase_name"`
	Repetitions         int                      `json:"repetitions"`
	TargetRepetitions   int                      `json:"target_repetitions"`
	PhaseAdvanced       bool                     `json:"phase_advanced"`
	RepetitionCompleted bool                     `json:"repetition_completed"`
}

// Tracker is the per-session state machine. It is owned by exactly one caller
// and is not safe for concurrent use.
type Tracker struct {
	eval     *evaluator.Evaluator
	exercise *models.ExerciseDefinition
	target   int

	state  State
	phase  int
	reps   int
	frames int
	avg    float64
}

// New creates an idle tracker. A non-positive target uses the exercise's
// recommended repetitions, and at least one.
func New(eval *evaluator.Evaluator, exercise *models.ExerciseDefinition, target int) *Tracker {
	if target <= 0 {
		target = exercise.Repetitions.Recommended
	}
	if target <= 0 {
		target = 1
	}
	return &Tracker{eval: eval, exercise: exercise, target: target}
}

// Start moves an idle tracker into the first phase.
func (t *Tracker) Start() {
	if t.state != Idle {
		return
	}
	t.phase = 0
	t.state = InPhase
	if len(t.exercise.Phases) == 0 {
		t.state = Completed
	}
}

// Step evaluates a frame against the current phase. Frames received while idle
// or completed are not evaluated.
func (t *Tracker) Step(frame models.PoseFrame) Step {
	if t.state != InPhase {
		return t.Snapshot()
	}

	fb := t.eval.Evaluate(frame, t.exercise.Phases[t.phase])
	t.frames++
	t.avg = models.RunningAverage(t.avg, float64(fb.OverallScore), t.frames)

	var advanced, repDone bool
	if fb.PhaseComplete {
		advanced = true
		t.phase++
		if t.phase >= len(t.exercise.Phases) {
			t.phase = 0
			t.reps++
			repDone = true
			if t.reps >= t.target {
				t.state = Completed
			}
		}
	}

	step := t.Snapshot()
	step.Feedback = &fb
	step.PhaseAdvanced = advanced
	step.RepetitionCompleted = repDone
	return step
}

// Resync jumps to the phase that best matches the frame, for when tracking was
// lost. Repetition count is unchanged.
func (t *Tracker) Resync(frame models.PoseFrame) int {
	if t.state != InPhase {
		return t.phase
	}
	t.phase = t.eval.DetectPhase(frame, t.exercise)
	return t.phase
}

// Metrics returns the running aggregate the recorder needs.
func (t *Tracker) Metrics() models.RunningMetrics {
	return models.RunningMetrics{
		Repetitions:  t.reps,
		AverageScore: t.avg,
		Frames:       t.frames,
	}
}

// Snapshot reports the current position without evaluating a frame.
func (t *Tracker) Snapshot() Step {
	s := Step{
		State:             t.state,
		Phase:             t.phase,
		Repetitions:       t.reps,
		TargetRepetitions: t.target,
	}
	if t.phase < len(t.exercise.Phases) {
		s.PhaseName = t.exercise.Phases[t.phase].Name
	}
	return s
}
