package models

// Exercise categories.
const (
	CategoryUpperBody   = "upper_body"
	CategoryLowerBody   = "lower_body"
	CategoryCore        = "core"
	CategoryBalance     = "balance"
	CategoryFlexibility = "flexibility"
)

// Difficulty levels.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// JointAngleSpec is the accepted range for one joint within a phase.
type JointAngleSpec struct {
	Joint       string  `json:"joint" yaml:"joint"`
	MinAngle    float64 `json:"min_angle" yaml:"min_angle"`
	MaxAngle    float64 `json:"max_angle" yaml:"max_angle"`
	TargetAngle float64 `json:"target_angle" yaml:"target_angle"`
	Tolerance   float64 `json:"tolerance" yaml:"tolerance"`
}

// PhaseFeedback holds the text shown for each classification outcome.
type PhaseFeedback struct {
	Correct string `json:"correct" yaml:"correct"`
	TooLow  string `json:"too_low" yaml:"too_low"`
	TooHigh string `json:"too_high" yaml:"too_high"`
	General string `json:"general" yaml:"general"`
}

// ExercisePhase is one checkpoint pose of a movement cycle.
type ExercisePhase struct {
	Name        string           `json:"name" yaml:"name"`
	DurationSec int              `json:"duration_sec,omitempty" yaml:"duration_sec,omitempty"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	KeyAngles   []JointAngleSpec `json:"key_angles" yaml:"key_angles"`
	Feedback    PhaseFeedback    `json:"feedback" yaml:"feedback"`
}

// RepetitionRange bounds the repetitions prescribed for an exercise.
type RepetitionRange struct {
	Min         int `json:"min" yaml:"min"`
	Max         int `json:"max" yaml:"max"`
	Recommended int `json:"recommended" yaml:"recommended"`
}

// ExerciseDefinition is immutable catalog data.
type ExerciseDefinition struct {
	ID                string          `json:"id" yaml:"id"`
	Name              string          `json:"name" yaml:"name"`
	Category          string          `json:"category" yaml:"category"`
	Difficulty        string          `json:"difficulty" yaml:"difficulty"`
	Description       string          `json:"description,omitempty" yaml:"description,omitempty"`
	Instructions      []string        `json:"instructions,omitempty" yaml:"instructions,omitempty"`
	Phases            []ExercisePhase `json:"phases" yaml:"phases"`
	Repetitions       RepetitionRange `json:"repetitions" yaml:"repetitions"`
	DurationSec       int             `json:"duration_sec" yaml:"duration_sec"`
	RestTimeSec       int             `json:"rest_time_sec" yaml:"rest_time_sec"`
	TargetMuscles     []string        `json:"target_muscles,omitempty" yaml:"target_muscles,omitempty"`
	Contraindications []string        `json:"contraindications,omitempty" yaml:"contraindications,omitempty"`
	Modifications     []string        `json:"modifications,omitempty" yaml:"modifications,omitempty"`
}
