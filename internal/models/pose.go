package models

import "time"

// Point is a landmark position in the pose source's coordinate space.
// Z is zero for 2D sources.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

// Landmark is a named anatomical point with its detection confidence in [0,1].
type Landmark struct {
	Part       string  `json:"part"`
	Position   Point   `json:"position"`
	Confidence float64 `json:"confidence"`
}

// PoseFrame is one reading from the pose-estimation source.
type PoseFrame struct {
	Landmarks []Landmark `json:"landmarks"`
	Engine    string     `json:"engine,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Angle classification outcomes.
const (
	StatusCorrect = "correct"
	StatusTooLow  = "too_low"
	StatusTooHigh = "too_high"
	StatusUnknown = "unknown"
)

// AngleCalculation is a measured joint angle and, once evaluated, its status.
type AngleCalculation struct {
	Joint      string  `json:"joint"`
	Angle      float64 `json:"angle"`
	Confidence float64 `json:"confidence"`
	Status     string  `json:"status"`
	Deviation  float64 `json:"deviation"`
}

// ExerciseFeedback is the evaluation of one frame against one phase.
type ExerciseFeedback struct {
	Phase         string             `json:"phase"`
	OverallScore  int                `json:"overall_score"`
	AngleResults  []AngleCalculation `json:"angle_results"`
	Feedback      []string           `json:"feedback"`
	Suggestions   []string           `json:"suggestions"`
	IsCorrect     bool               `json:"is_correct"`
	PhaseComplete bool               `json:"phase_complete"`
}
