package models

import "time"

// ExerciseSession is one user's attempt at one exercise.
type ExerciseSession struct {
	ID              string             `json:"id"`
	UserID          string             `json:"user_id"`
	ExerciseID      string             `json:"exercise_id"`
	ExerciseName    string             `json:"exercise_name"`
	StartTime       time.Time          `json:"start_time"`
	EndTime         *time.Time         `json:"end_time,omitempty"`
	DurationSec     int                `json:"duration_sec"`
	Repetitions     int                `json:"repetitions"`
	AverageScore    float64            `json:"average_score"`
	MaxScore        int                `json:"max_score"`
	MinScore        int                `json:"min_score"`
	Feedback        []ExerciseFeedback `json:"feedback,omitempty"`
	FeedbackDropped int                `json:"feedback_dropped,omitempty"`
	Difficulty      string             `json:"difficulty"`
	Notes           string             `json:"notes,omitempty"`
	Completed       bool               `json:"completed"`
	LastActivity    time.Time          `json:"last_activity"`
}

// RunningMetrics is the caller's running aggregate for a session in progress.
type RunningMetrics struct {
	Repetitions  int     `json:"repetitions"`
	AverageScore float64 `json:"average_score"`
	Frames       int     `json:"frames"`
}
