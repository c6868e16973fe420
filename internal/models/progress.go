package models

import "time"

// Achievement categories.
const (
	AchievementConsistency = "consistency"
	AchievementPerformance = "performance"
	AchievementMilestone   = "milestone"
	AchievementImprovement = "improvement"
)

// PersonalBest is the best session by average score for one exercise.
type PersonalBest struct {
	Score       float64   `json:"score"`
	Date        time.Time `json:"date"`
	DurationSec int       `json:"duration_sec"`
	Repetitions int       `json:"repetitions"`
}

// ExerciseStats aggregates all completed sessions of one exercise for one user.
type ExerciseStats struct {
	ExerciseID       string       `json:"exercise_id"`
	ExerciseName     string       `json:"exercise_name"`
	Difficulty       string       `json:"difficulty"`
	TotalSessions    int          `json:"total_sessions"`
	TotalTimeSec     int          `json:"total_time_sec"`
	TotalRepetitions int          `json:"total_repetitions"`
	AverageScore     float64      `json:"average_score"`
	FirstScore       float64      `json:"first_score"`
	BestScore        int          `json:"best_score"`
	ImprovementRate  float64      `json:"improvement_rate"`
	LastPerformed    time.Time    `json:"last_performed"`
	PersonalBest     PersonalBest `json:"personal_best"`
}

// WeeklyGoal is the target a weekly bucket is measured against.
type WeeklyGoal struct {
	TargetSessions    int  `json:"target_sessions"`
	TargetTimeMinutes int  `json:"target_time_minutes"`
	Achieved          bool `json:"achieved"`
}

// WeeklyProgress aggregates the completed sessions of one week.
type WeeklyProgress struct {
	WeekStart          time.Time  `json:"week_start"`
	WeekEnd            time.Time  `json:"week_end"` // exclusive: the following Monday
	SessionsCompleted  int        `json:"sessions_completed"`
	TotalTimeSec       int        `json:"total_time_sec"`
	AverageScore       float64    `json:"average_score"`
	ExercisesPerformed []string   `json:"exercises_performed"`
	Goals              WeeklyGoal `json:"goals"`
}

// Achievement is a milestone unlocked at most once per user.
type Achievement struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Points       int       `json:"points"`
	UnlockedDate time.Time `json:"unlocked_date"`
}

// UserProgress is the lifetime aggregate for one user.
type UserProgress struct {
	UserID           string                    `json:"user_id"`
	TotalSessions    int                       `json:"total_sessions"`
	TotalTimeSec     int                       `json:"total_time_sec"`
	TotalRepetitions int                       `json:"total_repetitions"`
	AverageScore     float64                   `json:"average_score"`
	ExerciseStats    map[string]*ExerciseStats `json:"exercise_stats"`
	WeeklyProgress   []WeeklyProgress          `json:"weekly_progress"`
	Achievements     []Achievement             `json:"achievements"`
	LastSessionDate  *time.Time                `json:"last_session_date,omitempty"`
	StreakDays       int                       `json:"streak_days"`
}

// HasAchievement reports whether the achievement id is already unlocked.
func (p *UserProgress) HasAchievement(id string) bool {
	for _, a := range p.Achievements {
		if a.ID == id {
			return true
		}
	}
	return false
}

// ProgressGoals are user-configured targets.
type ProgressGoals struct {
	DailySessionTarget  int      `json:"daily_session_target"`
	WeeklySessionTarget int      `json:"weekly_session_target"`
	TargetScore         float64  `json:"target_score"`
	TargetExercises     []string `json:"target_exercises"`
	TargetDurationMin   int      `json:"target_duration_minutes"`
}

// DefaultGoals returns the goals used when a user has not configured any.
func DefaultGoals() ProgressGoals {
	return ProgressGoals{
		DailySessionTarget:  1,
		WeeklySessionTarget: 5,
		TargetScore:         80,
		TargetExercises:     []string{},
		TargetDurationMin:   15,
	}
}
