package progress

import (
	"time"

	"github.com/claude/kinetic/internal/models"
)

// Achievement ids.
const (
	AchievementFirstSession = "first-session"
	AchievementPerfectScore = "perfect-score"
	AchievementWeekStreak   = "week-streak"
	AchievementTenSessions  = "ten-sessions"
)

type achievementRule struct {
	template models.Achievement
	met      func(p *models.UserProgress, s *models.ExerciseSession) bool
}

var achievementRules = []achievementRule{
	{
		template: models.Achievement{
			ID:          AchievementFirstSession,
			Title:       "Getting Started",
			Description: "Completed your first exercise session",
			Category:    models.AchievementMilestone,
			Points:      10,
		},
		met: func(p *models.UserProgress, _ *models.ExerciseSession) bool { return p.TotalSessions >= 1 },
	},
	{
		template: models.Achievement{
			ID:          AchievementPerfectScore,
			Title:       "Perfect Form",
			Description: "Achieved a score of 95% or higher",
			Category:    models.AchievementPerformance,
			Points:      25,
		},
		met: func(_ *models.UserProgress, s *models.ExerciseSession) bool { return s.AverageScore >= 95 },
	},
	{
		template: models.Achievement{
			ID:          AchievementWeekStreak,
			Title:       "Week Warrior",
			Description: "Exercised for 7 days in a row",
			Category:    models.AchievementConsistency,
			Points:      50,
		},
		met: func(p *models.UserProgress, _ *models.ExerciseSession) bool { return p.StreakDays >= 7 },
	},
	{
		template: models.Achievement{
			ID:          AchievementTenSessions,
			Title:       "Dedicated",
			Description: "Completed 10 exercise sessions",
			Category:    models.AchievementMilestone,
			Points:      30,
		},
		met: func(p *models.UserProgress, _ *models.ExerciseSession) bool { return p.TotalSessions >= 10 },
	},
}

// unlockAchievements appends every newly met achievement. An id already
// present in p is never added again.
func unlockAchievements(p *models.UserProgress, s *models.ExerciseSession, at time.Time) []models.Achievement {
	var unlocked []models.Achievement
	for _, r := range achievementRules {
		if p.HasAchievement(r.template.ID) || !r.met(p, s) {
			continue
		}
		a := r.template
		a.UnlockedDate = at
		p.Achievements = append(p.Achievements, a)
		unlocked = append(unlocked, a)
	}
	return unlocked
}
