package progress

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/claude/kinetic/internal/models"
)

// Trend directions.
const (
	TrendImproving = "improving"
	TrendStable    = "stable"
	TrendDeclining = "declining"
)

const (
	DefaultTrendDays = 30

	trendThreshold = 5.0
	trendMinPoints = 3
	// trendSessions bounds how much history a trend scans.
	trendSessions = 100
	// insightSessions is the window for exercise variety.
	insightSessions = 10
)

// TrendResult is the score series of one exercise inside a trailing window.
type TrendResult struct {
	ExerciseID string    `json:"exercise_id"`
	Days       int       `json:"days"`
	Dates      []string  `json:"dates"`
	Scores     []float64 `json:"scores"`
	Trend      string    `json:"trend"`
}

// Insights is a threshold-based qualitative summary.
type Insights struct {
	Strengths       []string `json:"strengths"`
	Improvements    []string `json:"improvements"`
	Recommendations []string `json:"recommendations"`
}

// Trend compares the mean score of the later half of the window with the
// earlier half. Fewer than three sessions are always stable.
func (a *Aggregator) Trend(ctx context.Context, userID, exerciseID string, days int) (*TrendResult, error) {
	if days <= 0 {
		days = DefaultTrendDays
	}
	sessions, err := a.SessionHistory(ctx, userID, trendSessions)
	if err != nil {
		return nil, err
	}

	cutoff := a.now().Add(-time.Duration(days) * 24 * time.Hour)
	var picked []models.ExerciseSession
	for _, s := range sessions {
		if s.ExerciseID == exerciseID && s.Completed && !s.StartTime.Before(cutoff) {
			picked = append(picked, s)
		}
	}
	sort.SliceStable(picked, func(i, j int) bool { return picked[i].StartTime.Before(picked[j].StartTime) })

	res := &TrendResult{
		ExerciseID: exerciseID,
		Days:       days,
		Dates:      make([]string, 0, len(picked)),
		Scores:     make([]float64, 0, len(picked)),
	}
	for _, s := range picked {
		res.Dates = append(res.Dates, s.StartTime.In(a.loc).Format("2006-01-02"))
		res.Scores = append(res.Scores, s.AverageScore)
	}
	res.Trend = classifyTrend(res.Scores)
	return res, nil
}

func classifyTrend(scores []float64) string {
	if len(scores) < trendMinPoints {
		return TrendStable
	}
	mid := len(scores) / 2
	first, second := mean(scores[:mid]), mean(scores[mid:])
	switch {
	case second > first+trendThreshold:
		return TrendImproving
	case second < first-trendThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func mean(xs []float64) float64 {
	avg := 0.0
	for i, x := range xs {
		avg = models.RunningAverage(avg, x, i+1)
	}
	return avg
}

// Insights summarizes streak, average score and recent variety.
func (a *Aggregator) Insights(ctx context.Context, userID string) (*Insights, error) {
	var (
		p        *models.UserProgress
		sessions []models.ExerciseSession
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		p, err = a.Progress(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		sessions, err = a.SessionHistory(gctx, userID, insightSessions)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	in := &Insights{
		Strengths:       []string{},
		Improvements:    []string{},
		Recommendations: []string{},
	}

	switch {
	case p.StreakDays >= 7:
		in.Strengths = append(in.Strengths, fmt.Sprintf("Excellent consistency with %d day streak!", p.StreakDays))
	case p.StreakDays < 3:
		in.Improvements = append(in.Improvements, "Try to maintain a more consistent exercise routine")
		in.Recommendations = append(in.Recommendations, "Set daily reminders to practice exercises")
	}

	switch {
	case p.AverageScore >= 80:
		in.Strengths = append(in.Strengths, "High average performance score")
	case p.AverageScore < 60:
		in.Improvements = append(in.Improvements, "Focus on improving exercise form and technique")
		in.Recommendations = append(in.Recommendations, "Consider starting with easier exercises")
	}

	distinct := make(map[string]struct{})
	for _, s := range sessions {
		distinct[s.ExerciseID] = struct{}{}
	}
	if len(distinct) >= 3 {
		in.Strengths = append(in.Strengths, "Good exercise variety in recent sessions")
	} else {
		in.Improvements = append(in.Improvements, "Try incorporating more exercise variety")
		in.Recommendations = append(in.Recommendations, "Explore different exercise categories")
	}

	return in, nil
}
