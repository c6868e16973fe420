package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/claude/kinetic/internal/models"
	"github.com/claude/kinetic/internal/storage"
)

// ErrInvalidGoals is returned by SetGoals for out-of-range targets.
var ErrInvalidGoals = errors.New("invalid goals")

// GoalStatus measures today and the current week against the user's goals.
type GoalStatus struct {
	Goals             models.ProgressGoals `json:"goals"`
	SessionsToday     int                  `json:"sessions_today"`
	SessionsThisWeek  int                  `json:"sessions_this_week"`
	MinutesToday      int                  `json:"minutes_today"`
	WeekAverageScore  float64              `json:"week_average_score"`
	DailySessionsMet  bool                 `json:"daily_sessions_met"`
	WeeklySessionsMet bool                 `json:"weekly_sessions_met"`
	ScoreMet          bool                 `json:"score_met"`
	DurationMet       bool                 `json:"duration_met"`
	PendingExercises  []string             `json:"pending_exercises"`
	ExercisesThisWeek []string             `json:"exercises_this_week"`
}

// Goals returns the user's goals, or the defaults when none are stored.
func (a *Aggregator) Goals(ctx context.Context, userID string) (models.ProgressGoals, error) {
	data, err := a.get(ctx, userID, storage.KindGoals)
	if err != nil {
		return models.ProgressGoals{}, err
	}
	if data == nil {
		return models.DefaultGoals(), nil
	}
	goals := models.DefaultGoals()
	if err := json.Unmarshal(data, &goals); err != nil {
		a.log.Warn("corrupt goals document, using defaults",
			"user", userID, "kind", storage.KindGoals, "error", err)
		return models.DefaultGoals(), nil
	}
	if goals.TargetExercises == nil {
		goals.TargetExercises = []string{}
	}
	return goals, nil
}

// SetGoals validates and replaces the user's goals.
func (a *Aggregator) SetGoals(ctx context.Context, userID string, goals models.ProgressGoals) error {
	switch {
	case goals.DailySessionTarget < 0, goals.WeeklySessionTarget < 0, goals.TargetDurationMin < 0:
		return fmt.Errorf("%w: targets must not be negative", ErrInvalidGoals)
	case goals.TargetScore < 0 || goals.TargetScore > 100:
		return fmt.Errorf("%w: target_score must be within 0..100", ErrInvalidGoals)
	}
	if goals.TargetExercises == nil {
		goals.TargetExercises = []string{}
	}
	data, err := json.Marshal(goals)
	if err != nil {
		return fmt.Errorf("encoding goals: %w", err)
	}
	if err := a.store.Set(ctx, userID, storage.KindGoals, data); err != nil {
		return fmt.Errorf("saving goals for %s: %w", userID, err)
	}
	return nil
}

// GoalStatus computes attainment flags from completed sessions ending today
// and in the current week.
func (a *Aggregator) GoalStatus(ctx context.Context, userID string) (*GoalStatus, error) {
	var (
		goals    models.ProgressGoals
		sessions []models.ExerciseSession
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		goals, err = a.Goals(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		sessions, err = a.loadSessions(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := a.now()
	today := models.DayStart(now, a.loc)
	week := models.WeekStart(now, a.loc)

	st := &GoalStatus{
		Goals:             goals,
		PendingExercises:  []string{},
		ExercisesThisWeek: []string{},
	}
	todaySec := 0
	for _, s := range sessions {
		if !s.Completed || s.EndTime == nil {
			continue
		}
		end := *s.EndTime
		if end.Before(week) || end.After(now) {
			continue
		}
		st.SessionsThisWeek++
		st.WeekAverageScore = models.RunningAverage(st.WeekAverageScore, s.AverageScore, st.SessionsThisWeek)
		if !containsString(st.ExercisesThisWeek, s.ExerciseID) {
			st.ExercisesThisWeek = append(st.ExercisesThisWeek, s.ExerciseID)
		}
		if !end.Before(today) {
			st.SessionsToday++
			todaySec += s.DurationSec
		}
	}
	st.MinutesToday = todaySec / 60

	st.DailySessionsMet = st.SessionsToday >= goals.DailySessionTarget
	st.WeeklySessionsMet = st.SessionsThisWeek >= goals.WeeklySessionTarget
	st.ScoreMet = st.SessionsThisWeek > 0 && st.WeekAverageScore >= goals.TargetScore
	st.DurationMet = st.MinutesToday >= goals.TargetDurationMin
	for _, id := range goals.TargetExercises {
		if !containsString(st.ExercisesThisWeek, id) {
			st.PendingExercises = append(st.PendingExercises, id)
		}
	}
	return st, nil
}
