// Package progress rolls completed sessions into per-user lifetime,
// per-exercise and weekly aggregates, and answers history and analytics
// queries over them.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/claude/kinetic/internal/models"
	"github.com/claude/kinetic/internal/storage"
)

const (
	DefaultHistoryLimit = 1000
	DefaultHistoryPage  = 50
	DefaultWeeks        = 4

	defaultWeeklySessions = 5
	defaultWeeklyMinutes  = 150
)

// Aggregator owns the sessions, progress and goals documents of every user.
type Aggregator struct {
	store        storage.Store
	log          *slog.Logger
	loc          *time.Location
	historyLimit int
	now          func() time.Time
}

// New creates an Aggregator. Calendar days and weeks are computed in loc.
func New(store storage.Store, loc *time.Location, historyLimit int, log *slog.Logger) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Aggregator{
		store:        store,
		log:          log,
		loc:          loc,
		historyLimit: historyLimit,
		now:          time.Now,
	}
}

func defaultProgress(userID string) *models.UserProgress {
	return &models.UserProgress{
		UserID:         userID,
		ExerciseStats:  map[string]*models.ExerciseStats{},
		WeeklyProgress: []models.WeeklyProgress{},
		Achievements:   []models.Achievement{},
	}
}

// decodeProgress never fails: undecodable documents are reported and
// replaced by a fresh aggregate.
func (a *Aggregator) decodeProgress(userID string, data []byte) *models.UserProgress {
	p := defaultProgress(userID)
	if data == nil {
		return p
	}
	if err := json.Unmarshal(data, p); err != nil {
		a.log.Warn("corrupt progress document, starting fresh",
			"user", userID, "kind", storage.KindProgress, "error", err)
		return defaultProgress(userID)
	}
	if p.ExerciseStats == nil {
		p.ExerciseStats = map[string]*models.ExerciseStats{}
	}
	if p.WeeklyProgress == nil {
		p.WeeklyProgress = []models.WeeklyProgress{}
	}
	if p.Achievements == nil {
		p.Achievements = []models.Achievement{}
	}
	p.UserID = userID
	return p
}

func (a *Aggregator) decodeSessions(userID string, data []byte) []models.ExerciseSession {
	if data == nil {
		return []models.ExerciseSession{}
	}
	var sessions []models.ExerciseSession
	if err := json.Unmarshal(data, &sessions); err != nil {
		a.log.Warn("corrupt session history, starting fresh",
			"user", userID, "kind", storage.KindSessions, "error", err)
		return []models.ExerciseSession{}
	}
	return sessions
}

// get loads a document, mapping a missing one to nil data.
func (a *Aggregator) get(ctx context.Context, userID string, kind storage.Kind) ([]byte, error) {
	data, err := a.store.Get(ctx, userID, kind)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s for %s: %w", kind, userID, err)
	}
	return data, nil
}

func (a *Aggregator) loadProgress(ctx context.Context, userID string) (*models.UserProgress, error) {
	data, err := a.get(ctx, userID, storage.KindProgress)
	if err != nil {
		return nil, err
	}
	return a.decodeProgress(userID, data), nil
}

func (a *Aggregator) loadSessions(ctx context.Context, userID string) ([]models.ExerciseSession, error) {
	data, err := a.get(ctx, userID, storage.KindSessions)
	if err != nil {
		return nil, err
	}
	return a.decodeSessions(userID, data), nil
}

// SaveSession upserts s into the user's history. New sessions go first; the
// history is trimmed to the configured limit. History entries carry no
// feedback log: an ended session's log is stored once under its own kind,
// so checkpoints rewrite only the lean entry.
func (a *Aggregator) SaveSession(ctx context.Context, s *models.ExerciseSession) error {
	if s.EndTime != nil && len(s.Feedback) > 0 {
		data, err := json.Marshal(s.Feedback)
		if err != nil {
			return fmt.Errorf("encoding feedback for %s: %w", s.ID, err)
		}
		if err := a.store.Set(ctx, s.UserID, storage.FeedbackKind(s.ID), data); err != nil {
			return fmt.Errorf("saving feedback for %s: %w", s.ID, err)
		}
	}

	entry := *s
	entry.Feedback = nil
	var trimmed []string
	err := a.store.Update(ctx, s.UserID, storage.KindSessions, func(cur []byte) ([]byte, error) {
		trimmed = trimmed[:0]
		sessions := a.decodeSessions(s.UserID, cur)
		replaced := false
		for i := range sessions {
			if sessions[i].ID == entry.ID {
				sessions[i] = entry
				replaced = true
				break
			}
		}
		if !replaced {
			sessions = append([]models.ExerciseSession{entry}, sessions...)
		}
		if len(sessions) > a.historyLimit {
			for _, old := range sessions[a.historyLimit:] {
				trimmed = append(trimmed, old.ID)
			}
			sessions = sessions[:a.historyLimit]
		}
		return json.Marshal(sessions)
	})
	if err != nil {
		return fmt.Errorf("saving session %s: %w", s.ID, err)
	}

	for _, id := range trimmed {
		if err := a.store.Delete(ctx, s.UserID, storage.FeedbackKind(id)); err != nil {
			a.log.Warn("dropping feedback of trimmed session",
				"user", s.UserID, "session", id, "error", err)
		}
	}
	return nil
}

// Progress returns the user's lifetime aggregate. A user without history gets
// a zero aggregate. StreakDays reads 0 once a full calendar day has passed
// without a session.
func (a *Aggregator) Progress(ctx context.Context, userID string) (*models.UserProgress, error) {
	p, err := a.loadProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.LastSessionDate != nil {
		last := models.DayStart(*p.LastSessionDate, a.loc)
		if models.DayStart(a.now(), a.loc).After(last.AddDate(0, 0, 1)) {
			p.StreakDays = 0
		}
	}
	return p, nil
}

// ExerciseStats returns the aggregate for one exercise, or nil if the user
// never completed it.
func (a *Aggregator) ExerciseStats(ctx context.Context, userID, exerciseID string) (*models.ExerciseStats, error) {
	p, err := a.loadProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	return p.ExerciseStats[exerciseID], nil
}

// WeeklyProgress returns the most recent weeks buckets, newest first.
func (a *Aggregator) WeeklyProgress(ctx context.Context, userID string, weeks int) ([]models.WeeklyProgress, error) {
	if weeks <= 0 {
		weeks = DefaultWeeks
	}
	p, err := a.loadProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := append([]models.WeeklyProgress(nil), p.WeeklyProgress...)
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.After(out[j].WeekStart) })
	if len(out) > weeks {
		out = out[:weeks]
	}
	return out, nil
}

// SessionHistory returns up to limit sessions, newest start first.
func (a *Aggregator) SessionHistory(ctx context.Context, userID string, limit int) ([]models.ExerciseSession, error) {
	if limit <= 0 {
		limit = DefaultHistoryPage
	}
	sessions, err := a.loadSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].StartTime.After(sessions[j].StartTime)
	})
	if len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

// Session looks up one persisted session with its feedback log. It returns
// nil when the id is unknown.
func (a *Aggregator) Session(ctx context.Context, userID, sessionID string) (*models.ExerciseSession, error) {
	sessions, err := a.loadSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	var found *models.ExerciseSession
	for i := range sessions {
		if sessions[i].ID == sessionID {
			found = &sessions[i]
			break
		}
	}
	if found == nil || found.EndTime == nil {
		return found, nil
	}

	data, err := a.get(ctx, userID, storage.FeedbackKind(sessionID))
	if err != nil {
		return nil, err
	}
	if data != nil {
		if err := json.Unmarshal(data, &found.Feedback); err != nil {
			a.log.Warn("corrupt feedback log, omitting it",
				"user", userID, "session", sessionID, "error", err)
			found.Feedback = nil
		}
	}
	return found, nil
}

// OnSessionCompleted folds a finished session into the user's progress as one
// atomic update and returns the achievements it unlocked.
func (a *Aggregator) OnSessionCompleted(ctx context.Context, s *models.ExerciseSession) ([]models.Achievement, error) {
	goals, err := a.Goals(ctx, s.UserID)
	if err != nil {
		return nil, err
	}

	var unlocked []models.Achievement
	err = a.store.Update(ctx, s.UserID, storage.KindProgress, func(cur []byte) ([]byte, error) {
		p := a.decodeProgress(s.UserID, cur)
		unlocked = a.apply(p, s, goals)
		return json.Marshal(p)
	})
	if err != nil {
		return nil, fmt.Errorf("updating progress for %s: %w", s.UserID, err)
	}

	for _, ach := range unlocked {
		a.log.Info("achievement unlocked", "user", s.UserID, "achievement", ach.ID)
	}
	return unlocked, nil
}

// apply mutates p in memory with one completed session.
func (a *Aggregator) apply(p *models.UserProgress, s *models.ExerciseSession, goals models.ProgressGoals) []models.Achievement {
	ended := a.now()
	if s.EndTime != nil {
		ended = *s.EndTime
	}

	p.TotalSessions++
	p.TotalTimeSec += s.DurationSec
	p.TotalRepetitions += s.Repetitions
	p.AverageScore = models.RunningAverage(p.AverageScore, s.AverageScore, p.TotalSessions)

	p.StreakDays = a.nextStreak(p, ended)
	if p.LastSessionDate == nil || ended.After(*p.LastSessionDate) {
		t := ended
		p.LastSessionDate = &t
	}

	applyExerciseStats(p, s, ended)
	a.applyWeekly(p, s, ended, goals)

	return unlockAchievements(p, s, ended)
}

// nextStreak counts consecutive calendar days with at least one session.
func (a *Aggregator) nextStreak(p *models.UserProgress, ended time.Time) int {
	if p.LastSessionDate == nil || p.StreakDays == 0 {
		return 1
	}
	day := models.DayStart(ended, a.loc)
	last := models.DayStart(*p.LastSessionDate, a.loc)
	switch {
	case !day.After(last):
		return p.StreakDays
	case day.Equal(last.AddDate(0, 0, 1)):
		return p.StreakDays + 1
	default:
		return 1
	}
}

func applyExerciseStats(p *models.UserProgress, s *models.ExerciseSession, ended time.Time) {
	st, ok := p.ExerciseStats[s.ExerciseID]
	if !ok {
		st = &models.ExerciseStats{
			ExerciseID:   s.ExerciseID,
			ExerciseName: s.ExerciseName,
			Difficulty:   s.Difficulty,
			FirstScore:   s.AverageScore,
		}
		p.ExerciseStats[s.ExerciseID] = st
	}

	st.TotalSessions++
	st.TotalTimeSec += s.DurationSec
	st.TotalRepetitions += s.Repetitions
	st.AverageScore = models.RunningAverage(st.AverageScore, s.AverageScore, st.TotalSessions)
	if s.MaxScore > st.BestScore {
		st.BestScore = s.MaxScore
	}
	if st.FirstScore > 0 {
		st.ImprovementRate = (st.AverageScore - st.FirstScore) / st.FirstScore * 100
	}
	if ended.After(st.LastPerformed) {
		st.LastPerformed = ended
	}
	// Ties go to the most recent session.
	if s.AverageScore >= st.PersonalBest.Score {
		st.PersonalBest = models.PersonalBest{
			Score:       s.AverageScore,
			Date:        ended,
			DurationSec: s.DurationSec,
			Repetitions: s.Repetitions,
		}
	}
}

func (a *Aggregator) applyWeekly(p *models.UserProgress, s *models.ExerciseSession, ended time.Time, goals models.ProgressGoals) {
	start := models.WeekStart(ended, a.loc)

	idx := -1
	for i := range p.WeeklyProgress {
		if p.WeeklyProgress[i].WeekStart.Equal(start) {
			idx = i
			break
		}
	}
	if idx < 0 {
		target := goals.WeeklySessionTarget
		if target <= 0 {
			target = defaultWeeklySessions
		}
		p.WeeklyProgress = append(p.WeeklyProgress, models.WeeklyProgress{
			WeekStart:          start,
			WeekEnd:            start.AddDate(0, 0, 7),
			ExercisesPerformed: []string{},
			Goals: models.WeeklyGoal{
				TargetSessions:    target,
				TargetTimeMinutes: defaultWeeklyMinutes,
			},
		})
		idx = len(p.WeeklyProgress) - 1
	}

	w := &p.WeeklyProgress[idx]
	w.SessionsCompleted++
	w.TotalTimeSec += s.DurationSec
	w.AverageScore = models.RunningAverage(w.AverageScore, s.AverageScore, w.SessionsCompleted)
	if !containsString(w.ExercisesPerformed, s.ExerciseID) {
		w.ExercisesPerformed = append(w.ExercisesPerformed, s.ExerciseID)
	}
	if w.SessionsCompleted >= w.Goals.TargetSessions &&
		w.TotalTimeSec/60 >= w.Goals.TargetTimeMinutes {
		w.Goals.Achieved = true
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
