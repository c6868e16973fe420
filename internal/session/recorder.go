// Package session records the lifecycle of in-progress exercise sessions.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/claude/kinetic/internal/models"
)

// initialMinScore is replaced by the first real score.
const initialMinScore = 100

// Sink persists sessions and receives them once finished.
type Sink interface {
	SaveSession(ctx context.Context, s *models.ExerciseSession) error
	OnSessionCompleted(ctx context.Context, s *models.ExerciseSession) ([]models.Achievement, error)
}

// Ref identifies an active session.
type Ref struct {
	UserID string
	ID     string
}

// Recorder holds active sessions in memory. Per-frame updates are not
// persisted; Start, Checkpoint and End write through the Sink.
type Recorder struct {
	sink          Sink
	log           *slog.Logger
	feedbackLimit int
	now           func() time.Time

	mu     sync.Mutex
	active map[string]*models.ExerciseSession
}

// New creates a Recorder. feedbackLimit caps the per-session feedback log;
// zero keeps everything.
func New(sink Sink, feedbackLimit int, log *slog.Logger) *Recorder {
	return &Recorder{
		sink:          sink,
		log:           log,
		feedbackLimit: feedbackLimit,
		now:           time.Now,
		active:        make(map[string]*models.ExerciseSession),
	}
}

func clone(s *models.ExerciseSession) *models.ExerciseSession {
	c := *s
	c.Feedback = append([]models.ExerciseFeedback(nil), s.Feedback...)
	if s.EndTime != nil {
		t := *s.EndTime
		c.EndTime = &t
	}
	return &c
}

// lookup returns the active session if it belongs to userID. Callers hold mu.
func (r *Recorder) lookup(userID, id string) *models.ExerciseSession {
	s, ok := r.active[id]
	if !ok || s.UserID != userID {
		return nil
	}
	return s
}

// Start allocates and persists a new session for exercise.
func (r *Recorder) Start(ctx context.Context, userID string, exercise *models.ExerciseDefinition) (*models.ExerciseSession, error) {
	now := r.now()
	s := &models.ExerciseSession{
		ID:           uuid.NewString(),
		UserID:       userID,
		ExerciseID:   exercise.ID,
		ExerciseName: exercise.Name,
		StartTime:    now,
		MinScore:     initialMinScore,
		Feedback:     []models.ExerciseFeedback{},
		Difficulty:   exercise.Difficulty,
		LastActivity: now,
	}
	if err := r.sink.SaveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("starting session: %w", err)
	}

	r.mu.Lock()
	r.active[s.ID] = s
	r.mu.Unlock()

	r.log.Info("session started", "user", userID, "session", s.ID, "exercise", exercise.ID)
	return clone(s), nil
}

// Update folds one frame's feedback into the session. Averages and
// repetitions come from the caller's running metrics. Unknown ids are ignored.
func (r *Recorder) Update(userID, id string, fb models.ExerciseFeedback, m models.RunningMetrics) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.lookup(userID, id)
	if s == nil {
		return
	}

	now := r.now()
	if r.feedbackLimit > 0 && len(s.Feedback) >= r.feedbackLimit {
		drop := len(s.Feedback) - r.feedbackLimit + 1
		s.Feedback = append(s.Feedback[:0], s.Feedback[drop:]...)
		s.FeedbackDropped += drop
	}
	s.Feedback = append(s.Feedback, fb)

	if fb.OverallScore > s.MaxScore {
		s.MaxScore = fb.OverallScore
	}
	if fb.OverallScore < s.MinScore {
		s.MinScore = fb.OverallScore
	}
	s.AverageScore = m.AverageScore
	s.Repetitions = m.Repetitions
	s.DurationSec = int(now.Sub(s.StartTime).Seconds())
	s.LastActivity = now
}

// Checkpoint persists the current state of an active session. Unknown ids
// are ignored.
func (r *Recorder) Checkpoint(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	s := r.lookup(userID, id)
	if s == nil {
		r.mu.Unlock()
		return nil
	}
	snap := clone(s)
	r.mu.Unlock()

	if err := r.sink.SaveSession(ctx, snap); err != nil {
		return fmt.Errorf("checkpointing session %s: %w", id, err)
	}
	return nil
}

// End finalizes the session and hands it to the Sink. It returns nil when the
// id is unknown. On a persistence failure the session stays active.
func (r *Recorder) End(ctx context.Context, userID, id, notes string) (*models.ExerciseSession, []models.Achievement, error) {
	r.mu.Lock()
	s := r.lookup(userID, id)
	if s == nil {
		r.mu.Unlock()
		return nil, nil, nil
	}
	delete(r.active, id)
	r.mu.Unlock()

	now := r.now()
	final := clone(s)
	final.EndTime = &now
	final.DurationSec = int(now.Sub(final.StartTime).Seconds())
	final.Completed = true
	final.Notes = notes
	final.LastActivity = now
	if len(final.Feedback) == 0 && final.FeedbackDropped == 0 {
		final.MinScore = 0
	}

	if err := r.sink.SaveSession(ctx, final); err != nil {
		r.mu.Lock()
		r.active[id] = s
		r.mu.Unlock()
		return nil, nil, fmt.Errorf("ending session %s: %w", id, err)
	}
	unlocked, err := r.sink.OnSessionCompleted(ctx, final)
	if err != nil {
		// The session itself is saved; only the aggregate is behind.
		r.log.Error("progress update failed", "user", userID, "session", id, "error", err)
		return final, nil, err
	}

	r.log.Info("session ended",
		"user", userID, "session", id,
		"duration_sec", final.DurationSec,
		"repetitions", final.Repetitions,
		"avg_score", final.AverageScore)
	return final, unlocked, nil
}

// Get returns a copy of an active session, or nil.
func (r *Recorder) Get(userID, id string) *models.ExerciseSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.lookup(userID, id)
	if s == nil {
		return nil
	}
	return clone(s)
}

// Stale lists active sessions with no activity since cutoff.
func (r *Recorder) Stale(cutoff time.Time) []Ref {
	r.mu.Lock()
	defer r.mu.Unlock()
	var refs []Ref
	for _, s := range r.active {
		if s.LastActivity.Before(cutoff) {
			refs = append(refs, Ref{UserID: s.UserID, ID: s.ID})
		}
	}
	return refs
}

// SetClock replaces the time source for session timestamps. Call it before
// the first Start.
func (r *Recorder) SetClock(now func() time.Time) {
	r.now = now
}

// Active reports the number of sessions in progress.
func (r *Recorder) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
