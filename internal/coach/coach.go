// Package coach runs active sessions: each frame goes through the evaluator
// and the session's tracker, and the outcome is recorded.
package coach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/kinetic/internal/catalog"
	"github.com/claude/kinetic/internal/evaluator"
	"github.com/claude/kinetic/internal/models"
	"github.com/claude/kinetic/internal/progress"
	"github.com/claude/kinetic/internal/session"
	"github.com/claude/kinetic/internal/tracker"
)

// ErrUnknownSession is returned for session ids that are not active for the user.
var ErrUnknownSession = errors.New("unknown session")

// StaleNote is attached to sessions ended by the reaper.
const StaleNote = "ended after inactivity"

// Started describes a newly begun session.
type Started struct {
	Session  *models.ExerciseSession    `json:"session"`
	Exercise *models.ExerciseDefinition `json:"exercise"`
	Step     tracker.Step               `json:"step"`
}

// FrameResult is the outcome of one pose frame.
type FrameResult struct {
	tracker.Step
	Cue string `json:"cue,omitempty"`
}

// Finished is an ended session plus any achievements it unlocked.
type Finished struct {
	Session      *models.ExerciseSession `json:"session"`
	Achievements []models.Achievement    `json:"achievements"`
}

type active struct {
	mu      sync.Mutex
	userID  string
	tracker *tracker.Tracker
}

// Service owns one tracker per active session.
type Service struct {
	catalog       *catalog.Catalog
	eval          *evaluator.Evaluator
	recorder      *session.Recorder
	progress      *progress.Aggregator
	log           *slog.Logger
	defaultTarget int
	now           func() time.Time

	mu       sync.Mutex
	sessions map[string]*active
}

// New wires a Service. defaultTarget applies when Begin is given no target;
// zero defers to each exercise's recommended repetitions.
func New(cat *catalog.Catalog, eval *evaluator.Evaluator, rec *session.Recorder, agg *progress.Aggregator, defaultTarget int, log *slog.Logger) *Service {
	return &Service{
		catalog:       cat,
		eval:          eval,
		recorder:      rec,
		progress:      agg,
		log:           log,
		defaultTarget: defaultTarget,
		now:           time.Now,
		sessions:      make(map[string]*active),
	}
}

// SetClock replaces the time source of the service and its recorder. Replays
// pass a clock driven by frame timestamps so durations reflect the recording.
// Call it before the first Begin.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
	s.recorder.SetClock(now)
}

// Catalog returns the exercise catalog.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// Progress returns the progress aggregator.
func (s *Service) Progress() *progress.Aggregator { return s.progress }

func (s *Service) lookup(userID, sessionID string) (*active, error) {
	s.mu.Lock()
	a, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok || a.userID != userID {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	return a, nil
}

// Begin starts a session of exerciseID for userID.
func (s *Service) Begin(ctx context.Context, userID, exerciseID string, target int) (*Started, error) {
	ex, err := s.catalog.ByID(exerciseID)
	if err != nil {
		return nil, err
	}
	if target <= 0 {
		target = s.defaultTarget
	}

	sess, err := s.recorder.Start(ctx, userID, ex)
	if err != nil {
		return nil, err
	}
	tr := tracker.New(s.eval, ex, target)
	tr.Start()

	s.mu.Lock()
	s.sessions[sess.ID] = &active{userID: userID, tracker: tr}
	s.mu.Unlock()

	return &Started{Session: sess, Exercise: ex, Step: tr.Snapshot()}, nil
}

// Frame evaluates one pose frame. The session is persisted whenever a phase
// completes, not on every frame.
func (s *Service) Frame(ctx context.Context, userID, sessionID string, frame models.PoseFrame) (*FrameResult, error) {
	a, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	step := a.tracker.Step(frame)
	metrics := a.tracker.Metrics()
	a.mu.Unlock()

	res := &FrameResult{Step: step}
	if step.Feedback == nil {
		return res, nil
	}
	res.Cue = evaluator.VoiceCue(*step.Feedback)

	s.recorder.Update(userID, sessionID, *step.Feedback, metrics)
	if step.PhaseAdvanced {
		if err := s.recorder.Checkpoint(ctx, userID, sessionID); err != nil {
			s.log.Warn("checkpoint failed", "user", userID, "session", sessionID, "error", err)
		}
	}
	if step.RepetitionCompleted {
		s.log.Debug("repetition completed", "session", sessionID, "repetitions", step.Repetitions)
	}
	return res, nil
}

// Resync moves the session to the phase that best matches frame.
func (s *Service) Resync(_ context.Context, userID, sessionID string, frame models.PoseFrame) (int, error) {
	a, err := s.lookup(userID, sessionID)
	if err != nil {
		return 0, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tracker.Resync(frame), nil
}

// Finish ends the session and rolls it into the user's progress.
func (s *Service) Finish(ctx context.Context, userID, sessionID, notes string) (*Finished, error) {
	if _, err := s.lookup(userID, sessionID); err != nil {
		return nil, err
	}

	final, unlocked, err := s.recorder.End(ctx, userID, sessionID, notes)
	if final == nil {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	// A failed progress update is logged by the recorder; the session itself
	// is already stored.
	if err != nil || unlocked == nil {
		unlocked = []models.Achievement{}
	}
	return &Finished{Session: final, Achievements: unlocked}, nil
}

// Session returns an active session, or a persisted one.
func (s *Service) Session(ctx context.Context, userID, sessionID string) (*models.ExerciseSession, error) {
	if sess := s.recorder.Get(userID, sessionID); sess != nil {
		return sess, nil
	}
	sess, err := s.progress.Session(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	return sess, nil
}

// ReapStale ends every session idle for longer than idle and returns how many
// were ended.
func (s *Service) ReapStale(ctx context.Context, idle time.Duration) int {
	n := 0
	for _, ref := range s.recorder.Stale(s.now().Add(-idle)) {
		if _, err := s.Finish(ctx, ref.UserID, ref.ID, StaleNote); err != nil {
			s.log.Warn("reaping stale session failed", "user", ref.UserID, "session", ref.ID, "error", err)
			continue
		}
		s.log.Info("stale session ended", "user", ref.UserID, "session", ref.ID)
		n++
	}
	if n > 0 {
		s.log.Info("reaper pass", "ended", n, "active", s.recorder.Active())
	}
	return n
}

// RunReaper calls ReapStale every interval until ctx is done.
func (s *Service) RunReaper(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ReapStale(ctx, idle)
		}
	}
}
