package storage

import (
	"context"
	"errors"
)

// Kind names one of the per-user documents.
type Kind string

const (
	KindSessions Kind = "sessions"
	KindProgress Kind = "progress"
	KindGoals    Kind = "goals"
)

// FeedbackKind names the document holding one session's feedback log. It is
// written once, when the session ends.
func FeedbackKind(sessionID string) Kind {
	return Kind("feedback:" + sessionID)
}

// ErrNotFound is returned by Get when the user has no document of that kind.
var ErrNotFound = errors.New("document not found")

// UpdateFunc receives the current document, nil when none exists, and returns
// its replacement.
type UpdateFunc func(current []byte) ([]byte, error)

// Store is a key-value document store keyed by user id and record kind.
type Store interface {
	Get(ctx context.Context, userID string, kind Kind) ([]byte, error)
	Set(ctx context.Context, userID string, kind Kind, data []byte) error
	// Update performs read-modify-write as a single atomic commit. If fn
	// returns an error nothing is written.
	Update(ctx context.Context, userID string, kind Kind, fn UpdateFunc) error
	// Delete removes the document. A missing document is not an error.
	Delete(ctx context.Context, userID string, kind Kind) error
	Close() error
}
