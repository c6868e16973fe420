package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

var _ Store = (*SQLite)(nil)

// SQLite stores documents in an embedded SQLite database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// A single connection serializes transactions, which is what makes Update atomic.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS documents (
		user_id    TEXT NOT NULL,
		kind       TEXT NOT NULL,
		data       BLOB NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, kind)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating documents table: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Get returns the stored document.
func (s *SQLite) Get(ctx context.Context, userID string, kind Kind) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE user_id = ? AND kind = ?`,
		userID, string(kind),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying document: %w", err)
	}
	return data, nil
}

// Set replaces the stored document.
func (s *SQLite) Set(ctx context.Context, userID string, kind Kind, data []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertSQLite, userID, string(kind), data); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}

const upsertSQLite = `INSERT INTO documents (user_id, kind, data, updated_at)
	VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT (user_id, kind) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`

// Update reads and rewrites the document inside one transaction.
func (s *SQLite) Update(ctx context.Context, userID string, kind Kind, fn UpdateFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var cur []byte
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE user_id = ? AND kind = ?`,
		userID, string(kind),
	).Scan(&cur)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("querying document: %w", err)
	}

	next, err := fn(cur)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, upsertSQLite, userID, string(kind), next); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing document: %w", err)
	}
	return nil
}

// Delete removes the document.
func (s *SQLite) Delete(ctx context.Context, userID string, kind Kind) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE user_id = ? AND kind = ?`,
		userID, string(kind),
	); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
