package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Store = (*DB)(nil)

// DB is a PostgreSQL-backed Store wrapping a pgxpool.Pool.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new DB with a connection pool.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	db.Pool.Close()
	return nil
}

// RunMigrations applies all pending migrations from the given directory.
func RunMigrations(dsn, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Get returns the stored document.
func (db *DB) Get(ctx context.Context, userID string, kind Kind) ([]byte, error) {
	var data []byte
	err := db.Pool.QueryRow(ctx,
		`SELECT data FROM documents WHERE user_id = $1 AND kind = $2`,
		userID, string(kind),
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying document: %w", err)
	}
	return data, nil
}

const upsertPostgres = `INSERT INTO documents (user_id, kind, data, updated_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (user_id, kind) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`

// Set replaces the stored document.
func (db *DB) Set(ctx context.Context, userID string, kind Kind, data []byte) error {
	if _, err := db.Pool.Exec(ctx, upsertPostgres, userID, string(kind), data); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}

// Update serializes writers on a transaction-scoped advisory lock for the
// (user, kind) pair, so it also covers documents that do not exist yet.
func (db *DB) Update(ctx context.Context, userID string, kind Kind, fn UpdateFunc) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`,
		userID+"/"+string(kind),
	); err != nil {
		return fmt.Errorf("locking document: %w", err)
	}

	var cur []byte
	err = tx.QueryRow(ctx,
		`SELECT data FROM documents WHERE user_id = $1 AND kind = $2`,
		userID, string(kind),
	).Scan(&cur)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("querying document: %w", err)
	}

	next, err := fn(cur)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, upsertPostgres, userID, string(kind), next); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing document: %w", err)
	}
	return nil
}

// Delete removes the document.
func (db *DB) Delete(ctx context.Context, userID string, kind Kind) error {
	if _, err := db.Pool.Exec(ctx,
		`DELETE FROM documents WHERE user_id = $1 AND kind = $2`,
		userID, string(kind),
	); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}
