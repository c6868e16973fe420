package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/claude/kinetic/internal/config"
)

// Open builds the Store selected by storage.driver. Postgres migrations are
// applied before the pool is created.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		log.Warn("using in-memory storage, data is lost on restart")
		return NewMemory(), nil
	case config.DriverSQLite, "":
		st, err := OpenSQLite(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		log.Info("sqlite storage opened", "path", cfg.Storage.Path)
		return st, nil
	case config.DriverPostgres:
		dsn := cfg.Database.DSN()
		if err := RunMigrations(dsn, cfg.Storage.Migrations); err != nil {
			return nil, err
		}
		log.Info("migrations applied")
		db, err := New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		log.Info("database connected", "host", cfg.Database.Host, "name", cfg.Database.Name)
		return db, nil
	case config.DriverRedis:
		r, err := OpenRedis(ctx, RedisOptions{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		log.Info("redis storage connected", "addr", cfg.Redis.Addr)
		return r, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
