package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

var _ Store = (*Redis)(nil)

const redisUpdateRetries = 100

// Redis stores each document under "<prefix><user>:<kind>".
type Redis struct {
	rdb    *goredis.Client
	prefix string
}

// RedisOptions configures OpenRedis.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// OpenRedis connects and pings the server.
func OpenRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Redis{rdb: rdb, prefix: opts.KeyPrefix}, nil
}

func (r *Redis) key(userID string, kind Kind) string {
	return r.prefix + userID + ":" + string(kind)
}

// Get returns the stored document.
func (r *Redis) Get(ctx context.Context, userID string, kind Kind) ([]byte, error) {
	data, err := r.rdb.Get(ctx, r.key(userID, kind)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

// Set replaces the stored document.
func (r *Redis) Set(ctx context.Context, userID string, kind Kind, data []byte) error {
	if err := r.rdb.Set(ctx, r.key(userID, kind), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Update uses optimistic locking: WATCH the key, write in MULTI/EXEC, and
// retry when another writer got there first.
func (r *Redis) Update(ctx context.Context, userID string, kind Kind, fn UpdateFunc) error {
	key := r.key(userID, kind)
	txf := func(tx *goredis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return fmt.Errorf("redis get: %w", err)
		}
		next, err := fn(cur)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < redisUpdateRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("redis update %s: too much contention", key)
}

// Delete removes the document.
func (r *Redis) Delete(ctx context.Context, userID string, kind Kind) error {
	if err := r.rdb.Del(ctx, r.key(userID, kind)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
