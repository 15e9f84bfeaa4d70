// Package distlock provides short-lived distributed locks. Redis is used when
// available; PostgreSQL advisory locks are the fallback.
package distlock

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DistLock is the interface for distributed locking.
// A lock instance belongs to one caller; build a new one per critical section.
type DistLock interface {
	// Acquire tries to acquire the lock without blocking.
	Acquire(ctx context.Context) (bool, error)
	// Release releases the lock if we still own it.
	Release(ctx context.Context) error
}

// NewLock creates a distributed lock using the best available backend.
func NewLock(redisClient *redis.Client, db *sql.DB, key string, ttl time.Duration) DistLock {
	if redisClient != nil {
		return NewRedisLock(redisClient, key, ttl)
	}
	return NewPGAdvisoryLock(db, key)
}

// Factory builds locks against fixed backends.
type Factory struct {
	redis *redis.Client
	db    *sql.DB
}

// NewFactory returns a lock factory. Either backend may be nil, but not both.
func NewFactory(redisClient *redis.Client, db *sql.DB) *Factory {
	return &Factory{redis: redisClient, db: db}
}

// NewLock returns a fresh lock for key.
func (f *Factory) NewLock(key string, ttl time.Duration) DistLock {
	return NewLock(f.redis, f.db, key, ttl)
}

// PGAdvisoryLock implements DistLock with session-scoped PostgreSQL advisory
// locks. The lock is dropped with the connection if the process dies.
//
// Session locks are tied to a single connection, so the lock pins one
// connection from the pool between Acquire and Release.
type PGAdvisoryLock struct {
	db     *sql.DB
	conn   *sql.Conn
	lockID int64
}

// NewPGAdvisoryLock creates a PG advisory lock whose id is the FNV-64a hash
// of key.
func NewPGAdvisoryLock(db *sql.DB, key string) *PGAdvisoryLock {
	h := fnv.New64a()
	h.Write([]byte(key))
	return &PGAdvisoryLock{
		db:     db,
		lockID: int64(h.Sum64()),
	}
}

// Acquire calls pg_try_advisory_lock, which returns immediately.
func (l *PGAdvisoryLock) Acquire(ctx context.Context) (bool, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, err
	}
	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.lockID).Scan(&acquired); err != nil {
		conn.Close()
		return false, err
	}
	if !acquired {
		conn.Close()
		return false, nil
	}
	l.conn = conn
	return true, nil
}

// Release unlocks and returns the pinned connection to the pool. If the
// unlock fails the connection is discarded instead, since its session may
// still hold the lock.
func (l *PGAdvisoryLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}
	conn := l.conn
	l.conn = nil

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockID); err != nil {
		conn.Raw(func(any) error { return driver.ErrBadConn })
		return fmt.Errorf("advisory unlock %d: %w", l.lockID, err)
	}
	return conn.Close()
}
