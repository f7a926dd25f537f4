package scoreboarddb

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// WriterLock is a session-level Postgres advisory lock that keeps a second
// process from folding the same contest.
type WriterLock struct {
	conn *pgxpool.Conn
	key  int64
}

// LockKey maps a contest id onto the advisory lock key space.
func LockKey(contestID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("srk-board:" + contestID))
	return int64(h.Sum64())
}

// AcquireWriterLock returns ErrLockHeld when another session owns the lock.
// The pooled connection stays checked out until Release.
func AcquireWriterLock(ctx context.Context, pool *pgxpool.Pool, contestID string) (*WriterLock, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection for writer lock: %w", err)
	}

	key := LockKey(contestID)
	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&locked); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to take writer lock: %w", err)
	}
	if !locked {
		conn.Release()
		return nil, fmt.Errorf("contest %s: %w", contestID, ErrLockHeld)
	}
	return &WriterLock{conn: conn, key: key}, nil
}

func (l *WriterLock) Release(ctx context.Context) error {
	defer l.conn.Release()
	if _, err := l.conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", l.key); err != nil {
		return fmt.Errorf("failed to release writer lock: %w", err)
	}
	return nil
}
