package postgres

import (
	"context"
	"sync"
	"time"

	pkgerrors "ideabox/pkg/errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AdvisoryLock serializes title checks across instances with session-level
// advisory locks. The connection holding a lock stays checked out until release.
type AdvisoryLock struct {
	pool    *pgxpool.Pool
	timeout time.Duration
	retry   time.Duration
}

func NewAdvisoryLock(pool *pgxpool.Pool) *AdvisoryLock {
	return &AdvisoryLock{pool: pool, timeout: 5 * time.Second, retry: 50 * time.Millisecond}
}

// WithTimings overrides how long Acquire waits and how often it polls.
func (l *AdvisoryLock) WithTimings(timeout, retry time.Duration) *AdvisoryLock {
	l.timeout = timeout
	l.retry = retry
	return l
}

// Acquire blocks until the lock for key is held, the timeout passes or ctx ends.
func (l *AdvisoryLock) Acquire(ctx context.Context, key string) (func(), error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, mapError("acquire lock connection", err)
	}

	deadline := time.Now().Add(l.timeout)
	for {
		var locked bool
		err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock(hashtextextended($1, 0))", key).Scan(&locked)
		if err != nil {
			conn.Release()
			return nil, mapError("acquire lock", err)
		}
		if locked {
			break
		}
		if time.Now().After(deadline) {
			conn.Release()
			return nil, pkgerrors.NewLockNotAcquiredError(key)
		}

		select {
		case <-ctx.Done():
			conn.Release()
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			_, _ = conn.Exec(context.Background(), "SELECT pg_advisory_unlock(hashtextextended($1, 0))", key)
			conn.Release()
		})
	}, nil
}
