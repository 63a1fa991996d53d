package locking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SscSPs/construction_ledger/internal/apperrors"
	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "distribution:"

// RedisProjectLocker holds a redis lock per project for the length of a run.
type RedisProjectLocker struct {
	locker *redislock.Client
	ttl    time.Duration
	retry  redislock.RetryStrategy
}

// NewRedisProjectLocker builds a locker on client. ttl bounds how long a crashed
// holder can block the project; a live holder refreshes the lock every ttl/2.
// Waiting callers retry until ttl or their context ends.
func NewRedisProjectLocker(client *redis.Client, ttl time.Duration) *RedisProjectLocker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisProjectLocker{
		locker: redislock.New(client),
		ttl:    ttl,
		retry:  redislock.LinearBackoff(250 * time.Millisecond),
	}
}

func (l *RedisProjectLocker) Lock(ctx context.Context, projectID string) (func(), error) {
	lock, err := l.locker.Obtain(ctx, redisKeyPrefix+projectID, l.ttl, &redislock.Options{RetryStrategy: l.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: project %s", apperrors.ErrDistributionInProgress, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain lock for project %s: %w", projectID, err)
	}
	return keepAlive(ctx, lock, projectID, l.ttl, l.ttl/2), nil
}

// heldLock is the part of *redislock.Lock a holder needs.
type heldLock interface {
	Refresh(ctx context.Context, ttl time.Duration, opt *redislock.Options) error
	Release(ctx context.Context) error
}

// keepAlive extends lock by ttl every interval until the returned unlock runs.
// A failed refresh stops the loop; the lock then lapses after ttl.
func keepAlive(ctx context.Context, lock heldLock, projectID string, ttl, interval time.Duration) func() {
	base := context.WithoutCancel(ctx)
	refreshCtx, stop := context.WithCancel(base)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-refreshCtx.Done():
				return
			case <-ticker.C:
				if err := lock.Refresh(refreshCtx, ttl, nil); err != nil {
					if refreshCtx.Err() == nil {
						slog.Warn("Failed to refresh project lock", slog.String("project_id", projectID), slog.String("error", err.Error()))
					}
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			stop()
			<-done
			_ = lock.Release(base)
		})
	}
}
