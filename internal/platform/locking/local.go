// Package locking serializes distribution runs per project.
package locking

import (
	"context"
	"fmt"
	"sync"

	"github.com/SscSPs/construction_ledger/internal/apperrors"
)

// LocalProjectLocker is an in-process keyed mutex. It only protects a single
// instance; use RedisProjectLocker when several instances share a database.
type LocalProjectLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocalProjectLocker() *LocalProjectLocker {
	return &LocalProjectLocker{slots: make(map[string]*slot)}
}

// Lock waits for projectID to be free or for ctx to end.
func (l *LocalProjectLocker) Lock(ctx context.Context, projectID string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[projectID]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[projectID] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(projectID, s)
		return nil, fmt.Errorf("%w: project %s: %w", apperrors.ErrDistributionInProgress, projectID, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.release(projectID, s)
		})
	}, nil
}

func (l *LocalProjectLocker) release(projectID string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, projectID)
	}
}
