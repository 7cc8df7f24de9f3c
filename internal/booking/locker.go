package booking

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBusy is returned when the per-master lock cannot be acquired within
// the configured wait bound. Retryable with backoff.
var ErrBusy = errors.New("master is busy, retry later")

// masterLocker serializes booking mutations per master. Availability is
// scoped by master_id, so unrelated masters never contend.
type masterLocker struct {
	mu      sync.Mutex
	locks   map[int64]chan struct{}
	maxWait time.Duration
}

func newMasterLocker(maxWait time.Duration) *masterLocker {
	if maxWait <= 0 {
		maxWait = 3 * time.Second
	}
	return &masterLocker{
		locks:   make(map[int64]chan struct{}),
		maxWait: maxWait,
	}
}

// Acquire takes the lock for masterID, waiting at most maxWait.
// Returns ErrBusy on timeout and ctx.Err() on cancellation before entry;
// once acquired, the critical section runs to completion regardless of
// caller cancellation.
func (l *masterLocker) Acquire(ctx context.Context, masterID int64) error {
	l.mu.Lock()
	ch, ok := l.locks[masterID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[masterID] = ch
	}
	l.mu.Unlock()

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrBusy
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees the lock for masterID.
func (l *masterLocker) Release(masterID int64) {
	l.mu.Lock()
	ch := l.locks[masterID]
	l.mu.Unlock()
	if ch != nil {
		select {
		case <-ch:
		default:
		}
	}
}
