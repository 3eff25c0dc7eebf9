package keylock

import (
	"context"
	"sync"
	"time"

	"github.com/iho/fxoffice/internal/domain"
)

// Locker is an in-process keyed mutex. It serializes mutations per key
// within a single server instance; deployments running several instances
// should use the Redis-backed locker instead.
type Locker struct {
	mu      sync.Mutex
	keys    map[string]chan struct{}
	timeout time.Duration
}

// New creates a Locker whose Acquire gives up after timeout.
func New(timeout time.Duration) *Locker {
	return &Locker{
		keys:    make(map[string]chan struct{}),
		timeout: timeout,
	}
}

// Acquire blocks until the key is free, the timeout elapses, or the
// context is cancelled. The returned function releases the key.
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	deadline := time.NewTimer(l.timeout)
	defer deadline.Stop()

	for {
		l.mu.Lock()
		holder, busy := l.keys[key]
		if !busy {
			done := make(chan struct{})
			l.keys[key] = done
			l.mu.Unlock()

			release := func() {
				l.mu.Lock()
				delete(l.keys, key)
				l.mu.Unlock()
				close(done)
			}
			return release, nil
		}
		l.mu.Unlock()

		select {
		case <-holder:
		case <-deadline.C:
			return nil, domain.ErrContentionTimeout
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
