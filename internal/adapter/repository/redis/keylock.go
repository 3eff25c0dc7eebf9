package redis

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iho/fxoffice/internal/domain"
)

// unlockScript releases a lock only when the caller still owns it.
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// KeyLocker serializes mutations across processes using Redis SET NX.
// Each acquisition stores a random token so a release cannot delete a
// lock that has already expired and been picked up by another holder.
type KeyLocker struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	timeout time.Duration
}

// NewKeyLocker creates a distributed KeyLocker. ttl bounds how long a
// crashed holder can keep a key busy; timeout bounds how long Acquire
// waits before giving up with domain.ErrContentionTimeout.
func NewKeyLocker(client *redis.Client, ttl, timeout time.Duration) *KeyLocker {
	return &KeyLocker{
		client:  client,
		prefix:  "lock:",
		ttl:     ttl,
		timeout: timeout,
	}
}

// Acquire blocks until the key is free, the timeout elapses, or the
// context is cancelled. The returned function releases the lock.
func (l *KeyLocker) Acquire(ctx context.Context, key string) (func(), error) {
	fullKey := l.prefix + key
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxInterval = 250 * time.Millisecond
	bo.MaxElapsedTime = 0

	attempt := func() error {
		ok, err := l.client.SetNX(waitCtx, fullKey, token, l.ttl).Result()
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return domain.ErrContentionTimeout
		}
		return nil
	}

	if err := backoff.Retry(attempt, backoff.WithContext(bo, waitCtx)); err != nil {
		if waitCtx.Err() != nil && ctx.Err() == nil {
			return nil, domain.ErrContentionTimeout
		}
		return nil, err
	}

	release := func() {
		releaseCtx, releaseCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer releaseCancel()
		_ = unlockScript.Run(releaseCtx, l.client, []string{fullKey}, token).Err()
	}

	return release, nil
}
