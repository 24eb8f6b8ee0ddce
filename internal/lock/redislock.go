package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the lock could not be taken within the wait budget.
var ErrNotAcquired = errors.New("lock: not acquired")

// ErrLeaseLost is returned by Lease.Release when the key expired or was taken
// over before release.
var ErrLeaseLost = errors.New("lock: lease lost")

// compareAndDelete removes the key only while it still holds the caller's token.
var compareAndDelete = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out Redis leases that serialise mutations of one session cart
// across API replicas.
type Locker struct {
	R            *redis.Client
	RetryBackoff time.Duration
	// MaxWait bounds how long Acquire polls a busy key. Zero waits until the
	// context is done.
	MaxWait time.Duration
}

// Lease is a held lock. It expires on its own after the TTL it was taken with.
type Lease struct {
	client *redis.Client
	key    string
	token  string
}

// Acquire polls until key is free, the wait budget runs out (ErrNotAcquired)
// or ctx is done.
func (l Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lease, error) {
	if l.R == nil {
		return nil, errors.New("lock: redis client not configured")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	retry := l.RetryBackoff
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	var giveUp <-chan time.Time
	if l.MaxWait > 0 {
		t := time.NewTimer(l.MaxWait)
		defer t.Stop()
		giveUp = t.C
	}

	lease := &Lease{client: l.R, key: key, token: uuid.NewString()}
	ticker := time.NewTicker(retry)
	defer ticker.Stop()
	for {
		ok, err := l.R.SetNX(ctx, key, lease.token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		if ok {
			return lease, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-giveUp:
			return nil, fmt.Errorf("%w: %s", ErrNotAcquired, key)
		case <-ticker.C:
		}
	}
}

// Release gives the key back if this lease still owns it.
func (ls *Lease) Release(ctx context.Context) error {
	n, err := compareAndDelete.Run(ctx, ls.client, []string{ls.key}, ls.token).Int64()
	if err != nil {
		return fmt.Errorf("release %s: %w", ls.key, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrLeaseLost, ls.key)
	}
	return nil
}

// WithLock runs fn while holding key. The lease is released even when fn
// fails; a release error is only reported when fn succeeded.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) (err error) {
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	lease, err := l.Acquire(ctx, key, ttl)
	if err != nil {
		return err
	}
	defer func() {
		if relErr := lease.Release(context.WithoutCancel(ctx)); relErr != nil && err == nil {
			err = relErr
		}
	}()
	return fn(ctx)
}
