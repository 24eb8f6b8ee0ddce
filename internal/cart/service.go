package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/rakhimart/internal/cache"
	"github.com/noah-isme/rakhimart/internal/lock"
)

// Sessions manages server-side carts, one Redis-backed Store per session id.
// Mutations on the same session are serialised with a distributed lock.
type Sessions struct {
	Redis   *redis.Client
	Locker  lock.Locker
	TTL     time.Duration
	LockTTL time.Duration
	Diag    Diagnostics
}

func (s *Sessions) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func (s *Sessions) lockTTL() time.Duration {
	if s == nil || s.LockTTL <= 0 {
		return 5 * time.Second
	}
	return s.LockTTL
}

// New allocates a fresh session id.
func (s *Sessions) New() string {
	return uuid.NewString()
}

// ParseSession normalises a session id.
func ParseSession(raw string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidSession, raw)
	}
	return id.String(), nil
}

// View loads the session cart without taking the lock. The returned store must
// not be mutated.
func (s *Sessions) View(ctx context.Context, session string) (*Store, error) {
	if s == nil || s.Redis == nil {
		return nil, errors.New("cart sessions not configured")
	}
	id, err := ParseSession(session)
	if err != nil {
		return nil, err
	}
	return NewStore(ctx, s.persistence(id), s.Diag), nil
}

// With loads the session cart under its lock and runs fn against it. A cart
// whose snapshot cannot be read is not handed to fn: the mutation would be
// lost with the request, and fn never runs so the stored record survives.
func (s *Sessions) With(ctx context.Context, session string, fn func(context.Context, *Store) error) error {
	if s == nil || s.Redis == nil {
		return errors.New("cart sessions not configured")
	}
	id, err := ParseSession(session)
	if err != nil {
		return err
	}
	locker := s.Locker
	if locker.R == nil {
		locker.R = s.Redis
	}
	return locker.WithLock(ctx, cache.KeyCartLock(id), s.lockTTL(), func(ctx context.Context) error {
		store := NewStore(ctx, s.persistence(id), s.Diag)
		if store.Detached() {
			return store.PersistenceErr()
		}
		return fn(ctx, store)
	})
}

func (s *Sessions) persistence(id string) *RedisPersistence {
	return &RedisPersistence{Client: s.Redis, Key: cache.KeyCart(id), TTL: s.ttl()}
}
