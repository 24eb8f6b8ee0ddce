package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisPersistence keeps a cart snapshot under a single key with a sliding TTL.
type RedisPersistence struct {
	Client *redis.Client
	Key    string
	TTL    time.Duration
}

// Load implements Persistence.
func (p *RedisPersistence) Load(ctx context.Context) ([]byte, error) {
	if p == nil || p.Client == nil {
		return nil, errors.New("redis persistence not configured")
	}
	data, err := p.Client.Get(ctx, p.Key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSnapshotMissing
		}
		return nil, fmt.Errorf("load %s: %w", p.Key, err)
	}
	return data, nil
}

// Save implements Persistence.
func (p *RedisPersistence) Save(ctx context.Context, data []byte) error {
	if p == nil || p.Client == nil {
		return errors.New("redis persistence not configured")
	}
	if err := p.Client.Set(ctx, p.Key, data, p.TTL).Err(); err != nil {
		return fmt.Errorf("save %s: %w", p.Key, err)
	}
	return nil
}
