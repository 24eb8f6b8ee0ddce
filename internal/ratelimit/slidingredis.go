package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingScript trims hits older than the window and admits the new hit only
// while the window has room, so rejected calls never extend a lockout.
// It returns {admitted, hits, oldestHitMillis}.
const slidingScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
redis.call("ZREMRANGEBYSCORE", key, "-inf", now - window)
local hits = redis.call("ZCARD", key)
local admitted = 0
if hits < max then
  redis.call("ZADD", key, now, ARGV[4])
  hits = hits + 1
  admitted = 1
end
if hits > 0 then
  redis.call("PEXPIRE", key, window)
end
local first = now
local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
if oldest[2] then
  first = tonumber(oldest[2])
end
return {admitted, hits, first}
`

// SlidingWindow limits requests per key over a rolling window using a Redis
// sorted set of hit timestamps.
type SlidingWindow struct {
	Client *redis.Client
	Prefix string
}

// Allow records a hit for key when the window still has room. reset is the
// moment the oldest counted hit leaves the window.
func (s SlidingWindow) Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error) {
	now := time.Now()
	if s.Client == nil || max <= 0 || window <= 0 {
		return true, max, now.Add(window), nil
	}

	member := fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString())
	res, err := s.Client.Eval(ctx, slidingScript, []string{s.Prefix + key},
		now.UnixMilli(), window.Milliseconds(), max, member).Int64Slice()
	if err != nil {
		return false, 0, now.Add(window), fmt.Errorf("sliding window %s: %w", key, err)
	}
	if len(res) != 3 {
		return false, 0, now.Add(window), fmt.Errorf("sliding window %s: unexpected reply %v", key, res)
	}

	remaining = max - int(res[1])
	if remaining < 0 {
		remaining = 0
	}
	reset = time.UnixMilli(res[2]).Add(window)
	return res[0] == 1, remaining, reset, nil
}
