package ratelimit

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/rakhimart/internal/common"
)

// Allower decides whether another event for key fits within the window.
type Allower interface {
	Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error)
}

// KeyFunc derives the bucket a request is counted against.
type KeyFunc func(*http.Request) string

// Config describes how to derive a rate limit key and thresholds.
type Config struct {
	Key    KeyFunc
	Window time.Duration
	Max    int
}

// ByClientIP counts requests per caller address within scope.
func ByClientIP(scope string) KeyFunc {
	return func(r *http.Request) string {
		return scope + ":ip:" + common.ClientIP(r)
	}
}

// ByCartSession counts requests per cart session so one shopper hammering a
// cart cannot starve others behind the same NAT. Routes without a session
// parameter fall back to the client address.
func ByCartSession(scope string) KeyFunc {
	byIP := ByClientIP(scope)
	return func(r *http.Request) string {
		if session := chi.URLParam(r, "session"); session != "" {
			return scope + ":session:" + session
		}
		return byIP(r)
	}
}

// Handler enforces Config in front of next. Limiter errors fail open and are
// reported through OnError.
type Handler struct {
	Limiter Allower
	Config  Config
	OnError func(error)
}

// Middleware sets X-RateLimit-* headers on every counted request and answers
// 429 RATE_LIMITED with Retry-After once the bucket is full.
func (h Handler) Middleware(next http.Handler) http.Handler {
	if h.Config.Key == nil || h.Limiter == nil {
		return next
	}
	limit := strconv.Itoa(max(h.Config.Max, 0))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, remaining, resetAt, err := h.Limiter.Allow(r.Context(), h.Config.Key(r), h.Config.Window, h.Config.Max)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		hdr := w.Header()
		hdr.Set("X-RateLimit-Limit", limit)
		hdr.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		hdr.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
		if allowed {
			next.ServeHTTP(w, r)
			return
		}
		hdr.Set("Retry-After", strconv.Itoa(retryAfterSeconds(resetAt)))
		common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded", nil)
	})
}

// retryAfterSeconds rounds up so clients never retry before the reset.
func retryAfterSeconds(resetAt time.Time) int {
	secs := math.Ceil(time.Until(resetAt).Seconds())
	return max(int(secs), 1)
}
