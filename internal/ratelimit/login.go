package ratelimit

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"

	"github.com/noah-isme/rakhimart/internal/common"
)

// NewLoginLimiter returns middleware limiting login attempts per client IP.
// rate uses the limiter format, e.g. "5-M" for five attempts per minute.
// Store errors reject the attempt with 503.
func NewLoginLimiter(store limiter.Store, rate string, logger zerolog.Logger) (func(http.Handler) http.Handler, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse login rate %q: %w", rate, err)
	}
	instance := limiter.New(store, parsed)
	mw := stdlib.NewMiddleware(instance,
		stdlib.WithKeyGetter(func(r *http.Request) string {
			return "login:" + common.ClientIP(r)
		}),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many login attempts, try again later", nil)
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Warn().Err(err).Msg("login rate limiter unavailable")
			common.JSONError(w, http.StatusServiceUnavailable, "RATE_LIMIT_UNAVAILABLE", "login temporarily unavailable", nil)
		}),
	)
	return mw.Handler, nil
}
