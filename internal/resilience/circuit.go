package resilience

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// ErrOpenCircuit is returned when the circuit breaker refuses a request.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

// State is the breaker position for one outbound target.
type State int

const (
	// Closed passes calls through and tallies their outcomes.
	Closed State = iota
	// Open refuses calls until the cooldown has elapsed.
	Open
	// HalfOpen lets a single probe through to test recovery.
	HalfOpen
)

var stateNames = [...]string{Closed: "closed", Open: "open", HalfOpen: "half_open"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// tally counts outcomes observed while closed.
type tally struct {
	ok, failed int
}

func (t tally) total() int { return t.ok + t.failed }

func (t tally) failureRatio() float64 {
	if t.total() == 0 {
		return 0
	}
	return float64(t.failed) / float64(t.total())
}

// halve keeps the ratio while bounding the counters, so old outcomes fade.
func (t tally) halve() tally {
	return tally{ok: t.ok / 2, failed: t.failed / 2}
}

// Breaker guards one outbound target (media CDN, storefront API). It opens
// when the failure ratio reaches the threshold after at least minCalls
// outcomes, stays open for cooldown, then admits one probe at a time.
type Breaker struct {
	mu        sync.Mutex
	state     State
	seen      tally
	probing   bool
	openedAt  time.Time
	minCalls  int
	threshold float64
	cooldown  time.Duration
	target    string
	logger    zerolog.Logger
	now       func() time.Time
}

// NewBreaker builds a closed breaker. Out-of-range arguments fall back to one
// call, a 50% threshold and a 30s cooldown.
func NewBreaker(minCalls int, threshold float64, cooldown time.Duration) *Breaker {
	if minCalls <= 0 {
		minCalls = 1
	}
	if threshold <= 0 {
		threshold = 0.5
	}
	threshold = min(threshold, 1)
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{
		minCalls:  minCalls,
		threshold: threshold,
		cooldown:  cooldown,
		target:    "default",
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
}

// WithTarget names the dependency in metrics and logs.
func (b *Breaker) WithTarget(target string) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t := strings.TrimSpace(target); t != "" {
		b.target = t
	}
	b.publishState()
	return b
}

// WithLogger sets the logger used when no logger travels on the context.
func (b *Breaker) WithLogger(logger zerolog.Logger) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger = logger
	return b
}

// State reports the current position.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allow reports whether a call may go out now. An open breaker whose cooldown
// has elapsed moves to half-open and admits the caller as the probe.
func (b *Breaker) Allow(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return true
	case Open:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return false
		}
		b.moveTo(ctx, HalfOpen)
		b.probing = true
		return true
	default:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	}
}

// Report feeds the outcome of an admitted call back into the breaker.
func (b *Breaker) Report(ctx context.Context, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		return
	case HalfOpen:
		b.probing = false
		if success {
			b.moveTo(ctx, Closed)
		} else {
			b.moveTo(ctx, Open)
		}
		return
	}

	if success {
		b.seen.ok++
	} else {
		b.seen.failed++
	}
	if b.seen.total() < b.minCalls {
		return
	}
	if b.seen.failureRatio() >= b.threshold {
		b.moveTo(ctx, Open)
		return
	}
	if b.seen.total() > 2*b.minCalls {
		b.seen = b.seen.halve()
	}
}

func (b *Breaker) moveTo(ctx context.Context, next State) {
	prev := b.state
	b.state = next
	b.seen = tally{}
	switch next {
	case Open:
		b.openedAt = b.now()
	case Closed:
		b.openedAt = time.Time{}
	}
	b.publishState()
	if prev == next {
		return
	}

	BreakerTransitions.WithLabelValues(b.target, prev.String(), next.String()).Inc()
	if next == Open {
		BreakerOpenedTotal.WithLabelValues(b.target).Inc()
	}
	logger := b.logger
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		logger = *l
	}
	evt := logger.Info().Str("target", b.target).Str("from_state", prev.String()).Str("to_state", next.String())
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		evt = evt.Str("trace_id", sc.TraceID().String())
	}
	evt.Msg("breaker_transition")
}

func (b *Breaker) publishState() {
	BreakerState.WithLabelValues(b.target).Set(float64(b.state))
}

// maxBackoff caps the retry delay however many attempts were made.
const maxBackoff = 30 * time.Second

// Backoff returns base doubled per attempt after the first, capped at 30s.
// jitter is a fraction (0.2 spreads the delay by up to ±20%).
func Backoff(base time.Duration, attempt int, jitter float64) time.Duration {
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	attempt = max(attempt, 1)
	d := base
	for i := 1; i < attempt && d < maxBackoff; i++ {
		d *= 2
	}
	d = min(d, maxBackoff)
	if jitter <= 0 {
		return d
	}
	spread := float64(d) * jitter
	return d + time.Duration((rand.Float64()*2-1)*spread)
}
