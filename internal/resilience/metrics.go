package resilience

import "github.com/prometheus/client_golang/prometheus"

// Outbound collectors carry a target label naming the dependency: media for
// the image CDN, storefront-api for the terminal client.
var (
	BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "outbound_breaker_state",
		Help: "Breaker position per target (0 closed, 1 open, 2 half-open).",
	}, []string{"target"})

	BreakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbound_breaker_transition_total",
		Help: "Breaker state changes per target.",
	}, []string{"target", "from", "to"})

	BreakerOpenedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbound_breaker_open_total",
		Help: "Times a breaker opened per target.",
	}, []string{"target"})

	// OutboundAttempts counts individual HTTP attempts, retries included.
	// outcome is ok, retryable, error or rejected (breaker open).
	OutboundAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbound_attempts_total",
		Help: "Outbound HTTP attempts per target and outcome.",
	}, []string{"target", "outcome"})
)

func init() {
	prometheus.MustRegister(BreakerState, BreakerTransitions, BreakerOpenedTotal, OutboundAttempts)
}

func countAttempt(target, outcome string) {
	if target == "" {
		target = "default"
	}
	OutboundAttempts.WithLabelValues(target, outcome).Inc()
}
