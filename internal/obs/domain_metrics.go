package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CartAnomaliesTotal counts rejected cart mutations and persistence problems.
	CartAnomaliesTotal *prometheus.CounterVec
	// CheckoutHandoffsTotal counts checkout handoff outcomes.
	CheckoutHandoffsTotal *prometheus.CounterVec
	// MediaUploadsTotal counts product image upload outcomes.
	MediaUploadsTotal *prometheus.CounterVec
	// OrderNotificationsTotal counts order notification task outcomes.
	OrderNotificationsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CartAnomaliesTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_anomalies_total",
			Help:      "Count of rejected cart mutations and persistence failures.",
		}, []string{"kind", "op"}))
		CheckoutHandoffsTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_handoffs_total",
			Help:      "Count of checkout handoffs by outcome.",
		}, []string{"result"}))
		MediaUploadsTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_uploads_total",
			Help:      "Count of product image uploads by outcome.",
		}, []string{"result"}))
		OrderNotificationsTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_notifications_total",
			Help:      "Count of order notification deliveries by outcome.",
		}, []string{"result"}))
	})
}

// IncCounter increments vec with the given labels when metrics are registered.
func IncCounter(vec *prometheus.CounterVec, labels ...string) {
	if vec == nil {
		return
	}
	vec.WithLabelValues(labels...).Inc()
}
