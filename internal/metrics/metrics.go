package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "spotlight"

var (
	rateLimitDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_decisions_total",
			Help:      "Rate limiter decisions by action and result (allowed, limited, unavailable).",
		},
		[]string{"action", "result"},
	)
	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_aside_lookups_total",
			Help:      "Cache-aside lookups by result (hit, miss, error).",
		},
		[]string{"result"},
	)
	notificationDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_deliveries_total",
			Help:      "Notification delivery attempts by kind and result.",
		},
		[]string{"kind", "result"},
	)
)

var registerMetrics sync.Once

// Register all metrics with the default registry.
func Register() {
	registerMetrics.Do(func() {
		prometheus.MustRegister(rateLimitDecisions)
		prometheus.MustRegister(cacheLookups)
		prometheus.MustRegister(notificationDeliveries)
	})
}

func RecordRateLimitDecision(action, result string) {
	rateLimitDecisions.WithLabelValues(action, result).Inc()
}

func RecordCacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}

func RecordNotificationDelivery(kind, result string) {
	notificationDeliveries.WithLabelValues(kind, result).Inc()
}
