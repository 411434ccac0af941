package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "newsletter"

var (
	// HTTP request latency in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "route", "status"},
	)

	// Subscriber store call latency in seconds
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Subscriber store operation duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"operation", "outcome"},
	)

	// Subscribe/unsubscribe results by outcome
	SubscriptionOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_outcomes_total",
			Help:      "Total number of subscription operations by outcome",
		},
		[]string{"operation", "outcome"}, // outcome: ok, invalid, duplicate, not_found, error
	)

	// 1 for the breaker's current state, 0 for the others
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Current circuit breaker state (1 = active)",
		},
		[]string{"name", "state"},
	)
)

var breakerStates = []string{"closed", "half-open", "open"}

func RecordHTTPRequestDuration(method, route, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

func RecordStoreOperation(operation, outcome string, duration time.Duration) {
	StoreOperationDuration.WithLabelValues(operation, outcome).Observe(duration.Seconds())
}

func IncrementSubscriptionOutcome(operation, outcome string) {
	SubscriptionOutcomes.WithLabelValues(operation, outcome).Inc()
}

// SetCircuitBreakerState marks state as the only active state for breaker name.
func SetCircuitBreakerState(name, state string) {
	for _, s := range breakerStates {
		value := 0.0
		if s == state {
			value = 1
		}
		CircuitBreakerState.WithLabelValues(name, s).Set(value)
	}
}
