// Package metrics holds the Prometheus collectors of the reservation engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "table_booking"

var (
	once sync.Once

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_transitions_total",
			Help:      "Count of reservation status transitions by target status and trigger.",
		},
		[]string{"to", "trigger"},
	)

	bulkMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_mutations_total",
			Help:      "Count of reservations mutated by bulk branch operations.",
		},
		[]string{"operation"},
	)

	mintAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mint_attempts_total",
			Help:      "Count of identifier candidates tried, by outcome.",
		},
		[]string{"outcome"},
	)

	notificationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Count of notifications the dispatcher failed to deliver.",
		},
		[]string{"kind"},
	)

	openSubscriptions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_subscriptions",
			Help:      "Number of live reservation queries currently open.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(transitions, bulkMutations, mintAttempts, notificationFailures, openSubscriptions)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func IncTransition(to, trigger string) {
	transitions.WithLabelValues(to, trigger).Inc()
}

func AddBulkMutations(operation string, n int) {
	bulkMutations.WithLabelValues(operation).Add(float64(n))
}

func IncMintAttempt(outcome string) {
	mintAttempts.WithLabelValues(outcome).Inc()
}

func IncNotificationFailure(kind string) {
	notificationFailures.WithLabelValues(kind).Inc()
}

func SubscriptionOpened() {
	openSubscriptions.Inc()
}

func SubscriptionClosed() {
	openSubscriptions.Dec()
}
