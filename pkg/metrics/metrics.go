package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics records remote-call and checkout outcomes. All methods
// are nil-safe so wiring metrics stays optional in tests.
type StorefrontMetrics struct {
	remoteDuration *prometheus.HistogramVec
	remoteCalls    *prometheus.CounterVec
	checkouts      *prometheus.CounterVec
	cartEvents     prometheus.Counter
}

// NewStorefrontMetrics registers the storefront metrics on the provided
// registerer.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	remoteDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "remote_call_duration_seconds",
		Help:    "Duration of storefront API calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	remoteCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "remote_calls_total",
		Help: "Storefront API calls by operation and outcome.",
	}, []string{"operation", "outcome"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Checkout submissions by result.",
	}, []string{"result"})
	cartEvents := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_changed_events_total",
		Help: "cartChanged notifications published on the event bus.",
	})
	reg.MustRegister(remoteDuration, remoteCalls, checkouts, cartEvents)
	return &StorefrontMetrics{
		remoteDuration: remoteDuration,
		remoteCalls:    remoteCalls,
		checkouts:      checkouts,
		cartEvents:     cartEvents,
	}
}

// ObserveRemoteCall records one API call with its duration and outcome.
func (m *StorefrontMetrics) ObserveRemoteCall(operation, outcome string, duration time.Duration) {
	if m == nil || m.remoteCalls == nil {
		return
	}
	op := normalizeLabel(operation)
	m.remoteCalls.WithLabelValues(op, normalizeLabel(outcome)).Inc()
	m.remoteDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// IncCheckout counts a checkout attempt result (accepted, validation_failed,
// rejected, duplicate).
func (m *StorefrontMetrics) IncCheckout(result string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncCartEvent counts a published cartChanged notification.
func (m *StorefrontMetrics) IncCartEvent() {
	if m == nil || m.cartEvents == nil {
		return
	}
	m.cartEvents.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
