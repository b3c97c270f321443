package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records counters for the order pipeline.
type CheckoutMetrics struct {
	ordersCreated   *prometheus.CounterVec
	confirmations   *prometheus.CounterVec
	gatewayFailures prometheus.Counter
	duration        *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created, labeled by payment method.",
	}, []string{"payment_method"})
	confirmations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_confirmations_total",
		Help: "Payment confirmation attempts by result.",
	}, []string{"result"})
	gatewayFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_failures_total",
		Help: "Gateway order creations that fell back to offline mode.",
	})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout stages in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
	reg.MustRegister(ordersCreated, confirmations, gatewayFailures, duration)
	return &CheckoutMetrics{
		ordersCreated:   ordersCreated,
		confirmations:   confirmations,
		gatewayFailures: gatewayFailures,
		duration:        duration,
	}
}

// IncOrderCreated increments the created-orders counter for the payment method.
func (m *CheckoutMetrics) IncOrderCreated(paymentMethod string) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// IncConfirmation records a confirmation attempt outcome.
func (m *CheckoutMetrics) IncConfirmation(result string) {
	if m == nil || m.confirmations == nil {
		return
	}
	m.confirmations.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncGatewayFailure counts a gateway outage fallback.
func (m *CheckoutMetrics) IncGatewayFailure() {
	if m == nil || m.gatewayFailures == nil {
		return
	}
	m.gatewayFailures.Inc()
}

// ObserveStage records the duration for a named checkout stage.
func (m *CheckoutMetrics) ObserveStage(stage string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(stage)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
