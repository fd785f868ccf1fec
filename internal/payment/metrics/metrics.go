package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for payment reconciliation.
type Metrics struct {
	// Payment confirmations by path ("callback", "webhook") and outcome
	Confirmations *prometheus.CounterVec

	// Gateway call latency by operation
	GatewayLatency *prometheus.HistogramVec

	// Webhook deliveries rejected for bad signatures
	WebhookRejections prometheus.Counter
}

// New creates a new Metrics instance with all payment metrics registered.
func New() *Metrics {
	return &Metrics{
		Confirmations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lgac_payment_confirmations_total",
			Help: "Total payment confirmations by path and outcome",
		}, []string{"path", "outcome"}),

		GatewayLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lgac_payment_gateway_duration_seconds",
			Help:    "Duration of outbound payment gateway calls by operation",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"operation"}), // operation: "initialize", "verify"

		WebhookRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lgac_payment_webhook_rejections_total",
			Help: "Total webhook deliveries rejected for signature mismatch",
		}),
	}
}

// IncrementConfirmation records a reconciliation outcome for one path.
func (m *Metrics) IncrementConfirmation(path, outcome string) {
	if m != nil {
		m.Confirmations.WithLabelValues(path, outcome).Inc()
	}
}

// ObserveGatewayLatency records the duration of one gateway call.
func (m *Metrics) ObserveGatewayLatency(operation string, d time.Duration) {
	if m != nil {
		m.GatewayLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}

// IncrementWebhookRejection records a signature rejection.
func (m *Metrics) IncrementWebhookRejection() {
	if m != nil {
		m.WebhookRejections.Inc()
	}
}
