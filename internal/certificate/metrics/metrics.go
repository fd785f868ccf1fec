package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for certificate issuance and verification.
type Metrics struct {
	// Certificates issued
	Issued prometheus.Counter

	// Public hash lookups by outcome
	VerifyLookups *prometheus.CounterVec

	// PDF render duration
	RenderDuration prometheus.Histogram
}

// New creates a new Metrics instance with all certificate metrics registered.
func New() *Metrics {
	return &Metrics{
		Issued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lgac_certificates_issued_total",
			Help: "Total certificates issued",
		}),

		VerifyLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lgac_certificate_verify_lookups_total",
			Help: "Total public verification lookups by outcome",
		}, []string{"outcome"}), // outcome: "valid", "not_found"

		RenderDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lgac_certificate_render_duration_seconds",
			Help:    "Time spent rendering certificate PDFs",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// IncrementIssued records a completed issuance.
func (m *Metrics) IncrementIssued() {
	if m != nil {
		m.Issued.Inc()
	}
}

// IncrementVerifyLookup records a public verification lookup.
func (m *Metrics) IncrementVerifyLookup(outcome string) {
	if m != nil {
		m.VerifyLookups.WithLabelValues(outcome).Inc()
	}
}

// ObserveRender records one PDF render.
func (m *Metrics) ObserveRender(d time.Duration) {
	if m != nil {
		m.RenderDuration.Observe(d.Seconds())
	}
}
