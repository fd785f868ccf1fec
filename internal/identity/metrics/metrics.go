package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for account operations.
type Metrics struct {
	// NIN verification attempts by outcome
	NINVerifications *prometheus.CounterVec

	// Completed signups
	Signups prometheus.Counter

	// Login attempts by outcome
	Logins *prometheus.CounterVec
}

// New creates a new Metrics instance with all identity metrics registered.
func New() *Metrics {
	return &Metrics{
		NINVerifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lgac_nin_verifications_total",
			Help: "Total NIN verification attempts by outcome",
		}, []string{"outcome"}), // outcome: "verified", "rejected"

		Signups: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lgac_signups_total",
			Help: "Total completed citizen signups",
		}),

		Logins: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lgac_logins_total",
			Help: "Total login attempts by outcome",
		}, []string{"outcome"}), // outcome: "success", "failure"
	}
}

// IncrementNINVerification records one verification attempt.
func (m *Metrics) IncrementNINVerification(outcome string) {
	if m != nil {
		m.NINVerifications.WithLabelValues(outcome).Inc()
	}
}

// IncrementSignup records a completed signup.
func (m *Metrics) IncrementSignup() {
	if m != nil {
		m.Signups.Inc()
	}
}

// IncrementLogin records a login attempt.
func (m *Metrics) IncrementLogin(outcome string) {
	if m != nil {
		m.Logins.WithLabelValues(outcome).Inc()
	}
}
