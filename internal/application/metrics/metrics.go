package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the application lifecycle.
type Metrics struct {
	// Lifecycle transitions by source and destination status
	Transitions *prometheus.CounterVec

	// Officer decisions by outcome
	Decisions *prometheus.CounterVec

	// Submissions rejected by validation
	SubmitRejections prometheus.Counter
}

// New creates a new Metrics instance with all lifecycle metrics registered.
func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lgac_application_transitions_total",
			Help: "Total application status transitions by from and to status",
		}, []string{"from", "to"}),

		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lgac_application_decisions_total",
			Help: "Total officer decisions by outcome",
		}, []string{"decision"}), // decision: "approve", "reject", "defer"

		SubmitRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lgac_application_submit_rejections_total",
			Help: "Total submissions rejected by snapshot or biographic validation",
		}),
	}
}

// IncrementTransition records a committed lifecycle transition.
func (m *Metrics) IncrementTransition(from, to string) {
	if m != nil {
		m.Transitions.WithLabelValues(from, to).Inc()
	}
}

// IncrementDecision records an officer decision.
func (m *Metrics) IncrementDecision(decision string) {
	if m != nil {
		m.Decisions.WithLabelValues(decision).Inc()
	}
}

// IncrementSubmitRejection records a failed submission attempt.
func (m *Metrics) IncrementSubmitRejection() {
	if m != nil {
		m.SubmitRejections.Inc()
	}
}
