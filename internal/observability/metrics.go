// Package observability exposes Prometheus metrics for the receptionist.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects the counters the service emits.
type Metrics struct {
	// TurnsTotal counts processed conversation turns.
	TurnsTotal prometheus.Counter

	// CallsCompleted counts calls reaching a terminal state.
	// Labels: outcome (booking|message|declined|callback|error)
	CallsCompleted *prometheus.CounterVec

	// OracleFallbacks counts intent classifications decided by the keyword
	// matcher instead of the oracle.
	OracleFallbacks prometheus.Counter

	// Dispatches counts outcome dispatch attempts.
	// Labels: kind (booking|message), status (ok|error)
	Dispatches *prometheus.CounterVec

	// ActiveCalls tracks calls currently in progress.
	ActiveCalls prometheus.Gauge
}

// NewMetrics registers the metric set on reg. Tests pass a fresh registry
// so repeated construction never collides.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TurnsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "frontdesk_turns_total",
			Help: "Conversation turns processed.",
		}),
		CallsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "frontdesk_calls_completed_total",
			Help: "Calls reaching a terminal state, by outcome.",
		}, []string{"outcome"}),
		OracleFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "frontdesk_intent_fallbacks_total",
			Help: "Intent classifications decided by the keyword fallback.",
		}),
		Dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "frontdesk_dispatches_total",
			Help: "Outcome dispatch attempts, by kind and status.",
		}, []string{"kind", "status"}),
		ActiveCalls: factory.NewGauge(prometheus.GaugeOpts{
			Name: "frontdesk_active_calls",
			Help: "Calls currently in progress.",
		}),
	}
}
