package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks lifecycle transition outcomes. A nil *Metrics is valid and
// records nothing, so tests and wiring without Prometheus stay simple.
type Metrics struct {
	TransitionsTotal         *prometheus.CounterVec
	TransitionConflictsTotal prometheus.Counter
	InvalidTransitionsTotal  prometheus.Counter
	DegradedTransitionsTotal prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		TransitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nagrik_issue_transitions_total",
			Help: "Total number of committed issue status transitions",
		}, []string{"to"}),
		TransitionConflictsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nagrik_issue_transition_conflicts_total",
			Help: "Total number of transitions lost to a compare-and-set race",
		}),
		InvalidTransitionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nagrik_issue_invalid_transitions_total",
			Help: "Total number of transition requests rejected by the lifecycle table",
		}),
		DegradedTransitionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nagrik_issue_degraded_transitions_total",
			Help: "Total number of committed transitions with failed side effects",
		}),
	}
}

func (m *Metrics) IncTransitions(to string) {
	if m != nil {
		m.TransitionsTotal.WithLabelValues(to).Inc()
	}
}

func (m *Metrics) IncConflicts() {
	if m != nil {
		m.TransitionConflictsTotal.Inc()
	}
}

func (m *Metrics) IncInvalid() {
	if m != nil {
		m.InvalidTransitionsTotal.Inc()
	}
}

func (m *Metrics) IncDegraded() {
	if m != nil {
		m.DegradedTransitionsTotal.Inc()
	}
}
