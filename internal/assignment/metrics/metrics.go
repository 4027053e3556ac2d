package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks assignment outcomes. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	AssignmentsTotal          prometheus.Counter
	DuplicateAssignmentsTotal prometheus.Counter
	CompletionsTotal          *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		AssignmentsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nagrik_assignments_total",
			Help: "Total number of assignments created",
		}),
		DuplicateAssignmentsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nagrik_duplicate_assignments_total",
			Help: "Total number of assignments rejected by the one-active guard",
		}),
		CompletionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nagrik_assignment_completions_total",
			Help: "Total number of assignments closed by terminal status",
		}, []string{"status"}),
	}
}

func (m *Metrics) IncAssignments() {
	if m != nil {
		m.AssignmentsTotal.Inc()
	}
}

func (m *Metrics) IncDuplicates() {
	if m != nil {
		m.DuplicateAssignmentsTotal.Inc()
	}
}

func (m *Metrics) IncCompletions(status string) {
	if m != nil {
		m.CompletionsTotal.WithLabelValues(status).Inc()
	}
}
