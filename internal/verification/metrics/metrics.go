package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks verification outcomes. A nil *Metrics is valid and records
// nothing, so tests and wiring without Prometheus stay simple.
type Metrics struct {
	RequestsTotal          *prometheus.CounterVec
	OracleFailuresTotal    prometheus.Counter
	CollapsedRequestsTotal prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nagrik_verification_requests_total",
			Help: "Total number of completed verification requests by outcome",
		}, []string{"outcome"}),
		OracleFailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nagrik_verification_oracle_failures_total",
			Help: "Total number of oracle calls that failed or returned nothing",
		}),
		CollapsedRequestsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nagrik_verification_collapsed_requests_total",
			Help: "Total number of requests collapsed into an in-flight oracle call",
		}),
	}
}

func (m *Metrics) IncRequests(outcome string) {
	if m != nil {
		m.RequestsTotal.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncOracleFailures() {
	if m != nil {
		m.OracleFailuresTotal.Inc()
	}
}

func (m *Metrics) IncCollapsed() {
	if m != nil {
		m.CollapsedRequestsTotal.Inc()
	}
}
