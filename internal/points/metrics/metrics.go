package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks points ledger activity. A nil *Metrics records nothing.
type Metrics struct {
	CreditsTotal          prometheus.Counter
	DuplicateCreditsTotal prometheus.Counter
	PointsAwardedTotal    prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		CreditsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nagrik_points_credits_total",
			Help: "Total number of credit entries written to the ledger",
		}),
		DuplicateCreditsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nagrik_points_duplicate_credits_total",
			Help: "Total number of credit attempts rejected by the event-key guard",
		}),
		PointsAwardedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nagrik_points_awarded_total",
			Help: "Total points awarded across all users",
		}),
	}
}

func (m *Metrics) IncCredits(amount int) {
	if m != nil {
		m.CreditsTotal.Inc()
		m.PointsAwardedTotal.Add(float64(amount))
	}
}

func (m *Metrics) IncDuplicates() {
	if m != nil {
		m.DuplicateCreditsTotal.Inc()
	}
}
