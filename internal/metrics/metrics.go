package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the gateway's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Submissions      *prometheus.CounterVec
	DispatchDuration prometheus.Histogram
	RateLimitEntries prometheus.Gauge
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contactgate_submissions_total",
				Help: "Contact form submissions by outcome",
			},
			[]string{"outcome"},
		),
		DispatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "contactgate_dispatch_duration_seconds",
			Help:    "Time spent handing a notification to the mail provider",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		RateLimitEntries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "contactgate_ratelimit_entries",
			Help: "Client keys tracked by the in-memory rate limiter",
		}),
	}
}

// ObserveOutcome counts one finished submission.
func (m *Metrics) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
}

// ObserveDispatch records how long a provider call took.
func (m *Metrics) ObserveDispatch(d time.Duration) {
	if m == nil {
		return
	}
	m.DispatchDuration.Observe(d.Seconds())
}

// SetRateLimitEntries publishes the rate limiter size.
func (m *Metrics) SetRateLimitEntries(n int) {
	if m == nil {
		return
	}
	m.RateLimitEntries.Set(float64(n))
}
