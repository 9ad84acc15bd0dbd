package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Claim results recorded by IncrementClaim.
const (
	ClaimResultClaimed        = "claimed"
	ClaimResultAlreadyClaimed = "already_claimed"
	ClaimResultNotFound       = "not_found"
)

// Metrics provides observability for the records engine.
type Metrics struct {
	// Report outcomes by category and outcome
	ReportOutcomes *prometheus.CounterVec

	// Claim attempts by category and result
	ClaimResults *prometheus.CounterVec

	// Service operation latency
	OperationLatency *prometheus.HistogramVec

	// Claimed records removed by the sweeper
	ExpiredRemoved prometheus.Counter
}

// New registers the records metrics with reg. Pass prometheus.NewRegistry()
// in tests to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ReportOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_report_outcomes_total",
			Help: "Found reports by category and dedup outcome",
		}, []string{"category", "outcome"}),

		ClaimResults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_claims_total",
			Help: "Claim and view attempts by category and result",
		}, []string{"category", "result"}), // result: "claimed", "already_claimed", "not_found"

		OperationLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lostfound_records_operation_duration_seconds",
			Help:    "Duration of records service operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),

		ExpiredRemoved: f.NewCounter(prometheus.CounterOpts{
			Name: "lostfound_records_expired_removed_total",
			Help: "Claimed records removed after their grace window",
		}),
	}
}

func (m *Metrics) IncrementOutcome(category, outcome string) {
	if m != nil {
		m.ReportOutcomes.WithLabelValues(category, outcome).Inc()
	}
}

func (m *Metrics) IncrementClaim(category, result string) {
	if m != nil {
		m.ClaimResults.WithLabelValues(category, result).Inc()
	}
}

// ObserveLatency records how long operation took since start.
func (m *Metrics) ObserveLatency(operation string, start time.Time) {
	if m != nil {
		m.OperationLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) AddExpired(n int64) {
	if m != nil && n > 0 {
		m.ExpiredRemoved.Add(float64(n))
	}
}
