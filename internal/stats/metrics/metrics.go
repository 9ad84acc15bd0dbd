package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reasons an increment did not reach the backend.
const (
	DropReasonCircuitOpen  = "circuit_open"
	DropReasonWriteFailure = "write_failure"
)

// Metrics tracks the advisory stats counters.
type Metrics struct {
	Increments      *prometheus.CounterVec
	DroppedUpdates  *prometheus.CounterVec
	CircuitOpen     prometheus.Gauge
	ConsumedEvents  prometheus.Counter
	ConsumeFailures prometheus.Counter
}

// New registers the stats metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Increments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_stats_increments_total",
			Help: "Counter increments written or published, by counter",
		}, []string{"counter"}),
		DroppedUpdates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_stats_dropped_total",
			Help: "Counter increments that were dropped, by counter and reason",
		}, []string{"counter", "reason"}),
		CircuitOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "lostfound_stats_circuit_open",
			Help: "1 while the stats backend circuit breaker is open",
		}),
		ConsumedEvents: f.NewCounter(prometheus.CounterOpts{
			Name: "lostfound_stats_events_consumed_total",
			Help: "Stats events applied from the stream",
		}),
		ConsumeFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "lostfound_stats_events_failed_total",
			Help: "Stats events that could not be applied",
		}),
	}
}

func (m *Metrics) IncrementWritten(counter string) {
	if m != nil {
		m.Increments.WithLabelValues(counter).Inc()
	}
}

func (m *Metrics) IncrementDropped(counter, reason string) {
	if m != nil {
		m.DroppedUpdates.WithLabelValues(counter, reason).Inc()
	}
}

func (m *Metrics) SetCircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitOpen.Set(1)
		return
	}
	m.CircuitOpen.Set(0)
}

func (m *Metrics) IncrementConsumed() {
	if m != nil {
		m.ConsumedEvents.Inc()
	}
}

func (m *Metrics) IncrementConsumeFailure() {
	if m != nil {
		m.ConsumeFailures.Inc()
	}
}
