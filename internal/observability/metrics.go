// Package observability provides Prometheus metrics for simulations and sweeps.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "orb"

// Metrics holds the collectors on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	Simulations      *prometheus.CounterVec
	SimulationErrors *prometheus.CounterVec
	MemoHits         prometheus.Counter
	SweepDuration    prometheus.Histogram
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Simulations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_total",
			Help:      "Completed trade simulations by execution mode and outcome",
		}, []string{"mode", "outcome"}),
		SimulationErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulation_errors_total",
			Help:      "Failed trade simulations by error kind",
		}, []string{"kind"}),
		MemoHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "memo_hits_total",
			Help:      "Configurations skipped because they were already tested",
		}),
		SweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of parameter sweeps",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}),
	}
}

func (m *Metrics) RecordSimulation(mode, outcome string) {
	if m == nil {
		return
	}
	m.Simulations.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) RecordError(kind string) {
	if m == nil {
		return
	}
	m.SimulationErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordMemoHit() {
	if m == nil {
		return
	}
	m.MemoHits.Inc()
}

func (m *Metrics) RecordSweep(seconds float64) {
	if m == nil {
		return
	}
	m.SweepDuration.Observe(seconds)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
