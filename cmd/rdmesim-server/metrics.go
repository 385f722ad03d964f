package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// serverMetrics collects the run-level counters exposed on /metrics. Each
// server owns its registry so tests can build servers independently.
type serverMetrics struct {
	registry *prometheus.Registry

	runsStarted   prometheus.Counter
	runsCompleted prometheus.Counter
	runsFailed    prometheus.Counter
	eventsTotal   prometheus.Counter
	runDuration   prometheus.Histogram
}

func newServerMetrics() *serverMetrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &serverMetrics{
		registry: registry,
		runsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "rdmesim_runs_started_total",
			Help: "Number of simulation runs accepted.",
		}),
		runsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "rdmesim_runs_completed_total",
			Help: "Number of simulation runs that finished successfully.",
		}),
		runsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "rdmesim_runs_failed_total",
			Help: "Number of simulation runs that ended with a fatal fault.",
		}),
		eventsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "rdmesim_events_executed_total",
			Help: "Reaction and diffusion events executed across all realizations.",
		}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rdmesim_run_duration_seconds",
			Help:    "Wall-clock duration of simulation runs.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
}

// handler returns the /metrics HTTP handler for this server's registry.
func (m *serverMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
