// Package metrics exposes Prometheus instrumentation for detection runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/costwatch/costwatch/pkg/model"
)

// Recorder collects detection run metrics on its own registry, so multiple
// recorders can coexist in one process (e.g., in tests).
type Recorder struct {
	registry       *prometheus.Registry
	runsTotal      prometheus.Counter
	anomaliesTotal *prometheus.CounterVec
	runDuration    prometheus.Histogram
}

// New creates a metrics recorder.
func New() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		runsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "costwatch_detection_runs_total",
			Help: "Total number of completed detection runs",
		}),
		anomaliesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "costwatch_anomalies_detected_total",
				Help: "Total number of anomalies detected, by severity",
			},
			[]string{"severity"},
		),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "costwatch_detection_run_duration_seconds",
			Help:    "Duration of detection runs in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveRun records the outcome of one completed detection run.
func (r *Recorder) ObserveRun(summary *model.RunSummary, seconds float64) {
	r.runsTotal.Inc()
	r.runDuration.Observe(seconds)
	for severity, count := range summary.AlertTally {
		r.anomaliesTotal.WithLabelValues(string(severity)).Add(float64(count))
	}
}

// Handler returns the HTTP handler serving this recorder's metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
