package metrics

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	observations  *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	windows       *prometheus.CounterVec
	modelFailures *prometheus.CounterVec
	runDuration   prometheus.Histogram
	scores        *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		observations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "powercast_observations_total",
				Help: "Total number of observations ingested",
			},
			[]string{"source", "metric"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "powercast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		windows: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "powercast_backtest_windows_total",
				Help: "Backtest windows evaluated per model",
			},
			[]string{"model"},
		),
		modelFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "powercast_model_failures_total",
				Help: "Fit or predict failures per model",
			},
			[]string{"model"},
		),
		runDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "powercast_backtest_run_duration_seconds",
				Help:    "Duration of full backtest runs in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),
		scores: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "powercast_backtest_score",
				Help: "Latest backtest score per model and metric",
			},
			[]string{"model", "metric"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "powercast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordObservation records an ingested observation.
func (r *Recorder) RecordObservation(source, metric string) {
	r.observations.WithLabelValues(source, metric).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordWindow records one evaluated backtest window.
func (r *Recorder) RecordWindow(model string) {
	r.windows.WithLabelValues(model).Inc()
}

// RecordModelFailure records a fit or predict failure.
func (r *Recorder) RecordModelFailure(model string) {
	r.modelFailures.WithLabelValues(model).Inc()
}

// RecordRunDuration records the wall time of a full run.
func (r *Recorder) RecordRunDuration(seconds float64) {
	r.runDuration.Observe(seconds)
}

// RecordScore records a model score. NaN scores are skipped.
func (r *Recorder) RecordScore(model, metric string, value float64) {
	if math.IsNaN(value) {
		return
	}
	r.scores.WithLabelValues(model, metric).Set(value)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
