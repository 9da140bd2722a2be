package metrics

import (
	"strconv"

	"StockBrief/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	runsTotal    *prometheus.CounterVec
	abortsTotal  *prometheus.CounterVec
	tickerErrors *prometheus.CounterVec
	positions    prometheus.Gauge
	lastRun      prometheus.Gauge
	latency      *prometheus.HistogramVec
}

// New creates a recorder registered on reg (prometheus.DefaultRegisterer in production).
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockbrief_runs_total",
				Help: "Pipeline runs by trigger, final state and email outcome",
			},
			[]string{"trigger", "state", "email_sent"},
		),
		abortsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockbrief_run_aborts_total",
				Help: "Runs aborted before the report was built",
			},
			[]string{"reason"},
		),
		tickerErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockbrief_ticker_errors_total",
				Help: "Per-ticker failures absorbed by the pipeline",
			},
			[]string{"stage"},
		),
		positions: f.NewGauge(prometheus.GaugeOpts{
			Name: "stockbrief_positions",
			Help: "Owned positions seen by the last run",
		}),
		lastRun: f.NewGauge(prometheus.GaugeOpts{
			Name: "stockbrief_last_run_timestamp_seconds",
			Help: "Unix time of the last finished run",
		}),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockbrief_operation_duration_seconds",
				Help:    "Duration of pipeline operations in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"operation"},
		),
	}
}

// RecordRun records a finished run.
func (r *Recorder) RecordRun(trigger string, final models.RunState, emailSent bool) {
	r.runsTotal.WithLabelValues(trigger, string(final), strconv.FormatBool(emailSent)).Inc()
	r.lastRun.SetToCurrentTime()
}

// RecordAbort records why a run stopped early.
func (r *Recorder) RecordAbort(reason string) {
	r.abortsTotal.WithLabelValues(reason).Inc()
}

// RecordTickerError records a failure absorbed at the news or summary stage.
func (r *Recorder) RecordTickerError(stage string) {
	r.tickerErrors.WithLabelValues(stage).Inc()
}

// RecordPositions records how many owned positions were loaded.
func (r *Recorder) RecordPositions(n int) {
	r.positions.Set(float64(n))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
