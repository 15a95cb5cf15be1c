package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	fetchesTotal     *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	analyzerDuration *prometheus.HistogramVec
	reportsTotal     *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketlens_cache_hits_total",
				Help: "Total cache hits by data kind",
			},
			[]string{"kind"},
		),
		cacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketlens_cache_misses_total",
				Help: "Total cache misses by data kind",
			},
			[]string{"kind"},
		),
		fetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketlens_exchange_fetches_total",
				Help: "Total exchange fetches by data kind and symbol",
			},
			[]string{"kind", "symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketlens_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		analyzerDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketlens_analyzer_duration_seconds",
				Help:    "Duration of analyzer module runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"module"},
		),
		reportsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketlens_reports_total",
				Help: "Total reports rendered by format",
			},
			[]string{"format"},
		),
	}
}

// RecordCacheHit records a cache hit for a data kind.
func (r *Recorder) RecordCacheHit(kind string) {
	r.cacheHits.WithLabelValues(kind).Inc()
}

// RecordCacheMiss records a cache miss for a data kind.
func (r *Recorder) RecordCacheMiss(kind string) {
	r.cacheMisses.WithLabelValues(kind).Inc()
}

// RecordFetch records one exchange call.
func (r *Recorder) RecordFetch(kind, symbol string) {
	r.fetchesTotal.WithLabelValues(kind, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordAnalyzerDuration records one analyzer module run.
func (r *Recorder) RecordAnalyzerDuration(module string, seconds float64) {
	r.analyzerDuration.WithLabelValues(module).Observe(seconds)
}

// RecordReport records one rendered report.
func (r *Recorder) RecordReport(format string) {
	r.reportsTotal.WithLabelValues(format).Inc()
}
