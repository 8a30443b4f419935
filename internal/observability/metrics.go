// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the analyzer.
type Metrics struct {
	// History fetching
	PagesFetched        prometheus.Counter
	TransactionsFetched prometheus.Counter
	FetchErrors         prometheus.Counter
	CacheHits           prometheus.Counter
	CacheMisses         prometheus.Counter

	// Normalization
	TradesNormalized prometheus.Counter
	TradesDiscarded  *prometheus.CounterVec

	// Matching
	TradesMatched  prometheus.Counter
	LotsSkipped    prometheus.Counter
	UnmatchedSells prometheus.Counter
	OpenLots       prometheus.Gauge

	// Acquisition tracing
	TraceLookups  prometheus.Counter
	TraceResolved prometheus.Counter

	// Latency correlation
	LatencyMatches *prometheus.CounterVec

	// Pipeline
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  prometheus.Histogram
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "copytrade_analyzer"
	}

	return &Metrics{
		PagesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "pages_fetched_total",
			Help:      "Total number of history pages fetched",
		}),
		TransactionsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "transactions_fetched_total",
			Help:      "Total number of raw transactions fetched",
		}),
		FetchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "fetch_errors_total",
			Help:      "Total number of page fetches that failed after retries",
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "cache_hits_total",
			Help:      "Total number of wallet histories served from the file cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "cache_misses_total",
			Help:      "Total number of wallet histories fetched from the API",
		}),

		TradesNormalized: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalization",
			Name:      "trades_normalized_total",
			Help:      "Total number of transactions normalized into trades",
		}),
		TradesDiscarded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalization",
			Name:      "trades_discarded_total",
			Help:      "Total number of transactions discarded by reason",
		}, []string{"reason"}),

		TradesMatched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matching",
			Name:      "trades_matched_total",
			Help:      "Total number of matched buy/sell pairs emitted",
		}),
		LotsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matching",
			Name:      "lots_skipped_total",
			Help:      "Total number of lots discarded for currency incompatibility",
		}),
		UnmatchedSells: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matching",
			Name:      "unmatched_sells_total",
			Help:      "Total number of sells with no remaining open lot",
		}),
		OpenLots: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "matching",
			Name:      "open_lots",
			Help:      "Open lots remaining after the last matching run",
		}),

		TraceLookups: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trace",
			Name:      "lookups_total",
			Help:      "Total number of acquisition trace lookups",
		}),
		TraceResolved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trace",
			Name:      "resolved_total",
			Help:      "Total number of trace lookups that resolved a cost basis",
		}),

		LatencyMatches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "latency",
			Name:      "matches_total",
			Help:      "Total number of latency correlations by direction",
		}, []string{"direction"}),

		PipelineRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"status"}),
		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline execution duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordPageFetched records a fetched history page.
func RecordPageFetched(txCount int) {
	DefaultMetrics.PagesFetched.Inc()
	DefaultMetrics.TransactionsFetched.Add(float64(txCount))
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		DefaultMetrics.CacheHits.Inc()
	} else {
		DefaultMetrics.CacheMisses.Inc()
	}
}

// RecordDiscarded records a discarded transaction.
func RecordDiscarded(reason string) {
	DefaultMetrics.TradesDiscarded.WithLabelValues(reason).Inc()
}

// RecordTraceLookup records a trace lookup and whether it resolved.
func RecordTraceLookup(resolved bool) {
	DefaultMetrics.TraceLookups.Inc()
	if resolved {
		DefaultMetrics.TraceResolved.Inc()
	}
}

// RecordPipelineRun records a pipeline run.
func RecordPipelineRun(status string, durationSeconds float64) {
	DefaultMetrics.PipelineRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.PipelineDuration.Observe(durationSeconds)
}
