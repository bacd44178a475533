package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	providerRequests *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	rateLimitWait    prometheus.Histogram
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	anomalies        *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	batchDuration    prometheus.Histogram
	queryFailures    *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		providerRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rankpulse_provider_requests_total",
				Help: "Total requests issued against the ranking data provider",
			},
			[]string{"endpoint", "status"},
		),
		providerLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rankpulse_provider_request_duration_seconds",
				Help:    "Duration of provider requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		rateLimitWait: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rankpulse_rate_limit_wait_seconds",
				Help:    "Time spent waiting on the provider rate limiter",
				Buckets: []float64{0, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		cacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rankpulse_cache_hits_total",
				Help: "Cache hits by query type",
			},
			[]string{"query_type"},
		),
		cacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rankpulse_cache_misses_total",
				Help: "Cache misses by query type",
			},
			[]string{"query_type"},
		),
		anomalies: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rankpulse_anomalies_detected_total",
				Help: "Detected ranking anomalies by severity and change type",
			},
			[]string{"severity", "change_type"},
		),
		transitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rankpulse_topn_transitions_total",
				Help: "Top-N entry/exit events",
			},
			[]string{"direction"},
		),
		batchDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rankpulse_fetch_batch_duration_seconds",
				Help:    "Wall-clock duration of a full fetch batch",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		),
		queryFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rankpulse_query_failures_total",
				Help: "Per-query fetch failures by reason",
			},
			[]string{"query_type", "reason"},
		),
	}
}

// RecordProviderRequest records one provider request outcome.
func (r *Recorder) RecordProviderRequest(endpoint, status string, seconds float64) {
	r.providerRequests.WithLabelValues(endpoint, status).Inc()
	r.providerLatency.WithLabelValues(endpoint).Observe(seconds)
}

// RecordRateLimitWait records time spent waiting for a request slot.
func (r *Recorder) RecordRateLimitWait(seconds float64) {
	r.rateLimitWait.Observe(seconds)
}

// RecordCacheHit records a cache hit for a query type.
func (r *Recorder) RecordCacheHit(queryType string) {
	r.cacheHits.WithLabelValues(queryType).Inc()
}

// RecordCacheMiss records a cache miss for a query type.
func (r *Recorder) RecordCacheMiss(queryType string) {
	r.cacheMisses.WithLabelValues(queryType).Inc()
}

// RecordAnomaly records a detected anomaly.
func (r *Recorder) RecordAnomaly(severity, changeType string) {
	r.anomalies.WithLabelValues(severity, changeType).Inc()
}

// RecordTransition records a top-N transition event.
func (r *Recorder) RecordTransition(direction string) {
	r.transitions.WithLabelValues(direction).Inc()
}

// RecordBatchDuration records the wall-clock duration of a fetch batch.
func (r *Recorder) RecordBatchDuration(seconds float64) {
	r.batchDuration.Observe(seconds)
}

// RecordQueryFailure records a typed per-query failure.
func (r *Recorder) RecordQueryFailure(queryType, reason string) {
	r.queryFailures.WithLabelValues(queryType, reason).Inc()
}
