// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the scholarrag service.
package observability

import "github.com/prometheus/client_golang/prometheus"

// EmbeddingBuckets covers embedding round trips from 10ms to 30s.
var EmbeddingBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

var (
	// RequestsTotal counts HTTP requests by method, route pattern and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholarrag_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scholarrag_request_duration_seconds",
			Help:    "Request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// IngestionsTotal counts document ingestions by outcome
	// (ok, partial, rejected, failed).
	IngestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholarrag_ingestions_total",
			Help: "Document ingestions",
		},
		[]string{"status"},
	)

	// ChunksWrittenTotal counts chunks persisted per collection granularity.
	ChunksWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholarrag_chunks_written_total",
			Help: "Chunks written",
		},
		[]string{"granularity"},
	)

	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholarrag_searches_total",
			Help: "Similarity searches",
		},
		[]string{"granularity", "status"},
	)

	// CitationSuggestionsTotal counts citation decisions (match, no_match).
	CitationSuggestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholarrag_citation_suggestions_total",
			Help: "Citation suggestions",
		},
		[]string{"result"},
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholarrag_embedding_requests_total",
			Help: "Embedding provider requests",
		},
		[]string{"model", "status"},
	)

	EmbeddingLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scholarrag_embedding_latency_seconds",
			Help:    "Embedding provider latency",
			Buckets: EmbeddingBuckets,
		},
		[]string{"model"},
	)

	// EmbeddingCacheTotal counts cache lookups per text (hit, miss).
	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholarrag_embedding_cache_total",
			Help: "Embedding cache lookups",
		},
		[]string{"result"},
	)

	TasksProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholarrag_tasks_processed_total",
			Help: "Background tasks processed by type and outcome",
		},
		[]string{"type", "status"},
	)

	RateLimitRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scholarrag_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		IngestionsTotal,
		ChunksWrittenTotal,
		SearchesTotal,
		CitationSuggestionsTotal,
		EmbeddingRequestsTotal,
		EmbeddingLatency,
		EmbeddingCacheTotal,
		TasksProcessedTotal,
		RateLimitRejectedTotal,
	)
}
