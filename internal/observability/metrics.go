package observability

import "github.com/prometheus/client_golang/prometheus"

// Chat requests wait on two upstream calls, so the HTTP buckets reach well
// past prometheus.DefBuckets.
var (
	httpDurationBucketsSeconds = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120}
	upstreamLatencyBucketsMs   = []float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000}
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrachat_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "astrachat_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: httpDurationBucketsSeconds,
		},
		[]string{"method", "route"},
	)

	chatAnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrachat_chat_answers_total",
			Help: "Total number of chat requests by outcome.",
		},
		[]string{"outcome"},
	)
	completionRequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "astrachat_completion_requests_total",
			Help: "Total number of chat-completion calls.",
		},
	)
	completionFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "astrachat_completion_failures_total",
			Help: "Total number of chat-completion calls that returned an error.",
		},
	)
	completionLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "astrachat_completion_latency_ms",
			Help:    "Chat-completion call latency in milliseconds.",
			Buckets: upstreamLatencyBucketsMs,
		},
	)
	fallbackSQLTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "astrachat_fallback_sql_total",
			Help: "Total number of requests that executed the fallback SQL.",
		},
	)
	rejectedSQLTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "astrachat_rejected_sql_total",
			Help: "Total number of generated statements rejected by the read-only guard.",
		},
	)
	queryRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrachat_query_requests_total",
			Help: "Total number of database query calls by engine.",
		},
		[]string{"engine"},
	)
	queryFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrachat_query_failures_total",
			Help: "Total number of database query calls that failed before a response body was read.",
		},
		[]string{"engine"},
	)
	queryLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "astrachat_query_latency_ms",
			Help:    "Database query call latency in milliseconds.",
			Buckets: upstreamLatencyBucketsMs,
		},
		[]string{"engine"},
	)
	queryResponseBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "astrachat_query_response_bytes",
			Help:    "Size of database response bodies returned to the chat.",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		},
		[]string{"engine"},
	)
	historyRecordFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "astrachat_history_record_failures_total",
			Help: "Total number of query history entries that could not be recorded.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		chatAnswersTotal,
		completionRequestsTotal,
		completionFailuresTotal,
		completionLatencyMs,
		fallbackSQLTotal,
		rejectedSQLTotal,
		queryRequestsTotal,
		queryFailuresTotal,
		queryLatencyMs,
		queryResponseBytes,
		historyRecordFailuresTotal,
	)
}
