package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ytdl",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ytdl",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 30, 60, 180},
	}, []string{"method", "path"})

	ResolverRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ytdl",
		Name:      "resolver_requests_total",
		Help:      "Total metadata lookups against the content resolver by result status.",
	}, []string{"status"})

	ResolverRequestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ytdl",
		Name:      "resolver_request_duration_seconds",
		Help:      "Content resolver lookup duration in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
	})

	DeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ytdl",
		Name:      "deliveries_total",
		Help:      "Download deliveries by strategy and outcome.",
	}, []string{"strategy", "outcome"})

	PartialDeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ytdl",
		Name:      "partial_deliveries_total",
		Help:      "Deliveries that failed after response headers were sent.",
	}, []string{"strategy"})

	MergeStageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ytdl",
		Name:      "merge_stage_duration_seconds",
		Help:      "Duration of merge pipeline stages in seconds.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	}, []string{"stage"})

	DeliveredBytesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ytdl",
		Name:      "delivered_bytes_total",
		Help:      "Bytes written to download responses by strategy.",
	}, []string{"strategy"})

	WorkItemsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ytdl",
		Name:      "work_items_active",
		Help:      "Merge work items currently holding temporary files.",
	})

	CleanupErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ytdl",
		Name:      "cleanup_errors_total",
		Help:      "Temporary file deletions that failed and were ignored.",
	})

	TranscodesInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ytdl",
		Name:      "transcodes_in_flight",
		Help:      "Transcoder processes currently running.",
	})

	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ytdl",
		Name:      "info_cache_hits_total",
		Help:      "Total number of video info cache hits.",
	})

	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ytdl",
		Name:      "info_cache_misses_total",
		Help:      "Total number of video info cache misses.",
	})

	RateLimitedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ytdl",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by a rate limiter.",
	}, []string{"limiter"})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ResolverRequestsTotal,
		ResolverRequestDuration,
		DeliveriesTotal,
		PartialDeliveriesTotal,
		MergeStageDuration,
		DeliveredBytesTotal,
		WorkItemsActive,
		CleanupErrorsTotal,
		TranscodesInFlight,
		CacheHitsTotal,
		CacheMissesTotal,
		RateLimitedTotal,
	)
}
