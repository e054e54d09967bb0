package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lightheart_http_requests_total",
		Help: "HTTP requests served, by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lightheart_http_request_duration_seconds",
		Help:    "HTTP request latency, by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lightheart_cache_hits_total",
		Help: "Cache reads answered from the cache.",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lightheart_cache_misses_total",
		Help: "Cache reads that fell through to the database.",
	})

	CacheErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lightheart_cache_errors_total",
		Help: "Cache backend failures, all treated as misses.",
	})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lightheart_rate_limited_total",
		Help: "Requests rejected by a rate limiter, by scope.",
	}, []string{"scope"})

	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lightheart_jobs_processed_total",
		Help: "Background jobs run to completion, by type and outcome.",
	}, []string{"type", "outcome"})

	ScoresSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lightheart_scores_submitted_total",
		Help: "Score submissions accepted and recorded.",
	})
)
