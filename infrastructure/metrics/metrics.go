// Package metrics holds the Prometheus collectors of the catalog service.
// All collectors are registered against the default registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// UpstreamRequests counts content API calls by endpoint (list, detail) and outcome (ok, error).
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_upstream_requests_total",
		Help: "Content API requests by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	UpstreamRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_upstream_retries_total",
		Help: "Retried content API attempts.",
	})

	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_upstream_request_duration_seconds",
		Help:    "Duration of content API requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_lookups_total",
		Help: "Cache lookups by cache name and result (hit, miss, expired).",
	}, []string{"cache", "result"})

	DegradedVideos = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_degraded_videos_total",
		Help: "Videos built from list-level data because detail resolution failed.",
	})

	// SnapshotVideos tracks the size of the homepage snapshot as background loading extends it.
	SnapshotVideos = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_snapshot_videos",
		Help: "Number of videos in the homepage snapshot.",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_http_requests_total",
		Help: "HTTP requests handled, by method, route and status.",
	}, []string{"method", "path", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// Handler returns the Prometheus scrape handler. Mount it at GET /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordCacheLookup increments the lookup counter for a named cache.
func RecordCacheLookup(cache, result string) {
	if cache == "" {
		return
	}
	CacheLookups.WithLabelValues(cache, result).Inc()
}
