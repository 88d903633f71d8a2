// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showfeed_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "showfeed_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "showfeed_api_active_requests",
			Help: "Number of API requests currently being processed",
		},
	)

	// Upstream Metrics
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showfeed_upstream_requests_total",
			Help: "Requests made to TMDB, the TMDB proxy, the catalog and OMDb",
		},
		[]string{"upstream", "outcome"}, // outcome: success, failure
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "showfeed_upstream_request_duration_seconds",
			Help:    "Duration of upstream requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"upstream"},
	)

	ProxyDisabled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showfeed_tmdb_proxy_disabled_total",
			Help: "Times a session disabled the TMDB proxy after a failure",
		},
		[]string{"reason"},
	)

	// Feed Metrics
	DiscoverPagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showfeed_discover_pages_fetched_total",
			Help: "Discover pages fetched by the feed orchestrator",
		},
		[]string{"mode"}, // proxy, direct
	)

	FeedLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showfeed_feed_loads_total",
			Help: "Feed load attempts by data source and outcome",
		},
		[]string{"source", "outcome"},
	)

	FeedLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "showfeed_feed_load_duration_seconds",
			Help:    "Duration of feed load attempts",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	FeedSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "showfeed_feed_sessions",
			Help: "Active per-user feed sessions",
		},
	)

	PersistErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showfeed_persist_errors_total",
			Help: "Swallowed persistence failures",
		},
		[]string{"document"}, // prefs, discover, response_cache
	)

	StoreGCRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showfeed_store_gc_runs_total",
			Help: "Badger value log GC passes by result",
		},
		[]string{"result"},
	)

	StoreGCDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "showfeed_store_gc_duration_seconds",
			Help:    "Badger value log GC pass duration",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showfeed_cache_hits_total",
			Help: "Cache hits by cache name",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showfeed_cache_misses_total",
			Help: "Cache misses by cache name",
		},
		[]string{"cache"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showfeed_cache_evictions_total",
			Help: "Entries evicted by capacity",
		},
		[]string{"cache"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "showfeed_websocket_connections",
			Help: "Current number of WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "showfeed_websocket_messages_sent_total",
			Help: "Total WebSocket messages sent",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "showfeed_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showfeed_circuit_breaker_requests_total",
			Help: "Requests through circuit breakers by result",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showfeed_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordUpstream records one upstream call.
func RecordUpstream(upstream string, duration time.Duration, err error) {
	UpstreamDuration.WithLabelValues(upstream).Observe(duration.Seconds())
	UpstreamRequests.WithLabelValues(upstream, outcome(err)).Inc()
}

// RecordDiscoverPage counts a discover page fetched in the given mode.
func RecordDiscoverPage(mode string) {
	DiscoverPagesFetched.WithLabelValues(mode).Inc()
}

// RecordFeedLoad records a finished feed load attempt.
func RecordFeedLoad(source, result string, duration time.Duration) {
	FeedLoads.WithLabelValues(source, result).Inc()
	FeedLoadDuration.Observe(duration.Seconds())
}

// RecordCacheLookup counts a hit or miss for the named cache.
func RecordCacheLookup(cache string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cache).Inc()
		return
	}
	CacheMisses.WithLabelValues(cache).Inc()
}

// RecordPersistError counts a persistence failure that was logged and dropped.
func RecordPersistError(document string) {
	PersistErrors.WithLabelValues(document).Inc()
}

// RecordStoreGC records one value log GC pass.
func RecordStoreGC(duration time.Duration, err error) {
	StoreGCRuns.WithLabelValues(outcome(err)).Inc()
	StoreGCDuration.Observe(duration.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
