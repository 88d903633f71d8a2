// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

/*
Package middleware provides the HTTP middleware used by the API router.

Key Components:

  - RequestID: assigns or propagates X-Request-ID and stores it in the
    logging context
  - PrometheusMetrics: request counts and latency labelled by chi route
    pattern, so /api/v1/prefs/1 and /api/v1/prefs/2 share a series
  - PerformanceMonitor: sliding window of recent requests with per-route
    percentiles, exposed by the health endpoint
  - Compression: gzip for clients that accept it

All middleware has the chi signature func(http.Handler) http.Handler:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(perfMon.Middleware)
	r.Use(middleware.Compression)

The status-capturing writer passes Hijack through, so websocket upgrades
work behind the metrics and performance middleware. Compression skips
upgrade requests and the /metrics scrape.
*/
package middleware
