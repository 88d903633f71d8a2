// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

/*
Package api provides the HTTP layer for Showfeed.

Routes are served by a chi router with a global middleware stack: request
ids, real IP, panic recovery, CORS, Prometheus request metrics, the
in-memory performance monitor and gzip compression. Data endpoints are rate
limited per client IP with go-chi/httprate.

Endpoints under /api/v1 answer with a JSON envelope:

	{
	  "success": true,
	  "data": {...},
	  "error": {"code": "VALIDATION_ERROR", "message": "...", "details": {...}, "request_id": "..."},
	  "meta": {"request_id": "...", "timestamp": "...", "duration_ms": 3}
	}

Feed and preference endpoints act on the caller's session, named by the
X-User-ID header (anonymous when absent):

  - GET  /api/v1/feed, POST /api/v1/feed/refill
  - GET/PUT /api/v1/feed/filters, GET /api/v1/feed/stats
  - GET  /api/v1/feed/ws (live feed.status and prefs.changed events)
  - GET  /api/v1/feed/critic-scores/{id}
  - GET  /api/v1/prefs, /api/v1/prefs/interested, /api/v1/prefs/watched
  - PUT/DELETE /api/v1/prefs/{id}, PUT /api/v1/prefs/{id}/rating and /interest

Request bodies are validated with go-playground/validator; failures answer
400 with the VALIDATION_ERROR code.

The legacy endpoints /api/tv, /tmdbProxy (also /api/tmdbProxy) and
/api/movie-ratings pass the upstream reply through with its own status and
JSON shape.
*/
package api
