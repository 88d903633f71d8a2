// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/showfeed/internal/middleware"
)

// HealthStatus is the body of GET /api/v1/health.
type HealthStatus struct {
	Status           string  `json:"status"`
	Environment      string  `json:"environment,omitempty"`
	Uptime           float64 `json:"uptime"`
	Sessions         int     `json:"sessions"`
	WebSocketClients int     `json:"websocket_clients"`
	TMDBProxy        bool    `json:"tmdb_proxy"`
	Catalog          bool    `json:"catalog"`
	CriticScores     bool    `json:"critic_scores"`
}

// Health reports liveness and which upstream services are wired.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:       "healthy",
		Environment:  h.config.Server.Environment,
		Uptime:       time.Since(h.startTime).Seconds(),
		TMDBProxy:    h.proxy != nil,
		Catalog:      h.catalog != nil,
		CriticScores: h.critic != nil && h.critic.Configured(),
	}
	if h.feeds != nil {
		status.Sessions = h.feeds.Len()
	} else {
		status.Status = "degraded"
	}
	if h.wsHub != nil {
		status.WebSocketClients = h.wsHub.ClientCount()
	}

	NewResponseWriter(w, r).Success(status)
}

// PerformanceReport is the body of GET /api/v1/health/performance.
type PerformanceReport struct {
	Endpoints []middleware.EndpointStats  `json:"endpoints"`
	Recent    []middleware.RequestMetrics `json:"recent"`
}

// HealthPerformance reports per-route latency percentiles and the most
// recent requests (?recent=N, default 20, max 200).
func (h *Handler) HealthPerformance(w http.ResponseWriter, r *http.Request) {
	recent := 20
	if raw := r.URL.Query().Get("recent"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			NewResponseWriter(w, r).BadRequest("recent must be a non-negative integer")
			return
		}
		recent = min(n, 200)
	}

	NewResponseWriter(w, r).Success(PerformanceReport{
		Endpoints: h.perfMon.GetStats(),
		Recent:    h.perfMon.GetRecentMetrics(recent),
	})
}
