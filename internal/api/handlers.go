// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package api

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/showfeed/internal/catalog"
	"github.com/tomtom215/showfeed/internal/config"
	"github.com/tomtom215/showfeed/internal/feed"
	"github.com/tomtom215/showfeed/internal/middleware"
	"github.com/tomtom215/showfeed/internal/omdb"
	"github.com/tomtom215/showfeed/internal/tmdb"
	ws "github.com/tomtom215/showfeed/internal/websocket"
)

// Dependencies are the services the handlers front. Any of the upstream
// services may be nil, in which case their endpoints answer 503.
type Dependencies struct {
	Feed    *feed.Manager
	Catalog *catalog.Service
	Critic  *omdb.Service
	Proxy   *tmdb.LocalProxy
	Hub     *ws.Hub
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers.go: Handler struct and constructor (this file)
//   - handlers_helpers.go: shared request helpers
//   - handlers_health.go: health and performance endpoints
//   - handlers_feed.go: feed rendering, refill, filters, stats, push
//   - handlers_prefs.go: classification endpoints
//   - handlers_legacy.go: /api/tv, /tmdbProxy and /api/movie-ratings
type Handler struct {
	config    *config.Config
	feeds     *feed.Manager
	catalog   *catalog.Service
	critic    *omdb.Service
	proxy     *tmdb.LocalProxy
	wsHub     *ws.Hub
	upgrader  websocket.Upgrader
	perfMon   *middleware.PerformanceMonitor
	startTime time.Time
}

// NewHandler creates a new API handler.
//
// Example:
//
//	handler := api.NewHandler(cfg, api.Dependencies{Feed: manager, Hub: hub})
//	router := api.NewRouter(handler)
//	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: router.SetupChi()}
func NewHandler(cfg *config.Config, deps Dependencies) *Handler {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &Handler{
		config:    cfg,
		feeds:     deps.Feed,
		catalog:   deps.Catalog,
		critic:    deps.Critic,
		proxy:     deps.Proxy,
		wsHub:     deps.Hub,
		upgrader:  ws.NewUpgrader(cfg.Security.CORSOrigins),
		perfMon:   middleware.NewPerformanceMonitor(1000),
		startTime: time.Now(),
	}
}

// PerformanceMonitor returns the monitor the router records requests into.
func (h *Handler) PerformanceMonitor() *middleware.PerformanceMonitor {
	return h.perfMon
}
