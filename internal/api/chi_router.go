// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/showfeed/internal/middleware"
)

// Router sets up HTTP routes using the Chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router whose CORS and rate limits come from the
// handler's security config.
func NewRouter(handler *Handler) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(ChiMiddlewareConfigFromSecurity(handler.config.Security)),
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()
	h := router.handler

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight
	r.Use(middleware.PrometheusMetrics)
	r.Use(h.perfMon.Middleware)
	r.Use(middleware.Compression)

	r.Handle("/metrics", promhttp.Handler())

	// ========================
	// Legacy Endpoints
	// ========================
	// Raw upstream JSON, no envelope.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Get("/api/tv", h.TVCatalog)
		r.Get("/tmdbProxy", h.TMDBProxy)
		r.Get("/api/tmdbProxy", h.TMDBProxy)
		r.Get("/api/movie-ratings", h.MovieRatings)
	})

	// ========================
	// API v1
	// ========================
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APISecurityHeaders())

		r.Get("/health", h.Health)
		r.Get("/health/performance", h.HealthPerformance)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())

			r.Route("/feed", func(r chi.Router) {
				r.Get("/", h.Feed)
				r.Post("/refill", h.Refill)
				r.Get("/filters", h.GetFilters)
				r.Put("/filters", h.PutFilters)
				r.Get("/stats", h.Stats)
				r.Get("/ws", h.WebSocket)
				r.Get("/critic-scores/{id}", h.CriticScores)
			})

			r.Route("/prefs", func(r chi.Router) {
				r.Get("/", h.ListPrefs)
				r.Get("/interested", h.Interested)
				r.Get("/watched", h.Watched)
				r.Put("/{id}", h.SetPref)
				r.Delete("/{id}", h.ClearPref)
				r.Put("/{id}/rating", h.SetRating)
				r.Put("/{id}/interest", h.SetInterest)
			})
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			WriteError(w, r, http.StatusNotFound, ErrCodeNotFound, "Endpoint not found")
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			WriteError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
		})
	})

	return r
}
