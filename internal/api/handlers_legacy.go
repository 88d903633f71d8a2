// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package api

import (
	"net/http"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/tomtom215/showfeed/internal/logging"
	"github.com/tomtom215/showfeed/internal/omdb"
	"github.com/tomtom215/showfeed/internal/tmdb"
)

// The legacy endpoints answer with the upstream's own JSON shape rather
// than the API envelope.

// writeRawError writes {"error": code, "message": message}.
func writeRawError(w http.ResponseWriter, status int, code, message string) {
	body, err := json.Marshal(map[string]string{"error": code, "message": message})
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal raw error")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, "application/json", body)
}

// TVCatalog serves GET /api/tv.
func (h *Handler) TVCatalog(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeRawError(w, http.StatusServiceUnavailable, "catalog_unavailable", "TV catalog is not configured")
		return
	}
	reply := h.catalog.Handle(r.Context(), r.URL.Query())
	writeRaw(w, reply.Status, reply.ContentType, reply.Body)
}

// TMDBProxy serves GET /tmdbProxy?endpoint=<name>&<params>.
func (h *Handler) TMDBProxy(w http.ResponseWriter, r *http.Request) {
	if h.proxy == nil {
		writeRawError(w, http.StatusServiceUnavailable, "tmdb_proxy_unavailable", "TMDB proxy is not configured")
		return
	}

	query := r.URL.Query()
	endpoint := query.Get("endpoint")
	params := make(url.Values, len(query))
	for key, values := range query {
		if key == "endpoint" {
			continue
		}
		params[key] = values
	}

	resp, err := h.proxy.Fetch(r.Context(), endpoint, params)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("endpoint", sanitizeLogValue(endpoint)).Msg("TMDB proxy failed")
		writeRawError(w, http.StatusBadGateway, tmdb.CodeProxyFailed, "TMDB proxy request failed")
		return
	}
	writeRaw(w, resp.Status, resp.ContentType, resp.Body)
}

// MovieRatings serves GET /api/movie-ratings.
func (h *Handler) MovieRatings(w http.ResponseWriter, r *http.Request) {
	if h.critic == nil {
		writeRawError(w, http.StatusServiceUnavailable, omdb.CodeKeyMissing, "OMDb lookups are not configured")
		return
	}
	result := h.critic.Resolve(r.Context(), omdb.ParseQuery(r.URL.Query()))
	writeRaw(w, result.Status, result.ContentType, result.Body)
}
