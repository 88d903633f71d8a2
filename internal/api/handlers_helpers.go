// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/showfeed/internal/feed"
	"github.com/tomtom215/showfeed/internal/logging"
	"github.com/tomtom215/showfeed/internal/store"
	"github.com/tomtom215/showfeed/internal/validation"
)

// maxBodySize bounds request bodies.
const maxBodySize = 64 * 1024

// maxUserIDLength bounds the X-User-ID header.
const maxUserIDLength = 128

// sanitizeLogValue removes control characters from strings to prevent log injection attacks.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// userIDFrom reads the caller from X-User-ID. Missing, oversized or
// control-character ids fall back to the anonymous user.
func userIDFrom(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if id == "" || len(id) > maxUserIDLength {
		return store.AnonymousUser
	}
	for _, c := range id {
		if c < 0x20 || c == 0x7F {
			return store.AnonymousUser
		}
	}
	return id
}

// session resolves the caller's feed session, writing an error response on
// failure.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*feed.Session, bool) {
	if h.feeds == nil {
		NewResponseWriter(w, r).ServiceUnavailable("Feed is not available")
		return nil, false
	}
	userID := userIDFrom(r)
	s, err := h.feeds.Session(r.Context(), userID)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("user_id", sanitizeLogValue(userID)).Msg("Failed to open feed session")
		NewResponseWriter(w, r).ServiceUnavailable("Feed is shutting down")
		return nil, false
	}
	return s, true
}

// showID parses the {id} route parameter.
func showID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid show id %q", sanitizeLogValue(raw))
	}
	return id, nil
}

var errEmptyBody = errors.New("request body is empty")

// decodeBody reads a JSON body into v and validates it. It writes the error
// response itself and reports whether the handler should continue.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	rw := NewResponseWriter(w, r)
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		rw.BadRequest("Request body too large or unreadable")
		return false
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		rw.BadRequest(errEmptyBody.Error())
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		rw.BadRequest("Invalid JSON body")
		return false
	}
	if verr := validation.ValidateStruct(v); verr != nil {
		rw.ValidationError(verr)
		return false
	}
	return true
}

// queryBool reads a boolean query flag.
func queryBool(r *http.Request, key string) bool {
	v := strings.ToLower(strings.TrimSpace(r.URL.Query().Get(key)))
	switch v {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
