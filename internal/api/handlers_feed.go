// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tomtom215/showfeed/internal/feed"
	"github.com/tomtom215/showfeed/internal/logging"
	"github.com/tomtom215/showfeed/internal/models"
	"github.com/tomtom215/showfeed/internal/omdb"
	ws "github.com/tomtom215/showfeed/internal/websocket"
)

// FeedResponse is the rendered feed.
type FeedResponse struct {
	Items         []*models.ContentItem  `json:"items"`
	Status        feed.Status            `json:"status"`
	Filters       models.FeedFilterState `json:"filters"`
	Exhausted     bool                   `json:"exhausted"`
	RefillPending bool                   `json:"refillPending"`
}

func feedResponse(s *feed.Session, view feed.FeedView) FeedResponse {
	items := view.Items
	if items == nil {
		items = []*models.ContentItem{}
	}
	return FeedResponse{
		Items:         items,
		Status:        view.Status,
		Filters:       s.Filters(),
		Exhausted:     s.Exhausted(),
		RefillPending: s.RefillPending(),
	}
}

// Feed renders the caller's feed. A feed that needs more shows starts a
// load in the background; ?wait=true runs that load before answering.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var view feed.FeedView
	if queryBool(r, "wait") && s.Render().Trigger {
		s.RequestMore(context.WithoutCancel(r.Context()))
		view = s.View()
	} else {
		view = s.Present(r.Context())
	}

	NewResponseWriter(w, r).Success(feedResponse(s, view))
}

// Refill asks for another batch. Inside the cooldown the refill is deferred
// and the response reports it as pending.
func (h *Handler) Refill(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	s.RequestMore(context.WithoutCancel(r.Context()))

	rw := NewResponseWriter(w, r)
	resp := feedResponse(s, s.View())
	if resp.RefillPending {
		rw.Accepted(resp)
		return
	}
	rw.Success(resp)
}

// FiltersResponse is the filter state with the genres it can select from.
type FiltersResponse struct {
	Filters models.FeedFilterState `json:"filters"`
	Genres  []models.Genre         `json:"genres"`
}

// GetFilters returns the active filters.
func (h *Handler) GetFilters(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	NewResponseWriter(w, r).Success(FiltersResponse{Filters: s.Filters(), Genres: s.Genres().Genres()})
}

// PutFilters replaces the filters and returns the re-rendered feed.
func (h *Handler) PutFilters(w http.ResponseWriter, r *http.Request) {
	var req FiltersRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	view := s.SetFilters(r.Context(), req.State())
	NewResponseWriter(w, r).Success(feedResponse(s, view))
}

// Stats summarizes the caller's classifications.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	NewResponseWriter(w, r).Success(s.Stats())
}

// WebSocket upgrades the connection and subscribes it to the caller's feed
// and preference events. Browsers cannot set headers on the handshake, so
// the user may also come from ?user=.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		NewResponseWriter(w, r).ServiceUnavailable("Live updates are not available")
		return
	}

	userID := userIDFrom(r)
	if r.Header.Get(UserIDHeader) == "" {
		if q := strings.TrimSpace(r.URL.Query().Get("user")); q != "" {
			r.Header.Set(UserIDHeader, q)
			userID = userIDFrom(r)
		}
	}

	if err := ws.ServeWS(h.wsHub, &h.upgrader, w, r, userID); err != nil {
		// The upgrader has already answered the request.
		logging.Ctx(r.Context()).Debug().Err(err).Str("user_id", sanitizeLogValue(userID)).Msg("WebSocket upgrade failed")
	}
}

// CriticScoresResponse is a critic score lookup for one feed item.
type CriticScoresResponse struct {
	ID          int `json:"id"`
	omdb.State
	Description string `json:"description"`
}

// CriticScores looks up critic scores for a feed item. ?refresh=true
// bypasses the cached state.
func (h *Handler) CriticScores(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, err := showID(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	state, err := s.CriticScores(r.Context(), id, queryBool(r, "refresh"))
	if errors.Is(err, feed.ErrUnknownShow) {
		rw.NotFound("Show not found in feed")
		return
	}
	if err != nil {
		rw.InternalError("Critic score lookup failed")
		return
	}
	rw.Success(CriticScoresResponse{ID: id, State: state, Description: state.Describe()})
}
