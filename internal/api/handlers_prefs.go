// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tomtom215/showfeed/internal/feed"
	"github.com/tomtom215/showfeed/internal/logging"
	"github.com/tomtom215/showfeed/internal/models"
	"github.com/tomtom215/showfeed/internal/prefs"
	"github.com/tomtom215/showfeed/internal/validation"
)

// PreferenceResponse is one saved classification.
type PreferenceResponse struct {
	ID    int                    `json:"id"`
	Entry models.PreferenceEntry `json:"entry"`
}

// PreferencesResponse is every saved classification, keyed by show id.
type PreferencesResponse struct {
	Entries models.Preferences `json:"entries"`
	Count   int                `json:"count"`
}

// writePrefsError maps classification errors onto API errors.
func writePrefsError(rw *ResponseWriter, r *http.Request, id int, err error) {
	switch {
	case errors.Is(err, feed.ErrUnknownShow):
		rw.NotFound("Show not found in feed or saved preferences")
	case errors.Is(err, prefs.ErrNotFound):
		rw.NotFound("Show is not classified")
	case errors.Is(err, prefs.ErrNotWatched), errors.Is(err, prefs.ErrNotInterested):
		rw.Conflict(err.Error())
	case errors.Is(err, prefs.ErrInvalidStatus), errors.Is(err, prefs.ErrInvalidRating), errors.Is(err, prefs.ErrMissingItem):
		rw.BadRequest(err.Error())
	default:
		logging.Ctx(r.Context()).Error().Err(err).Int("show_id", id).Msg("Preference update failed")
		rw.InternalError("Preference update failed")
	}
}

// ListPrefs returns every saved classification.
func (h *Handler) ListPrefs(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	snapshot := s.Prefs().Snapshot()
	NewResponseWriter(w, r).Success(PreferencesResponse{Entries: snapshot, Count: len(snapshot)})
}

// SetPref classifies a show. Suppressing statuses remove it from the feed.
func (h *Handler) SetPref(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, err := showID(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	var req SetStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	entry, err := s.SetStatus(r.Context(), id, models.Status(req.Status), prefs.SetOptions{Interest: req.Interest})
	if err != nil {
		writePrefsError(rw, r, id, err)
		return
	}
	rw.Success(PreferenceResponse{ID: id, Entry: entry})
}

// ClearPref removes a classification. The show may return to the feed.
func (h *Handler) ClearPref(w http.ResponseWriter, r *http.Request) {
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

	entry, err := s.ClearStatus(r.Context(), id)
	if err != nil {
		writePrefsError(rw, r, id, err)
		return
	}
	rw.Success(PreferenceResponse{ID: id, Entry: entry})
}

// SetRating sets or clears the user's rating on a watched show.
func (h *Handler) SetRating(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, err := showID(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	var req RatingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	entry, err := s.Prefs().SetUserRating(r.Context(), id, req.Rating)
	if err != nil {
		writePrefsError(rw, r, id, err)
		return
	}
	rw.Success(PreferenceResponse{ID: id, Entry: entry})
}

// SetInterest changes the interest level on an interested show.
func (h *Handler) SetInterest(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, err := showID(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	var req InterestRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	entry, err := s.Prefs().SetInterest(r.Context(), id, req.Interest)
	if err != nil {
		writePrefsError(rw, r, id, err)
		return
	}
	rw.Success(PreferenceResponse{ID: id, Entry: entry})
}

// InterestedResponse is the interested list with the genres it spans.
type InterestedResponse struct {
	Items  []prefs.Item `json:"items"`
	Genres []string     `json:"genres"`
}

// splitList reads a repeated or comma-separated query parameter.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Interested lists interested shows, most wanted first. ?genre= narrows
// the list to shows carrying any of the named genres.
func (h *Handler) Interested(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := InterestedQuery{Genres: splitList(r.URL.Query()["genre"])}
	if verr := validation.ValidateStruct(&q); verr != nil {
		rw.ValidationError(verr)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	genres := s.Genres()
	items := s.Prefs().Interested(q.Genres, genres)
	if items == nil {
		items = []prefs.Item{}
	}
	rw.Success(InterestedResponse{Items: items, Genres: s.Prefs().InterestedGenres(genres)})
}

// Watched lists watched shows split into rated and unrated, ordered by
// ?sort=recent|ratingDesc|ratingAsc.
func (h *Handler) Watched(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := WatchedQuery{Sort: strings.TrimSpace(r.URL.Query().Get("sort"))}
	if verr := validation.ValidateStruct(&q); verr != nil {
		rw.ValidationError(verr)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	rw.Success(s.Prefs().Watched(prefs.ParseWatchedSort(q.Sort)))
}
