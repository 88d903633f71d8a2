// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package feed

import (
	"context"
	"errors"

	"github.com/tomtom215/showfeed/internal/models"
	"github.com/tomtom215/showfeed/internal/omdb"
	"github.com/tomtom215/showfeed/internal/prefs"
)

// ErrUnknownShow is returned when a show id is neither in the feed nor in
// the user's saved entries.
var ErrUnknownShow = errors.New("show not found in feed")

// lookup finds a show by id among candidates, the restored pool, and saved
// snapshots, in that order.
func (s *Session) lookup(id int) *models.ContentItem {
	s.mu.Lock()
	for _, item := range s.candidates {
		if item.ID == id {
			s.mu.Unlock()
			return item
		}
	}
	if item, ok := s.restored[id]; ok {
		s.mu.Unlock()
		return item
	}
	s.mu.Unlock()

	if entry, ok := s.prefs.Get(id); ok && entry.Movie != nil {
		return entry.Movie
	}
	return nil
}

// SetStatus classifies show id. Suppressing statuses remove the show from
// the feed; an emptied feed asks for more.
func (s *Session) SetStatus(ctx context.Context, id int, status models.Status, opts prefs.SetOptions) (models.PreferenceEntry, error) {
	item := s.lookup(id)
	if item == nil {
		return models.PreferenceEntry{}, ErrUnknownShow
	}
	if !status.Valid() {
		return models.PreferenceEntry{}, prefs.ErrInvalidStatus
	}
	if status != models.StatusNotInterested && item.NeedsCredits() {
		if credits := s.credits.Fetch(ctx, id); credits != nil {
			s.mu.Lock()
			item.ApplyCredits(credits)
			s.mu.Unlock()
		}
	}

	entry, err := s.prefs.Set(ctx, item, status, opts)
	if err != nil {
		return entry, err
	}

	s.mu.Lock()
	delete(s.restored, id)
	s.pruneLocked(s.prefs.SuppressedIDs())
	s.mu.Unlock()

	s.Present(ctx)
	return entry, nil
}

// ClearStatus removes the saved entry for id. A show whose entry carried a
// snapshot returns to the feed once.
func (s *Session) ClearStatus(ctx context.Context, id int) (models.PreferenceEntry, error) {
	removed, ok := s.prefs.Clear(ctx, id)
	if !ok {
		return models.PreferenceEntry{}, prefs.ErrNotFound
	}

	s.mu.Lock()
	if removed.Movie != nil && !s.hasCandidateLocked(id) {
		restored := removed.Movie.Clone()
		s.storeRestoredLocked(restored)
		s.candidates = withItem(s.ranker.Rank(append([]*models.ContentItem{restored}, s.candidates...)), restored)
		s.exhausted = false
	}
	s.pruneLocked(s.prefs.SuppressedIDs())
	s.mu.Unlock()

	s.Present(ctx)
	return removed, nil
}

// withItem returns ranked with item at the front unless tier selection
// already kept it.
func withItem(ranked []*models.ContentItem, item *models.ContentItem) []*models.ContentItem {
	for _, r := range ranked {
		if r.ID == item.ID {
			return ranked
		}
	}
	return append([]*models.ContentItem{item}, ranked...)
}

func (s *Session) hasCandidateLocked(id int) bool {
	for _, item := range s.candidates {
		if item.ID == id {
			return true
		}
	}
	return false
}

// pruneLocked drops suppressed shows from the candidates.
func (s *Session) pruneLocked(suppressed map[int]struct{}) {
	kept := s.candidates[:0:0]
	for _, item := range s.candidates {
		if _, hidden := suppressed[item.ID]; !hidden {
			kept = append(kept, item)
		}
	}
	if len(kept) != len(s.candidates) {
		s.exhausted = false
	}
	s.candidates = kept
}

// CriticScores looks up critic scores for show id.
func (s *Session) CriticScores(ctx context.Context, id int, force bool) (omdb.State, error) {
	item := s.lookup(id)
	if item == nil {
		return omdb.State{}, ErrUnknownShow
	}
	s.mu.Lock()
	target := item.Clone()
	s.mu.Unlock()
	return s.critic.Request(ctx, target, force), nil
}
