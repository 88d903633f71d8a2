// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package prefs

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/tomtom215/showfeed/internal/events"
	"github.com/tomtom215/showfeed/internal/logging"
	"github.com/tomtom215/showfeed/internal/metrics"
	"github.com/tomtom215/showfeed/internal/models"
)

// Interest bounds.
const (
	MinInterest     = 1
	MaxInterest     = 5
	DefaultInterest = 3
)

// User rating bounds.
const (
	MinUserRating = 0
	MaxUserRating = 10
)

// Persister loads and saves a user's preference map.
type Persister interface {
	LoadPrefs(ctx context.Context, userID string) (models.Preferences, error)
	SavePrefs(ctx context.Context, userID string, prefs models.Preferences) error
}

// Publisher publishes change notifications.
type Publisher interface {
	Publish(ctx context.Context, topic, userID string, payload any) error
}

// SetOptions are optional inputs to Set.
type SetOptions struct {
	Interest *int
}

// Store is one user's preference map.
type Store struct {
	mu              sync.RWMutex
	userID          string
	prefs           models.Preferences
	persist         Persister
	publisher       Publisher
	defaultInterest int
	now             func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithPublisher publishes prefs.changed events on every mutation.
func WithPublisher(p Publisher) Option {
	return func(s *Store) { s.publisher = p }
}

// WithDefaultInterest overrides the interest used when none is given.
func WithDefaultInterest(level int) Option {
	return func(s *Store) { s.defaultInterest = ClampInterest(level) }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store for userID. persist may be nil for a
// memory-only store.
func New(userID string, persist Persister, opts ...Option) *Store {
	s := &Store{
		userID:          userID,
		prefs:           models.Preferences{},
		persist:         persist,
		defaultInterest: DefaultInterest,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UserID returns the owning user.
func (s *Store) UserID() string {
	return s.userID
}

// Load replaces the in-memory map with the persisted one. A failed or empty
// load leaves an empty map. Entries with an unknown status are dropped.
func (s *Store) Load(ctx context.Context) {
	if s.persist == nil {
		return
	}
	loaded, err := s.persist.LoadPrefs(ctx, s.userID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", s.userID).Msg("Failed to load preferences, starting empty")
		return
	}

	clean := make(models.Preferences, len(loaded))
	for id, entry := range loaded {
		if !entry.Status.Valid() {
			continue
		}
		clean[id] = normalizeEntry(entry)
	}

	s.mu.Lock()
	s.prefs = clean
	s.mu.Unlock()
}

// normalizeEntry enforces the per-status field rules on a loaded entry.
func normalizeEntry(e models.PreferenceEntry) models.PreferenceEntry {
	switch e.Status {
	case models.StatusInterested:
		e.UserRating = nil
		if e.Interest != nil {
			e.Interest = models.Int(ClampInterest(*e.Interest))
		}
	case models.StatusWatched:
		e.Interest = nil
		if e.UserRating != nil {
			e.UserRating = ClampUserRating(*e.UserRating)
		}
	case models.StatusNotInterested:
		e.Interest = nil
		e.UserRating = nil
		e.Movie = nil
	}
	return e
}

// Get returns the entry for id.
func (s *Store) Get(id int) (models.PreferenceEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.prefs[id]
	if !ok {
		return models.PreferenceEntry{}, false
	}
	return entry.Clone(), true
}

// Len returns the number of classified shows.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.prefs)
}

// Snapshot returns a deep copy of the map.
func (s *Store) Snapshot() models.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() models.Preferences {
	out := make(models.Preferences, len(s.prefs))
	for id, entry := range s.prefs {
		out[id] = entry.Clone()
	}
	return out
}

// Set classifies item with status and returns the stored entry.
func (s *Store) Set(ctx context.Context, item *models.ContentItem, status models.Status, opts SetOptions) (models.PreferenceEntry, error) {
	if item == nil || item.ID == 0 {
		return models.PreferenceEntry{}, ErrMissingItem
	}
	if !status.Valid() {
		return models.PreferenceEntry{}, ErrInvalidStatus
	}

	s.mu.Lock()
	existing, had := s.prefs[item.ID]
	entry := models.PreferenceEntry{
		Status:    status,
		UpdatedAt: s.now().UnixMilli(),
	}
	switch status {
	case models.StatusInterested:
		level := s.defaultInterest
		switch {
		case opts.Interest != nil:
			level = *opts.Interest
		case had && existing.Interest != nil:
			level = *existing.Interest
		}
		entry.Interest = models.Int(ClampInterest(level))
		entry.Movie = item.Summarize()
	case models.StatusWatched:
		entry.Movie = item.Summarize()
		if had && existing.Status == models.StatusWatched && existing.UserRating != nil {
			entry.UserRating = models.Float(*existing.UserRating)
		}
	}
	s.prefs[item.ID] = entry
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.commit(ctx, snapshot, events.PrefsChanged{ID: item.ID, Action: events.ActionSet, Status: string(status), At: entry.UpdatedAt})
	return entry.Clone(), nil
}

// SetUserRating sets or clears (nil) the rating on a watched entry.
func (s *Store) SetUserRating(ctx context.Context, id int, rating *float64) (models.PreferenceEntry, error) {
	s.mu.Lock()
	entry, ok := s.prefs[id]
	if !ok {
		s.mu.Unlock()
		return models.PreferenceEntry{}, ErrNotFound
	}
	if entry.Status != models.StatusWatched {
		s.mu.Unlock()
		return models.PreferenceEntry{}, ErrNotWatched
	}
	if rating == nil {
		entry.UserRating = nil
	} else {
		clamped := ClampUserRating(*rating)
		if clamped == nil {
			s.mu.Unlock()
			return models.PreferenceEntry{}, ErrInvalidRating
		}
		entry.UserRating = clamped
	}
	entry.UpdatedAt = s.now().UnixMilli()
	s.prefs[id] = entry
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.commit(ctx, snapshot, events.PrefsChanged{ID: id, Action: events.ActionRating, Status: string(entry.Status), At: entry.UpdatedAt})
	return entry.Clone(), nil
}

// SetInterest changes the interest level on an interested entry.
func (s *Store) SetInterest(ctx context.Context, id, level int) (models.PreferenceEntry, error) {
	s.mu.Lock()
	entry, ok := s.prefs[id]
	if !ok {
		s.mu.Unlock()
		return models.PreferenceEntry{}, ErrNotFound
	}
	if entry.Status != models.StatusInterested {
		s.mu.Unlock()
		return models.PreferenceEntry{}, ErrNotInterested
	}
	entry.Interest = models.Int(ClampInterest(level))
	entry.UpdatedAt = s.now().UnixMilli()
	s.prefs[id] = entry
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.commit(ctx, snapshot, events.PrefsChanged{ID: id, Action: events.ActionInterest, Status: string(entry.Status), At: entry.UpdatedAt})
	return entry.Clone(), nil
}

// Clear removes the entry for id and returns it.
func (s *Store) Clear(ctx context.Context, id int) (models.PreferenceEntry, bool) {
	s.mu.Lock()
	entry, ok := s.prefs[id]
	if !ok {
		s.mu.Unlock()
		return models.PreferenceEntry{}, false
	}
	delete(s.prefs, id)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.commit(ctx, snapshot, events.PrefsChanged{ID: id, Action: events.ActionClear, At: s.now().UnixMilli()})
	return entry, true
}

// SuppressedIDs returns the ids hidden from the undecided feed.
func (s *Store) SuppressedIDs() map[int]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]struct{}, len(s.prefs))
	for id, entry := range s.prefs {
		if entry.Status.Suppresses() {
			out[id] = struct{}{}
		}
	}
	return out
}

// IsSuppressed reports whether id is hidden from the undecided feed.
func (s *Store) IsSuppressed(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.prefs[id]
	return ok && entry.Status.Suppresses()
}

// commit persists the snapshot and publishes the change. Both are fail-soft.
func (s *Store) commit(ctx context.Context, snapshot models.Preferences, change events.PrefsChanged) {
	if s.persist != nil {
		if err := s.persist.SavePrefs(ctx, s.userID, snapshot); err != nil {
			metrics.RecordPersistError("prefs")
			logging.Ctx(ctx).Error().Err(err).Str("user_id", s.userID).Int("show_id", change.ID).Msg("Failed to persist preferences")
		}
	}
	if s.publisher != nil {
		change.UserID = s.userID
		if err := s.publisher.Publish(ctx, events.TopicPrefsChanged, s.userID, change); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("user_id", s.userID).Msg("Failed to publish preference change")
		}
	}
}

// ClampInterest rounds and clamps level into 1..5.
func ClampInterest(level int) int {
	return min(MaxInterest, max(MinInterest, level))
}

// ClampUserRating clamps v into 0..10 and rounds it to the nearest 0.5.
// Non-finite values return nil.
func ClampUserRating(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	v = math.Min(MaxUserRating, math.Max(MinUserRating, v))
	return models.Float(math.Round(v*2) / 2)
}
