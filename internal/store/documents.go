// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/showfeed/internal/models"
)

// AnonymousUser owns the documents of requests that carry no user id.
const AnonymousUser = "anonymous"

// Document names a per-user document.
type Document string

const (
	DocPrefs    Document = "prefs"
	DocDiscover Document = "discover"
	DocFilters  Document = "filters"
)

// DocumentStore reads and writes per-user documents.
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a document store on db.
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// UserKey returns the Badger key of a user's document.
func UserKey(userID string, doc Document) []byte {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = AnonymousUser
	}
	return []byte("user/" + userID + "/" + string(doc))
}

// LoadRaw returns the stored JSON, or ErrNotFound.
func (s *DocumentStore) LoadRaw(ctx context.Context, userID string, doc Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.db.get(UserKey(userID, doc))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load %s for %s: %w", doc, userID, err)
	}
	return data, nil
}

// SaveRaw stores JSON as-is.
func (s *DocumentStore) SaveRaw(ctx context.Context, userID string, doc Document, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.set(badger.NewEntry(UserKey(userID, doc), data)); err != nil {
		return fmt.Errorf("save %s for %s: %w", doc, userID, err)
	}
	return nil
}

// LoadJSON decodes a stored document into v.
func (s *DocumentStore) LoadJSON(ctx context.Context, userID string, doc Document, v any) error {
	data, err := s.LoadRaw(ctx, userID, doc)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s for %s: %w", doc, userID, err)
	}
	return nil
}

// SaveJSON encodes v and stores it.
func (s *DocumentStore) SaveJSON(ctx context.Context, userID string, doc Document, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s for %s: %w", doc, userID, err)
	}
	return s.SaveRaw(ctx, userID, doc, data)
}

// Delete removes a document. Deleting a missing document is not an error.
func (s *DocumentStore) Delete(ctx context.Context, userID string, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.delete(UserKey(userID, doc))
}

// LoadPrefs returns the user's preferences, empty when none are stored.
func (s *DocumentStore) LoadPrefs(ctx context.Context, userID string) (models.Preferences, error) {
	prefs := models.Preferences{}
	err := s.LoadJSON(ctx, userID, DocPrefs, &prefs)
	if errors.Is(err, ErrNotFound) {
		return models.Preferences{}, nil
	}
	if err != nil {
		return models.Preferences{}, err
	}
	return prefs, nil
}

// SavePrefs stores the user's preferences.
func (s *DocumentStore) SavePrefs(ctx context.Context, userID string, prefs models.Preferences) error {
	return s.SaveJSON(ctx, userID, DocPrefs, prefs)
}

// LoadFilters returns the user's stored filters, or nil.
func (s *DocumentStore) LoadFilters(ctx context.Context, userID string) (*models.FeedFilterState, error) {
	var state models.FeedFilterState
	err := s.LoadJSON(ctx, userID, DocFilters, &state)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveFilters stores the user's filters.
func (s *DocumentStore) SaveFilters(ctx context.Context, userID string, state models.FeedFilterState) error {
	return s.SaveJSON(ctx, userID, DocFilters, state)
}

// LoadUserDocument assembles the combined {prefs, tmdbTvDiscoverState,
// tvFeedFilters} view. A discover document that does not decode as a
// snapshot is left out.
func (s *DocumentStore) LoadUserDocument(ctx context.Context, userID string) (*models.UserDocument, error) {
	prefs, err := s.LoadPrefs(ctx, userID)
	if err != nil {
		return nil, err
	}
	doc := &models.UserDocument{Prefs: prefs}

	var snapshot models.DiscoverSnapshot
	if err := s.LoadJSON(ctx, userID, DocDiscover, &snapshot); err == nil && snapshot.Entries != nil {
		doc.TMDBTVDiscoverState = &snapshot
	}
	if filters, err := s.LoadFilters(ctx, userID); err == nil {
		doc.TVFeedFilters = filters
	}
	return doc, nil
}
