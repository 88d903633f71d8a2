// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/showfeed/internal/cache"
	"github.com/tomtom215/showfeed/internal/logging"
	"github.com/tomtom215/showfeed/internal/metrics"
)

const responsePrefix = "response/"

// CachedResponse is a stored upstream response.
type CachedResponse struct {
	Status      int            `json:"status"`
	ContentType string         `json:"contentType"`
	Body        []byte         `json:"body"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	StoredAt    time.Time      `json:"storedAt"`
}

// ResponseStore caches upstream responses keyed by collection and key parts.
type ResponseStore struct {
	db  *DB
	now func() time.Time
}

// NewResponseStore creates a response store on db.
func NewResponseStore(db *DB) *ResponseStore {
	return &ResponseStore{db: db, now: time.Now}
}

func responseKey(collection string, keyParts []string) []byte {
	return []byte(responsePrefix + cache.GenerateKey(collection, keyParts...))
}

// ReadCachedResponse returns the stored response if it is younger than ttl.
// Misses, expired entries and read errors all return nil.
func (s *ResponseStore) ReadCachedResponse(ctx context.Context, collection string, keyParts []string, ttl time.Duration) *CachedResponse {
	if ctx.Err() != nil {
		return nil
	}
	data, err := s.db.get(responseKey(collection, keyParts))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logging.Ctx(ctx).Warn().Err(err).Str("collection", collection).Msg("Cached response read failed")
		}
		metrics.RecordCacheLookup(collection, false)
		return nil
	}

	var resp CachedResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("collection", collection).Msg("Cached response is corrupt")
		metrics.RecordCacheLookup(collection, false)
		return nil
	}
	if ttl > 0 && s.now().Sub(resp.StoredAt) > ttl {
		metrics.RecordCacheLookup(collection, false)
		return nil
	}

	metrics.RecordCacheLookup(collection, true)
	return &resp
}

// WriteCachedResponse stores payload for ttl. A zero ttl stores without expiry.
func (s *ResponseStore) WriteCachedResponse(ctx context.Context, collection string, keyParts []string, payload CachedResponse, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if payload.StoredAt.IsZero() {
		payload.StoredAt = s.now()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode cached response: %w", err)
	}

	entry := badger.NewEntry(responseKey(collection, keyParts), data)
	if ttl > 0 {
		entry = entry.WithTTL(ttl)
	}
	if err := s.db.set(entry); err != nil {
		return fmt.Errorf("write cached response %s: %w", collection, err)
	}
	return nil
}
