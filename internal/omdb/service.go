// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package omdb

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/showfeed/internal/config"
	"github.com/tomtom215/showfeed/internal/logging"
	"github.com/tomtom215/showfeed/internal/store"
)

// CacheCollection is the response store collection for payloads.
const CacheCollection = "omdb"

// DefaultCacheTTL is how long a payload is served from cache.
const DefaultCacheTTL = 12 * time.Hour

var allowedTypes = map[string]struct{}{"movie": {}, "series": {}, "episode": {}}

// Query is a validated /api/movie-ratings request.
type Query struct {
	IMDbID  string
	Title   string
	Year    string
	Type    string
	Refresh bool
	APIKey  string
}

// ParseQuery reads imdbId|imdbID, title, year, type, refresh and apiKey.
// Unknown types are dropped.
func ParseQuery(values url.Values) Query {
	q := Query{
		IMDbID:  strings.TrimSpace(firstText(values.Get("imdbId"), values.Get("imdbID"))),
		Title:   strings.TrimSpace(values.Get("title")),
		Year:    strings.TrimSpace(values.Get("year")),
		Refresh: ParseBool(values.Get("refresh")),
		APIKey:  strings.TrimSpace(values.Get("apiKey")),
	}
	if t := strings.ToLower(strings.TrimSpace(values.Get("type"))); t != "" {
		if _, ok := allowedTypes[t]; ok {
			q.Type = t
		}
	}
	return q
}

// ParseBool reads 1/true/yes/on and 0/false/no/off; any other non-empty
// value is true.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no", "off":
		return false
	default:
		return true
	}
}

// CacheKeyParts are the response store key parts for q.
func CacheKeyParts(q Query) []string {
	typ := q.Type
	if typ == "" {
		typ = "any"
	}
	parts := []string{"omdb", "type:" + strings.ToLower(typ)}
	switch {
	case q.IMDbID != "":
		parts = append(parts, "imdb:"+strings.ToLower(q.IMDbID))
	case q.Title != "":
		parts = append(parts, "title:"+strings.ToLower(q.Title))
	default:
		parts = append(parts, "title:")
	}
	return append(parts, "year:"+q.Year)
}

// ResponseCache reads and writes cached HTTP responses.
type ResponseCache interface {
	ReadCachedResponse(ctx context.Context, collection string, keyParts []string, ttl time.Duration) *store.CachedResponse
	WriteCachedResponse(ctx context.Context, collection string, keyParts []string, payload store.CachedResponse, ttl time.Duration) error
}

// Result is a raw endpoint reply.
type Result struct {
	Status      int
	ContentType string
	Body        []byte
}

// Service answers critic score lookups.
type Service struct {
	client     *Client
	cache      ResponseCache
	defaultKey string
	ttl        time.Duration
}

// NewService creates a service. cache may be nil.
func NewService(cfg config.OMDbConfig, client *Client, cache ResponseCache) *Service {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{client: client, cache: cache, defaultKey: strings.TrimSpace(cfg.APIKey), ttl: ttl}
}

// Configured reports whether a server key is set.
func (s *Service) Configured() bool {
	return s.defaultKey != ""
}

// Resolve answers q, from cache unless q.Refresh.
func (s *Service) Resolve(ctx context.Context, q Query) Result {
	apiKey := q.APIKey
	if apiKey == "" {
		apiKey = s.defaultKey
	}
	if apiKey == "" {
		return errorResult(&APIError{Status: http.StatusBadRequest, Code: CodeKeyMissing, Message: "OMDb API key is not configured on the server."})
	}
	if q.IMDbID == "" && q.Title == "" {
		return errorResult(&APIError{Status: http.StatusBadRequest, Code: CodeMissingLookup, Message: "Provide an imdbId or title to look up critic scores."})
	}

	parts := CacheKeyParts(q)
	if !q.Refresh && s.cache != nil {
		if cached := s.cache.ReadCachedResponse(ctx, CacheCollection, parts, s.ttl); cached != nil {
			status := cached.Status
			if status == 0 {
				status = http.StatusOK
			}
			return Result{Status: status, ContentType: cached.ContentType, Body: cached.Body}
		}
	}

	payload, err := s.client.Lookup(ctx, apiKey, q)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return errorResult(apiErr)
		}
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to fetch critic scores from OMDb")
		return errorResult(&APIError{Status: http.StatusInternalServerError, Code: CodeRequestFailed, Message: "Failed to fetch critic scores."})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errorResult(&APIError{Status: http.StatusInternalServerError, Code: CodeRequestFailed, Message: "Failed to encode critic scores."})
	}
	if s.cache != nil {
		entry := store.CachedResponse{
			Status:      http.StatusOK,
			ContentType: "application/json",
			Body:        body,
			Metadata: map[string]any{
				"imdbId": firstText(deref(payload.IMDbID), q.IMDbID),
				"title":  firstText(deref(payload.Title), q.Title),
				"year":   firstText(deref(payload.Year), q.Year),
				"type":   firstText(deref(payload.Type), q.Type),
			},
		}
		if err := s.cache.WriteCachedResponse(ctx, CacheCollection, parts, entry, s.ttl); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Cache write failed")
		}
	}
	return Result{Status: http.StatusOK, ContentType: "application/json", Body: body}
}

func errorResult(e *APIError) Result {
	body, _ := json.Marshal(e)
	return Result{Status: e.Status, ContentType: "application/json", Body: body}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
