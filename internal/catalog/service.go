// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/showfeed/internal/cache"
	"github.com/tomtom215/showfeed/internal/config"
	"github.com/tomtom215/showfeed/internal/logging"
	"github.com/tomtom215/showfeed/internal/models"
	"github.com/tomtom215/showfeed/internal/store"
	"github.com/tomtom215/showfeed/internal/tmdb"
)

// CacheCollection is the response store collection for catalog replies.
const CacheCollection = "tvDiscoverCache"

// Cache lifetimes.
const (
	DefaultCacheTTL = 10 * time.Minute
	DefaultGenreTTL = time.Hour
)

// CodeDiscoverFailed is the error code of a failed catalog request.
const CodeDiscoverFailed = "tv_discover_failed"

const genreCacheKey = "tv_genres"

var leadingYear = regexp.MustCompile(`^(\d{4})`)

// Upstream fetches allow-listed TMDB endpoints. *tmdb.Requester implements it.
type Upstream interface {
	Request(ctx context.Context, endpoint string, query url.Values) ([]byte, error)
}

// ResponseCache reads and writes cached replies. *store.ResponseStore
// implements it.
type ResponseCache interface {
	ReadCachedResponse(ctx context.Context, collection string, keyParts []string, ttl time.Duration) *store.CachedResponse
	WriteCachedResponse(ctx context.Context, collection string, keyParts []string, payload store.CachedResponse, ttl time.Duration) error
}

// Reply is a raw catalog reply.
type Reply struct {
	Status      int
	ContentType string
	Body        []byte
}

// Metadata describes how a catalog reply was assembled.
type Metadata struct {
	Limit        int      `json:"limit"`
	MinRating    *float64 `json:"minRating"`
	MinVotes     *float64 `json:"minVotes"`
	StartYear    *float64 `json:"startYear"`
	EndYear      *float64 `json:"endYear"`
	TotalResults int      `json:"totalResults"`
	TotalPages   int      `json:"totalPages"`
	Source       string   `json:"source"`
	ExcludeCount int      `json:"excludeCount"`
	FetchedAt    string   `json:"fetchedAt"`
}

func (m Metadata) asMap() map[string]any {
	return map[string]any{
		"limit":        m.Limit,
		"minRating":    m.MinRating,
		"minVotes":     m.MinVotes,
		"startYear":    m.StartYear,
		"endYear":      m.EndYear,
		"totalResults": m.TotalResults,
		"totalPages":   m.TotalPages,
		"source":       m.Source,
		"excludeCount": m.ExcludeCount,
		"fetchedAt":    m.FetchedAt,
	}
}

// Response is the /api/tv body.
type Response struct {
	Results  []json.RawMessage `json:"results"`
	Metadata Metadata          `json:"metadata"`
	Genres   []models.Genre    `json:"genres"`
	GenreMap map[string]string `json:"genreMap"`
	Credits  any               `json:"credits"`
}

// Service answers catalog requests.
type Service struct {
	upstream Upstream
	cache    ResponseCache
	cfg      config.CatalogConfig
	genres   *cache.Cache[[]models.Genre]
	now      func() time.Time

	mu         sync.RWMutex
	lastGenres []models.Genre
}

// NewService creates a service. cache may be nil.
func NewService(cfg config.CatalogConfig, upstream Upstream, responses ResponseCache) *Service {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = DefaultMaxLimit
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.GenreTTL <= 0 {
		cfg.GenreTTL = DefaultGenreTTL
	}
	if cfg.MaxKeyIDs <= 0 {
		cfg.MaxKeyIDs = DefaultMaxKeyIDs
	}
	return &Service{
		upstream: upstream,
		cache:    responses,
		cfg:      cfg,
		genres:   cache.New[[]models.Genre]("tv_genres", cfg.GenreTTL),
		now:      time.Now,
	}
}

// Close stops the genre cache sweeper.
func (s *Service) Close() {
	s.genres.Close()
}

// Handle answers a request with the given query string.
func (s *Service) Handle(ctx context.Context, values url.Values) Reply {
	return s.Serve(ctx, ParseQuery(values, s.cfg.DefaultLimit, s.cfg.MaxLimit))
}

// Serve answers q from cache or TMDB.
func (s *Service) Serve(ctx context.Context, q Query) Reply {
	parts := CacheKeyParts(q, s.cfg.MaxKeyIDs)
	if s.cache != nil {
		if cached := s.cache.ReadCachedResponse(ctx, CacheCollection, parts, s.cfg.CacheTTL); cached != nil {
			status := cached.Status
			if status == 0 {
				status = http.StatusOK
			}
			contentType := cached.ContentType
			if contentType == "" {
				contentType = "application/json"
			}
			return Reply{Status: status, ContentType: contentType, Body: cached.Body}
		}
	}

	resp, err := s.Build(ctx, q)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to load TV catalog")
		return failure(err)
	}
	body, err := json.Marshal(resp)
	if err != nil {
		return failure(err)
	}

	if s.cache != nil {
		entry := store.CachedResponse{
			Status:      http.StatusOK,
			ContentType: "application/json",
			Body:        body,
			Metadata:    resp.Metadata.asMap(),
		}
		if err := s.cache.WriteCachedResponse(ctx, CacheCollection, parts, entry, s.cfg.CacheTTL); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Cache write failed")
		}
	}
	return Reply{Status: http.StatusOK, ContentType: "application/json", Body: body}
}

// Build assembles a fresh reply for q. Discovery and the genre list are
// fetched concurrently; only discovery can fail the request.
func (s *Service) Build(ctx context.Context, q Query) (*Response, error) {
	var (
		found  discovered
		genres []models.Genre
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		found, err = s.discover(gctx, q)
		return err
	})
	g.Go(func() error {
		genres = s.Genres(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	genreMap := make(map[string]string, len(genres))
	for _, genre := range genres {
		if name := strings.TrimSpace(genre.Name); name != "" {
			genreMap[strconv.Itoa(genre.ID)] = name
		}
	}
	if genres == nil {
		genres = []models.Genre{}
	}
	return &Response{
		Results: found.results,
		Metadata: Metadata{
			Limit:        q.Limit,
			MinRating:    q.MinRating,
			MinVotes:     q.MinVotes,
			StartYear:    q.StartYear,
			EndYear:      q.EndYear,
			TotalResults: found.totalResults,
			TotalPages:   found.totalPages,
			Source:       "tmdb_discover",
			ExcludeCount: len(q.Exclude),
			FetchedAt:    s.now().UTC().Format(time.RFC3339Nano),
		},
		Genres:   genres,
		GenreMap: genreMap,
	}, nil
}

// Genres returns the TV genre list, refreshed at most once per genre TTL.
// When TMDB fails the last good list is returned.
func (s *Service) Genres(ctx context.Context) []models.Genre {
	if cached, ok := s.genres.Get(genreCacheKey); ok && len(cached) > 0 {
		return cached
	}

	params := url.Values{}
	params.Set("language", "en-US")
	body, err := s.upstream.Request(ctx, tmdb.EndpointTVGenres, params)
	var list struct {
		Genres []models.Genre `json:"genres"`
	}
	if err == nil {
		if decodeErr := json.Unmarshal(body, &list); decodeErr != nil {
			list.Genres = nil
		}
	}
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Unable to refresh TV genre list")
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.lastGenres
	}

	s.mu.Lock()
	s.lastGenres = list.Genres
	s.mu.Unlock()
	s.genres.Set(genreCacheKey, list.Genres)
	return list.Genres
}

type discovered struct {
	results      []json.RawMessage
	totalPages   int
	totalResults int
}

type discoverPage struct {
	Results      []json.RawMessage `json:"results"`
	TotalPages   any               `json:"total_pages"`
	TotalResults any               `json:"total_results"`
}

// discover pages through TMDB until q.Limit shows pass the floors or the
// page budget runs out.
func (s *Service) discover(ctx context.Context, q Query) (discovered, error) {
	base := DiscoverParams(q)
	excluded := make(map[string]struct{}, len(q.Exclude))
	for _, id := range q.Exclude {
		excluded[id] = struct{}{}
	}
	seen := map[string]struct{}{}
	out := discovered{totalPages: 1, results: []json.RawMessage{}}

	for page := 1; len(out.results) < q.Limit && page <= s.cfg.MaxPages; page++ {
		params := url.Values{}
		for k, v := range base {
			params[k] = v
		}
		params.Set("page", strconv.Itoa(page))

		body, err := s.upstream.Request(ctx, tmdb.EndpointDiscoverTV, params)
		if err != nil {
			return discovered{}, err
		}
		var data discoverPage
		if err := json.Unmarshal(body, &data); err != nil {
			data = discoverPage{}
		}
		if total, ok := number(data.TotalPages); ok && total > 0 {
			out.totalPages = int(total)
		}
		if total, ok := number(data.TotalResults); ok && total >= 0 {
			out.totalResults = int(total)
		}

		for _, raw := range data.Results {
			id, ok := accept(raw, q)
			if !ok {
				continue
			}
			if _, skip := excluded[id]; skip {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out.results = append(out.results, raw)
		}

		if len(data.Results) == 0 || page >= out.totalPages {
			break
		}
	}

	if len(out.results) > q.Limit {
		out.results = out.results[:q.Limit]
	}
	return out, nil
}

// accept returns the show's id and whether it passes q's floors. Missing
// values pass a floor; only known values below it fail.
func accept(raw json.RawMessage, q Query) (string, bool) {
	var show map[string]any
	if err := json.Unmarshal(raw, &show); err != nil || show == nil {
		return "", false
	}
	id, ok := idString(show["id"])
	if !ok {
		return "", false
	}
	if avg, ok := number(show["vote_average"]); ok && q.MinRating != nil && avg < *q.MinRating {
		return "", false
	}
	if votes, ok := number(show["vote_count"]); ok && q.MinVotes != nil && votes < *q.MinVotes {
		return "", false
	}
	if q.StartYear != nil || q.EndYear != nil {
		year, ok := showYear(show)
		if ok && q.StartYear != nil && year < *q.StartYear {
			return "", false
		}
		if ok && q.EndYear != nil && year > *q.EndYear {
			return "", false
		}
	}
	return id, true
}

func showYear(show map[string]any) (float64, bool) {
	for _, field := range []string{"first_air_date", "release_date", "last_air_date"} {
		s, _ := show[field].(string)
		if m := leadingYear.FindStringSubmatch(strings.TrimSpace(s)); m != nil {
			if y, err := strconv.Atoi(m[1]); err == nil && y != 0 {
				return float64(y), true
			}
		}
	}
	return 0, false
}

func idString(v any) (string, bool) {
	switch id := v.(type) {
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), true
	case string:
		if id = strings.TrimSpace(id); id != "" {
			return id, true
		}
	}
	return "", false
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func failure(err error) Reply {
	status := http.StatusInternalServerError
	var upErr *tmdb.UpstreamError
	var statusErr *tmdb.StatusError
	switch {
	case errors.As(err, &upErr) && upErr.Status >= 400:
		status = upErr.Status
	case errors.As(err, &statusErr) && statusErr.Status >= 400:
		status = statusErr.Status
	}
	message := err.Error()
	if message == "" {
		message = "Unable to load TV shows from TMDB"
	}
	body, _ := json.Marshal(map[string]string{"error": CodeDiscoverFailed, "message": message})
	return Reply{Status: status, ContentType: "application/json", Body: body}
}
