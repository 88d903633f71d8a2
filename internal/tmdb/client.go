// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/showfeed/internal/breaker"
	"github.com/tomtom215/showfeed/internal/config"
	"github.com/tomtom215/showfeed/internal/filter"
	"github.com/tomtom215/showfeed/internal/metrics"
	"github.com/tomtom215/showfeed/internal/models"
)

// DefaultBaseURL is the public TMDB API.
const DefaultBaseURL = "https://api.themoviedb.org"

const userAgent = "showfeed-tmdb-client"

// maxErrorBodySize limits how much of a failed response is kept.
const maxErrorBodySize = 64 * 1024

// ErrNoAPIKey is returned by direct calls when no key is configured.
var ErrNoAPIKey = errors.New("tmdb api key not configured")

// StatusError is a non-2xx TMDB response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb request failed (%d)", e.Status)
}

// Client calls the TMDB API directly.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cb      *breaker.Breaker[[]byte]
}

// NewClient creates a direct client from cfg.
func NewClient(cfg config.TMDBConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	bcfg := breaker.DefaultConfig()
	bcfg.IsSuccessful = isBreakerSuccess
	return &Client{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		http:    &http.Client{Timeout: timeout},
		cb:      breaker.New[[]byte]("tmdb-api", bcfg),
	}
}

// isBreakerSuccess keeps client errors from tripping the breaker.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status < 500 && se.Status != http.StatusTooManyRequests
	}
	return errors.Is(err, context.Canceled)
}

// HasKey reports whether direct calls can be made.
func (c *Client) HasKey() bool {
	return c != nil && c.apiKey != ""
}

// Get fetches path with params and the API key and returns the raw body.
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if !c.HasKey() {
		return nil, ErrNoAPIKey
	}
	start := time.Now()
	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.get(ctx, path, params)
	})
	metrics.RecordUpstream("tmdb", time.Since(start), err)
	return body, err
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	q := url.Values{}
	for key, values := range params {
		q[key] = values
	}
	q.Set("api_key", c.apiKey)
	reqURL := c.baseURL + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tmdb request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &StatusError{Status: resp.StatusCode, Body: string(body)}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tmdb response: %w", err)
	}
	return body, nil
}

// Endpoint fetches an allow-listed proxy endpoint directly.
func (c *Client) Endpoint(ctx context.Context, name string, query url.Values) ([]byte, error) {
	path, forward, err := ResolveEndpoint(name, query)
	if err != nil {
		return nil, err
	}
	return c.Get(ctx, path, forward)
}

// DiscoverTV fetches one popularity-sorted discover page.
func (c *Client) DiscoverTV(ctx context.Context, page int, genres filter.Query) (Page, error) {
	if genres.BlockAll {
		return Page{}, nil
	}
	raw, err := c.Get(ctx, "/3/discover/tv", DiscoverParams(page, genres))
	if err != nil {
		return Page{}, err
	}
	return DecodePage(raw), nil
}

// TVGenres fetches the TV genre list. Failures yield an empty map.
func (c *Client) TVGenres(ctx context.Context) models.GenreMap {
	raw, err := c.Get(ctx, "/3/genre/tv/list", nil)
	if err != nil {
		return models.GenreMap{}
	}
	return DecodeGenreList(raw)
}

// TVCredits fetches /3/tv/{id}/credits.
func (c *Client) TVCredits(ctx context.Context, id int) (*models.Credits, error) {
	raw, err := c.Get(ctx, "/3/tv/"+strconv.Itoa(id)+"/credits", nil)
	if err != nil {
		return nil, err
	}
	return DecodeCredits(raw)
}

// DiscoverParams are the query parameters of a feed discover request.
func DiscoverParams(page int, genres filter.Query) url.Values {
	params := url.Values{}
	params.Set("sort_by", "popularity.desc")
	params.Set("include_adult", "false")
	params.Set("include_video", "false")
	params.Set("language", "en-US")
	params.Set("page", strconv.Itoa(page))
	if genres.WithGenres != "" {
		params.Set("with_genres", genres.WithGenres)
	}
	return params
}
