// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package omdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/showfeed/internal/breaker"
	"github.com/tomtom215/showfeed/internal/config"
	"github.com/tomtom215/showfeed/internal/metrics"
	"github.com/tomtom215/showfeed/internal/models"
)

// DefaultBaseURL is the public OMDb API.
const DefaultBaseURL = "https://www.omdbapi.com/"

// Error codes.
const (
	CodeKeyMissing    = "omdb_key_missing"
	CodeMissingLookup = "missing_lookup"
	CodeRequestFailed = "omdb_request_failed"
	CodeInvalidKey    = "omdb_invalid_key"
	CodeNotFound      = "omdb_not_found"
)

// APIError is a lookup failure with the status to report.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

// Ratings are the normalized scores in a payload.
type Ratings struct {
	RottenTomatoes *int     `json:"rottenTomatoes"`
	Metacritic     *int     `json:"metacritic"`
	IMDb           *float64 `json:"imdb"`
}

// Payload is the /api/movie-ratings response body.
type Payload struct {
	Source    string    `json:"source"`
	Ratings   Ratings   `json:"ratings"`
	IMDbID    *string   `json:"imdbId"`
	Title     *string   `json:"title"`
	Year      *string   `json:"year"`
	Type      *string   `json:"type"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Client calls OMDb.
type Client struct {
	baseURL string
	http    *http.Client
	cb      *breaker.Breaker[[]byte]
	now     func() time.Time
}

// NewClient creates a client from cfg.
func NewClient(cfg config.OMDbConfig) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	bcfg := breaker.DefaultConfig()
	bcfg.IsSuccessful = func(err error) bool {
		var apiErr *APIError
		return err == nil || (errors.As(err, &apiErr) && apiErr.Status < 500)
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		cb:      breaker.New[[]byte]("omdb-api", bcfg),
		now:     time.Now,
	}
}

// omdbResponse is the subset of the OMDb title response that is read.
type omdbResponse struct {
	Response   string `json:"Response"`
	Error      string `json:"Error"`
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	IMDbID     string `json:"imdbID"`
	IMDbRating any    `json:"imdbRating"`
	Metascore  any    `json:"Metascore"`
	Ratings    []struct {
		Source string `json:"Source"`
		Value  any    `json:"Value"`
	} `json:"Ratings"`
}

// Lookup fetches and normalizes scores for q using apiKey.
func (c *Client) Lookup(ctx context.Context, apiKey string, q Query) (*Payload, error) {
	params := url.Values{}
	params.Set("apikey", apiKey)
	if q.IMDbID != "" {
		params.Set("i", q.IMDbID)
	} else {
		params.Set("t", q.Title)
	}
	if q.Year != "" {
		params.Set("y", q.Year)
	}
	if q.Type != "" {
		params.Set("type", q.Type)
	}
	params.Set("plot", "short")
	params.Set("r", "json")

	start := time.Now()
	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.get(ctx, c.baseURL+"?"+params.Encode())
	})
	metrics.RecordUpstream("omdb", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	var data omdbResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &APIError{Status: http.StatusInternalServerError, Code: CodeRequestFailed, Message: "Failed to fetch critic scores."}
	}
	if data.Response == "False" {
		message := data.Error
		if message == "" {
			message = "OMDb returned no results"
		}
		if strings.Contains(strings.ToLower(message), "api key") {
			return nil, &APIError{Status: http.StatusUnauthorized, Code: CodeInvalidKey, Message: message}
		}
		return nil, &APIError{Status: http.StatusNotFound, Code: CodeNotFound, Message: message}
	}
	return c.normalize(data, q), nil
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("omdb request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Status:  resp.StatusCode,
			Code:    CodeRequestFailed,
			Message: fmt.Sprintf("OMDb request failed with status %d", resp.StatusCode),
		}
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) normalize(data omdbResponse, q Query) *Payload {
	byName := map[string]any{}
	for _, r := range data.Ratings {
		if name := strings.ToLower(strings.TrimSpace(r.Source)); name != "" {
			byName[name] = r.Value
		}
	}
	rt := firstNonNil(byName["rotten tomatoes"], byName["rottentomatoes"])
	meta := firstNonNil(data.Metascore, byName["metacritic"])
	imdb := firstNonNil(data.IMDbRating, byName["internet movie database"], byName["imdb"])

	scores := models.NormalizeCriticScores(map[string]any{
		"ratings": map[string]any{"rottenTomatoes": rt, "metacritic": meta, "imdb": imdb},
	}, c.now())

	return &Payload{
		Source: "omdb",
		Ratings: Ratings{
			RottenTomatoes: scores.RottenTomatoes,
			Metacritic:     scores.Metacritic,
			IMDb:           scores.IMDb,
		},
		IMDbID:    optional(data.IMDbID),
		Title:     optional(firstText(data.Title, q.Title)),
		Year:      optional(firstText(data.Year, q.Year)),
		Type:      optional(q.Type),
		FetchedAt: c.now().UTC(),
	}
}

func firstNonNil(values ...any) any {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstText(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
