// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/showfeed/internal/config"
	"github.com/tomtom215/showfeed/internal/filter"
	"github.com/tomtom215/showfeed/internal/models"
)

// MinPriorityResults is the smallest limit a session asks the catalog for.
const MinPriorityResults = 12

// ErrUnavailable means the catalog is missing or unreachable. Sessions stop
// asking after seeing it.
var ErrUnavailable = errors.New("catalog unavailable")

// Source returns raw catalog replies for a query string.
type Source interface {
	Fetch(ctx context.Context, values url.Values) (Reply, error)
}

// Fetch implements Source in process.
func (s *Service) Fetch(ctx context.Context, values url.Values) (Reply, error) {
	return s.Handle(ctx, values), nil
}

// HTTPSource requests a remote /api/tv.
type HTTPSource struct {
	endpoint string
	http     *http.Client
}

// NewHTTPSource creates a source for endpoint.
func NewHTTPSource(endpoint string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPSource{endpoint: endpoint, http: &http.Client{Timeout: timeout}}
}

// Fetch performs one GET.
func (h *HTTPSource) Fetch(ctx context.Context, values url.Values) (Reply, error) {
	target := h.endpoint
	if encoded := values.Encode(); encoded != "" {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + encoded
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return Reply{}, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.http.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reply{}, fmt.Errorf("read catalog response: %w", err)
	}
	return Reply{Status: resp.StatusCode, ContentType: resp.Header.Get("Content-Type"), Body: body}, nil
}

// NewSourceFromConfig returns an HTTP source for a configured endpoint,
// else local.
func NewSourceFromConfig(cfg config.CatalogConfig, local *Service, timeout time.Duration) Source {
	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		return NewHTTPSource(endpoint, timeout)
	}
	return local
}

// Result is a decoded catalog reply.
type Result struct {
	Items    []*models.ContentItem
	Genres   models.GenreMap
	Credits  map[int]*models.Credits
	Metadata map[string]any
}

// Client asks a catalog source for shows matching a session's filters.
type Client struct {
	source Source
	now    func() time.Time
}

// NewClient creates a client over source.
func NewClient(source Source) *Client {
	return &Client{source: source, now: time.Now}
}

// RequestValues builds the catalog query for the given filters, suppressed
// ids and minimum feed size.
func RequestValues(state models.FeedFilterState, suppressed map[int]struct{}, minFeed int) url.Values {
	state = filter.Sanitize(state)
	values := url.Values{}

	if v, err := strconv.ParseFloat(state.MinRating, 64); err == nil {
		values.Set("minRating", strconv.FormatFloat(v, 'f', -1, 64))
	}
	if v, err := strconv.Atoi(state.MinVotes); err == nil {
		values.Set("minVotes", strconv.Itoa(v))
	}
	start, startErr := strconv.Atoi(state.StartYear)
	end, endErr := strconv.Atoi(state.EndYear)
	if startErr == nil && endErr == nil && end < start {
		start, end = end, start
	}
	if startErr == nil {
		values.Set("startYear", strconv.Itoa(start))
	}
	if endErr == nil {
		values.Set("endYear", strconv.Itoa(end))
	}

	if len(suppressed) > 0 {
		ids := make([]int, 0, len(suppressed))
		for id := range suppressed {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = strconv.Itoa(id)
		}
		values.Set("excludeIds", strings.Join(parts, ","))
	}
	if minFeed > 0 {
		values.Set("limit", strconv.Itoa(max(minFeed, MinPriorityResults)))
	}
	return values
}

// Fetch asks the catalog for shows. Suppressed and duplicate ids are
// dropped. A 404 or 501 reply, a transport failure or an unreadable body
// wraps ErrUnavailable; other non-OK replies return a plain error.
func (c *Client) Fetch(ctx context.Context, state models.FeedFilterState, suppressed map[int]struct{}, minFeed int) (*Result, error) {
	reply, err := c.source.Fetch(ctx, RequestValues(state, suppressed, minFeed))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if reply.Status < 200 || reply.Status >= 300 {
		if reply.Status == http.StatusNotFound || reply.Status == http.StatusNotImplemented {
			return nil, fmt.Errorf("%w: status %d", ErrUnavailable, reply.Status)
		}
		return nil, fmt.Errorf("catalog request failed with status %d", reply.Status)
	}
	if !json.Valid(reply.Body) {
		return nil, fmt.Errorf("%w: invalid JSON body", ErrUnavailable)
	}
	return Decode(reply.Body, suppressed, c.now()), nil
}

// Decode maps a catalog body onto a Result. genres wins over genreMap when
// both are present.
func Decode(body []byte, suppressed map[int]struct{}, now time.Time) *Result {
	result := &Result{Genres: models.GenreMap{}, Credits: map[int]*models.Credits{}}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return result
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(fields["results"], &raws); err == nil {
		seen := map[int]struct{}{}
		for _, raw := range raws {
			item, ok := models.DecodeCatalogItem(raw, now)
			if !ok {
				continue
			}
			if _, dup := seen[item.ID]; dup {
				continue
			}
			seen[item.ID] = struct{}{}
			if _, hidden := suppressed[item.ID]; hidden {
				continue
			}
			result.Items = append(result.Items, item)
		}
	}

	genres := fields["genres"]
	if isNull(genres) {
		genres = fields["genreMap"]
	}
	if !isNull(genres) {
		result.Genres = models.DecodeGenreMap(genres)
	}
	if !isNull(fields["credits"]) {
		result.Credits = models.DecodeCreditsMap(fields["credits"])
	}

	var meta map[string]any
	if err := json.Unmarshal(fields["metadata"], &meta); err == nil && meta != nil {
		result.Metadata = meta
	}
	return result
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
