// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package omdb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/showfeed/internal/models"
)

// LookupStatus is a critic score lookup state.
type LookupStatus string

const (
	StatusIdle    LookupStatus = "idle"
	StatusLoading LookupStatus = "loading"
	StatusLoaded  LookupStatus = "loaded"
	StatusError   LookupStatus = "error"
)

// State is one show's lookup state. Data survives errors and reloads.
type State struct {
	Status LookupStatus         `json:"status"`
	Data   *models.CriticScores `json:"data"`
	Error  string               `json:"error,omitempty"`
}

// Describe renders the state as a short status line.
func (s State) Describe() string {
	switch s.Status {
	case StatusLoading:
		return "Fetching critic scores..."
	case StatusError:
		if s.Error != "" {
			return s.Error
		}
		return "Critic scores unavailable"
	case StatusLoaded:
		var parts []string
		if s.Data != nil && s.Data.RottenTomatoes != nil {
			parts = append(parts, fmt.Sprintf("Rotten Tomatoes: %d%%", *s.Data.RottenTomatoes))
		}
		if s.Data != nil && s.Data.Metacritic != nil {
			parts = append(parts, fmt.Sprintf("Metacritic: %d", *s.Data.Metacritic))
		}
		if s.Data != nil && s.Data.IMDb != nil {
			parts = append(parts, fmt.Sprintf("IMDb: %.1f", *s.Data.IMDb))
		}
		if len(parts) == 0 {
			return "Critic scores unavailable"
		}
		return strings.Join(parts, " · ")
	default:
		return "Not fetched yet"
	}
}

// Lookup identifies a show to OMDb.
type Lookup struct {
	IMDbID string `json:"imdbId,omitempty"`
	Title  string `json:"title,omitempty"`
	Year   string `json:"year,omitempty"`
	Type   string `json:"type"`
}

// lookupTitle prefers the TV name over the title.
func lookupTitle(item *models.ContentItem) string {
	if name := strings.TrimSpace(item.Name); name != "" {
		return name
	}
	return strings.TrimSpace(item.Title)
}

func lookupYear(item *models.ContentItem) string {
	date := strings.TrimSpace(item.DateString())
	if len(date) < 4 {
		return ""
	}
	if _, err := strconv.Atoi(date[:4]); err != nil {
		return ""
	}
	return date[:4]
}

// ShowKey identifies a show across lookups: tmdb:<id>, else imdb:<id>, else
// title:<lower>|year:<YYYY>. Empty when the show cannot be identified.
func ShowKey(item *models.ContentItem) string {
	if item == nil {
		return ""
	}
	if item.ID != 0 {
		return "tmdb:" + strconv.Itoa(item.ID)
	}
	if id := strings.TrimSpace(item.IMDbID); id != "" {
		return "imdb:" + id
	}
	title := lookupTitle(item)
	if title == "" {
		return ""
	}
	return "title:" + strings.ToLower(title) + "|year:" + lookupYear(item)
}

// BuildLookup returns the OMDb lookup for item, or nil without an IMDb id
// or title.
func BuildLookup(item *models.ContentItem) *Lookup {
	if item == nil {
		return nil
	}
	imdbID := strings.TrimSpace(item.IMDbID)
	title := lookupTitle(item)
	if imdbID == "" && title == "" {
		return nil
	}
	return &Lookup{IMDbID: imdbID, Title: title, Year: lookupYear(item), Type: models.CriticScoreType}
}

// Fetcher performs one lookup.
type Fetcher interface {
	Fetch(ctx context.Context, lookup Lookup) (*models.CriticScores, error)
}

// ServiceFetcher runs lookups against an in-process Service.
type ServiceFetcher struct {
	service *Service
	now     func() time.Time
}

// NewServiceFetcher wraps service.
func NewServiceFetcher(service *Service) *ServiceFetcher {
	return &ServiceFetcher{service: service, now: time.Now}
}

// Fetch resolves lookup and decodes the payload. Error replies become errors
// carrying the reply's message.
func (f *ServiceFetcher) Fetch(ctx context.Context, lookup Lookup) (*models.CriticScores, error) {
	result := f.service.Resolve(ctx, Query{IMDbID: lookup.IMDbID, Title: lookup.Title, Year: lookup.Year, Type: lookup.Type})
	if result.Status < 200 || result.Status >= 300 {
		var apiErr APIError
		if json.Unmarshal(result.Body, &apiErr) == nil {
			if apiErr.Message != "" {
				return nil, errors.New(apiErr.Message)
			}
			if apiErr.Code != "" {
				return nil, errors.New(apiErr.Code)
			}
		}
		return nil, fmt.Errorf("Request failed with status %d", result.Status)
	}
	scores := models.DecodeCriticScores(result.Body, f.now())
	if scores == nil {
		return nil, nil
	}
	return scores, nil
}

// Tracker holds a session's lookup states.
type Tracker struct {
	mu      sync.Mutex
	states  map[string]State
	fetcher Fetcher
}

// NewTracker creates a tracker. A nil fetcher leaves every lookup failing.
func NewTracker(fetcher Fetcher) *Tracker {
	return &Tracker{states: map[string]State{}, fetcher: fetcher}
}

// State returns item's state. Items that already carry scores are loaded.
func (t *Tracker) State(item *models.ContentItem) State {
	if item == nil {
		return State{Status: StatusIdle}
	}
	key := ShowKey(item)

	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.states[key]; ok && key != "" {
		return st
	}
	if item.CriticScores != nil {
		st := State{Status: StatusLoaded, Data: item.CriticScores.Clone()}
		if key != "" {
			t.states[key] = st
		}
		return st
	}
	return State{Status: StatusIdle}
}

// set stores next for item, keeping any earlier data when next has none.
func (t *Tracker) set(item *models.ContentItem, next State) State {
	key := ShowKey(item)
	t.mu.Lock()
	defer t.mu.Unlock()
	if next.Data == nil {
		if prev, ok := t.states[key]; ok && prev.Data != nil {
			next.Data = prev.Data
		} else if item.CriticScores != nil {
			next.Data = item.CriticScores.Clone()
		}
	}
	if key != "" {
		t.states[key] = next
	}
	return next
}

// Request looks up item's scores. Without force, a loading or loaded state
// is returned as is.
func (t *Tracker) Request(ctx context.Context, item *models.ContentItem, force bool) State {
	current := t.State(item)
	if !force && (current.Status == StatusLoading || current.Status == StatusLoaded) {
		return current
	}

	lookup := BuildLookup(item)
	if lookup == nil {
		return t.set(item, State{Status: StatusError, Error: "Not enough information to fetch critic scores."})
	}
	if t.fetcher == nil {
		return t.set(item, State{Status: StatusError, Error: "Critic scores unavailable"})
	}

	t.set(item, State{Status: StatusLoading, Data: current.Data})
	scores, err := t.fetcher.Fetch(ctx, *lookup)
	switch {
	case err != nil:
		return t.set(item, State{Status: StatusError, Error: err.Error()})
	case scores == nil:
		return t.set(item, State{Status: StatusError, Error: "Critic scores are unavailable for this title."})
	default:
		return t.set(item, State{Status: StatusLoaded, Data: scores})
	}
}

// Attach sets CriticScores on items whose lookup has loaded.
func (t *Tracker) Attach(items []*models.ContentItem) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, item := range items {
		if item == nil {
			continue
		}
		if st, ok := t.states[ShowKey(item)]; ok && st.Status == StatusLoaded && st.Data != nil {
			item.CriticScores = st.Data.Clone()
		}
	}
}
