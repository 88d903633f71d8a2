// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/showfeed/internal/catalog"
	"github.com/tomtom215/showfeed/internal/filter"
	"github.com/tomtom215/showfeed/internal/logging"
	"github.com/tomtom215/showfeed/internal/metrics"
	"github.com/tomtom215/showfeed/internal/models"
	"github.com/tomtom215/showfeed/internal/tmdb"
)

// clockFormat is the timestamp layout used in status lines.
const clockFormat = "15:04:05"

// Load sources.
const (
	SourceCache  = "cache"
	SourceProxy  = "proxy"
	SourceDirect = "direct"
)

// ErrStaleAttempt is returned by Load when a newer attempt replaced it.
var ErrStaleAttempt = errors.New("feed load superseded by a newer attempt")

// ErrNotConfigured is returned by Load when neither the proxy nor an API key
// is available.
var ErrNotConfigured = errors.New("tmdb access not configured")

// FetchResult is the outcome of one Fetch.
type FetchResult struct {
	Items    []*models.ContentItem
	Genres   models.GenreMap
	Credits  map[int]*models.Credits
	Metadata map[string]any
	// UsedFallback is true when discover supplied the items.
	UsedFallback bool
	// FromCache is true when the catalog alone supplied the items.
	FromCache bool
}

// Source names where the items came from.
func (r *FetchResult) Source(useProxy bool) string {
	switch {
	case r.FromCache:
		return SourceCache
	case useProxy:
		return SourceProxy
	default:
		return SourceDirect
	}
}

func describeSource(source string) string {
	switch source {
	case SourceCache:
		return "the TV show cache"
	case SourceProxy:
		return "the TMDB proxy service"
	default:
		return "the direct TMDB API"
	}
}

// Fetch asks the catalog first and falls back to discover when the catalog
// cannot fill the feed. Catalog items survive a failed fallback.
func (s *Session) Fetch(ctx context.Context, useProxy bool) (*FetchResult, error) {
	suppressed := s.prefs.SuppressedIDs()

	s.mu.Lock()
	state := s.filterState
	genres := s.genres
	catalogAvailable := !s.catalogUnavailable && s.catalog != nil
	s.mu.Unlock()

	result := &FetchResult{}
	satisfied := false

	if catalogAvailable {
		res, err := s.catalog.Fetch(ctx, state, suppressed, s.opts.MinFeedResults)
		switch {
		case errors.Is(err, catalog.ErrUnavailable):
			logging.Ctx(ctx).Info().Err(err).Msg("TV show cache unavailable for this session")
			s.mu.Lock()
			s.catalogUnavailable = true
			s.mu.Unlock()
		case err != nil:
			logging.Ctx(ctx).Warn().Err(err).Msg("TV show cache request failed")
		default:
			result.Items = s.keepRestored(s.ranker.Rank(res.Items))
			result.Genres = res.Genres
			result.Credits = res.Credits
			result.Metadata = res.Metadata
			if len(result.Genres) > 0 {
				genres = result.Genres
			}
			satisfied = filter.Count(result.Items, state, genres, suppressed) >= s.opts.MinFeedResults
			result.FromCache = len(result.Items) > 0
		}
	}
	if satisfied {
		return result, nil
	}

	items, err := s.FetchFromDiscover(ctx, result.Items, state, genres, suppressed, useProxy)
	if err != nil {
		if len(result.Items) == 0 {
			return nil, err
		}
		logging.Ctx(ctx).Warn().Err(err).Int("cached", len(result.Items)).Msg("Discover fallback failed, keeping cached TV shows")
		result.UsedFallback = false
		return result, nil
	}
	result.Items = items
	result.UsedFallback = true
	result.FromCache = false
	return result, nil
}

// beginAttempt starts a new load attempt, cancelling the previous one.
func (s *Session) beginAttempt(ctx context.Context) (context.Context, int, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelAttempt != nil {
		s.cancelAttempt()
	}
	s.attempt++
	attempt := s.attempt
	loadCtx, cancel := context.WithTimeout(logging.ContextWithAttempt(ctx, attempt), s.opts.LoadTimeout)
	s.cancelAttempt = cancel
	return loadCtx, attempt, func() {
		cancel()
		s.mu.Lock()
		if s.attempt == attempt {
			s.cancelAttempt = nil
		}
		s.mu.Unlock()
	}
}

// current reports whether attempt is still the newest one.
func (s *Session) current(attempt int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt == attempt && !s.closed
}

// Load fetches a fresh candidate list and replaces the session's
// candidates. A proxy failure disables the proxy and retries directly.
func (s *Session) Load(ctx context.Context) error {
	useProxy := s.usingProxy()
	if !useProxy && !s.direct.HasKey() {
		s.halt(ctx, "TMDB API key unavailable. Configure the server secret or enable the proxy to load TV shows.", ToneWarning)
		return ErrNotConfigured
	}

	loadCtx, attempt, done := s.beginAttempt(ctx)
	defer done()

	intro := "Checking the TV show cache before contacting TMDB directly using the server TMDB API key."
	fallbackNote := ""
	if useProxy {
		intro = "Checking the TV show cache before reaching out to the TMDB proxy service with your saved preferences."
		fallbackNote = " If this route fails we will automatically switch to the server TMDB API key."
	}
	started := s.now()
	s.setStatus(loadCtx, fmt.Sprintf("Loading TV shows (attempt %d) started at %s. %s%s", attempt, formatClock(started), intro, fallbackNote), ToneInfo, true)

	result, err := s.Fetch(loadCtx, useProxy)
	if err == nil {
		err = s.enrich(loadCtx, result, useProxy)
	}
	if !s.current(attempt) {
		logging.Ctx(loadCtx).Debug().Int("attempt", attempt).Msg("Discarding superseded feed load")
		return ErrStaleAttempt
	}

	if err != nil {
		metrics.RecordFeedLoad(sourceMode(useProxy), "error", s.now().Sub(started))
		if useProxy {
			summary := tmdb.SummarizeError(err)
			s.setStatus(loadCtx, fmt.Sprintf("Attempt %d using the TMDB proxy service failed (%s). Switching to the server TMDB API key.", attempt, summary), ToneWarning, true)
			s.proxy.State().Disable("load_failure")
			logging.Ctx(loadCtx).Warn().Err(err).Str("summary", summary).Msg("TMDB proxy load failed, switching to direct")
			if !s.direct.HasKey() {
				s.halt(loadCtx, "TMDB proxy is unavailable and no TMDB API key is configured on the server. Contact an administrator to restore access.", ToneError)
				return err
			}
			return s.Load(ctx)
		}
		logging.Ctx(loadCtx).Error().Err(err).Msg("Direct TMDB load failed")
		s.halt(loadCtx, fmt.Sprintf("Attempt %d using the direct TMDB API failed (%v). No TV shows were loaded. Check the TMDB API configuration and try again.", attempt, err), ToneError)
		return err
	}

	source := result.Source(useProxy)
	suppressed := s.prefs.SuppressedIDs()
	s.critic.Attach(result.Items)

	s.mu.Lock()
	s.candidates = result.Items
	for _, item := range result.Items {
		s.storeRestoredLocked(item)
	}
	if len(result.Genres) > 0 {
		s.genres = result.Genres
	}
	if result.Metadata != nil {
		s.catalogMeta = result.Metadata
	}
	s.filterState = filter.EnsureConsistency(s.filterState, s.genres)
	s.exhausted = len(result.Items) == 0
	s.halted = false
	visible := filter.Count(s.candidates, s.filterState, s.genres, suppressed)
	s.mu.Unlock()

	metrics.RecordFeedLoad(source, "success", s.now().Sub(started))

	tone := ToneWarning
	if visible > 0 {
		tone = ToneSuccess
	}
	s.setStatus(loadCtx, fmt.Sprintf("Loaded %d TV %s on attempt %d at %s using %s. %d %s your current filters.",
		len(result.Items), plural(len(result.Items), "show", "shows"), attempt, formatClock(s.now()),
		describeSource(source), visible, plural(visible, "matches", "match")), tone, false)
	return nil
}

// enrich fills in credits and genres after a successful fetch.
func (s *Session) enrich(ctx context.Context, result *FetchResult, useProxy bool) error {
	for _, item := range result.Items {
		if credits, ok := result.Credits[item.ID]; ok && credits != nil && item.NeedsCredits() {
			item.ApplyCredits(credits)
		}
	}
	s.enrichCredits(ctx, result.Items)

	s.mu.Lock()
	known := len(s.genres) > 0
	s.mu.Unlock()
	if len(result.Genres) == 0 && (!known || result.UsedFallback) {
		source, _ := s.discoverSource(useProxy)
		result.Genres = source.TVGenres(ctx)
	}
	return ctx.Err()
}

// enrichCredits fetches credits for up to MaxCreditRequests items that have
// neither cast nor directors. Requests run concurrently.
func (s *Session) enrichCredits(ctx context.Context, items []*models.ContentItem) {
	var targets []*models.ContentItem
	for _, item := range items {
		if len(targets) >= s.opts.MaxCreditRequests {
			break
		}
		if item.NeedsCredits() {
			targets = append(targets, item)
		}
	}
	if len(targets) == 0 {
		return
	}

	credits := make([]*models.Credits, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, item := range targets {
		g.Go(func() error {
			credits[i] = s.credits.Fetch(gctx, item.ID)
			return nil
		})
	}
	_ = g.Wait()

	for i, item := range targets {
		if credits[i] != nil {
			item.ApplyCredits(credits[i])
		}
	}
}

// halt records a terminal status. Render keeps it instead of retrying until
// the next explicit load.
func (s *Session) halt(ctx context.Context, message string, tone Tone) {
	s.mu.Lock()
	s.halted = true
	s.mu.Unlock()
	s.setStatus(ctx, message, tone, false)
}

func sourceMode(useProxy bool) string {
	if useProxy {
		return SourceProxy
	}
	return SourceDirect
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// formatClock formats t for a status line.
func formatClock(t time.Time) string {
	return t.Format(clockFormat)
}
