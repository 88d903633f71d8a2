// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package feed

import (
	"context"
	"math"

	"github.com/tomtom215/showfeed/internal/discover"
	"github.com/tomtom215/showfeed/internal/filter"
	"github.com/tomtom215/showfeed/internal/logging"
	"github.com/tomtom215/showfeed/internal/metrics"
	"github.com/tomtom215/showfeed/internal/models"
	"github.com/tomtom215/showfeed/internal/tmdb"
)

// pageSource fetches discover pages and the genre list. Both tmdb.Proxy and
// tmdb.Client satisfy it.
type pageSource interface {
	DiscoverTV(ctx context.Context, page int, genres filter.Query) (tmdb.Page, error)
	TVGenres(ctx context.Context) models.GenreMap
}

// unknownTotal stands in for a page count TMDB has not reported.
const unknownTotal = math.MaxInt

// discoverSource returns the page source for the current mode.
func (s *Session) discoverSource(useProxy bool) (pageSource, string) {
	if useProxy {
		return s.proxy, "proxy"
	}
	return s.direct, "direct"
}

// FetchFromDiscover pages TMDB discover until the feed holds at least
// minFeed visible shows, the page budget is spent, or TMDB runs out. existing
// seeds the pool. The cursor for the current signature is written back only
// when a network request was made, and never on error or cancellation. A
// genre selection that excludes everything makes no request at all.
func (s *Session) FetchFromDiscover(ctx context.Context, existing []*models.ContentItem, state models.FeedFilterState, genres models.GenreMap, suppressed map[int]struct{}, useProxy bool) ([]*models.ContentItem, error) {
	minFeed := s.opts.MinFeedResults

	seen := make(map[int]struct{}, len(existing))
	collected := make([]*models.ContentItem, 0, len(existing))
	for _, item := range existing {
		if item == nil || item.ID == 0 {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		collected = append(collected, item)
	}

	prioritized := s.ranker.Rank(collected)
	if filter.Count(prioritized, state, genres, suppressed) >= minFeed {
		return prioritized, nil
	}

	query := filter.GenreQuery(state)
	if query.BlockAll {
		return prioritized, nil
	}

	key := discover.Key(useProxy, state)
	cursor, _ := s.history.Read(key)
	page := max(1, cursor.NextPage)
	allowed := max(s.opts.MaxDiscoverPages, cursor.AllowedPages, page)
	total := unknownTotal
	if cursor.TotalPages != nil && *cursor.TotalPages > 0 {
		total = *cursor.TotalPages
	}
	if cursor.Exhausted && total != unknownTotal && page > total {
		return prioritized, nil
	}

	source, mode := s.discoverSource(useProxy)
	log := logging.Ctx(ctx).With().Str("signature", key).Str("mode", mode).Logger()

	madeNetwork := false
	reachedEnd := false

	// A cancelled attempt has been superseded and must not move the cursor.
	commit := func() {
		if !madeNetwork || ctx.Err() != nil {
			return
		}
		next := models.DiscoverCursor{
			NextPage:     max(1, page),
			AllowedPages: max(allowed, s.opts.MaxDiscoverPages, page),
		}
		if total != unknownTotal {
			next.TotalPages = models.Int(total)
		}
		next.Exhausted = reachedEnd && (next.TotalPages == nil || page-1 >= total)
		s.history.Write(key, next)
	}

	for page <= allowed && page <= total {
		current := page
		result, err := source.DiscoverTV(ctx, current, query)
		madeNetwork = true
		metrics.RecordDiscoverPage(mode)
		if err != nil {
			log.Warn().Err(err).Int("page", current).Msg("Discover page request failed")
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if result.TotalPages != nil && *result.TotalPages > 0 {
			total = *result.TotalPages
		}

		for _, item := range result.Results {
			if item == nil || item.ID == 0 {
				continue
			}
			if _, dup := seen[item.ID]; dup {
				continue
			}
			if _, hidden := suppressed[item.ID]; hidden {
				continue
			}
			seen[item.ID] = struct{}{}
			collected = append(collected, item)
		}

		prioritized = s.ranker.Rank(collected)
		if filter.Count(prioritized, state, genres, suppressed) >= minFeed {
			page = current + 1
			reachedEnd = false
			commit()
			log.Debug().Int("page", current).Int("collected", len(collected)).Msg("Discover satisfied the feed")
			return s.keepRestored(prioritized), nil
		}

		if len(result.Results) == 0 && (total == unknownTotal || current >= total) {
			reachedEnd = true
			page = current + 1
			break
		}

		page = current + 1
		if page > allowed && allowed < s.opts.MaxDiscoverPagesLimit {
			allowed = min(s.opts.MaxDiscoverPagesLimit, max(allowed+s.opts.InitialDiscoverPages, page))
		}
	}

	if !reachedEnd && madeNetwork && total != unknownTotal && page > total {
		reachedEnd = true
	}
	commit()
	log.Debug().Int("next_page", page).Bool("reached_end", reachedEnd).Int("collected", len(collected)).Msg("Discover pass finished")
	return s.keepRestored(prioritized), nil
}

// keepRestored records every item in the restored pool and returns items.
func (s *Session) keepRestored(items []*models.ContentItem) []*models.ContentItem {
	s.mu.Lock()
	for _, item := range items {
		s.storeRestoredLocked(item)
	}
	s.mu.Unlock()
	return items
}
