// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package filter

import (
	"strings"

	"github.com/tomtom215/showfeed/internal/models"
)

// Year bounds applied at filter time.
const (
	MinYear = 1800
	MaxYear = 3000
)

// Criteria is filter state parsed for evaluation.
type Criteria struct {
	MinRating *float64
	MinVotes  *int
	StartYear *int
	EndYear   *int

	Mode       GenreMode
	Selected   map[int]struct{}
	Disallowed map[int]struct{}
}

// Compile parses state against the available genres. Inverted years are
// swapped.
func Compile(state models.FeedFilterState, available models.GenreMap) Criteria {
	c := Criteria{
		Mode:       ModeOf(state),
		Disallowed: DisallowedIDs(state, available),
	}
	if v := strings.TrimSpace(state.MinRating); v != "" {
		if f, ok := leadingFloat(strings.Replace(v, ",", ".", 1)); ok {
			c.MinRating = models.Float(clampFloat(f, 0, 10))
		}
	}
	if n, ok := leadingInt(state.MinVotes); ok {
		c.MinVotes = models.Int(max(0, n))
	}
	if n, ok := leadingInt(state.StartYear); ok {
		c.StartYear = models.Int(clampInt(n, MinYear, MaxYear))
	}
	if n, ok := leadingInt(state.EndYear); ok {
		c.EndYear = models.Int(clampInt(n, MinYear, MaxYear))
	}
	if c.StartYear != nil && c.EndYear != nil && *c.EndYear < *c.StartYear {
		c.StartYear, c.EndYear = c.EndYear, c.StartYear
	}
	if c.Mode == GenreModeCustom {
		c.Selected = idSet(parseIDList(state.SelectedGenres))
	}
	return c
}

// Match reports whether item passes the criteria.
func (c Criteria) Match(item *models.ContentItem) bool {
	if item == nil || c.Mode == GenreModeNone {
		return false
	}
	if c.MinRating != nil && (item.VoteAverage == nil || *item.VoteAverage < *c.MinRating) {
		return false
	}
	if c.MinVotes != nil && (item.VoteCount == nil || *item.VoteCount < *c.MinVotes) {
		return false
	}
	if c.StartYear != nil || c.EndYear != nil {
		year, ok := item.Year()
		if c.StartYear != nil && (!ok || year < *c.StartYear) {
			return false
		}
		if c.EndYear != nil && (!ok || year > *c.EndYear) {
			return false
		}
	}

	filterBySelection := c.Mode == GenreModeCustom && len(c.Selected) > 0
	if !filterBySelection && len(c.Disallowed) == 0 {
		return true
	}
	ids := item.AllGenreIDs()
	if filterBySelection {
		matched := false
		for _, id := range ids {
			if _, ok := c.Selected[id]; ok {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, id := range ids {
		if _, ok := c.Disallowed[id]; ok {
			return false
		}
	}
	return true
}

// Apply returns the items that are not suppressed and pass state. The
// input is not modified.
func Apply(items []*models.ContentItem, state models.FeedFilterState, available models.GenreMap, suppressed map[int]struct{}) []*models.ContentItem {
	if len(items) == 0 {
		return []*models.ContentItem{}
	}
	criteria := Compile(state, available)
	out := make([]*models.ContentItem, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if _, hidden := suppressed[item.ID]; hidden {
			continue
		}
		if criteria.Match(item) {
			out = append(out, item)
		}
	}
	return out
}

// Count returns len(Apply(...)) without building the slice.
func Count(items []*models.ContentItem, state models.FeedFilterState, available models.GenreMap, suppressed map[int]struct{}) int {
	criteria := Compile(state, available)
	n := 0
	for _, item := range items {
		if item == nil {
			continue
		}
		if _, hidden := suppressed[item.ID]; hidden {
			continue
		}
		if criteria.Match(item) {
			n++
		}
	}
	return n
}
