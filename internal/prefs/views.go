// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package prefs

import (
	"sort"
	"strings"

	"github.com/tomtom215/showfeed/internal/models"
)

// Item is a classified show with its id.
type Item struct {
	ID int `json:"id"`
	models.PreferenceEntry
}

// WatchedSort orders the watched list.
type WatchedSort string

const (
	SortRecent     WatchedSort = "recent"
	SortRatingDesc WatchedSort = "ratingDesc"
	SortRatingAsc  WatchedSort = "ratingAsc"
)

// ParseWatchedSort returns the mode for s, defaulting to recent.
func ParseWatchedSort(s string) WatchedSort {
	switch WatchedSort(s) {
	case SortRatingDesc, SortRatingAsc:
		return WatchedSort(s)
	default:
		return SortRecent
	}
}

// WatchedView is the watched list split by whether the user rated the show.
type WatchedView struct {
	Sort    WatchedSort `json:"sort"`
	Rated   []Item      `json:"rated"`
	Unrated []Item      `json:"unrated"`
}

func (s *Store) itemsWithStatus(status models.Status) []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Item
	for id, entry := range s.prefs {
		if entry.Status == status && entry.Movie != nil {
			out = append(out, Item{ID: id, PreferenceEntry: entry.Clone()})
		}
	}
	return out
}

// Interested returns interested shows by interest desc then updatedAt desc.
// A non-empty genreNames keeps only shows carrying at least one of them,
// with names resolved through genres.
func (s *Store) Interested(genreNames []string, genres models.GenreMap) []Item {
	items := s.itemsWithStatus(models.StatusInterested)

	if len(genreNames) > 0 {
		wanted := make(map[string]struct{}, len(genreNames))
		for _, name := range genreNames {
			if name = strings.TrimSpace(name); name != "" {
				wanted[name] = struct{}{}
			}
		}
		filtered := items[:0]
		for _, item := range items {
			for _, name := range itemGenreNames(item.Movie, genres) {
				if _, ok := wanted[name]; ok {
					filtered = append(filtered, item)
					break
				}
			}
		}
		items = filtered
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := interestOf(items[i]), interestOf(items[j])
		if a != b {
			return a > b
		}
		if items[i].UpdatedAt != items[j].UpdatedAt {
			return items[i].UpdatedAt > items[j].UpdatedAt
		}
		return items[i].ID < items[j].ID
	})
	return items
}

// InterestedGenres returns the sorted genre names present on interested shows.
func (s *Store) InterestedGenres(genres models.GenreMap) []string {
	seen := map[string]struct{}{}
	for _, item := range s.itemsWithStatus(models.StatusInterested) {
		for _, name := range itemGenreNames(item.Movie, genres) {
			seen[name] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func itemGenreNames(movie *models.ContentItem, genres models.GenreMap) []string {
	if movie == nil {
		return nil
	}
	var names []string
	for _, id := range movie.GenreIDs {
		if name, ok := genres[id]; ok {
			names = append(names, name)
		}
	}
	for _, g := range movie.Genres {
		if name := strings.TrimSpace(g.Name); name != "" {
			names = append(names, name)
		} else if name, ok := genres[g.ID]; ok {
			names = append(names, name)
		}
	}
	return names
}

func interestOf(item Item) int {
	if item.Interest == nil {
		return 0
	}
	return *item.Interest
}

// Watched returns watched shows in the requested order.
func (s *Store) Watched(mode WatchedSort) WatchedView {
	items := s.itemsWithStatus(models.StatusWatched)
	mode = ParseWatchedSort(string(mode))

	sort.SliceStable(items, func(i, j int) bool {
		return watchedLess(items[i], items[j], mode)
	})

	view := WatchedView{Sort: mode, Rated: []Item{}, Unrated: []Item{}}
	for _, item := range items {
		if item.UserRating != nil {
			view.Rated = append(view.Rated, item)
		} else {
			view.Unrated = append(view.Unrated, item)
		}
	}
	return view
}

func watchedLess(a, b Item, mode WatchedSort) bool {
	if mode != SortRecent {
		ra, rb := effectiveRating(a), effectiveRating(b)
		switch {
		case ra == nil && rb != nil:
			return false
		case ra != nil && rb == nil:
			return true
		case ra != nil && rb != nil && *ra != *rb:
			if mode == SortRatingAsc {
				return *ra < *rb
			}
			return *ra > *rb
		}

		va, vb := voteCountOf(a), voteCountOf(b)
		switch {
		case va == nil && vb != nil:
			return false
		case va != nil && vb == nil:
			return true
		case va != nil && vb != nil && *va != *vb:
			if mode == SortRatingAsc {
				return *va < *vb
			}
			return *va > *vb
		}
	}
	if a.UpdatedAt != b.UpdatedAt {
		return a.UpdatedAt > b.UpdatedAt
	}
	return a.ID < b.ID
}

// effectiveRating is the user's rating, else the show's vote average.
func effectiveRating(item Item) *float64 {
	if item.UserRating != nil {
		return ClampUserRating(*item.UserRating)
	}
	if item.Movie != nil {
		return item.Movie.VoteAverage
	}
	return nil
}

func voteCountOf(item Item) *int {
	if item.Movie == nil {
		return nil
	}
	return item.Movie.VoteCount
}
