// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package filter

import (
	"strconv"
	"strings"

	"github.com/tomtom215/showfeed/internal/models"
)

// GenreMode is the interpretation of selectedGenres.
type GenreMode string

const (
	GenreModeAll    GenreMode = "all"
	GenreModeNone   GenreMode = "none"
	GenreModeCustom GenreMode = "custom"
)

// ModeOf returns the genre selection mode of state. An empty selection
// means all genres.
func ModeOf(state models.FeedFilterState) GenreMode {
	switch strings.TrimSpace(state.SelectedGenres) {
	case "", models.GenreSelectionAll:
		return GenreModeAll
	case models.GenreSelectionNone:
		return GenreModeNone
	default:
		return GenreModeCustom
	}
}

// SelectedIDs returns the selected genre ids. In all mode that is every
// available genre; in none mode it is empty.
func SelectedIDs(state models.FeedFilterState, available models.GenreMap) []int {
	switch ModeOf(state) {
	case GenreModeAll:
		return available.IDs()
	case GenreModeNone:
		return nil
	default:
		return parseIDList(state.SelectedGenres)
	}
}

// DisallowedIDs returns available genres that are not selected.
func DisallowedIDs(state models.FeedFilterState, available models.GenreMap) map[int]struct{} {
	out := map[int]struct{}{}
	switch ModeOf(state) {
	case GenreModeAll:
		return out
	case GenreModeNone:
		for id := range available {
			out[id] = struct{}{}
		}
		return out
	}
	selected := idSet(parseIDList(state.SelectedGenres))
	for id := range available {
		if _, ok := selected[id]; !ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// HasActive reports whether any numeric bound is set or the genre mode is
// not "all".
func HasActive(state models.FeedFilterState) bool {
	if strings.TrimSpace(state.MinRating) != "" ||
		strings.TrimSpace(state.MinVotes) != "" ||
		strings.TrimSpace(state.StartYear) != "" ||
		strings.TrimSpace(state.EndYear) != "" {
		return true
	}
	return ModeOf(state) != GenreModeAll
}

// Query is the discover genre constraint derived from filter state.
type Query struct {
	// BlockAll means no discover call can return a visible show.
	BlockAll bool
	// WithGenres is the with_genres parameter, ids joined with "|". Empty
	// means no constraint.
	WithGenres string
}

// GenreQuery converts the selection into discover parameters.
func GenreQuery(state models.FeedFilterState) Query {
	switch ModeOf(state) {
	case GenreModeAll:
		return Query{}
	case GenreModeNone:
		return Query{BlockAll: true}
	}
	ids := parseIDList(state.SelectedGenres)
	if len(ids) == 0 {
		return Query{BlockAll: true}
	}
	return Query{WithGenres: joinIDs(ids, "|")}
}

// SelectGenres returns the selectedGenres value for a set of chosen ids.
// Ids unknown to available are ignored. With no genres known the result is
// all; an empty choice is none; choosing every genre is all.
func SelectGenres(ids []int, available models.GenreMap) string {
	if len(available) == 0 {
		return models.GenreSelectionAll
	}
	var kept []int
	seen := map[int]struct{}{}
	for _, id := range ids {
		if _, ok := available[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		kept = append(kept, id)
	}
	if len(kept) == 0 {
		return models.GenreSelectionNone
	}
	if len(kept) == len(available) {
		return models.GenreSelectionAll
	}
	return sanitizeGenres(joinIDs(kept, ","))
}

// EnsureConsistency drops selected ids that are no longer available and
// collapses the selection to all or none where it now means that. It is a
// no-op for all and none, and when no genres are known.
func EnsureConsistency(state models.FeedFilterState, available models.GenreMap) models.FeedFilterState {
	if ModeOf(state) != GenreModeCustom || len(available) == 0 {
		return state
	}
	current := parseIDList(state.SelectedGenres)
	var kept []int
	for _, id := range current {
		if _, ok := available[id]; ok {
			kept = append(kept, id)
		}
	}
	switch {
	case len(kept) == 0:
		state.SelectedGenres = models.GenreSelectionNone
	case len(kept) == len(available):
		state.SelectedGenres = models.GenreSelectionAll
	case len(kept) != len(current):
		state.SelectedGenres = joinIDs(kept, ",")
	}
	return state
}

// Summary describes the genre selection for status text.
func Summary(state models.FeedFilterState, available models.GenreMap) string {
	switch ModeOf(state) {
	case GenreModeAll:
		return "All genres selected"
	case GenreModeNone:
		return "No genres selected"
	}
	ids := parseIDList(state.SelectedGenres)
	switch {
	case len(ids) == 0:
		return "No genres selected"
	case len(ids) <= 3:
		names := make([]string, 0, len(ids))
		for _, id := range ids {
			name, ok := available[id]
			if !ok {
				name = "Genre " + strconv.Itoa(id)
			}
			names = append(names, name)
		}
		return strings.Join(names, ", ")
	default:
		return strconv.Itoa(len(ids)) + " genres selected"
	}
}

func idSet(ids []int) map[int]struct{} {
	out := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}
