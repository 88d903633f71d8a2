// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package models

// Genre selection sentinels.
const (
	GenreSelectionAll  = "__all__"
	GenreSelectionNone = "__none__"
)

// FeedFilterState holds the user's feed constraints as entered. Values are
// strings so that "unset" is the empty string; the filter package sanitizes
// and parses them.
type FeedFilterState struct {
	MinRating      string `json:"minRating"`
	MinVotes       string `json:"minVotes"`
	StartYear      string `json:"startYear"`
	EndYear        string `json:"endYear"`
	SelectedGenres string `json:"selectedGenres"`
}

// DefaultFeedFilters returns the unfiltered state.
func DefaultFeedFilters() FeedFilterState {
	return FeedFilterState{SelectedGenres: GenreSelectionAll}
}
