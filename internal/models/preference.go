// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package models

// Status is a user's classification of a show.
type Status string

const (
	StatusInterested    Status = "interested"
	StatusWatched       Status = "watched"
	StatusNotInterested Status = "notInterested"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusInterested, StatusWatched, StatusNotInterested:
		return true
	}
	return false
}

// Suppresses reports whether an entry with this status hides the show from
// the undecided feed. Every classification does.
func (s Status) Suppresses() bool {
	return s.Valid()
}

// PreferenceEntry is one classified show.
//
// notInterested entries never carry Movie, Interest or UserRating.
type PreferenceEntry struct {
	Status     Status       `json:"status"`
	Interest   *int         `json:"interest,omitempty"`
	UserRating *float64     `json:"userRating,omitempty"`
	Movie      *ContentItem `json:"movie,omitempty"`
	UpdatedAt  int64        `json:"updatedAt"`
}

// Clone returns a deep copy.
func (e PreferenceEntry) Clone() PreferenceEntry {
	out := e
	if e.Interest != nil {
		out.Interest = Int(*e.Interest)
	}
	if e.UserRating != nil {
		out.UserRating = Float(*e.UserRating)
	}
	out.Movie = e.Movie.Clone()
	return out
}

// Preferences maps show id to its entry.
type Preferences map[int]PreferenceEntry

// UserDocument is the persisted per-user document.
type UserDocument struct {
	Prefs               Preferences       `json:"prefs"`
	TMDBTVDiscoverState *DiscoverSnapshot `json:"tmdbTvDiscoverState,omitempty"`
	TVFeedFilters       *FeedFilterState  `json:"tvFeedFilters,omitempty"`
}
