// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package api

import "github.com/tomtom215/showfeed/internal/models"

// FiltersRequest is the body of PUT /api/v1/feed/filters. Values are the
// strings the user typed; empty means unset.
type FiltersRequest struct {
	MinRating      string `json:"minRating" validate:"omitempty,filternumber,max=16"`
	MinVotes       string `json:"minVotes" validate:"omitempty,filternumber,max=16"`
	StartYear      string `json:"startYear" validate:"omitempty,filternumber,max=8"`
	EndYear        string `json:"endYear" validate:"omitempty,filternumber,max=8"`
	SelectedGenres string `json:"selectedGenres" validate:"genreselection,max=512"`
}

// State converts the request into the feed's filter state.
func (r FiltersRequest) State() models.FeedFilterState {
	return models.FeedFilterState{
		MinRating:      r.MinRating,
		MinVotes:       r.MinVotes,
		StartYear:      r.StartYear,
		EndYear:        r.EndYear,
		SelectedGenres: r.SelectedGenres,
	}
}

// SetStatusRequest is the body of PUT /api/v1/prefs/{id}.
type SetStatusRequest struct {
	Status   string `json:"status" validate:"required,showstatus"`
	Interest *int   `json:"interest" validate:"omitempty,min=1,max=5"`
}

// RatingRequest is the body of PUT /api/v1/prefs/{id}/rating. A null rating
// clears it.
type RatingRequest struct {
	Rating *float64 `json:"rating" validate:"omitempty,gte=0,lte=10"`
}

// InterestRequest is the body of PUT /api/v1/prefs/{id}/interest.
type InterestRequest struct {
	Interest int `json:"interest" validate:"required,min=1,max=5"`
}

// InterestedQuery narrows GET /api/v1/prefs/interested.
type InterestedQuery struct {
	Genres []string `json:"genre" validate:"max=50,dive,max=64"`
}

// WatchedQuery orders GET /api/v1/prefs/watched.
type WatchedQuery struct {
	Sort string `json:"sort" validate:"omitempty,oneof=recent ratingDesc ratingAsc"`
}
