// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package events

// FeedStatus is the feed.status payload.
type FeedStatus struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
	Tone    string `json:"tone"`
	Spinner bool   `json:"spinner"`
	Attempt int    `json:"attempt,omitempty"`
	At      int64  `json:"at"`
}

// Preference change actions.
const (
	ActionSet      = "set"
	ActionClear    = "clear"
	ActionRating   = "rating"
	ActionInterest = "interest"
)

// PrefsChanged is the prefs.changed payload. Status is empty after a clear.
type PrefsChanged struct {
	UserID string `json:"userId"`
	ID     int    `json:"id"`
	Action string `json:"action"`
	Status string `json:"status,omitempty"`
	At     int64  `json:"at"`
}
