// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package models

// DiscoverStateVersion is the persisted cursor history format version.
const DiscoverStateVersion = 1

// DiscoverCursor tracks discover pagination for one query signature.
type DiscoverCursor struct {
	NextPage     int    `json:"nextPage"`
	AllowedPages int    `json:"allowedPages"`
	TotalPages   *int   `json:"totalPages"`
	Exhausted    bool   `json:"exhausted"`
	UpdatedAt    int64  `json:"updatedAt"`
	LastAttempt  *int64 `json:"lastAttempt"`
}

// SameProgress reports whether two cursors agree on everything except timestamps.
func (c DiscoverCursor) SameProgress(other DiscoverCursor) bool {
	if c.NextPage != other.NextPage || c.AllowedPages != other.AllowedPages || c.Exhausted != other.Exhausted {
		return false
	}
	switch {
	case c.TotalPages == nil && other.TotalPages == nil:
		return true
	case c.TotalPages == nil || other.TotalPages == nil:
		return false
	default:
		return *c.TotalPages == *other.TotalPages
	}
}

// DiscoverSnapshot is the persisted cursor history.
type DiscoverSnapshot struct {
	Version int                       `json:"version"`
	Entries map[string]DiscoverCursor `json:"entries"`

	// Order lists Entries keys oldest first. JSON objects do not keep key
	// order, so it is stored alongside.
	Order []string `json:"order,omitempty"`
}
