// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

// Package filter narrows a candidate list by the user's feed filters.
//
// Filter state is kept as entered (strings) and sanitized on every write:
//
//	state = filter.Sanitize(state)
//	visible := filter.Apply(candidates, state, genres, prefs.SuppressedIDs())
//
// Genre selection is one of three modes. "__all__" applies no genre
// constraint, "__none__" hides everything, and a comma separated id list
// keeps only shows whose genres all fall inside the selection: a selected
// genre must match and any known genre outside the selection disqualifies
// the show.
//
// Apply is pure and idempotent.
package filter
