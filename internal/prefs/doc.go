// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

// Package prefs holds a user's show classifications.
//
// Each classified show maps to a PreferenceEntry with one of three statuses:
// interested, watched or notInterested. Every status suppresses the show from
// the undecided feed. Interested and watched entries keep a snapshot of the
// show so the lists can render without a refetch; notInterested entries keep
// only the status and timestamp.
//
// The in-memory map is authoritative. Writes go through to the document store
// and failures are logged and counted, never returned to the caller. Every
// mutation publishes a prefs.changed event.
//
// Views derived from the map:
//
//   - Interested: sorted by interest level, then most recently updated
//   - Watched: recent, ratingDesc or ratingAsc, split into rated and unrated
//   - Stats: per-status counts, unclassified total and rating buckets
package prefs
