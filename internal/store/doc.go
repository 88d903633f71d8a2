// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

// Package store persists Showfeed state in BadgerDB.
//
// Two stores share one database:
//
//   - DocumentStore keeps the per-user documents: the preference map under
//     user/<uid>/prefs, the discover cursor history under user/<uid>/discover
//     and the feed filters under user/<uid>/filters. Requests without a user
//     use the "anonymous" user.
//   - ResponseStore caches upstream HTTP responses by collection and key
//     parts. Entries carry a Badger TTL, and misses or read errors are
//     reported as "no cache" so callers can always fall through to the
//     upstream.
//
// Values are JSON encoded with goccy/go-json.
package store
