// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

// Package events carries in-process feed and preference notifications over
// a Watermill gochannel pub/sub.
//
// Topics:
//
//   - feed.status: a user's feed status line changed (FeedStatus payload)
//   - prefs.changed: a user's preference entry changed (PrefsChanged payload)
//
// Messages carry a UUID, a JSON payload and the owning user in the
// "user_id" metadata key. The Router consumes both topics and hands each
// message to a Sink, which the websocket hub implements to push updates to
// that user's connections.
package events
