// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

// Package cache provides the in-process caches used by Showfeed.
//
//   - Cache: a TTL map with a background sweeper. Holds the TMDB genre list
//     for the catalog endpoint and per-process lookups that tolerate loss.
//   - LRU: a generic ordered map with a capacity bound. The discover cursor
//     history is built on it because writes that change a cursor move the
//     signature to the newest position while plain reads and timestamp-only
//     writes leave the order alone.
//   - GenerateKey: a stable hashed key for multi-part cache keys.
//
// Both cache types are safe for concurrent use.
package cache
