// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

// Package discover tracks TMDB discover pagination per query signature.
//
// A signature combines the source mode with the active filter values (see
// Key). Each signature owns a DiscoverCursor: the next page to request, the
// page budget, the upstream total when known, and whether the signature is
// exhausted. History keeps the most recent signatures, evicting the oldest.
//
// Cursor changes are persisted through a Scheduler. MarkDirty debounces a
// write; FlushNow cancels the pending write and writes immediately. Both
// paths run the same writer, and a failed debounced write is retried.
package discover
