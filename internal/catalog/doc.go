// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

/*
Package catalog serves and consumes the /api/tv catalog.

The server side (Service) walks TMDB's discover endpoint sorted by vote
average, applies the requested rating, vote and year floors, and caches the
assembled reply in the response store for ten minutes. The TV genre list is
held in a TTL cache for an hour and the last good list is served when TMDB
fails.

The consumer side (Client) is what a feed session asks first on every load.
It translates the session's filters into catalog query parameters, decodes
the loosely shaped reply into content items, and reports ErrUnavailable when
the catalog is missing so the session can stop asking.
*/
package catalog
