// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

// Package tmdb talks to The Movie Database.
//
// There are two routes to TMDB data:
//
//   - Client calls api.themoviedb.org directly with the server API key,
//     behind a circuit breaker.
//   - Proxy calls a TMDB proxy endpoint (?endpoint=<name>&...). Proxy
//     failures are tracked per session in a ProxyState: a network error,
//     a 5xx, a 401/403, or a body mentioning tmdb_key_not_configured
//     disables the proxy; a 400 unsupported_endpoint disables only that
//     endpoint name.
//
// The proxy itself is served by LocalProxy, which resolves endpoint names
// through a fixed allow-list, calls TMDB directly when a key is configured
// and otherwise forwards to an upstream proxy.
//
// CreditsFetcher resolves a show's credits through the proxy tv_credits
// endpoint, then tv_details with appended credits, then the direct API.
package tmdb
