// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

// Package omdb looks up critic scores (Rotten Tomatoes, Metacritic, IMDb)
// through the OMDb API.
//
// Service backs the /api/movie-ratings endpoint: it validates the lookup,
// serves cached payloads from the response store for 12 hours, and maps
// OMDb failures onto stable error codes:
//
//	omdb_key_missing      400  no API key on the server or in the request
//	missing_lookup        400  neither imdbId nor title given
//	omdb_request_failed   OMDb status, or 500 on transport failure
//	omdb_invalid_key      401  OMDb rejected the key
//	omdb_not_found        404  OMDb had no match
//
// Tracker is the per-session lookup state (idle, loading, loaded, error)
// keyed by show, used to decorate feed items with loaded scores.
package omdb
