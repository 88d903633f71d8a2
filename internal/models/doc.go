// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

/*
Package models defines the data structures shared across Showfeed.

Key types:

  - ContentItem: a discoverable TV show as returned by TMDB discover or the
    catalog endpoint, enriched lazily with credits and critic scores.
  - CriticScores: normalized Rotten Tomatoes / Metacritic / IMDb ratings.
  - PreferenceEntry: a user's classification of one show.
  - DiscoverCursor: pagination progress for one query signature.
  - FeedFilterState: the user's feed constraints.

Upstream payloads are loosely shaped (genre maps arrive as arrays or id-keyed
objects, vote counts as numbers or strings, critic scores under several key
spellings). The decoders in decode.go and critic.go normalize them once at the
boundary; the rest of the code only sees the typed structs.

JSON tags follow the persisted document shape so stored preferences and
cursors stay readable by older clients.
*/
package models
