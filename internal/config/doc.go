// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

// Package config loads Showfeed configuration with Koanf v2.
//
// Sources are layered, later layers overriding earlier ones:
//
//  1. Built-in defaults (defaultConfig)
//  2. An optional YAML file (CONFIG_PATH, ./config.yaml, /etc/showfeed/config.yaml)
//  3. Environment variables, mapped explicitly by envTransformFunc
//
// Sections:
//
//   - server:   HTTP listener, timeouts, environment
//   - tmdb:     API key, base URL, proxy endpoint and upstream forward target
//   - omdb:     critic score lookups
//   - catalog:  the /api/tv discover cache
//   - feed:     feed size, refill cooldown, discover page budget, cursor history
//   - ranking:  quality threshold tiers
//   - storage:  Badger document store
//   - security: CORS and rate limiting
//   - logging:  level, format, caller
//
// Several TMDB variables accept historical aliases. TMDB_API_KEY wins over
// TMDB_KEY, which wins over TMDB_TOKEN; see applyEnvAliases.
package config
