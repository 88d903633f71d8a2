// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

/*
Package main is the entry point for the Showfeed server.

Showfeed builds a ranked, per-user feed of TV shows from TMDB discover
results, enriches it with credits and critic scores, and keeps each
user's watched, not-interested and interested lists in Badger.

# Application Architecture

Long-running components run under a Suture v4 supervisor tree:

	RootSupervisor ("showfeed")
	├── DataSupervisor ("data-layer")
	│   ├── Badger value log GC ("badger-gc")
	│   └── Feed session manager ("feed-manager")
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket Hub ("websocket-hub")
	│   └── Event router ("event-router")
	└── APISupervisor ("api-layer")
	    └── HTTP Server ("http-server")

Component initialization order:

 1. Configuration: Koanf v2 with defaults, optional config file and environment
 2. Logging: zerolog with JSON/console output modes
 3. Storage: Badger documents and cached upstream responses
 4. Upstreams: TMDB direct client and proxy, OMDb, catalog service
 5. Events: Watermill in-process bus routed to the WebSocket hub
 6. Feed manager: one session per user
 7. HTTP Server: Chi router with middleware stack
 8. Supervisor Tree: start everything, stop on SIGINT/SIGTERM

# Configuration

Common environment variables:

	TMDB_API_KEY        server TMDB key
	TMDB_PROXY_ENDPOINT remote TMDB proxy for feed sessions
	OMDB_API_KEY        critic score lookups
	CATALOG_ENDPOINT    remote catalog for feed sessions
	BADGER_PATH         data directory
	HTTP_PORT           listen port
	LOG_LEVEL           trace, debug, info, warn, error

A config file is read from CONFIG_PATH or ./config.yaml when present.

# Example Usage

	export TMDB_API_KEY=your-tmdb-key
	export OMDB_API_KEY=your-omdb-key
	./showfeed

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains within
the configured shutdown timeout, feed sessions flush their pending history,
and Badger is closed last.
*/
package main
