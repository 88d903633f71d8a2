// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

// Package services adapts components whose lifecycle is not already
// context-driven to suture's Serve(ctx) error contract.
//
// HTTPServerService binds the listen address itself, runs http.Server's
// blocking Serve and drains it with Shutdown when the supervisor stops it. The feed manager, WebSocket hub,
// event router and Badger compactor implement suture.Service themselves and
// are added to the tree directly.
package services
