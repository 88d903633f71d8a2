// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

/*
Package websocket pushes a user's feed status and preference changes to
that user's open browser tabs.

Key Components:

  - Hub: tracks connected clients and routes each event to the clients of
    the user it belongs to
  - Client: one connection with a read and a write goroutine
  - Message: the {"type", "data"} frame written to the socket

The hub is fed by an events.Router, which consumes the in-process event bus
and calls Hub.Deliver for every message:

	bus ──▶ events.Router ──▶ Hub.Deliver(userID, topic, payload)
	                              │
	                  ┌───────────┴───────────┐
	                  │ clients of userID only │
	                  └────────────────────────┘

Message Types:

  - feed.status: the status line of a feed attempt (message, tone, spinner)
  - prefs.changed: a show was classified, rated or cleared
  - pong: reply to a client {"type":"ping"}

Usage Example:

	hub := websocket.NewHub()
	supervisor.AddMessagingService(hub)

	upgrader := websocket.NewUpgrader(cfg.Security.CORSOrigins)
	r.Get("/api/feed/ws", func(w http.ResponseWriter, r *http.Request) {
	    if err := websocket.ServeWS(hub, &upgrader, w, r, userID); err != nil {
	        logging.Warn().Err(err).Msg("WebSocket upgrade failed")
	    }
	})

Connection Lifecycle:

 1. Client connects via HTTP upgrade (Origin must be allowed)
 2. Hub registers the client under its user
 3. Events for that user are written as JSON frames
 4. On disconnect or a full send buffer the hub drops the client

Settings:

  - writeWait: 10 seconds
  - pongWait: 60 seconds
  - pingPeriod: 54 seconds
  - maxMessageSize: 64 KB
*/
package websocket
