// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package websocket

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/showfeed/internal/logging"
)

// NewUpgrader returns an upgrader that accepts browser origins listed in
// allowedOrigins. "*" allows any origin; requests without an Origin header
// are rejected.
func NewUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      originChecker(allowedOrigins),
		HandshakeTimeout: 10 * time.Second,
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
			return false
		}
		for _, candidate := range allowed {
			if candidate == "*" || strings.EqualFold(candidate, origin) {
				return true
			}
		}
		logging.Warn().Str("origin", sanitizeOrigin(origin)).Msg("WebSocket connection rejected from unauthorized origin")
		return false
	}
}

// sanitizeOrigin strips control characters before the value reaches logs.
func sanitizeOrigin(origin string) string {
	if len(origin) > 200 {
		origin = origin[:200]
	}
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, origin)
}

// ServeWS upgrades the request and registers a client for userID. The
// upgrader writes the HTTP error response itself when the handshake fails.
func ServeWS(hub *Hub, upgrader *websocket.Upgrader, w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	client := NewClient(hub, conn, userID)
	hub.Register <- client
	client.Start()
	return nil
}
