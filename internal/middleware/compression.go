// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package middleware

import (
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// CompressionLevel is the gzip/deflate level for API responses.
const CompressionLevel = 5

// compressibleTypes are the response types worth compressing. Feed pages
// and catalog replies are JSON.
var compressibleTypes = []string{
	"application/json",
	"text/plain",
}

// Compression compresses JSON responses for clients that accept it.
// Websocket upgrades and the metrics scrape bypass the compressor.
func Compression(next http.Handler) http.Handler {
	compressed := chimiddleware.Compress(CompressionLevel, compressibleTypes...)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		compressed.ServeHTTP(w, r)
	})
}
