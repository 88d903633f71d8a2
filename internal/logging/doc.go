// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

// Package logging provides centralized zerolog-based structured logging for Showfeed.
//
// A single global zerolog logger is configured at startup and shared by every
// package. JSON output is used in production, console output for development.
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("signature", key).Int("page", page).Msg("Fetched discover page")
//	logging.Err(err).Msg("Preference write failed")
//
// # Context Fields
//
// Request handlers attach the request id and the feed user to the context.
// Ctx(ctx) returns a logger carrying both:
//
//	ctx = logging.ContextWithUserID(ctx, userID)
//	logging.Ctx(ctx).Info().Msg("Feed rendered")
//	// {"level":"info","request_id":"...","user_id":"alice","message":"Feed rendered"}
//
// # slog Adapter
//
// Suture reports supervisor events through slog. NewSlogLogger returns an
// *slog.Logger whose records are written by the global zerolog logger:
//
//	hook := (&sutureslog.Handler{Logger: logging.NewSlogLogger()}).MustHook()
package logging
