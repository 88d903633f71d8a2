// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package prefs

import "errors"

var (
	ErrMissingItem   = errors.New("show is missing or has no id")
	ErrInvalidStatus = errors.New("invalid status")
	ErrNotFound      = errors.New("show is not classified")
	ErrNotWatched    = errors.New("ratings apply to watched shows only")
	ErrNotInterested = errors.New("interest applies to interested shows only")
	ErrInvalidRating = errors.New("rating must be a finite number")
)
