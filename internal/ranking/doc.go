// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

// Package ranking orders feed candidates by a composite priority score.
//
// Ranking happens in two steps. First the candidate pool is narrowed by a
// policy table of (minimum average, minimum votes) tiers walked from strict
// to lenient: the first tier that keeps at least MinResults shows wins,
// otherwise the first non-empty tier, otherwise every show with both an
// average and a vote count. Then each survivor is scored:
//
//	raw        = clamp(vote_average, 0, 10) / 10
//	volume     = log10(votes+1) / log10(maxVotes+1)
//	confidence = min(1, votes/150)
//	adjusted   = raw*confidence + 0.6*(1-confidence)
//	recency    = 1 for future dates, 0 after a year, linear between, 0.5 unknown
//	priority   = 0.3*adjusted + 0.5*sqrt(volume) + 0.2*recency
//
// and the list is stable sorted by priority, highest first.
package ranking
