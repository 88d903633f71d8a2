// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

/*
Package feed drives the undecided TV show feed for one user at a time.

A Session owns everything a feed needs between requests: the ranked
candidate list, the active filters, the user's preference store, the
discover cursor history, the proxy circuit state, the genre map, and the
critic score lookups. The Manager creates one session per user on first use
and flushes them all on shutdown.

Loading follows a fixed source order. The catalog (/api/tv) is asked first;
when it cannot fill the feed the session pages TMDB discover, through the
proxy while it is healthy and directly with the server key otherwise. A
proxy failure during a load disables the proxy for the session and the load
is retried once directly.

Every load runs under its own context tagged with an attempt number. A newer
attempt cancels the older one, and results from a superseded attempt are
discarded rather than written over newer state.

Render turns session state into a FeedView following the presenter decision
table. When the view asks for more shows the session schedules a refill,
subject to a cooldown enforced with golang.org/x/time/rate; triggers inside
the cooldown collapse onto one pending timer.
*/
package feed
