// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package feed

import (
	"context"
	"fmt"

	"github.com/tomtom215/showfeed/internal/filter"
	"github.com/tomtom215/showfeed/internal/models"
)

// FeedView is what the feed shows right now.
type FeedView struct {
	Items  []*models.ContentItem `json:"items"`
	Status Status                `json:"status"`
	// Trigger asks for another batch.
	Trigger bool `json:"-"`
}

// Render computes the view from current state. It has no side effects.
func (s *Session) Render() FeedView {
	suppressed := s.prefs.SuppressedIDs()

	s.mu.Lock()
	inFlight := s.refilling || s.cancelAttempt != nil
	filtersActive := filter.HasActive(s.filterState)
	exhausted := s.exhausted
	halted := s.halted
	previous := s.status
	visible := cloneAll(filter.Apply(s.candidates, s.filterState, s.genres, suppressed))
	total := len(s.candidates)
	unsuppressed := 0
	for _, item := range s.candidates {
		if _, hidden := suppressed[item.ID]; !hidden {
			unsuppressed++
		}
	}
	now := s.now()
	s.mu.Unlock()

	s.critic.Attach(visible)

	view := FeedView{Items: visible}
	status := func(message string, tone Tone, spinner bool) {
		view.Status = Status{Message: message, Tone: tone, Spinner: spinner, Attempt: previous.Attempt, At: now}
	}

	switch {
	case total == 0:
		switch {
		case inFlight:
			status("Waiting for TV shows from TMDB...", ToneInfo, true)
		case exhausted && filtersActive:
			status("TMDB did not return TV shows that match your filters.", ToneWarning, false)
		case exhausted:
			status("TMDB did not return any TV shows. Try again later.", ToneWarning, false)
		default:
			status("Requesting the first batch of TV shows...", ToneInfo, true)
			view.Trigger = true
		}
	case unsuppressed == 0:
		if inFlight {
			status("All current results are hidden; waiting for new TV shows...", ToneInfo, true)
		} else {
			status("All fetched TV shows are hidden by saved statuses. Looking for fresh titles...", ToneWarning, true)
			view.Trigger = true
		}
	case len(visible) == 0:
		switch {
		case inFlight:
			status("Filters removed the current batch; waiting for more TV shows...", ToneInfo, true)
		case exhausted && filtersActive:
			status("Filters are hiding every TV show that is currently available.", ToneWarning, false)
		case exhausted:
			status("TMDB did not return any additional TV shows.", ToneWarning, false)
		default:
			status(fmt.Sprintf("Filters are hiding %d %s; requesting more options...", unsuppressed, plural(unsuppressed, "show", "shows")), ToneWarning, true)
			view.Trigger = true
		}
	default:
		status(fmt.Sprintf("Showing %d %s (updated %s).", len(visible), plural(len(visible), "show", "shows"), formatClock(now)), ToneSuccess, false)
	}

	// A failed load waits for an explicit refill.
	if view.Trigger && halted {
		view.Trigger = false
		view.Status = previous
	}
	return view
}

// Present renders, publishes the status, and starts a refill in the
// background when the view asks for one and auto refill is on.
func (s *Session) Present(ctx context.Context) FeedView {
	view := s.Render()
	s.applyStatus(ctx, view.Status)
	if view.Trigger && s.opts.AutoRefill {
		go s.refillFn(context.WithoutCancel(ctx))
	}
	return view
}

// View returns the visible items with the current status, without
// re-rendering.
func (s *Session) View() FeedView {
	suppressed := s.prefs.SuppressedIDs()
	s.mu.Lock()
	visible := cloneAll(filter.Apply(s.candidates, s.filterState, s.genres, suppressed))
	st := s.status
	s.mu.Unlock()
	s.critic.Attach(visible)
	return FeedView{Items: visible, Status: st}
}

func cloneAll(items []*models.ContentItem) []*models.ContentItem {
	out := make([]*models.ContentItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}
