// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package feed

import (
	"context"
	"fmt"
	"math"
	"time"
)

// RequestMore loads another batch of shows. A call while a load is running
// only reports progress. A call inside the cooldown schedules one deferred
// refill; further calls before it fires collapse onto it.
func (s *Session) RequestMore(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.refilling {
		started := s.lastRefill
		s.mu.Unlock()
		s.setStatus(ctx, fmt.Sprintf("TV show request already in progress (started at %s).", formatClock(started)), ToneInfo, true)
		return
	}

	now := s.now()
	r := s.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		if s.pending == nil {
			detached := context.WithoutCancel(ctx)
			s.pending = time.AfterFunc(delay, func() {
				s.mu.Lock()
				s.pending = nil
				s.mu.Unlock()
				s.refillFn(detached)
			})
		}
		s.mu.Unlock()
		seconds := int(math.Ceil(delay.Round(time.Millisecond).Seconds()))
		s.setStatus(ctx, fmt.Sprintf("Waiting %ds before requesting more TV shows...", seconds), ToneInfo, true)
		return
	}

	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.refilling = true
	s.lastRefill = now
	s.exhausted = false
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.refilling = false
		s.mu.Unlock()
		s.Present(ctx)
	}()
	_ = s.Load(ctx)
}

// RefillPending reports whether a deferred refill is scheduled.
func (s *Session) RefillPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}
