// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package discover

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/showfeed/internal/logging"
	"github.com/tomtom215/showfeed/internal/metrics"
)

// DefaultPersistDebounce is the delay between MarkDirty and the write.
const DefaultPersistDebounce = 1500 * time.Millisecond

// WriteFunc persists the current state.
type WriteFunc func(ctx context.Context) error

// Scheduler debounces persistence of a dirty state.
type Scheduler struct {
	name     string
	debounce time.Duration
	write    WriteFunc
	timeout  time.Duration

	// writeMu serializes writes so a debounced write and FlushNow never
	// overlap.
	writeMu sync.Mutex

	mu     sync.Mutex
	timer  *time.Timer
	dirty  bool
	gen    uint64
	closed bool
}

// NewScheduler creates a scheduler that calls write after debounce. name
// labels logs and the persist error metric.
func NewScheduler(name string, debounce time.Duration, write WriteFunc) *Scheduler {
	if debounce <= 0 {
		debounce = DefaultPersistDebounce
	}
	return &Scheduler{
		name:     name,
		debounce: debounce,
		write:    write,
		timeout:  10 * time.Second,
	}
}

// MarkDirty records a change and schedules a write if none is pending.
func (s *Scheduler) MarkDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = true
	s.gen++
	s.scheduleLocked()
}

// Dirty reports whether unpersisted changes exist.
func (s *Scheduler) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Pending reports whether a debounced write is scheduled.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// FlushNow cancels any pending write and writes immediately, dirty or not.
func (s *Scheduler) FlushNow(ctx context.Context) error {
	s.mu.Lock()
	s.stopTimerLocked()
	s.mu.Unlock()
	return s.flush(ctx, true)
}

// Close flushes outstanding changes and stops further scheduling.
func (s *Scheduler) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.stopTimerLocked()
	dirty := s.dirty
	s.mu.Unlock()
	if !dirty {
		return nil
	}
	return s.flush(ctx, true)
}

func (s *Scheduler) scheduleLocked() {
	if s.timer != nil || s.closed {
		return
	}
	s.timer = time.AfterFunc(s.debounce, s.fire)
}

func (s *Scheduler) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	s.timer = nil
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.flush(ctx, false); err != nil {
		logging.Warn().Err(err).Str("document", s.name).Msg("Debounced persist failed, rescheduling")
		s.mu.Lock()
		s.scheduleLocked()
		s.mu.Unlock()
	}
}

func (s *Scheduler) flush(ctx context.Context, immediate bool) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if !s.dirty && !immediate {
		s.mu.Unlock()
		return nil
	}
	gen := s.gen
	s.mu.Unlock()

	if err := s.write(ctx); err != nil {
		metrics.RecordPersistError(s.name)
		return err
	}

	s.mu.Lock()
	if s.gen == gen {
		s.dirty = false
	}
	s.mu.Unlock()
	return nil
}
