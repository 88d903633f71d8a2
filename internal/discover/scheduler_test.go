// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package discover

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Condition not met before timeout")
}

func TestScheduler_DebounceCollapsesWrites(t *testing.T) {
	var writes atomic.Int32
	s := NewScheduler("test", 30*time.Millisecond, func(ctx context.Context) error {
		writes.Add(1)
		return nil
	})

	s.MarkDirty()
	s.MarkDirty()
	s.MarkDirty()
	if !s.Pending() {
		t.Error("Expected a pending write")
	}

	waitFor(t, time.Second, func() bool { return writes.Load() == 1 && !s.Dirty() })
	time.Sleep(60 * time.Millisecond)
	if got := writes.Load(); got != 1 {
		t.Errorf("Expected one collapsed write, got %d", got)
	}
}

func TestScheduler_FlushNowCancelsPending(t *testing.T) {
	var writes atomic.Int32
	s := NewScheduler("test", time.Hour, func(ctx context.Context) error {
		writes.Add(1)
		return nil
	})

	s.MarkDirty()
	if err := s.FlushNow(context.Background()); err != nil {
		t.Fatalf("FlushNow: %v", err)
	}
	if s.Pending() {
		t.Error("Expected pending write to be cancelled")
	}
	if s.Dirty() {
		t.Error("Expected clean state after flush")
	}
	if writes.Load() != 1 {
		t.Errorf("Expected 1 write, got %d", writes.Load())
	}
}

func TestScheduler_FailedWriteReschedules(t *testing.T) {
	var attempts atomic.Int32
	s := NewScheduler("test", 10*time.Millisecond, func(ctx context.Context) error {
		if attempts.Add(1) < 3 {
			return errors.New("store down")
		}
		return nil
	})

	s.MarkDirty()
	waitFor(t, 2*time.Second, func() bool { return attempts.Load() >= 3 && !s.Dirty() })
}

func TestScheduler_FlushNowReturnsError(t *testing.T) {
	s := NewScheduler("test", time.Hour, func(ctx context.Context) error {
		return errors.New("boom")
	})
	s.MarkDirty()
	if err := s.FlushNow(context.Background()); err == nil {
		t.Error("Expected error from FlushNow")
	}
	if !s.Dirty() {
		t.Error("Expected state to stay dirty after failed write")
	}
}

func TestScheduler_CloseFlushesOnlyWhenDirty(t *testing.T) {
	var writes atomic.Int32
	s := NewScheduler("test", time.Hour, func(ctx context.Context) error {
		writes.Add(1)
		return nil
	})

	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if writes.Load() != 0 {
		t.Errorf("Expected no write for clean state, got %d", writes.Load())
	}

	s = NewScheduler("test", time.Hour, func(ctx context.Context) error {
		writes.Add(1)
		return nil
	})
	s.MarkDirty()
	_ = s.Close(context.Background())
	if writes.Load() != 1 {
		t.Errorf("Expected dirty state flushed on close, got %d", writes.Load())
	}
	s.MarkDirty()
	if s.Pending() {
		t.Error("Expected no scheduling after close")
	}
}
