// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewCompactor_DefaultsRatio(t *testing.T) {
	c := NewCompactor(setupTestDB(t), time.Minute, 0)
	if c.ratio != DefaultGCRatio {
		t.Errorf("Expected ratio %v, got %v", DefaultGCRatio, c.ratio)
	}
	if c.String() != "badger-gc" {
		t.Errorf("Expected name badger-gc, got %s", c.String())
	}
}

func TestCompactor_RunGCInMemory(t *testing.T) {
	c := NewCompactor(setupTestDB(t), time.Minute, 0.5)
	if err := c.RunGC(); err != nil {
		t.Errorf("Expected in-memory GC to be a no-op, got %v", err)
	}
}

func TestCompactor_ServeStopsOnCancel(t *testing.T) {
	for _, interval := range []time.Duration{0, 5 * time.Millisecond} {
		c := NewCompactor(setupTestDB(t), interval, 0.5)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- c.Serve(ctx) }()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("interval %v: expected context.Canceled, got %v", interval, err)
			}
		case <-time.After(time.Second):
			t.Fatalf("interval %v: Serve did not return after cancel", interval)
		}
	}
}
