// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/showfeed/internal/logging"
	"github.com/tomtom215/showfeed/internal/metrics"
)

// DefaultGCRatio is the discard ratio used when none is configured.
const DefaultGCRatio = 0.5

// Compactor periodically reclaims value log space. Response cache entries
// expire by TTL, so their space is only returned by value log GC.
type Compactor struct {
	db       *DB
	interval time.Duration
	ratio    float64
}

// NewCompactor creates a compactor for db. A non-positive interval makes
// Serve idle until cancelled.
func NewCompactor(db *DB, interval time.Duration, ratio float64) *Compactor {
	if ratio <= 0 || ratio >= 1 {
		ratio = DefaultGCRatio
	}
	return &Compactor{db: db, interval: interval, ratio: ratio}
}

// RunGC runs value log GC until there is nothing left to rewrite.
func (c *Compactor) RunGC() error {
	start := time.Now()
	var err error
	defer func() {
		metrics.RecordStoreGC(time.Since(start), err)
	}()

	for {
		gcErr := c.db.db.RunValueLogGC(c.ratio)
		if errors.Is(gcErr, badger.ErrNoRewrite) || errors.Is(gcErr, badger.ErrGCInMemoryMode) {
			return nil
		}
		if gcErr != nil {
			err = fmt.Errorf("run value log GC: %w", gcErr)
			return err
		}
	}
}

// Serve runs GC every interval until ctx is cancelled. It implements
// suture.Service.
func (c *Compactor) Serve(ctx context.Context) error {
	if c.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.RunGC(); err != nil {
				logging.Warn().Err(err).Msg("Badger value log GC failed")
			}
		}
	}
}

// String implements fmt.Stringer for suture logs.
func (c *Compactor) String() string {
	return "badger-gc"
}
