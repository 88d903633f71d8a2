// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package config

import (
	"fmt"
	"time"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateFeed(); err != nil {
		return err
	}
	if err := c.validateRanking(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateRateLimits(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	return nil
}

func (c *Config) validateFeed() error {
	f := c.Feed
	if f.MinFeedResults < 1 {
		return fmt.Errorf("FEED_MIN_RESULTS must be at least 1")
	}
	if f.MaxDiscoverPages < 1 {
		return fmt.Errorf("FEED_MAX_PAGES must be at least 1")
	}
	if f.MaxDiscoverPagesLimit < f.MaxDiscoverPages {
		return fmt.Errorf("FEED_MAX_PAGES_LIMIT (%d) must not be below FEED_MAX_PAGES (%d)",
			f.MaxDiscoverPagesLimit, f.MaxDiscoverPages)
	}
	if f.InitialDiscoverPages < 1 {
		return fmt.Errorf("FEED_INITIAL_PAGES must be at least 1")
	}
	if f.HistoryLimit < 1 {
		return fmt.Errorf("FEED_HISTORY_LIMIT must be at least 1")
	}
	if f.MaxSessions < 0 {
		return fmt.Errorf("FEED_MAX_SESSIONS must not be negative")
	}
	if f.RefillCooldown < 0 || f.PersistDebounce < 0 || f.SessionIdleTTL < 0 {
		return fmt.Errorf("feed durations must not be negative")
	}
	if f.DefaultInterest < 1 || f.DefaultInterest > 5 {
		return fmt.Errorf("FEED_DEFAULT_INTEREST must be between 1 and 5")
	}
	return nil
}

func (c *Config) validateRanking() error {
	r := c.Ranking
	if r.MinVoteAverage < 0 || r.MinVoteAverage > 10 || r.FloorVoteAverage < 0 || r.FloorVoteAverage > 10 {
		return fmt.Errorf("ranking vote averages must be between 0 and 10")
	}
	if r.MinVoteCount < 0 || r.FloorVoteCount < 0 {
		return fmt.Errorf("ranking vote counts must not be negative")
	}
	if r.MinPriorityResults < 1 {
		return fmt.Errorf("RANKING_MIN_RESULTS must be at least 1")
	}
	return nil
}

func (c *Config) validateCatalog() error {
	cat := c.Catalog
	if cat.MaxLimit < 1 {
		return fmt.Errorf("CATALOG_MAX_LIMIT must be at least 1")
	}
	if cat.DefaultLimit < 1 || cat.DefaultLimit > cat.MaxLimit {
		return fmt.Errorf("CATALOG_DEFAULT_LIMIT must be between 1 and %d", cat.MaxLimit)
	}
	if cat.MaxPages < 1 {
		return fmt.Errorf("CATALOG_MAX_PAGES must be at least 1")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if !c.Storage.InMemory && c.Storage.Path == "" {
		return fmt.Errorf("BADGER_PATH is required unless BADGER_IN_MEMORY=true")
	}
	if c.Storage.GCInterval < 0 {
		return fmt.Errorf("BADGER_GC_INTERVAL must not be negative")
	}
	if c.Storage.GCRatio < 0 || c.Storage.GCRatio >= 1 {
		return fmt.Errorf("BADGER_GC_RATIO must be in [0, 1), got %v", c.Storage.GCRatio)
	}
	return nil
}

// Rate limit constants
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

var validLogFormats = map[string]bool{
	"json": true, "console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
