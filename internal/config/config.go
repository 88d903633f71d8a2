// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
//
// Example:
//
//	cfg, err := config.LoadWithKoanf()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load config")
//	}
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	TMDB     TMDBConfig     `koanf:"tmdb"`
	OMDb     OMDbConfig     `koanf:"omdb"`
	Catalog  CatalogConfig  `koanf:"catalog"`
	Feed     FeedConfig     `koanf:"feed"`
	Ranking  RankingConfig  `koanf:"ranking"`
	Storage  StorageConfig  `koanf:"storage"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// TMDBConfig holds TMDB access settings.
type TMDBConfig struct {
	// APIKey is the server TMDB key. Used by the direct client and by the
	// proxy endpoint before it forwards upstream.
	APIKey  string        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`

	// ProxyEndpoint is the TMDB proxy the feed orchestrator calls. Empty means
	// the in-process proxy. Set UseProxy=false to always go direct.
	ProxyEndpoint string `koanf:"proxy_endpoint"`
	UseProxy      bool   `koanf:"use_proxy"`

	// ProxyUpstream is where the /tmdbProxy endpoint forwards requests it
	// cannot serve with APIKey.
	ProxyUpstream string `koanf:"proxy_upstream"`
}

// OMDbConfig holds critic score lookup settings.
type OMDbConfig struct {
	APIKey   string        `koanf:"api_key"`
	BaseURL  string        `koanf:"base_url"`
	Timeout  time.Duration `koanf:"timeout"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// CatalogConfig holds /api/tv settings.
type CatalogConfig struct {
	// Endpoint is the catalog the feed orchestrator queries first. Empty
	// means the in-process catalog service.
	Endpoint     string        `koanf:"endpoint"`
	Enabled      bool          `koanf:"enabled"`
	DefaultLimit int           `koanf:"default_limit"`
	MaxLimit     int           `koanf:"max_limit"`
	MaxPages     int           `koanf:"max_pages"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`
	GenreTTL     time.Duration `koanf:"genre_ttl"`
	MaxKeyIDs    int           `koanf:"max_key_ids"`
}

// FeedConfig holds feed orchestration settings.
type FeedConfig struct {
	MinFeedResults        int           `koanf:"min_feed_results"`
	RefillCooldown        time.Duration `koanf:"refill_cooldown"`
	MaxCreditRequests     int           `koanf:"max_credit_requests"`
	InitialDiscoverPages  int           `koanf:"initial_discover_pages"`
	MaxDiscoverPages      int           `koanf:"max_discover_pages"`
	MaxDiscoverPagesLimit int           `koanf:"max_discover_pages_limit"`
	HistoryLimit          int           `koanf:"history_limit"`
	PersistDebounce       time.Duration `koanf:"persist_debounce"`
	LoadTimeout           time.Duration `koanf:"load_timeout"`
	DefaultInterest       int           `koanf:"default_interest"`

	// MaxSessions caps live user sessions; the least recently used one is
	// closed to make room. SessionIdleTTL closes sessions unused for that
	// long. Zero disables either bound.
	MaxSessions    int           `koanf:"max_sessions"`
	SessionIdleTTL time.Duration `koanf:"session_idle_ttl"`
}

// RankingConfig holds the quality threshold policy.
// The tier table is strict (MinVoteAverage, MinVoteCount), relaxed
// (max(6.5, avg-0.5), max(25, votes/2)), then floor (FloorVoteAverage,
// FloorVoteCount).
type RankingConfig struct {
	MinVoteAverage     float64 `koanf:"min_vote_average"`
	MinVoteCount       int     `koanf:"min_vote_count"`
	FloorVoteAverage   float64 `koanf:"floor_vote_average"`
	FloorVoteCount     int     `koanf:"floor_vote_count"`
	MinPriorityResults int     `koanf:"min_priority_results"`
}

// StorageConfig holds Badger settings.
type StorageConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`

	// GCInterval is how often the value log is compacted. Zero disables it.
	GCInterval time.Duration `koanf:"gc_interval"`
	GCRatio    float64       `koanf:"gc_ratio"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
