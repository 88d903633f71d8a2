// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/showfeed/config.yaml",
	"/etc/showfeed/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            3857,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		TMDB: TMDBConfig{
			BaseURL:  "https://api.themoviedb.org",
			Timeout:  15 * time.Second,
			UseProxy: true,
		},
		OMDb: OMDbConfig{
			BaseURL:  "https://www.omdbapi.com/",
			Timeout:  10 * time.Second,
			CacheTTL: 12 * time.Hour,
		},
		Catalog: CatalogConfig{
			Enabled:      true,
			DefaultLimit: 20,
			MaxLimit:     60,
			MaxPages:     5,
			CacheTTL:     10 * time.Minute,
			GenreTTL:     time.Hour,
			MaxKeyIDs:    200,
		},
		Feed: FeedConfig{
			MinFeedResults:        10,
			RefillCooldown:        5 * time.Second,
			MaxCreditRequests:     20,
			InitialDiscoverPages:  3,
			MaxDiscoverPages:      10,
			MaxDiscoverPagesLimit: 30,
			HistoryLimit:          50,
			PersistDebounce:       1500 * time.Millisecond,
			LoadTimeout:           2 * time.Minute,
			DefaultInterest:       3,
			MaxSessions:           1000,
			SessionIdleTTL:        30 * time.Minute,
		},
		Ranking: RankingConfig{
			MinVoteAverage:     7,
			MinVoteCount:       50,
			FloorVoteAverage:   6,
			FloorVoteCount:     10,
			MinPriorityResults: 12,
		},
		Storage: StorageConfig{
			Path:       "/data/showfeed",
			GCInterval: 10 * time.Minute,
			GCRatio:    0.5,
		},
		Security: SecurityConfig{
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration from defaults, an optional YAML file and
// the environment, in that order of increasing priority.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	applyEnvAliases(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated env strings to slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

var envMappings = map[string]string{
	// Server
	"http_port":             "server.port",
	"http_host":             "server.host",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",

	// TMDB
	"tmdb_api_key":        "tmdb.api_key",
	"tmdb_base_url":       "tmdb.base_url",
	"tmdb_timeout":        "tmdb.timeout",
	"tmdb_proxy_endpoint": "tmdb.proxy_endpoint",
	"tmdb_use_proxy":      "tmdb.use_proxy",
	"tmdb_proxy_upstream": "tmdb.proxy_upstream",

	// OMDb
	"omdb_api_key":   "omdb.api_key",
	"omdb_base_url":  "omdb.base_url",
	"omdb_timeout":   "omdb.timeout",
	"omdb_cache_ttl": "omdb.cache_ttl",

	// Catalog
	"catalog_endpoint":      "catalog.endpoint",
	"catalog_enabled":       "catalog.enabled",
	"catalog_default_limit": "catalog.default_limit",
	"catalog_max_limit":     "catalog.max_limit",
	"catalog_max_pages":     "catalog.max_pages",
	"catalog_cache_ttl":     "catalog.cache_ttl",
	"catalog_genre_ttl":     "catalog.genre_ttl",

	// Feed
	"feed_min_results":           "feed.min_feed_results",
	"feed_refill_cooldown":       "feed.refill_cooldown",
	"feed_max_credit_requests":   "feed.max_credit_requests",
	"feed_initial_pages":         "feed.initial_discover_pages",
	"feed_max_pages":             "feed.max_discover_pages",
	"feed_max_pages_limit":       "feed.max_discover_pages_limit",
	"feed_history_limit":         "feed.history_limit",
	"feed_persist_debounce":      "feed.persist_debounce",
	"feed_load_timeout":          "feed.load_timeout",
	"feed_default_interest":      "feed.default_interest",
	"feed_max_sessions":          "feed.max_sessions",
	"feed_session_idle_ttl":      "feed.session_idle_ttl",
	"ranking_min_vote_average":   "ranking.min_vote_average",
	"ranking_min_vote_count":     "ranking.min_vote_count",
	"ranking_floor_vote_average": "ranking.floor_vote_average",
	"ranking_floor_vote_count":   "ranking.floor_vote_count",
	"ranking_min_results":        "ranking.min_priority_results",

	// Storage
	"badger_path":        "storage.path",
	"badger_in_memory":   "storage.in_memory",
	"badger_gc_interval": "storage.gc_interval",
	"badger_gc_ratio":    "storage.gc_ratio",

	// Security
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps environment variable names to koanf paths.
// Unmapped variables return "" and are skipped.
//
//   - TMDB_API_KEY -> tmdb.api_key
//   - HTTP_PORT -> server.port
//   - BADGER_PATH -> storage.path
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
