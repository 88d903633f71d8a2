// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package config

import (
	"os"
	"strings"
)

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// applyEnvAliases fills settings that older deployments configure under
// alternate variable names. Mapped variables always win.
func applyEnvAliases(cfg *Config) {
	if cfg.TMDB.APIKey == "" {
		cfg.TMDB.APIKey = getEnv("TMDB_KEY", getEnv("TMDB_TOKEN", ""))
	}
	if cfg.TMDB.ProxyUpstream == "" {
		cfg.TMDB.ProxyUpstream = resolveProxyUpstream(getEnv("TMDB_REMOTE_PROXY_URL", ""), cfg.TMDB.ProxyEndpoint)
	}
}

// resolveProxyUpstream picks the forward target for the TMDB proxy endpoint.
// A proxy endpoint pointing back at this host is never used as an upstream.
func resolveProxyUpstream(explicit, proxyEndpoint string) string {
	if explicit != "" {
		return explicit
	}
	lowered := strings.ToLower(proxyEndpoint)
	if !strings.HasPrefix(lowered, "http://") && !strings.HasPrefix(lowered, "https://") {
		return ""
	}
	for _, local := range []string{"localhost", "127.0.0.1", "::1"} {
		if strings.Contains(lowered, local) {
			return ""
		}
	}
	return proxyEndpoint
}
