// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/showfeed/internal/api"
	"github.com/tomtom215/showfeed/internal/catalog"
	"github.com/tomtom215/showfeed/internal/config"
	"github.com/tomtom215/showfeed/internal/events"
	"github.com/tomtom215/showfeed/internal/feed"
	"github.com/tomtom215/showfeed/internal/logging"
	"github.com/tomtom215/showfeed/internal/omdb"
	"github.com/tomtom215/showfeed/internal/store"
	"github.com/tomtom215/showfeed/internal/supervisor"
	"github.com/tomtom215/showfeed/internal/supervisor/services"
	"github.com/tomtom215/showfeed/internal/tmdb"
	ws "github.com/tomtom215/showfeed/internal/websocket"
)

// eventBuffer is the per-subscriber buffer of the in-process event bus.
const eventBuffer = 256

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("storage_path", cfg.Storage.Path).
		Bool("storage_in_memory", cfg.Storage.InMemory).
		Bool("tmdb_key", cfg.TMDB.APIKey != "").
		Bool("omdb_key", cfg.OMDb.APIKey != "").
		Msg("Starting Showfeed with supervisor tree")

	db, err := store.Open(cfg.Storage)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing storage")
		}
	}()
	documents := store.NewDocumentStore(db)
	responses := store.NewResponseStore(db)

	up := initUpstreams(cfg, responses)

	bus := events.NewBus(eventBuffer)
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	manager := feed.NewManager(cfg, documents, up.feed, bus)
	hub := ws.NewHub()

	handler := api.NewHandler(cfg, api.Dependencies{
		Feed:    manager,
		Catalog: up.catalog,
		Critic:  up.critic,
		Proxy:   up.proxy,
		Hub:     hub,
	})
	router := api.NewRouter(handler)

	server := &http.Server{
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Data layer
	tree.AddDataService(store.NewCompactor(db, cfg.Storage.GCInterval, cfg.Storage.GCRatio))
	tree.AddDataService(manager)

	// Messaging layer
	tree.AddMessagingService(hub)
	tree.AddMessagingService(events.NewRouter(bus, hub))

	// API layer
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Addr(), cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", cfg.Server.Addr()).Msg("HTTP server service added")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
		stop()
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Showfeed stopped gracefully")
}

// upstreams are the clients shared by the HTTP handlers and feed sessions.
type upstreams struct {
	catalog *catalog.Service
	critic  *omdb.Service
	proxy   *tmdb.LocalProxy
	feed    feed.Upstreams
}

// initUpstreams builds the TMDB, OMDb and catalog clients. A disabled
// catalog leaves /api/tv unavailable and sessions go straight to TMDB.
func initUpstreams(cfg *config.Config, responses *store.ResponseStore) upstreams {
	direct := tmdb.NewClient(cfg.TMDB)
	requester := tmdb.NewRequesterFromConfig(cfg.TMDB, direct)
	local := tmdb.NewLocalProxy(requester)

	var up upstreams
	up.proxy = local

	omdbClient := omdb.NewClient(cfg.OMDb)
	up.critic = omdb.NewService(cfg.OMDb, omdbClient, responses)
	if !up.critic.Configured() {
		logging.Warn().Msg("OMDB_API_KEY not set, critic scores disabled")
	}

	if cfg.Catalog.Enabled {
		up.catalog = catalog.NewService(cfg.Catalog, requester, responses)
	}

	up.feed = feed.Upstreams{
		Direct: direct,
		Critic: omdb.NewServiceFetcher(up.critic),
	}

	var source catalog.Source
	if cfg.Catalog.Endpoint != "" || up.catalog != nil {
		source = catalog.NewSourceFromConfig(cfg.Catalog, up.catalog, cfg.TMDB.Timeout)
	}
	if source != nil {
		up.feed.Catalog = catalog.NewClient(source)
	}

	if cfg.TMDB.UseProxy {
		if cfg.TMDB.ProxyEndpoint != "" {
			up.feed.ProxyBackend = tmdb.NewHTTPBackend(cfg.TMDB.ProxyEndpoint, cfg.TMDB.Timeout)
		} else {
			up.feed.ProxyBackend = local
		}
	}

	logging.Info().
		Bool("catalog_enabled", up.catalog != nil).
		Str("catalog_endpoint", cfg.Catalog.Endpoint).
		Bool("tmdb_use_proxy", cfg.TMDB.UseProxy).
		Str("tmdb_proxy_endpoint", cfg.TMDB.ProxyEndpoint).
		Msg("Upstreams initialized")
	return up
}
