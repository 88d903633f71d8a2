// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

/*
Package supervisor runs Showfeed's long-lived services under a suture v4
supervision tree.

	showfeed
	├── data-layer
	│   ├── badger-gc       (store.Compactor)
	│   └── feed-manager    (feed.Manager: history flushes, session close)
	├── messaging-layer
	│   ├── websocket-hub   (websocket.Hub)
	│   └── event-router    (events.Router: bus -> hub)
	└── api-layer
	    └── http-server     (services.HTTPServerService)

A crashed service is restarted by its layer's supervisor with suture's
backoff; the other layers keep running. Supervisor events are logged
through sutureslog into the zerolog-backed slog logger:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddDataService(feedManager)
	tree.AddMessagingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Addr(), cfg.Server.ShutdownTimeout))
	err = tree.Serve(ctx)

Cancelling ctx stops every service. Services that miss the shutdown timeout
show up in UnstoppedServiceReport.
*/
package supervisor
