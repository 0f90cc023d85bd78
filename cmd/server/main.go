// Pelorus - Real-time AIS Vessel Tracking and Proximity Broadcast
// Copyright 2026 Pelorus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pelorus-io/pelorus

// Package main is the entry point for the Pelorus server.
//
// Pelorus ingests live AIS position reports from the aisstream.io
// WebSocket feed, keeps the latest known state per vessel in an embedded
// DuckDB store with spatial indexing, and pushes periodic proximity
// snapshots to connected viewers over WebSocket.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 with layered sources (defaults, YAML, env)
//  2. Database: DuckDB with the spatial extension for geodesic queries
//  3. Registry: per-viewer connection state (location, radius)
//  4. Pipeline: feed connector -> ingest workers -> vessel store
//  5. Broadcaster: fixed-interval proximity fan-out to viewers
//  6. HTTP server: /ws viewer endpoint, health, REST query, metrics
//
// All long-running components run under a suture supervision tree, so a
// crash in any one of them restarts that component without taking the
// process down. Only startup failures (bad config, unreachable store)
// exit the process.
//
// # Configuration
//
// Set AIS_API_KEY to the aisstream.io key. See config.yaml for the full
// set of options; every key is also reachable through the environment.
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the feed connection and
// viewer connections close, in-flight requests get a bounded drain, and
// the store is closed last.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pelorus-io/pelorus/internal/api"
	"github.com/pelorus-io/pelorus/internal/broadcast"
	"github.com/pelorus-io/pelorus/internal/config"
	"github.com/pelorus-io/pelorus/internal/database"
	"github.com/pelorus-io/pelorus/internal/feed"
	"github.com/pelorus-io/pelorus/internal/ingest"
	"github.com/pelorus-io/pelorus/internal/logging"
	"github.com/pelorus-io/pelorus/internal/supervisor"
	"github.com/pelorus-io/pelorus/internal/supervisor/services"
	ws "github.com/pelorus-io/pelorus/internal/websocket"
)

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("feed_url", cfg.Feed.URL).
		Str("db_path", cfg.Database.Path).
		Str("addr", cfg.Server.Addr()).
		Msg("Starting Pelorus")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	registry := ws.NewRegistry(cfg.Broadcast.DefaultRadiusMeters)
	processor := ingest.NewProcessor(db, cfg.Feed.Workers, cfg.Feed.QueueSize)
	connector := feed.NewConnector(cfg.Feed, processor.Handle)
	broadcaster := broadcast.NewBroadcaster(db, registry, cfg.Broadcast.Interval)

	router := api.NewRouter(cfg, db, registry)
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree.AddIngestService(processor)
	tree.AddIngestService(connector)
	tree.AddIngestService(broadcaster)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	// ServeBackground's channel carries exactly one value and is never
	// closed, so after cancellation take the single result and move on.
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}
