// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

// Package main is the entry point for the Hookbridge server.
//
// Hookbridge listens to a Jellyfin server over its websocket, normalizes the
// raw session and activity traffic into canonical playback and library
// events, and delivers them to configured webhook endpoints in one of three
// payload formats (Default JSON, GET query, Plex-compatible multipart).
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered loading (defaults, YAML file, env)
//  2. Hook store: JSON-persisted webhook configuration
//  3. Jellyfin client: REST resolver and websocket dial target
//  4. Dispatcher: formatter set, per-endpoint circuit breakers, rate limit
//  5. Normalizer: per-device playback state machine and scrobble tracking
//  6. Signal bus: Watermill in-process routing from listener to normalizer
//  7. Admin API: hook CRUD, health probes, Prometheus metrics
//  8. Supervisor tree: suture v4 runs listener, bus and API with restarts
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (JELLYFIN_URL, JELLYFIN_API_KEY, ...)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: the supervisor
// tree cancels every service, the admin server drains in-flight requests,
// and the websocket connection is closed.
//
// # Example Usage
//
//	export JELLYFIN_URL=http://localhost:8096
//	export JELLYFIN_API_KEY=your-jellyfin-api-key
//	export HOOKS_PATH=/data/hooks.json
//	./hookbridge
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/hookbridge/internal/api"
	"github.com/tomtom215/hookbridge/internal/bus"
	"github.com/tomtom215/hookbridge/internal/config"
	"github.com/tomtom215/hookbridge/internal/dispatch"
	"github.com/tomtom215/hookbridge/internal/engine"
	"github.com/tomtom215/hookbridge/internal/hookstore"
	"github.com/tomtom215/hookbridge/internal/jellyfin"
	"github.com/tomtom215/hookbridge/internal/logging"
	"github.com/tomtom215/hookbridge/internal/supervisor"
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
		Str("jellyfin_url", cfg.Jellyfin.URL).
		Str("hooks_path", cfg.Hooks.Path).
		Str("listen", cfg.Server.Addr()).
		Msg("Starting Hookbridge")

	store, err := hookstore.Open(cfg.Hooks.Path)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Hooks.Path).Msg("Failed to open hook store")
	}
	logging.Info().Int("hooks", len(store.List())).Msg("Hook store loaded")

	client := jellyfin.NewClient(cfg.Jellyfin)
	sender := dispatch.NewSender(store, cfg.Delivery)
	normalizer := engine.NewNormalizer(client, client, sender)

	signalBus, err := bus.New()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create signal bus")
	}
	signalBus.AttachNormalizer(normalizer)

	listener := jellyfin.NewListener(client, cfg.Jellyfin, signalBus)

	handlers := api.NewHandlers(store, client)
	server := api.NewServer(cfg.Server, api.NewRouter(handlers, cfg.API.Token))
	if cfg.API.Token == "" {
		logging.Warn().Msg("API token not set, admin endpoints are unauthenticated")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(&supervisor.BusService{Bus: signalBus})
	tree.AddMessagingService(listener)
	tree.AddAPIService(server)

	err = tree.Serve(ctx)
	if closeErr := signalBus.Close(); closeErr != nil {
		logging.Error().Err(closeErr).Msg("Error closing signal bus")
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree exited with error")
		os.Exit(1)
	}
	logging.Info().Msg("Shutdown complete")
}
