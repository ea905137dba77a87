// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

// Package main is the entry point for the Shipshape reconciliation server.
//
// Shipshape reconciles the charter marketplace catalog: it normalizes
// document schemas across collections, validates that referenced media
// URLs resolve, rewrites relative storage paths to absolute URLs, and
// records a validation report per run.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered load from defaults, YAML file, and
//     SHIPSHAPE_* environment variables (Koanf v2)
//  2. Store: BadgerDB document store holding the catalog collections
//     plus reconciliation tasks, reports, and schedules
//  3. Queue: embedded NATS JetStream broker (or an external NATS URL)
//     with a durable work stream for at-least-once task delivery
//  4. Pipeline: media prober, URL validator, URL resolver, and the
//     task worker that drives them over the catalog
//  5. Scheduler: recurring-validation schedule runner
//  6. HTTP Server: REST API under /api/v1/reconcile with JWT auth
//
// All long-running components run under a suture supervisor tree and
// restart independently on failure.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (SHIPSHAPE_PORT, SHIPSHAPE_JWT_SECRET, ...)
//   - Config file (shipshape.yaml, or the path in SHIPSHAPE_CONFIG)
//   - Built-in defaults
//
// The only setting without a usable default is the JWT secret:
//
//	export SHIPSHAPE_JWT_SECRET=$(openssl rand -base64 32)
//	./shipshape
//
// Development without auth:
//
//	export SHIPSHAPE_AUTH_DISABLED=true
//	./shipshape
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: the HTTP
// server drains in-flight requests, the task consumer stops pulling
// (unacked tasks redeliver after their ack wait), and the store and
// broker close last.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/etoile-yachts/shipshape/internal/api"
	"github.com/etoile-yachts/shipshape/internal/auth"
	"github.com/etoile-yachts/shipshape/internal/config"
	"github.com/etoile-yachts/shipshape/internal/logging"
	"github.com/etoile-yachts/shipshape/internal/media"
	"github.com/etoile-yachts/shipshape/internal/queue"
	"github.com/etoile-yachts/shipshape/internal/report"
	"github.com/etoile-yachts/shipshape/internal/store"
	"github.com/etoile-yachts/shipshape/internal/supervisor"
	"github.com/etoile-yachts/shipshape/internal/supervisor/services"
	"github.com/etoile-yachts/shipshape/internal/tasks"
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

	logger := logging.Logger()
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("store_path", cfg.Store.Path).
		Bool("queue_embedded", cfg.Queue.Embedded).
		Bool("auth_disabled", cfg.Security.AuthDisabled).
		Msg("Starting Shipshape reconciliation server")

	if cfg.Security.AuthDisabled {
		logging.Warn().Msg("Authentication is DISABLED - all reconcile endpoints are publicly accessible")
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED")
	}

	// Document store. Holds the catalog collections plus the reserved
	// task, report, and schedule collections.
	var st *store.BadgerStore
	if cfg.Store.InMemory {
		st, err = store.OpenInMemory()
	} else {
		st, err = store.Open(cfg.Store.Path)
	}
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open document store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing document store")
		}
	}()
	logging.Info().Bool("in_memory", cfg.Store.InMemory).Msg("Document store opened")

	// Queue broker. The embedded server must be up before the stream,
	// publisher, and subscriber connect, so it starts here rather than
	// under the supervisor; a guard service owns its shutdown.
	var broker *queue.EmbeddedServer
	queueURL := cfg.Queue.URL
	if cfg.Queue.Embedded {
		broker, err = queue.NewEmbeddedServer(cfg.Queue.Server)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to start embedded queue broker")
		}
		queueURL = broker.ClientURL()
		logging.Info().Str("url", queueURL).Msg("Embedded queue broker started")
	}

	wmLogger := queue.NewLoggerAdapter(logger)

	streamCtx, streamCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := queue.EnsureStream(streamCtx, queueURL, cfg.Queue.Stream); err != nil {
		streamCancel()
		logging.Fatal().Err(err).Msg("Failed to ensure task stream")
	}
	streamCancel()

	pubCfg := cfg.Queue.PublisherConfig()
	pubCfg.URL = queueURL
	publisher, err := queue.NewNATSPublisher(pubCfg, wmLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create task publisher")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing task publisher")
		}
	}()

	subCfg := cfg.Queue.SubscriberConfig()
	subCfg.URL = queueURL
	subscriber, err := queue.NewNATSSubscriber(subCfg, wmLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create task subscriber")
	}
	consumer := queue.NewConsumer(subscriber, wmLogger)
	defer func() {
		if err := consumer.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing task consumer")
		}
	}()

	// Reconciliation pipeline.
	var prober media.Prober = media.NewHTTPProber(cfg.Media.ProberConfig())
	if cfg.Media.ProbeCacheSize > 0 {
		prober = media.NewCachedProber(prober, cfg.Media.ProbeCacheSize, cfg.Media.ProbeCacheTTL)
	}
	validator := media.NewValidator(prober, cfg.Media.ValidatorConfig(), logger)
	resolver := media.NewResolver(cfg.Media.ResolverConfig())

	taskRepo := tasks.NewRepository(st, logger)
	reportRepo := report.NewRepository(st, logger)
	service := tasks.NewService(taskRepo, reportRepo, publisher, logger)
	worker := tasks.NewWorker(st, taskRepo, reportRepo, validator, resolver, cfg.Worker.BatchLimit, logger)

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := service.EnsureDefaultSchedule(seedCtx); err != nil {
		seedCancel()
		logging.Fatal().Err(err).Msg("Failed to seed default schedule")
	}
	seedCancel()

	// Authentication.
	var jwtManager *auth.JWTManager
	if !cfg.Security.AuthDisabled {
		jwtManager, err = auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.SessionTimeout)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
		}
		logging.Info().Msg("JWT authentication enabled")
	}

	// HTTP API.
	checks := map[string]api.ReadyChecker{
		"store": func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_, err := st.Count(ctx, "_reconcile_tasks")
			return err
		},
	}
	if broker != nil {
		checks["queue"] = func() error {
			if !broker.IsRunning() {
				return errors.New("embedded queue broker is not running")
			}
			return nil
		}
	}

	handler := api.NewHandler(service, checks, logger)
	middleware := api.NewMiddleware(&api.MiddlewareConfig{
		CORSAllowedOrigins: cfg.Security.CORSOrigins,
		RateLimitRequests:  cfg.Security.RateLimitRequests,
		RateLimitWindow:    cfg.Security.RateLimitWindow,
		RateLimitDisabled:  cfg.Security.RateLimitDisabled,
	})
	router := api.NewRouter(handler, middleware, jwtManager, cfg.Security.AuthDisabled)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Supervisor tree.
	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddDataService(services.NewStoreGCService(st, cfg.Store.GCInterval, cfg.Store.GCDiscardRatio, logger))

	if broker != nil {
		tree.AddMessagingService(services.NewBrokerGuardService(broker))
	}
	tree.AddMessagingService(services.NewConsumerService(consumer, worker.Handle))
	if cfg.Scheduler.Enabled {
		tree.AddMessagingService(tasks.NewRunner(service, cfg.Scheduler.CheckInterval, logger))
	} else {
		logging.Info().Msg("Schedule runner disabled")
	}

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Shipshape stopped gracefully")
}
