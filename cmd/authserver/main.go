// Copyright (c) 2026 Custos. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command authserver is the entry point for the Custos authorization server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Open the document store at the data root.
//  4. Rehydrate the token store and rotation registry from disk.
//  5. Seed the root account when the directory is empty.
//  6. Wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/taibuivan/custos/internal/access"
	"github.com/taibuivan/custos/internal/api"
	"github.com/taibuivan/custos/internal/auth"
	"github.com/taibuivan/custos/internal/platform/config"
	"github.com/taibuivan/custos/internal/platform/constants"
	"github.com/taibuivan/custos/internal/private"
	"github.com/taibuivan/custos/internal/ratelimit"
	"github.com/taibuivan/custos/internal/store"
	"github.com/taibuivan/custos/internal/token"
	"github.com/taibuivan/custos/internal/users"
	"github.com/taibuivan/custos/pkg/digest"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("[Custos] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	ports, err := cfg.PortSpec()
	must(log, err, "parse port specification")

	log.Info("configuration_loaded",
		slog.String("port_spec", cfg.Port),
		slog.String("data_dir", cfg.DataDir),
	)

	// ── 3. Document Store ─────────────────────────────────────────────────
	documents, err := store.New(cfg.DataDir)
	must(log, err, "open document store")

	// ── 4. Credential State ───────────────────────────────────────────────
	directory := users.NewDirectory(documents)

	tokens := token.NewStore(directory, documents, digest.RandomToken)
	must(log, tokens.Load(), "load token store")

	rotation := token.NewRotationRegistry(documents)
	must(log, rotation.Load(), "load rotation registry")

	// ── 5. Domain Wiring ──────────────────────────────────────────────────
	evaluator := access.NewEvaluator(documents)
	limiter := ratelimit.New(cfg.RateMax, cfg.RateWindow())

	authService := auth.NewService(directory, tokens, rotation, cfg.ResetClearsTokens)
	authHandler := auth.NewHandler(authService, evaluator)
	privateHandler := private.NewHandler(documents, evaluator)

	// ── 6. Root Bootstrap ─────────────────────────────────────────────────
	seeded, err := authService.Bootstrap()
	must(log, err, "bootstrap root account")
	if seeded != nil {
		log.Info("root_account_created", slog.String("username", constants.RootUsername))
	}

	// ── 7. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness: api.NewLivenessHandler(),
		Auth:     authHandler,
		Private:  privateHandler,
	}

	server := api.NewServer(ports, log, limiter, tokens, handlers)

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
		os.Exit(1)
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
