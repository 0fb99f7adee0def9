// Copyright (c) 2026 Custos. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/authserver are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/custos/internal/auth"
	"github.com/taibuivan/custos/internal/platform/constants"
	"github.com/taibuivan/custos/internal/platform/middleware"
	"github.com/taibuivan/custos/internal/platform/respond"
	"github.com/taibuivan/custos/internal/private"
	"github.com/taibuivan/custos/internal/ratelimit"
	"github.com/taibuivan/custos/internal/token"
	"github.com/taibuivan/custos/pkg/portpick"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
	ports      portpick.Spec
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here — no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Auth handles the account lifecycle routes (signup, signin, refresh,
	// recovery, directory).
	Auth *auth.Handler

	// Private serves the access-controlled document namespace.
	Private *private.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
//
// Chain order matters: the status recorder installed by StructuredLogger is
// what lets Recover detect a committed response, and Authenticate must run
// before any domain handler consults the request identity.
func NewServer(ports portpick.Spec, log *slog.Logger, limiter *ratelimit.Limiter, tokens *token.Store, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.ServerID(middleware.NewServerID()))
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(middleware.RateLimit(limiter))
	r.Use(middleware.Recover())
	r.Use(middleware.Authenticate(tokens))
	r.Use(chimw.GetHead)
	r.Use(chimw.CleanPath)

	// Unmatched routes and methods share one plain-text 404.
	notFound := func(writer http.ResponseWriter, _ *http.Request) {
		respond.Text(writer, http.StatusNotFound, "Not Found")
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	// # Infrastructure Endpoints
	// Unauthenticated health probe for container orchestration.
	r.Get("/health", h.Liveness)

	// # Application API
	r.Mount("/auth", h.Auth.Routes())
	r.Mount("/private", h.Private.Routes())

	return &Server{
		router: r,
		log:    log,
		ports:  ports,
		httpServer: &http.Server{
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// Handler exposes the composed router, primarily for in-process serving in
// tests.
func (s *Server) Handler() http.Handler { return s.router }

// # Server Lifecycle

/*
ListenAndServe binds a port from the configured specification and serves.

When the candidate port is already bound, the next candidate is requested
from the specification; exhausting the specification (or the retry bound)
fails startup. Any other bind error is fatal immediately.

It blocks until the server is closed or an error occurs.
*/
func (s *Server) ListenAndServe() error {
	previous := 0

	for attempt := 0; attempt < constants.MaxListenAttempts; attempt++ {
		port, err := s.ports.Pick(previous)
		if err != nil {
			return err
		}

		listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			if errors.Is(err, syscall.EADDRINUSE) {
				s.log.Warn("port_in_use",
					slog.Int("port", port),
					slog.Int("attempt", attempt+1),
				)
				previous = port
				continue
			}
			return fmt.Errorf("api: failed to bind port %d: %w", port, err)
		}

		s.httpServer.Addr = listener.Addr().String()
		s.log.Info("server_listening",
			slog.Int("port", port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", port)),
		)
		return s.httpServer.Serve(listener)
	}

	return fmt.Errorf("api: no free port after %d attempts", constants.MaxListenAttempts)
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
