// Copyright (c) 2026 Custos. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package middleware provides the cross-cutting HTTP processing chain.

It acts as a series of decorators around the standard http.Handler, injecting
traceability, safety, and security into every request lifecycle.

Standard Stack:

  - ServerID: stamps every response with the per-instance X-Server-ID.
  - Trace/Log: RequestID generation and structured activity logging (slog).
  - Guard: sliding-window rate limiting and optional path-scoped brute-force
    protection.
  - Safe: panic recovery so a handler failure never kills the process.
  - Identity: bearer-token resolution into the request context.

This package ensures that domain handlers can focus purely on business logic
without worrying about infrastructure-level concerns.
*/
package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/taibuivan/custos/internal/platform/apperr"
	"github.com/taibuivan/custos/internal/platform/constants"
	"github.com/taibuivan/custos/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/custos/internal/platform/request"
	"github.com/taibuivan/custos/internal/platform/respond"
	"github.com/taibuivan/custos/internal/ratelimit"
)

// # Server Identity

// ServerID stamps every outgoing response with the instance identifier,
// bound once per server at construction time.
func ServerID(id string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set(constants.HeaderServerID, id)
			next.ServeHTTP(writer, request)
		})
	}
}

// NewServerID generates the per-instance identifier.
func NewServerID() string { return uuid.New().String() }

// # Request Tracing

// RequestID attaches a correlation ID to every request for log tracing.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			requestID := uuid.New().String()
			ctx := ctxutil.WithRequestID(request.Context(), requestID)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// # Activity Logging

type statusRecorder struct {
	http.ResponseWriter
	status    int
	committed bool
}

func (recorder *statusRecorder) WriteHeader(code int) {
	recorder.status = code
	recorder.committed = true
	recorder.ResponseWriter.WriteHeader(code)
}

func (recorder *statusRecorder) Write(data []byte) (int, error) {
	recorder.committed = true
	return recorder.ResponseWriter.Write(data)
}

// StructuredLogger logs every request status and latency, and injects a
// request-specific logger into the context.
func StructuredLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			startTime := time.Now()

			requestLogger := logger.With(
				slog.String("request_id", ctxutil.GetRequestID(request.Context())),
				slog.String("method", request.Method),
				slog.String("path", request.URL.Path),
				slog.String("ip", requestutil.ClientIP(request)),
			)

			ctx := ctxutil.WithLogger(request.Context(), requestLogger)
			wrappedWriter := &statusRecorder{ResponseWriter: writer, status: http.StatusOK}

			next.ServeHTTP(wrappedWriter, request.WithContext(ctx))

			latency := time.Since(startTime).Milliseconds()
			logLevel := slog.LevelInfo
			if wrappedWriter.status >= 500 {
				logLevel = slog.LevelError
			} else if wrappedWriter.status >= 400 {
				logLevel = slog.LevelWarn
			}

			requestLogger.Log(ctx, logLevel, "http_request_finished",
				slog.Int("status", wrappedWriter.status),
				slog.Int64("latency_ms", latency),
			)
		})
	}
}

// # Rate Limiting

// RateLimit applies the global per-client limiter to every request. Over the
// limit, the request is refused with 429 and the contractual error body.
func RateLimit(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if !limiter.Try(requestutil.ClientIP(request)) {
				respond.Error(writer, request, apperr.RateLimited())
				return
			}
			next.ServeHTTP(writer, request)
		})
	}
}

// BruteForce is the path-scoped alternative limiter, keyed by
// (client address, request path). Over the limit it responds with a plain
// 429 unless a custom over-limit handler is supplied.
func BruteForce(limiter *ratelimit.Limiter, overLimit http.HandlerFunc) func(http.Handler) http.Handler {
	if overLimit == nil {
		overLimit = func(writer http.ResponseWriter, _ *http.Request) {
			respond.Text(writer, http.StatusTooManyRequests, "Too Many Requests")
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			key := requestutil.ClientIP(request) + " " + request.URL.Path
			if !limiter.Try(key) {
				overLimit(writer, request)
				return
			}
			next.ServeHTTP(writer, request)
		})
	}
}

// # Reliability & Safety

// Recover catches handler panics and reports them as a plain-text 500. A
// panic after the response has been committed is logged and swallowed — the
// client already has its headers.
func Recover() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			recorder, tracked := writer.(*statusRecorder)

			defer func() {
				if cause := recover(); cause != nil {
					logger := ctxutil.GetLogger(request.Context())
					logger.ErrorContext(request.Context(), "panic_recovered",
						slog.Any("error", cause),
					)
					if tracked && recorder.committed {
						return
					}
					respond.Text(writer, http.StatusInternalServerError,
						fmt.Sprintf("Internal Server Error: %v", cause))
				}
			}()

			next.ServeHTTP(writer, request)
		})
	}
}
