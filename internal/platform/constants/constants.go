// Copyright (c) 2026 Custos. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines token lifetimes, default timeouts, rate limits, and cross-cutting
keys that are shared between different layers of the system.

Categories:

  - Credential Lifetimes: Access and refresh token horizons.
  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Data Layout: Well-known document paths under the data root.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "custos"
	AppVersion = "0.1.0-dev"
)

// # Credential Lifetimes

const (
	// AccessTokenTTL is the fixed lifetime of an access token.
	AccessTokenTTL = 1 * time.Hour

	// RefreshTokenTTL is the fixed lifetime of a refresh token, and the
	// horizon used by the rotation registry.
	RefreshTokenTTL = 30 * 24 * time.Hour

	// VerificationCodeLength is the number of digits in signup verification
	// and password reset codes.
	VerificationCodeLength = 6
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second

	// MaxListenAttempts bounds the bind-retry loop when ports are in use.
	MaxListenAttempts = 50
)

// # Rate Limiting

const (
	// DefaultRateMax is the number of requests allowed per window per client.
	DefaultRateMax = 10

	// DefaultRateWindow is the sliding-window length.
	DefaultRateWindow = 1000 * time.Millisecond
)

// # Headers

const (
	HeaderServerID      = "X-Server-ID"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
)

// # Data Layout

const (
	// UsersPrefix is the root of the sharded user tree.
	UsersPrefix = "users"

	// PrivatePrefix is the root of the private resource namespace.
	PrivatePrefix = "private"

	// GlobalAccessPath holds the global access rule file.
	GlobalAccessPath = ".access"

	// GroupsPath holds the group membership file.
	GroupsPath = ".group"

	// RotationRegistryPath holds the rotation registry snapshot document.
	RotationRegistryPath = ".token-rotation-registry"
)

// # Bootstrap

const (
	// RootUsername is the account created on first start with an empty
	// user directory.
	RootUsername = "root"

	// RootPassword is the initial password of the bootstrap account.
	RootPassword = "root"
)
