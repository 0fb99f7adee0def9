// Copyright (c) 2026 Custos. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/taibuivan/custos/pkg/portpick"
)

// # Configuration Schema

// Config holds all runtime configuration for the Custos authorization server.
type Config struct {

	// Port is the port specification: a single number ("3000"), a range
	// ("3000-3010"), or a comma list of at least three candidates.
	Port string `env:"AUTH_PORT" envDefault:"3000"`

	// DataDir is the filesystem root for all persisted documents.
	DataDir string `env:"AUTH_DATA_DIR" envDefault:"./auth-data"`

	// RateMax is the number of requests allowed per window per client.
	RateMax int `env:"AUTH_RATE_MAX" envDefault:"10"`

	// RateWindowMs is the sliding-window length in milliseconds.
	RateWindowMs int `env:"AUTH_RATE_WINDOW_MS" envDefault:"1000"`

	// ResetClearsTokens controls whether a successful password reset revokes
	// every existing token and rotation chain of the account.
	ResetClearsTokens bool `env:"AUTH_RESET_CLEARS_TOKENS" envDefault:"true"`

	// Debug enables debug-level logging.
	Debug bool `env:"DEBUG" envDefault:"false"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	// Validate the port specification eagerly so a typo fails at startup.
	if _, err := cfg.PortSpec(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// PortSpec parses the textual port specification.
func (c *Config) PortSpec() (portpick.Spec, error) {
	return portpick.Parse(c.Port)
}

// RateWindow returns the rate-limit window as a [time.Duration].
func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.RateWindowMs) * time.Millisecond
}
