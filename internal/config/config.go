// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

// Package config provides layered configuration loading via Koanf v2:
// built-in defaults, an optional YAML config file, then environment
// variables, with later layers overriding earlier ones.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config is the root configuration for the Hookbridge server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Jellyfin JellyfinConfig `koanf:"jellyfin"`
	Hooks    HooksConfig    `koanf:"hooks"`
	Delivery DeliveryConfig `koanf:"delivery"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig configures the admin HTTP server.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"` // read/write timeout
}

// Addr returns the listen address in host:port form.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// JellyfinConfig configures the connection to the host Jellyfin server.
type JellyfinConfig struct {
	// URL is the Jellyfin base URL (http://host:8096).
	URL string `koanf:"url"`

	// APIKey authenticates both the REST resolver and the websocket.
	APIKey string `koanf:"api_key"`

	// DeviceID identifies this client on the websocket handshake.
	DeviceID string `koanf:"device_id"`

	// SessionUpdateMs is the session snapshot interval requested on the
	// SessionsStart subscription, in milliseconds.
	SessionUpdateMs int `koanf:"session_update_ms"`

	HandshakeTimeout  time.Duration `koanf:"handshake_timeout"`
	ReconnectMaxDelay time.Duration `koanf:"reconnect_max_delay"`
	RequestTimeout    time.Duration `koanf:"request_timeout"` // REST resolver calls
}

// HooksConfig configures the hook configuration store.
type HooksConfig struct {
	// Path is the JSON file the hook list is persisted to.
	Path string `koanf:"path"`
}

// DeliveryConfig configures outbound webhook delivery.
type DeliveryConfig struct {
	// Timeout bounds a single outbound HTTP call.
	Timeout time.Duration `koanf:"timeout"`

	// Breaker settings. When enabled, a persistently failing endpoint is
	// fast-failed instead of awaited; delivery semantics are otherwise
	// unchanged (no retries, no queueing).
	BreakerEnabled      bool          `koanf:"breaker_enabled"`
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio"`
	BreakerCooldown     time.Duration `koanf:"breaker_cooldown"`

	// RatePerSecond throttles deliveries per hook endpoint. Zero disables
	// throttling.
	RatePerSecond float64 `koanf:"rate_per_second"`
	RateBurst     int     `koanf:"rate_burst"`
}

// APIConfig configures admin API authentication.
type APIConfig struct {
	// Token, when set, is required as "Authorization: Bearer <token>" on
	// every admin endpoint. Empty disables authentication (development).
	Token string `koanf:"token"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values that cannot work at runtime.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive")
	}

	if c.Jellyfin.URL != "" {
		u, err := url.Parse(c.Jellyfin.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("jellyfin.url %q is not a valid http(s) URL", c.Jellyfin.URL)
		}
		if c.Jellyfin.APIKey == "" {
			return fmt.Errorf("jellyfin.api_key is required when jellyfin.url is set")
		}
	}

	if c.Hooks.Path == "" {
		return fmt.Errorf("hooks.path must not be empty")
	}
	if c.Delivery.Timeout <= 0 {
		return fmt.Errorf("delivery.timeout must be positive")
	}
	if c.Delivery.BreakerEnabled {
		if c.Delivery.BreakerFailureRatio <= 0 || c.Delivery.BreakerFailureRatio > 1 {
			return fmt.Errorf("delivery.breaker_failure_ratio must be in (0, 1]")
		}
		if c.Delivery.BreakerCooldown <= 0 {
			return fmt.Errorf("delivery.breaker_cooldown must be positive")
		}
	}
	if c.Delivery.RatePerSecond < 0 {
		return fmt.Errorf("delivery.rate_per_second must not be negative")
	}
	if c.Delivery.RatePerSecond > 0 && c.Delivery.RateBurst < 1 {
		return fmt.Errorf("delivery.rate_burst must be at least 1 when throttling is enabled")
	}
	return nil
}
