// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where a config file is searched, first hit wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/hookbridge/config.yaml",
	"/etc/hookbridge/config.yml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults, applied before file and env
// layers.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8710,
			Timeout: 30 * time.Second,
		},
		Jellyfin: JellyfinConfig{
			URL:               "",
			APIKey:            "",
			DeviceID:          "hookbridge",
			SessionUpdateMs:   1500,
			HandshakeTimeout:  10 * time.Second,
			ReconnectMaxDelay: 32 * time.Second,
			RequestTimeout:    15 * time.Second,
		},
		Hooks: HooksConfig{
			Path: "/data/hooks.json",
		},
		Delivery: DeliveryConfig{
			Timeout:             30 * time.Second,
			BreakerEnabled:      true,
			BreakerMinRequests:  10,
			BreakerFailureRatio: 0.6,
			BreakerCooldown:     2 * time.Minute,
			RatePerSecond:       0, // unthrottled
			RateBurst:           1,
		},
		API: APIConfig{
			Token: "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// envKeys maps environment variable names to koanf paths. Unknown variables
// are ignored so unrelated environment noise cannot leak into the config.
var envKeys = map[string]string{
	"SERVER_HOST":    "server.host",
	"SERVER_PORT":    "server.port",
	"SERVER_TIMEOUT": "server.timeout",

	"JELLYFIN_URL":                 "jellyfin.url",
	"JELLYFIN_API_KEY":             "jellyfin.api_key",
	"JELLYFIN_DEVICE_ID":           "jellyfin.device_id",
	"JELLYFIN_SESSION_UPDATE_MS":   "jellyfin.session_update_ms",
	"JELLYFIN_HANDSHAKE_TIMEOUT":   "jellyfin.handshake_timeout",
	"JELLYFIN_RECONNECT_MAX_DELAY": "jellyfin.reconnect_max_delay",
	"JELLYFIN_REQUEST_TIMEOUT":     "jellyfin.request_timeout",

	"HOOKS_PATH": "hooks.path",

	"DELIVERY_TIMEOUT":               "delivery.timeout",
	"DELIVERY_BREAKER_ENABLED":       "delivery.breaker_enabled",
	"DELIVERY_BREAKER_MIN_REQUESTS":  "delivery.breaker_min_requests",
	"DELIVERY_BREAKER_FAILURE_RATIO": "delivery.breaker_failure_ratio",
	"DELIVERY_BREAKER_COOLDOWN":      "delivery.breaker_cooldown",
	"DELIVERY_RATE_PER_SECOND":       "delivery.rate_per_second",
	"DELIVERY_RATE_BURST":            "delivery.rate_burst",

	"API_TOKEN": "api.token",

	"LOG_LEVEL":  "logging.level",
	"LOG_FORMAT": "logging.format",
	"LOG_CALLER": "logging.caller",
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in that order of precedence (highest last).
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("", ".", func(key string) string {
		return envKeys[key] // empty string drops the variable
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
