// Pelorus - Real-time AIS Vessel Tracking and Proximity Broadcast
// Copyright 2026 Pelorus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pelorus-io/pelorus

// Package config defines the typed process configuration and its loading
// via Koanf v2 with layered sources (defaults, optional YAML file,
// environment variables).
package config

import (
	"fmt"
	"time"

	"github.com/pelorus-io/pelorus/internal/validation"
)

// Config is the root configuration for the Pelorus process.
type Config struct {
	Feed      FeedConfig      `koanf:"feed"`
	Database  DatabaseConfig  `koanf:"database"`
	Server    ServerConfig    `koanf:"server"`
	Broadcast BroadcastConfig `koanf:"broadcast"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// FeedConfig configures the upstream AIS feed connector.
type FeedConfig struct {
	// URL is the upstream WebSocket endpoint.
	URL string `koanf:"url" validate:"required,url"`

	// APIKey authenticates the subscription control frame.
	APIKey string `koanf:"api_key" validate:"required"`

	// Bounding box for the subscription. Global by default.
	LatMin float64 `koanf:"lat_min" validate:"gte=-90,lte=90"`
	LonMin float64 `koanf:"lon_min" validate:"gte=-180,lte=180"`
	LatMax float64 `koanf:"lat_max" validate:"gte=-90,lte=90,gtefield=LatMin"`
	LonMax float64 `koanf:"lon_max" validate:"gte=-180,lte=180,gtefield=LonMin"`

	// ReconnectDelay is the fixed wait between reconnect attempts.
	// There is deliberately no retry ceiling; the connector retries forever.
	ReconnectDelay time.Duration `koanf:"reconnect_delay" validate:"required"`

	// HandshakeTimeout bounds the WebSocket dial.
	HandshakeTimeout time.Duration `koanf:"handshake_timeout" validate:"required"`

	// Workers is the number of goroutines normalizing and persisting
	// inbound reports. QueueSize is the intake buffer between the
	// connector's read loop and the workers; when full, reports are
	// dropped rather than stalling the read loop.
	Workers   int `koanf:"workers" validate:"min=1,max=64"`
	QueueSize int `koanf:"queue_size" validate:"min=1"`
}

// DatabaseConfig configures the embedded DuckDB vessel store.
type DatabaseConfig struct {
	Path                   string `koanf:"path" validate:"required"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"` // 0 = runtime.NumCPU()
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
}

// ServerConfig configures the viewer-facing HTTP/WebSocket server.
type ServerConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout         time.Duration `koanf:"timeout" validate:"required"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"required"`
}

// BroadcastConfig configures the proximity broadcaster.
type BroadcastConfig struct {
	// Interval between broadcast ticks.
	Interval time.Duration `koanf:"interval" validate:"required"`

	// DefaultRadiusMeters applies to viewers that never declared a radius.
	DefaultRadiusMeters float64 `koanf:"default_radius_meters" validate:"gt=0"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Addr returns the listen address in host:port form.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Validate checks the loaded configuration. A validation failure here is a
// fatal startup condition; the process must exit non-zero.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
