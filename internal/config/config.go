// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskHub Contributors

// Package config loads service configuration from defaults, an optional
// YAML file, and command-line flags, in that order of precedence.
package config

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Default listen addresses and token validity.
const (
	DefaultHTTPAddr    = ":8080"
	DefaultMetricsAddr = "127.0.0.1:9100"
	DefaultLogFormat   = "json"
	DefaultTokenTTL    = 24 * time.Hour
)

// HTTP configures the API server.
type HTTP struct {
	Addr string `koanf:"addr"`
}

// Metrics configures the observability server. An empty address disables it.
type Metrics struct {
	Addr string `koanf:"addr"`
}

// Database configures the PostgreSQL connection.
type Database struct {
	URL string `koanf:"url"`
}

// Auth configures token issuance. The secret is required; it is never
// baked into defaults.
type Auth struct {
	TokenSecret string        `koanf:"token_secret"`
	TokenTTL    time.Duration `koanf:"token_ttl"`
}

// Log configures structured logging output.
type Log struct {
	Format string `koanf:"format"`
}

// Config is the full service configuration. Immutable after Load; the
// services it is injected into never read ambient state.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Metrics  Metrics  `koanf:"metrics"`
	Database Database `koanf:"database"`
	Auth     Auth     `koanf:"auth"`
	Log      Log      `koanf:"log"`
}

// Load builds a Config from defaults, the YAML file at path (if non-empty),
// and the given flag set (highest precedence). DATABASE_URL and
// TASKHUB_TOKEN_SECRET environment variables backfill the two secrets when
// nothing else set them.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	cfg := &Config{
		HTTP:    HTTP{Addr: DefaultHTTPAddr},
		Metrics: Metrics{Addr: DefaultMetricsAddr},
		Auth:    Auth{TokenTTL: DefaultTokenTTL},
		Log:     Log{Format: DefaultLogFormat},
	}

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").
			With("operation", "unmarshal config").
			Wrap(err)
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}
	if cfg.Auth.TokenSecret == "" {
		cfg.Auth.TokenSecret = os.Getenv("TASKHUB_TOKEN_SECRET")
	}

	return cfg, nil
}

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("http.addr is required")
	}
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url (or DATABASE_URL) is required")
	}
	if c.Auth.TokenSecret == "" {
		return oops.Code("CONFIG_INVALID").Errorf("auth.token_secret (or TASKHUB_TOKEN_SECRET) is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").Errorf("log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	return nil
}
