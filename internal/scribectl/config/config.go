// Copyright © 2025 jackelyj <dreamerlyj@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
//

// Package config loads the scribectl configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgconfig "github.com/innovationmech/scribe/pkg/config"
	"github.com/innovationmech/scribe/pkg/feed"
	"github.com/innovationmech/scribe/pkg/httpapi"
	"github.com/innovationmech/scribe/pkg/storage"
	"github.com/innovationmech/scribe/pkg/store"
)

// Config is the complete scribectl configuration.
type Config struct {
	Store   StoreConfig    `mapstructure:"store" json:"store" yaml:"store"`
	Storage storage.Config `mapstructure:"storage" json:"storage" yaml:"storage"`
	Logging LoggingConfig  `mapstructure:"logging" json:"logging" yaml:"logging"`
	HTTP    httpapi.Config `mapstructure:"http" json:"http" yaml:"http"`
	Feed    feed.Config    `mapstructure:"feed" json:"feed" yaml:"feed"`
	Metrics MetricsConfig  `mapstructure:"metrics" json:"metrics" yaml:"metrics"`
	Tracing TracingConfig  `mapstructure:"tracing" json:"tracing" yaml:"tracing"`
}

// StoreConfig configures the document store.
type StoreConfig struct {
	MaxHistorySize int    `mapstructure:"max_history_size" json:"max_history_size" yaml:"max_history_size" validate:"gte=1,lte=10000"`
	Slot           string `mapstructure:"slot" json:"slot" yaml:"slot" validate:"required,excludesall=/\\"`
	// Schema optionally points at a JSON Schema file every state must satisfy.
	Schema string `mapstructure:"schema" json:"schema" yaml:"schema"`
	// Aliases keep old action names working after an action type was renamed.
	Aliases []ActionAlias `mapstructure:"aliases" json:"aliases,omitempty" yaml:"aliases,omitempty" validate:"dive"`
}

// ActionAlias maps the action type From to the registered type To.
type ActionAlias struct {
	From string `mapstructure:"from" json:"from" yaml:"from" validate:"required"`
	To   string `mapstructure:"to" json:"to" yaml:"to" validate:"required,nefield=From"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level string `mapstructure:"level" json:"level" yaml:"level" validate:"oneof=debug info warn error dpanic panic fatal"`
}

// MetricsConfig toggles the Prometheus collector.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
}

// TracingConfig toggles dispatch tracing to stdout.
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Store: StoreConfig{
			MaxHistorySize: store.DefaultMaxHistorySize,
			Slot:           "default",
		},
		Storage: storage.Config{
			Type: storage.TypeFile,
			Path: ".scribe",
			Redis: storage.RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "scribe:slot:",
			},
			SQL: storage.SQLConfig{
				Driver: storage.DriverSQLite,
				DSN:    "scribe.db",
				Table:  "scribe_slots",
			},
			Retry: storage.DefaultRetryConfig(),
		},
		Logging: LoggingConfig{Level: "info"},
		HTTP:    httpapi.DefaultConfig(),
		Feed:    feed.DefaultConfig(),
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Defaults flattens Default into dotted keys, so that every key is known to
// the manager and can be overridden by an environment variable.
func Defaults() map[string]interface{} {
	d := Default()
	return map[string]interface{}{
		"store.max_history_size":       d.Store.MaxHistorySize,
		"store.slot":                   d.Store.Slot,
		"store.schema":                 d.Store.Schema,
		"storage.type":                 d.Storage.Type,
		"storage.path":                 d.Storage.Path,
		"storage.max_bytes":            d.Storage.MaxBytes,
		"storage.ttl":                  d.Storage.TTL,
		"storage.in_memory":            d.Storage.InMemory,
		"storage.redis.mode":           string(storage.RedisModeStandalone),
		"storage.redis.addr":           d.Storage.Redis.Addr,
		"storage.redis.username":       "",
		"storage.redis.password":       "",
		"storage.redis.db":             0,
		"storage.redis.key_prefix":     d.Storage.Redis.KeyPrefix,
		"storage.sql.driver":           d.Storage.SQL.Driver,
		"storage.sql.dsn":              d.Storage.SQL.DSN,
		"storage.sql.table":            d.Storage.SQL.Table,
		"storage.retry.max_retries":    d.Storage.Retry.MaxRetries,
		"storage.retry.initial_delay":  d.Storage.Retry.InitialDelay,
		"storage.retry.max_delay":      d.Storage.Retry.MaxDelay,
		"storage.retry.multiplier":     d.Storage.Retry.Multiplier,
		"storage.retry.backoff":        d.Storage.Retry.Backoff,
		"storage.retry.jitter_percent": d.Storage.Retry.JitterPercent,
		"logging.level":                d.Logging.Level,
		"http.address":                 d.HTTP.Address,
		"http.read_timeout":            d.HTTP.ReadTimeout,
		"http.write_timeout":           d.HTTP.WriteTimeout,
		"http.shutdown_timeout":        d.HTTP.ShutdownTimeout,
		"feed.enabled":                 d.Feed.Enabled,
		"feed.url":                     d.Feed.URL,
		"feed.subject_prefix":          d.Feed.SubjectPrefix,
		"feed.name":                    d.Feed.Name,
		"feed.token":                   "",
		"feed.username":                "",
		"feed.password":                "",
		"feed.connect_timeout":         d.Feed.ConnectTimeout,
		"feed.max_reconnects":          d.Feed.MaxReconnects,
		"feed.reconnect_wait":          d.Feed.ReconnectWait,
		"metrics.enabled":              d.Metrics.Enabled,
		"tracing.enabled":              d.Tracing.Enabled,
	}
}

// NewManager creates a config manager for dir and env with every default set.
func NewManager(dir, env string) *pkgconfig.Manager {
	opts := pkgconfig.DefaultOptions()
	if dir != "" {
		opts.WorkDir = dir
	}
	opts.EnvironmentName = env
	m := pkgconfig.NewManager(opts)
	for key, value := range Defaults() {
		m.SetDefault(key, value)
	}
	return m
}

// Load reads and validates the configuration from m.
func Load(m *pkgconfig.Manager) (*Config, error) {
	if err := m.Load(); err != nil {
		return nil, err
	}
	return Decode(m)
}

// Decode unmarshals and validates the settings currently held by m.
func Decode(m *pkgconfig.Manager) (*Config, error) {
	cfg := &Config{}
	if err := m.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the storage selection.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Storage.Retry.Validate(); err != nil {
		return fmt.Errorf("invalid config: storage.retry: %w", err)
	}
	seen := make(map[string]bool, len(c.Store.Aliases))
	for _, a := range c.Store.Aliases {
		if seen[a.From] {
			return fmt.Errorf("invalid config: store.aliases: %q is listed twice", a.From)
		}
		seen[a.From] = true
	}
	switch strings.ToLower(c.Storage.Type) {
	case storage.TypeMemory:
	case storage.TypeFile:
		if c.Storage.Path == "" {
			return fmt.Errorf("invalid config: storage.path is required for %q storage", c.Storage.Type)
		}
	case storage.TypeBadger:
		if c.Storage.Path == "" && !c.Storage.InMemory {
			return fmt.Errorf("invalid config: storage.path is required for on-disk badger storage")
		}
	case storage.TypeRedis:
		rc := c.Storage.Redis
		if err := rc.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	case storage.TypeSQL:
		if c.Storage.SQL.DSN == "" {
			return fmt.Errorf("invalid config: storage.sql.dsn is required")
		}
	default:
		return fmt.Errorf("invalid config: %w: %q", storage.ErrUnknownType, c.Storage.Type)
	}
	return nil
}
