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

package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/innovationmech/scribe/pkg/logger"
)

// Storage backend types
const (
	// TypeMemory represents the in-memory backend.
	TypeMemory = "memory"

	// TypeFile represents the file-per-slot backend.
	TypeFile = "file"

	// TypeRedis represents the Redis backend.
	TypeRedis = "redis"

	// TypeSQL represents the database/sql backend.
	TypeSQL = "sql"

	// TypeBadger represents the embedded BadgerDB backend.
	TypeBadger = "badger"
)

// Common errors for storage operations.
var (
	// ErrNotFound is returned when a slot holds no value.
	ErrNotFound = errors.New("slot not found")

	// ErrInvalidKey is returned for empty or malformed slot names.
	ErrInvalidKey = errors.New("invalid slot name")

	// ErrQuotaExceeded is returned when a write would exceed the backend quota.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrClosed is returned when using a closed backend.
	ErrClosed = errors.New("storage is closed")

	// ErrUnknownType is returned by New for an unsupported backend type.
	ErrUnknownType = errors.New("unknown storage type")
)

// Storage is a durable key-value store addressed by slot name.
//
// Delete is idempotent: deleting a missing slot is not an error.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	// Type is one of memory, file, redis, sql, badger. Default: memory.
	Type string `mapstructure:"type" json:"type" yaml:"type"`

	// Path is the directory used by the file and badger backends.
	Path string `mapstructure:"path" json:"path" yaml:"path"`

	// MaxBytes limits the total size held by the memory backend. Zero means no limit.
	MaxBytes int `mapstructure:"max_bytes" json:"max_bytes" yaml:"max_bytes"`

	// TTL expires slots in the redis and badger backends. Zero keeps them forever.
	TTL time.Duration `mapstructure:"ttl" json:"ttl" yaml:"ttl"`

	// InMemory runs badger without touching the disk.
	InMemory bool `mapstructure:"in_memory" json:"in_memory" yaml:"in_memory"`

	Redis RedisConfig `mapstructure:"redis" json:"redis" yaml:"redis"`
	SQL   SQLConfig   `mapstructure:"sql" json:"sql" yaml:"sql"`

	// Retry wraps the redis and sql backends. MaxRetries zero disables it.
	Retry RetryConfig `mapstructure:"retry" json:"retry" yaml:"retry"`
}

// New creates the backend selected by cfg.Type.
func New(cfg Config) (Storage, error) {
	switch strings.ToLower(cfg.Type) {
	case "", TypeMemory:
		return NewMemoryStorage(cfg.MaxBytes), nil
	case TypeFile:
		return NewFileStorage(cfg.Path)
	case TypeRedis:
		rc := cfg.Redis
		if rc.TTL == 0 {
			rc.TTL = cfg.TTL
		}
		st, err := NewRedisStorage(&rc)
		if err != nil {
			return nil, err
		}
		return withRetry(st, cfg.Retry)
	case TypeSQL:
		st, err := OpenSQLStorage(&cfg.SQL)
		if err != nil {
			return nil, err
		}
		return withRetry(st, cfg.Retry)
	case TypeBadger:
		return NewBadgerStorage(BadgerConfig{Path: cfg.Path, InMemory: cfg.InMemory, TTL: cfg.TTL})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, cfg.Type)
	}
}

func withRetry(st Storage, cfg RetryConfig) (Storage, error) {
	if cfg.MaxRetries == 0 {
		return st, nil
	}
	r, err := WithRetry(st, cfg, logger.Named("storage"))
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return r, nil
}

// validateKey rejects names that cannot be used as a slot in every backend.
func validateKey(key string) error {
	if key == "" || strings.TrimSpace(key) != key {
		return ErrInvalidKey
	}
	if strings.ContainsAny(key, "/\\\x00") || key == "." || key == ".." {
		return ErrInvalidKey
	}
	return nil
}
