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
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrInvalidRedisConfig indicates that the Redis configuration is invalid.
	ErrInvalidRedisConfig = errors.New("invalid redis configuration")

	// ErrEmptyAddress indicates that no Redis address was configured.
	ErrEmptyAddress = errors.New("redis address cannot be empty")
)

// RedisMode defines the operation mode of Redis.
type RedisMode string

const (
	// RedisModeStandalone represents standalone Redis mode.
	RedisModeStandalone RedisMode = "standalone"

	// RedisModeCluster represents Redis cluster mode.
	RedisModeCluster RedisMode = "cluster"

	// RedisModeSentinel represents Redis sentinel mode for high availability.
	RedisModeSentinel RedisMode = "sentinel"
)

// RedisConfig holds the configuration for the Redis backend.
type RedisConfig struct {
	// Mode specifies the Redis operation mode. Default: standalone
	Mode RedisMode `mapstructure:"mode" json:"mode" yaml:"mode"`

	// Addr is the server address for standalone mode.
	Addr string `mapstructure:"addr" json:"addr" yaml:"addr"`

	// Addrs lists cluster nodes or sentinels.
	Addrs []string `mapstructure:"addrs" json:"addrs" yaml:"addrs"`

	// MasterName is the sentinel master name. Required for sentinel mode.
	MasterName string `mapstructure:"master_name" json:"master_name" yaml:"master_name"`

	Username string `mapstructure:"username" json:"username" yaml:"username"`
	Password string `mapstructure:"password" json:"password" yaml:"password"`

	// DB is the database number. Only applicable in standalone and sentinel mode.
	DB int `mapstructure:"db" json:"db" yaml:"db"`

	// KeyPrefix is prepended to every slot name. Default: "scribe:slot:"
	KeyPrefix string `mapstructure:"key_prefix" json:"key_prefix" yaml:"key_prefix"`

	// TTL expires slots. Zero keeps them forever.
	TTL time.Duration `mapstructure:"ttl" json:"ttl" yaml:"ttl"`

	// DialTimeout is the timeout for establishing new connections. Default: 5s
	DialTimeout time.Duration `mapstructure:"dial_timeout" json:"dial_timeout" yaml:"dial_timeout"`

	// ReadTimeout is the timeout for socket reads. Default: 3s
	ReadTimeout time.Duration `mapstructure:"read_timeout" json:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the timeout for socket writes. Default: 3s
	WriteTimeout time.Duration `mapstructure:"write_timeout" json:"write_timeout" yaml:"write_timeout"`

	// PoolSize is the maximum number of socket connections.
	PoolSize int `mapstructure:"pool_size" json:"pool_size" yaml:"pool_size"`
}

// DefaultRedisConfig returns a standalone configuration for localhost.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Mode:         RedisModeStandalone,
		Addr:         "localhost:6379",
		KeyPrefix:    "scribe:slot:",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Validate checks the configuration and fills defaults.
func (c *RedisConfig) Validate() error {
	if c == nil {
		return ErrInvalidRedisConfig
	}
	if c.Mode == "" {
		c.Mode = RedisModeStandalone
	}
	switch c.Mode {
	case RedisModeStandalone:
		if c.Addr == "" && len(c.Addrs) == 0 {
			return ErrEmptyAddress
		}
	case RedisModeCluster:
		if len(c.Addrs) == 0 && c.Addr == "" {
			return ErrEmptyAddress
		}
	case RedisModeSentinel:
		if len(c.Addrs) == 0 {
			return ErrEmptyAddress
		}
		if c.MasterName == "" {
			return fmt.Errorf("%w: sentinel mode requires master_name", ErrInvalidRedisConfig)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidRedisConfig, c.Mode)
	}
	if c.DB < 0 {
		return fmt.Errorf("%w: db must be >= 0", ErrInvalidRedisConfig)
	}
	if c.TTL < 0 {
		return fmt.Errorf("%w: ttl must be >= 0", ErrInvalidRedisConfig)
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "scribe:slot:"
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 3 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 3 * time.Second
	}
	return nil
}

func (c *RedisConfig) universalOptions() *redis.UniversalOptions {
	addrs := c.Addrs
	if len(addrs) == 0 && c.Addr != "" {
		addrs = []string{c.Addr}
	}
	opts := &redis.UniversalOptions{
		Addrs:        addrs,
		Username:     c.Username,
		Password:     c.Password,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
		PoolSize:     c.PoolSize,
	}
	switch c.Mode {
	case RedisModeSentinel:
		opts.MasterName = c.MasterName
		opts.DB = c.DB
	case RedisModeStandalone:
		opts.DB = c.DB
	}
	return opts
}

// RedisStorage stores slots as Redis strings under {prefix}{slot}.
type RedisStorage struct {
	client redis.UniversalClient
	config *RedisConfig
	closed bool
}

// NewRedisStorage connects to Redis and verifies connectivity with a ping.
func NewRedisStorage(config *RedisConfig) (*RedisStorage, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client := redis.NewUniversalClient(config.universalOptions())

	ctx, cancel := context.WithTimeout(context.Background(), config.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewRedisStorageWithClient(client, config), nil
}

// NewRedisStorageWithClient wraps an existing client. The config is used for
// the key prefix and TTL only.
func NewRedisStorageWithClient(client redis.UniversalClient, config *RedisConfig) *RedisStorage {
	if config == nil {
		config = DefaultRedisConfig()
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "scribe:slot:"
	}
	return &RedisStorage{client: client, config: config}
}

func (r *RedisStorage) key(slot string) string {
	return r.config.KeyPrefix + slot
}

// Get reads the slot value.
func (r *RedisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}

	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}
	return data, nil
}

// Set writes the slot value with the configured TTL.
func (r *RedisStorage) Set(ctx context.Context, key string, value []byte) error {
	if r.closed {
		return ErrClosed
	}
	if err := validateKey(key); err != nil {
		return err
	}

	if err := r.client.Set(ctx, r.key(key), value, r.config.TTL).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Delete removes the slot.
func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	if r.closed {
		return ErrClosed
	}
	if err := validateKey(key); err != nil {
		return err
	}

	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying client.
func (r *RedisStorage) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.client.Close()
}
