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
	"math"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Backoff strategies for RetryConfig.
const (
	BackoffFixed       = "fixed"
	BackoffLinear      = "linear"
	BackoffExponential = "exponential"
)

// RetryConfig controls retries of failed backend calls. Only the network
// backends (redis, sql) are wrapped.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt. Zero disables retries.
	MaxRetries int `mapstructure:"max_retries" json:"max_retries" yaml:"max_retries"`

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration `mapstructure:"initial_delay" json:"initial_delay" yaml:"initial_delay"`

	// MaxDelay caps a single delay. Zero means no cap.
	MaxDelay time.Duration `mapstructure:"max_delay" json:"max_delay" yaml:"max_delay"`

	// Multiplier grows the delay for the exponential strategy.
	Multiplier float64 `mapstructure:"multiplier" json:"multiplier" yaml:"multiplier"`

	// Backoff is one of fixed, linear, exponential. Default: exponential.
	Backoff string `mapstructure:"backoff" json:"backoff" yaml:"backoff"`

	// JitterPercent scales each delay by a random factor in [1-p%, 1+p%].
	JitterPercent float64 `mapstructure:"jitter_percent" json:"jitter_percent" yaml:"jitter_percent"`
}

// DefaultRetryConfig returns three exponential retries starting at 50ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		Multiplier:    2.0,
		Backoff:       BackoffExponential,
		JitterPercent: 10.0,
	}
}

// Validate checks the retry settings.
func (c RetryConfig) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}
	if c.InitialDelay < 0 || c.MaxDelay < 0 {
		return fmt.Errorf("retry delays cannot be negative")
	}
	switch c.Backoff {
	case "", BackoffFixed, BackoffLinear:
	case BackoffExponential:
		if c.Multiplier <= 0 || math.IsNaN(c.Multiplier) || math.IsInf(c.Multiplier, 0) {
			return fmt.Errorf("multiplier must be a positive number")
		}
	default:
		return fmt.Errorf("unknown backoff %q", c.Backoff)
	}
	if c.JitterPercent < 0 || c.JitterPercent > 100 {
		return fmt.Errorf("jitter_percent must be between 0 and 100")
	}
	return nil
}

// Delay returns the wait before retry number attempt (1-based), without jitter.
func (c RetryConfig) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	d := c.InitialDelay
	switch c.Backoff {
	case BackoffFixed:
	case BackoffLinear:
		d = time.Duration(float64(d) * float64(attempt))
	default:
		m := c.Multiplier
		if m <= 0 {
			m = 2
		}
		d = time.Duration(float64(d) * math.Pow(m, float64(attempt-1)))
	}
	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	if d < 0 {
		d = 0
	}
	return d
}

// Permanent reports whether err can never succeed on retry.
func Permanent(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidKey) ||
		errors.Is(err, ErrQuotaExceeded) ||
		errors.Is(err, ErrClosed) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// RetryingStorage retries transient failures of another backend.
type RetryingStorage struct {
	next   Storage
	cfg    RetryConfig
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// WithRetry wraps next so that transient failures are retried according to cfg.
func WithRetry(next Storage, cfg RetryConfig, logger *zap.Logger) (*RetryingStorage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryingStorage{
		next:   next,
		cfg:    cfg,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Get reads a slot.
func (r *RetryingStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.do(ctx, "get", key, func() error {
		var err error
		value, err = r.next.Get(ctx, key)
		return err
	})
	return value, err
}

// Set writes a slot.
func (r *RetryingStorage) Set(ctx context.Context, key string, value []byte) error {
	return r.do(ctx, "set", key, func() error { return r.next.Set(ctx, key, value) })
}

// Delete removes a slot.
func (r *RetryingStorage) Delete(ctx context.Context, key string) error {
	return r.do(ctx, "delete", key, func() error { return r.next.Delete(ctx, key) })
}

// Close closes the wrapped backend.
func (r *RetryingStorage) Close() error {
	return r.next.Close()
}

func (r *RetryingStorage) do(ctx context.Context, op, key string, call func() error) error {
	for attempt := 0; ; attempt++ {
		err := call()
		if err == nil || Permanent(err) || attempt >= r.cfg.MaxRetries {
			return err
		}

		delay := r.jitter(r.cfg.Delay(attempt + 1))
		r.logger.Debug("retrying storage call",
			zap.String("op", op),
			zap.String("slot", key),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *RetryingStorage) jitter(d time.Duration) time.Duration {
	p := r.cfg.JitterPercent
	if p <= 0 || d <= 0 {
		return d
	}
	r.mu.Lock()
	f := r.rng.Float64()
	r.mu.Unlock()
	factor := 1 - p/100 + 2*p/100*f
	d = time.Duration(float64(d) * factor)
	if r.cfg.MaxDelay > 0 && d > r.cfg.MaxDelay {
		d = r.cfg.MaxDelay
	}
	return d
}
