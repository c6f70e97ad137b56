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

package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger is the global logger for the application.
	Logger *zap.Logger
	// mu protects Logger from concurrent access
	mu sync.RWMutex
	// initialized tracks whether logger has been initialized
	initialized bool
	// level is shared by every logger built by InitLogger so it can be changed at runtime.
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// InitLogger initializes the global logger safely to prevent race conditions.
func InitLogger() {
	mu.Lock()
	defer mu.Unlock()

	if !initialized || Logger == nil {
		cfg := zap.NewProductionConfig()
		cfg.Level = level
		var err error
		Logger, err = cfg.Build()
		if err != nil {
			panic(err)
		}
		initialized = true
	}
}

// GetLogger returns the global logger, initializing it if necessary.
func GetLogger() *zap.Logger {
	mu.RLock()
	if initialized && Logger != nil {
		defer mu.RUnlock()
		return Logger
	}
	mu.RUnlock()

	InitLogger()

	mu.RLock()
	defer mu.RUnlock()
	return Logger
}

// Named returns a child of the global logger, or a no-op logger when
// InitLogger has not run. Library packages use it so they stay silent
// unless the host application opted into logging.
func Named(name string) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if Logger == nil {
		return zap.NewNop()
	}
	return Logger.Named(name)
}

// SetLevel changes the level of the global logger. Accepted values are the
// zap level names (debug, info, warn, error, dpanic, panic, fatal).
func SetLevel(name string) error {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(name)))); err != nil {
		return err
	}
	level.SetLevel(l)
	return nil
}

// GetLevel returns the current level name of the global logger.
func GetLevel() string {
	return level.Level().String()
}

// ResetLogger resets the logger for testing purposes.
// This should only be used in tests.
func ResetLogger() {
	mu.Lock()
	defer mu.Unlock()

	if Logger != nil {
		_ = Logger.Sync()
	}
	Logger = nil
	initialized = false
	level.SetLevel(zapcore.InfoLevel)
}
