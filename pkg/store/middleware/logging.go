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

// Package middleware provides reusable middleware for the state store
// pipeline.
package middleware

import (
	"go.uber.org/zap"

	"github.com/innovationmech/scribe/pkg/store"
)

// LoggingMiddleware debug-logs every action passing through the pipeline.
type LoggingMiddleware struct {
	logger *zap.Logger
}

// Logging creates a LoggingMiddleware. A nil logger disables output.
func Logging(logger *zap.Logger) *LoggingMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingMiddleware{logger: logger}
}

// Name implements store.Middleware.
func (m *LoggingMiddleware) Name() string { return "logging" }

// Apply implements store.Middleware.
func (m *LoggingMiddleware) Apply(action store.Action, state *store.State) (store.Action, error) {
	if ce := m.logger.Check(zap.DebugLevel, "dispatching action"); ce != nil {
		fields := []zap.Field{
			zap.String("type", action.Type),
			zap.Bool("async", action.Async),
			zap.Int("state_keys", state.Len()),
		}
		if action.ID != "" {
			fields = append(fields, zap.String("action_id", action.ID))
		}
		if action.Payload != nil {
			fields = append(fields, zap.Any("payload", action.Payload))
		}
		ce.Write(fields...)
	}
	return action, nil
}
