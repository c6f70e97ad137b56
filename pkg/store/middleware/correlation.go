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

package middleware

import (
	"github.com/google/uuid"

	"github.com/innovationmech/scribe/pkg/store"
)

// CorrelationMiddleware stamps actions that carry no ID with a fresh one.
type CorrelationMiddleware struct {
	prefix   string
	generate func() string
}

// CorrelationOption configures a CorrelationMiddleware.
type CorrelationOption func(*CorrelationMiddleware)

// WithPrefix prepends prefix to every generated ID.
func WithPrefix(prefix string) CorrelationOption {
	return func(m *CorrelationMiddleware) {
		m.prefix = prefix
	}
}

// WithGenerator replaces the UUID generator.
func WithGenerator(generate func() string) CorrelationOption {
	return func(m *CorrelationMiddleware) {
		if generate != nil {
			m.generate = generate
		}
	}
}

// Correlation creates a CorrelationMiddleware generating random UUIDs.
func Correlation(opts ...CorrelationOption) *CorrelationMiddleware {
	m := &CorrelationMiddleware{generate: uuid.NewString}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name implements store.Middleware.
func (m *CorrelationMiddleware) Name() string { return "correlation" }

// Apply implements store.Middleware. Existing IDs are kept.
func (m *CorrelationMiddleware) Apply(action store.Action, _ *store.State) (store.Action, error) {
	if action.ID == "" {
		action.ID = m.prefix + m.generate()
	}
	return action, nil
}
