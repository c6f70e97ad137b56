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

import "github.com/innovationmech/scribe/pkg/store"

// RenameMiddleware rewrites one action type into another, typically to keep
// legacy type names working after a reducer was renamed.
type RenameMiddleware struct {
	from, to string
}

// Rename creates a RenameMiddleware mapping from to to.
func Rename(from, to string) *RenameMiddleware {
	return &RenameMiddleware{from: from, to: to}
}

// Name implements store.Middleware.
func (m *RenameMiddleware) Name() string { return "rename:" + m.from }

// Apply implements store.Middleware.
func (m *RenameMiddleware) Apply(action store.Action, _ *store.State) (store.Action, error) {
	if action.Type == m.from {
		action.Type = m.to
	}
	return action, nil
}
