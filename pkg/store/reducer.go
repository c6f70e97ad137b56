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

package store

import (
	"sort"
	"sync"
)

// Reducer computes the next state from the current state and an action.
//
// A reducer must not depend on anything but its arguments. Returning the
// state it was given signals that the action changed nothing.
type Reducer func(state *State, action Action) (*State, error)

// Registry maps action types to reducers. Registering a reducer for a type
// that already has one replaces it.
type Registry struct {
	mu       sync.RWMutex
	reducers map[string]Reducer
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{reducers: make(map[string]Reducer)}
}

// Register stores reducer under actionType. A nil reducer removes the type.
func (r *Registry) Register(actionType string, reducer Reducer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reducer == nil {
		delete(r.reducers, actionType)
		return
	}
	r.reducers[actionType] = reducer
}

// Lookup returns the reducer registered for actionType.
func (r *Registry) Lookup(actionType string) (Reducer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reducer, ok := r.reducers[actionType]
	return reducer, ok
}

// Has reports whether a reducer is registered for actionType.
func (r *Registry) Has(actionType string) bool {
	_, ok := r.Lookup(actionType)
	return ok
}

// Types returns the registered action types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.reducers))
	for t := range r.reducers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Clear removes every registration.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reducers = make(map[string]Reducer)
}
