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
	"sync"
)

// Middleware transforms an action before it reaches its reducer.
//
// Apply receives the action produced by the previous middleware and the state
// as it was before the dispatch started. It returns the action to hand on,
// which may be the input unchanged. Returning an error aborts the dispatch.
type Middleware interface {
	Name() string
	Apply(action Action, state *State) (Action, error)
}

// MiddlewareFunc is a function adapter that implements Middleware.
type MiddlewareFunc func(action Action, state *State) (Action, error)

// Name returns a default name for the middleware function.
func (f MiddlewareFunc) Name() string {
	return "middleware-func"
}

// Apply implements Middleware.
func (f MiddlewareFunc) Apply(action Action, state *State) (Action, error) {
	return f(action, state)
}

type namedMiddleware struct {
	name string
	fn   MiddlewareFunc
}

func (n namedMiddleware) Name() string { return n.name }

func (n namedMiddleware) Apply(action Action, state *State) (Action, error) {
	return n.fn(action, state)
}

// NamedMiddleware wraps fn in a Middleware reporting name.
func NamedMiddleware(name string, fn MiddlewareFunc) Middleware {
	return namedMiddleware{name: name, fn: fn}
}

// Pipeline is the ordered list of middleware applied to every dispatched action.
type Pipeline struct {
	mu         sync.RWMutex
	middleware []Middleware
}

// NewPipeline creates a pipeline with the given middleware.
func NewPipeline(middleware ...Middleware) *Pipeline {
	return &Pipeline{middleware: append([]Middleware(nil), middleware...)}
}

// Use adds middleware to the end of the pipeline.
func (p *Pipeline) Use(middleware ...Middleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, mw := range middleware {
		if mw != nil {
			p.middleware = append(p.middleware, mw)
		}
	}
}

// Remove removes the first middleware with the given name.
func (p *Pipeline) Remove(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, mw := range p.middleware {
		if mw.Name() == name {
			p.middleware = append(p.middleware[:i:i], p.middleware[i+1:]...)
			return true
		}
	}
	return false
}

// Middleware returns a copy of the middleware slice.
func (p *Pipeline) Middleware() []Middleware {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]Middleware, len(p.middleware))
	copy(result, p.middleware)
	return result
}

// Len returns the number of middleware in the pipeline.
func (p *Pipeline) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.middleware)
}

// Clear removes every middleware.
func (p *Pipeline) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.middleware = nil
}

// Apply folds action through the middleware in order. Each middleware sees the
// output of the previous one and the unchanged pre-dispatch state. Panics are
// recovered and returned as errors, as are actions without a type.
func (p *Pipeline) Apply(action Action, state *State) (Action, error) {
	for _, mw := range p.Middleware() {
		next, err := applyOne(mw, action, state)
		if err != nil {
			return action, &DispatchError{Action: action, Stage: StageMiddleware, Middleware: mw.Name(), Err: err}
		}
		if next.Type == "" {
			return action, &DispatchError{Action: action, Stage: StageMiddleware, Middleware: mw.Name(), Err: ErrNilAction}
		}
		action = next
	}
	return action, nil
}

func applyOne(mw Middleware, action Action, state *State) (next Action, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r)
		}
	}()
	return mw.Apply(action, state)
}
