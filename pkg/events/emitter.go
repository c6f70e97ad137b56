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

// Package events provides the synchronous publish/subscribe channel used by
// the state store to notify its subscribers.
//
// Listeners registered for an event run in registration order on the calling
// goroutine. A listener that panics or returns an error does not stop the
// remaining listeners from running; the failures are collected and returned
// from Emit as a single combined error.
package events

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Listener handles a single emitted payload.
type Listener func(payload any) error

// ListenerError describes one listener failure during an Emit call.
type ListenerError struct {
	Event string
	// Index is the listener's position in the registration order at emit time.
	Index int
	Err   error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("listener %d for %q failed: %v", e.Index, e.Event, e.Err)
}

func (e *ListenerError) Unwrap() error { return e.Err }

type registration struct {
	id       uint64
	listener Listener
}

// Emitter is a named-event publish/subscribe channel.
// The zero value is not usable; create one with New.
type Emitter struct {
	mu        sync.RWMutex
	listeners map[string][]registration
	nextID    uint64
	logger    *zap.Logger
}

// New creates an Emitter. A nil logger disables failure logging.
func New(logger *zap.Logger) *Emitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{
		listeners: make(map[string][]registration),
		logger:    logger,
	}
}

// On registers listener for event and returns a function that removes the
// registration. Calling the returned function more than once is harmless.
func (e *Emitter) On(event string, listener Listener) func() {
	if listener == nil {
		return func() {}
	}

	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.listeners[event] = append(e.listeners[event], registration{id: id, listener: listener})
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { e.off(event, id) })
	}
}

func (e *Emitter) off(event string, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	regs := e.listeners[event]
	for i, r := range regs {
		if r.id != id {
			continue
		}
		next := make([]registration, 0, len(regs)-1)
		next = append(next, regs[:i]...)
		next = append(next, regs[i+1:]...)
		if len(next) == 0 {
			delete(e.listeners, event)
		} else {
			e.listeners[event] = next
		}
		return
	}
}

// Emit invokes every listener registered for event with payload.
// The listener set is captured before the first call, so listeners added or
// removed during the emit take effect on the next one.
func (e *Emitter) Emit(event string, payload any) error {
	e.mu.RLock()
	regs := e.listeners[event]
	e.mu.RUnlock()

	if len(regs) == 0 {
		return nil
	}

	var errs error
	for i, r := range regs {
		if err := invoke(r.listener, payload); err != nil {
			lerr := &ListenerError{Event: event, Index: i, Err: err}
			e.logger.Warn("event listener failed",
				zap.String("event", event),
				zap.Int("listener", i),
				zap.Error(err))
			errs = multierr.Append(errs, lerr)
		}
	}
	return errs
}

func invoke(l Listener, payload any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return l(payload)
}

// ListenerCount returns the number of listeners registered for event.
func (e *Emitter) ListenerCount(event string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners[event])
}

// RemoveAllListeners drops every registration for every event.
func (e *Emitter) RemoveAllListeners() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = make(map[string][]registration)
}
