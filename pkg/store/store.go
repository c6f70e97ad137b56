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
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/innovationmech/scribe/pkg/events"
	"github.com/innovationmech/scribe/pkg/logger"
	"github.com/innovationmech/scribe/pkg/storage"
)

// Store is a reducer-driven state container with middleware, bounded
// undo/redo history, subscriptions and persistence.
//
// All operations run synchronously on the calling goroutine. Fields are
// guarded by a mutex, but dispatches never overlap: a Dispatch issued while
// another one is running middleware or a reducer (for example from inside a
// reducer) is rejected with ErrDispatchInProgress. Listeners run after the
// commit with no lock held and may dispatch follow-up actions.
type Store struct {
	mu          sync.Mutex
	state       *State
	history     *History
	dispatching bool
	destroyed   bool

	reducers *Registry
	pipeline *Pipeline
	emitter  *events.Emitter

	logger  *zap.Logger
	storage storage.Storage
	metrics MetricsCollector
	tracer  trace.Tracer
	now     func() time.Time

	maxHistorySize int
}

// Option configures a Store.
type Option func(*Store)

// WithMaxHistorySize bounds the undo history. Non-positive values select
// DefaultMaxHistorySize.
func WithMaxHistorySize(n int) Option {
	return func(s *Store) {
		s.maxHistorySize = n
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStorage sets the backend used by Persist, LoadPersisted and ClearPersisted.
func WithStorage(st storage.Storage) Option {
	return func(s *Store) {
		s.storage = st
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector MetricsCollector) Option {
	return func(s *Store) {
		if collector != nil {
			s.metrics = collector
		}
	}
}

// WithTracer wraps every dispatch in a span started from tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Store) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithClock overrides the time source used for persisted timestamps and
// dispatch durations.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Store holding a copy of initial.
func New(initial map[string]any, opts ...Option) *Store {
	s := &Store{
		state:    NewState(initial),
		reducers: NewRegistry(),
		pipeline: NewPipeline(),
		logger:   logger.Named("store"),
		metrics:  NoOpMetricsCollector{},
		tracer:   noop.NewTracerProvider().Tracer("scribe/store"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.history = NewHistory(s.maxHistorySize)
	s.emitter = events.New(s.logger)
	return s
}

// GetState returns a deep copy of the current state.
func (s *Store) GetState() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Map()
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Get(key)
}

// Current returns the current immutable state.
func (s *Store) Current() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RegisterReducer installs reducer for actionType, replacing any previous one.
func (s *Store) RegisterReducer(actionType string, reducer Reducer) {
	s.reducers.Register(actionType, reducer)
}

// HasReducer reports whether a reducer is registered for actionType.
func (s *Store) HasReducer(actionType string) bool {
	return s.reducers.Has(actionType)
}

// ReducerTypes returns the action types that have a reducer, sorted.
func (s *Store) ReducerTypes() []string {
	return s.reducers.Types()
}

// Use appends middleware to the dispatch pipeline.
func (s *Store) Use(middleware ...Middleware) {
	s.pipeline.Use(middleware...)
}

// RemoveMiddleware removes the first middleware with the given name.
func (s *Store) RemoveMiddleware(name string) bool {
	return s.pipeline.Remove(name)
}

// CreateAction returns a creator for actions of the given type.
func (s *Store) CreateAction(actionType string) ActionCreator {
	return CreateAction(actionType)
}

// CreateAsyncAction returns a creator for actions of the given type tagged Async.
func (s *Store) CreateAsyncAction(actionType string) ActionCreator {
	return CreateAsyncAction(actionType)
}

// Dispatch runs action through the middleware pipeline and its reducer.
//
// It returns nil when the state was committed or the reducer reported a
// no-op. An unregistered action type is logged and returned as an error
// wrapping ErrNoReducer without notifying anyone. Middleware and reducer
// failures, including panics, are emitted on the "error" event and returned
// as a *DispatchError; state and history are left untouched.
func (s *Store) Dispatch(action Action) error {
	start := s.now()
	_, span := s.tracer.Start(context.Background(), "store.dispatch",
		trace.WithAttributes(attribute.String("action.type", action.Type)))
	defer span.End()

	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		s.metrics.RecordDispatch(action.Type, OutcomeRejected, s.now().Sub(start))
		return ErrStoreDestroyed
	}
	if s.dispatching {
		s.mu.Unlock()
		s.metrics.RecordDispatch(action.Type, OutcomeRejected, s.now().Sub(start))
		return ErrDispatchInProgress
	}
	s.dispatching = true
	prev := s.state
	s.mu.Unlock()

	resolved, next, err := s.reduce(action, prev)

	s.mu.Lock()
	s.dispatching = false
	if err == nil && next != prev && !s.destroyed && s.state == prev {
		s.history.Record(prev, next)
		s.state = next
		s.metrics.RecordHistory(s.history.Len(), s.history.Index())
	} else if err == nil && next != prev {
		// the store was reset, loaded or destroyed while the reducer ran
		s.mu.Unlock()
		s.metrics.RecordDispatch(resolved.Type, OutcomeRejected, s.now().Sub(start))
		return ErrDispatchInProgress
	}
	s.mu.Unlock()

	span.SetAttributes(attribute.String("action.resolved_type", resolved.Type))

	switch {
	case err != nil:
		return s.failDispatch(action, resolved, err, span, start)
	case next == prev:
		s.metrics.RecordDispatch(resolved.Type, OutcomeNoop, s.now().Sub(start))
		s.logger.Debug("dispatch produced no change", zap.String("type", resolved.Type))
		return nil
	}

	s.metrics.RecordDispatch(resolved.Type, OutcomeCommitted, s.now().Sub(start))
	committed := resolved
	s.notify(EventStateChanged, resolved.Type, resolved.Payload, &committed, prev, next)
	return nil
}

func (s *Store) reduce(action Action, prev *State) (Action, *State, error) {
	resolved, err := s.pipeline.Apply(action, prev)
	if err != nil {
		return action, nil, err
	}

	reducer, ok := s.reducers.Lookup(resolved.Type)
	if !ok {
		return resolved, nil, fmt.Errorf("%w: %q", ErrNoReducer, resolved.Type)
	}

	next, err := callReducer(reducer, prev, resolved)
	if err != nil {
		return resolved, nil, &DispatchError{Stage: StageReducer, Err: err}
	}
	if next == nil {
		return resolved, nil, &DispatchError{Stage: StageReducer, Err: ErrNilState}
	}
	return resolved, next, nil
}

func callReducer(reducer Reducer, state *State, action Action) (next *State, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r)
		}
	}()
	return reducer(state, action)
}

func (s *Store) failDispatch(action, resolved Action, err error, span trace.Span, start time.Time) error {
	dispatchErr, ok := err.(*DispatchError)
	if !ok {
		// unregistered type: warn only
		s.metrics.RecordDispatch(resolved.Type, OutcomeUnhandled, s.now().Sub(start))
		s.logger.Warn("no reducer registered for action", zap.String("type", resolved.Type))
		return err
	}

	dispatchErr.Action = action
	span.RecordError(dispatchErr)
	span.SetStatus(codes.Error, dispatchErr.Error())
	s.metrics.RecordDispatch(resolved.Type, OutcomeFailed, s.now().Sub(start))
	s.logger.Error("dispatch failed",
		zap.String("type", action.Type),
		zap.String("stage", string(dispatchErr.Stage)),
		zap.Error(dispatchErr.Err))
	_ = s.emitter.Emit(EventError, ErrorEvent{Action: action, Err: dispatchErr})
	return dispatchErr
}

// BatchDispatch dispatches actions one after the other. Each action goes
// through the whole pipeline independently: a failing action does not stop
// later ones and does not roll back earlier ones. The returned error combines
// every failure.
func (s *Store) BatchDispatch(actions ...Action) error {
	var errs error
	for _, action := range actions {
		errs = multierr.Append(errs, s.Dispatch(action))
	}
	return errs
}

// Subscribe registers listener for every state change: dispatches, undo,
// redo, reset and load. It returns a function removing the subscription.
func (s *Store) Subscribe(listener ChangeListener) func() {
	if listener == nil {
		return func() {}
	}
	wrapped := func(payload any) error {
		if change, ok := payload.(Change); ok {
			listener(change)
		}
		return nil
	}
	offs := make([]func(), 0, len(changeEvents))
	for _, event := range changeEvents {
		offs = append(offs, s.emitter.On(event, wrapped))
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

// SubscribeToKey registers listener for changes of a single key. The listener
// runs only when the value under key differs before and after a change.
func (s *Store) SubscribeToKey(key string, listener KeyListener) func() {
	if listener == nil {
		return func() {}
	}
	return s.emitter.On(keyEvent(key), func(payload any) error {
		if kc, ok := payload.(keyChange); ok {
			listener(kc.actionType, kc.next, kc.prev)
		}
		return nil
	})
}

// On registers listener for a raw store event such as EventError,
// EventDestroyed or EventStateCleared.
func (s *Store) On(event string, listener events.Listener) func() {
	return s.emitter.On(event, listener)
}

func (s *Store) notify(event, actionType string, payload any, action *Action, prev, next *State) {
	_ = s.emitter.Emit(event, Change{
		Event:     event,
		Type:      actionType,
		Payload:   payload,
		Action:    action,
		PrevState: prev.Map(),
		NextState: next.Map(),
	})

	prevValues, nextValues := prev.mapOrEmpty(), next.mapOrEmpty()
	seen := make(map[string]struct{}, len(nextValues))
	emitKey := func(key string) {
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		if s.emitter.ListenerCount(keyEvent(key)) == 0 {
			return
		}
		pv, nv := prevValues[key], nextValues[key]
		if reflect.DeepEqual(pv, nv) {
			return
		}
		_ = s.emitter.Emit(keyEvent(key), keyChange{
			actionType: actionType,
			next:       cloneValue(nv),
			prev:       cloneValue(pv),
		})
	}
	for key := range nextValues {
		emitKey(key)
	}
	for key := range prevValues {
		emitKey(key)
	}
}

// Undo restores the previous history snapshot. It reports whether the state
// changed; undo is a no-op at the start of the history.
func (s *Store) Undo() bool {
	return s.travel(TypeUndo, (*History).Undo)
}

// Redo restores the next history snapshot. It reports whether the state
// changed; redo is a no-op at the end of the history.
func (s *Store) Redo() bool {
	return s.travel(TypeRedo, (*History).Redo)
}

func (s *Store) travel(actionType string, step func(*History) (*State, bool)) bool {
	s.mu.Lock()
	if s.destroyed || s.dispatching {
		s.mu.Unlock()
		return false
	}
	snapshot, ok := step(s.history)
	if !ok {
		s.mu.Unlock()
		return false
	}
	prev := s.state
	s.state = snapshot
	s.metrics.RecordHistory(s.history.Len(), s.history.Index())
	s.mu.Unlock()

	direction := "undo"
	if actionType == TypeRedo {
		direction = "redo"
	}
	s.metrics.RecordTimeTravel(direction)
	s.notify(EventStateRestored, actionType, nil, nil, prev, snapshot)
	return true
}

// CanUndo reports whether Undo would change the state.
func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

// CanRedo reports whether Redo would change the state.
func (s *Store) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// HistoryInfo summarises the undo history.
type HistoryInfo struct {
	Length  int  `json:"length"`
	Index   int  `json:"index"`
	MaxSize int  `json:"maxSize"`
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
}

// History returns a summary of the undo history.
func (s *Store) History() HistoryInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return HistoryInfo{
		Length:  s.history.Len(),
		Index:   s.history.Index(),
		MaxSize: s.history.MaxSize(),
		CanUndo: s.history.CanUndo(),
		CanRedo: s.history.CanRedo(),
	}
}

// Snapshot returns a copy of the history snapshot at index i.
func (s *Store) Snapshot(i int) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.SnapshotAt(i)
}

// Reset replaces the state with initial and discards the history.
func (s *Store) Reset(initial map[string]any) error {
	next := NewState(initial)

	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ErrStoreDestroyed
	}
	prev := s.state
	s.state = next
	s.history.Reset()
	s.metrics.RecordHistory(0, -1)
	s.mu.Unlock()

	s.notify(EventStateReset, TypeReset, nil, nil, prev, next)
	return nil
}

// Destroy clears subscriptions, reducers, middleware, state and history.
// Listeners receive a final "destroyed" event. The store rejects every
// further dispatch.
func (s *Store) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	s.state = NewState(nil)
	s.history.Reset()
	s.mu.Unlock()

	_ = s.emitter.Emit(EventDestroyed, nil)
	s.emitter.RemoveAllListeners()
	s.reducers.Clear()
	s.pipeline.Clear()
	s.logger.Debug("store destroyed")
}

// Destroyed reports whether Destroy has been called.
func (s *Store) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}
