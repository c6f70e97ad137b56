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
	"errors"
	"fmt"
)

// Common errors returned by Store operations.
var (
	// ErrNoReducer is returned by Dispatch when no reducer is registered for
	// the action type. The dispatch is a no-op.
	ErrNoReducer = errors.New("no reducer registered for action type")

	// ErrNilAction is reported when a middleware produces an action without a type.
	ErrNilAction = errors.New("middleware returned an empty action")

	// ErrNilState is reported when a reducer returns a nil state.
	ErrNilState = errors.New("reducer returned a nil state")

	// ErrDispatchInProgress is returned when Dispatch is called while another
	// dispatch is still running middleware or a reducer.
	ErrDispatchInProgress = errors.New("dispatch already in progress")

	// ErrStoreDestroyed is returned by operations on a destroyed store.
	ErrStoreDestroyed = errors.New("store is destroyed")

	// ErrNoStorage is returned by persistence operations when the store was
	// created without a storage backend.
	ErrNoStorage = errors.New("no storage configured")

	// ErrSnapshotNotFound is returned by LoadPersisted when the slot is empty.
	ErrSnapshotNotFound = errors.New("persisted snapshot not found")

	// ErrCorruptSnapshot is returned by LoadPersisted when the slot holds data
	// that cannot be restored.
	ErrCorruptSnapshot = errors.New("persisted snapshot is corrupt")

	// ErrInvalidHistoryIndex is returned when restoring a history with an index
	// outside of its snapshots.
	ErrInvalidHistoryIndex = errors.New("history index out of range")
)

// Stage identifies where in the dispatch pipeline a failure happened.
type Stage string

const (
	// StageMiddleware marks failures raised by middleware.
	StageMiddleware Stage = "middleware"
	// StageReducer marks failures raised by a reducer.
	StageReducer Stage = "reducer"
)

// DispatchError is returned by Dispatch, and carried by the "error" event,
// when middleware or a reducer fails.
type DispatchError struct {
	// Action is the action as it was passed to Dispatch.
	Action Action
	// Stage is the pipeline stage that failed.
	Stage Stage
	// Middleware is the name of the failing middleware, if Stage is StageMiddleware.
	Middleware string
	Err        error
}

func (e *DispatchError) Error() string {
	if e.Middleware != "" {
		return fmt.Sprintf("dispatch %q: %s %q: %v", e.Action.Type, e.Stage, e.Middleware, e.Err)
	}
	return fmt.Sprintf("dispatch %q: %s: %v", e.Action.Type, e.Stage, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// recovered converts a recovered panic value into an error.
func recovered(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
