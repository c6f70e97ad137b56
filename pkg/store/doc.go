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

// Package store implements the application state store of the scribe editor.
//
// A Store holds an immutable State value and changes it only through
// Dispatch. An action first passes through the registered middleware, in
// registration order, and is then handed to the single reducer registered for
// its type. A reducer that returns a different *State commits: the new state is
// appended to the bounded undo history and subscribers are notified. A reducer
// that returns the state it was given is a no-op and produces neither a
// history entry nor a notification.
//
// Failures inside middleware or reducers, including panics, are caught at the
// dispatch boundary and reported through the "error" event; the state and the
// history keep their pre-dispatch values.
//
// Undo and Redo replay snapshots from the history without running middleware
// or reducers, and notify with the "stateRestored" event so subscribers can
// tell time travel apart from dispatches.
//
// Basic usage:
//
//	s := store.New(map[string]any{"count": 0})
//	s.RegisterReducer("increment", func(st *store.State, a store.Action) (*store.State, error) {
//		n, _ := store.Int(st.Value("count"))
//		return st.With("count", n+1), nil
//	})
//	_ = s.Dispatch(store.Action{Type: "increment"})
//	s.Undo()
//
// A Store can persist its state and history into a storage.Storage slot and
// load it back later (see Persist and LoadPersisted).
package store
