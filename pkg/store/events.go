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

// Event names emitted by a Store.
const (
	EventStateChanged  = "stateChanged"
	EventStateRestored = "stateRestored"
	EventStateReset    = "stateReset"
	EventStateLoaded   = "stateLoaded"
	EventStateCleared  = "stateCleared"
	EventError         = "error"
	EventDestroyed     = "destroyed"
)

// Pseudo action types reported for changes that did not come from Dispatch.
const (
	TypeUndo  = "@@undo"
	TypeRedo  = "@@redo"
	TypeReset = "@@reset"
	TypeLoad  = "@@load"
)

// changeEvents are the events delivered to global subscribers.
var changeEvents = []string{EventStateChanged, EventStateRestored, EventStateReset, EventStateLoaded}

// Change is the envelope delivered to global subscribers.
type Change struct {
	// Event is one of the state change event names.
	Event string `json:"event"`
	// Type is the reduced action type, or one of the pseudo types.
	Type    string  `json:"type"`
	Payload any     `json:"payload,omitempty"`
	Action  *Action `json:"action,omitempty"`
	// PrevState and NextState are copies owned by the receiver.
	PrevState map[string]any `json:"prevState"`
	NextState map[string]any `json:"nextState"`
}

// ErrorEvent is the payload of the "error" event.
type ErrorEvent struct {
	Action Action
	Err    error
}

// ChangeListener receives every state change.
type ChangeListener func(change Change)

// KeyListener receives changes of a single state key. actionType is the
// reduced action type or one of the pseudo types.
type KeyListener func(actionType string, next, prev any)

type keyChange struct {
	actionType string
	next, prev any
}

func keyEvent(key string) string {
	return EventStateChanged + ":" + key
}
