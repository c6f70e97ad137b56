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

// Action describes an intended state transition. Type selects the reducer and
// Payload carries the transition-specific data.
type Action struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
	// Async marks actions created by CreateAsyncAction. The store does not
	// treat them differently; the flag is for the caller's own bookkeeping.
	Async bool `json:"async,omitempty"`
	// ID optionally correlates the action with logs and change events.
	ID string `json:"id,omitempty"`
}

// ActionCreator builds actions of a fixed type.
type ActionCreator func(payload any) Action

// CreateAction returns a creator for actions of the given type.
func CreateAction(actionType string) ActionCreator {
	return func(payload any) Action {
		return Action{Type: actionType, Payload: payload}
	}
}

// CreateAsyncAction returns a creator for actions of the given type tagged
// with Async.
func CreateAsyncAction(actionType string) ActionCreator {
	return func(payload any) Action {
		return Action{Type: actionType, Payload: payload, Async: true}
	}
}
