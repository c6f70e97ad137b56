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

// DefaultMaxHistorySize is the number of snapshots kept when no limit is configured.
const DefaultMaxHistorySize = 50

// History is a bounded, linear undo/redo log of committed state snapshots.
//
// The index points at the snapshot matching the live state. A fresh history
// is empty with index -1; the first recorded snapshot moves it to 0.
// Recording a snapshot after undoing drops every snapshot past the index.
// When the bound is exceeded the oldest snapshot is evicted.
//
// History is not safe for concurrent use; the Store serialises access.
type History struct {
	snapshots []*State
	index     int
	maxSize   int
}

// NewHistory creates an empty history bounded to maxSize snapshots.
// A non-positive maxSize selects DefaultMaxHistorySize.
func NewHistory(maxSize int) *History {
	if maxSize <= 0 {
		maxSize = DefaultMaxHistorySize
	}
	return &History{index: -1, maxSize: maxSize}
}

// Record appends next unless it is structurally equal to prev. It reports
// whether a snapshot was appended.
func (h *History) Record(prev, next *State) bool {
	if prev.Equal(next) {
		return false
	}

	h.snapshots = append(h.snapshots[:h.index+1], next)
	h.index++

	if len(h.snapshots) > h.maxSize {
		h.snapshots[0] = nil
		h.snapshots = h.snapshots[1:]
		h.index--
	}
	return true
}

// Undo steps back one snapshot and returns it.
func (h *History) Undo() (*State, bool) {
	if !h.CanUndo() {
		return nil, false
	}
	h.index--
	return h.snapshots[h.index], true
}

// Redo steps forward one snapshot and returns it.
func (h *History) Redo() (*State, bool) {
	if !h.CanRedo() {
		return nil, false
	}
	h.index++
	return h.snapshots[h.index], true
}

// CanUndo reports whether Undo would move.
func (h *History) CanUndo() bool { return h.index > 0 }

// CanRedo reports whether Redo would move.
func (h *History) CanRedo() bool { return h.index < len(h.snapshots)-1 }

// SnapshotAt returns a copy of the snapshot at index i.
func (h *History) SnapshotAt(i int) (map[string]any, bool) {
	if i < 0 || i >= len(h.snapshots) {
		return nil, false
	}
	return h.snapshots[i].Map(), true
}

// Len returns the number of snapshots.
func (h *History) Len() int { return len(h.snapshots) }

// Index returns the position of the current snapshot, or -1 when empty.
func (h *History) Index() int { return h.index }

// MaxSize returns the snapshot bound.
func (h *History) MaxSize() int { return h.maxSize }

// Reset drops every snapshot.
func (h *History) Reset() {
	h.snapshots = nil
	h.index = -1
}

// Restore replaces the log with snapshots positioned at index. An empty log
// must use index -1. Logs longer than the bound lose their oldest entries.
func (h *History) Restore(snapshots []*State, index int) error {
	if len(snapshots) == 0 {
		if index != -1 {
			return ErrInvalidHistoryIndex
		}
		h.Reset()
		return nil
	}
	if index < 0 || index >= len(snapshots) {
		return ErrInvalidHistoryIndex
	}

	restored := append([]*State(nil), snapshots...)
	if over := len(restored) - h.maxSize; over > 0 {
		restored = restored[over:]
		index -= over
		if index < 0 {
			index = 0
		}
	}
	h.snapshots = restored
	h.index = index
	return nil
}

func (h *History) all() []*State {
	return append([]*State(nil), h.snapshots...)
}
