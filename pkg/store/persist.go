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
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/innovationmech/scribe/pkg/storage"
)

// persistedSnapshot is the JSON document written to a storage slot.
type persistedSnapshot struct {
	State        map[string]any   `json:"state"`
	History      []map[string]any `json:"history"`
	HistoryIndex int              `json:"historyIndex"`
	// Timestamp is the save time in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// Persist writes the state, the history and the history index to the slot
// named key. A failure is logged and returned; the store itself is never
// affected by it.
func (s *Store) Persist(ctx context.Context, key string) error {
	if s.storage == nil {
		return ErrNoStorage
	}

	s.mu.Lock()
	snap := persistedSnapshot{
		State:        s.state.Map(),
		History:      make([]map[string]any, 0, s.history.Len()),
		HistoryIndex: s.history.Index(),
		Timestamp:    s.now().UnixMilli(),
	}
	for _, st := range s.history.all() {
		snap.History = append(snap.History, st.Map())
	}
	s.mu.Unlock()

	err := s.persist(ctx, key, snap)
	s.metrics.RecordPersistence("persist", err == nil)
	if err != nil {
		s.logger.Warn("failed to persist state", zap.String("slot", key), zap.Error(err))
		return err
	}
	s.logger.Debug("state persisted", zap.String("slot", key), zap.Int("history", len(snap.History)))
	return nil
}

func (s *Store) persist(ctx context.Context, key string, snap persistedSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := s.storage.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write slot %q: %w", key, err)
	}
	return nil
}

// LoadPersisted replaces the state, the history and the history index with
// the snapshot stored in key and emits "stateLoaded". When the slot is empty
// it returns ErrSnapshotNotFound; when the slot cannot be decoded it returns an
// error wrapping ErrCorruptSnapshot. In both cases the store is unchanged.
//
// Numbers come back as float64.
func (s *Store) LoadPersisted(ctx context.Context, key string) error {
	if s.storage == nil {
		return ErrNoStorage
	}

	state, snapshots, index, err := s.load(ctx, key)
	s.metrics.RecordPersistence("load", err == nil)
	if err != nil {
		if errors.Is(err, ErrSnapshotNotFound) {
			s.logger.Debug("no persisted state", zap.String("slot", key))
		} else {
			s.logger.Warn("failed to load persisted state", zap.String("slot", key), zap.Error(err))
		}
		return err
	}

	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ErrStoreDestroyed
	}
	if s.dispatching {
		s.mu.Unlock()
		return ErrDispatchInProgress
	}
	history := NewHistory(s.history.MaxSize())
	if err := history.Restore(snapshots, index); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	prev := s.state
	s.state = state
	s.history = history
	s.metrics.RecordHistory(history.Len(), history.Index())
	s.mu.Unlock()

	s.notify(EventStateLoaded, TypeLoad, key, nil, prev, state)
	return nil
}

func (s *Store) load(ctx context.Context, key string) (*State, []*State, int, error) {
	data, err := s.storage.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, 0, ErrSnapshotNotFound
		}
		return nil, nil, 0, fmt.Errorf("failed to read slot %q: %w", key, err)
	}

	var snap persistedSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, nil, 0, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if snap.State == nil {
		return nil, nil, 0, fmt.Errorf("%w: missing state", ErrCorruptSnapshot)
	}

	snapshots := make([]*State, 0, len(snap.History))
	for _, values := range snap.History {
		snapshots = append(snapshots, &State{values: nonNil(values)})
	}
	return &State{values: snap.State}, snapshots, snap.HistoryIndex, nil
}

func nonNil(values map[string]any) map[string]any {
	if values == nil {
		return map[string]any{}
	}
	return values
}

// ClearPersisted removes the slot named key and emits "stateCleared" with the
// slot name as payload. The in-memory state is not touched.
func (s *Store) ClearPersisted(ctx context.Context, key string) error {
	if s.storage == nil {
		return ErrNoStorage
	}

	err := s.storage.Delete(ctx, key)
	s.metrics.RecordPersistence("clear", err == nil)
	if err != nil {
		s.logger.Warn("failed to clear persisted state", zap.String("slot", key), zap.Error(err))
		return fmt.Errorf("failed to clear slot %q: %w", key, err)
	}

	_ = s.emitter.Emit(EventStateCleared, key)
	return nil
}
