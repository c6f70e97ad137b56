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

package storage

import (
	"context"
	"sync"
)

// MemoryStorage keeps slots in a map guarded by a read-write mutex.
// Values are copied on the way in and out.
type MemoryStorage struct {
	mu       sync.RWMutex
	slots    map[string][]byte
	size     int
	maxBytes int
	closed   bool
}

// NewMemoryStorage creates an in-memory backend. A positive maxBytes bounds
// the total size of all stored values.
func NewMemoryStorage(maxBytes int) *MemoryStorage {
	return &MemoryStorage{
		slots:    make(map[string][]byte),
		maxBytes: maxBytes,
	}
}

// Get returns a copy of the value stored in key.
func (m *MemoryStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}
	v, ok := m.slots[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value in key.
func (m *MemoryStorage) Set(ctx context.Context, key string, value []byte) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := validateKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	size := m.size - len(m.slots[key]) + len(value)
	if m.maxBytes > 0 && size > m.maxBytes {
		return ErrQuotaExceeded
	}
	m.slots[key] = append([]byte(nil), value...)
	m.size = size
	return nil
}

// Delete removes key.
func (m *MemoryStorage) Delete(ctx context.Context, key string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := validateKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.size -= len(m.slots[key])
	delete(m.slots, key)
	return nil
}

// Size returns the total number of bytes stored.
func (m *MemoryStorage) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size
}

// Close releases the stored values. Further calls fail with ErrClosed.
func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.slots = nil
	m.size = 0
	return nil
}
