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

// Package storage provides durable key-value backends for persisted store
// snapshots.
//
// Every backend implements Storage, a minimal slot-oriented interface: a slot
// name maps to an opaque byte value. The state store writes one JSON document
// per slot.
//
// # Available Backends
//
//   - Memory: map guarded by a mutex, with an optional byte quota. Suitable
//     for tests and for sessions that do not need to survive a restart.
//   - File: one file per slot in a directory, written atomically.
//   - Redis: go-redis client in standalone, cluster or sentinel mode, with a
//     key prefix and an optional TTL.
//   - SQL: a single table accessed through database/sql. The sqlite3 and
//     postgres drivers are supported.
//   - Badger: embedded BadgerDB, on disk or fully in memory.
//
// Use New to build a backend from a Config:
//
//	st, err := storage.New(storage.Config{Type: storage.TypeFile, Path: "./slots"})
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
// # Error Handling
//
// Backends report a missing slot with ErrNotFound, an invalid slot name with
// ErrInvalidKey, use after Close with ErrClosed and a full memory backend with
// ErrQuotaExceeded. Other failures are wrapped with context.
package storage
