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
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerConfig configures the embedded BadgerDB backend.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps all data in memory.
	InMemory bool

	// TTL expires slots. Zero keeps them forever.
	TTL time.Duration
}

// BadgerStorage stores slots in an embedded BadgerDB.
type BadgerStorage struct {
	db  *badger.DB
	ttl time.Duration
}

// NewBadgerStorage opens the database described by config.
func NewBadgerStorage(config BadgerConfig) (*BadgerStorage, error) {
	var opts badger.Options
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if config.Path == "" {
			return nil, errors.New("badger storage path cannot be empty")
		}
		opts = badger.DefaultOptions(config.Path)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &BadgerStorage{db: db, ttl: config.TTL}, nil
}

// Get reads the slot value.
func (b *BadgerStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}

	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			return nil, ErrNotFound
		case errors.Is(err, badger.ErrDBClosed):
			return nil, ErrClosed
		}
		return nil, fmt.Errorf("badger get %q: %w", key, err)
	}
	return data, nil
}

// Set writes the slot value.
func (b *BadgerStorage) Set(ctx context.Context, key string, value []byte) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := validateKey(key); err != nil {
		return err
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value)
		if b.ttl > 0 {
			entry = entry.WithTTL(b.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		if errors.Is(err, badger.ErrDBClosed) {
			return ErrClosed
		}
		return fmt.Errorf("badger set %q: %w", key, err)
	}
	return nil
}

// Delete removes the slot.
func (b *BadgerStorage) Delete(ctx context.Context, key string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := validateKey(key); err != nil {
		return err
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		if errors.Is(err, badger.ErrDBClosed) {
			return ErrClosed
		}
		return fmt.Errorf("badger delete %q: %w", key, err)
	}
	return nil
}

// Close closes the database.
func (b *BadgerStorage) Close() error {
	if b.db.IsClosed() {
		return nil
	}
	return b.db.Close()
}
