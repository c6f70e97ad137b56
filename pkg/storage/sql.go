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
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLConfig configures the database/sql backend.
type SQLConfig struct {
	// Driver is the database/sql driver name (sqlite3 or postgres).
	Driver string `mapstructure:"driver" json:"driver" yaml:"driver"`

	// DSN is the data source name passed to sql.Open.
	DSN string `mapstructure:"dsn" json:"dsn" yaml:"dsn"`

	// Table holds the slots. Default: "scribe_slots"
	Table string `mapstructure:"table" json:"table" yaml:"table"`
}

// SQLStorage stores slots in a single table:
//
//	slot VARCHAR(255) PRIMARY KEY, data TEXT, updated_at TIMESTAMP
//
// The driver's binary is linked by the caller, e.g. with a blank import of
// github.com/mattn/go-sqlite3 or github.com/lib/pq.
type SQLStorage struct {
	db     *sql.DB
	table  string
	driver string
	ownsDB bool

	mu     sync.RWMutex
	closed bool

	getQuery    string
	upsertQuery string
	deleteQuery string
}

// OpenSQLStorage opens a database from config and prepares the table.
func OpenSQLStorage(config *SQLConfig) (*SQLStorage, error) {
	if config == nil || config.Driver == "" || config.DSN == "" {
		return nil, errors.New("sql storage requires driver and dsn")
	}
	db, err := sql.Open(config.Driver, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", config.Driver, err)
	}
	if config.Driver == DriverSQLite {
		// every sqlite connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	s, err := NewSQLStorage(db, config.Driver, config.Table)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// NewSQLStorage uses an existing connection pool. The pool is not closed by Close.
func NewSQLStorage(db *sql.DB, driver, table string) (*SQLStorage, error) {
	if db == nil {
		return nil, errors.New("database connection is required")
	}
	if table == "" {
		table = "scribe_slots"
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	s := &SQLStorage{db: db, table: table, driver: driver}
	switch driver {
	case DriverPostgres:
		s.getQuery = fmt.Sprintf("SELECT data FROM %s WHERE slot = $1", table)
		s.upsertQuery = fmt.Sprintf(`INSERT INTO %s (slot, data, updated_at) VALUES ($1, $2, $3)
			ON CONFLICT (slot) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`, table)
		s.deleteQuery = fmt.Sprintf("DELETE FROM %s WHERE slot = $1", table)
	case DriverSQLite:
		s.getQuery = fmt.Sprintf("SELECT data FROM %s WHERE slot = ?", table)
		s.upsertQuery = fmt.Sprintf(`INSERT INTO %s (slot, data, updated_at) VALUES (?, ?, ?)
			ON CONFLICT (slot) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`, table)
		s.deleteQuery = fmt.Sprintf("DELETE FROM %s WHERE slot = ?", table)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: sqlite3, postgres)", driver)
	}

	if err := s.initTable(); err != nil {
		return nil, fmt.Errorf("failed to initialize table: %w", err)
	}
	return s, nil
}

// initTable creates the slot table if it doesn't exist
func (s *SQLStorage) initTable() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			slot VARCHAR(255) PRIMARY KEY,
			data TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`, s.table)

	_, err := s.db.Exec(query)
	return err
}

// Get reads the slot row.
func (s *SQLStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	var data string
	err := s.db.QueryRowContext(ctx, s.getQuery, key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read slot %q: %w", key, err)
	}
	return []byte(data), nil
}

// Set inserts or replaces the slot row.
func (s *SQLStorage) Set(ctx context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if _, err := s.db.ExecContext(ctx, s.upsertQuery, key, string(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write slot %q: %w", key, err)
	}
	return nil
}

// Delete removes the slot row.
func (s *SQLStorage) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if _, err := s.db.ExecContext(ctx, s.deleteQuery, key); err != nil {
		return fmt.Errorf("failed to delete slot %q: %w", key, err)
	}
	return nil
}

// Close closes the connection pool if the backend opened it.
func (s *SQLStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}
