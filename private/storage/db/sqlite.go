// Copyright 2025 The upstreamkit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package db contains the sqlite plumbing shared by storage backends.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"runtime"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // sqlite driver
)

// Reader is the read-only part of *sql.DB.
type Reader interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Stats() sql.DBStats
}

// LimitSetter sets connection limits.
type LimitSetter interface {
	SetMaxOpenConns(n int)
	SetMaxIdleConns(n int)
}

// SqliteConfig configures the connection pools of a Sqlite database.
type SqliteConfig struct {
	// MaxOpenReadConns defaults to max(4, NumCPU).
	MaxOpenReadConns int
	MaxIdleReadConns int
	// InMemory opens a named shared-cache memory database. Used in tests.
	InMemory bool
}

// Sqlite is a database with a single writer connection and a pool of reader
// connections.
type Sqlite struct {
	Full     *sql.DB
	ReadOnly Reader
}

// NewSqlite opens the database at path.
func NewSqlite(path string, cfg *SqliteConfig) (*Sqlite, error) {
	var c SqliteConfig
	if cfg != nil {
		c = *cfg
	}
	// A shared ":memory:" database would be reachable by several writers.
	if strings.Contains(path, ":memory:") {
		return nil, errors.New("use explicitly named memory database")
	}
	noFile, hasScheme := strings.CutPrefix(path, "file:")

	params := make(url.Values)
	// Write transactions take the lock up front so that busy_timeout applies.
	params.Add("_txlock", "immediate")
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "busy_timeout(1000)")
	params.Add("_pragma", "synchronous(NORMAL)")
	params.Add("_pragma", "foreign_keys(1)")
	if c.InMemory {
		registerMemoryDB(noFile)
		params.Add("mode", "memory")
		params.Add("cache", "shared")
	}
	dsn := path + "?" + params.Encode()
	if !hasScheme {
		dsn = "file:" + dsn
	}

	write, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening write database: %w", err)
	}
	write.SetMaxOpenConns(1)

	read, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = write.Close()
		return nil, fmt.Errorf("opening read database: %w", err)
	}
	if c.MaxOpenReadConns == 0 {
		c.MaxOpenReadConns = max(4, runtime.NumCPU())
	}
	read.SetMaxOpenConns(c.MaxOpenReadConns)
	if c.MaxIdleReadConns != 0 {
		read.SetMaxIdleConns(c.MaxIdleReadConns)
	}

	db := &Sqlite{Full: write, ReadOnly: read}
	if c.InMemory {
		runtime.AddCleanup(db, unregisterMemoryDB, noFile)
	}
	return db, nil
}

// Setup applies schema to an empty database and records schemaVersion. A
// database with a different version is an error.
func (db *Sqlite) Setup(schema string, schemaVersion int) error {
	var existing int
	if err := db.Full.QueryRow("PRAGMA user_version;").Scan(&existing); err != nil {
		return fmt.Errorf("checking database schema version: %w", err)
	}
	switch existing {
	case 0:
		if _, err := db.Full.Exec(schema); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
		if _, err := db.Full.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("writing schema version: %w", err)
		}
		return nil
	case schemaVersion:
		return nil
	default:
		return fmt.Errorf("database schema version mismatch: expected %d, have %d",
			schemaVersion, existing)
	}
}

// SetMaxOpenConns limits the reader pool. The writer always has one connection.
func (db *Sqlite) SetMaxOpenConns(n int) {
	db.ReadOnly.(*sql.DB).SetMaxOpenConns(n)
}

// SetMaxIdleConns limits the idle connections of the reader pool.
func (db *Sqlite) SetMaxIdleConns(n int) {
	db.ReadOnly.(*sql.DB).SetMaxIdleConns(n)
}

// CheckpointStats are the counters reported by a WAL checkpoint.
type CheckpointStats struct {
	// Busy is the number of frames not checkpointed due to active readers.
	Busy int
	// LogFrames is the total number of frames in the WAL.
	LogFrames int
	// Checkpointed is the number of frames moved into the database.
	Checkpointed int
}

// Checkpoint runs a FULL WAL checkpoint on the writer.
func (db *Sqlite) Checkpoint(ctx context.Context) (CheckpointStats, error) {
	var s CheckpointStats
	err := db.Full.QueryRowContext(ctx, "PRAGMA wal_checkpoint(FULL);").
		Scan(&s.Busy, &s.LogFrames, &s.Checkpointed)
	if err != nil {
		return CheckpointStats{}, fmt.Errorf("performing checkpoint: %w", err)
	}
	return s, nil
}

// Close closes both connection pools.
func (db *Sqlite) Close() error {
	var errs []error
	if err := db.Full.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing write db: %w", err))
	}
	if err := db.ReadOnly.(*sql.DB).Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing read db: %w", err))
	}
	return errors.Join(errs...)
}

// memoryDBs guards against two tests opening the same named memory database.
var memoryDBs = struct {
	mtx   sync.Mutex
	names map[string]struct{}
}{
	names: make(map[string]struct{}),
}

func registerMemoryDB(name string) {
	memoryDBs.mtx.Lock()
	defer memoryDBs.mtx.Unlock()
	if _, ok := memoryDBs.names[name]; ok {
		panic(fmt.Sprintf("memory database with name %s already exists", name))
	}
	memoryDBs.names[name] = struct{}{}
}

func unregisterMemoryDB(name string) {
	memoryDBs.mtx.Lock()
	defer memoryDBs.mtx.Unlock()
	delete(memoryDBs.names, name)
}
