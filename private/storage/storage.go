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

// Package storage provides factories for the storage backends of upstreamd.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/upstreamkit/upstreamkit/pkg/log"
	"github.com/upstreamkit/upstreamkit/pkg/metrics"
	"github.com/upstreamkit/upstreamkit/private/config"
	"github.com/upstreamkit/upstreamkit/private/periodic"
	"github.com/upstreamkit/upstreamkit/private/storage/db"
	upstreamstorage "github.com/upstreamkit/upstreamkit/private/storage/upstream"
	sqliteupstreamdb "github.com/upstreamkit/upstreamkit/private/storage/upstream/sqlite"
)

// Backend indicates the database backend type.
type Backend string

const (
	// BackendSqlite indicates an sqlite backend.
	BackendSqlite Backend = "sqlite"
	// DefaultPath is the default connection string of the upstream database.
	DefaultPath = "/share/upstreamd.db"

	checkpointInterval = 5 * time.Minute
)

// UpstreamDB is the upstream store used by upstreamd.
type UpstreamDB interface {
	io.Closer
	upstreamstorage.DB
}

var _ config.Config = (*DBConfig)(nil)

// DBConfig is the configuration for the connection to a database.
type DBConfig struct {
	Connection   string `toml:"connection,omitempty"`
	MaxOpenConns int    `toml:"max_open_conns,omitempty"`
	MaxIdleConns int    `toml:"max_idle_conns,omitempty"`
}

// InitDefaults sets the default connection.
func (cfg *DBConfig) InitDefaults() {
	if cfg.Connection == "" {
		cfg.Connection = DefaultPath
	}
}

// Validate checks the configuration.
func (cfg *DBConfig) Validate() error {
	return nil
}

// Sample writes a config sample to the writer.
func (cfg *DBConfig) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, dbSample)
}

// ConfigName is the key in the toml file.
func (cfg *DBConfig) ConfigName() string {
	return "db"
}

const dbSample = `
# The connection string of the sqlite database. (default "/share/upstreamd.db")
connection = "/share/upstreamd.db"

# The maximum number of open read connections. 0 keeps the backend default.
# (default 0)
max_open_conns = 0

# The maximum number of idle read connections. 0 keeps the backend default.
# (default 0)
max_idle_conns = 0
`

// SetConnLimits sets the maximum number of open and idle connections. Limits
// of 0 keep the default.
func SetConnLimits(d db.LimitSetter, c DBConfig) {
	if c.MaxOpenConns != 0 {
		d.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns != 0 {
		d.SetMaxIdleConns(c.MaxIdleConns)
	}
}

// CheckpointMetrics are the metrics of the WAL checkpoint task.
type CheckpointMetrics struct {
	ErrorsTotal       metrics.Counter
	CheckpointedTotal metrics.Counter
}

// NewUpstreamStorage opens the upstream database and starts a task that
// periodically checkpoints its write-ahead log. Close stops the task.
func NewUpstreamStorage(c DBConfig, m CheckpointMetrics) (UpstreamDB, error) {
	log.Info("Connecting UpstreamDB", "backend", BackendSqlite, "connection", c.Connection)
	backend, err := sqliteupstreamdb.New(c.Connection)
	if err != nil {
		return nil, err
	}
	SetConnLimits(backend, c)

	runner := periodic.Start(
		&checkpointer{checkpoint: backend.Checkpoint, metrics: m},
		checkpointInterval,
		checkpointInterval,
	)
	return upstreamDBWithCheckpointer{UpstreamDB: backend, runner: runner}, nil
}

type upstreamDBWithCheckpointer struct {
	UpstreamDB
	runner *periodic.Runner
}

func (b upstreamDBWithCheckpointer) Close() error {
	b.runner.Kill()
	return b.UpstreamDB.Close()
}

var _ periodic.Task = (*checkpointer)(nil)

type checkpointer struct {
	checkpoint func(context.Context) (db.CheckpointStats, error)
	metrics    CheckpointMetrics
}

func (c *checkpointer) Name() string {
	return "upstreamdb_checkpointer"
}

func (c *checkpointer) Run(ctx context.Context) {
	logger := log.FromCtx(ctx)
	stats, err := c.checkpoint(ctx)
	if err != nil {
		logger.Error("Failed to checkpoint upstream database", "err", err)
		metrics.CounterInc(c.metrics.ErrorsTotal)
		return
	}
	// sqlite reports -1 frames if the database is not in WAL mode.
	if stats.Checkpointed > 0 {
		logger.Debug("Checkpointed upstream database", "frames", stats.Checkpointed,
			"busy", stats.Busy)
		metrics.CounterAdd(c.metrics.CheckpointedTotal, float64(stats.Checkpointed))
	}
}
