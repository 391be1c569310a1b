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

// Package sqlite implements the upstream store on top of sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math"

	"github.com/upstreamkit/upstreamkit/pkg/upstream"
	"github.com/upstreamkit/upstreamkit/private/storage/db"
	upstreamstorage "github.com/upstreamkit/upstreamkit/private/storage/upstream"
)

var _ upstreamstorage.DB = (*Backend)(nil)
var _ upstream.Loader = (*Backend)(nil)

// Backend is the sqlite upstream store.
type Backend struct {
	*db.Sqlite
}

// New opens the database at path. A new database is created if none exists.
// If the schema version of an existing database differs from SchemaVersion,
// an error is returned.
func New(path string) (*Backend, error) {
	return open(path, nil)
}

func open(path string, cfg *db.SqliteConfig) (*Backend, error) {
	sdb, err := db.NewSqlite(path, cfg)
	if err != nil {
		return nil, err
	}
	if err := sdb.Setup(Schema, SchemaVersion); err != nil {
		_ = sdb.Close()
		return nil, err
	}
	return &Backend{Sqlite: sdb}, nil
}

// InsertUpstream inserts u or replaces the upstream with the same ID. An unset
// interval is stored as upstream.DefaultInterval.
func (b *Backend) InsertUpstream(ctx context.Context, u upstream.Upstream) error {
	if u.Interval == 0 {
		u.Interval = upstream.DefaultInterval
	}
	if err := validate(u); err != nil {
		return err
	}
	headers, err := encodeMap(u.Headers)
	if err != nil {
		return db.NewInputDataError("encoding headers", err, "id", u.ID)
	}
	query, err := encodeMap(u.Query)
	if err != nil {
		return db.NewInputDataError("encoding query", err, "id", u.ID)
	}
	auth, err := encodeMap(u.Auth)
	if err != nil {
		return db.NewInputDataError("encoding auth", err, "id", u.ID)
	}
	const stmt = `
		INSERT INTO Upstreams (ID, Type, Host, Path, Headers, Query, Auth, Interval, Weight)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ID) DO UPDATE SET
			Type = excluded.Type,
			Host = excluded.Host,
			Path = excluded.Path,
			Headers = excluded.Headers,
			Query = excluded.Query,
			Auth = excluded.Auth,
			Interval = excluded.Interval,
			Weight = excluded.Weight`
	_, err = b.Full.ExecContext(ctx, stmt, string(u.ID), u.Type, u.Host, u.Path,
		headers, query, auth, u.Interval, u.Weight)
	if err != nil {
		return db.NewWriteError("inserting upstream", err, "id", u.ID)
	}
	return nil
}

// DeleteUpstream deletes the upstream with the given ID.
func (b *Backend) DeleteUpstream(ctx context.Context, id upstream.ID) error {
	res, err := b.Full.ExecContext(ctx, `DELETE FROM Upstreams WHERE ID = ?`, string(id))
	if err != nil {
		return db.NewWriteError("deleting upstream", err, "id", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return db.NewWriteError("deleting upstream", err, "id", id)
	}
	if n == 0 {
		return db.NewNotFoundError("deleting upstream", "id", id)
	}
	return nil
}

// GetUpstream returns the upstream with the given ID.
func (b *Backend) GetUpstream(ctx context.Context, id upstream.ID) (upstream.Upstream, error) {
	row := b.ReadOnly.QueryRowContext(ctx,
		`SELECT `+columns+` FROM Upstreams WHERE ID = ?`, string(id))
	u, err := scanUpstream(row)
	if errors.Is(err, sql.ErrNoRows) {
		return upstream.Upstream{}, db.NewNotFoundError("getting upstream", "id", id)
	}
	return u, err
}

// ListUpstreams returns the upstreams of the given type in insertion order. An
// empty type lists all upstreams.
func (b *Backend) ListUpstreams(ctx context.Context,
	group string) ([]upstream.Upstream, error) {

	if group == "" {
		return b.query(ctx, `SELECT `+columns+` FROM Upstreams ORDER BY RowID`)
	}
	return b.query(ctx,
		`SELECT `+columns+` FROM Upstreams WHERE Type = ? ORDER BY RowID`, group)
}

// Load returns the upstreams of the given type with a positive weight in
// insertion order.
func (b *Backend) Load(ctx context.Context, group string) ([]upstream.Upstream, error) {
	return b.query(ctx,
		`SELECT `+columns+` FROM Upstreams WHERE Type = ? AND Weight > 0 ORDER BY RowID`,
		group)
}

// Types returns the sorted set of types.
func (b *Backend) Types(ctx context.Context) ([]string, error) {
	rows, err := b.ReadOnly.QueryContext(ctx,
		`SELECT DISTINCT Type FROM Upstreams ORDER BY Type`)
	if err != nil {
		return nil, db.NewReadError("selecting types", err)
	}
	defer rows.Close()
	var types []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, db.NewReadError("scanning types", err)
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, db.NewReadError("iterating types", err)
	}
	return types, nil
}

const columns = `ID, Type, Host, Path, Headers, Query, Auth, Interval, Weight`

func (b *Backend) query(ctx context.Context, query string,
	args ...any) ([]upstream.Upstream, error) {

	rows, err := b.ReadOnly.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, db.NewReadError("selecting upstreams", err)
	}
	defer rows.Close()
	var result []upstream.Upstream
	for rows.Next() {
		u, err := scanUpstream(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, db.NewReadError("iterating upstreams", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUpstream(s scanner) (upstream.Upstream, error) {
	var (
		u                    upstream.Upstream
		id                   string
		headers, query, auth string
	)
	err := s.Scan(&id, &u.Type, &u.Host, &u.Path, &headers, &query, &auth,
		&u.Interval, &u.Weight)
	if errors.Is(err, sql.ErrNoRows) {
		return upstream.Upstream{}, err
	}
	if err != nil {
		return upstream.Upstream{}, db.NewReadError("scanning upstream", err)
	}
	u.ID = upstream.ID(id)
	if u.Headers, err = decodeMap(headers); err != nil {
		return upstream.Upstream{}, db.NewDataError("decoding headers", err, "id", id)
	}
	if u.Query, err = decodeMap(query); err != nil {
		return upstream.Upstream{}, db.NewDataError("decoding query", err, "id", id)
	}
	if u.Auth, err = decodeMap(auth); err != nil {
		return upstream.Upstream{}, db.NewDataError("decoding auth", err, "id", id)
	}
	return u, nil
}

func validate(u upstream.Upstream) error {
	switch {
	case u.ID == "":
		return db.NewInputDataError("missing id", nil)
	case u.Type == "":
		return db.NewInputDataError("missing type", nil, "id", u.ID)
	case u.Host == "":
		return db.NewInputDataError("missing host", nil, "id", u.ID)
	case math.IsNaN(u.Interval) || u.Interval < upstream.DefaultInterval:
		return db.NewInputDataError("interval too small", nil,
			"id", u.ID, "interval", u.Interval, "min", upstream.DefaultInterval)
	case math.IsNaN(u.Weight) || math.IsInf(u.Weight, 0) || u.Weight < 0:
		return db.NewInputDataError("invalid weight", nil, "id", u.ID, "weight", u.Weight)
	}
	return nil
}

func encodeMap(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(m)
	return string(raw), err
}

// decodeMap returns nil for empty maps so that upstreams round trip.
func decodeMap(raw string) (map[string]string, error) {
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, nil
	}
	return m, nil
}
