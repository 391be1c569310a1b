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

// Package dbtest contains a conformance test suite for upstream stores.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upstreamkit/upstreamkit/pkg/upstream"
	"github.com/upstreamkit/upstreamkit/private/storage/db"
	upstreamstorage "github.com/upstreamkit/upstreamkit/private/storage/upstream"
)

const timeout = 3 * time.Second

// TestableDB extends the upstream DB interface with methods that are needed
// for testing.
type TestableDB interface {
	upstreamstorage.DB
	// Prepare should reset the internal state so that the DB is empty and is
	// ready to be tested.
	Prepare(t *testing.T, ctx context.Context)
}

// TestDB runs the conformance tests against db.
func TestDB(t *testing.T, db TestableDB) {
	tests := map[string]func(*testing.T, context.Context, upstreamstorage.DB){
		"insert and get":       testInsertGet,
		"insert replaces":      testInsertReplaces,
		"insert validates":     testInsertValidates,
		"delete":               testDelete,
		"list":                 testList,
		"load filters weights": testLoad,
		"types":                testTypes,
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			db.Prepare(t, ctx)
			test(t, ctx, db)
		})
	}
}

func newUpstream(id, group string, weight float64) upstream.Upstream {
	return upstream.Upstream{
		ID:       upstream.ID(id),
		Type:     group,
		Host:     id + ".example.com",
		Interval: upstream.DefaultInterval,
		Weight:   weight,
	}
}

func insert(t *testing.T, ctx context.Context, d upstreamstorage.DB, us ...upstream.Upstream) {
	t.Helper()
	for _, u := range us {
		require.NoError(t, d.InsertUpstream(ctx, u))
	}
}

func ids(us []upstream.Upstream) []upstream.ID {
	var result []upstream.ID
	for _, u := range us {
		result = append(result, u.ID)
	}
	return result
}

func testInsertGet(t *testing.T, ctx context.Context, d upstreamstorage.DB) {
	u := upstream.Upstream{
		ID:       "a",
		Type:     "search",
		Host:     "https://search.example.com",
		Path:     "/v1/query",
		Headers:  map[string]string{"User-Agent": "upstreamd"},
		Query:    map[string]string{"format": "json"},
		Auth:     map[string]string{"token": "secret"},
		Interval: 0.5,
		Weight:   2,
	}
	insert(t, ctx, d, u)
	got, err := d.GetUpstream(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, u, got)

	_, err = d.GetUpstream(ctx, "missing")
	assert.ErrorIs(t, err, db.ErrNotFound)

	// An unset interval is stored as the default.
	insert(t, ctx, d, upstream.Upstream{ID: "b", Type: "search", Host: "b", Weight: 1})
	got, err = d.GetUpstream(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, upstream.DefaultInterval, got.Interval)
}

func testInsertReplaces(t *testing.T, ctx context.Context, d upstreamstorage.DB) {
	insert(t, ctx, d,
		newUpstream("a", "search", 1),
		newUpstream("b", "search", 1),
	)
	replaced := newUpstream("a", "search", 5)
	replaced.Host = "moved.example.com"
	insert(t, ctx, d, replaced)

	got, err := d.ListUpstreams(ctx, "search")
	require.NoError(t, err)
	assert.Equal(t, []upstream.ID{"a", "b"}, ids(got))
	assert.Equal(t, replaced, got[0])
}

func testInsertValidates(t *testing.T, ctx context.Context, d upstreamstorage.DB) {
	testCases := map[string]func(*upstream.Upstream){
		"missing id":       func(u *upstream.Upstream) { u.ID = "" },
		"missing type":     func(u *upstream.Upstream) { u.Type = "" },
		"missing host":     func(u *upstream.Upstream) { u.Host = "" },
		"interval too low": func(u *upstream.Upstream) { u.Interval = 0.0001 },
		"negative weight":  func(u *upstream.Upstream) { u.Weight = -1 },
	}
	for name, modify := range testCases {
		t.Run(name, func(t *testing.T) {
			u := newUpstream("a", "search", 1)
			modify(&u)
			err := d.InsertUpstream(ctx, u)
			assert.ErrorIs(t, err, db.ErrInvalidInputData)
		})
	}
	all, err := d.ListUpstreams(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testDelete(t *testing.T, ctx context.Context, d upstreamstorage.DB) {
	insert(t, ctx, d, newUpstream("a", "search", 1))
	require.NoError(t, d.DeleteUpstream(ctx, "a"))
	_, err := d.GetUpstream(ctx, "a")
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.ErrorIs(t, d.DeleteUpstream(ctx, "a"), db.ErrNotFound)
}

func testList(t *testing.T, ctx context.Context, d upstreamstorage.DB) {
	insert(t, ctx, d,
		newUpstream("c", "search", 1),
		newUpstream("a", "index", 1),
		newUpstream("b", "search", 0),
	)
	search, err := d.ListUpstreams(ctx, "search")
	require.NoError(t, err)
	assert.Equal(t, []upstream.ID{"c", "b"}, ids(search))

	all, err := d.ListUpstreams(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []upstream.ID{"c", "a", "b"}, ids(all))

	none, err := d.ListUpstreams(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testLoad(t *testing.T, ctx context.Context, d upstreamstorage.DB) {
	insert(t, ctx, d,
		newUpstream("a", "search", 0),
		newUpstream("b", "search", 0.5),
		newUpstream("c", "index", 1),
		newUpstream("d", "search", 2),
	)
	got, err := d.Load(ctx, "search")
	require.NoError(t, err)
	assert.Equal(t, []upstream.ID{"b", "d"}, ids(got))
}

func testTypes(t *testing.T, ctx context.Context, d upstreamstorage.DB) {
	types, err := d.Types(ctx)
	require.NoError(t, err)
	assert.Empty(t, types)

	insert(t, ctx, d,
		newUpstream("a", "search", 1),
		newUpstream("b", "index", 1),
		newUpstream("c", "search", 0),
	)
	types, err = d.Types(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"index", "search"}, types)
}
