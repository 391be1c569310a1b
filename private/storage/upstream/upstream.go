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

// Package upstream defines the interface of the upstream store.
package upstream

import (
	"context"

	"github.com/upstreamkit/upstreamkit/pkg/upstream"
)

// DB stores the registered upstreams.
type DB interface {
	// InsertUpstream inserts u or replaces the upstream with the same ID. A
	// replaced upstream keeps its position in the insertion order.
	InsertUpstream(ctx context.Context, u upstream.Upstream) error
	// DeleteUpstream deletes the upstream with the given ID.
	DeleteUpstream(ctx context.Context, id upstream.ID) error
	// GetUpstream returns the upstream with the given ID.
	GetUpstream(ctx context.Context, id upstream.ID) (upstream.Upstream, error)
	// ListUpstreams returns the upstreams of the given type in insertion
	// order, including those with weight 0. An empty type lists all
	// upstreams.
	ListUpstreams(ctx context.Context, group string) ([]upstream.Upstream, error)
	// Types returns the sorted set of types that have at least one upstream.
	Types(ctx context.Context) ([]string, error)
	// Load returns the upstreams of the given type with a positive weight in
	// insertion order. It implements upstream.Loader.
	Load(ctx context.Context, group string) ([]upstream.Upstream, error)
}
