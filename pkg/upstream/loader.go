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

package upstream

import (
	"context"
)

// LoadFunc returns the candidate upstreams of a single pool. It is called
// again every time the cache expires. The order of the result defines the
// iteration order of the weighted draw.
type LoadFunc func(ctx context.Context) ([]Upstream, error)

// Loader loads the candidate upstreams of a type.
type Loader interface {
	Load(ctx context.Context, group string) ([]Upstream, error)
}

// LoaderFunc is a function adapter for the Loader interface.
type LoaderFunc func(ctx context.Context, group string) ([]Upstream, error)

// Load calls f(ctx, group).
func (f LoaderFunc) Load(ctx context.Context, group string) ([]Upstream, error) {
	return f(ctx, group)
}
