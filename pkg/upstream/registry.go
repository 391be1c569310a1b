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
	"sort"
	"sync"

	"github.com/upstreamkit/upstreamkit/pkg/log"
)

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithDefaults sets the configuration of pools that have no override. It
// defaults to DefaultPoolConfig.
func WithDefaults(cfg PoolConfig) RegistryOption {
	return func(r *Registry) {
		r.defaults = cfg
	}
}

// WithInit sets a hook that is called once per type, before its pool is
// created. The returned override is applied over the defaults.
func WithInit(init func(group string) PoolOverride) RegistryOption {
	return func(r *Registry) {
		r.init = init
	}
}

// WithRegistryMetrics sets the metrics shared by all pools.
func WithRegistryMetrics(m Metrics) RegistryOption {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithRegistryLogger sets the logger of the registry and its pools.
func WithRegistryLogger(logger log.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// Registry keeps one Pool per type. Pools are created on first use and kept
// for the lifetime of the registry.
type Registry struct {
	loader   Loader
	defaults PoolConfig
	init     func(group string) PoolOverride
	metrics  Metrics
	logger   log.Logger

	mtx   sync.RWMutex
	pools map[string]*Pool
}

// NewRegistry creates a registry that loads the upstreams of a type with
// loader.
func NewRegistry(loader Loader, opts ...RegistryOption) *Registry {
	r := &Registry{
		loader:   loader,
		defaults: DefaultPoolConfig(),
		logger:   log.Root(),
		pools:    make(map[string]*Pool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sample selects an upstream of the given type. See Pool.Sample.
func (r *Registry) Sample(ctx context.Context, group string, hint *Hint) (Upstream, error) {
	return r.pool(group).Sample(ctx, hint)
}

// Succeed reports a successful request to u. It is a no-op if no upstream of
// u's type was sampled yet.
func (r *Registry) Succeed(u Upstream) {
	if p, ok := r.Pool(u.Type); ok {
		p.Succeed(u.ID)
	}
}

// Fail reports a failed request to u. It is a no-op if no upstream of u's
// type was sampled yet.
func (r *Registry) Fail(u Upstream) {
	if p, ok := r.Pool(u.Type); ok {
		p.Fail(u.ID)
	}
}

// Pool returns the pool of the given type, if it was created.
func (r *Registry) Pool(group string) (*Pool, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	p, ok := r.pools[group]
	return p, ok
}

// Groups returns the sorted types that have a pool.
func (r *Registry) Groups() []string {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	groups := make([]string, 0, len(r.pools))
	for group := range r.pools {
		groups = append(groups, group)
	}
	sort.Strings(groups)
	return groups
}

func (r *Registry) pool(group string) *Pool {
	if p, ok := r.Pool(group); ok {
		return p
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()
	if p, ok := r.pools[group]; ok {
		return p
	}
	cfg := r.defaults
	if r.init != nil {
		cfg = r.init(group).Apply(cfg)
	}
	load := func(ctx context.Context) ([]Upstream, error) {
		return r.loader.Load(ctx, group)
	}
	p := NewPool(load, cfg,
		WithGroup(group),
		WithLogger(r.logger),
		WithMetrics(r.metrics),
	)
	r.pools[group] = p
	r.logger.Info("Created upstream pool", "type", group, "ttl", cfg.TTL,
		"min_failures", cfg.MinFailures, "decay", cfg.Decay)
	return p
}
