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

// Package config contains the configuration of upstreamd.
package config

import (
	"io"
	"sort"

	"github.com/upstreamkit/upstreamkit/pkg/log"
	"github.com/upstreamkit/upstreamkit/pkg/private/serrors"
	"github.com/upstreamkit/upstreamkit/pkg/private/util"
	"github.com/upstreamkit/upstreamkit/pkg/upstream"
	"github.com/upstreamkit/upstreamkit/private/config"
	"github.com/upstreamkit/upstreamkit/private/env"
	api "github.com/upstreamkit/upstreamkit/private/mgmtapi"
	"github.com/upstreamkit/upstreamkit/private/storage"
)

var _ config.Config = (*Config)(nil)

// Config is the upstreamd configuration.
type Config struct {
	General env.General           `toml:"general,omitempty"`
	Logging log.Config            `toml:"log,omitempty"`
	Metrics env.Metrics           `toml:"metrics,omitempty"`
	API     api.Config            `toml:"api,omitempty"`
	DB      storage.DBConfig      `toml:"db,omitempty"`
	Pool    upstream.PoolOverride `toml:"pool,omitempty"`
	Groups  Groups                `toml:"groups,omitempty"`
	// ExportInterval is the interval at which the pool state is exported as
	// metrics.
	ExportInterval util.DurWrap `toml:"export_interval,omitempty"`
}

// InitDefaults initializes the default values for all parts of the config.
func (cfg *Config) InitDefaults() {
	config.InitAll(
		&cfg.General,
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.API,
		&cfg.DB,
	)
	if cfg.ExportInterval.Duration == 0 {
		cfg.ExportInterval.Duration = DefaultExportInterval
	}
}

// Validate validates all parts of the config.
func (cfg *Config) Validate() error {
	if err := config.ValidateAll(
		&cfg.General,
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.API,
		&cfg.DB,
	); err != nil {
		return err
	}
	base := cfg.PoolConfig()
	if err := base.Validate(); err != nil {
		return serrors.Wrap("invalid pool config", err)
	}
	if err := cfg.Groups.Validate(base); err != nil {
		return err
	}
	if cfg.ExportInterval.Duration <= 0 {
		return serrors.New("export_interval must be positive",
			"export_interval", cfg.ExportInterval)
	}
	return nil
}

// Sample generates a sample config file for upstreamd.
func (cfg *Config) Sample(dst io.Writer, path config.Path, _ config.CtxMap) {
	config.WriteString(dst, upstreamdSample)
	config.WriteSample(dst, path, cfg.SampleCtx(),
		&cfg.General,
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.API,
		&cfg.DB,
		&cfg.Pool,
		&cfg.Groups,
	)
}

// SampleCtx returns the context the sample is rendered with.
func (cfg *Config) SampleCtx() config.CtxMap {
	return config.CtxMap{config.ID: idSample}
}

// PoolConfig returns the [pool] table applied to the default pool
// configuration.
func (cfg *Config) PoolConfig() upstream.PoolConfig {
	return cfg.Pool.Apply(upstream.DefaultPoolConfig())
}

// Overrides returns the per type configuration for the registry init hook.
func (cfg *Config) Overrides(group string) upstream.PoolOverride {
	return cfg.Groups[group]
}

// Groups holds the per type pool overrides, keyed by upstream type.
type Groups map[string]upstream.PoolOverride

// Validate checks that every override yields a valid pool configuration.
func (g Groups) Validate(base upstream.PoolConfig) error {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cfg := g[name].Apply(base)
		if err := cfg.Validate(); err != nil {
			return serrors.Wrap("invalid group override", err, "type", name)
		}
	}
	return nil
}

func (g *Groups) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, groupsSample)
}

func (g *Groups) ConfigName() string {
	return "groups"
}
