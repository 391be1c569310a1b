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
	"io"
	"time"

	"github.com/upstreamkit/upstreamkit/pkg/private/serrors"
	"github.com/upstreamkit/upstreamkit/pkg/private/util"
	"github.com/upstreamkit/upstreamkit/private/config"
)

const (
	// DefaultTTL is the default lifetime of a loaded snapshot.
	DefaultTTL = 60 * time.Second
	// DefaultMinFailures is the default number of consecutive failures after
	// which the effective weight decays.
	DefaultMinFailures = 0
	// DefaultMinWeight is the default minimum weight.
	DefaultMinWeight = 0.01
	// DefaultDecay is the default factor applied to the effective weight on
	// failure.
	DefaultDecay = 0.8

	minTTL = time.Second
)

// PoolConfig configures a Pool. All fields are significant, including zero
// values. Configuration files are decoded into a PoolOverride and applied to
// DefaultPoolConfig.
type PoolConfig struct {
	// TTL is the lifetime of a loaded snapshot. It must be at least 1s.
	TTL util.DurWrap `toml:"ttl,omitempty"`
	// MinFailures is the number of consecutive failures from which on every
	// failure decays the effective weight.
	MinFailures int `toml:"min_failures,omitempty"`
	// MinWeight is the lower weight bound. It is validated but Fail does not
	// clamp decayed weights to it.
	MinWeight float64 `toml:"min_weight,omitempty"`
	// Decay is the factor applied to the effective weight on failure. It must
	// be in (0, 1).
	Decay float64 `toml:"decay,omitempty"`
}

// DefaultPoolConfig returns the default pool configuration.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		TTL:         util.DurWrap{Duration: DefaultTTL},
		MinFailures: DefaultMinFailures,
		MinWeight:   DefaultMinWeight,
		Decay:       DefaultDecay,
	}
}

// Validate checks the pool configuration.
func (cfg *PoolConfig) Validate() error {
	if cfg.TTL.Duration < minTTL {
		return serrors.New("ttl too small", "ttl", cfg.TTL, "min", minTTL)
	}
	if cfg.MinFailures < 0 {
		return serrors.New("negative min_failures", "min_failures", cfg.MinFailures)
	}
	if cfg.MinWeight < 0 {
		return serrors.New("negative min_weight", "min_weight", cfg.MinWeight)
	}
	if cfg.Decay <= 0 || cfg.Decay >= 1 {
		return serrors.New("decay out of range (0, 1)", "decay", cfg.Decay)
	}
	return nil
}

const poolSample = `
# Lifetime of a loaded snapshot of upstreams. At least 1s. (default 60s)
ttl = "60s"

# Number of consecutive failures from which on every failure decays the
# effective weight. (default 0)
min_failures = 0

# Minimum weight. (default 0.01)
min_weight = 0.01

# Factor in (0, 1) applied to the effective weight on failure. (default 0.8)
decay = 0.8
`

// PoolOverride is a partial PoolConfig as written in a configuration file.
// Nil fields keep the base value, explicit zeros replace it.
type PoolOverride struct {
	TTL         *util.DurWrap `toml:"ttl,omitempty"`
	MinFailures *int          `toml:"min_failures,omitempty"`
	MinWeight   *float64      `toml:"min_weight,omitempty"`
	Decay       *float64      `toml:"decay,omitempty"`
}

// Apply returns base with the set fields of o replaced.
func (o PoolOverride) Apply(base PoolConfig) PoolConfig {
	if o.TTL != nil {
		base.TTL = *o.TTL
	}
	if o.MinFailures != nil {
		base.MinFailures = *o.MinFailures
	}
	if o.MinWeight != nil {
		base.MinWeight = *o.MinWeight
	}
	if o.Decay != nil {
		base.Decay = *o.Decay
	}
	return base
}

// Sample writes a sample pool configuration to dst.
func (o *PoolOverride) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, poolSample)
}

// ConfigName returns the name of the config block.
func (o *PoolOverride) ConfigName() string {
	return "pool"
}
