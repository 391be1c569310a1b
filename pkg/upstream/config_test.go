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

package upstream_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upstreamkit/upstreamkit/pkg/private/util"
	"github.com/upstreamkit/upstreamkit/pkg/upstream"
	"github.com/upstreamkit/upstreamkit/private/config"
)

func TestPoolOverrideSample(t *testing.T) {
	var sample bytes.Buffer
	var o upstream.PoolOverride
	o.Sample(&sample, nil, nil)

	var decoded upstream.PoolOverride
	require.NoError(t, config.Decode(sample.Bytes(), &decoded))
	// The sample sets every key, so the base is fully replaced.
	cfg := decoded.Apply(upstream.PoolConfig{})
	assert.Equal(t, upstream.DefaultPoolConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestPoolConfigValidate(t *testing.T) {
	valid := upstream.DefaultPoolConfig()
	testCases := map[string]struct {
		modify    func(*upstream.PoolConfig)
		assertErr assert.ErrorAssertionFunc
	}{
		"defaults": {
			modify:    func(*upstream.PoolConfig) {},
			assertErr: assert.NoError,
		},
		"ttl 1s": {
			modify:    func(c *upstream.PoolConfig) { c.TTL.Duration = time.Second },
			assertErr: assert.NoError,
		},
		"ttl too small": {
			modify:    func(c *upstream.PoolConfig) { c.TTL.Duration = 999 * time.Millisecond },
			assertErr: assert.Error,
		},
		"negative min failures": {
			modify:    func(c *upstream.PoolConfig) { c.MinFailures = -1 },
			assertErr: assert.Error,
		},
		"zero min weight": {
			modify:    func(c *upstream.PoolConfig) { c.MinWeight = 0 },
			assertErr: assert.NoError,
		},
		"negative min weight": {
			modify:    func(c *upstream.PoolConfig) { c.MinWeight = -0.1 },
			assertErr: assert.Error,
		},
		"decay zero": {
			modify:    func(c *upstream.PoolConfig) { c.Decay = 0 },
			assertErr: assert.Error,
		},
		"decay one": {
			modify:    func(c *upstream.PoolConfig) { c.Decay = 1 },
			assertErr: assert.Error,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			tc.modify(&cfg)
			tc.assertErr(t, cfg.Validate())
		})
	}
}

func TestPoolOverrideApply(t *testing.T) {
	base := upstream.DefaultPoolConfig()
	assert.Equal(t, base, upstream.PoolOverride{}.Apply(base))

	ttl := util.DurWrap{Duration: 5 * time.Minute}
	minFailures, decay := 2, 0.5
	cfg := upstream.PoolOverride{TTL: &ttl, MinFailures: &minFailures, Decay: &decay}.Apply(base)
	assert.Equal(t, upstream.PoolConfig{
		TTL:         ttl,
		MinFailures: 2,
		MinWeight:   base.MinWeight,
		Decay:       0.5,
	}, cfg)
}

func TestPoolOverrideDecode(t *testing.T) {
	raw := []byte(`
ttl = "2m"
decay = 0.25
`)
	var o upstream.PoolOverride
	require.NoError(t, config.Decode(raw, &o))
	require.NotNil(t, o.TTL)
	assert.Equal(t, 2*time.Minute, o.TTL.Duration)
	assert.Nil(t, o.MinFailures)
	assert.Equal(t, 0.25, *o.Decay)

	assert.Error(t, config.Decode([]byte(`unknown = 1`), &o))
}

func TestPoolOverrideExplicitZero(t *testing.T) {
	var o upstream.PoolOverride
	require.NoError(t, config.Decode([]byte("min_weight = 0.0\ndecay = 0.0\n"), &o))
	cfg := o.Apply(upstream.DefaultPoolConfig())
	assert.Equal(t, 0.0, cfg.MinWeight)
	assert.Equal(t, 0.0, cfg.Decay)
	assert.Error(t, cfg.Validate())

	decay := upstream.DefaultDecay
	o.Decay = &decay
	cfg = o.Apply(upstream.DefaultPoolConfig())
	assert.NoError(t, cfg.Validate())
}

func TestHint(t *testing.T) {
	kind, err := upstream.ParseHintKind("diff")
	require.NoError(t, err)
	assert.Equal(t, upstream.HintDiff, kind)
	_, err = upstream.ParseHintKind("other")
	assert.Error(t, err)

	assert.Equal(t, "same:a", upstream.SameAs("a").String())
	var none *upstream.Hint
	assert.Equal(t, "none", none.String())
}

func TestMinInterval(t *testing.T) {
	assert.Equal(t, time.Millisecond, upstream.Upstream{}.MinInterval())
	assert.Equal(t, 250*time.Millisecond, upstream.Upstream{Interval: 0.25}.MinInterval())
}
