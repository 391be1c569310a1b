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

package upstreamd_test

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upstreamkit/upstreamkit/pkg/log/testlog"
	"github.com/upstreamkit/upstreamkit/pkg/metrics"
	"github.com/upstreamkit/upstreamkit/pkg/upstream"
	"github.com/upstreamkit/upstreamkit/pkg/upstream/mock_upstream"
	"github.com/upstreamkit/upstreamkit/upstreamd"
)

func TestStateExporter(t *testing.T) {
	ctrl := gomock.NewController(t)
	loader := mock_upstream.NewMockLoader(ctrl)
	loader.EXPECT().Load(gomock.Any(), "http").Return([]upstream.Upstream{
		{ID: "a", Type: "http", Host: "a", Interval: upstream.DefaultInterval, Weight: 1},
		{ID: "b", Type: "http", Host: "b", Interval: upstream.DefaultInterval, Weight: 2},
	}, nil)
	r := upstream.NewRegistry(loader, upstream.WithRegistryLogger(testlog.NewLogger(t)))

	weight, failures, size := metrics.NewTestGauge(), metrics.NewTestGauge(),
		metrics.NewTestGauge()
	e := &upstreamd.StateExporter{
		Registry:        r,
		EffectiveWeight: weight,
		Failures:        failures,
		Upstreams:       size,
	}
	// Without pools nothing is exported.
	e.Run(context.Background())
	assert.Zero(t, metrics.GaugeValue(size.With("type", "http")))

	_, err := r.Sample(context.Background(), "http", nil)
	require.NoError(t, err)
	r.Fail(upstream.Upstream{ID: "b", Type: "http"})
	e.Run(context.Background())

	assert.Equal(t, 2.0, metrics.GaugeValue(size.With("type", "http")))
	assert.Equal(t, 1.0, metrics.GaugeValue(weight.With("type", "http", "id", "a")))
	assert.InDelta(t, 2*upstream.DefaultDecay,
		metrics.GaugeValue(weight.With("type", "http", "id", "b")), 1e-9)
	assert.Equal(t, 0.0, metrics.GaugeValue(failures.With("type", "http", "id", "a")))
	assert.Equal(t, 1.0, metrics.GaugeValue(failures.With("type", "http", "id", "b")))
}

func TestNewStateExporter(t *testing.T) {
	r := upstream.NewRegistry(upstream.LoaderFunc(
		func(context.Context, string) ([]upstream.Upstream, error) { return nil, nil }))
	e := upstreamd.NewStateExporter(r)
	assert.NotNil(t, e.EffectiveWeight)
	assert.Equal(t, "upstreamd_state_exporter", e.Name())
	// A second exporter reuses the registered collectors.
	assert.NotPanics(t, func() { upstreamd.NewStateExporter(r) })
}
