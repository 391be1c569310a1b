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

package launcher

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upstreamkit/upstreamkit/pkg/log"
	"github.com/upstreamkit/upstreamkit/pkg/metrics"
	"github.com/upstreamkit/upstreamkit/pkg/private/serrors"
	"github.com/upstreamkit/upstreamkit/pkg/private/xtest"
	"github.com/upstreamkit/upstreamkit/private/config"
	"github.com/upstreamkit/upstreamkit/private/env"
)

type testConfig struct {
	General env.General `toml:"general,omitempty"`
	Logging log.Config  `toml:"log,omitempty"`
}

func (cfg *testConfig) InitDefaults() {
	config.InitAll(&cfg.General, &cfg.Logging)
}

func (cfg *testConfig) Validate() error {
	return config.ValidateAll(&cfg.General, &cfg.Logging)
}

func (cfg *testConfig) Sample(dst io.Writer, path config.Path, _ config.CtxMap) {
	config.WriteSample(dst, path, config.CtxMap{config.ID: "test"},
		&cfg.General, &cfg.Logging)
}

func writeConfig(t *testing.T, raw string) string {
	t.Helper()
	file := xtest.TempFile(t, "test.toml")
	require.NoError(t, os.WriteFile(file, []byte(raw), 0o644))
	return file
}

func TestApplicationRun(t *testing.T) {
	file := writeConfig(t, `
[general]
id = "upstreamd-1"

[log.console]
level = "debug"
`)
	var cfg testConfig
	var called bool
	app := Application{
		TOMLConfig: &cfg,
		Main: func(ctx context.Context) error {
			called = true
			return nil
		},
	}
	err := app.run(context.Background(), "/usr/bin/upstreamd", []string{"--config", file})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "upstreamd-1", cfg.General.ID)
	assert.Equal(t, "debug", cfg.Logging.Console.Level)
	assert.Equal(t, "upstreamd-1", app.config.GetString(cfgGeneralID))
}

func TestApplicationMainError(t *testing.T) {
	file := writeConfig(t, "[general]\nid = \"x\"\n")
	app := Application{
		TOMLConfig: &testConfig{},
		Main: func(ctx context.Context) error {
			return serrors.New("main failed")
		},
	}
	err := app.run(context.Background(), "upstreamd", []string{"--config", file})
	assert.ErrorContains(t, err, "main failed")
}

func TestApplicationInvalidConfig(t *testing.T) {
	testCases := map[string]string{
		"unknown field": "[general]\nid = \"x\"\nbogus = 1\n",
		"missing id":    "[log.console]\nlevel = \"info\"\n",
	}
	for name, raw := range testCases {
		t.Run(name, func(t *testing.T) {
			file := writeConfig(t, raw)
			app := Application{
				TOMLConfig: &testConfig{},
				Main: func(ctx context.Context) error {
					t.Fatal("main must not run")
					return nil
				},
			}
			err := app.run(context.Background(), "upstreamd", []string{"--config", file})
			assert.Error(t, err)
		})
	}
}

func TestApplicationMissingFlag(t *testing.T) {
	app := Application{TOMLConfig: &testConfig{}}
	err := app.run(context.Background(), "upstreamd", []string{})
	assert.Error(t, err)
}

func TestApplicationSample(t *testing.T) {
	app := Application{
		TOMLConfig: &testConfig{},
		Main: func(ctx context.Context) error {
			t.Fatal("main must not run")
			return nil
		},
	}
	err := app.run(context.Background(), "upstreamd", []string{"sample", "config"})
	require.NoError(t, err)
}

func TestEntriesCounter(t *testing.T) {
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_log_entries_total",
		Help: "Test log entries.",
	}, []string{"level"})
	c := newEntriesCounter(cv)
	metrics.CounterInc(c.Debug)
	metrics.CounterInc(c.Error)
	metrics.CounterInc(c.Error)
	assert.Equal(t, 1.0, testutil.ToFloat64(cv.WithLabelValues("debug")))
	assert.Equal(t, 0.0, testutil.ToFloat64(cv.WithLabelValues("info")))
	assert.Equal(t, 2.0, testutil.ToFloat64(cv.WithLabelValues("error")))
}
