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

package util_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upstreamkit/upstreamkit/pkg/private/util"
)

func TestParseDuration(t *testing.T) {
	tests := map[string]struct {
		input     string
		expected  time.Duration
		assertErr assert.ErrorAssertionFunc
	}{
		"seconds":  {input: "60s", expected: time.Minute, assertErr: assert.NoError},
		"millis":   {input: "250ms", expected: 250 * time.Millisecond, assertErr: assert.NoError},
		"days":     {input: "2d", expected: 48 * time.Hour, assertErr: assert.NoError},
		"bad days": {input: "xd", assertErr: assert.Error},
		"garbage":  {input: "soon", assertErr: assert.Error},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			d, err := util.ParseDuration(tc.input)
			tc.assertErr(t, err)
			assert.Equal(t, tc.expected, d)
		})
	}
}

func TestFmtDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{time.Minute, "1m"},
		{90 * time.Minute, "1h30m"},
		{time.Hour, "1h"},
		{48 * time.Hour, "2d"},
		{1500 * time.Millisecond, "1.5s"},
		{time.Hour + 30*time.Second, "1h0m30s"},
		{0, "0s"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, util.FmtDuration(tc.d))
		parsed, err := util.ParseDuration(tc.expected)
		require.NoError(t, err)
		assert.Equal(t, tc.d, parsed)
	}
}

func TestDurWrapText(t *testing.T) {
	var d util.DurWrap
	require.NoError(t, d.UnmarshalText([]byte("5m")))
	assert.Equal(t, 5*time.Minute, d.Duration)
	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "5m", string(text))
}
