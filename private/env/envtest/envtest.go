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

// Package envtest contains helpers to test the configuration blocks of
// package env.
package envtest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/upstreamkit/upstreamkit/private/env"
)

// InitTest puts values into the blocks that differ from the sample, so that
// CheckTest detects fields that the sample does not overwrite.
func InitTest(general *env.General, metrics *env.Metrics) {
	if general != nil {
		general.ID = "uninitialized"
	}
	if metrics != nil {
		metrics.Prometheus = "uninitialized"
	}
}

// CheckTest checks that the blocks hold the sample values.
func CheckTest(t *testing.T, general *env.General, metrics *env.Metrics, id string) {
	t.Helper()
	if general != nil {
		assert.Equal(t, id, general.ID)
	}
	if metrics != nil {
		assert.Empty(t, metrics.Prometheus)
	}
}
