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

package prom_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/upstreamkit/upstreamkit/pkg/private/prom"
)

func TestSafeRegisterReturnsExisting(t *testing.T) {
	first := prom.NewCounterVec("test", "", "safe_register_total", "Help.",
		[]string{prom.LabelResult})
	second := prom.NewCounterVec("test", "", "safe_register_total", "Help.",
		[]string{prom.LabelResult})
	assert.Same(t, first, second)

	second.WithLabelValues(prom.Success).Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(first.WithLabelValues(prom.Success)))
}

func TestSafeRegisterPanicsOnConflict(t *testing.T) {
	prom.NewGaugeVec("test", "", "conflict", "Help.", []string{"a"})
	assert.Panics(t, func() {
		prom.NewGaugeVec("test", "", "conflict", "Other help.", []string{"b"})
	})
}
