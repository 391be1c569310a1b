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

package metrics

import (
	"sort"
	"strings"
	"sync"
)

// store keeps the values of all label combinations of one test metric.
type store struct {
	mtx    sync.Mutex
	values map[string]float64
}

func newStore() *store {
	return &store{values: make(map[string]float64)}
}

func (s *store) add(key string, delta float64) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.values[key] += delta
}

func (s *store) set(key string, v float64) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.values[key] = v
}

func (s *store) get(key string) float64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.values[key]
}

// key is order independent so that With("a", "1").With("b", "2") and
// With("b", "2", "a", "1") address the same series.
func (lvs labelValues) key() string {
	pairs := make([]string, 0, len(lvs)/2)
	for i := 0; i+1 < len(lvs); i += 2 {
		pairs = append(pairs, lvs[i]+"="+lvs[i+1])
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

// TestCounter implements a counter for use in tests.
type TestCounter struct {
	s   *store
	lvs labelValues
}

// NewTestCounter creates a new counter for use in tests.
func NewTestCounter() *TestCounter {
	return &TestCounter{s: newStore()}
}

// With returns the counter for the given labels. Counters derived from the
// same root share their values.
func (c *TestCounter) With(pairs ...string) Counter {
	return &TestCounter{s: c.s, lvs: c.lvs.with(pairs...)}
}

// Add increases the counter. It panics on negative deltas.
func (c *TestCounter) Add(delta float64) {
	if delta < 0 {
		panic("counter increment value is < 0")
	}
	c.s.add(c.lvs.key(), delta)
}

// CounterValue extracts the value out of a TestCounter. If the argument is not
// a *TestCounter, CounterValue will panic.
func CounterValue(c Counter) float64 {
	tc := c.(*TestCounter)
	return tc.s.get(tc.lvs.key())
}

// TestGauge implements a gauge for use in tests.
type TestGauge struct {
	s   *store
	lvs labelValues
}

// NewTestGauge creates a new gauge for use in tests.
func NewTestGauge() *TestGauge {
	return &TestGauge{s: newStore()}
}

// With returns the gauge for the given labels.
func (g *TestGauge) With(pairs ...string) Gauge {
	return &TestGauge{s: g.s, lvs: g.lvs.with(pairs...)}
}

// Set sets the gauge value.
func (g *TestGauge) Set(v float64) {
	g.s.set(g.lvs.key(), v)
}

// Add adds delta to the gauge value.
func (g *TestGauge) Add(delta float64) {
	g.s.add(g.lvs.key(), delta)
}

// GaugeValue extracts the value out of a TestGauge. If the argument is not a
// *TestGauge, GaugeValue will panic.
func GaugeValue(g Gauge) float64 {
	tg := g.(*TestGauge)
	return tg.s.get(tg.lvs.key())
}

// TestHistogram implements a histogram for use in tests. It records the number
// of observations and their sum.
type TestHistogram struct {
	count *store
	sum   *store
	lvs   labelValues
}

// NewTestHistogram creates a new histogram for use in tests.
func NewTestHistogram() *TestHistogram {
	return &TestHistogram{count: newStore(), sum: newStore()}
}

// With returns the histogram for the given labels.
func (h *TestHistogram) With(pairs ...string) Histogram {
	return &TestHistogram{count: h.count, sum: h.sum, lvs: h.lvs.with(pairs...)}
}

// Observe records an observation.
func (h *TestHistogram) Observe(v float64) {
	h.count.add(h.lvs.key(), 1)
	h.sum.add(h.lvs.key(), v)
}

// HistogramCount returns the number of observations of a TestHistogram.
func HistogramCount(h Histogram) float64 {
	th := h.(*TestHistogram)
	return th.count.get(th.lvs.key())
}
