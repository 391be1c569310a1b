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
	"github.com/prometheus/client_golang/prometheus"
)

// NewPromCounter wraps a prometheus counter vector as a counter.
// Returns nil if cv is nil.
func NewPromCounter(cv *prometheus.CounterVec) Counter {
	if cv == nil {
		return nil
	}
	return &counter{cv: cv}
}

// NewPromGauge wraps a prometheus gauge vector as a gauge.
// Returns nil if gv is nil.
func NewPromGauge(gv *prometheus.GaugeVec) Gauge {
	if gv == nil {
		return nil
	}
	return &gauge{gv: gv}
}

// NewPromHistogram wraps a prometheus histogram vector as a histogram.
// Returns nil if hv is nil.
func NewPromHistogram(hv *prometheus.HistogramVec) Histogram {
	if hv == nil {
		return nil
	}
	return &histogram{hv: hv}
}

// labelValues holds alternating label names and values. A dangling name gets
// the value "unknown".
type labelValues []string

func (lvs labelValues) with(pairs ...string) labelValues {
	if len(pairs)%2 != 0 {
		pairs = append(pairs, "unknown")
	}
	result := make(labelValues, 0, len(lvs)+len(pairs))
	result = append(result, lvs...)
	return append(result, pairs...)
}

func (lvs labelValues) labels() prometheus.Labels {
	labels := make(prometheus.Labels, len(lvs)/2)
	for i := 0; i < len(lvs); i += 2 {
		labels[lvs[i]] = lvs[i+1]
	}
	return labels
}

type counter struct {
	cv  *prometheus.CounterVec
	lvs labelValues
}

func (c *counter) With(pairs ...string) Counter {
	return &counter{cv: c.cv, lvs: c.lvs.with(pairs...)}
}

func (c *counter) Add(delta float64) {
	c.cv.With(c.lvs.labels()).Add(delta)
}

type gauge struct {
	gv  *prometheus.GaugeVec
	lvs labelValues
}

func (g *gauge) With(pairs ...string) Gauge {
	return &gauge{gv: g.gv, lvs: g.lvs.with(pairs...)}
}

func (g *gauge) Set(value float64) {
	g.gv.With(g.lvs.labels()).Set(value)
}

func (g *gauge) Add(delta float64) {
	g.gv.With(g.lvs.labels()).Add(delta)
}

type histogram struct {
	hv  *prometheus.HistogramVec
	lvs labelValues
}

func (h *histogram) With(pairs ...string) Histogram {
	return &histogram{hv: h.hv, lvs: h.lvs.with(pairs...)}
}

func (h *histogram) Observe(value float64) {
	h.hv.With(h.lvs.labels()).Observe(value)
}
