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

// Package upstreamd contains the service specific parts of upstreamd that are
// not part of the management API or the configuration.
package upstreamd

import (
	"context"

	"github.com/upstreamkit/upstreamkit/pkg/metrics"
	"github.com/upstreamkit/upstreamkit/pkg/private/prom"
	"github.com/upstreamkit/upstreamkit/pkg/upstream"
	"github.com/upstreamkit/upstreamkit/private/periodic"
)

var _ periodic.Task = (*StateExporter)(nil)

// StateExporter periodically exports the feedback state of every pooled
// upstream. Gauges of upstreams that left a pool keep their last value.
type StateExporter struct {
	Registry *upstream.Registry
	// EffectiveWeight is set to the effective weight, labeled with type and id.
	EffectiveWeight metrics.Gauge
	// Failures is set to the consecutive failure count, labeled with type and
	// id.
	Failures metrics.Gauge
	// Upstreams is set to the snapshot size, labeled with type.
	Upstreams metrics.Gauge
}

// NewStateExporter creates an exporter that registers its gauges with the
// default prometheus registry.
func NewStateExporter(r *upstream.Registry) *StateExporter {
	return &StateExporter{
		Registry: r,
		EffectiveWeight: metrics.NewPromGauge(prom.NewGaugeVec("upstreamd", "pool",
			"effective_weight", "Effective weight of the upstream.",
			[]string{prom.LabelType, prom.LabelID})),
		Failures: metrics.NewPromGauge(prom.NewGaugeVec("upstreamd", "pool",
			"failures", "Consecutive failures of the upstream.",
			[]string{prom.LabelType, prom.LabelID})),
		Upstreams: metrics.NewPromGauge(prom.NewGaugeVec("upstreamd", "pool",
			"upstreams", "Number of upstreams in the current snapshot.",
			[]string{prom.LabelType})),
	}
}

func (e *StateExporter) Name() string {
	return "upstreamd_state_exporter"
}

// Run exports the current state of all pools.
func (e *StateExporter) Run(_ context.Context) {
	for _, group := range e.Registry.Groups() {
		p, ok := e.Registry.Pool(group)
		if !ok {
			continue
		}
		states := p.States()
		metrics.GaugeSet(metrics.GaugeWith(e.Upstreams, prom.LabelType, group),
			float64(len(states)))
		for _, s := range states {
			labels := []string{prom.LabelType, group, prom.LabelID, s.Upstream.ID.String()}
			metrics.GaugeSet(metrics.GaugeWith(e.EffectiveWeight, labels...), s.EffectiveWeight)
			metrics.GaugeSet(metrics.GaugeWith(e.Failures, labels...), float64(s.Failures))
		}
	}
}
