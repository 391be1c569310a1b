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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/upstreamkit/upstreamkit/pkg/metrics"
	"github.com/upstreamkit/upstreamkit/pkg/private/prom"
)

// Label values of the result label.
const (
	resultOk       = prom.Success
	resultNotFound = prom.ErrNotFound
	resultLoad     = "err_load"
	resultCanceled = prom.ErrCanceled
)

// Label values of the kind label.
const (
	kindSucceed = "succeed"
	kindFail    = "fail"
)

// Metrics are the metrics of pools. The zero value disables metrics.
type Metrics struct {
	// Samples counts Sample calls by type and result.
	Samples metrics.Counter
	// Feedback counts Succeed and Fail calls by type and kind.
	Feedback metrics.Counter
	// Refreshes counts snapshot loads by type and result.
	Refreshes metrics.Counter
	// Wait observes the time Sample waited for the interval, in seconds.
	Wait metrics.Histogram
}

// NewMetrics creates prometheus backed metrics that are registered with f.
func NewMetrics(f promauto.Factory) Metrics {
	return Metrics{
		Samples: metrics.NewPromCounter(f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upstream_samples_total",
				Help: "Total number of upstream samples.",
			},
			[]string{prom.LabelType, prom.LabelResult},
		)),
		Feedback: metrics.NewPromCounter(f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upstream_feedback_total",
				Help: "Total number of reported upstream outcomes.",
			},
			[]string{prom.LabelType, "kind"},
		)),
		Refreshes: metrics.NewPromCounter(f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upstream_refreshes_total",
				Help: "Total number of upstream snapshot loads.",
			},
			[]string{prom.LabelType, prom.LabelResult},
		)),
		Wait: metrics.NewPromHistogram(f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "upstream_sample_wait_seconds",
				Help:    "Time a sample waited for the upstream interval.",
				Buckets: prom.DefaultLatencyBuckets,
			},
			[]string{prom.LabelType},
		)),
	}
}

// pool returns the metrics of a single pool, with the type label set.
func (m Metrics) pool(group string) poolMetrics {
	return poolMetrics{
		samples:   metrics.CounterWith(m.Samples, "type", group),
		feedback:  metrics.CounterWith(m.Feedback, "type", group),
		refreshes: metrics.CounterWith(m.Refreshes, "type", group),
		wait:      metrics.HistogramWith(m.Wait, "type", group),
	}
}

type poolMetrics struct {
	samples   metrics.Counter
	feedback  metrics.Counter
	refreshes metrics.Counter
	wait      metrics.Histogram
}

func (m poolMetrics) sample(result string) {
	metrics.CounterInc(metrics.CounterWith(m.samples, "result", result))
}

func (m poolMetrics) refresh(result string) {
	metrics.CounterInc(metrics.CounterWith(m.refreshes, "result", result))
}

func (m poolMetrics) feedbackKind(kind string) {
	metrics.CounterInc(metrics.CounterWith(m.feedback, "kind", kind))
}

func (m poolMetrics) observeWait(d time.Duration) {
	metrics.HistogramObserve(m.wait, d.Seconds())
}
