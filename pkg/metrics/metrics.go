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

// Package metrics defines small metric interfaces that decouple instrumented
// code from prometheus. All helpers accept nil metrics and do nothing in that
// case, so that instrumentation is optional for callers.
package metrics

// Counter describes a metric that accumulates values monotonically.
type Counter interface {
	With(labelValues ...string) Counter
	Add(delta float64)
}

// Gauge describes a metric that takes specific values over time.
type Gauge interface {
	With(labelValues ...string) Gauge
	Set(value float64)
	Add(delta float64)
}

// Histogram describes a metric that takes repeated observations of the same
// kind of thing, and produces a statistical summary of those observations.
type Histogram interface {
	With(labelValues ...string) Histogram
	Observe(value float64)
}

// CounterAdd increases the passed in counter by the amount specified.
// This is a no-op if c is nil.
func CounterAdd(c Counter, delta float64) {
	if c != nil {
		c.Add(delta)
	}
}

// CounterInc increases the passed in counter by 1.
// This is a no-op if c is nil.
func CounterInc(c Counter) {
	CounterAdd(c, 1)
}

// CounterWith returns a Counter with the labels provided. Returns nil if c is
// nil.
func CounterWith(c Counter, labelValues ...string) Counter {
	if c == nil {
		return nil
	}
	return c.With(labelValues...)
}

// GaugeSet sets the passed in gauge to the value specified.
// This is a no-op if g is nil.
func GaugeSet(g Gauge, value float64) {
	if g != nil {
		g.Set(value)
	}
}

// GaugeWith returns a Gauge with the labels provided. Returns nil if g is nil.
func GaugeWith(g Gauge, labelValues ...string) Gauge {
	if g == nil {
		return nil
	}
	return g.With(labelValues...)
}

// HistogramObserve adds an observation to the histogram.
// This is a no-op if h is nil.
func HistogramObserve(h Histogram, value float64) {
	if h != nil {
		h.Observe(value)
	}
}

// HistogramWith returns a Histogram with the labels provided. Returns nil if h
// is nil.
func HistogramWith(h Histogram, labelValues ...string) Histogram {
	if h == nil {
		return nil
	}
	return h.With(labelValues...)
}
