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

// Package prom contains helpers for registering prometheus metrics.
package prom

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Common label names.
const (
	// LabelResult is the label for result classifications.
	LabelResult = "result"
	// LabelType is the label for the upstream type.
	LabelType = "type"
	// LabelID is the label for the upstream ID.
	LabelID = "id"
	// LabelOperation is the label for the name of an executed operation.
	LabelOperation = "op"
)

// Common result values.
const (
	// Success is no error.
	Success = "ok_success"
	// ErrDB is used for db related errors.
	ErrDB = "err_db"
	// ErrInternal is an internal error.
	ErrInternal = "err_internal"
	// ErrInvalidReq is an invalid request.
	ErrInvalidReq = "err_invalid_request"
	// ErrNotFound is used for errors where a resource is not found.
	ErrNotFound = "err_not_found"
	// ErrTimeout is a timeout error.
	ErrTimeout = "err_timeout"
	// ErrCanceled is used if the caller gave up.
	ErrCanceled = "err_canceled"
)

// DefaultLatencyBuckets 1ms, 2ms, 4ms, ... 2.048s, 4.096s.
var DefaultLatencyBuckets = []float64{0.001, 0.002, 0.004, 0.008, 0.016, 0.032, 0.064,
	0.128, 0.256, 0.512, 1.024, 2.048, 4.096}

// ExportElementID exports the service ID as configured in the config file.
func ExportElementID(id string) {
	NewGaugeVec("upstreamd", "", "elem_id", "The element ID from the config file",
		[]string{"cfg"}).WithLabelValues(id).Set(1)
}

// SafeRegister registers c and returns the registered collector. If c was
// already registered the already registered collector is returned. In case of
// any other error this method panics (as MustRegister).
func SafeRegister(c prometheus.Collector) prometheus.Collector {
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

// NewCounterVec creates a counter vector registered with the default registry.
func NewCounterVec(namespace, subsystem, name, help string,
	labelNames []string) *prometheus.CounterVec {

	return SafeRegister(prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		},
		labelNames,
	)).(*prometheus.CounterVec)
}

// NewGaugeVec creates a gauge vector registered with the default registry.
func NewGaugeVec(namespace, subsystem, name, help string,
	labelNames []string) *prometheus.GaugeVec {

	return SafeRegister(prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		},
		labelNames,
	)).(*prometheus.GaugeVec)
}

// NewHistogramVec creates a histogram vector registered with the default
// registry.
func NewHistogramVec(namespace, subsystem, name, help string,
	labelNames []string, buckets []float64) *prometheus.HistogramVec {

	return SafeRegister(prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		},
		labelNames,
	)).(*prometheus.HistogramVec)
}
