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

// Package env contains configuration blocks and initialization code shared by
// services. Anything specific to one service belongs to that service.
package env

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/upstreamkit/upstreamkit/pkg/log"
	"github.com/upstreamkit/upstreamkit/pkg/private/serrors"
	"github.com/upstreamkit/upstreamkit/private/config"
)

const (
	// ShutdownGraceInterval is the time applications wait after issuing a
	// clean shutdown signal, before forcefully tearing down the application.
	ShutdownGraceInterval = 5 * time.Second

	// HandlerTimeout is the time after which the http handler gives up on a
	// request and returns an error instead.
	HandlerTimeout = time.Minute
)

var _ config.Config = (*General)(nil)

// General contains the settings that every service has.
type General struct {
	config.NoDefaulter
	// ID is the service ID. It is exported as a metric label.
	ID string `toml:"id,omitempty"`
}

// Validate checks that the ID is set.
func (cfg *General) Validate() error {
	if cfg.ID == "" {
		return serrors.New("no element id specified")
	}
	return nil
}

func (cfg *General) Sample(dst io.Writer, _ config.Path, ctx config.CtxMap) {
	config.WriteString(dst, fmt.Sprintf(generalSample, ctx[config.ID]))
}

func (cfg *General) ConfigName() string {
	return "general"
}

var _ config.Config = (*Metrics)(nil)

// Metrics configures the prometheus endpoint.
type Metrics struct {
	config.NoDefaulter
	config.NoValidator
	// Prometheus contains the address to export prometheus metrics on. If
	// not set, metrics are not exported.
	Prometheus string `toml:"prometheus,omitempty"`
}

func (cfg *Metrics) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, metricsSample)
}

func (cfg *Metrics) ConfigName() string {
	return "metrics"
}

// ServePrometheus serves the default prometheus registry under /metrics until
// ctx is done. It returns immediately if no address is configured.
func (cfg *Metrics) ServePrometheus(ctx context.Context) error {
	if cfg.Prometheus == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(
			prometheus.DefaultGatherer,
			promhttp.HandlerOpts{Timeout: HandlerTimeout},
		),
	))
	log.Info("Exporting prometheus metrics", "addr", cfg.Prometheus)

	server := &http.Server{Addr: cfg.Prometheus, Handler: mux}
	go func() {
		defer log.HandlePanic()
		<-ctx.Done()
		_ = server.Close()
	}()
	err := server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return serrors.Wrap("serving prometheus metrics", err, "addr", cfg.Prometheus)
	}
	return nil
}

// LogAppStarted logs the start of the service with the build information.
func LogAppStarted(svcType, elemID string) {
	version := "unknown"
	if info, ok := debug.ReadBuildInfo(); ok {
		version = info.Main.Version
	}
	log.Info(fmt.Sprintf("=====================> Service started %s %s", svcType, elemID),
		"version", version)
}

// LogAppStopped logs the stop of the service.
func LogAppStopped(svcType, elemID string) {
	log.Info(fmt.Sprintf("=====================> Service stopped %s %s", svcType, elemID))
}
