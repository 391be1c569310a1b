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

package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"github.com/upstreamkit/upstreamkit/pkg/log"
	"github.com/upstreamkit/upstreamkit/pkg/metrics"
	"github.com/upstreamkit/upstreamkit/pkg/private/prom"
	"github.com/upstreamkit/upstreamkit/pkg/private/serrors"
	"github.com/upstreamkit/upstreamkit/pkg/upstream"
	"github.com/upstreamkit/upstreamkit/private/app/launcher"
	"github.com/upstreamkit/upstreamkit/private/periodic"
	"github.com/upstreamkit/upstreamkit/private/storage"
	"github.com/upstreamkit/upstreamkit/upstreamd"
	"github.com/upstreamkit/upstreamkit/upstreamd/config"
	api "github.com/upstreamkit/upstreamkit/upstreamd/mgmtapi"
)

var globalCfg config.Config

func main() {
	application := launcher.Application{
		TOMLConfig: &globalCfg,
		ShortName:  "Upstream Daemon",
		Main:       realMain,
	}
	application.Run()
}

func realMain(ctx context.Context) error {
	db, err := storage.NewUpstreamStorage(globalCfg.DB, storage.CheckpointMetrics{
		ErrorsTotal: metrics.NewPromCounter(prom.NewCounterVec("upstreamd", "db",
			"checkpoint_errors_total", "Total number of failed WAL checkpoints.", nil)),
		CheckpointedTotal: metrics.NewPromCounter(prom.NewCounterVec("upstreamd", "db",
			"checkpointed_frames_total", "Total number of checkpointed WAL frames.", nil)),
	})
	if err != nil {
		return serrors.Wrap("initializing upstream storage", err)
	}
	defer db.Close()

	registry := upstream.NewRegistry(db,
		upstream.WithDefaults(globalCfg.PoolConfig()),
		upstream.WithInit(globalCfg.Overrides),
		upstream.WithRegistryMetrics(
			upstream.NewMetrics(promauto.With(prometheus.DefaultRegisterer)),
		),
	)

	exporter := periodic.Start(upstreamd.NewStateExporter(registry),
		globalCfg.ExportInterval.Duration, globalCfg.ExportInterval.Duration)
	defer exporter.Stop()

	g, errCtx := errgroup.WithContext(ctx)
	var mgmtServer *http.Server
	if globalCfg.API.Addr != "" {
		r := chi.NewRouter()
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
		}))
		server := api.Server{
			Upstreams: db,
			Registry:  registry,
			Config:    api.NewConfigHandler(&globalCfg),
			LogLevel:  log.LevelHandler().ServeHTTP,
		}
		log.Info("Exposing API", "addr", globalCfg.API.Addr)
		h := api.HandlerFromMuxWithBaseURL(&server, r, "/api/v1")
		mgmtServer = &http.Server{
			Addr:    globalCfg.API.Addr,
			Handler: h,
		}
		g.Go(func() error {
			defer log.HandlePanic()
			err := mgmtServer.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return serrors.Wrap("serving service management API", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		defer log.HandlePanic()
		return globalCfg.Metrics.ServePrometheus(errCtx)
	})
	// Runs until shutdown, also if neither endpoint is enabled.
	g.Go(func() error {
		defer log.HandlePanic()
		<-errCtx.Done()
		if mgmtServer != nil {
			return mgmtServer.Close()
		}
		return nil
	})
	return g.Wait()
}
