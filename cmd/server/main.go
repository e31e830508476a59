// Copyright 2026 The FacilityOS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/facilityos/facilityos/internal/audit"
	"github.com/facilityos/facilityos/internal/config"
	"github.com/facilityos/facilityos/internal/directory"
	"github.com/facilityos/facilityos/internal/observability/logger"
	"github.com/facilityos/facilityos/internal/observability/metrics"
	"github.com/facilityos/facilityos/internal/observability/tracing"
	"github.com/facilityos/facilityos/internal/session"
	storebuntdb "github.com/facilityos/facilityos/internal/store/buntdb"
	transportHTTP "github.com/facilityos/facilityos/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	slog.Info("starting facilityos authorization core")

	ctx := context.Background()

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	}
	defer tracer.Shutdown(ctx)

	meter, err := metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
	}
	authMetrics, err := metrics.NewAuthMetrics(meter)
	if err != nil {
		slog.Error("failed to register auth metrics", logger.Error(err))
	}

	db, err := storebuntdb.Open(cfg.Store.Path)
	if err != nil {
		slog.Error("failed to open store", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("opened store", "path", cfg.Store.Path)

	auditDispatcher := audit.NewDispatcher(cfg.Audit.BufferSize,
		audit.NewSlogSink(),
		audit.NewStoreSink(db),
	)
	defer auditDispatcher.Close()

	dir := directory.NewService(db, auditDispatcher)
	sessions := session.NewManager(db, dir, auditDispatcher)

	if err := sessions.Bootstrap(ctx); err != nil {
		slog.Error("bootstrap failed", logger.Error(err))
		os.Exit(1)
	}
	if err := sessions.Restore(ctx); err != nil {
		slog.Error("session restore failed", logger.Error(err))
	}
	if sess := sessions.Current(); sess != nil {
		slog.Info("restored session",
			logger.UserID(sess.UserID),
			logger.Role(string(sess.Role)),
			logger.Portal(string(sess.Portal)),
		)
	}

	handler := transportHTTP.NewHandler(sessions, dir, authMetrics)
	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	router := transportHTTP.NewRouter(handler, rateLimiter)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      otelhttp.NewHandler(router, "http.server"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server failed", logger.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", logger.Error(err))
	}
}
