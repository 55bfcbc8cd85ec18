// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command worker consumes the book ingestion queue.
//
// # Startup Sequence
//
//  1. Initialize structured logger and load configuration.
//  2. Check that the schema is migrated and clean.
//  3. Connect to PostgreSQL and Redis, sized for the handler pool.
//  4. Create the search index (idempotent).
//  5. Register the create_book actor.
//  6. Run the worker loops and the metrics endpoint until SIGINT/SIGTERM.
//
// Migrations are owned by cmd/api.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/libris/internal/core/book"
	"github.com/taibuivan/libris/internal/platform/config"
	"github.com/taibuivan/libris/internal/platform/constants"
	"github.com/taibuivan/libris/internal/platform/metrics"
	"github.com/taibuivan/libris/internal/platform/migration"
	pgstore "github.com/taibuivan/libris/internal/platform/postgres"
	redisstore "github.com/taibuivan/libris/internal/platform/redis"
	"github.com/taibuivan/libris/internal/platform/searchindex"
	"github.com/taibuivan/libris/internal/platform/taskqueue"
)

func main() {
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
	}

	log.Info("worker_initializing",
		slog.String("environment", cfg.Environment),
		slog.Int("concurrency", cfg.WorkerConcurrency),
		slog.Int("max_retries", cfg.QueueMaxRetries),
	)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	version, err := migration.CheckVersion(cfg.DatabaseURL, cfg.MigrationPath, log)
	must(log, err, "check schema version")
	log.Info("schema_version_checked", slog.Uint64("version", uint64(version)))

	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, pgstore.WorkerOptions(cfg.WorkerConcurrency, cfg.QueueTimeLimit), log)
	must(log, err, "connect to postgres")
	defer pool.Close()

	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, cfg.WorkerConcurrency, log)
	must(log, err, "connect to redis")
	defer func() {
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_failed", slog.Any("error", cerr))
		}
	}()

	index := searchindex.NewRedisIndex(rdb, cfg.SearchIndex)
	must(log, index.EnsureSchema(startupCtx), "create search index")

	// ── Actors ────────────────────────────────────────────────────────────
	worker := taskqueue.NewWorker(taskqueue.NewRedisTransport(rdb), taskqueue.Options{
		Concurrency:       cfg.WorkerConcurrency,
		MinBackoff:        cfg.QueueMinBackoff,
		MaxBackoff:        cfg.QueueMaxBackoff,
		VisibilityTimeout: cfg.QueueVisibilityTimeout,
	}, log)

	ingestor := book.NewIngestor(book.NewPostgresRepository(pool), index, log)
	must(log, worker.Register(ingestor.Actor(cfg.QueueMaxRetries, cfg.QueueTimeLimit, cfg.QueueMaxAge)), "register create_book actor")

	// ── Run ───────────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return worker.Run(groupCtx)
	})

	group.Go(func() error {
		log.Info("metrics_server_starting", slog.String("addr", metricsServer.Addr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("worker_stopped_with_error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("worker_stopped")
}

func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", "libris"), slog.String("process", "worker"))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
