// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package postgres provides the managed PostgreSQL connection pool backing
// the relational store.
//
// # Architecture
//
// This package is part of the Infrastructure layer. It owns the physical
// connections (pgxpool); repositories in internal/core receive the pool
// through their constructors. The API and the worker size their pools
// differently through [Options].
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/libris/internal/platform/constants"
)

const (
	connectTimeout = 5 * time.Second
	pingTimeout    = 2 * time.Second
)

// Options tunes a pool for the process that owns it.
type Options struct {
	MaxConns int32
	MinConns int32

	// StatementTimeout is applied to every session. It also bounds how long
	// a relocation may wait on a copy's row lock.
	StatementTimeout time.Duration
}

// APIOptions sizes the pool for the HTTP server.
func APIOptions() Options {
	return Options{
		MaxConns:         25,
		MinConns:         2,
		StatementTimeout: constants.GlobalRequestTimeout,
	}
}

// WorkerOptions sizes the pool for a worker running concurrency handlers.
// Each handler holds at most one connection (its insert transaction), plus
// one spare for the health endpoint.
func WorkerOptions(concurrency int, timeLimit time.Duration) Options {
	return Options{
		MaxConns:         int32(concurrency) + 1,
		MinConns:         1,
		StatementTimeout: timeLimit,
	}
}

// NewPool creates and validates a new PostgreSQL connection pool.
func NewPool(ctx context.Context, dsn string, opts Options, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := newPoolConfig(dsn, opts)
	if err != nil {
		return nil, err
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}

	if err := Ping(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("postgres_pool_connected",
		slog.String("host", poolConfig.ConnConfig.Host),
		slog.String("database", poolConfig.ConnConfig.Database),
		slog.Int("max_conns", int(poolConfig.MaxConns)),
		slog.Duration("statement_timeout", opts.StatementTimeout),
	)

	return pool, nil
}

func newPoolConfig(dsn string, opts Options) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid DSN: %w", err)
	}

	if opts.MaxConns < 1 {
		return nil, fmt.Errorf("postgres: max connections must be positive, got %d", opts.MaxConns)
	}

	poolConfig.MaxConns = opts.MaxConns
	poolConfig.MinConns = min(opts.MinConns, opts.MaxConns)
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 10 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute
	poolConfig.ConnConfig.ConnectTimeout = connectTimeout

	if opts.StatementTimeout > 0 {
		timeoutQuery := fmt.Sprintf("SET statement_timeout = %d", opts.StatementTimeout.Milliseconds())
		poolConfig.AfterConnect = func(ctx context.Context, connection *pgx.Conn) error {
			_, err := connection.Exec(ctx, timeoutQuery)
			return err
		}
	}

	return poolConfig, nil
}

// Ping verifies that the PostgreSQL connection pool is healthy.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("postgres: ping failed: %w", err)
	}
	return nil
}
