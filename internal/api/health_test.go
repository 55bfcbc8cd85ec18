// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/libris/internal/api"
)

/*
TestReadiness reports 503 with the failing dependency when a check fails.
*/
func TestReadiness(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: connection refused") }

	tests := []struct {
		name     string
		deps     api.HealthDependencies
		status   int
		contains string
	}{
		{"all_ready", api.HealthDependencies{CheckDatabase: ok, CheckRedis: ok}, http.StatusOK, `"status":"ready"`},
		{"redis_down", api.HealthDependencies{CheckDatabase: ok, CheckRedis: down}, http.StatusServiceUnavailable, `"name":"redis","ok":false`},
		{"postgres_down", api.HealthDependencies{CheckDatabase: down, CheckRedis: ok}, http.StatusServiceUnavailable, `"status":"degraded"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, readiness := api.NewHealthHandlers(tt.deps, slog.New(slog.NewTextHandler(io.Discard, nil)))

			recorder := httptest.NewRecorder()
			readiness(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.status, recorder.Code)
			assert.Contains(t, recorder.Body.String(), tt.contains)
		})
	}
}

/*
TestLiveness always answers 200.
*/
func TestLiveness(t *testing.T) {
	liveness, _ := api.NewHealthHandlers(api.HealthDependencies{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	recorder := httptest.NewRecorder()
	liveness(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
}
