// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package author_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/libris/internal/core/author"
)

func newRouter(service *author.Service) http.Handler {
	router := chi.NewRouter()
	router.Route("/authors", author.NewHandler(service).RegisterRoutes)
	return router
}

/*
TestHandler_Lifecycle drives create, list, update and delete over HTTP.
*/
func TestHandler_Lifecycle(t *testing.T) {
	router := newRouter(newService(newMemoryRepository()))

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/authors", strings.NewReader(`{"name":"Cecília Meireles"}`)))
	require.Equal(t, http.StatusCreated, recorder.Code)

	var created struct {
		Data author.Author `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))
	assert.Equal(t, 1, created.Data.ID)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/authors?page=1&limit=10", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"total":1`)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPut, "/authors/1", strings.NewReader(`{"name":"Cecília"}`)))
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodDelete, "/authors/1", nil))
	assert.Equal(t, http.StatusNoContent, recorder.Code)
}

/*
TestHandler_Errors maps service errors onto status codes and the error envelope.
*/
func TestHandler_Errors(t *testing.T) {
	router := newRouter(newService(newMemoryRepository()))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown_id", http.MethodGet, "/authors/7", "", http.StatusNotFound, "NOT_FOUND"},
		{"bad_id", http.MethodGet, "/authors/abc", "", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad_json", http.MethodPost, "/authors", "{", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"blank_name", http.MethodPost, "/authors", `{"name":""}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"delete_unknown", http.MethodDelete, "/authors/7", "", http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))

			assert.Equal(t, tt.status, recorder.Code)

			var envelope struct {
				Code string `json:"code"`
			}
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
			assert.Equal(t, tt.code, envelope.Code)
		})
	}
}
