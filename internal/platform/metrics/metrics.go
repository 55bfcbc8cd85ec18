// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics declares the Prometheus collectors exported by the API server
and the ingestion worker.

Collectors are registered on the default registry through promauto and exposed
with promhttp on /metrics. Label values are always bounded (route patterns,
enum outcomes, queue states) to keep cardinality flat.
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "libris"

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "The total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	copyRelocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "copy_relocations_total",
			Help:      "The total number of copy relocation attempts by outcome",
		},
		[]string{"outcome"},
	)

	bookIngestions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "book_ingestions_total",
			Help:      "The total number of processed book creation messages by outcome",
		},
		[]string{"outcome"},
	)

	queueTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_message_transitions_total",
			Help:      "The total number of task message lifecycle transitions by queue and target state",
		},
		[]string{"queue", "state"},
	)
)

// ObserveHTTPRequest records one finished HTTP request.
func ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// CopyRelocated records a relocation attempt ("moved", "not_available", "not_found", "error").
func CopyRelocated(outcome string) {
	copyRelocations.WithLabelValues(outcome).Inc()
}

// BookIngested records the outcome of a processed creation message ("indexed", "dropped", "failed").
func BookIngested(outcome string) {
	bookIngestions.WithLabelValues(outcome).Inc()
}

// QueueTransition records a task message entering a lifecycle state.
func QueueTransition(queue, state string) {
	queueTransitions.WithLabelValues(queue, state).Inc()
}

// Handler returns the promhttp handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
