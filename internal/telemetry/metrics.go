/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package telemetry exposes Prometheus metrics for the scheduling engine
// and the HTTP surface.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SchedulerBatchesTotal counts batch scheduling invocations.
	SchedulerBatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dayblock_scheduler_batches_total",
		Help: "Number of batch scheduling runs.",
	})

	// SchedulerBatchDuration observes wall time per batch run.
	SchedulerBatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dayblock_scheduler_batch_duration_seconds",
		Help:    "Duration of batch scheduling runs.",
		Buckets: prometheus.DefBuckets,
	})

	// TasksScheduledTotal counts tasks that received a slot.
	TasksScheduledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dayblock_tasks_scheduled_total",
		Help: "Number of tasks successfully placed into a slot.",
	})

	// TasksUnschedulableTotal counts tasks that ended in a per-task failure.
	TasksUnschedulableTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dayblock_tasks_unschedulable_total",
		Help: "Number of tasks that could not be placed.",
	})

	// AdvisorRequestsTotal counts advisor calls by outcome (ok, error, invalid).
	AdvisorRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dayblock_advisor_requests_total",
		Help: "Decision advisor calls by outcome.",
	}, []string{"outcome"})

	// FallbackSelectionsTotal counts slots chosen by the deterministic
	// fallback after an advisor failure.
	FallbackSelectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dayblock_fallback_selections_total",
		Help: "Slots picked by the local fallback rule.",
	})

	// APIRequestDuration observes HTTP request latency per endpoint.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dayblock_api_request_duration_seconds",
		Help:    "HTTP request duration by method, endpoint and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	// APIActiveConnections gauges in-flight HTTP requests.
	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dayblock_api_active_connections",
		Help: "In-flight HTTP requests.",
	})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
