// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline metrics
	RecordsScanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_records_scanned_total",
			Help: "Total records scanned by the pipeline",
		},
		[]string{"collection"},
	)

	RecordsNormalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_records_normalized_total",
			Help: "Total records whose schema normalization produced changes",
		},
		[]string{"collection"},
	)

	URLFixes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_url_fixes_total",
			Help: "Total media URLs rewritten to durable absolute form",
		},
		[]string{"collection"},
	)

	// Probe metrics
	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_probes_total",
			Help: "Total media URL probes by classification outcome",
		},
		[]string{"state"},
	)

	ProbeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reconcile_probe_duration_seconds",
			Help:    "Media URL probe duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// Batch write metrics
	BatchCommits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_batch_commits_total",
			Help: "Total batched write commits by result",
		},
		[]string{"result"},
	)

	BatchedWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reconcile_batched_writes_total",
			Help: "Total document writes committed through batches",
		},
	)

	WriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reconcile_write_failures_total",
			Help: "Total document writes that failed after batch retry",
		},
	)

	// Task lifecycle metrics
	TasksPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_tasks_published_total",
			Help: "Total task messages published to the queue",
		},
		[]string{"kind"},
	)

	TaskTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_task_transitions_total",
			Help: "Total task status transitions",
		},
		[]string{"from", "to"},
	)

	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reconcile_task_duration_seconds",
			Help:    "End-to-end task processing duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"kind"},
	)

	TasksRedelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reconcile_tasks_redelivered_total",
			Help: "Total task deliveries skipped because the task was already terminal",
		},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordScan counts a scanned record.
func RecordScan(collection string) {
	RecordsScanned.WithLabelValues(collection).Inc()
}

// RecordNormalization counts a record whose normalization changed it.
func RecordNormalization(collection string) {
	RecordsNormalized.WithLabelValues(collection).Inc()
}

// RecordURLFix counts a rewritten media URL.
func RecordURLFix(collection string) {
	URLFixes.WithLabelValues(collection).Inc()
}

// RecordProbe counts a probe outcome and its duration.
func RecordProbe(state string, duration time.Duration) {
	ProbesTotal.WithLabelValues(state).Inc()
	ProbeDuration.Observe(duration.Seconds())
}

// RecordBatchCommit counts one batch commit attempt's result.
func RecordBatchCommit(succeeded bool, writes int) {
	result := "success"
	if !succeeded {
		result = "failure"
	}
	BatchCommits.WithLabelValues(result).Inc()
	if succeeded {
		BatchedWrites.Add(float64(writes))
	}
}

// RecordWriteFailures counts writes dropped after batch retry.
func RecordWriteFailures(n int) {
	WriteFailures.Add(float64(n))
}

// RecordTaskPublished counts a published task message.
func RecordTaskPublished(kind string) {
	TasksPublished.WithLabelValues(kind).Inc()
}

// RecordTaskTransition counts a task status change.
func RecordTaskTransition(from, to string) {
	TaskTransitions.WithLabelValues(from, to).Inc()
}

// RecordTaskDuration observes a completed task's processing time.
func RecordTaskDuration(kind string, duration time.Duration) {
	TaskDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordTaskRedelivery counts a delivery skipped as already done.
func RecordTaskRedelivery() {
	TasksRedelivered.Inc()
}

// RecordAPIRequest records an API request with status and duration.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
