// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordProbeCountsByState(t *testing.T) {
	before := testutil.ToFloat64(ProbesTotal.WithLabelValues("invalid"))

	RecordProbe("invalid", 50*time.Millisecond)
	RecordProbe("invalid", 80*time.Millisecond)
	RecordProbe("valid", 10*time.Millisecond)

	after := testutil.ToFloat64(ProbesTotal.WithLabelValues("invalid"))
	if after-before != 2 {
		t.Errorf("invalid probes delta = %v, want 2", after-before)
	}
}

func TestRecordBatchCommit(t *testing.T) {
	okBefore := testutil.ToFloat64(BatchCommits.WithLabelValues("success"))
	writesBefore := testutil.ToFloat64(BatchedWrites)

	RecordBatchCommit(true, 500)
	RecordBatchCommit(false, 500)

	if delta := testutil.ToFloat64(BatchCommits.WithLabelValues("success")) - okBefore; delta != 1 {
		t.Errorf("success commits delta = %v", delta)
	}
	// Failed commits must not count their writes.
	if delta := testutil.ToFloat64(BatchedWrites) - writesBefore; delta != 500 {
		t.Errorf("batched writes delta = %v, want 500", delta)
	}
}

func TestRecordTaskTransition(t *testing.T) {
	before := testutil.ToFloat64(TaskTransitions.WithLabelValues("pending", "processing"))
	RecordTaskTransition("pending", "processing")
	if delta := testutil.ToFloat64(TaskTransitions.WithLabelValues("pending", "processing")) - before; delta != 1 {
		t.Errorf("transition delta = %v", delta)
	}
}

func TestConcurrentRecording(t *testing.T) {
	before := testutil.ToFloat64(RecordsScanned.WithLabelValues("products_add_ons"))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				RecordScan("products_add_ons")
			}
		}()
	}
	wg.Wait()

	if delta := testutil.ToFloat64(RecordsScanned.WithLabelValues("products_add_ons")) - before; delta != 1000 {
		t.Errorf("scan delta = %v, want 1000", delta)
	}
}

func TestMetricsLint(t *testing.T) {
	RecordAPIRequest("GET", "/api/v1/reconcile/tasks", 200, 12*time.Millisecond)
	RecordTaskPublished("validate-all")
	RecordWriteFailures(1)
	RecordTaskRedelivery()
	RecordTaskDuration("validate-all", 3*time.Second)
	RecordNormalization("articles_and_guides")
	RecordURLFix("articles_and_guides")

	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, p := range problems {
		t.Errorf("metric lint: %s: %s", p.Metric, p.Text)
	}
}
