// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

// Package report accumulates per-run validation statistics into
// append-only ValidationReports and persists them alongside the data
// they describe.
package report

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/etoile-yachts/shipshape/internal/models"
)

// DefaultSampleLimit caps the diagnosed issues kept verbatim in a
// report. Counts beyond the cap are carried in the totals only.
const DefaultSampleLimit = 50

// Builder accumulates one run's statistics. All methods are safe for
// concurrent use; the pipeline observes results from multiple probe
// goroutines.
type Builder struct {
	mu          sync.Mutex
	report      models.ValidationReport
	total       int
	sampleLimit int
}

// NewBuilder starts a running report for the given task.
func NewBuilder(taskID string, now time.Time) *Builder {
	return &Builder{
		report: models.ValidationReport{
			ID:            uuid.NewString(),
			TaskID:        taskID,
			StartTime:     now.UTC(),
			Status:        models.ReportRunning,
			PerCollection: make(map[string]models.CollectionStats),
		},
		sampleLimit: DefaultSampleLimit,
	}
}

// SetExpectedRecords sets the denominator for progress reporting.
func (b *Builder) SetExpectedRecords(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.total = n
}

// RecordScanned counts one scanned record toward progress.
func (b *Builder) RecordScanned() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.RecordsScanned++
}

// RecordUpdated counts one record whose repaired form was written back.
func (b *Builder) RecordUpdated() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.RecordsUpdated++
}

// Observe records one classified media reference. Non-valid states also
// contribute a sample issue until the sample cap is reached.
func (b *Builder) Observe(collection, recordID, fieldPath string, state models.ValidityState, reason string, httpStatus int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := b.report.PerCollection[collection]
	stats.Total++
	b.report.Totals.Total++

	switch state {
	case models.ValidityValid:
		stats.Valid++
		b.report.Totals.Valid++
	case models.ValidityMissing:
		stats.Missing++
		b.report.Totals.Missing++
	default:
		stats.Invalid++
		b.report.Totals.Invalid++
	}
	b.report.PerCollection[collection] = stats

	if state != models.ValidityValid && len(b.report.SampleIssues) < b.sampleLimit {
		b.report.SampleIssues = append(b.report.SampleIssues, models.SampleIssue{
			Collection: collection,
			RecordID:   recordID,
			FieldPath:  fieldPath,
			State:      state,
			Reason:     reason,
			HTTPStatus: httpStatus,
		})
	}
}

// AddFix records one repaired URL.
func (b *Builder) AddFix(fix models.URLFix) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.Fixes = append(b.report.Fixes, fix)
}

// AddWriteFailures records documents whose commit failed after retry.
func (b *Builder) AddWriteFailures(failures []models.WriteFailure) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.WriteFailures = append(b.report.WriteFailures, failures...)
}

// Complete finalizes the report. A run with write failures completes;
// the failures are in the report for the operator.
func (b *Builder) Complete(now time.Time) {
	b.finish(models.ReportCompleted, now)
}

// Fail finalizes the report for an aborted run.
func (b *Builder) Fail(now time.Time) {
	b.finish(models.ReportFailed, now)
}

func (b *Builder) finish(status models.ReportStatus, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	end := now.UTC()
	b.report.EndTime = &end
	b.report.Status = status
}

// Snapshot returns a deep copy of the report in its current state.
// While the run is in flight, progress is capped below 100.
func (b *Builder) Snapshot() models.ValidationReport {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.report
	out.PerCollection = make(map[string]models.CollectionStats, len(b.report.PerCollection))
	for k, v := range b.report.PerCollection {
		out.PerCollection[k] = v
	}
	out.SampleIssues = append([]models.SampleIssue(nil), b.report.SampleIssues...)
	out.Fixes = append([]models.URLFix(nil), b.report.Fixes...)
	out.WriteFailures = append([]models.WriteFailure(nil), b.report.WriteFailures...)
	if b.report.EndTime != nil {
		end := *b.report.EndTime
		out.EndTime = &end
	}

	out.ProgressPercent = b.progressLocked()
	return out
}

func (b *Builder) progressLocked() int {
	if b.report.Status != models.ReportRunning {
		return 100
	}
	if b.total <= 0 {
		return 0
	}
	pct := b.report.RecordsScanned * 100 / b.total
	if pct > 99 {
		pct = 99
	}
	return pct
}
