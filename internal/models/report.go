// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package models

import "time"

// ReportStatus is the lifecycle state of a ValidationReport.
type ReportStatus string

const (
	ReportRunning   ReportStatus = "running"
	ReportCompleted ReportStatus = "completed"
	ReportFailed    ReportStatus = "failed"
)

// CollectionStats holds per-collection validation counts.
type CollectionStats struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
	Missing int `json:"missing"`
}

// SampleIssue is one diagnosed problem with full remediation context.
// The report keeps only a capped sample of these; totals carry the rest.
type SampleIssue struct {
	Collection string        `json:"collection"`
	RecordID   string        `json:"record_id"`
	FieldPath  string        `json:"field_path"`
	State      ValidityState `json:"state"`
	Reason     string        `json:"reason"`
	HTTPStatus int           `json:"http_status,omitempty"`
}

// URLFix records one repaired media URL, for reporting only. It carries
// no ownership over the record it was discovered in.
type URLFix struct {
	Collection string `json:"collection"`
	RecordID   string `json:"record_id"`
	FieldPath  string `json:"field_path"`
	Original   string `json:"original"`
	Resolved   string `json:"resolved"`
}

// WriteFailure records a record whose batch commit failed after retry.
type WriteFailure struct {
	Collection string `json:"collection"`
	RecordID   string `json:"record_id"`
	Reason     string `json:"reason"`
}

// ValidationReport aggregates per-run statistics and sample diagnostics.
// Reports are append-only: created at task start, appended to during the
// run, immutable once Status is completed. Later runs never rewrite them.
type ValidationReport struct {
	ID              string                     `json:"id"`
	TaskID          string                     `json:"task_id"`
	StartTime       time.Time                  `json:"start_time"`
	EndTime         *time.Time                 `json:"end_time,omitempty"`
	Status          ReportStatus               `json:"status"`
	Totals          CollectionStats            `json:"totals"`
	PerCollection   map[string]CollectionStats `json:"per_collection"`
	SampleIssues    []SampleIssue              `json:"sample_issues"`
	Fixes           []URLFix                   `json:"fixes,omitempty"`
	WriteFailures   []WriteFailure             `json:"write_failures,omitempty"`
	RecordsScanned  int                        `json:"records_scanned"`
	RecordsUpdated  int                        `json:"records_updated"`
	ProgressPercent int                        `json:"progress_percent"`
}
