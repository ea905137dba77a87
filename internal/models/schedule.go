// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package models

import "time"

// DefaultScheduleID is the singleton recurring-validation schedule.
// Operators edit it through the admin API; the schedule runner reads it
// every check interval.
const DefaultScheduleID = "recurring-validation"

// WorkerConfig bounds a scheduled run's resource use.
type WorkerConfig struct {
	// ProbeConcurrency caps concurrent URL probes per record.
	ProbeConcurrency int `json:"probe_concurrency"`

	// BatchLimit caps operations per batch commit.
	BatchLimit int `json:"batch_limit"`
}

// ScheduleConfig is the mutable per-schedule configuration. It persists
// across runs and is updated out-of-band by an operator.
type ScheduleConfig struct {
	ID            string       `json:"id"`
	Enabled       bool         `json:"enabled"`
	IntervalHours int          `json:"interval_hours"`
	Collections   []string     `json:"collections"`
	Worker        WorkerConfig `json:"worker_config"`
	LastRunAt     *time.Time   `json:"last_run_at,omitempty"`
	LastTaskID    string       `json:"last_task_id,omitempty"`
}

// Due reports whether the schedule should trigger at the given instant.
func (s *ScheduleConfig) Due(now time.Time) bool {
	if !s.Enabled || s.IntervalHours <= 0 {
		return false
	}
	if s.LastRunAt == nil {
		return true
	}
	return now.Sub(*s.LastRunAt) >= time.Duration(s.IntervalHours)*time.Hour
}
