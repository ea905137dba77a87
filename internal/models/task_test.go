// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package models

import (
	"testing"
	"time"
)

func TestTaskTransitions(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		from    TaskStatus
		to      TaskStatus
		wantErr bool
	}{
		{"pending to processing", TaskPending, TaskProcessing, false},
		{"pending to failed", TaskPending, TaskFailed, false},
		{"processing to completed", TaskProcessing, TaskCompleted, false},
		{"processing to failed", TaskProcessing, TaskFailed, false},
		{"pending to completed skips processing", TaskPending, TaskCompleted, true},
		{"completed is terminal", TaskCompleted, TaskProcessing, true},
		{"failed is terminal", TaskFailed, TaskProcessing, true},
		{"completed cannot fail", TaskCompleted, TaskFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &FixTask{ID: "t1", Status: tt.from}
			err := task.Transition(tt.to, now)
			if (err != nil) != tt.wantErr {
				t.Errorf("Transition(%s -> %s) error = %v, wantErr %v", tt.from, tt.to, err, tt.wantErr)
			}
			if err == nil && task.Status != tt.to {
				t.Errorf("status = %s, want %s", task.Status, tt.to)
			}
			if err != nil && task.Status != tt.from {
				t.Errorf("failed transition mutated status to %s", task.Status)
			}
		})
	}
}

func TestTaskRetry(t *testing.T) {
	now := time.Now()

	task := &FixTask{ID: "t1", Status: TaskFailed, Error: "store unreachable"}
	if err := task.Retry(now); err != nil {
		t.Fatalf("Retry() on failed task: %v", err)
	}
	if task.Status != TaskPending {
		t.Errorf("status = %s, want pending", task.Status)
	}
	if task.RetryCount != 1 {
		t.Errorf("retry_count = %d, want 1", task.RetryCount)
	}
	if task.Error != "" {
		t.Errorf("error not cleared: %q", task.Error)
	}

	// Retry is only valid from failed.
	for _, status := range []TaskStatus{TaskPending, TaskProcessing, TaskCompleted} {
		task := &FixTask{ID: "t1", Status: status}
		if err := task.Retry(now); err == nil {
			t.Errorf("Retry() from %s should fail", status)
		}
	}
}

func TestTerminal(t *testing.T) {
	if TaskPending.Terminal() || TaskProcessing.Terminal() {
		t.Error("pending/processing must not be terminal")
	}
	if !TaskCompleted.Terminal() || !TaskFailed.Terminal() {
		t.Error("completed/failed must be terminal")
	}
}

func TestScheduleDue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-25 * time.Hour)
	recent := now.Add(-time.Hour)

	tests := []struct {
		name string
		cfg  ScheduleConfig
		want bool
	}{
		{"disabled never due", ScheduleConfig{Enabled: false, IntervalHours: 24}, false},
		{"zero interval never due", ScheduleConfig{Enabled: true}, false},
		{"never ran is due", ScheduleConfig{Enabled: true, IntervalHours: 24}, true},
		{"interval elapsed", ScheduleConfig{Enabled: true, IntervalHours: 24, LastRunAt: &past}, true},
		{"interval not elapsed", ScheduleConfig{Enabled: true, IntervalHours: 24, LastRunAt: &recent}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Due(now); got != tt.want {
				t.Errorf("Due() = %v, want %v", got, tt.want)
			}
		})
	}
}
