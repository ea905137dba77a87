// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotRetryable is returned when a retry is requested for a task that
// is not in the failed state.
var ErrNotRetryable = errors.New("task is not retryable")

// TaskKind identifies the work a FixTask performs.
type TaskKind string

const (
	TaskValidateAll        TaskKind = "validate-all"
	TaskValidateCollection TaskKind = "validate-collection"
	TaskFixRelativeURLs    TaskKind = "fix-relative-urls"
)

// TaskStatus is the lifecycle state of a FixTask.
//
// Transitions: pending -> processing -> {completed, failed}. A task never
// leaves a terminal state automatically; an explicit operator retry moves
// a failed task back to pending and increments RetryCount.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// FixTask is a unit of validation/fix work tracked through an explicit
// status lifecycle. Created by the scheduler, mutated by the worker that
// claims it, retained for audit.
type FixTask struct {
	ID                string       `json:"id"`
	Kind              TaskKind     `json:"kind"`
	TargetCollections []string     `json:"target_collections"`
	Worker            WorkerConfig `json:"worker_config"`
	Status            TaskStatus   `json:"status"`
	RetryCount        int          `json:"retry_count"`
	CreatedAt         time.Time    `json:"created_at"`
	LastUpdate        time.Time    `json:"last_update"`
	ReportID          string       `json:"report_id,omitempty"`
	Error             string       `json:"error,omitempty"`
}

// Transition validates and applies a status change.
// It rejects any move out of a terminal state and any skip of the
// processing stage; Retry is the only sanctioned way out of failed.
func (t *FixTask) Transition(to TaskStatus, now time.Time) error {
	allowed := map[TaskStatus][]TaskStatus{
		TaskPending:    {TaskProcessing, TaskFailed},
		TaskProcessing: {TaskCompleted, TaskFailed},
	}

	for _, next := range allowed[t.Status] {
		if next == to {
			t.Status = to
			t.LastUpdate = now
			return nil
		}
	}
	return fmt.Errorf("invalid task transition %s -> %s", t.Status, to)
}

// Retry moves a failed task back to pending for re-execution.
// This is the explicit operator transition; it is the only path that
// increments RetryCount.
func (t *FixTask) Retry(now time.Time) error {
	if t.Status != TaskFailed {
		return fmt.Errorf("%w: status %s", ErrNotRetryable, t.Status)
	}
	t.Status = TaskPending
	t.RetryCount++
	t.Error = ""
	t.LastUpdate = now
	return nil
}

// TaskMessage is the queue payload published for a task. The task record
// is persisted before this message is published, so a publish failure
// never leaves an orphaned, unobservable task. Attempt counts operator
// retries; it keeps the broker dedup key distinct per publish of the
// same task.
type TaskMessage struct {
	TaskID      string   `json:"task_id"`
	Kind        TaskKind `json:"kind"`
	Collections []string `json:"collections"`
	Attempt     int      `json:"attempt"`
}
