// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

// Package tasks owns the reconciliation task lifecycle: the admin
// service that creates and retries tasks, the queue worker that
// executes them, and the schedule runner that triggers recurring
// validation.
package tasks

import (
	"context"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/etoile-yachts/shipshape/internal/models"
	"github.com/etoile-yachts/shipshape/internal/store"
)

// Reserved collections; the pipeline never scans these as data.
const (
	tasksCollection     = "_reconcile_tasks"
	schedulesCollection = "_reconcile_schedules"
)

// Repository persists tasks and schedules in the document store.
type Repository struct {
	store  store.Store
	logger zerolog.Logger
}

// NewRepository creates a task repository over the given store.
func NewRepository(st store.Store, logger zerolog.Logger) *Repository {
	return &Repository{
		store:  st,
		logger: logger.With().Str("component", "task-repository").Logger(),
	}
}

// SaveTask writes the task record, replacing any previous state.
func (r *Repository) SaveTask(ctx context.Context, task models.FixTask) error {
	fields, err := encode(task)
	if err != nil {
		return fmt.Errorf("encoding task %s: %w", task.ID, err)
	}
	if err := r.store.Set(ctx, tasksCollection, task.ID, fields); err != nil {
		return fmt.Errorf("saving task %s: %w", task.ID, err)
	}
	return nil
}

// GetTask returns one task by ID.
func (r *Repository) GetTask(ctx context.Context, id string) (models.FixTask, error) {
	fields, err := r.store.Get(ctx, tasksCollection, id)
	if err != nil {
		return models.FixTask{}, err
	}
	var task models.FixTask
	if err := decode(fields, &task); err != nil {
		return models.FixTask{}, fmt.Errorf("decoding task %s: %w", id, err)
	}
	return task, nil
}

// ListTasks returns all tasks, newest first.
func (r *Repository) ListTasks(ctx context.Context) ([]models.FixTask, error) {
	var out []models.FixTask
	err := r.store.Scan(ctx, tasksCollection, func(id string, fields map[string]interface{}) error {
		var task models.FixTask
		if err := decode(fields, &task); err != nil {
			r.logger.Warn().Str("task_id", id).Err(err).Msg("Skipping undecodable task")
			return nil
		}
		out = append(out, task)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// SaveSchedule writes a schedule configuration.
func (r *Repository) SaveSchedule(ctx context.Context, sched models.ScheduleConfig) error {
	fields, err := encode(sched)
	if err != nil {
		return fmt.Errorf("encoding schedule %s: %w", sched.ID, err)
	}
	if err := r.store.Set(ctx, schedulesCollection, sched.ID, fields); err != nil {
		return fmt.Errorf("saving schedule %s: %w", sched.ID, err)
	}
	return nil
}

// GetSchedule returns one schedule by ID.
func (r *Repository) GetSchedule(ctx context.Context, id string) (models.ScheduleConfig, error) {
	fields, err := r.store.Get(ctx, schedulesCollection, id)
	if err != nil {
		return models.ScheduleConfig{}, err
	}
	var sched models.ScheduleConfig
	if err := decode(fields, &sched); err != nil {
		return models.ScheduleConfig{}, fmt.Errorf("decoding schedule %s: %w", id, err)
	}
	return sched, nil
}

// ListSchedules returns every schedule.
func (r *Repository) ListSchedules(ctx context.Context) ([]models.ScheduleConfig, error) {
	var out []models.ScheduleConfig
	err := r.store.Scan(ctx, schedulesCollection, func(id string, fields map[string]interface{}) error {
		var sched models.ScheduleConfig
		if err := decode(fields, &sched); err != nil {
			r.logger.Warn().Str("schedule_id", id).Err(err).Msg("Skipping undecodable schedule")
			return nil
		}
		out = append(out, sched)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func encode(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func decode(fields map[string]interface{}, out interface{}) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
