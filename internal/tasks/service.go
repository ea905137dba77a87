// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/etoile-yachts/shipshape/internal/metrics"
	"github.com/etoile-yachts/shipshape/internal/models"
	"github.com/etoile-yachts/shipshape/internal/normalize"
	"github.com/etoile-yachts/shipshape/internal/queue"
	"github.com/etoile-yachts/shipshape/internal/report"
)

// ErrUnknownCollection rejects a trigger naming a collection the
// pipeline has no field table for.
var ErrUnknownCollection = errors.New("unknown collection")

// Service is the admin surface for tasks, reports and schedules.
// Every trigger persists the task record before publishing its queue
// message, so a task is observable even when the publish fails.
type Service struct {
	tasks     *Repository
	reports   *report.Repository
	publisher queue.TaskPublisher
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService creates the task service.
func NewService(tasks *Repository, reports *report.Repository, publisher queue.TaskPublisher, logger zerolog.Logger) *Service {
	return &Service{
		tasks:     tasks,
		reports:   reports,
		publisher: publisher,
		logger:    logger.With().Str("component", "task-service").Logger(),
		now:       time.Now,
	}
}

// TriggerValidation enqueues a validation run over every collection.
func (s *Service) TriggerValidation(ctx context.Context) (models.FixTask, error) {
	return s.create(ctx, models.TaskValidateAll, models.DefaultCollections(), models.WorkerConfig{})
}

// TriggerCollection enqueues a validation run over one collection.
func (s *Service) TriggerCollection(ctx context.Context, collection string) (models.FixTask, error) {
	if !normalize.KnownCollection(collection) {
		return models.FixTask{}, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	return s.create(ctx, models.TaskValidateCollection, []string{collection}, models.WorkerConfig{})
}

// TriggerFix enqueues a relative-URL repair run. An empty collection
// list targets everything.
func (s *Service) TriggerFix(ctx context.Context, collections []string) (models.FixTask, error) {
	if len(collections) == 0 {
		collections = models.DefaultCollections()
	}
	for _, c := range collections {
		if !normalize.KnownCollection(c) {
			return models.FixTask{}, fmt.Errorf("%w: %s", ErrUnknownCollection, c)
		}
	}
	return s.create(ctx, models.TaskFixRelativeURLs, collections, models.WorkerConfig{})
}

// Retry moves a failed task back to pending and republishes it. Only
// failed tasks are retryable; anything else is rejected.
func (s *Service) Retry(ctx context.Context, taskID string) (models.FixTask, error) {
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return models.FixTask{}, err
	}

	now := s.now()
	if err := task.Retry(now); err != nil {
		return models.FixTask{}, err
	}
	metrics.RecordTaskTransition(string(models.TaskFailed), string(models.TaskPending))

	if err := s.tasks.SaveTask(ctx, task); err != nil {
		return models.FixTask{}, err
	}
	return s.publish(ctx, task)
}

// Task returns one task.
func (s *Service) Task(ctx context.Context, id string) (models.FixTask, error) {
	return s.tasks.GetTask(ctx, id)
}

// Tasks returns all tasks, newest first.
func (s *Service) Tasks(ctx context.Context) ([]models.FixTask, error) {
	return s.tasks.ListTasks(ctx)
}

// Report returns one validation report.
func (s *Service) Report(ctx context.Context, id string) (models.ValidationReport, error) {
	return s.reports.Get(ctx, id)
}

// Reports returns all reports, newest first.
func (s *Service) Reports(ctx context.Context) ([]models.ValidationReport, error) {
	return s.reports.List(ctx)
}

// Schedules returns every persisted schedule.
func (s *Service) Schedules(ctx context.Context) ([]models.ScheduleConfig, error) {
	return s.tasks.ListSchedules(ctx)
}

// UpdateSchedule applies operator edits to a schedule. Run bookkeeping
// (last run, last task) is preserved from the stored schedule; only the
// runner writes those.
func (s *Service) UpdateSchedule(ctx context.Context, sched models.ScheduleConfig) (models.ScheduleConfig, error) {
	if sched.ID == "" {
		sched.ID = models.DefaultScheduleID
	}
	if sched.Enabled && sched.IntervalHours <= 0 {
		return models.ScheduleConfig{}, fmt.Errorf("enabled schedule needs a positive interval, got %d", sched.IntervalHours)
	}
	if len(sched.Collections) == 0 {
		sched.Collections = models.DefaultCollections()
	}
	for _, c := range sched.Collections {
		if !normalize.KnownCollection(c) {
			return models.ScheduleConfig{}, fmt.Errorf("%w: %s", ErrUnknownCollection, c)
		}
	}

	if existing, err := s.tasks.GetSchedule(ctx, sched.ID); err == nil {
		sched.LastRunAt = existing.LastRunAt
		sched.LastTaskID = existing.LastTaskID
	}

	if err := s.tasks.SaveSchedule(ctx, sched); err != nil {
		return models.ScheduleConfig{}, err
	}
	s.logger.Info().
		Str("schedule_id", sched.ID).
		Bool("enabled", sched.Enabled).
		Int("interval_hours", sched.IntervalHours).
		Msg("Schedule updated")
	return sched, nil
}

// EnsureDefaultSchedule seeds the recurring-validation schedule on
// first boot. Existing schedules are left untouched.
func (s *Service) EnsureDefaultSchedule(ctx context.Context) error {
	if _, err := s.tasks.GetSchedule(ctx, models.DefaultScheduleID); err == nil {
		return nil
	}
	return s.tasks.SaveSchedule(ctx, models.ScheduleConfig{
		ID:            models.DefaultScheduleID,
		Enabled:       false,
		IntervalHours: 24,
		Collections:   models.DefaultCollections(),
		Worker: models.WorkerConfig{
			ProbeConcurrency: 4,
			BatchLimit:       500,
		},
	})
}

// TriggerScheduled creates a validation task for a due schedule and
// stamps the schedule's run bookkeeping. The schedule's worker limits
// ride on the task so the run honors them.
func (s *Service) TriggerScheduled(ctx context.Context, sched models.ScheduleConfig) (models.FixTask, error) {
	task, err := s.create(ctx, models.TaskValidateAll, sched.Collections, sched.Worker)
	if err != nil {
		return task, err
	}

	now := s.now()
	sched.LastRunAt = &now
	sched.LastTaskID = task.ID
	if err := s.tasks.SaveSchedule(ctx, sched); err != nil {
		// The task is already queued; a stale last-run stamp only risks
		// an extra run, which the pipeline tolerates.
		s.logger.Error().Str("schedule_id", sched.ID).Err(err).Msg("Failed to stamp schedule run")
	}
	return task, nil
}

func (s *Service) create(ctx context.Context, kind models.TaskKind, collections []string, worker models.WorkerConfig) (models.FixTask, error) {
	now := s.now()
	task := models.FixTask{
		ID:                uuid.NewString(),
		Kind:              kind,
		TargetCollections: collections,
		Worker:            worker,
		Status:            models.TaskPending,
		CreatedAt:         now,
		LastUpdate:        now,
	}

	if err := s.tasks.SaveTask(ctx, task); err != nil {
		return models.FixTask{}, fmt.Errorf("persisting task: %w", err)
	}
	return s.publish(ctx, task)
}

// publish sends the queue message for an already-persisted task. A
// publish failure marks the task failed so it stays visible and
// operator-retryable instead of silently vanishing.
func (s *Service) publish(ctx context.Context, task models.FixTask) (models.FixTask, error) {
	msg := models.TaskMessage{
		TaskID:      task.ID,
		Kind:        task.Kind,
		Collections: task.TargetCollections,
		Attempt:     task.RetryCount,
	}

	if err := s.publisher.PublishTask(ctx, msg); err != nil {
		from := task.Status
		if terr := task.Transition(models.TaskFailed, s.now()); terr == nil {
			task.Error = fmt.Sprintf("publish failed: %s", err)
			metrics.RecordTaskTransition(string(from), string(models.TaskFailed))
			if serr := s.tasks.SaveTask(ctx, task); serr != nil {
				s.logger.Error().Str("task_id", task.ID).Err(serr).Msg("Failed to record publish failure")
			}
		}
		return task, fmt.Errorf("publishing task %s: %w", task.ID, err)
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("kind", string(task.Kind)).
		Strs("collections", task.TargetCollections).
		Msg("Task queued")
	return task, nil
}
