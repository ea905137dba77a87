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

	"github.com/rs/zerolog"

	"github.com/etoile-yachts/shipshape/internal/media"
	"github.com/etoile-yachts/shipshape/internal/metrics"
	"github.com/etoile-yachts/shipshape/internal/models"
	"github.com/etoile-yachts/shipshape/internal/normalize"
	"github.com/etoile-yachts/shipshape/internal/report"
	"github.com/etoile-yachts/shipshape/internal/store"
)

// progressSaveEvery is the record interval between persisted report
// snapshots, so progress survives a worker crash.
const progressSaveEvery = 200

// Worker executes reconciliation tasks delivered off the queue.
//
// Delivery is at least once. The worker tolerates redelivery two ways:
// a task already terminal is skipped outright, and a rerun of an
// interrupted task is harmless because every pipeline stage is
// idempotent (normalization and URL resolution converge, reports are
// per-run documents keyed by a fresh ID).
type Worker struct {
	store      store.Store
	tasks      *Repository
	reports    *report.Repository
	normalizer *normalize.Normalizer
	validator  *media.Validator
	resolver   *media.Resolver
	batchLimit int
	logger     zerolog.Logger
	now        func() time.Time
}

// NewWorker creates a task worker over the given pipeline stages.
func NewWorker(
	st store.Store,
	tasks *Repository,
	reports *report.Repository,
	validator *media.Validator,
	resolver *media.Resolver,
	batchLimit int,
	logger zerolog.Logger,
) *Worker {
	return &Worker{
		store:      st,
		tasks:      tasks,
		reports:    reports,
		normalizer: normalize.New(logger),
		validator:  validator,
		resolver:   resolver,
		batchLimit: batchLimit,
		logger:     logger.With().Str("component", "task-worker").Logger(),
		now:        time.Now,
	}
}

// Handle processes one task delivery. A nil return acks the message; an
// error nacks it for redelivery. Permanent failures (the run itself
// erred) mark the task failed and ack, leaving retry to the operator.
func (w *Worker) Handle(ctx context.Context, msg models.TaskMessage) error {
	task, err := w.tasks.GetTask(ctx, msg.TaskID)
	if errors.Is(err, store.ErrNotFound) {
		// Tasks are persisted before publish, so an unknown ID is not
		// going to appear on redelivery either.
		w.logger.Warn().Str("task_id", msg.TaskID).Msg("Dropping message for unknown task")
		return nil
	}
	if err != nil {
		return err
	}

	if task.Status.Terminal() {
		metrics.RecordTaskRedelivery()
		w.logger.Info().
			Str("task_id", task.ID).
			Str("status", string(task.Status)).
			Msg("Skipping redelivered task already in terminal state")
		return nil
	}

	start := w.now()
	if task.Status == models.TaskPending {
		if err := task.Transition(models.TaskProcessing, start); err != nil {
			return err
		}
		metrics.RecordTaskTransition(string(models.TaskPending), string(models.TaskProcessing))
	}

	builder := report.NewBuilder(task.ID, start)
	task.ReportID = builder.Snapshot().ID
	if err := w.tasks.SaveTask(ctx, task); err != nil {
		return err
	}
	if err := w.reports.Save(ctx, builder.Snapshot()); err != nil {
		return err
	}

	w.logger.Info().
		Str("task_id", task.ID).
		Str("kind", string(task.Kind)).
		Str("report_id", task.ReportID).
		Msg("Task run starting")

	runErr := w.run(ctx, task, builder)
	end := w.now()

	if runErr != nil {
		if ctx.Err() != nil {
			// Shutdown, not failure. Leave the task in processing and nack
			// so a later delivery resumes the work.
			return runErr
		}

		builder.Fail(end)
		task.Error = runErr.Error()
		if terr := task.Transition(models.TaskFailed, end); terr == nil {
			metrics.RecordTaskTransition(string(models.TaskProcessing), string(models.TaskFailed))
		}
		w.persistOutcome(ctx, task, builder)
		w.logger.Error().Str("task_id", task.ID).Err(runErr).Msg("Task run failed")
		return nil
	}

	builder.Complete(end)
	if terr := task.Transition(models.TaskCompleted, end); terr == nil {
		metrics.RecordTaskTransition(string(models.TaskProcessing), string(models.TaskCompleted))
	}
	w.persistOutcome(ctx, task, builder)
	metrics.RecordTaskDuration(string(task.Kind), end.Sub(start))

	snap := builder.Snapshot()
	w.logger.Info().
		Str("task_id", task.ID).
		Int("records_scanned", snap.RecordsScanned).
		Int("records_updated", snap.RecordsUpdated).
		Int("invalid", snap.Totals.Invalid).
		Int("missing", snap.Totals.Missing).
		Dur("duration", end.Sub(start)).
		Msg("Task run completed")
	return nil
}

// persistOutcome saves the final task and report state. Persistence
// errors at this point are logged, not returned; nacking now would
// rerun a finished task.
func (w *Worker) persistOutcome(ctx context.Context, task models.FixTask, builder *report.Builder) {
	if err := w.tasks.SaveTask(ctx, task); err != nil {
		w.logger.Error().Str("task_id", task.ID).Err(err).Msg("Failed to persist task outcome")
	}
	if err := w.reports.Save(ctx, builder.Snapshot()); err != nil {
		w.logger.Error().Str("report_id", task.ReportID).Err(err).Msg("Failed to persist report")
	}
}

func (w *Worker) run(ctx context.Context, task models.FixTask, builder *report.Builder) error {
	collections := task.TargetCollections
	if len(collections) == 0 {
		collections = models.DefaultCollections()
	}

	total := 0
	for _, collection := range collections {
		n, err := w.store.Count(ctx, collection)
		if err != nil {
			return fmt.Errorf("counting %s: %w", collection, err)
		}
		total += n
	}
	builder.SetExpectedRecords(total)

	// A task created from a schedule carries that schedule's worker
	// limits; anything unset falls back to process config.
	limit := w.batchLimit
	if task.Worker.BatchLimit > 0 {
		limit = task.Worker.BatchLimit
	}

	writer := store.NewBatchWriter(w.store, limit, w.logger)
	processed := 0

	for _, collection := range collections {
		err := w.store.Scan(ctx, collection, func(id string, fields map[string]interface{}) error {
			metrics.RecordScan(collection)
			builder.RecordScanned()

			var err error
			if task.Kind == models.TaskFixRelativeURLs {
				err = w.fixRecord(ctx, writer, builder, collection, id, fields)
			} else {
				err = w.validateRecord(ctx, writer, builder, task.Worker.ProbeConcurrency, collection, id, fields)
			}
			if err != nil {
				return err
			}

			processed++
			if processed%progressSaveEvery == 0 {
				if err := w.reports.Save(ctx, builder.Snapshot()); err != nil {
					w.logger.Warn().Err(err).Msg("Failed to checkpoint report progress")
				}
			}
			return ctx.Err()
		})
		if err != nil {
			return fmt.Errorf("scanning %s: %w", collection, err)
		}
	}

	if err := writer.Flush(ctx); err != nil {
		return err
	}
	builder.AddWriteFailures(writer.Failures())
	return nil
}

// validateRecord normalizes one document, queues its schema updates and
// classifies every media reference. probeLimit caps concurrent probes
// for this run; non-positive uses the validator's configured default.
func (w *Worker) validateRecord(ctx context.Context, writer *store.BatchWriter, builder *report.Builder, probeLimit int, collection, id string, fields map[string]interface{}) error {
	res, err := w.normalizer.Normalize(collection, id, fields)
	if err != nil {
		return err
	}

	if res.Changed {
		metrics.RecordNormalization(collection)
		builder.RecordUpdated()
		if err := writer.Queue(ctx, store.Op{
			Collection: collection,
			ID:         id,
			Mode:       store.MergeFields,
			Fields:     res.Updates,
		}); err != nil {
			return err
		}
	}

	refs := res.Record.Media()
	checks := w.validator.ValidateAllLimit(ctx, refs, probeLimit)
	for i, check := range checks {
		builder.Observe(collection, id, fmt.Sprintf("media.%d.url", i), check.State, check.Reason, check.HTTPStatus)
	}
	return nil
}

// fixRecord rewrites relative and non-durable media URLs in place,
// queueing one field-path write per fixed leaf.
func (w *Worker) fixRecord(ctx context.Context, writer *store.BatchWriter, builder *report.Builder, collection, id string, fields map[string]interface{}) error {
	fixes := w.resolver.ResolveRecord(fields)
	if len(fixes) == 0 {
		return nil
	}

	update := make(map[string]interface{}, len(fixes))
	for _, fix := range fixes {
		update[fix.Path] = fix.Resolved
		builder.AddFix(models.URLFix{
			Collection: collection,
			RecordID:   id,
			FieldPath:  fix.Path,
			Original:   fix.Original,
			Resolved:   fix.Resolved,
		})
		metrics.RecordURLFix(collection)
	}
	builder.RecordUpdated()

	return writer.Queue(ctx, store.Op{
		Collection: collection,
		ID:         id,
		Mode:       store.MergeFieldPaths,
		Fields:     update,
	})
}
