// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package tasks

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultCheckInterval is how often the runner re-reads schedules. The
// schedule itself is hour-grained; a minute of trigger slack is fine.
const DefaultCheckInterval = time.Minute

// Runner triggers validation tasks for due schedules. It re-reads
// persisted schedules every check interval, so operator edits take
// effect without a restart. Implements the suture service contract.
type Runner struct {
	service  *Service
	interval time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewRunner creates a schedule runner over the task service.
func NewRunner(service *Service, interval time.Duration, logger zerolog.Logger) *Runner {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	return &Runner{
		service:  service,
		interval: interval,
		logger:   logger.With().Str("component", "schedule-runner").Logger(),
		now:      time.Now,
	}
}

// Serve runs the schedule loop until the context is canceled.
func (r *Runner) Serve(ctx context.Context) error {
	r.logger.Info().Dur("check_interval", r.interval).Msg("Schedule runner started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// tick triggers every due schedule. Errors are logged and retried on
// the next tick; a broken store must not kill the runner.
func (r *Runner) tick(ctx context.Context) {
	schedules, err := r.service.Schedules(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to load schedules")
		return
	}

	now := r.now()
	for _, sched := range schedules {
		if !sched.Due(now) {
			continue
		}
		task, err := r.service.TriggerScheduled(ctx, sched)
		if err != nil {
			r.logger.Error().Str("schedule_id", sched.ID).Err(err).Msg("Scheduled trigger failed")
			continue
		}
		r.logger.Info().
			Str("schedule_id", sched.ID).
			Str("task_id", task.ID).
			Msg("Scheduled validation triggered")
	}
}

// String names the service in supervisor logs.
func (r *Runner) String() string { return "schedule-runner" }
