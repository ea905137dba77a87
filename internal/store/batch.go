// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package store

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/etoile-yachts/shipshape/internal/metrics"
	"github.com/etoile-yachts/shipshape/internal/models"
)

// DefaultBatchLimit is the per-commit operation cap imposed by the
// underlying store.
const DefaultBatchLimit = 500

// BatchWriter accumulates ops and commits them in groups of at most
// `limit` operations. Each group commits atomically; a failed group is
// retried exactly once and then every item in the group is recorded as a
// write failure. A failed group never aborts the overall run.
//
// BatchWriter is not safe for concurrent use; each pipeline run owns one.
type BatchWriter struct {
	committer BatchCommitter
	limit     int
	logger    zerolog.Logger

	pending  []Op
	commits  int
	written  int
	failures []models.WriteFailure
}

// NewBatchWriter creates a writer committing through the given store.
// A non-positive limit falls back to DefaultBatchLimit.
func NewBatchWriter(committer BatchCommitter, limit int, logger zerolog.Logger) *BatchWriter {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}
	return &BatchWriter{
		committer: committer,
		limit:     limit,
		logger:    logger.With().Str("component", "batch-writer").Logger(),
	}
}

// Queue adds one op, committing the current group when it reaches the
// limit. The returned error is only a context cancellation; commit
// failures degrade to recorded write failures.
func (w *BatchWriter) Queue(ctx context.Context, op Op) error {
	w.pending = append(w.pending, op)
	if len(w.pending) >= w.limit {
		return w.commit(ctx)
	}
	return ctx.Err()
}

// Flush commits any remaining ops. Call once at the end of a run.
func (w *BatchWriter) Flush(ctx context.Context) error {
	if len(w.pending) == 0 {
		return ctx.Err()
	}
	return w.commit(ctx)
}

func (w *BatchWriter) commit(ctx context.Context) error {
	group := w.pending
	w.pending = nil

	err := w.committer.ApplyBatch(ctx, group)
	if err != nil {
		w.logger.Warn().Err(err).Int("ops", len(group)).Msg("Batch commit failed, retrying once")
		err = w.committer.ApplyBatch(ctx, group)
	}

	w.commits++
	metrics.RecordBatchCommit(err == nil, len(group))
	if err == nil {
		w.written += len(group)
		return ctx.Err()
	}

	// Second failure: every item in the group becomes a reported write
	// failure and the run continues with subsequent batches.
	for _, op := range group {
		w.failures = append(w.failures, models.WriteFailure{
			Collection: op.Collection,
			RecordID:   op.ID,
			Reason:     err.Error(),
		})
	}
	metrics.RecordWriteFailures(len(group))
	w.logger.Error().Err(err).Int("ops", len(group)).Msg("Batch commit failed after retry")
	return ctx.Err()
}

// Commits returns the number of group commits issued (including the
// group that failed after retry).
func (w *BatchWriter) Commits() int { return w.commits }

// Written returns the number of ops durably committed.
func (w *BatchWriter) Written() int { return w.written }

// Failures returns the write failures recorded so far.
func (w *BatchWriter) Failures() []models.WriteFailure { return w.failures }
