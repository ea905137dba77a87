// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/etoile-yachts/shipshape/internal/models"
	"github.com/etoile-yachts/shipshape/internal/store"
	"github.com/etoile-yachts/shipshape/internal/tasks"
)

// ReadyChecker reports whether a subsystem can serve traffic.
// The returned error names what is broken.
type ReadyChecker func() error

// Handler serves the admin API over the task service.
type Handler struct {
	service *tasks.Service
	checks  map[string]ReadyChecker
	started time.Time
	logger  zerolog.Logger
}

// NewHandler creates the admin API handler. checks are per-subsystem
// readiness probes keyed by component name ("store", "queue").
func NewHandler(service *tasks.Service, checks map[string]ReadyChecker, logger zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		checks:  checks,
		started: time.Now(),
		logger:  logger.With().Str("component", "api").Logger(),
	}
}

// TriggerFixRequest is the body accepted by the fix trigger. An empty
// collection list targets every known collection.
type TriggerFixRequest struct {
	Collections []string `json:"collections" validate:"omitempty,dive,required"`
}

// TriggerValidation enqueues a validate-all run.
//
// POST /api/v1/reconcile/validate-all
func (h *Handler) TriggerValidation(w http.ResponseWriter, r *http.Request) {
	task, err := h.service.TriggerValidation(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "TASK_TRIGGER_FAILED", "Failed to enqueue validation task", err)
		return
	}
	respondSuccess(w, http.StatusAccepted, task)
}

// TriggerCollection enqueues a validation run for one collection.
//
// POST /api/v1/reconcile/validate-collection/{collection}
func (h *Handler) TriggerCollection(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	task, err := h.service.TriggerCollection(r.Context(), collection)
	if err != nil {
		if errors.Is(err, tasks.ErrUnknownCollection) {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown collection: "+sanitizeLogValue(collection), nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "TASK_TRIGGER_FAILED", "Failed to enqueue validation task", err)
		return
	}
	respondSuccess(w, http.StatusAccepted, task)
}

// TriggerFix enqueues a relative-URL repair run.
//
// POST /api/v1/reconcile/fix-relative-urls
func (h *Handler) TriggerFix(w http.ResponseWriter, r *http.Request) {
	var req TriggerFixRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body", err)
			return
		}
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	task, err := h.service.TriggerFix(r.Context(), req.Collections)
	if err != nil {
		if errors.Is(err, tasks.ErrUnknownCollection) {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "TASK_TRIGGER_FAILED", "Failed to enqueue fix task", err)
		return
	}
	respondSuccess(w, http.StatusAccepted, task)
}

// ListTasks returns all tasks, newest first. The limit query parameter
// caps the result; 0 means everything.
//
// GET /api/v1/reconcile/tasks
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.Tasks(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to list tasks", err)
		return
	}

	if limit := getIntParam(r, "limit", 0); limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	respondSuccess(w, http.StatusOK, all)
}

// GetTask returns one task.
//
// GET /api/v1/reconcile/tasks/{id}
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	task, err := h.service.Task(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Task not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to load task", err)
		return
	}
	respondSuccess(w, http.StatusOK, task)
}

// RetryTask re-enqueues a failed task.
//
// POST /api/v1/reconcile/tasks/{id}/retry
func (h *Handler) RetryTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	task, err := h.service.Retry(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Task not found", nil)
		case errors.Is(err, models.ErrNotRetryable):
			respondError(w, http.StatusConflict, "TASK_NOT_RETRYABLE", "Only failed tasks can be retried", nil)
		default:
			respondError(w, http.StatusInternalServerError, "TASK_TRIGGER_FAILED", "Failed to retry task", err)
		}
		return
	}
	respondSuccess(w, http.StatusAccepted, task)
}

// ListReports returns all validation reports, newest first.
//
// GET /api/v1/reconcile/reports
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.Reports(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to list reports", err)
		return
	}

	if limit := getIntParam(r, "limit", 0); limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	respondSuccess(w, http.StatusOK, all)
}

// GetReport returns one validation report.
//
// GET /api/v1/reconcile/reports/{id}
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rep, err := h.service.Report(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Report not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to load report", err)
		return
	}
	respondSuccess(w, http.StatusOK, rep)
}

// ListSchedules returns every persisted schedule.
//
// GET /api/v1/reconcile/schedules
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	scheds, err := h.service.Schedules(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to list schedules", err)
		return
	}
	respondSuccess(w, http.StatusOK, scheds)
}

// UpdateScheduleRequest is the body accepted by the schedule update.
type UpdateScheduleRequest struct {
	Enabled       bool     `json:"enabled"`
	IntervalHours int      `json:"interval_hours" validate:"omitempty,min=1,max=168"`
	Collections   []string `json:"collections" validate:"omitempty,dive,required"`

	ProbeConcurrency int `json:"probe_concurrency" validate:"omitempty,min=1,max=64"`
	BatchLimit       int `json:"batch_limit" validate:"omitempty,min=1,max=500"`
}

// UpdateSchedule applies operator edits to a schedule.
//
// PUT /api/v1/reconcile/schedules/{id}
func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	sched, err := h.service.UpdateSchedule(r.Context(), models.ScheduleConfig{
		ID:            id,
		Enabled:       req.Enabled,
		IntervalHours: req.IntervalHours,
		Collections:   req.Collections,
		Worker: models.WorkerConfig{
			ProbeConcurrency: req.ProbeConcurrency,
			BatchLimit:       req.BatchLimit,
		},
	})
	if err != nil {
		if errors.Is(err, tasks.ErrUnknownCollection) {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
			return
		}
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid schedule configuration", err)
		return
	}
	respondSuccess(w, http.StatusOK, sched)
}

// HealthLive is the liveness probe. Always 200 while the process runs.
//
// GET /api/v1/health/live
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"status": "alive",
		"uptime": time.Since(h.started).String(),
	})
}

// HealthReady is the readiness probe. Reports 503 while any subsystem
// check fails.
//
// GET /api/v1/health/ready
func (h *Handler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	components := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(); err != nil {
			components[name] = err.Error()
			healthy = false
		} else {
			components[name] = "ok"
		}
	}

	status := http.StatusOK
	overall := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"status":     overall,
			"components": components,
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}
