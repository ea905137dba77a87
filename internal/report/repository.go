// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package report

import (
	"context"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/etoile-yachts/shipshape/internal/models"
	"github.com/etoile-yachts/shipshape/internal/store"
)

// reportsCollection is reserved; the reconciler never scans it as data.
const reportsCollection = "_reconcile_reports"

// Repository persists reports in the same document store the pipeline
// repairs, under a reserved collection.
type Repository struct {
	store  store.Store
	logger zerolog.Logger
}

// NewRepository creates a report repository over the given store.
func NewRepository(st store.Store, logger zerolog.Logger) *Repository {
	return &Repository{
		store:  st,
		logger: logger.With().Str("component", "report-repository").Logger(),
	}
}

// Save writes the report, replacing any previous state for its ID.
// In-flight runs save periodically so progress survives a crash.
func (r *Repository) Save(ctx context.Context, rep models.ValidationReport) error {
	fields, err := toFields(rep)
	if err != nil {
		return fmt.Errorf("encoding report %s: %w", rep.ID, err)
	}
	if err := r.store.Set(ctx, reportsCollection, rep.ID, fields); err != nil {
		return fmt.Errorf("saving report %s: %w", rep.ID, err)
	}
	return nil
}

// Get returns one report by ID.
func (r *Repository) Get(ctx context.Context, id string) (models.ValidationReport, error) {
	fields, err := r.store.Get(ctx, reportsCollection, id)
	if err != nil {
		return models.ValidationReport{}, err
	}
	return fromFields(fields)
}

// List returns all reports, newest first.
func (r *Repository) List(ctx context.Context) ([]models.ValidationReport, error) {
	var reports []models.ValidationReport
	err := r.store.Scan(ctx, reportsCollection, func(id string, fields map[string]interface{}) error {
		rep, err := fromFields(fields)
		if err != nil {
			// A corrupt report document must not hide the rest.
			r.logger.Warn().Str("report_id", id).Err(err).Msg("Skipping undecodable report")
			return nil
		}
		reports = append(reports, rep)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].StartTime.After(reports[j].StartTime)
	})
	return reports, nil
}

func toFields(rep models.ValidationReport) (map[string]interface{}, error) {
	raw, err := json.Marshal(rep)
	if err != nil {
		return nil, err
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func fromFields(fields map[string]interface{}) (models.ValidationReport, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return models.ValidationReport{}, err
	}
	var rep models.ValidationReport
	if err := json.Unmarshal(raw, &rep); err != nil {
		return models.ValidationReport{}, err
	}
	return rep, nil
}
