// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// GarbageCollector matches the store's value-log GC method. Satisfied
// by *store.BadgerStore.
type GarbageCollector interface {
	RunGC(discardRatio float64) bool
}

// StoreGCService periodically runs value-log garbage collection. Badger
// never reclaims value-log space on its own; without this loop a
// long-lived deployment grows without bound.
type StoreGCService struct {
	store        GarbageCollector
	interval     time.Duration
	discardRatio float64
	logger       zerolog.Logger
}

// NewStoreGCService creates the GC loop.
func NewStoreGCService(store GarbageCollector, interval time.Duration, discardRatio float64, logger zerolog.Logger) *StoreGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if discardRatio <= 0 || discardRatio >= 1 {
		discardRatio = 0.5
	}
	return &StoreGCService{
		store:        store,
		interval:     interval,
		discardRatio: discardRatio,
		logger:       logger.With().Str("component", "store-gc").Logger(),
	}
}

// Serve implements suture.Service. A single tick keeps invoking GC
// until no more value-log files can be reclaimed.
func (s *StoreGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			reclaimed := 0
			for s.store.RunGC(s.discardRatio) {
				reclaimed++
			}
			if reclaimed > 0 {
				s.logger.Debug().Int("files", reclaimed).Msg("Value-log GC reclaimed files")
			}
		}
	}
}

func (s *StoreGCService) String() string { return "store-gc" }
