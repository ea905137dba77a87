// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

// Package models defines the shared data types for the reconciliation
// pipeline: canonical records, media references, fix tasks, validation
// reports, schedule configuration and the API response envelope.
package models

import (
	"strings"
)

// SchemaVersion is stamped onto every normalized record so later runs can
// detect records still carrying stale shapes.
const SchemaVersion = 2

// Collections reconciled by default. The document store is schema-less;
// these names are the only shape contract the pipeline assumes.
const (
	CollectionYachtExperiences = "unified_yacht_experiences"
	CollectionServiceAddOns    = "products_add_ons"
	CollectionArticles         = "articles_and_guides"
	CollectionEvents           = "event_announcements"
)

// DefaultCollections returns the collections a validate-all run targets
// when the caller does not narrow the set.
func DefaultCollections() []string {
	return []string{
		CollectionYachtExperiences,
		CollectionServiceAddOns,
		CollectionArticles,
		CollectionEvents,
	}
}

// MediaType distinguishes image and video references.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// ValidityState classifies a media reference after a validation probe.
// Exactly one state applies to every reference.
type ValidityState string

const (
	ValidityValid   ValidityState = "valid"
	ValidityInvalid ValidityState = "invalid"
	ValidityMissing ValidityState = "missing"
)

// InferMediaType guesses image vs video from a URL when the reference
// carries no declared type.
func InferMediaType(url string) MediaType {
	lower := strings.ToLower(url)
	if idx := strings.IndexAny(lower, "?#"); idx >= 0 {
		lower = lower[:idx]
	}
	for _, ext := range []string{".mp4", ".mov", ".webm", ".avi", ".mkv"} {
		if strings.HasSuffix(lower, ext) {
			return MediaTypeVideo
		}
	}
	if strings.Contains(lower, "video") {
		return MediaTypeVideo
	}
	return MediaTypeImage
}

// MediaReference is a typed media attachment embedded in a record.
// It is derived state: recomputed every validation run, never persisted
// independently of its parent record.
type MediaReference struct {
	Type MediaType `json:"type"`
	URL  string    `json:"url"`
}

// CanonicalRecord is the normalized, version-tagged view of a stored
// document. RawFields retains the legacy shape (dual write: canonical
// values are derived and re-computable, never the sole source of truth).
type CanonicalRecord struct {
	Collection    string
	ID            string
	Fields        map[string]interface{}
	RawFields     map[string]interface{}
	SchemaVersion int
}

// Media extracts the media references from the canonical fields.
// Returns nil when the record carries no media field.
func (r *CanonicalRecord) Media() []MediaReference {
	refs, _ := r.Fields["media"].([]MediaReference)
	return refs
}
