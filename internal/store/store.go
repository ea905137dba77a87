// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

// Package store provides the schema-less document store the pipeline
// reads and repairs. Documents live in named collections; the store
// never assumes server-enforced shape. The production implementation is
// BadgerDB with one key per document; tests use the same implementation
// in-memory.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Document is one stored record with its collection-scoped ID.
type Document struct {
	ID     string
	Fields map[string]interface{}
}

// MergeMode selects how a batched write combines with the stored document.
type MergeMode int

const (
	// MergeFields shallow-merges top-level fields into the existing
	// document, preserving fields not named in the update. Used by the
	// normalizer, which must keep legacy aliases intact (dual write).
	MergeFields MergeMode = iota

	// MergeFieldPaths treats each update key as a dotted field path
	// (array indices included, e.g. "media.2.url") and sets exactly that
	// leaf, leaving sibling fields undisturbed. Used by the URL resolver.
	MergeFieldPaths
)

// Op is a single batched write against one document.
type Op struct {
	Collection string
	ID         string
	Mode       MergeMode
	Fields     map[string]interface{}
}

// BatchCommitter commits a group of ops atomically. A group either
// commits in full or leaves the store untouched.
type BatchCommitter interface {
	ApplyBatch(ctx context.Context, ops []Op) error
}

// Store is the document-store surface the pipeline depends on.
type Store interface {
	BatchCommitter

	// Get returns the fields of one document.
	Get(ctx context.Context, collection, id string) (map[string]interface{}, error)

	// Set replaces one document.
	Set(ctx context.Context, collection, id string, fields map[string]interface{}) error

	// Scan streams every document in a collection in key order.
	// Returning an error from fn stops the scan.
	Scan(ctx context.Context, collection string, fn func(id string, fields map[string]interface{}) error) error

	// Count returns the number of documents in a collection.
	Count(ctx context.Context, collection string) (int, error)

	// Close releases the underlying database.
	Close() error
}
