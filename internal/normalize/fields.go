// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

// Package normalize coerces raw heterogeneous documents into the
// canonical record shape. Every field's value is computed by an explicit
// per-field precedence list: the canonical name wins, then each known
// legacy alias in the order listed here, then a type-appropriate default.
// Precedence is total and deterministic, so normalizing an
// already-canonical record is a no-op.
package normalize

// FieldKind selects the coercion applied to a resolved field value.
type FieldKind int

const (
	KindString FieldKind = iota
	KindBool
	KindNumber
	KindTimestamp
	KindStringArray
	KindMedia
)

// FieldSpec declares one canonical field: its authoritative name, its
// legacy aliases in precedence order (most recent schema first), and the
// coercion kind. Default applies when every name is absent or null.
type FieldSpec struct {
	Name    string
	Aliases []string
	Kind    FieldKind
	Default interface{}
}

// collectionSpecs maps each reconciled collection to its field table.
//
// Alias order is a fixed editorial decision, not an inference: when two
// legacy aliases disagree (an "availability_status" and an "isAvailable"
// both present with different values) the earlier entry wins, and the
// order below is covered by tests so a reordering is a visible change.
var collectionSpecs = map[string][]FieldSpec{
	"unified_yacht_experiences": {
		{Name: "name", Aliases: []string{"title"}, Kind: KindString, Default: ""},
		{Name: "description", Aliases: []string{"summary"}, Kind: KindString, Default: ""},
		{Name: "available", Aliases: []string{"availability_status", "isAvailable"}, Kind: KindBool, Default: false},
		{Name: "price", Aliases: []string{"pricing", "price_per_day"}, Kind: KindNumber, Default: float64(0)},
		{Name: "capacity", Aliases: []string{"max_guests"}, Kind: KindNumber, Default: float64(0)},
		{Name: "duration_hours", Aliases: []string{"duration"}, Kind: KindNumber, Default: float64(0)},
		{Name: "tags", Aliases: []string{"features", "categories"}, Kind: KindStringArray, Default: nil},
		{Name: "media", Aliases: []string{"imageUrls", "image_urls", "images"}, Kind: KindMedia, Default: nil},
		{Name: "created_at", Aliases: []string{"createdDate", "created"}, Kind: KindTimestamp, Default: nil},
		{Name: "updated_at", Aliases: []string{"lastUpdatedDate", "updated"}, Kind: KindTimestamp, Default: nil},
	},
	"products_add_ons": {
		{Name: "name", Aliases: []string{"title", "product_name"}, Kind: KindString, Default: ""},
		{Name: "description", Aliases: []string{"summary"}, Kind: KindString, Default: ""},
		{Name: "available", Aliases: []string{"availability_status", "isAvailable"}, Kind: KindBool, Default: false},
		{Name: "price", Aliases: []string{"pricing", "cost"}, Kind: KindNumber, Default: float64(0)},
		{Name: "category", Aliases: []string{"type"}, Kind: KindString, Default: ""},
		{Name: "media", Aliases: []string{"imageUrls", "image_urls", "images"}, Kind: KindMedia, Default: nil},
		{Name: "created_at", Aliases: []string{"createdDate", "created"}, Kind: KindTimestamp, Default: nil},
	},
	"articles_and_guides": {
		{Name: "title", Aliases: []string{"name", "headline"}, Kind: KindString, Default: ""},
		{Name: "author", Aliases: []string{"author_name", "writer"}, Kind: KindString, Default: ""},
		{Name: "body", Aliases: []string{"content", "text"}, Kind: KindString, Default: ""},
		{Name: "tags", Aliases: []string{"categories"}, Kind: KindStringArray, Default: nil},
		{Name: "media", Aliases: []string{"imageUrls", "images", "cover_image"}, Kind: KindMedia, Default: nil},
		{Name: "published_at", Aliases: []string{"publish_date", "createdDate"}, Kind: KindTimestamp, Default: nil},
	},
	"event_announcements": {
		{Name: "title", Aliases: []string{"name", "event_name"}, Kind: KindString, Default: ""},
		{Name: "description", Aliases: []string{"summary", "details"}, Kind: KindString, Default: ""},
		{Name: "location", Aliases: []string{"venue"}, Kind: KindString, Default: ""},
		{Name: "media", Aliases: []string{"imageUrls", "images", "banner"}, Kind: KindMedia, Default: nil},
		{Name: "starts_at", Aliases: []string{"start_date", "event_date"}, Kind: KindTimestamp, Default: nil},
		{Name: "created_at", Aliases: []string{"createdDate", "created"}, Kind: KindTimestamp, Default: nil},
	},
}

// Specs returns the field table for a collection, or nil when the
// collection is not reconciled.
func Specs(collection string) []FieldSpec {
	return collectionSpecs[collection]
}

// KnownCollection reports whether a field table exists for the collection.
func KnownCollection(collection string) bool {
	_, ok := collectionSpecs[collection]
	return ok
}
