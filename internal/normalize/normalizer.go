// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package normalize

import (
	"bytes"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/etoile-yachts/shipshape/internal/models"
)

// Diagnostic records one recovered coercion problem. Malformed field
// values fall back to type defaults and are reported; they are never
// fatal to the record or the run.
type Diagnostic struct {
	Field  string
	Reason string
}

// Result is the outcome of normalizing one raw document.
type Result struct {
	// Record is the canonical, version-tagged view.
	Record *models.CanonicalRecord

	// Updates holds the canonical fields whose stored value differs,
	// plus the schema_version stamp. Empty when the record was already
	// canonical. Written with merge semantics so legacy aliases survive
	// (dual write).
	Updates map[string]interface{}

	// Changed reports whether Updates carries anything to persist.
	Changed bool

	Diagnostics []Diagnostic
}

// Normalizer coerces raw heterogeneous documents into canonical records.
// It is stateless apart from its clock and safe for concurrent use.
type Normalizer struct {
	logger zerolog.Logger
	now    func() time.Time
}

// New creates a Normalizer.
func New(logger zerolog.Logger) *Normalizer {
	return &Normalizer{
		logger: logger.With().Str("component", "normalizer").Logger(),
		now:    time.Now,
	}
}

// Normalize produces the canonical view of one raw document. Given the
// same raw input the output is always identical, and normalizing an
// already-canonical record yields Changed == false.
func (n *Normalizer) Normalize(collection, id string, raw map[string]interface{}) (*Result, error) {
	specs := Specs(collection)
	if specs == nil {
		return nil, fmt.Errorf("no field table for collection %q", collection)
	}

	res := &Result{
		Record: &models.CanonicalRecord{
			Collection:    collection,
			ID:            id,
			Fields:        make(map[string]interface{}, len(specs)),
			RawFields:     raw,
			SchemaVersion: models.SchemaVersion,
		},
		Updates: map[string]interface{}{},
	}

	now := n.now()
	for _, spec := range specs {
		value, present, diag := n.resolveField(spec, raw, now)
		if diag != nil {
			res.Diagnostics = append(res.Diagnostics, *diag)
			n.logger.Debug().
				Str("collection", collection).
				Str("record_id", id).
				Str("field", diag.Field).
				Msg(diag.Reason)
		}
		if !present {
			continue
		}

		res.Record.Fields[spec.Name] = value
		if !jsonEqual(raw[spec.Name], value) {
			res.Updates[spec.Name] = value
		}
	}

	if stale(raw) {
		res.Updates["schema_version"] = models.SchemaVersion
	}

	// A record is only "changed" when a canonical value differs; a lone
	// version stamp with no value changes still counts, so stale records
	// stop showing up on later runs.
	res.Changed = len(res.Updates) > 0
	if !res.Changed {
		res.Updates = nil
	} else if _, ok := res.Updates["schema_version"]; !ok {
		res.Updates["schema_version"] = models.SchemaVersion
	}

	return res, nil
}

// resolveField applies the precedence list and kind coercion for one
// field. present is false when the field has no derivable value (every
// name absent and no usable default), in which case the canonical record
// omits it entirely.
func (n *Normalizer) resolveField(spec FieldSpec, raw map[string]interface{}, now time.Time) (value interface{}, present bool, diag *Diagnostic) {
	rawValue, found := firstPresent(spec, raw)

	switch spec.Kind {
	case KindString:
		if !found {
			return spec.Default, true, nil
		}
		s, ok := CoerceString(rawValue, spec.Default.(string))
		if !ok {
			return s, true, &Diagnostic{Field: spec.Name, Reason: "value has no string form, using default"}
		}
		return s, true, nil

	case KindBool:
		if !found {
			return spec.Default, true, nil
		}
		b, ok := CoerceBool(rawValue, spec.Default.(bool))
		if !ok {
			return b, true, &Diagnostic{Field: spec.Name, Reason: "value has no boolean form, using default"}
		}
		return b, true, nil

	case KindNumber:
		if !found {
			return spec.Default, true, nil
		}
		f, ok := CoerceNumber(rawValue, spec.Default.(float64))
		if !ok {
			return f, true, &Diagnostic{Field: spec.Name, Reason: "value is not numeric, using default"}
		}
		return f, true, nil

	case KindTimestamp:
		// Absent timestamps stay absent: stamping "now" on every run
		// would make normalization non-idempotent.
		if !found {
			return nil, false, nil
		}
		t, ok := CoerceTimestamp(rawValue, now)
		if !ok {
			return t, true, &Diagnostic{Field: spec.Name, Reason: "unparsable timestamp, falling back to now"}
		}
		return t, true, nil

	case KindStringArray:
		return CoerceStringArray(rawValue), true, nil

	case KindMedia:
		return CoerceMedia(rawValue), true, nil
	}

	return nil, false, nil
}

// firstPresent walks the precedence list: canonical name first, then each
// alias. A nil value counts as absent.
func firstPresent(spec FieldSpec, raw map[string]interface{}) (interface{}, bool) {
	if v, ok := raw[spec.Name]; ok && v != nil {
		return v, true
	}
	for _, alias := range spec.Aliases {
		if v, ok := raw[alias]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// stale reports whether the stored record lacks the current version stamp.
func stale(raw map[string]interface{}) bool {
	v, ok := raw["schema_version"]
	if !ok {
		return true
	}
	f, ok := toFloat(v)
	return !ok || int(f) != models.SchemaVersion
}

// jsonEqual compares values through their JSON encodings. The store
// round-trips every value through JSON, so this is exactly the equality
// that decides whether a write would change the document.
func jsonEqual(a, b interface{}) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}
