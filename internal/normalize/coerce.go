// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package normalize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/etoile-yachts/shipshape/internal/models"
)

// CoerceArray normalizes the four historical array encodings to a true
// ordered slice:
//
//   - a real array passes through
//   - an object whose keys are numeric strings is reassembled in
//     ascending numeric key order, non-numeric keys dropped (legacy
//     sparse-array serialization)
//   - a JSON-encoded string is parsed, falling back to the literal on
//     parse failure
//   - any other scalar is wrapped in a single-element array
//
// Absent or null input coerces to an empty array.
func CoerceArray(v interface{}) []interface{} {
	switch val := v.(type) {
	case nil:
		return []interface{}{}
	case []interface{}:
		return val
	case map[string]interface{}:
		return arrayFromNumericKeys(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if strings.HasPrefix(trimmed, "[") {
			var parsed []interface{}
			if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
				return parsed
			}
		}
		return []interface{}{val}
	default:
		return []interface{}{val}
	}
}

// arrayFromNumericKeys reconstructs order from numeric string keys.
// Gaps collapse: {"0": A, "2": B} yields [A, B].
func arrayFromNumericKeys(obj map[string]interface{}) []interface{} {
	type entry struct {
		idx int
		val interface{}
	}

	entries := make([]entry, 0, len(obj))
	for k, v := range obj {
		idx, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		entries = append(entries, entry{idx: idx, val: v})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].idx < entries[j].idx })

	out := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.val)
	}
	return out
}

// CoerceTimestamp accepts a native time, a {seconds, nanoseconds} pair,
// an RFC3339 string or an epoch-millisecond number. Unparsable values
// fall back to now rather than failing the record; ok is false on
// fallback so the caller can log a diagnostic.
func CoerceTimestamp(v interface{}, now time.Time) (t time.Time, ok bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case map[string]interface{}:
		if sec, found := numericKey(val, "seconds", "_seconds"); found {
			nsec, _ := numericKey(val, "nanoseconds", "_nanoseconds")
			return time.Unix(int64(sec), int64(nsec)), true
		}
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
			if parsed, err := time.Parse(layout, val); err == nil {
				return parsed, true
			}
		}
	case float64:
		return time.UnixMilli(int64(val)), true
	case int64:
		return time.UnixMilli(val), true
	case int:
		return time.UnixMilli(int64(val)), true
	}
	return now, false
}

func numericKey(obj map[string]interface{}, names ...string) (float64, bool) {
	for _, name := range names {
		if raw, ok := obj[name]; ok {
			if n, ok := toFloat(raw); ok {
				return n, true
			}
		}
	}
	return 0, false
}

// CoerceNumber accepts numeric or numeric-string input; anything else
// falls back to the supplied default, never an error.
func CoerceNumber(v interface{}, def float64) (n float64, ok bool) {
	if f, ok := toFloat(v); ok {
		return f, true
	}
	return def, false
}

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	}
	return 0, false
}

// CoerceBool accepts bool or bool-string input, with a numeric 0/1 form
// seen in the oldest records. Anything else falls back to def.
func CoerceBool(v interface{}, def bool) (b bool, ok bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(val))
		if err == nil {
			return parsed, true
		}
	case float64:
		if val == 0 || val == 1 {
			return val == 1, true
		}
	}
	return def, false
}

// CoerceString renders scalars to their string form; composite values
// fall back to def.
func CoerceString(v interface{}, def string) (s string, ok bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	case nil:
		return def, false
	}
	return def, false
}

// CoerceStringArray coerces through CoerceArray then stringifies each
// element, dropping elements with no string form.
func CoerceStringArray(v interface{}) []string {
	arr := CoerceArray(v)
	out := make([]string, 0, len(arr))
	for _, el := range arr {
		if s, ok := CoerceString(el, ""); ok {
			out = append(out, s)
		}
	}
	return out
}

// CoerceMedia normalizes every historical media encoding to a typed
// reference list. Elements may be {type, url} objects, bare URL strings,
// or objects keyed by numeric strings; a bare URL at the top level wraps
// into a single-element list. Elements with no usable URL are kept with
// an empty URL so validation can report them as missing.
func CoerceMedia(v interface{}) []models.MediaReference {
	arr := CoerceArray(v)
	out := make([]models.MediaReference, 0, len(arr))

	for _, el := range arr {
		switch item := el.(type) {
		case string:
			out = append(out, models.MediaReference{Type: models.InferMediaType(item), URL: item})
		case map[string]interface{}:
			url, _ := item["url"].(string)
			if url == "" {
				// Oldest records used "src".
				url, _ = item["src"].(string)
			}
			mt := models.MediaType(fmt.Sprint(item["type"]))
			if mt != models.MediaTypeImage && mt != models.MediaTypeVideo {
				mt = models.InferMediaType(url)
			}
			out = append(out, models.MediaReference{Type: mt, URL: url})
		case models.MediaReference:
			out = append(out, item)
		}
	}
	return out
}
