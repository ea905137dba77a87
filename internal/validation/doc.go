// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

// Package validation provides struct validation using go-playground/validator v10.
//
// The package wraps the validator library behind a thread-safe singleton
// instance with human-readable error translation and conversion into the
// admin API's VALIDATION_ERROR response format.
//
// # Quick Start
//
//	type ScheduleRequest struct {
//	    IntervalHours int      `json:"interval_hours" validate:"min=1,max=168"`
//	    Collections   []string `json:"collections" validate:"omitempty,dive,required"`
//	}
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    var req ScheduleRequest
//	    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
//	        // handle decode error
//	    }
//
//	    if verr := validation.ValidateStruct(&req); verr != nil {
//	        apiErr := verr.ToAPIError()
//	        respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	        return
//	    }
//
//	    // proceed with valid request
//	}
//
// # Common Validation Tags
//
// String validations:
//   - required: field must not be empty
//   - min=n / max=n: length bounds in characters
//   - url: valid URL format
//
// Numeric validations:
//   - gte=n, lte=n, gt=n, lt=n: comparisons
//   - min=n / max=n: value bounds
//
// Enum validations:
//   - oneof=a b c: must be one of the listed values
//
// # Thread Safety
//
// The singleton validator caches struct metadata and is safe for
// concurrent use from request handlers.
//
// # See Also
//
//   - internal/api: request structs validated with this package
//   - https://pkg.go.dev/github.com/go-playground/validator/v10
package validation
