// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

// scheduleRequest mirrors the admin API's schedule update payload.
type scheduleRequest struct {
	IntervalHours int      `validate:"min=1,max=168"`
	Collections   []string `validate:"omitempty,dive,required"`
	Kind          string   `validate:"omitempty,oneof=validate-all validate-collection fix-relative-urls"`
	Enabled       bool
}

func TestValidateStruct_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input scheduleRequest
	}{
		{
			name:  "typical schedule",
			input: scheduleRequest{IntervalHours: 24, Collections: []string{"products_add_ons"}},
		},
		{
			name:  "minimum interval",
			input: scheduleRequest{IntervalHours: 1},
		},
		{
			name:  "maximum interval with kind",
			input: scheduleRequest{IntervalHours: 168, Kind: "fix-relative-urls"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if verr := ValidateStruct(&tt.input); verr != nil {
				t.Errorf("ValidateStruct() = %v, want nil", verr)
			}
		})
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		input     scheduleRequest
		wantField string
		wantTag   string
	}{
		{
			name:      "interval below minimum",
			input:     scheduleRequest{IntervalHours: 0},
			wantField: "IntervalHours",
			wantTag:   "min",
		},
		{
			name:      "interval above maximum",
			input:     scheduleRequest{IntervalHours: 200},
			wantField: "IntervalHours",
			wantTag:   "max",
		},
		{
			name:      "empty collection entry",
			input:     scheduleRequest{IntervalHours: 24, Collections: []string{""}},
			wantTag:   "required",
			wantField: "Collections[0]",
		},
		{
			name:      "unknown kind",
			input:     scheduleRequest{IntervalHours: 24, Kind: "wipe-everything"},
			wantField: "Kind",
			wantTag:   "oneof",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(&tt.input)
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			errs := verr.Errors()
			if len(errs) != 1 {
				t.Fatalf("got %d errors: %v", len(errs), verr)
			}
			if errs[0].Field() != tt.wantField {
				t.Errorf("field = %q, want %q", errs[0].Field(), tt.wantField)
			}
			if errs[0].Tag() != tt.wantTag {
				t.Errorf("tag = %q, want %q", errs[0].Tag(), tt.wantTag)
			}
		})
	}
}

func TestToAPIError_SingleError(t *testing.T) {
	verr := ValidateStruct(&scheduleRequest{IntervalHours: 0})
	if verr == nil {
		t.Fatal("expected validation error")
	}

	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "IntervalHours") {
		t.Errorf("message = %q", apiErr.Message)
	}
	if apiErr.Details["field"] != "IntervalHours" {
		t.Errorf("details = %v", apiErr.Details)
	}
}

func TestToAPIError_MultipleErrors(t *testing.T) {
	verr := ValidateStruct(&scheduleRequest{IntervalHours: 0, Kind: "bogus"})
	if verr == nil {
		t.Fatal("expected validation errors")
	}
	if len(verr.Errors()) != 2 {
		t.Fatalf("got %d errors", len(verr.Errors()))
	}

	apiErr := verr.ToAPIError()
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 2 {
		t.Errorf("details fields = %v", apiErr.Details["fields"])
	}
	if !strings.Contains(apiErr.Message, ";") {
		t.Errorf("combined message = %q", apiErr.Message)
	}
}

func TestTranslatedMessages(t *testing.T) {
	type bounds struct {
		Name  string `validate:"required"`
		Count int    `validate:"gte=1"`
	}

	verr := ValidateStruct(&bounds{})
	if verr == nil {
		t.Fatal("expected validation errors")
	}
	combined := verr.Error()
	if !strings.Contains(combined, "Name is required") {
		t.Errorf("missing required translation: %q", combined)
	}
	if !strings.Contains(combined, "greater than or equal to 1") {
		t.Errorf("missing gte translation: %q", combined)
	}
}
