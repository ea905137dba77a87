// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package media

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/etoile-yachts/shipshape/internal/metrics"
	"github.com/etoile-yachts/shipshape/internal/models"
)

// Check is the classification of one media reference. Exactly one
// ValidityState applies to every reference.
type Check struct {
	Ref        models.MediaReference
	State      models.ValidityState
	Reason     string
	HTTPStatus int
}

// ValidatorConfig configures classification behavior.
type ValidatorConfig struct {
	// ProbeConcurrency bounds concurrent probes per record, so one
	// media-heavy record cannot open unbounded outbound connections.
	ProbeConcurrency int

	// StrictContentType fails a reference whose declared type
	// contradicts the observed Content-Type. When false, the observed
	// type is logged but not enforced.
	StrictContentType bool
}

// DefaultValidatorConfig returns production defaults.
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		ProbeConcurrency:  4,
		StrictContentType: true,
	}
}

// Validator classifies media references as valid, invalid or missing.
type Validator struct {
	prober Prober
	cfg    ValidatorConfig
	logger zerolog.Logger
}

// NewValidator creates a Validator probing through the given prober.
func NewValidator(prober Prober, cfg ValidatorConfig, logger zerolog.Logger) *Validator {
	if cfg.ProbeConcurrency <= 0 {
		cfg.ProbeConcurrency = 4
	}
	return &Validator{
		prober: prober,
		cfg:    cfg,
		logger: logger.With().Str("component", "url-validator").Logger(),
	}
}

// ValidateAll classifies every reference, probing with the configured
// bounded concurrency. Results are returned in input order. Individual
// probe failures classify as invalid; they never fail the batch.
func (v *Validator) ValidateAll(ctx context.Context, refs []models.MediaReference) []Check {
	return v.ValidateAllLimit(ctx, refs, 0)
}

// ValidateAllLimit is ValidateAll with an explicit concurrency cap for
// runs carrying their own worker limits. A non-positive limit falls
// back to the configured default.
func (v *Validator) ValidateAllLimit(ctx context.Context, refs []models.MediaReference, limit int) []Check {
	if limit <= 0 {
		limit = v.cfg.ProbeConcurrency
	}
	checks := make([]Check, len(refs))

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i := range refs {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			checks[idx] = v.Validate(ctx, refs[idx])
		}(i)
	}

	wg.Wait()
	return checks
}

// Validate classifies a single reference.
func (v *Validator) Validate(ctx context.Context, ref models.MediaReference) Check {
	check := Check{Ref: ref}

	if strings.TrimSpace(ref.URL) == "" {
		check.State = models.ValidityMissing
		check.Reason = "url field empty or absent"
		return check
	}

	parsed, err := url.Parse(ref.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		check.State = models.ValidityInvalid
		check.Reason = "malformed or non-absolute URL"
		return check
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		check.State = models.ValidityInvalid
		check.Reason = fmt.Sprintf("non-probeable scheme %q", parsed.Scheme)
		return check
	}

	start := time.Now()
	result, err := v.prober.Probe(ctx, ref.URL)
	defer func() { metrics.RecordProbe(string(check.State), time.Since(start)) }()
	if err != nil {
		check.State = models.ValidityInvalid
		check.Reason = "probe failed: " + err.Error()
		return check
	}

	check.HTTPStatus = result.StatusCode
	if result.StatusCode < 200 || result.StatusCode >= 300 {
		check.State = models.ValidityInvalid
		check.Reason = fmt.Sprintf("non-success response %d", result.StatusCode)
		return check
	}

	if v.cfg.StrictContentType {
		if reason, ok := contentTypeMismatch(ref.Type, result.ContentType); ok {
			check.State = models.ValidityInvalid
			check.Reason = reason
			return check
		}
	}

	check.State = models.ValidityValid
	return check
}

// contentTypeMismatch reports a contradiction between the declared media
// type and the observed Content-Type. Absent or generic content types
// (application/octet-stream, empty) are not treated as contradictions.
func contentTypeMismatch(declared models.MediaType, contentType string) (string, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}

	switch {
	case declared == models.MediaTypeImage && strings.HasPrefix(ct, "video/"):
		return fmt.Sprintf("declared image but served %s", ct), true
	case declared == models.MediaTypeVideo && strings.HasPrefix(ct, "image/"):
		return fmt.Sprintf("declared video but served %s", ct), true
	}
	return "", false
}
