// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

// Package media validates and repairs the media references embedded in
// canonical records: a probing validator classifies every URL, and a
// resolver rewrites relative and non-durable URL forms to durable
// absolute ones.
package media

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// ProbeResult is the observed liveness of one URL.
type ProbeResult struct {
	StatusCode  int
	ContentType string
}

// Prober issues a bounded-timeout liveness probe for a URL.
type Prober interface {
	Probe(ctx context.Context, url string) (*ProbeResult, error)
}

// ProberConfig configures the HTTP prober.
type ProberConfig struct {
	// Timeout bounds each probe request.
	Timeout time.Duration

	// ProbeWithGET falls back to a GET when the server rejects HEAD
	// (405/501). The probe strategy is deliberately configurable; some
	// storage frontends never implement HEAD.
	ProbeWithGET bool

	// RequestsPerSecond caps outbound probe rate across the whole run.
	// Zero disables the limiter.
	RequestsPerSecond float64

	// Burst is the limiter burst size.
	Burst int

	UserAgent string
}

// DefaultProberConfig returns production defaults.
func DefaultProberConfig() ProberConfig {
	return ProberConfig{
		Timeout:           10 * time.Second,
		ProbeWithGET:      true,
		RequestsPerSecond: 20,
		Burst:             10,
		UserAgent:         "shipshape-media-validator/1.0",
	}
}

// HTTPProber probes URLs over HTTP with circuit breaker protection and
// a global outbound rate cap. Individual probes are never retried within
// a run; re-triggering the task is the retry.
type HTTPProber struct {
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker[*ProbeResult]
	limiter *rate.Limiter
	cfg     ProberConfig
}

// NewHTTPProber creates a prober with the given configuration.
func NewHTTPProber(cfg ProberConfig) *HTTPProber {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", cfg.UserAgent).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	breaker := gobreaker.NewCircuitBreaker[*ProbeResult](gobreaker.Settings{
		Name:    "media-probe",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip only on sustained transport-level failure; HTTP error
			// statuses are classification results, not breaker failures.
			return counts.ConsecutiveFailures >= 10
		},
	})

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &HTTPProber{
		client:  client,
		breaker: breaker,
		limiter: limiter,
		cfg:     cfg,
	}
}

// Probe issues a HEAD request (GET fallback when configured) and returns
// the observed status and content type. A transport error, a tripped
// breaker or a canceled context surfaces as an error; the caller
// classifies it.
func (p *HTTPProber) Probe(ctx context.Context, url string) (*ProbeResult, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return p.breaker.Execute(func() (*ProbeResult, error) {
		return p.probe(ctx, url)
	})
}

func (p *HTTPProber) probe(ctx context.Context, url string) (*ProbeResult, error) {
	resp, err := p.client.R().SetContext(ctx).Head(url)
	if err != nil {
		if !p.cfg.ProbeWithGET {
			return nil, fmt.Errorf("HEAD %s: %w", url, err)
		}
		return p.probeGET(ctx, url)
	}

	if p.cfg.ProbeWithGET &&
		(resp.StatusCode() == http.StatusMethodNotAllowed || resp.StatusCode() == http.StatusNotImplemented) {
		return p.probeGET(ctx, url)
	}

	return &ProbeResult{
		StatusCode:  resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
	}, nil
}

func (p *HTTPProber) probeGET(ctx context.Context, url string) (*ProbeResult, error) {
	resp, err := p.client.R().SetContext(ctx).SetDoNotParseResponse(true).Get(url)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer func() { _ = resp.RawBody().Close() }()

	return &ProbeResult{
		StatusCode:  resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
	}, nil
}
