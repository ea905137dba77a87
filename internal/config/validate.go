// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for errors that would surface as
// obscure runtime failures. All violations are collected so an operator
// fixes one boot, not one error per boot.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range 1-65535", c.Server.Port))
	}
	switch c.Server.Environment {
	case "development", "production":
	default:
		errs = append(errs, fmt.Errorf("server.environment must be development or production, got %q", c.Server.Environment))
	}

	if !c.Store.InMemory && c.Store.Path == "" {
		errs = append(errs, errors.New("store.path is required unless store.in_memory is set"))
	}
	if c.Store.GCDiscardRatio <= 0 || c.Store.GCDiscardRatio >= 1 {
		errs = append(errs, fmt.Errorf("store.gc_discard_ratio must be in (0, 1), got %g", c.Store.GCDiscardRatio))
	}

	if c.Queue.URL == "" {
		errs = append(errs, errors.New("queue.url is required"))
	} else if !strings.HasPrefix(c.Queue.URL, "nats://") && !strings.HasPrefix(c.Queue.URL, "tls://") {
		errs = append(errs, fmt.Errorf("queue.url must be a nats:// or tls:// URL, got %q", c.Queue.URL))
	}
	if c.Queue.Embedded && c.Queue.Server.StoreDir == "" {
		errs = append(errs, errors.New("queue.server.store_dir is required for the embedded broker"))
	}
	if c.Queue.MaxDeliver < 1 {
		errs = append(errs, fmt.Errorf("queue.max_deliver must be at least 1, got %d", c.Queue.MaxDeliver))
	}

	if c.Media.BaseURL == "" {
		errs = append(errs, errors.New("media.base_url is required"))
	} else if u, err := url.Parse(c.Media.BaseURL); err != nil || u.Scheme != "https" && u.Scheme != "http" || u.Host == "" {
		errs = append(errs, fmt.Errorf("media.base_url must be an absolute http(s) URL, got %q", c.Media.BaseURL))
	}
	if c.Media.ProbeCacheSize < 0 {
		errs = append(errs, fmt.Errorf("media.probe_cache_size must not be negative, got %d", c.Media.ProbeCacheSize))
	}
	if c.Media.ProbeConcurrency < 1 || c.Media.ProbeConcurrency > 64 {
		errs = append(errs, fmt.Errorf("media.probe_concurrency must be in 1-64, got %d", c.Media.ProbeConcurrency))
	}
	if c.Media.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("media.requests_per_second cannot be negative, got %g", c.Media.RequestsPerSecond))
	}

	if c.Worker.BatchLimit < 1 || c.Worker.BatchLimit > 500 {
		errs = append(errs, fmt.Errorf("worker.batch_limit must be in 1-500, got %d", c.Worker.BatchLimit))
	}

	if c.Scheduler.Enabled && c.Scheduler.CheckInterval <= 0 {
		errs = append(errs, errors.New("scheduler.check_interval must be positive when the scheduler is enabled"))
	}

	errs = append(errs, c.validateSecurity()...)

	return errors.Join(errs...)
}

// validateSecurity enforces the production posture: no disabled auth
// and a real JWT secret outside development.
func (c *Config) validateSecurity() []error {
	var errs []error

	production := c.Server.Environment == "production"

	if c.Security.AuthDisabled {
		if production {
			errs = append(errs, errors.New("security.auth_disabled is not permitted in production"))
		}
	} else if len(c.Security.JWTSecret) < 32 {
		errs = append(errs, errors.New("security.jwt_secret must be at least 32 characters"))
	}

	if production {
		for _, origin := range c.Security.CORSOrigins {
			if origin == "*" {
				errs = append(errs, errors.New("security.cors_origins may not contain a wildcard in production"))
			}
		}
	}

	if !c.Security.RateLimitDisabled && c.Security.RateLimitRequests < 1 {
		errs = append(errs, fmt.Errorf("security.rate_limit_requests must be at least 1, got %d", c.Security.RateLimitRequests))
	}

	return errs
}
