// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

// Package config loads and validates the runtime configuration.
//
// Configuration is layered with Koanf: built-in defaults, an optional
// YAML file (shipshape.yaml, or the path in SHIPSHAPE_CONFIG), then
// SHIPSHAPE_* environment variables. Later layers override earlier
// ones, so a container deployment can run defaults plus a handful of
// env vars while a bare-metal install keeps everything in one file.
//
// Validation fails fast and collects every violation, including the
// production posture checks: a wildcard CORS origin, disabled auth or a
// short JWT secret refuse to boot when server.environment=production.
package config
