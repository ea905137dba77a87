// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

// Package api exposes the admin HTTP surface for operating the
// reconciliation pipeline.
//
// Reconcile endpoints live under /api/v1/reconcile and return the
// models.APIResponse envelope. Trigger endpoints enqueue a task and
// return 202 with the pending task; results are read back through the
// task and report endpoints.
//
// Routing uses Chi with a conventional middleware stack: request IDs,
// real-IP extraction, panic recovery and CORS globally; per-group rate
// limits, security headers, Prometheus metrics and bearer-token
// authentication on the reconcile routes. Health endpoints and
// /metrics are unauthenticated.
package api
