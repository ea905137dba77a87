// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

// Package supervisor builds the Suture process tree that keeps the
// pipeline's long-running components alive.
//
// The tree has three child supervisors: data (store maintenance),
// messaging (queue broker guard, task consumer, schedule runner) and
// api (the admin HTTP server). Suture restarts a crashed service with
// exponential backoff; a component that crashes repeatedly backs off
// without affecting the other layers.
//
// Supervision events are logged through sutureslog, bridged into the
// global zerolog logger by logging.NewSlogLogger.
package supervisor
