// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

// Package services adapts the pipeline's long-running components to the
// suture.Service contract.
//
// Each wrapper translates between a component's own lifecycle (blocking
// serve loops, start/stop pairs, periodic maintenance) and suture's
// context-driven Serve method. Wrappers take small interfaces rather
// than concrete types so tests can substitute mocks.
package services
