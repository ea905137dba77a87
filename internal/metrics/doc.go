// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

/*
Package metrics provides Prometheus metrics collection and export for
the reconciliation pipeline.

# Overview

The package instruments:
  - Pipeline throughput (records scanned, normalized, URLs fixed)
  - Media probe outcomes and latency
  - Batched write commits and post-retry failures
  - Task lifecycle (published, transitions, duration, redeliveries)
  - Admin API request latency and throughput

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8092/metrics

# Usage Example

	import "github.com/etoile-yachts/shipshape/internal/metrics"

	metrics.RecordScan("unified_yacht_experiences")
	metrics.RecordProbe("valid", 120*time.Millisecond)
	metrics.RecordBatchCommit(true, 500)

# Thread Safety

All recording functions are safe for concurrent use; the Prometheus
client library handles synchronization internally.

# Cardinality Management

Label values are drawn from small fixed sets (collection names, task
kinds, validity states, chi route patterns). No per-record or per-URL
labels are ever emitted.
*/
package metrics
