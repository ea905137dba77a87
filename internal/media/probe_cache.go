// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package media

import (
	"context"
	"time"

	"github.com/etoile-yachts/shipshape/internal/cache"
)

// CachedProber wraps a Prober with an LRU result cache. Catalog records
// share media heavily (placeholder images, fleet photos reused across
// listings); caching collapses those repeats into one outbound probe.
//
// Only observed results are cached. Transport errors are not: a flaky
// endpoint should be probed again, not remembered as dead for the TTL.
type CachedProber struct {
	prober Prober
	cache  *cache.LRU[ProbeResult]
}

// NewCachedProber wraps prober with a cache of at most capacity results,
// each valid for ttl.
func NewCachedProber(prober Prober, capacity int, ttl time.Duration) *CachedProber {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CachedProber{
		prober: prober,
		cache:  cache.NewLRU[ProbeResult](capacity, ttl),
	}
}

// Probe returns the cached result for url when fresh, probing through
// the wrapped prober otherwise.
func (c *CachedProber) Probe(ctx context.Context, url string) (*ProbeResult, error) {
	if result, ok := c.cache.Get(url); ok {
		return &result, nil
	}

	result, err := c.prober.Probe(ctx, url)
	if err != nil {
		return nil, err
	}

	c.cache.Add(url, *result)
	return result, nil
}

// Stats returns cache hit and miss counts.
func (c *CachedProber) Stats() (hits, misses int64) {
	return c.cache.Stats()
}
