// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package media

import (
	"context"
	"errors"
	"testing"
	"time"
)

type countingProber struct {
	calls  int
	result *ProbeResult
	err    error
}

func (p *countingProber) Probe(ctx context.Context, url string) (*ProbeResult, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

func TestCachedProberCollapsesRepeatedProbes(t *testing.T) {
	inner := &countingProber{result: &ProbeResult{StatusCode: 200, ContentType: "image/jpeg"}}
	prober := NewCachedProber(inner, 16, time.Minute)

	for i := 0; i < 3; i++ {
		result, err := prober.Probe(context.Background(), "https://example.com/hull.jpg")
		if err != nil {
			t.Fatalf("Probe returned error: %v", err)
		}
		if result.StatusCode != 200 || result.ContentType != "image/jpeg" {
			t.Errorf("unexpected result %+v", result)
		}
	}

	if inner.calls != 1 {
		t.Errorf("inner prober called %d times, want 1", inner.calls)
	}

	hits, misses := prober.Stats()
	if hits != 2 || misses != 1 {
		t.Errorf("Stats = %d hits, %d misses; want 2, 1", hits, misses)
	}
}

func TestCachedProberDoesNotCacheTransportErrors(t *testing.T) {
	inner := &countingProber{err: errors.New("connection refused")}
	prober := NewCachedProber(inner, 16, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := prober.Probe(context.Background(), "https://example.com/dead.jpg"); err == nil {
			t.Fatal("expected probe error")
		}
	}

	if inner.calls != 2 {
		t.Errorf("inner prober called %d times, want 2 (errors must not be cached)", inner.calls)
	}
}

func TestCachedProberCachesErrorStatuses(t *testing.T) {
	// A 404 is a classification result, not a transport failure; it is
	// as cacheable as a 200.
	inner := &countingProber{result: &ProbeResult{StatusCode: 404}}
	prober := NewCachedProber(inner, 16, time.Minute)

	for i := 0; i < 2; i++ {
		result, err := prober.Probe(context.Background(), "https://example.com/gone.jpg")
		if err != nil {
			t.Fatalf("Probe returned error: %v", err)
		}
		if result.StatusCode != 404 {
			t.Errorf("StatusCode = %d, want 404", result.StatusCode)
		}
	}

	if inner.calls != 1 {
		t.Errorf("inner prober called %d times, want 1", inner.calls)
	}
}
