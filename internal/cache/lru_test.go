// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestLRUGetAdd(t *testing.T) {
	c := NewLRU[int](4, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for absent key")
	}

	c.Add("a", 1)
	got, ok := c.Get("a")
	if !ok || got != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", got, ok)
	}

	c.Add("a", 2)
	got, _ = c.Get("a")
	if got != 2 {
		t.Errorf("replaced value = %d, want 2", got)
	}
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[string](3, time.Minute)
	c.Add("a", "1")
	c.Add("b", "2")
	c.Add("c", "3")

	// Touch a so b becomes the eviction candidate.
	c.Get("a")
	c.Add("d", "4")

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("expected %s to survive eviction", key)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}
}

func TestLRUExpiresEntries(t *testing.T) {
	c := NewLRU[int](4, 10*time.Millisecond)
	c.Add("a", 1)

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("expected expired entry to miss")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not removed, Len = %d", c.Len())
	}
}

func TestLRURemove(t *testing.T) {
	c := NewLRU[int](4, time.Minute)
	c.Add("a", 1)
	c.Remove("a")
	c.Remove("never-added")

	if _, ok := c.Get("a"); ok {
		t.Error("expected removed entry to miss")
	}
}

func TestLRUStats(t *testing.T) {
	c := NewLRU[int](4, time.Minute)
	c.Add("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("nope")

	hits, misses := c.Stats()
	if hits != 2 || misses != 1 {
		t.Errorf("Stats = %d hits, %d misses; want 2, 1", hits, misses)
	}
}

func TestLRUConcurrentAccess(t *testing.T) {
	c := NewLRU[int](128, time.Minute)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("key-%d", i%32)
				c.Add(key, g*1000+i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 128 {
		t.Errorf("Len = %d exceeds capacity", c.Len())
	}
}
