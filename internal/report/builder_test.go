// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package report

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/etoile-yachts/shipshape/internal/logging"
	"github.com/etoile-yachts/shipshape/internal/models"
	"github.com/etoile-yachts/shipshape/internal/store"
)

func TestBuilderAccumulatesPerCollection(t *testing.T) {
	b := NewBuilder("task-1", time.Now())

	b.Observe("unified_yacht_experiences", "y1", "media.0.url", models.ValidityValid, "", 200)
	b.Observe("unified_yacht_experiences", "y2", "media.0.url", models.ValidityInvalid, "non-success response 404", 404)
	b.Observe("unified_yacht_experiences", "y3", "media.1.url", models.ValidityMissing, "url field empty or absent", 0)
	b.Observe("products_add_ons", "p1", "media.0.url", models.ValidityValid, "", 200)

	rep := b.Snapshot()

	if rep.Totals.Total != 4 || rep.Totals.Valid != 2 || rep.Totals.Invalid != 1 || rep.Totals.Missing != 1 {
		t.Errorf("totals = %+v", rep.Totals)
	}
	yachts := rep.PerCollection["unified_yacht_experiences"]
	if yachts.Total != 3 || yachts.Valid != 1 || yachts.Invalid != 1 || yachts.Missing != 1 {
		t.Errorf("yacht stats = %+v", yachts)
	}
	if len(rep.SampleIssues) != 2 {
		t.Errorf("sample issues = %d, want invalid+missing only", len(rep.SampleIssues))
	}
}

func TestBuilderSampleCapKeepsTotals(t *testing.T) {
	b := NewBuilder("task-1", time.Now())
	b.sampleLimit = 3

	for i := 0; i < 10; i++ {
		b.Observe("articles_and_guides", fmt.Sprintf("a%d", i), "media.0.url", models.ValidityInvalid, "non-success response 404", 404)
	}

	rep := b.Snapshot()
	if len(rep.SampleIssues) != 3 {
		t.Errorf("samples = %d, want cap 3", len(rep.SampleIssues))
	}
	if rep.Totals.Invalid != 10 {
		t.Errorf("invalid total = %d, want 10 despite cap", rep.Totals.Invalid)
	}
}

func TestBuilderProgress(t *testing.T) {
	b := NewBuilder("task-1", time.Now())

	if got := b.Snapshot().ProgressPercent; got != 0 {
		t.Errorf("progress before total known = %d", got)
	}

	b.SetExpectedRecords(4)
	b.RecordScanned()
	b.RecordScanned()
	if got := b.Snapshot().ProgressPercent; got != 50 {
		t.Errorf("progress = %d, want 50", got)
	}

	// A running report never claims 100 even when every record is in.
	b.RecordScanned()
	b.RecordScanned()
	if got := b.Snapshot().ProgressPercent; got != 99 {
		t.Errorf("running progress = %d, want cap 99", got)
	}

	b.Complete(time.Now())
	rep := b.Snapshot()
	if rep.ProgressPercent != 100 || rep.Status != models.ReportCompleted || rep.EndTime == nil {
		t.Errorf("completed report = %+v", rep)
	}
}

func TestBuilderConcurrentObserve(t *testing.T) {
	b := NewBuilder("task-1", time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Observe("event_announcements", "e1", "media.0.url", models.ValidityValid, "", 200)
				b.RecordScanned()
			}
		}()
	}
	wg.Wait()

	rep := b.Snapshot()
	if rep.Totals.Valid != 800 || rep.RecordsScanned != 800 {
		t.Errorf("valid=%d scanned=%d, want 800/800", rep.Totals.Valid, rep.RecordsScanned)
	}
}

func TestBuilderWriteFailuresDoNotFailRun(t *testing.T) {
	b := NewBuilder("task-1", time.Now())
	b.AddWriteFailures([]models.WriteFailure{
		{Collection: "products_add_ons", RecordID: "p1", Reason: "txn conflict"},
	})
	b.Complete(time.Now())

	rep := b.Snapshot()
	if rep.Status != models.ReportCompleted {
		t.Errorf("status = %s, write failures must not abort the run", rep.Status)
	}
	if len(rep.WriteFailures) != 1 {
		t.Errorf("write failures = %d", len(rep.WriteFailures))
	}
}

func TestRepositoryRoundtripAndList(t *testing.T) {
	st, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer st.Close()

	repo := NewRepository(st, logging.Logger())
	ctx := context.Background()

	older := NewBuilder("task-old", time.Now().Add(-time.Hour))
	older.Complete(time.Now().Add(-time.Hour))
	newer := NewBuilder("task-new", time.Now())
	newer.Observe("unified_yacht_experiences", "y1", "media.0.url", models.ValidityInvalid, "non-success response 404", 404)

	for _, rep := range []models.ValidationReport{older.Snapshot(), newer.Snapshot()} {
		if err := repo.Save(ctx, rep); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := repo.Get(ctx, newer.Snapshot().ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.TaskID != "task-new" || got.Totals.Invalid != 1 || len(got.SampleIssues) != 1 {
		t.Errorf("roundtrip lost data: %+v", got)
	}

	reports, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("List = %d reports", len(reports))
	}
	if reports[0].TaskID != "task-new" {
		t.Errorf("List order: first = %s, want newest first", reports[0].TaskID)
	}

	if _, err := repo.Get(ctx, "absent"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get absent = %v, want ErrNotFound", err)
	}
}
