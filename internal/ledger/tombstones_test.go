package ledger

import (
	"context"
	"testing"

	"tally/internal/core"
	"tally/internal/docstore/memory"
)

func TestTombstoneRecordAndContains(t *testing.T) {
	ctx := context.Background()
	ix := NewTombstoneIndex(memory.New())

	if err := ix.Record(ctx, "series1", "2024-01-08", "2024-01-15"); err != nil {
		t.Fatal(err)
	}

	if !ix.Contains("series1", "2024-01-08") {
		t.Fatal("recorded date not found")
	}
	if ix.Contains("series1", "2024-01-22") {
		t.Fatal("unrecorded date reported")
	}
	if ix.Contains("series2", "2024-01-08") {
		t.Fatal("date leaked across series")
	}
}

func TestTombstoneRecordValidation(t *testing.T) {
	ctx := context.Background()
	ix := NewTombstoneIndex(memory.New())

	if err := ix.Record(ctx, "", "2024-01-08"); err != core.ErrMissingSeriesKey {
		t.Fatalf("expected ErrMissingSeriesKey, got %v", err)
	}
	// No dates is a no-op, not an error.
	if err := ix.Record(ctx, "series1"); err != nil {
		t.Fatal(err)
	}
}

func TestTombstonePersistence(t *testing.T) {
	ctx := context.Background()
	docs := memory.New()

	first := NewTombstoneIndex(docs)
	if err := first.Record(ctx, "series1", "2024-01-08"); err != nil {
		t.Fatal(err)
	}

	second := NewTombstoneIndex(docs)
	if err := second.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if !second.Contains("series1", "2024-01-08") {
		t.Fatal("tombstone lost across reload")
	}
}

func TestTombstoneClear(t *testing.T) {
	ctx := context.Background()
	docs := memory.New()
	ix := NewTombstoneIndex(docs)

	if err := ix.Record(ctx, "series1", "2024-01-08"); err != nil {
		t.Fatal(err)
	}
	if err := ix.Clear(ctx, "series1"); err != nil {
		t.Fatal(err)
	}
	if ix.Contains("series1", "2024-01-08") {
		t.Fatal("tombstone survived clear")
	}

	// Cleared persistently too.
	reload := NewTombstoneIndex(docs)
	if err := reload.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if reload.Contains("series1", "2024-01-08") {
		t.Fatal("tombstone resurrected after reload")
	}
}
