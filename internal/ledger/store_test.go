package ledger

import (
	"context"
	"errors"
	"testing"

	"tally/internal/core"
	"tally/internal/docstore/memory"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(memory.New(), 400)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

func expense(date core.Date) core.Transaction {
	return core.Transaction{
		Type:       core.Expense,
		Amount:     core.Money{Cents: 1200},
		CategoryID: "cat_groceries",
		Date:       date,
	}
}

func TestAddAssignsIdentityAndNormalizes(t *testing.T) {
	s := newTestStore(t)

	tx := expense("")
	tx.Date = "15/01/2024"
	stored, err := s.Add(context.Background(), tx)
	if err != nil {
		t.Fatal(err)
	}
	if stored.ID == "" {
		t.Fatal("expected generated id")
	}
	if stored.CreatedAt.IsZero() {
		t.Fatal("expected creation time")
	}
	if stored.Date != "2024-01-15" {
		t.Fatalf("date not normalized: %q", stored.Date)
	}

	got, ok := s.Get(stored.ID)
	if !ok || got.Date != "2024-01-15" {
		t.Fatalf("Get after Add = %+v, %v", got, ok)
	}
}

func TestAddRejectsInvalid(t *testing.T) {
	s := newTestStore(t)

	tx := expense("2024-01-15")
	tx.CategoryID = ""
	if _, err := s.Add(context.Background(), tx); !errors.Is(err, core.ErrMissingCategory) {
		t.Fatalf("expected ErrMissingCategory, got %v", err)
	}

	tx = expense("bogus")
	if _, err := s.Add(context.Background(), tx); err == nil {
		t.Fatal("expected date error")
	}
}

func TestUpdateNotFound(t *testing.T) {
	s := newTestStore(t)
	tx := expense("2024-01-15")
	tx.ID = "missing"
	if _, err := s.Update(context.Background(), tx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSoftDeleteHidesButKeepsRecord(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	stored, err := s.Add(ctx, expense("2024-01-15"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SoftDelete(ctx, stored.ID); err != nil {
		t.Fatal(err)
	}

	if _, ok := s.Get(stored.ID); ok {
		t.Fatal("soft-deleted transaction still active")
	}
	if len(s.Active()) != 0 {
		t.Fatal("Active includes soft-deleted transaction")
	}

	// Already-deleted ids are not matched again.
	if err := s.SoftDelete(ctx, stored.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeat soft delete, got %v", err)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	docs := memory.New()

	first := NewStore(docs, 400)
	if err := first.Load(ctx); err != nil {
		t.Fatal(err)
	}
	stored, err := first.Add(ctx, expense("2024-01-15"))
	if err != nil {
		t.Fatal(err)
	}

	second := NewStore(docs, 400)
	if err := second.Load(ctx); err != nil {
		t.Fatal(err)
	}
	got, ok := second.Get(stored.ID)
	if !ok {
		t.Fatal("transaction lost across reload")
	}
	if got.Amount.Cents != 1200 || got.Date != "2024-01-15" {
		t.Fatalf("reloaded transaction mismatch: %+v", got)
	}
}

func TestAddManyChunks(t *testing.T) {
	ctx := context.Background()
	docs := memory.New()
	s := NewStore(docs, 2) // force chunking
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}

	batch := make([]core.Transaction, 5)
	for i := range batch {
		batch[i] = expense("2024-01-15")
	}
	added, err := s.AddMany(ctx, batch)
	if err != nil {
		t.Fatal(err)
	}
	if len(added) != 5 {
		t.Fatalf("added %d, want 5", len(added))
	}

	persisted, err := docs.List(ctx, "transactions")
	if err != nil {
		t.Fatal(err)
	}
	if len(persisted) != 5 {
		t.Fatalf("persisted %d documents, want 5", len(persisted))
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if _, err := s.Add(ctx, expense("2024-01-15")); err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if len(s.Active()) != 0 {
		t.Fatal("transactions survived reset")
	}
	// Categories are untouched by a transaction reset.
	if len(s.Categories()) == 0 {
		t.Fatal("categories wiped by reset")
	}
}

func TestDefaultCategorySeeding(t *testing.T) {
	ctx := context.Background()
	docs := memory.New()

	s := NewStore(docs, 400)
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}
	want := len(core.DefaultCategories())
	if got := len(s.Categories()); got != want {
		t.Fatalf("seeded %d categories, want %d", got, want)
	}

	// Seeding is persisted, not repeated.
	again := NewStore(docs, 400)
	if err := again.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if got := len(again.Categories()); got != want {
		t.Fatalf("reload produced %d categories, want %d", got, want)
	}
}

func TestSeries(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	tmpl := expense("2024-01-01")
	tmpl.Recurrence = &core.Recurrence{Frequency: core.Weekly, EndType: core.EndNever}
	tmpl, err := s.Add(ctx, tmpl)
	if err != nil {
		t.Fatal(err)
	}

	occ := expense("2024-01-08")
	occ.OriginalID = tmpl.ID
	if _, err := s.Add(ctx, occ); err != nil {
		t.Fatal(err)
	}

	other := expense("2024-01-09")
	if _, err := s.Add(ctx, other); err != nil {
		t.Fatal(err)
	}

	members := s.Series(tmpl.ID)
	if len(members) != 2 {
		t.Fatalf("series has %d members, want 2", len(members))
	}
}
