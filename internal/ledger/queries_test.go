package ledger

import (
	"context"
	"testing"
	"time"

	"tally/internal/core"
)

func mustAdd(t *testing.T, s *Store, tx core.Transaction) core.Transaction {
	t.Helper()
	stored, err := s.Add(context.Background(), tx)
	if err != nil {
		t.Fatal(err)
	}
	return stored
}

func TestListForMonth(t *testing.T) {
	s := newTestStore(t)

	mustAdd(t, s, expense("2024-03-05"))
	mustAdd(t, s, expense("2024-03-20"))
	mustAdd(t, s, expense("2024-04-01"))

	got := s.ListForMonth(MonthFilter{Year: 2024, Month: time.March})
	if len(got) != 2 {
		t.Fatalf("got %d transactions, want 2", len(got))
	}
	// Date descending.
	if got[0].Date != "2024-03-20" || got[1].Date != "2024-03-05" {
		t.Fatalf("wrong order: %s, %s", got[0].Date, got[1].Date)
	}
}

func TestListForMonthExcludeFuture(t *testing.T) {
	s := newTestStore(t)
	mustAdd(t, s, expense("2024-03-05"))
	mustAdd(t, s, expense("2024-03-25"))

	got := s.ListForMonth(MonthFilter{
		Year: 2024, Month: time.March,
		ExcludeFuture: true, Today: "2024-03-10",
	})
	if len(got) != 1 || got[0].Date != "2024-03-05" {
		t.Fatalf("exclude_future filter failed: %+v", got)
	}
}

func TestBalanceForMonth(t *testing.T) {
	s := newTestStore(t)

	salary := core.Transaction{
		Type: core.Income, Amount: core.Money{Cents: 500000},
		CategoryID: "cat_salary", Date: "2024-03-01",
	}
	mustAdd(t, s, salary)
	mustAdd(t, s, expense("2024-03-05")) // 1200 cents

	b := s.BalanceForMonth(MonthFilter{Year: 2024, Month: time.March})
	if b.Income.Cents != 500000 || b.Expenses.Cents != 1200 {
		t.Fatalf("totals wrong: %+v", b)
	}
	if b.Balance.Cents != 498800 {
		t.Fatalf("balance = %d, want 498800", b.Balance.Cents)
	}
}

func TestCategorySummariesFallback(t *testing.T) {
	s := newTestStore(t)

	mustAdd(t, s, expense("2024-03-05"))

	orphan := expense("2024-03-06")
	orphan.CategoryID = "cat_deleted_long_ago"
	orphan.Amount = core.Money{Cents: 5000}
	mustAdd(t, s, orphan)

	summaries := s.CategorySummariesForMonth(MonthFilter{Year: 2024, Month: time.March}, core.Expense)
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}
	// Largest first; the orphan rolled up into the catch-all.
	if summaries[0].CategoryID != core.OtherExpenseCategoryID || summaries[0].Total.Cents != 5000 {
		t.Fatalf("fallback summary wrong: %+v", summaries[0])
	}
	if summaries[1].CategoryID != "cat_groceries" || summaries[1].Total.Cents != 1200 {
		t.Fatalf("groceries summary wrong: %+v", summaries[1])
	}
}

func TestSearch(t *testing.T) {
	s := newTestStore(t)

	coffee := expense("2024-03-05")
	coffee.Description = "Morning Coffee"
	mustAdd(t, s, coffee)

	tagged := expense("2024-03-06")
	tagged.Tags = []string{"vacation", "family"}
	mustAdd(t, s, tagged)

	groceries := expense("2024-03-07")
	mustAdd(t, s, groceries)

	if got := s.Search("coffee"); len(got) != 1 || got[0].Description != "Morning Coffee" {
		t.Fatalf("description search: %+v", got)
	}
	if got := s.Search("VACATION"); len(got) != 1 {
		t.Fatalf("tag search should be case-insensitive: %+v", got)
	}
	// Category name matches all three (all cat_groceries).
	if got := s.Search("groceries"); len(got) != 3 {
		t.Fatalf("category search matched %d, want 3", len(got))
	}
	if got := s.Search("  "); got != nil {
		t.Fatalf("blank query returned %+v", got)
	}
}

func TestCategoryLookups(t *testing.T) {
	s := newTestStore(t)

	if name := s.CategoryName("cat_groceries"); name != "Groceries" {
		t.Fatalf("CategoryName = %q", name)
	}
	if name := s.CategoryName("cat_gone"); name != "" {
		t.Fatalf("unknown id gave %q", name)
	}
	if id := s.CategoryIDByName("groceries"); id != "cat_groceries" {
		t.Fatalf("CategoryIDByName = %q", id)
	}
	if id := s.CategoryIDByName("סופרמרקט"); id != "cat_groceries" {
		t.Fatalf("localized lookup = %q", id)
	}
	if id := s.CategoryIDByName("nonsense"); id != "" {
		t.Fatalf("unknown name gave %q", id)
	}
}

func TestCategoryCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	added, err := s.AddCategory(ctx, core.Category{Name: "Pets", Type: core.Expense})
	if err != nil {
		t.Fatal(err)
	}
	if added.ID == "" {
		t.Fatal("expected generated category id")
	}

	added.Name = "Pet Care"
	if err := s.UpdateCategory(ctx, added); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.CategoryByID(added.ID); got.Name != "Pet Care" {
		t.Fatalf("update lost: %+v", got)
	}

	if err := s.DeleteCategory(ctx, added.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.CategoryByID(added.ID); ok {
		t.Fatal("category survived delete")
	}
}

func TestResolveCategoryAfterDelete(t *testing.T) {
	s := newTestStore(t)
	cat := s.ResolveCategory("cat_never_existed", core.Expense)
	if cat.ID != core.OtherExpenseCategoryID {
		t.Fatalf("expected catch-all, got %+v", cat)
	}
	cat = s.ResolveCategory("cat_never_existed", core.Income)
	if cat.ID != core.OtherIncomeCategoryID {
		t.Fatalf("expected income catch-all, got %+v", cat)
	}
}
