package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"tally/internal/core"
)

// MonthFilter narrows ListForMonth.
type MonthFilter struct {
	Year  int
	Month time.Month

	// ExcludeFuture drops transactions dated after Today. Used by balance
	// views that should only count what has already happened.
	ExcludeFuture bool
	Today         core.Date

	// CategoryID, when set, keeps only that category's transactions.
	CategoryID string
}

// ListForMonth returns the month's active transactions sorted by date
// descending, creation time descending as the tie-breaker.
func (s *Store) ListForMonth(f MonthFilter) []core.Transaction {
	var out []core.Transaction
	for _, t := range s.Active() {
		if !t.Date.InMonth(f.Year, f.Month) {
			continue
		}
		if f.ExcludeFuture && !f.Today.IsZero() && t.Date.After(f.Today) {
			continue
		}
		if f.CategoryID != "" && t.CategoryID != f.CategoryID {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// BalanceForMonth totals the month's income and expenses. The balance may be
// negative.
func (s *Store) BalanceForMonth(f MonthFilter) core.MonthBalance {
	b := core.MonthBalance{Year: f.Year, Month: int(f.Month)}
	for _, t := range s.ListForMonth(f) {
		switch t.Type {
		case core.Income:
			b.Income.Cents += t.Amount.Cents
		case core.Expense:
			b.Expenses.Cents += t.Amount.Cents
		}
	}
	b.Balance.Cents = b.Income.Cents - b.Expenses.Cents
	return b
}

// CategorySummariesForMonth totals the month's transactions of one type per
// category, largest first. Unresolvable categories degrade to the catch-all
// of the matching type rather than erroring.
func (s *Store) CategorySummariesForMonth(f MonthFilter, typ core.TransactionType) []core.CategorySummary {
	totals := make(map[string]int64)
	for _, t := range s.ListForMonth(f) {
		if t.Type != typ {
			continue
		}
		cat := s.ResolveCategory(t.CategoryID, t.Type)
		totals[cat.ID] += t.Amount.Cents
	}

	out := make([]core.CategorySummary, 0, len(totals))
	for id, cents := range totals {
		cat := s.ResolveCategory(id, typ)
		out = append(out, core.CategorySummary{
			CategoryID: id,
			Name:       cat.Name,
			Total:      core.Money{Cents: cents},
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out
}

// Search matches active transactions against a free-text query over the
// description, tags and resolved category names, case-insensitively.
func (s *Store) Search(query string) []core.Transaction {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var out []core.Transaction
	for _, t := range s.Active() {
		if s.matches(t, query) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *Store) matches(t core.Transaction, query string) bool {
	if strings.Contains(strings.ToLower(t.Description), query) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	cat := s.ResolveCategory(t.CategoryID, t.Type)
	return strings.Contains(strings.ToLower(cat.Name), query) ||
		strings.Contains(strings.ToLower(cat.LocalName), query)
}

// Categories returns a copy of the category list.
func (s *Store) Categories() []core.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Category, len(s.categories))
	copy(out, s.categories)
	return out
}

// CategoryByID returns a category without fallback semantics.
func (s *Store) CategoryByID(id string) (core.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.ID == id {
			return c, true
		}
	}
	return core.Category{}, false
}

// CategoryName returns the display name for id, or an empty string when the
// id no longer resolves.
func (s *Store) CategoryName(id string) string {
	if c, ok := s.CategoryByID(id); ok {
		return c.Name
	}
	return ""
}

// CategoryIDByName resolves a display or localized name to a category id.
// Returns an empty string when no category matches.
func (s *Store) CategoryIDByName(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if strings.EqualFold(c.Name, name) || strings.EqualFold(c.LocalName, name) {
			return c.ID
		}
	}
	return ""
}

// ResolveCategory looks up a category, degrading to the catch-all of the
// given type when the id no longer resolves. Orphaned references are expected
// after category deletion and must not fail.
func (s *Store) ResolveCategory(id string, typ core.TransactionType) core.Category {
	if c, ok := s.CategoryByID(id); ok {
		return c
	}
	if c, ok := s.CategoryByID(core.FallbackCategoryID(typ)); ok {
		return c
	}
	return core.Category{ID: core.FallbackCategoryID(typ), Name: "Unclassified", Type: typ}
}

// AddCategory stores a new category, assigning an id when absent.
func (s *Store) AddCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if c.ID == "" {
		c.ID = "cat_" + uuid.NewString()
	}

	s.mu.Lock()
	next := make([]core.Category, len(s.categories), len(s.categories)+1)
	copy(next, s.categories)
	s.categories = append(next, c)
	s.mu.Unlock()

	if err := s.persistCategory(ctx, c); err != nil {
		return c, err
	}
	return c, nil
}

// UpdateCategory replaces a category by id.
func (s *Store) UpdateCategory(ctx context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	next := make([]core.Category, len(s.categories))
	copy(next, s.categories)
	found := false
	for i := range next {
		if next[i].ID == c.ID {
			next[i] = c
			found = true
			break
		}
	}
	if found {
		s.categories = next
	}
	s.mu.Unlock()

	if !found {
		return fmt.Errorf("update category %s: %w", c.ID, ErrNotFound)
	}
	return s.persistCategory(ctx, c)
}

// DeleteCategory removes a category. Existing transactions keep their
// categoryId; lookups degrade to the catch-all from then on.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	next := make([]core.Category, 0, len(s.categories))
	found := false
	for _, c := range s.categories {
		if c.ID == id {
			found = true
			continue
		}
		next = append(next, c)
	}
	if found {
		s.categories = next
	}
	s.mu.Unlock()

	if !found {
		return fmt.Errorf("delete category %s: %w", id, ErrNotFound)
	}
	if err := s.docs.Delete(ctx, categoriesCollection, id); err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	return nil
}

func (s *Store) persistCategory(ctx context.Context, c core.Category) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal category: %w", err)
	}
	if err := s.docs.Set(ctx, categoriesCollection, c.ID, data); err != nil {
		return fmt.Errorf("persist category %s: %w", c.ID, err)
	}
	return nil
}
