package core

import (
	"errors"
	"testing"
)

func validTransaction() Transaction {
	return Transaction{
		ID:         "t1",
		Type:       Expense,
		Amount:     Money{Cents: 1500},
		CategoryID: "cat_groceries",
		Date:       "2024-01-15",
	}
}

func TestTransactionKind(t *testing.T) {
	rule := &Recurrence{Frequency: Weekly, EndType: EndNever}
	cases := []struct {
		name string
		tx   Transaction
		want Kind
	}{
		{"standalone", Transaction{}, KindStandalone},
		{"template", Transaction{Recurrence: rule}, KindTemplate},
		{"occurrence", Transaction{OriginalID: "t1"}, KindOccurrence},
		{"both set", Transaction{Recurrence: rule, OriginalID: "t1"}, KindInvalid},
	}
	for _, tc := range cases {
		if got := tc.tx.Kind(); got != tc.want {
			t.Fatalf("%s: Kind() = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		if err := validTransaction().Validate(); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("bad type", func(t *testing.T) {
		tx := validTransaction()
		tx.Type = "transfer"
		if !errors.Is(tx.Validate(), ErrInvalidType) {
			t.Fatal("expected ErrInvalidType")
		}
	})

	t.Run("zero amount", func(t *testing.T) {
		tx := validTransaction()
		tx.Amount = Money{}
		if !errors.Is(tx.Validate(), ErrInvalidAmount) {
			t.Fatal("expected ErrInvalidAmount")
		}
	})

	t.Run("missing category", func(t *testing.T) {
		tx := validTransaction()
		tx.CategoryID = "  "
		if !errors.Is(tx.Validate(), ErrMissingCategory) {
			t.Fatal("expected ErrMissingCategory")
		}
	})

	t.Run("template with originalId", func(t *testing.T) {
		tx := validTransaction()
		tx.Recurrence = &Recurrence{Frequency: Daily, EndType: EndNever}
		tx.OriginalID = "other"
		if !errors.Is(tx.Validate(), ErrTemplateConflict) {
			t.Fatal("expected ErrTemplateConflict")
		}
	})

	// A template whose rule is garbage is still storable; it just never
	// generates anything.
	t.Run("malformed recurrence accepted", func(t *testing.T) {
		tx := validTransaction()
		tx.Recurrence = &Recurrence{Frequency: "yearly", EndType: EndNever}
		if err := tx.Validate(); err != nil {
			t.Fatalf("malformed rule should not fail validation: %v", err)
		}
	})
}

func TestSeriesKey(t *testing.T) {
	occ := Transaction{ID: "o1", OriginalID: "tmpl"}
	if key, err := occ.SeriesKey(); err != nil || key != "tmpl" {
		t.Fatalf("occurrence key = %q, %v", key, err)
	}

	tmpl := Transaction{ID: "tmpl"}
	if key, err := tmpl.SeriesKey(); err != nil || key != "tmpl" {
		t.Fatalf("template key = %q, %v", key, err)
	}

	if _, err := (Transaction{}).SeriesKey(); !errors.Is(err, ErrMissingSeriesKey) {
		t.Fatal("expected ErrMissingSeriesKey")
	}
}

func TestRecurrenceValid(t *testing.T) {
	cases := []struct {
		name string
		rule *Recurrence
		want bool
	}{
		{"nil", nil, false},
		{"never", &Recurrence{Frequency: Daily, EndType: EndNever}, true},
		{"on date", &Recurrence{Frequency: Monthly, EndType: EndOnDate, EndDate: "2025-01-01"}, true},
		{"count", &Recurrence{Frequency: Weekly, EndType: EndAfterCount, Occurrences: 3}, true},
		{"bad frequency", &Recurrence{Frequency: "yearly", EndType: EndNever}, false},
		{"bad end type", &Recurrence{Frequency: Daily, EndType: "someday"}, false},
		{"date end without date", &Recurrence{Frequency: Daily, EndType: EndOnDate}, false},
		{"count end with zero", &Recurrence{Frequency: Daily, EndType: EndAfterCount}, false},
	}
	for _, tc := range cases {
		if got := tc.rule.Valid(); got != tc.want {
			t.Fatalf("%s: Valid() = %v, want %v", tc.name, got, tc.want)
		}
	}
}
