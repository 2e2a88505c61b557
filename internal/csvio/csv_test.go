package csvio

import (
	"bytes"
	"strings"
	"testing"

	"tally/internal/core"
)

type fakeCategories map[string]string // id -> name

func (f fakeCategories) CategoryName(id string) string { return f[id] }

func (f fakeCategories) CategoryIDByName(name string) string {
	for id, n := range f {
		if strings.EqualFold(n, name) {
			return id
		}
	}
	return ""
}

var cats = fakeCategories{
	"cat_groceries": "Groceries",
	"cat_salary":    "Salary",
}

func TestExport(t *testing.T) {
	transactions := []core.Transaction{
		{
			Type: core.Expense, Amount: core.Money{Cents: 1234},
			CategoryID: "cat_groceries", Date: "2024-01-15",
			Tags: []string{"weekly", "food"}, Description: "market run",
		},
	}

	var buf bytes.Buffer
	if err := Export(&buf, transactions, cats); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	if lines[0] != "date,type,category,amount,tags,notes" {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != "15/01/2024,expense,Groceries,12.34,weekly;food,market run" {
		t.Fatalf("row = %q", lines[1])
	}
}

func TestImport(t *testing.T) {
	input := strings.Join([]string{
		"date,type,category,amount,tags,notes",
		"15/01/2024,expense,Groceries,12.34,weekly;food,market run",
		"2024-02-01,income,Salary,1000,,",
		"5/1/2024,expense,,3.50,,no category",
	}, "\n")

	got, err := Import(strings.NewReader(input), cats)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("imported %d rows, want 3", len(got))
	}

	first := got[0]
	if first.Date != "2024-01-15" || first.CategoryID != "cat_groceries" ||
		first.Amount.Cents != 1234 || len(first.Tags) != 2 {
		t.Fatalf("first row = %+v", first)
	}

	if got[1].Type != core.Income || got[1].Date != "2024-02-01" || got[1].Amount.Cents != 100000 {
		t.Fatalf("second row = %+v", got[1])
	}

	// Missing category falls back to the catch-all for the type.
	if got[2].CategoryID != core.OtherExpenseCategoryID || got[2].Date != "2024-01-05" {
		t.Fatalf("third row = %+v", got[2])
	}
}

func TestImportErrorsCarryLineNumbers(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"bad date", "31/31/2024,expense,Groceries,1.00,,", "line 1"},
		{"bad type", "15/01/2024,transfer,Groceries,1.00,,", "line 1"},
		{"bad amount", "15/01/2024,expense,Groceries,abc,,", "line 1"},
		{"short row", "15/01/2024,expense", "line 1"},
	}
	for _, tc := range cases {
		_, err := Import(strings.NewReader(tc.input), cats)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: error %q missing %q", tc.name, err, tc.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	original := []core.Transaction{
		{
			Type: core.Expense, Amount: core.Money{Cents: 999},
			CategoryID: "cat_groceries", Date: "2024-03-31",
			Description: "end of month",
		},
	}

	var buf bytes.Buffer
	if err := Export(&buf, original, cats); err != nil {
		t.Fatal(err)
	}
	back, err := Import(&buf, cats)
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != 1 {
		t.Fatalf("round trip lost rows: %d", len(back))
	}
	if back[0].Date != original[0].Date || back[0].Amount != original[0].Amount ||
		back[0].CategoryID != original[0].CategoryID {
		t.Fatalf("round trip changed row: %+v", back[0])
	}
}
