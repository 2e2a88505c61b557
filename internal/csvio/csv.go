// Package csvio reads and writes the ledger's CSV interchange format.
//
// Exported files use one row per transaction with DD/MM/YYYY dates and the
// category's display name instead of its id. Import is permissive about date
// layouts so files produced by spreadsheets survive a round trip.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"tally/internal/core"
)

var header = []string{"date", "type", "category", "amount", "tags", "notes"}

const exportDateLayout = "02/01/2006"

// importDateLayouts are tried in order; the first match wins.
var importDateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"2006-01-02",
	"02-01-2006",
}

// CategoryNamer resolves a category id to its display name for export.
type CategoryNamer interface {
	CategoryName(id string) string
}

// CategoryFinder resolves a display name back to a category id on import.
// An empty return means no match; the row falls back to the catch-all.
type CategoryFinder interface {
	CategoryIDByName(name string) string
}

// Export writes transactions as CSV. Templates are written like any other
// row; recurrence rules do not survive a CSV round trip.
func Export(w io.Writer, transactions []core.Transaction, names CategoryNamer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, t := range transactions {
		row := []string{
			t.Date.Time().Format(exportDateLayout),
			string(t.Type),
			names.CategoryName(t.CategoryID),
			t.Amount.String(),
			strings.Join(t.Tags, ";"),
			t.Description,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Import parses CSV rows into transactions. Rows keep their source line
// number in error messages so a user can fix the file. A header row matching
// the export format is skipped.
func Import(r io.Reader, categories CategoryFinder) ([]core.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []core.Transaction
	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV: %w", err)
		}
		line++

		if line == 1 && isHeader(record) {
			continue
		}
		if len(record) < 4 {
			return nil, fmt.Errorf("line %d: expected at least 4 fields, got %d", line, len(record))
		}

		t, err := parseRow(record, categories)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, t)
	}

	return out, nil
}

func parseRow(record []string, categories CategoryFinder) (core.Transaction, error) {
	date, err := parseDate(strings.TrimSpace(record[0]))
	if err != nil {
		return core.Transaction{}, err
	}

	txType := core.TransactionType(strings.ToLower(strings.TrimSpace(record[1])))
	if txType != core.Income && txType != core.Expense {
		return core.Transaction{}, fmt.Errorf("unknown type %q: %w", record[1], core.ErrInvalidType)
	}

	categoryID := ""
	if name := strings.TrimSpace(record[2]); name != "" {
		categoryID = categories.CategoryIDByName(name)
	}
	if categoryID == "" {
		categoryID = core.FallbackCategoryID(txType)
	}

	cents, err := core.ParseDecimalToCents(strings.TrimSpace(record[3]))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount %q: %w", record[3], err)
	}

	var tags []string
	if len(record) > 4 && strings.TrimSpace(record[4]) != "" {
		for _, tag := range strings.Split(record[4], ";") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	description := ""
	if len(record) > 5 {
		description = strings.TrimSpace(record[5])
	}

	return core.Transaction{
		Type:        txType,
		Amount:      core.Money{Cents: cents},
		CategoryID:  categoryID,
		Date:        date,
		Description: description,
		Tags:        tags,
	}, nil
}

func parseDate(s string) (core.Date, error) {
	for _, layout := range importDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return core.DateOf(t), nil
		}
	}
	return "", fmt.Errorf("unrecognized date %q", s)
}

func isHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "date")
}
