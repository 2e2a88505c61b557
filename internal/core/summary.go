package core

import "time"

// MonthBalance aggregates one month's activity. Balance may be negative.
type MonthBalance struct {
	Year     int   `json:"year"`
	Month    int   `json:"month"`
	Income   Money `json:"income"`
	Expenses Money `json:"expenses"`
	Balance  Money `json:"balance"`
}

// CategorySummary is one category's total within a month.
type CategorySummary struct {
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`
	Total      Money  `json:"total"`
}

// MonthOf splits a reference time into the (year, month) bucket used by the
// monthly queries.
func MonthOf(t time.Time) (int, time.Month) {
	return t.Year(), t.Month()
}
