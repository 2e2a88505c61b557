package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Date is a calendar day in YYYY-MM-DD form. It carries no time-of-day and no
// timezone, so two Dates order correctly as plain strings. Every component
// that stores or compares dates goes through this type; constructing dates any
// other way risks off-by-one-day corruption around UTC offsets.
type Date string

var (
	ErrEmptyDate   = errors.New("empty date")
	ErrInvalidDate = errors.New("invalid date")
)

const dateLayout = "2006-01-02"

// NewDate builds a Date from calendar components. The time of day is pinned to
// local noon before formatting so offset rounding can never shift the result
// onto an adjacent day.
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 12, 0, 0, 0, time.Local)
	return Date(t.Format(dateLayout))
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Layouts tried by NormalizeDate for anything that is not already a strict
// YYYY-MM-DD string.
var parseLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"2/1/2006",
}

// NormalizeDate canonicalizes a date-like string to YYYY-MM-DD. Strict
// YYYY-MM-DD input is returned unchanged without reparsing, which makes the
// function idempotent.
func NormalizeDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyDate
	}
	if isStrictDate(s) {
		return Date(s), nil
	}
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t.Year(), t.Month(), t.Day()), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func isStrictDate(s string) bool {
	if len(s) != len(dateLayout) || s[4] != '-' || s[7] != '-' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if i == 4 || i == 7 {
			continue
		}
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// Validate checks that d is a well-formed calendar date.
func (d Date) Validate() error {
	if d == "" {
		return ErrEmptyDate
	}
	if !isStrictDate(string(d)) {
		return fmt.Errorf("%w: %q", ErrInvalidDate, string(d))
	}
	return nil
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d == "" }

// Time returns the date pinned to local noon. Invalid dates yield the zero
// time.
func (d Date) Time() time.Time {
	t, err := time.Parse(dateLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.Local)
}

// Year returns the calendar year.
func (d Date) Year() int { return d.Time().Year() }

// Month returns the calendar month.
func (d Date) Month() time.Month { return d.Time().Month() }

// Day returns the day of the month.
func (d Date) Day() int { return d.Time().Day() }

// AddDays returns the date n days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// AddMonths advances by n calendar months with month-end clamping: a day that
// overflows the target month lands on that month's last day, never in the
// month after. A series started on the 31st therefore hits Feb 29 in a leap
// year, not Mar 2.
func (d Date) AddMonths(n int) Date {
	t := d.Time()
	day := t.Day()
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 12, 0, 0, 0, time.Local)
	lastDay := time.Date(first.Year(), first.Month()+1, 0, 12, 0, 0, 0, time.Local).Day()
	if day > lastDay {
		day = lastDay
	}
	return NewDate(first.Year(), first.Month(), day)
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool { return string(d) < string(other) }

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool { return string(d) > string(other) }

// InMonth reports whether d falls in the given year and month.
func (d Date) InMonth(year int, month time.Month) bool {
	return d.Year() == year && d.Month() == month
}
