package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

const (
	EndNever      EndType = "never"
	EndOnDate     EndType = "date"
	EndAfterCount EndType = "count"
)

const (
	KindStandalone Kind = "standalone"
	KindTemplate   Kind = "template"
	KindOccurrence Kind = "occurrence"
	KindInvalid    Kind = "invalid"
)

type (
	TransactionType string
	Frequency       string
	EndType         string

	// Kind classifies a transaction: a plain standalone record, the template
	// of a recurring series, or a generated occurrence of one.
	Kind string

	// Recurrence is the generation rule carried by a series template.
	Recurrence struct {
		Frequency   Frequency `json:"frequency"`
		EndType     EndType   `json:"endType"`
		EndDate     Date      `json:"endDate,omitempty"`
		Occurrences int       `json:"occurrences,omitempty"`
	}

	// Transaction is a single financial event. Amount is always a positive
	// magnitude; the sign is implied by Type. Deleted is a soft-delete
	// tombstone so series history survives removal from the active set.
	Transaction struct {
		ID          string          `json:"id"`
		Type        TransactionType `json:"type"`
		Amount      Money           `json:"amount"`
		CategoryID  string          `json:"categoryId"`
		Date        Date            `json:"date"`
		Description string          `json:"description,omitempty"`
		Tags        []string        `json:"tags,omitempty"`
		CreatedAt   time.Time       `json:"createdAt"`
		Recurrence  *Recurrence     `json:"recurrence,omitempty"`
		OriginalID  string          `json:"originalId,omitempty"`
		Deleted     bool            `json:"deleted,omitempty"`
	}
)

var (
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrMissingCategory  = errors.New("missing category")
	ErrTemplateConflict = errors.New("transaction cannot carry both a recurrence rule and an originalId")
	ErrMissingSeriesKey = errors.New("transaction has neither id nor originalId")
)

// Kind derives the variant from which optional fields are set. A template
// carries a recurrence rule and no originalId; an occurrence carries an
// originalId and no rule; both set is illegal.
func (t Transaction) Kind() Kind {
	switch {
	case t.Recurrence != nil && t.OriginalID != "":
		return KindInvalid
	case t.Recurrence != nil:
		return KindTemplate
	case t.OriginalID != "":
		return KindOccurrence
	default:
		return KindStandalone
	}
}

// SeriesKey returns the id under which this transaction's series is tracked:
// the template's own id, or the originalId for a generated occurrence.
func (t Transaction) SeriesKey() (string, error) {
	if t.OriginalID != "" {
		return t.OriginalID, nil
	}
	if t.ID != "" {
		return t.ID, nil
	}
	return "", ErrMissingSeriesKey
}

// Validate rejects transactions that must never reach the store. A malformed
// recurrence rule is deliberately NOT an error here: such a template is still
// a valid standalone transaction, it just generates nothing.
func (t Transaction) Validate() error {
	switch t.Type {
	case Income, Expense:
	default:
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrMissingCategory
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if t.Kind() == KindInvalid {
		return ErrTemplateConflict
	}
	return nil
}

// Valid reports whether the rule can drive generation. A nil or malformed
// rule stops expansion without invalidating the transaction that carries it.
func (r *Recurrence) Valid() bool {
	if r == nil {
		return false
	}
	switch r.Frequency {
	case Daily, Weekly, Monthly:
	default:
		return false
	}
	switch r.EndType {
	case EndNever:
		return true
	case EndOnDate:
		return r.EndDate.Validate() == nil
	case EndAfterCount:
		return r.Occurrences > 0
	default:
		return false
	}
}
