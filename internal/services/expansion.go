// Package services holds the business logic layered over the ledger: the
// recurrence expansion engine, the series mutation operations and the budget
// facade used by the transport layer.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tally/internal/core"
	"tally/internal/ledger"
)

// Engine materializes the concrete future occurrences implied by recurring
// templates. Reconcile is idempotent: re-running it with no new gaps produces
// zero writes, which is the only protection against double-append when two
// passes overlap.
type Engine struct {
	ledger       *ledger.Store
	tombstones   *ledger.TombstoneIndex
	horizonYears int
	now          func() time.Time
}

func NewEngine(store *ledger.Store, tombstones *ledger.TombstoneIndex, horizonYears int) *Engine {
	if horizonYears < 1 {
		horizonYears = 5
	}
	return &Engine{
		ledger:       store,
		tombstones:   tombstones,
		horizonYears: horizonYears,
		now:          time.Now,
	}
}

// Reconcile scans every template in the active set and appends the missing
// occurrences in one batch. It returns the number generated.
func (e *Engine) Reconcile(ctx context.Context) (int, error) {
	now := e.now()
	today := core.DateOf(now)
	horizon := core.DateOf(now.AddDate(e.horizonYears, 0, 0))
	active := e.ledger.Active()

	// Dates already occupied per series, the idempotence guard.
	occupied := make(map[string]map[core.Date]struct{})
	for _, t := range active {
		if t.OriginalID == "" {
			continue
		}
		set := occupied[t.OriginalID]
		if set == nil {
			set = make(map[core.Date]struct{})
			occupied[t.OriginalID] = set
		}
		set[t.Date] = struct{}{}
	}

	var missing []core.Transaction
	for _, tmpl := range active {
		if tmpl.Kind() != core.KindTemplate {
			continue
		}
		missing = append(missing, e.expand(tmpl, occupied[tmpl.ID], today, horizon)...)
	}

	if len(missing) == 0 {
		return 0, nil
	}

	added, err := e.ledger.AddMany(ctx, missing)
	if err != nil {
		return len(added), fmt.Errorf("append generated occurrences: %w", err)
	}

	slog.InfoContext(ctx, "recurring expansion complete",
		"generated", len(added),
		"evaluation_date", string(today))
	return len(added), nil
}

// expand walks occurrence indexes 1..bound for one template. The template
// itself is occurrence 0 and is never regenerated. A malformed rule generates
// nothing; the template remains a perfectly good standalone transaction.
func (e *Engine) expand(tmpl core.Transaction, occupied map[core.Date]struct{}, today, horizon core.Date) []core.Transaction {
	rule := tmpl.Recurrence
	if !rule.Valid() {
		return nil
	}

	var out []core.Transaction
	for n := 1; ; n++ {
		if rule.EndType == core.EndAfterCount && n >= rule.Occurrences {
			break
		}
		d := occurrenceDate(tmpl.Date, rule.Frequency, n)
		if rule.EndType == core.EndOnDate && d.After(rule.EndDate) {
			break
		}
		// The open-ended case is capped at a fixed horizon to keep
		// expansion finite.
		if rule.EndType == core.EndNever && d.After(horizon) {
			break
		}
		if _, taken := occupied[d]; taken {
			continue
		}
		if e.tombstones.Contains(tmpl.ID, d) {
			continue
		}
		if d.Before(today) {
			continue
		}
		out = append(out, instantiate(tmpl, d, e.now()))
	}
	return out
}

// occurrenceDate advances the series start by n periods. Monthly advancement
// clamps to the target month's last day, so a series started on the 31st hits
// Feb 29 in a leap year rather than spilling into March.
func occurrenceDate(start core.Date, freq core.Frequency, n int) core.Date {
	switch freq {
	case core.Daily:
		return start.AddDays(n)
	case core.Weekly:
		return start.AddDays(7 * n)
	case core.Monthly:
		return start.AddMonths(n)
	}
	return ""
}

// instantiate copies the template into a concrete occurrence on date d.
func instantiate(tmpl core.Transaction, d core.Date, now time.Time) core.Transaction {
	inst := tmpl
	inst.ID = uuid.NewString()
	inst.OriginalID = tmpl.ID
	inst.Recurrence = nil
	inst.Date = d
	inst.CreatedAt = now
	inst.Deleted = false
	inst.Tags = append([]string(nil), tmpl.Tags...)
	return inst
}
