package services

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/core"
	"tally/internal/ledger"
)

// SeriesService implements the user-facing edit and delete semantics over a
// recurring series. Every operation ends with an explicit reconcile pass so
// the active set converges immediately rather than waiting on an observer.
type SeriesService struct {
	ledger     *ledger.Store
	tombstones *ledger.TombstoneIndex
	engine     *Engine
}

func NewSeriesService(store *ledger.Store, tombstones *ledger.TombstoneIndex, engine *Engine) *SeriesService {
	return &SeriesService{ledger: store, tombstones: tombstones, engine: engine}
}

// DeleteOccurrence soft-deletes one transaction of a series and tombstones
// its date so the engine never regenerates it.
func (s *SeriesService) DeleteOccurrence(ctx context.Context, id string) error {
	target, ok := s.ledger.Get(id)
	if !ok {
		return fmt.Errorf("delete occurrence %s: %w", id, ledger.ErrNotFound)
	}
	key, err := target.SeriesKey()
	if err != nil {
		return fmt.Errorf("delete occurrence %s: %w", id, err)
	}

	if err := s.ledger.SoftDelete(ctx, id); err != nil {
		return err
	}
	if err := s.tombstones.Record(ctx, key, target.Date); err != nil {
		return err
	}
	return s.reconcile(ctx)
}

// DeleteOnward removes the target occurrence and everything after it. The
// template survives with its end rewritten to the day before the cut, and
// every removed date is tombstoned so a later expansion pass racing ahead of
// the truncation cannot resurrect them.
func (s *SeriesService) DeleteOnward(ctx context.Context, id string) error {
	target, ok := s.ledger.Get(id)
	if !ok {
		return fmt.Errorf("delete onward from %s: %w", id, ledger.ErrNotFound)
	}
	key, err := target.SeriesKey()
	if err != nil {
		return fmt.Errorf("delete onward from %s: %w", id, err)
	}

	if err := s.truncate(ctx, key, target.Date); err != nil {
		return err
	}
	return s.reconcile(ctx)
}

// truncate soft-deletes series members dated at or after cutoff (never the
// template), tombstones their dates, and rewrites the template's end bound to
// the day before cutoff.
func (s *SeriesService) truncate(ctx context.Context, key string, cutoff core.Date) error {
	var (
		removeIDs []string
		dates     []core.Date
		template  *core.Transaction
	)
	for _, member := range s.ledger.Series(key) {
		member := member
		if member.ID == key {
			template = &member
			continue
		}
		if member.Date.Before(cutoff) {
			continue
		}
		removeIDs = append(removeIDs, member.ID)
		dates = append(dates, member.Date)
	}

	if len(removeIDs) > 0 {
		if err := s.ledger.SoftDeleteMany(ctx, removeIDs); err != nil {
			return err
		}
		if err := s.tombstones.Record(ctx, key, dates...); err != nil {
			return err
		}
	}

	if template != nil && template.Recurrence != nil {
		rule := *template.Recurrence
		rule.EndType = core.EndOnDate
		rule.EndDate = cutoff.AddDays(-1)
		rule.Occurrences = 0
		template.Recurrence = &rule
		if _, err := s.ledger.Update(ctx, *template); err != nil {
			return fmt.Errorf("truncate series %s: %w", key, err)
		}
	}

	slog.InfoContext(ctx, "series truncated",
		"series", key,
		"cutoff", string(cutoff),
		"removed", len(removeIDs))
	return nil
}

// DeleteSeries soft-deletes the template and every occurrence. No truncation
// is needed since the template itself is gone.
func (s *SeriesService) DeleteSeries(ctx context.Context, id string) error {
	target, ok := s.ledger.Get(id)
	if !ok {
		return fmt.Errorf("delete series of %s: %w", id, ledger.ErrNotFound)
	}
	key, err := target.SeriesKey()
	if err != nil {
		return fmt.Errorf("delete series of %s: %w", id, err)
	}

	members := s.ledger.Series(key)
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	if err := s.ledger.SoftDeleteMany(ctx, ids); err != nil {
		return err
	}
	return s.reconcile(ctx)
}

// EditOccurrence updates one record of a series without touching the template
// or its siblings.
func (s *SeriesService) EditOccurrence(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	updated, err := s.ledger.Update(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := s.reconcile(ctx); err != nil {
		return updated, err
	}
	return updated, nil
}

// EditOnward splits the series: the old rule is truncated at the target's
// date exactly as in DeleteOnward, and a fresh template carrying the updated
// fields re-seeds generation from the split point. The old rule's tombstones
// survive; the new template starts with a clean history.
func (s *SeriesService) EditOnward(ctx context.Context, id string, updated core.Transaction) (core.Transaction, error) {
	target, ok := s.ledger.Get(id)
	if !ok {
		return core.Transaction{}, fmt.Errorf("edit onward from %s: %w", id, ledger.ErrNotFound)
	}
	key, err := target.SeriesKey()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("edit onward from %s: %w", id, err)
	}

	if err := s.truncate(ctx, key, target.Date); err != nil {
		return core.Transaction{}, err
	}

	updated.ID = ""
	updated.OriginalID = ""
	updated.Deleted = false
	updated.Date = target.Date
	if updated.Recurrence == nil {
		return core.Transaction{}, fmt.Errorf("edit onward from %s: updated series needs a recurrence rule", id)
	}

	tmpl, err := s.ledger.Add(ctx, updated)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("reseed series from %s: %w", string(target.Date), err)
	}
	if err := s.reconcile(ctx); err != nil {
		return tmpl, err
	}
	return tmpl, nil
}

// EditSeries redefines the whole series: generated instances are
// hard-deleted (they will be regenerated under the new rule), the template is
// updated in place, and the series' tombstones are cleared. A full
// redefinition supersedes the old rule's deletion history.
func (s *SeriesService) EditSeries(ctx context.Context, id string, updated core.Transaction) (core.Transaction, error) {
	target, ok := s.ledger.Get(id)
	if !ok {
		return core.Transaction{}, fmt.Errorf("edit series of %s: %w", id, ledger.ErrNotFound)
	}
	key, err := target.SeriesKey()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("edit series of %s: %w", id, err)
	}

	var instanceIDs []string
	for _, m := range s.ledger.Series(key) {
		if m.OriginalID == key {
			instanceIDs = append(instanceIDs, m.ID)
		}
	}
	if err := s.ledger.DeleteMany(ctx, instanceIDs); err != nil {
		return core.Transaction{}, err
	}

	updated.ID = key
	updated.OriginalID = ""
	updated.Deleted = false
	tmpl, err := s.ledger.Update(ctx, updated)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("redefine series %s: %w", key, err)
	}

	if err := s.tombstones.Clear(ctx, key); err != nil {
		return tmpl, err
	}
	if err := s.reconcile(ctx); err != nil {
		return tmpl, err
	}
	return tmpl, nil
}

func (s *SeriesService) reconcile(ctx context.Context) error {
	if _, err := s.engine.Reconcile(ctx); err != nil {
		return fmt.Errorf("reconcile recurrences: %w", err)
	}
	return nil
}
