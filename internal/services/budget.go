package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tally/internal/core"
	"tally/internal/ledger"
)

// ErrNotStandalone is returned when a plain delete targets a series member;
// those must go through the series operations.
var ErrNotStandalone = errors.New("transaction belongs to a series")

// ChangePublisher emits best-effort notifications after ledger mutations.
// The AMQP client implements it; a nil publisher disables events.
type ChangePublisher interface {
	PublishLedgerChange(ctx context.Context, action, transactionID string) error
}

// BudgetService is the mutation entry point used by the transport layer.
// Every mutating operation is followed by an explicit reconcile pass, and
// publishes a change event that must never fail the user's request.
type BudgetService struct {
	ledger *ledger.Store
	engine *Engine
	series *SeriesService
	events ChangePublisher
}

func NewBudgetService(store *ledger.Store, engine *Engine, series *SeriesService, events ChangePublisher) *BudgetService {
	return &BudgetService{ledger: store, engine: engine, series: series, events: events}
}

// AddTransaction stores a transaction and reconciles, so a newly added
// template materializes its occurrences immediately.
func (s *BudgetService) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	stored, err := s.ledger.Add(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("add transaction: %w", err)
	}
	if _, err := s.engine.Reconcile(ctx); err != nil {
		return stored, fmt.Errorf("reconcile recurrences: %w", err)
	}
	s.publish(ctx, "transaction.added", stored.ID)
	return stored, nil
}

// UpdateTransaction replaces a standalone transaction. Series members go
// through the series operations instead.
func (s *BudgetService) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	stored, err := s.ledger.Update(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if _, err := s.engine.Reconcile(ctx); err != nil {
		return stored, fmt.Errorf("reconcile recurrences: %w", err)
	}
	s.publish(ctx, "transaction.updated", stored.ID)
	return stored, nil
}

// DeleteTransaction hard-deletes a standalone transaction. Deleting any
// member of a series routes through the series semantics so the tombstone
// index stays correct.
func (s *BudgetService) DeleteTransaction(ctx context.Context, id string) error {
	target, ok := s.ledger.Get(id)
	if !ok {
		return fmt.Errorf("delete transaction %s: %w", id, ledger.ErrNotFound)
	}
	if target.Kind() != core.KindStandalone {
		return fmt.Errorf("delete transaction %s: %w", id, ErrNotStandalone)
	}
	if err := s.ledger.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, "transaction.deleted", id)
	return nil
}

// DeleteOccurrence removes one occurrence of a series permanently.
func (s *BudgetService) DeleteOccurrence(ctx context.Context, id string) error {
	if err := s.series.DeleteOccurrence(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, "series.occurrence_deleted", id)
	return nil
}

// DeleteOnward truncates a series from the target occurrence on.
func (s *BudgetService) DeleteOnward(ctx context.Context, id string) error {
	if err := s.series.DeleteOnward(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, "series.deleted_onward", id)
	return nil
}

// DeleteSeries removes a whole series.
func (s *BudgetService) DeleteSeries(ctx context.Context, id string) error {
	if err := s.series.DeleteSeries(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, "series.deleted", id)
	return nil
}

// EditOccurrence updates a single series member.
func (s *BudgetService) EditOccurrence(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	stored, err := s.series.EditOccurrence(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}
	s.publish(ctx, "series.occurrence_edited", stored.ID)
	return stored, nil
}

// EditOnward splits a series at the target occurrence.
func (s *BudgetService) EditOnward(ctx context.Context, id string, updated core.Transaction) (core.Transaction, error) {
	tmpl, err := s.series.EditOnward(ctx, id, updated)
	if err != nil {
		return core.Transaction{}, err
	}
	s.publish(ctx, "series.edited_onward", tmpl.ID)
	return tmpl, nil
}

// EditSeries redefines a whole series.
func (s *BudgetService) EditSeries(ctx context.Context, id string, updated core.Transaction) (core.Transaction, error) {
	tmpl, err := s.series.EditSeries(ctx, id, updated)
	if err != nil {
		return core.Transaction{}, err
	}
	s.publish(ctx, "series.edited", tmpl.ID)
	return tmpl, nil
}

// ImportTransactions batch-adds imported rows and reconciles once.
func (s *BudgetService) ImportTransactions(ctx context.Context, ts []core.Transaction) ([]core.Transaction, error) {
	added, err := s.ledger.AddMany(ctx, ts)
	if err != nil {
		return added, fmt.Errorf("import transactions: %w", err)
	}
	if _, err := s.engine.Reconcile(ctx); err != nil {
		return added, fmt.Errorf("reconcile recurrences: %w", err)
	}
	s.publish(ctx, "transactions.imported", "")
	return added, nil
}

// Reset wipes all transactions for the user.
func (s *BudgetService) Reset(ctx context.Context) error {
	if err := s.ledger.Reset(ctx); err != nil {
		return err
	}
	s.publish(ctx, "transactions.reset", "")
	return nil
}

// Reconcile runs an expansion pass on demand, used by the periodic ticker
// that rolls the generation horizon across day boundaries.
func (s *BudgetService) Reconcile(ctx context.Context) (int, error) {
	return s.engine.Reconcile(ctx)
}

func (s *BudgetService) publish(ctx context.Context, action, id string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLedgerChange(ctx, action, id); err != nil {
		// Events are best effort; the mutation already succeeded locally.
		slog.ErrorContext(ctx, "failed to publish ledger change",
			"action", action, "id", id, "error", err)
	}
}
