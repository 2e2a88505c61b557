// Package ledger owns the authoritative in-memory transaction and category
// state and mirrors every change through to a persistent document collection.
// Reads are always served from memory; the mirror is write-through and is only
// read back once, at session load.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"tally/internal/core"
	"tally/internal/docstore"
)

const (
	transactionsCollection = "transactions"
	categoriesCollection   = "categories"
	tombstonesCollection   = "deleted_occurrences"
)

var ErrNotFound = errors.New("not found")

// Store is the transaction and category store. Mutations replace the whole
// in-memory slice (copy-on-write) so concurrent readers never observe a
// half-applied change, then write through to the docstore. A persistence
// failure is surfaced to the caller with the in-memory state left ahead of the
// mirror; that inconsistency window is accepted, never silent.
type Store struct {
	mu        sync.RWMutex
	docs      docstore.Store
	batchSize int

	transactions []core.Transaction // includes soft-deleted records
	categories   []core.Category
}

func NewStore(docs docstore.Store, batchSize int) *Store {
	if batchSize < 1 {
		batchSize = 400
	}
	return &Store{docs: docs, batchSize: batchSize}
}

// Load reads the persisted collections into memory and seeds the default
// category set when the user has none yet.
func (s *Store) Load(ctx context.Context) error {
	txDocs, err := s.docs.List(ctx, transactionsCollection)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	catDocs, err := s.docs.List(ctx, categoriesCollection)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}

	transactions := make([]core.Transaction, 0, len(txDocs))
	for _, doc := range txDocs {
		var t core.Transaction
		if err := json.Unmarshal(doc.Data, &t); err != nil {
			slog.WarnContext(ctx, "skipping unreadable transaction document", "id", doc.ID, "error", err)
			continue
		}
		t.ID = doc.ID
		transactions = append(transactions, t)
	}

	categories := make([]core.Category, 0, len(catDocs))
	for _, doc := range catDocs {
		var c core.Category
		if err := json.Unmarshal(doc.Data, &c); err != nil {
			slog.WarnContext(ctx, "skipping unreadable category document", "id", doc.ID, "error", err)
			continue
		}
		c.ID = doc.ID
		categories = append(categories, c)
	}

	if len(categories) == 0 {
		categories = core.DefaultCategories()
		ops := make([]docstore.Op, 0, len(categories))
		for _, c := range categories {
			data, err := json.Marshal(c)
			if err != nil {
				return fmt.Errorf("marshal default category %s: %w", c.ID, err)
			}
			ops = append(ops, docstore.Op{Kind: docstore.OpSet, Collection: categoriesCollection, ID: c.ID, Data: data})
		}
		if err := s.batchWrite(ctx, ops); err != nil {
			return fmt.Errorf("seed default categories: %w", err)
		}
		slog.InfoContext(ctx, "seeded default categories", "count", len(categories))
	}

	s.mu.Lock()
	s.transactions = transactions
	s.categories = categories
	s.mu.Unlock()

	slog.InfoContext(ctx, "ledger loaded",
		"transactions", len(transactions),
		"categories", len(categories))
	return nil
}

// Add stores a transaction, assigning an id and creation time when absent and
// normalizing the date.
func (s *Store) Add(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t, err := s.prepare(t)
	if err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	s.transactions = append(cloneTransactions(s.transactions), t)
	s.mu.Unlock()

	data, err := json.Marshal(t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("marshal transaction: %w", err)
	}
	if err := s.docs.Set(ctx, transactionsCollection, t.ID, data); err != nil {
		return t, fmt.Errorf("persist transaction %s: %w", t.ID, err)
	}
	return t, nil
}

// AddMany stores a batch of transactions, chunked to the docstore batch
// limit. Chunks are atomic individually, not across the whole call.
func (s *Store) AddMany(ctx context.Context, ts []core.Transaction) ([]core.Transaction, error) {
	if len(ts) == 0 {
		return nil, nil
	}

	prepared := make([]core.Transaction, 0, len(ts))
	ops := make([]docstore.Op, 0, len(ts))
	for _, t := range ts {
		p, err := s.prepare(t)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("marshal transaction: %w", err)
		}
		prepared = append(prepared, p)
		ops = append(ops, docstore.Op{Kind: docstore.OpSet, Collection: transactionsCollection, ID: p.ID, Data: data})
	}

	s.mu.Lock()
	s.transactions = append(cloneTransactions(s.transactions), prepared...)
	s.mu.Unlock()

	if err := s.batchWrite(ctx, ops); err != nil {
		return prepared, fmt.Errorf("persist transaction batch: %w", err)
	}
	return prepared, nil
}

// Update replaces a transaction by id.
func (s *Store) Update(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", core.ErrMissingSeriesKey)
	}
	t, err := s.prepare(t)
	if err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	next := cloneTransactions(s.transactions)
	found := false
	for i := range next {
		if next[i].ID == t.ID {
			next[i] = t
			found = true
			break
		}
	}
	if found {
		s.transactions = next
	}
	s.mu.Unlock()

	if !found {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", t.ID, ErrNotFound)
	}

	data, err := json.Marshal(t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("marshal transaction: %w", err)
	}
	if err := s.docs.Set(ctx, transactionsCollection, t.ID, data); err != nil {
		return t, fmt.Errorf("persist transaction %s: %w", t.ID, err)
	}
	return t, nil
}

// Delete hard-removes a transaction from memory and the mirror. Series
// members are removed with SoftDelete instead, so generation history
// survives.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	next := make([]core.Transaction, 0, len(s.transactions))
	found := false
	for _, t := range s.transactions {
		if t.ID == id {
			found = true
			continue
		}
		next = append(next, t)
	}
	if found {
		s.transactions = next
	}
	s.mu.Unlock()

	if !found {
		return fmt.Errorf("delete transaction %s: %w", id, ErrNotFound)
	}
	if err := s.docs.Delete(ctx, transactionsCollection, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

// DeleteMany hard-removes a set of transactions in chunked batches.
func (s *Store) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	s.mu.Lock()
	next := make([]core.Transaction, 0, len(s.transactions))
	for _, t := range s.transactions {
		if !drop[t.ID] {
			next = append(next, t)
		}
	}
	s.transactions = next
	s.mu.Unlock()

	ops := make([]docstore.Op, 0, len(ids))
	for _, id := range ids {
		ops = append(ops, docstore.Op{Kind: docstore.OpDelete, Collection: transactionsCollection, ID: id})
	}
	if err := s.batchWrite(ctx, ops); err != nil {
		return fmt.Errorf("delete transaction batch: %w", err)
	}
	return nil
}

// SoftDelete marks a transaction deleted, removing it from the active set
// while keeping the record in the mirror.
func (s *Store) SoftDelete(ctx context.Context, id string) error {
	return s.SoftDeleteMany(ctx, []string{id})
}

// SoftDeleteMany tombstones a set of transactions in one batch.
func (s *Store) SoftDeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	mark := make(map[string]bool, len(ids))
	for _, id := range ids {
		mark[id] = true
	}

	var marked []core.Transaction
	s.mu.Lock()
	next := cloneTransactions(s.transactions)
	for i := range next {
		if mark[next[i].ID] && !next[i].Deleted {
			next[i].Deleted = true
			marked = append(marked, next[i])
		}
	}
	s.transactions = next
	s.mu.Unlock()

	if len(marked) == 0 {
		return fmt.Errorf("soft delete: %w", ErrNotFound)
	}

	ops := make([]docstore.Op, 0, len(marked))
	for _, t := range marked {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshal transaction: %w", err)
		}
		ops = append(ops, docstore.Op{Kind: docstore.OpSet, Collection: transactionsCollection, ID: t.ID, Data: data})
	}
	if err := s.batchWrite(ctx, ops); err != nil {
		return fmt.Errorf("persist soft deletes: %w", err)
	}
	return nil
}

// Reset removes every transaction, in memory and persisted.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	old := s.transactions
	s.transactions = nil
	s.mu.Unlock()

	ops := make([]docstore.Op, 0, len(old))
	for _, t := range old {
		ops = append(ops, docstore.Op{Kind: docstore.OpDelete, Collection: transactionsCollection, ID: t.ID})
	}
	if err := s.batchWrite(ctx, ops); err != nil {
		return fmt.Errorf("reset transactions: %w", err)
	}
	slog.InfoContext(ctx, "ledger reset", "removed", len(old))
	return nil
}

// Get returns an active transaction by id.
func (s *Store) Get(id string) (core.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.transactions {
		if t.ID == id && !t.Deleted {
			return t, true
		}
	}
	return core.Transaction{}, false
}

// Active returns a copy of all non-deleted transactions.
func (s *Store) Active() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Transaction, 0, len(s.transactions))
	for _, t := range s.transactions {
		if !t.Deleted {
			out = append(out, t)
		}
	}
	return out
}

// Series returns the active members of a series: the template plus every
// occurrence linked to it.
func (s *Store) Series(key string) []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.Deleted {
			continue
		}
		if t.ID == key || t.OriginalID == key {
			out = append(out, t)
		}
	}
	return out
}

// prepare assigns missing identity fields, normalizes the date and validates.
func (s *Store) prepare(t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	d, err := core.NormalizeDate(string(t.Date))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("normalize date: %w", err)
	}
	t.Date = d
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// batchWrite chunks operations to the docstore batch limit.
func (s *Store) batchWrite(ctx context.Context, ops []docstore.Op) error {
	for start := 0; start < len(ops); start += s.batchSize {
		end := start + s.batchSize
		if end > len(ops) {
			end = len(ops)
		}
		if err := s.docs.Batch(ctx, ops[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func cloneTransactions(in []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(in))
	copy(out, in)
	return out
}
