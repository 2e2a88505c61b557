// Package memory provides an in-process docstore backend used for tests and
// for running without persistence.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tally/internal/docstore"
)

type Store struct {
	mu          sync.Mutex
	collections map[string]map[string][]byte
}

func New() *Store {
	return &Store{collections: make(map[string]map[string][]byte)}
}

// List returns all documents in a collection ordered by id.
func (s *Store) List(_ context.Context, collection string) ([]docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll := s.collections[collection]
	out := make([]docstore.Document, 0, len(coll))
	for id, data := range coll {
		out = append(out, docstore.Document{ID: id, Data: append([]byte(nil), data...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Set upserts a document.
func (s *Store) Set(_ context.Context, collection, id string, data []byte) error {
	if id == "" {
		return fmt.Errorf("set document in %s: empty id", collection)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(collection, id, data)
	return nil
}

// Delete removes a document if present.
func (s *Store) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[collection], id)
	return nil
}

// Batch applies all operations under one lock, so readers never observe a
// partially applied batch.
func (s *Store) Batch(_ context.Context, ops []docstore.Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range ops {
		switch op.Kind {
		case docstore.OpSet:
			if op.ID == "" {
				return fmt.Errorf("batch set in %s: empty id", op.Collection)
			}
			s.set(op.Collection, op.ID, op.Data)
		case docstore.OpDelete:
			delete(s.collections[op.Collection], op.ID)
		default:
			return fmt.Errorf("unknown batch op kind: %s", op.Kind)
		}
	}
	return nil
}

func (s *Store) Close() error { return nil }

func (s *Store) set(collection, id string, data []byte) {
	coll := s.collections[collection]
	if coll == nil {
		coll = make(map[string][]byte)
		s.collections[collection] = coll
	}
	coll[id] = append([]byte(nil), data...)
}
