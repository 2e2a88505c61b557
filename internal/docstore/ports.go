// Package docstore abstracts the persistent per-user document collections the
// budgeting core mirrors its state into. Collections are flat and keyed by
// document id; payloads are opaque JSON.
package docstore

import "context"

// Document is one persisted record.
type Document struct {
	ID   string
	Data []byte
}

// OpKind discriminates batch operations.
type OpKind string

const (
	OpSet    OpKind = "set"
	OpDelete OpKind = "delete"
)

// Op is a single entry of a batch write.
type Op struct {
	Kind       OpKind
	Collection string
	ID         string
	Data       []byte
}

// Store is the persistence port.
type Store interface {
	// List reads every document in a collection.
	List(ctx context.Context, collection string) ([]Document, error)

	// Set upserts a document.
	Set(ctx context.Context, collection, id string, data []byte) error

	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error

	// Batch applies a bounded set of operations together. Backends apply a
	// single batch atomically where they can; callers must never assume
	// atomicity across separate Batch calls.
	Batch(ctx context.Context, ops []Op) error

	// Close releases backend resources.
	Close() error
}
