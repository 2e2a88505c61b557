// Package sqlite backs the docstore with a local SQLite database. Documents
// are stored as JSON blobs keyed by (collection, id); batches run inside one
// transaction.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"tally/internal/docstore"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// List reads every document in a collection ordered by id.
func (s *Store) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data FROM documents WHERE collection = ? ORDER BY id`, collection)
	if err != nil {
		return nil, fmt.Errorf("list documents in %s: %w", collection, err)
	}
	defer rows.Close()

	var out []docstore.Document
	for rows.Next() {
		var doc docstore.Document
		if err := rows.Scan(&doc.ID, &doc.Data); err != nil {
			return nil, fmt.Errorf("scan document in %s: %w", collection, err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents in %s: %w", collection, err)
	}
	return out, nil
}

// Set upserts a document.
func (s *Store) Set(ctx context.Context, collection, id string, data []byte) error {
	if id == "" {
		return fmt.Errorf("set document in %s: empty id", collection)
	}
	_, err := s.db.ExecContext(ctx, upsertSQL, collection, id, data)
	if err != nil {
		return fmt.Errorf("set document %s/%s: %w", collection, id, err)
	}
	return nil
}

// Delete removes a document. Missing documents are not an error.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("delete document %s/%s: %w", collection, id, err)
	}
	return nil
}

const upsertSQL = `
INSERT INTO documents (collection, id, data, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (collection, id)
DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`

// Batch applies all operations inside a single transaction.
func (s *Store) Batch(ctx context.Context, ops []docstore.Op) error {
	if len(ops) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	for _, op := range ops {
		switch op.Kind {
		case docstore.OpSet:
			if op.ID == "" {
				return fmt.Errorf("batch set in %s: empty id", op.Collection)
			}
			if _, err := tx.ExecContext(ctx, upsertSQL, op.Collection, op.ID, op.Data); err != nil {
				return fmt.Errorf("batch set %s/%s: %w", op.Collection, op.ID, err)
			}
		case docstore.OpDelete:
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM documents WHERE collection = ? AND id = ?`, op.Collection, op.ID); err != nil {
				return fmt.Errorf("batch delete %s/%s: %w", op.Collection, op.ID, err)
			}
		default:
			return fmt.Errorf("unknown batch op kind: %s", op.Kind)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	slog.DebugContext(ctx, "docstore batch committed", "ops", len(ops))
	return nil
}
