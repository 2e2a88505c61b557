package memory

import (
	"context"
	"testing"

	"tally/internal/docstore"
)

func TestSetListDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.Set(ctx, "things", "b", []byte(`{"v":2}`)); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "things", "a", []byte(`{"v":1}`)); err != nil {
		t.Fatal(err)
	}

	docs, err := s.List(ctx, "things")
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 || docs[0].ID != "a" || docs[1].ID != "b" {
		t.Fatalf("List returned %+v", docs)
	}

	if err := s.Delete(ctx, "things", "a"); err != nil {
		t.Fatal(err)
	}
	docs, _ = s.List(ctx, "things")
	if len(docs) != 1 || docs[0].ID != "b" {
		t.Fatalf("after delete: %+v", docs)
	}

	// Deleting a missing document is a no-op.
	if err := s.Delete(ctx, "things", "missing"); err != nil {
		t.Fatal(err)
	}
}

func TestSetRejectsEmptyID(t *testing.T) {
	if err := New().Set(context.Background(), "things", "", nil); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestBatch(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Set(ctx, "things", "old", []byte("x")); err != nil {
		t.Fatal(err)
	}

	err := s.Batch(ctx, []docstore.Op{
		{Kind: docstore.OpSet, Collection: "things", ID: "new", Data: []byte("y")},
		{Kind: docstore.OpDelete, Collection: "things", ID: "old"},
	})
	if err != nil {
		t.Fatal(err)
	}

	docs, _ := s.List(ctx, "things")
	if len(docs) != 1 || docs[0].ID != "new" {
		t.Fatalf("after batch: %+v", docs)
	}
}

func TestListCopiesData(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Set(ctx, "things", "a", []byte("abc")); err != nil {
		t.Fatal(err)
	}

	docs, _ := s.List(ctx, "things")
	docs[0].Data[0] = 'X'

	again, _ := s.List(ctx, "things")
	if string(again[0].Data) != "abc" {
		t.Fatal("List leaked internal buffer")
	}
}
