package archive_test

import (
	"context"
	"flag"
	"path/filepath"
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/noticed/internal/archive"
	"github.com/gyaneshwarpardhi/noticed/internal/relay"
)

var integration = flag.Bool("integration", false, "perform integration tests")

func TestOpen_RequiresBackend(t *testing.T) {
	if _, err := archive.Open(); err == nil {
		t.Fatal("expected error without a backend")
	}
	if _, err := archive.Open(archive.WithSQLite("a.db"), archive.WithPostgres("host=x")); err == nil {
		t.Fatal("expected error with two backends")
	}
}

func store(t *testing.T) *archive.Store {
	t.Helper()
	s, err := archive.Open(archive.WithSQLite(filepath.Join(t.TempDir(), "archive.db")))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_DeliverAndList(t *testing.T) {
	if !*integration {
		t.Skip("skipping integration tests")
	}

	s := store(t)
	ctx := context.Background()
	now := time.Now()

	deliveries := []relay.Delivery{
		{ID: "n-1", Type: "afterInsert", Payload: []byte(`{"type":"afterInsert"}`), ReceivedAt: now},
		{ID: "n-2", Type: "afterDelete", Payload: []byte(`{"type":"afterDelete","target":"doc"}`), ReceivedAt: now},
		{ID: "n-3", Type: "afterDelete", Payload: []byte(`{"type":"afterDelete"}`), ReceivedAt: now},
	}
	for _, d := range deliveries {
		if err := s.Deliver(ctx, d); err != nil {
			t.Fatalf("deliver %s: %v", d.ID, err)
		}
	}

	all, err := s.List(ctx, archive.Query{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].ID != "n-3" || all[2].ID != "n-1" {
		t.Errorf("list order = %+v", all)
	}

	deletes, err := s.List(ctx, archive.Query{Type: "afterDelete", Limit: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(deletes) != 1 || deletes[0].ID != "n-3" {
		t.Errorf("filtered = %+v", deletes)
	}
	if string(all[1].Notice) != `{"type":"afterDelete","target":"doc"}` {
		t.Errorf("payload = %s", all[1].Notice)
	}
}

func TestStore_DuplicateID(t *testing.T) {
	if !*integration {
		t.Skip("skipping integration tests")
	}

	s := store(t)
	d := relay.Delivery{ID: "dup", Type: "x", Payload: []byte(`{}`), ReceivedAt: time.Now()}
	if err := s.Deliver(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	if err := s.Deliver(context.Background(), d); err == nil {
		t.Error("expected unique constraint error")
	}
}
