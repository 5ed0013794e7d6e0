package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mycelian/nurture-tracker/internal/kv"
	"github.com/mycelian/nurture-tracker/internal/kv/kvtest"
)

func makeSQLite(t *testing.T) kv.KV {
	t.Helper()
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "nested", "nurture.db"))
	if err != nil {
		t.Fatalf("sqlite open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_Compliance(t *testing.T) {
	kvtest.Run(t, makeSQLite)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nurture.db")

	s, err := New(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Set(ctx, kv.KeyCustomers, []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	_ = s.Close()

	s, err = New(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s.Close() }()
	got, err := s.Get(ctx, kv.KeyCustomers)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `[{"id":"1"}]` {
		t.Fatalf("unexpected value %s", got)
	}
}
