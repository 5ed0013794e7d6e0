// Package kvtest holds a compliance suite shared by every kv.KV backend.
package kvtest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mycelian/nurture-tracker/internal/kv"
)

// Run exercises a minimal compliance suite against a kv.KV implementation.
// Implementations should provide a clean, isolated store and return it from makeKV.
func Run(t *testing.T, makeKV func(t *testing.T) kv.KV) {
	t.Helper()

	s := makeKV(t)
	ctx := context.Background()

	// Unique prefix so suites can share a database
	p := "t" + uuid.NewString()[:8] + "_"

	// Missing key
	if _, err := s.Get(ctx, p+"missing"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("Get missing: want ErrNotFound, got %v", err)
	}

	// Set / Get / overwrite
	require.NoError(t, s.Set(ctx, p+"customers", json.RawMessage(`[{"id":"1","name":"Lan"}]`)))
	got, err := s.Get(ctx, p+"customers")
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":"1","name":"Lan"}]`, string(got))

	require.NoError(t, s.Set(ctx, p+"customers", json.RawMessage(`[]`)))
	got, err = s.Get(ctx, p+"customers")
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(got))

	// Delete is idempotent
	require.NoError(t, s.Delete(ctx, p+"customers"))
	require.NoError(t, s.Delete(ctx, p+"customers"))
	if _, err := s.Get(ctx, p+"customers"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("Get after delete: want ErrNotFound, got %v", err)
	}

	// Keys by prefix, ascending
	require.NoError(t, s.Set(ctx, p+"customerSummary_b", json.RawMessage(`{"goals":"b"}`)))
	require.NoError(t, s.Set(ctx, p+"customerSummary_a", json.RawMessage(`{"goals":"a"}`)))
	require.NoError(t, s.Set(ctx, p+"managerNotes_a", json.RawMessage(`[]`)))
	keys, err := s.Keys(ctx, p+"customerSummary_")
	require.NoError(t, err)
	require.Equal(t, []string{p + "customerSummary_a", p + "customerSummary_b"}, keys)

	all, err := s.Keys(ctx, p)
	require.NoError(t, err)
	require.Len(t, all, 3)

	// Batch applies every op
	err = s.Batch(ctx, []kv.Op{
		kv.DeleteOp(p + "customerSummary_a"),
		kv.DeleteOp(p + "managerNotes_a"),
		kv.SetOp(p+"customers", json.RawMessage(`[{"id":"2"}]`)),
	})
	require.NoError(t, err)
	keys, err = s.Keys(ctx, p)
	require.NoError(t, err)
	require.Equal(t, []string{p + "customerSummary_b", p + "customers"}, keys)

	// Cleanup
	for _, k := range keys {
		require.NoError(t, s.Delete(ctx, k))
	}

	if pg, ok := s.(kv.Pinger); ok {
		require.NoError(t, pg.Ping(ctx))
	}
}
