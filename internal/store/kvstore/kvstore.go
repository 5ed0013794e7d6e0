// Package kvstore implements store.Store on top of a kv.KV backend.
//
// Every mutation is a read-modify-write of a whole JSON document, serialised by a single
// in-process mutex. Writers in other processes sharing the same backend are not
// coordinated: the last write wins.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/mycelian/nurture-tracker/internal/kv"
	"github.com/mycelian/nurture-tracker/internal/model"
	"github.com/mycelian/nurture-tracker/internal/store"
)

// Store is a kv-backed store.Store.
type Store struct {
	kv kv.KV
	mu sync.Mutex
}

// New wraps backend.
func New(backend kv.KV) *Store { return &Store{kv: backend} }

// KV exposes the backend (health checks, shutdown).
func (s *Store) KV() kv.KV { return s.kv }

// HealthPing reports backend liveness when the backend supports it.
func (s *Store) HealthPing(ctx context.Context) error {
	if p, ok := s.kv.(kv.Pinger); ok {
		return p.Ping(ctx)
	}
	_, err := s.kv.Keys(ctx, kv.KeyUsers)
	return err
}

func (s *Store) Customers() store.Customers     { return &customers{s} }
func (s *Store) Answers() store.Answers         { return &answers{s} }
func (s *Store) Summaries() store.Summaries     { return &summaries{s} }
func (s *Store) Notes() store.Notes             { return &notes{s} }
func (s *Store) Profiles() store.Profiles       { return &profiles{s} }
func (s *Store) Users() store.Users             { return &users{s} }
func (s *Store) Groups() store.Groups           { return &groups{s} }
func (s *Store) Sessions() store.Sessions       { return &sessions{s} }
func (s *Store) Credentials() store.Credentials { return &credentials{s} }
func (s *Store) Snapshots() store.Snapshots     { return &snapshots{s} }

// read decodes key into dst. A missing key leaves dst untouched and reports false.
func (s *Store) read(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("%w: %s: %v", model.ErrCorrupt, key, err)
	}
	return true, nil
}

func encode(key string, v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	return b, nil
}

func (s *Store) write(ctx context.Context, key string, v any) error {
	b, err := encode(key, v)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, key, b); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %q", model.ErrNotFound, kind, id)
}
