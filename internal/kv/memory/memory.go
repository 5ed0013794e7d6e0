// Package memory provides an in-process kv.KV used by tests and throwaway deployments.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/mycelian/nurture-tracker/internal/kv"
)

// Store is a thread-safe map-backed kv.KV.
type Store struct {
	mu    sync.RWMutex
	items map[string]json.RawMessage
}

// New returns an empty store.
func New() *Store {
	return &Store{items: make(map[string]json.RawMessage)}
}

func (s *Store) Get(_ context.Context, key string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	if !ok {
		return nil, kv.ErrNotFound
	}
	return append(json.RawMessage(nil), v...), nil
}

func (s *Store) Set(_ context.Context, key string, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = append(json.RawMessage(nil), value...)
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.items))
	for k := range s.items {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) Batch(ctx context.Context, ops []kv.Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range ops {
		switch op.Kind {
		case kv.OpSet:
			s.items[op.Key] = append(json.RawMessage(nil), op.Value...)
		case kv.OpDelete:
			delete(s.items, op.Key)
		}
	}
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
