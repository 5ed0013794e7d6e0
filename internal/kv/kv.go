// Package kv defines the key-value persistence adapter every repository is built on.
// Values are JSON documents stored under deterministic string keys.
package kv

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("kv: key not found")

// KV is a JSON document store keyed by string.
// Individual calls are atomic; sequences of calls are not, use Batch for that.
type KV interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists keys starting with prefix in ascending order. An empty prefix lists all keys.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Batch applies ops in order, all or nothing.
	Batch(ctx context.Context, ops []Op) error
	Close() error
}

// Pinger is implemented by backends that can report liveness cheaply.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpKind selects the mutation applied by an Op.
type OpKind int

const (
	OpSet OpKind = iota
	OpDelete
)

// Op is one mutation inside a Batch.
type Op struct {
	Kind  OpKind
	Key   string
	Value json.RawMessage
}

// SetOp builds a set operation.
func SetOp(key string, value json.RawMessage) Op { return Op{Kind: OpSet, Key: key, Value: value} }

// DeleteOp builds a delete operation.
func DeleteOp(key string) Op { return Op{Kind: OpDelete, Key: key} }
