package store

import (
	"context"
	"encoding/json"

	"github.com/mycelian/nurture-tracker/internal/model"
)

// Store exposes persistence operations required by services.
// The implementation lives under internal/store/kvstore and runs on any kv.KV backend.
type Store interface {
	Customers() Customers
	Answers() Answers
	Summaries() Summaries
	Notes() Notes
	Profiles() Profiles
	Users() Users
	Groups() Groups
	Sessions() Sessions
	Credentials() Credentials
	Snapshots() Snapshots
}

// CustomerMutator computes the next version of a customer. Returning an error aborts the write.
type CustomerMutator func(model.Customer) (model.Customer, error)

type Customers interface {
	Create(ctx context.Context, c model.Customer) (model.Customer, error)
	Get(ctx context.Context, id string) (model.Customer, error)
	List(ctx context.Context) ([]model.Customer, error)
	Update(ctx context.Context, id string, fn CustomerMutator) (model.Customer, error)
	// Delete removes the customer together with its answers, summary, notes and profile.
	Delete(ctx context.Context, id string) error
}

// Writes of per-customer documents fail with model.ErrNotFound when the customer does
// not exist at the moment of the write.

type Answers interface {
	// Get returns the customer's answers; a customer with none yields an empty set.
	Get(ctx context.Context, customerID string) (model.Answers, error)
	Set(ctx context.Context, customerID, key, value string) (model.Answers, error)
}

type Summaries interface {
	Get(ctx context.Context, customerID string) (model.Summary, error)
	Put(ctx context.Context, s model.Summary) (model.Summary, error)
	Delete(ctx context.Context, customerID string) error
}

type Notes interface {
	// List returns notes oldest first; a customer with none yields an empty list.
	List(ctx context.Context, customerID string) ([]model.ManagerNote, error)
	Append(ctx context.Context, customerID string, n model.ManagerNote) (model.ManagerNote, error)
	Delete(ctx context.Context, customerID, noteID string) error
}

type Profiles interface {
	Get(ctx context.Context, customerID string) (model.Profile, error)
	Put(ctx context.Context, p model.Profile) (model.Profile, error)
	Delete(ctx context.Context, customerID string) error
}

// UserMutator computes the next version of a user.
type UserMutator func(model.User) (model.User, error)

type Users interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	Get(ctx context.Context, id string) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id string, fn UserMutator) (model.User, error)
	// Delete removes the user with its credentials and device sessions.
	Delete(ctx context.Context, id string) error
}

type Groups interface {
	Create(ctx context.Context, g model.Group) (model.Group, error)
	Get(ctx context.Context, id string) (model.Group, error)
	List(ctx context.Context) ([]model.Group, error)
}

// SessionMutator rewrites the whole device session collection.
type SessionMutator func([]model.DeviceSession) ([]model.DeviceSession, error)

type Sessions interface {
	List(ctx context.Context) ([]model.DeviceSession, error)
	Update(ctx context.Context, fn SessionMutator) ([]model.DeviceSession, error)
}

// Credentials stores password hashes keyed by username.
type Credentials interface {
	Get(ctx context.Context, username string) ([]byte, error)
	Set(ctx context.Context, username string, hash []byte) error
	Delete(ctx context.Context, username string) error
}

// Snapshots dumps and restores every stored document.
type Snapshots interface {
	Export(ctx context.Context) (map[string]json.RawMessage, error)
	Import(ctx context.Context, entries map[string]json.RawMessage) error
}
