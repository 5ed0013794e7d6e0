package kvstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/mycelian/nurture-tracker/internal/kv"
	"github.com/mycelian/nurture-tracker/internal/model"
	"github.com/mycelian/nurture-tracker/internal/store"
)

type users struct{ s *Store }

func (r *users) load(ctx context.Context) ([]model.User, error) {
	var out []model.User
	if _, err := r.s.read(ctx, kv.KeyUsers, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *users) Create(ctx context.Context, u model.User) (model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all, err := r.load(ctx)
	if err != nil {
		return model.User{}, err
	}
	for _, existing := range all {
		if existing.ID == u.ID {
			return model.User{}, fmt.Errorf("%w: user %q already exists", model.ErrConflict, u.ID)
		}
		if strings.EqualFold(existing.Username, u.Username) {
			return model.User{}, fmt.Errorf("%w: username %q is taken", model.ErrConflict, u.Username)
		}
	}
	all = append(all, u)
	if err := r.s.write(ctx, kv.KeyUsers, all); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (r *users) Get(ctx context.Context, id string) (model.User, error) {
	all, err := r.load(ctx)
	if err != nil {
		return model.User{}, err
	}
	for _, u := range all {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, notFound("user", id)
}

func (r *users) GetByUsername(ctx context.Context, username string) (model.User, error) {
	all, err := r.load(ctx)
	if err != nil {
		return model.User{}, err
	}
	for _, u := range all {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return model.User{}, notFound("username", username)
}

func (r *users) List(ctx context.Context) ([]model.User, error) {
	all, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	if all == nil {
		all = []model.User{}
	}
	return all, nil
}

func (r *users) Update(ctx context.Context, id string, fn store.UserMutator) (model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all, err := r.load(ctx)
	if err != nil {
		return model.User{}, err
	}
	for i, u := range all {
		if u.ID != id {
			continue
		}
		next, err := fn(u)
		if err != nil {
			return model.User{}, err
		}
		next.ID = u.ID
		next.Username = u.Username
		all[i] = next
		if err := r.s.write(ctx, kv.KeyUsers, all); err != nil {
			return model.User{}, err
		}
		return next, nil
	}
	return model.User{}, notFound("user", id)
}

// Delete removes the user, its credentials and its device sessions in one batch.
func (r *users) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all, err := r.load(ctx)
	if err != nil {
		return err
	}
	var victim *model.User
	kept := make([]model.User, 0, len(all))
	for i := range all {
		if all[i].ID == id {
			victim = &all[i]
			continue
		}
		kept = append(kept, all[i])
	}
	if victim == nil {
		return notFound("user", id)
	}

	usersJSON, err := encode(kv.KeyUsers, kept)
	if err != nil {
		return err
	}
	ops := []kv.Op{kv.SetOp(kv.KeyUsers, usersJSON)}

	creds := map[string]string{}
	if _, err := r.s.read(ctx, kv.KeyCredentials, &creds); err != nil {
		return err
	}
	if _, ok := creds[victim.Username]; ok {
		delete(creds, victim.Username)
		b, err := encode(kv.KeyCredentials, creds)
		if err != nil {
			return err
		}
		ops = append(ops, kv.SetOp(kv.KeyCredentials, b))
	}

	var sess []model.DeviceSession
	if _, err := r.s.read(ctx, kv.KeyDeviceSessions, &sess); err != nil {
		return err
	}
	keptSess := make([]model.DeviceSession, 0, len(sess))
	for _, ds := range sess {
		if ds.UserID != id {
			keptSess = append(keptSess, ds)
		}
	}
	if len(keptSess) != len(sess) {
		b, err := encode(kv.KeyDeviceSessions, keptSess)
		if err != nil {
			return err
		}
		ops = append(ops, kv.SetOp(kv.KeyDeviceSessions, b))
	}

	return r.s.kv.Batch(ctx, ops)
}

type groups struct{ s *Store }

func (r *groups) load(ctx context.Context) ([]model.Group, error) {
	var out []model.Group
	if _, err := r.s.read(ctx, kv.KeyGroups, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *groups) Create(ctx context.Context, g model.Group) (model.Group, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all, err := r.load(ctx)
	if err != nil {
		return model.Group{}, err
	}
	for _, existing := range all {
		if existing.ID == g.ID {
			return model.Group{}, fmt.Errorf("%w: group %q already exists", model.ErrConflict, g.ID)
		}
	}
	all = append(all, g)
	if err := r.s.write(ctx, kv.KeyGroups, all); err != nil {
		return model.Group{}, err
	}
	return g, nil
}

func (r *groups) Get(ctx context.Context, id string) (model.Group, error) {
	all, err := r.load(ctx)
	if err != nil {
		return model.Group{}, err
	}
	for _, g := range all {
		if g.ID == id {
			return g, nil
		}
	}
	return model.Group{}, notFound("group", id)
}

func (r *groups) List(ctx context.Context) ([]model.Group, error) {
	all, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	if all == nil {
		all = []model.Group{}
	}
	return all, nil
}

// credentials stores bcrypt hashes as strings under one document keyed by username.
type credentials struct{ s *Store }

func (r *credentials) loadAll(ctx context.Context) (map[string]string, error) {
	all := map[string]string{}
	if _, err := r.s.read(ctx, kv.KeyCredentials, &all); err != nil {
		return nil, err
	}
	if all == nil {
		all = map[string]string{}
	}
	return all, nil
}

func (r *credentials) Get(ctx context.Context, username string) ([]byte, error) {
	all, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	h, ok := all[username]
	if !ok {
		return nil, notFound("credentials", username)
	}
	return []byte(h), nil
}

func (r *credentials) Set(ctx context.Context, username string, hash []byte) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all, err := r.loadAll(ctx)
	if err != nil {
		return err
	}
	all[username] = string(hash)
	return r.s.write(ctx, kv.KeyCredentials, all)
}

func (r *credentials) Delete(ctx context.Context, username string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all, err := r.loadAll(ctx)
	if err != nil {
		return err
	}
	if _, ok := all[username]; !ok {
		return nil
	}
	delete(all, username)
	return r.s.write(ctx, kv.KeyCredentials, all)
}
