package kvstore

import (
	"context"
	"fmt"

	"github.com/mycelian/nurture-tracker/internal/kv"
	"github.com/mycelian/nurture-tracker/internal/model"
	"github.com/mycelian/nurture-tracker/internal/store"
)

type customers struct{ s *Store }

func (r *customers) load(ctx context.Context) ([]model.Customer, error) {
	var out []model.Customer
	if _, err := r.s.read(ctx, kv.KeyCustomers, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// requireCustomer fails with model.ErrNotFound unless id is a stored customer. Callers
// hold s.mu so the check and their write cannot interleave with a cascade delete.
func (s *Store) requireCustomer(ctx context.Context, id string) error {
	all, err := (&customers{s}).load(ctx)
	if err != nil {
		return err
	}
	for _, c := range all {
		if c.ID == id {
			return nil
		}
	}
	return notFound("customer", id)
}

func (r *customers) Create(ctx context.Context, c model.Customer) (model.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all, err := r.load(ctx)
	if err != nil {
		return model.Customer{}, err
	}
	for _, existing := range all {
		if existing.ID == c.ID {
			return model.Customer{}, fmt.Errorf("%w: customer %q already exists", model.ErrConflict, c.ID)
		}
	}
	all = append(all, c)
	if err := r.s.write(ctx, kv.KeyCustomers, all); err != nil {
		return model.Customer{}, err
	}
	return c, nil
}

func (r *customers) Get(ctx context.Context, id string) (model.Customer, error) {
	all, err := r.load(ctx)
	if err != nil {
		return model.Customer{}, err
	}
	for _, c := range all {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Customer{}, notFound("customer", id)
}

func (r *customers) List(ctx context.Context) ([]model.Customer, error) {
	all, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	if all == nil {
		all = []model.Customer{}
	}
	return all, nil
}

func (r *customers) Update(ctx context.Context, id string, fn store.CustomerMutator) (model.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all, err := r.load(ctx)
	if err != nil {
		return model.Customer{}, err
	}
	for i, c := range all {
		if c.ID != id {
			continue
		}
		next, err := fn(c)
		if err != nil {
			return model.Customer{}, err
		}
		next.ID = c.ID
		all[i] = next
		if err := r.s.write(ctx, kv.KeyCustomers, all); err != nil {
			return model.Customer{}, err
		}
		return next, nil
	}
	return model.Customer{}, notFound("customer", id)
}

// Delete removes the customer and every dependent document in one batch.
func (r *customers) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all, err := r.load(ctx)
	if err != nil {
		return err
	}
	kept := make([]model.Customer, 0, len(all))
	for _, c := range all {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(all) {
		return notFound("customer", id)
	}

	custJSON, err := encode(kv.KeyCustomers, kept)
	if err != nil {
		return err
	}
	ops := []kv.Op{
		kv.SetOp(kv.KeyCustomers, custJSON),
		kv.DeleteOp(kv.SummaryKey(id)),
		kv.DeleteOp(kv.NotesKey(id)),
	}

	var formData map[string]model.Answers
	if _, err := r.s.read(ctx, kv.KeyCustomerAnswers, &formData); err != nil {
		return err
	}
	if _, ok := formData[id]; ok {
		delete(formData, id)
		b, err := encode(kv.KeyCustomerAnswers, formData)
		if err != nil {
			return err
		}
		ops = append(ops, kv.SetOp(kv.KeyCustomerAnswers, b))
	}

	var profs map[string]model.Profile
	if _, err := r.s.read(ctx, kv.KeyProfiles, &profs); err != nil {
		return err
	}
	if _, ok := profs[id]; ok {
		delete(profs, id)
		b, err := encode(kv.KeyProfiles, profs)
		if err != nil {
			return err
		}
		ops = append(ops, kv.SetOp(kv.KeyProfiles, b))
	}

	if err := r.s.kv.Batch(ctx, ops); err != nil {
		return fmt.Errorf("delete customer %s: %w", id, err)
	}
	return nil
}

type answers struct{ s *Store }

func (r *answers) loadAll(ctx context.Context) (map[string]model.Answers, error) {
	all := map[string]model.Answers{}
	if _, err := r.s.read(ctx, kv.KeyCustomerAnswers, &all); err != nil {
		return nil, err
	}
	if all == nil {
		all = map[string]model.Answers{}
	}
	return all, nil
}

func (r *answers) Get(ctx context.Context, customerID string) (model.Answers, error) {
	all, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	a := all[customerID]
	if a == nil {
		a = model.Answers{}
	}
	return a, nil
}

func (r *answers) Set(ctx context.Context, customerID, key, value string) (model.Answers, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.requireCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	all, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	a := all[customerID]
	if a == nil {
		a = model.Answers{}
	}
	a[key] = value
	all[customerID] = a
	if err := r.s.write(ctx, kv.KeyCustomerAnswers, all); err != nil {
		return nil, err
	}
	return a, nil
}
