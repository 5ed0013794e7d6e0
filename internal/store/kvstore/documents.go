package kvstore

import (
	"context"

	"github.com/mycelian/nurture-tracker/internal/kv"
	"github.com/mycelian/nurture-tracker/internal/model"
)

type summaries struct{ s *Store }

func (r *summaries) Get(ctx context.Context, customerID string) (model.Summary, error) {
	var out model.Summary
	ok, err := r.s.read(ctx, kv.SummaryKey(customerID), &out)
	if err != nil {
		return model.Summary{}, err
	}
	if !ok {
		return model.Summary{}, notFound("summary", customerID)
	}
	out.CustomerID = customerID
	return out, nil
}

func (r *summaries) Put(ctx context.Context, sum model.Summary) (model.Summary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.requireCustomer(ctx, sum.CustomerID); err != nil {
		return model.Summary{}, err
	}
	if err := r.s.write(ctx, kv.SummaryKey(sum.CustomerID), sum); err != nil {
		return model.Summary{}, err
	}
	return sum, nil
}

func (r *summaries) Delete(ctx context.Context, customerID string) error {
	return r.s.kv.Delete(ctx, kv.SummaryKey(customerID))
}

type notes struct{ s *Store }

func (r *notes) List(ctx context.Context, customerID string) ([]model.ManagerNote, error) {
	out := []model.ManagerNote{}
	if _, err := r.s.read(ctx, kv.NotesKey(customerID), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.ManagerNote{}
	}
	return out, nil
}

func (r *notes) Append(ctx context.Context, customerID string, n model.ManagerNote) (model.ManagerNote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.requireCustomer(ctx, customerID); err != nil {
		return model.ManagerNote{}, err
	}
	list, err := r.List(ctx, customerID)
	if err != nil {
		return model.ManagerNote{}, err
	}
	list = append(list, n)
	if err := r.s.write(ctx, kv.NotesKey(customerID), list); err != nil {
		return model.ManagerNote{}, err
	}
	return n, nil
}

func (r *notes) Delete(ctx context.Context, customerID, noteID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	list, err := r.List(ctx, customerID)
	if err != nil {
		return err
	}
	kept := make([]model.ManagerNote, 0, len(list))
	for _, n := range list {
		if n.ID != noteID {
			kept = append(kept, n)
		}
	}
	if len(kept) == len(list) {
		return notFound("note", noteID)
	}
	return r.s.write(ctx, kv.NotesKey(customerID), kept)
}

type profiles struct{ s *Store }

func (r *profiles) loadAll(ctx context.Context) (map[string]model.Profile, error) {
	all := map[string]model.Profile{}
	if _, err := r.s.read(ctx, kv.KeyProfiles, &all); err != nil {
		return nil, err
	}
	if all == nil {
		all = map[string]model.Profile{}
	}
	return all, nil
}

func (r *profiles) Get(ctx context.Context, customerID string) (model.Profile, error) {
	all, err := r.loadAll(ctx)
	if err != nil {
		return model.Profile{}, err
	}
	p, ok := all[customerID]
	if !ok {
		return model.Profile{}, notFound("profile", customerID)
	}
	p.CustomerID = customerID
	return p, nil
}

func (r *profiles) Put(ctx context.Context, p model.Profile) (model.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.requireCustomer(ctx, p.CustomerID); err != nil {
		return model.Profile{}, err
	}
	all, err := r.loadAll(ctx)
	if err != nil {
		return model.Profile{}, err
	}
	all[p.CustomerID] = p
	if err := r.s.write(ctx, kv.KeyProfiles, all); err != nil {
		return model.Profile{}, err
	}
	return p, nil
}

func (r *profiles) Delete(ctx context.Context, customerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all, err := r.loadAll(ctx)
	if err != nil {
		return err
	}
	if _, ok := all[customerID]; !ok {
		return nil
	}
	delete(all, customerID)
	return r.s.write(ctx, kv.KeyProfiles, all)
}
