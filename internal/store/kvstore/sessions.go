package kvstore

import (
	"context"

	"github.com/mycelian/nurture-tracker/internal/kv"
	"github.com/mycelian/nurture-tracker/internal/model"
	"github.com/mycelian/nurture-tracker/internal/store"
)

type sessions struct{ s *Store }

func (r *sessions) load(ctx context.Context) ([]model.DeviceSession, error) {
	var out []model.DeviceSession
	if _, err := r.s.read(ctx, kv.KeyDeviceSessions, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.DeviceSession{}
	}
	return out, nil
}

func (r *sessions) List(ctx context.Context) ([]model.DeviceSession, error) {
	return r.load(ctx)
}

func (r *sessions) Update(ctx context.Context, fn store.SessionMutator) ([]model.DeviceSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	next, err := fn(all)
	if err != nil {
		return nil, err
	}
	if next == nil {
		next = []model.DeviceSession{}
	}
	if err := r.s.write(ctx, kv.KeyDeviceSessions, next); err != nil {
		return nil, err
	}
	return next, nil
}
