package kvstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mycelian/nurture-tracker/internal/kv"
	"github.com/mycelian/nurture-tracker/internal/model"
)

type snapshots struct{ s *Store }

func (r *snapshots) Export(ctx context.Context) (map[string]json.RawMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	keys, err := r.s.kv.Keys(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	out := make(map[string]json.RawMessage, len(keys))
	for _, k := range keys {
		v, err := r.s.kv.Get(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

// Import overwrites every key present in entries; keys absent from entries are kept.
// Every entry must decode into the document type its key holds, otherwise nothing is
// written.
func (r *snapshots) Import(ctx context.Context, entries map[string]json.RawMessage) error {
	ops := make([]kv.Op, 0, len(entries))
	for k, v := range entries {
		if err := validateEntry(k, v); err != nil {
			return err
		}
		ops = append(ops, kv.SetOp(k, v))
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.kv.Batch(ctx, ops)
}

// validateEntry decodes raw into the type stored under key.
func validateEntry(key string, raw json.RawMessage) error {
	if !json.Valid(raw) {
		return fmt.Errorf("%w: entry %q is not valid JSON", model.ErrValidation, key)
	}
	var err error
	switch key {
	case kv.KeyCustomers:
		err = validateCustomers(raw)
	case kv.KeyUsers:
		err = decodeAs(raw, &[]model.User{})
	case kv.KeyGroups:
		err = decodeAs(raw, &[]model.Group{})
	case kv.KeyDeviceSessions:
		err = decodeAs(raw, &[]model.DeviceSession{})
	case kv.KeyCredentials:
		err = decodeAs(raw, &map[string]string{})
	case kv.KeyCustomerAnswers:
		err = decodeAs(raw, &map[string]model.Answers{})
	case kv.KeyProfiles:
		err = decodeAs(raw, &map[string]model.Profile{})
	default:
		if _, ok := kv.EntityID(kv.PrefixSummary, key); ok {
			err = decodeAs(raw, &model.Summary{})
		} else if _, ok := kv.EntityID(kv.PrefixManagerNotes, key); ok {
			err = decodeAs(raw, &[]model.ManagerNote{})
		} else {
			return fmt.Errorf("%w: unknown entry %q", model.ErrValidation, key)
		}
	}
	if err != nil {
		return fmt.Errorf("%w: entry %q: %v", model.ErrValidation, key, err)
	}
	return nil
}

func decodeAs(raw json.RawMessage, dst any) error { return json.Unmarshal(raw, dst) }

// validateCustomers rejects ids that are empty or repeated and day sets that are not
// distinct days in [1, NurtureDays]. Customer decoding would silently normalise those.
func validateCustomers(raw json.RawMessage) error {
	if err := decodeAs(raw, &[]model.Customer{}); err != nil {
		return err
	}
	var list []struct {
		ID            string `json:"id"`
		CompletedDays []int  `json:"completedDays"`
	}
	if err := decodeAs(raw, &list); err != nil {
		return err
	}
	ids := make(map[string]bool, len(list))
	for _, c := range list {
		if c.ID == "" {
			return fmt.Errorf("customer without id")
		}
		if ids[c.ID] {
			return fmt.Errorf("duplicate customer id %q", c.ID)
		}
		ids[c.ID] = true
		seen := make(map[int]bool, len(c.CompletedDays))
		for _, d := range c.CompletedDays {
			if d < 1 || d > model.NurtureDays {
				return fmt.Errorf("customer %q: day %d outside 1-%d", c.ID, d, model.NurtureDays)
			}
			if seen[d] {
				return fmt.Errorf("customer %q: day %d listed twice", c.ID, d)
			}
			seen[d] = true
		}
	}
	return nil
}
