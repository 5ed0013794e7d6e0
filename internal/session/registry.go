package session

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mycelian/nurture-tracker/internal/model"
	"github.com/mycelian/nurture-tracker/internal/store"
)

// DefaultMaxDevices is the number of distinct devices an account may be logged in from.
const DefaultMaxDevices = 3

// DefaultMaxAge is how long an idle session survives before CleanupStale drops it.
const DefaultMaxAge = 30 * 24 * time.Hour

// Registry owns the device session collection.
type Registry struct {
	sessions   store.Sessions
	maxDevices int
	now        func() time.Time
	log        zerolog.Logger
}

// Option customises a Registry.
type Option func(*Registry)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(r *Registry) { r.now = now } }

// WithMaxDevices overrides the per-account device cap.
func WithMaxDevices(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.maxDevices = n
		}
	}
}

func NewRegistry(sessions store.Sessions, log zerolog.Logger, opts ...Option) *Registry {
	r := &Registry{sessions: sessions, maxDevices: DefaultMaxDevices, now: time.Now, log: log}
	for _, o := range opts {
		o(r)
	}
	return r
}

// MaxDevices reports the configured cap.
func (r *Registry) MaxDevices() int { return r.maxDevices }

// CreateSession registers the device described by sig for userID. A device that
// already has a session for the user is refreshed in place and never counts against
// the cap. A new device is rejected with model.ErrCapacity once the user holds
// maxDevices sessions.
func (r *Registry) CreateSession(ctx context.Context, userID string, sig Signals) (model.DeviceSession, error) {
	if userID == "" {
		return model.DeviceSession{}, fmt.Errorf("%w: user is required", model.ErrValidation)
	}
	deviceID := Fingerprint(sig)
	now := r.now().UTC()
	dev := DescribeDevice(sig.UserAgent)

	var out model.DeviceSession
	_, err := r.sessions.Update(ctx, func(all []model.DeviceSession) ([]model.DeviceSession, error) {
		count := 0
		for i := range all {
			if all[i].UserID != userID {
				continue
			}
			if all[i].ID == deviceID {
				all[i].LastActivity = now
				all[i].LoginTime = now
				out = all[i]
				return all, nil
			}
			count++
		}
		if count >= r.maxDevices {
			return nil, fmt.Errorf("%w: %d devices already registered", model.ErrCapacity, count)
		}
		out = model.DeviceSession{
			ID:           deviceID,
			UserID:       userID,
			DeviceInfo:   dev.Info,
			Browser:      dev.Browser,
			OS:           dev.OS,
			LoginTime:    now,
			LastActivity: now,
		}
		return append(all, out), nil
	})
	if err != nil {
		return model.DeviceSession{}, err
	}
	r.log.Debug().Str("user_id", userID).Str("device_id", deviceID).Msg("device session registered")
	return out, nil
}

// RemoveSession drops one device session. Removing an unknown session is not an error.
func (r *Registry) RemoveSession(ctx context.Context, userID, deviceID string) error {
	_, err := r.sessions.Update(ctx, func(all []model.DeviceSession) ([]model.DeviceSession, error) {
		return filter(all, func(s model.DeviceSession) bool {
			return !(s.UserID == userID && s.ID == deviceID)
		}), nil
	})
	return err
}

// RemoveAllForUser drops every session of userID and reports how many were removed.
func (r *Registry) RemoveAllForUser(ctx context.Context, userID string) (int, error) {
	removed := 0
	_, err := r.sessions.Update(ctx, func(all []model.DeviceSession) ([]model.DeviceSession, error) {
		kept := filter(all, func(s model.DeviceSession) bool { return s.UserID != userID })
		removed = len(all) - len(kept)
		return kept, nil
	})
	return removed, err
}

// Touch bumps LastActivity of an existing session. An unknown session yields model.ErrNotFound.
func (r *Registry) Touch(ctx context.Context, userID, deviceID string) error {
	now := r.now().UTC()
	_, err := r.sessions.Update(ctx, func(all []model.DeviceSession) ([]model.DeviceSession, error) {
		for i := range all {
			if all[i].UserID == userID && all[i].ID == deviceID {
				all[i].LastActivity = now
				return all, nil
			}
		}
		return nil, fmt.Errorf("%w: device session %q", model.ErrNotFound, deviceID)
	})
	return err
}

// IsValid reports whether a session for (userID, deviceID) exists.
func (r *Registry) IsValid(ctx context.Context, userID, deviceID string) (bool, error) {
	all, err := r.sessions.List(ctx)
	if err != nil {
		return false, err
	}
	for _, s := range all {
		if s.UserID == userID && s.ID == deviceID {
			return true, nil
		}
	}
	return false, nil
}

// ListForUser returns userID's sessions in registration order.
func (r *Registry) ListForUser(ctx context.Context, userID string) ([]model.DeviceSession, error) {
	all, err := r.sessions.List(ctx)
	if err != nil {
		return nil, err
	}
	return filter(all, func(s model.DeviceSession) bool { return s.UserID == userID }), nil
}

// CleanupStale drops sessions whose LastActivity is older than maxAge.
func (r *Registry) CleanupStale(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := r.now().UTC().Add(-maxAge)
	removed := 0
	_, err := r.sessions.Update(ctx, func(all []model.DeviceSession) ([]model.DeviceSession, error) {
		kept := filter(all, func(s model.DeviceSession) bool { return !s.LastActivity.Before(cutoff) })
		removed = len(all) - len(kept)
		return kept, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func filter(in []model.DeviceSession, keep func(model.DeviceSession) bool) []model.DeviceSession {
	out := make([]model.DeviceSession, 0, len(in))
	for _, s := range in {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}
