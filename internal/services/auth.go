package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mycelian/nurture-tracker/internal/auth"
	"github.com/mycelian/nurture-tracker/internal/metrics"
	"github.com/mycelian/nurture-tracker/internal/model"
	"github.com/mycelian/nurture-tracker/internal/session"
	"github.com/mycelian/nurture-tracker/internal/store"
)

// BootstrapUsername is the manager account created on an empty directory.
const BootstrapUsername = "admin"

// BootstrapGroupName is the group the bootstrap manager leads.
const BootstrapGroupName = "Main group"

var errBadCredentials = fmt.Errorf("%w: invalid username or password", model.ErrUnauthorized)

// LoginResult is returned by a successful login and is the body of POST /api/login.
type LoginResult struct {
	Token    string     `json:"token"`
	DeviceID string     `json:"deviceId"`
	User     model.User `json:"user"`
	// Session is the registered device; the device id above is all clients need.
	Session model.DeviceSession `json:"-"`
}

// AuthService handles login, logout and device listing.
type AuthService struct {
	store     store.Store
	registry  *session.Registry
	tokens    *auth.Tokens
	directory *DirectoryService
	maxAge    time.Duration
	log       zerolog.Logger
}

func NewAuthService(s store.Store, registry *session.Registry, tokens *auth.Tokens, directory *DirectoryService, maxAge time.Duration, log zerolog.Logger) *AuthService {
	if maxAge <= 0 {
		maxAge = session.DefaultMaxAge
	}
	return &AuthService{store: s, registry: registry, tokens: tokens, directory: directory, maxAge: maxAge, log: log}
}

// Login verifies the password and registers the caller's device. A new device beyond
// the per-account cap fails with model.ErrCapacity.
func (s *AuthService) Login(ctx context.Context, username, password string, sig session.Signals) (LoginResult, error) {
	u, err := s.store.Users().GetByUsername(ctx, username)
	if errors.Is(err, model.ErrNotFound) {
		return LoginResult{}, errBadCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	hash, err := s.store.Credentials().Get(ctx, u.Username)
	if errors.Is(err, model.ErrNotFound) {
		return LoginResult{}, errBadCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return LoginResult{}, errBadCredentials
	}
	if !u.IsActive {
		return LoginResult{}, auth.ErrInactiveUser
	}

	if n, err := s.registry.CleanupStale(ctx, s.maxAge); err != nil {
		s.log.Warn().Err(err).Msg("stale session cleanup at login")
	} else if n > 0 {
		metrics.SessionsSwept.Add(float64(n))
	}

	ds, err := s.registry.CreateSession(ctx, u.ID, sig)
	if errors.Is(err, model.ErrCapacity) {
		metrics.SessionsRejected.Inc()
		s.log.Warn().Str("user_id", u.ID).Int("max_devices", s.registry.MaxDevices()).Msg("login rejected: device limit reached")
		return LoginResult{}, err
	}
	if err != nil {
		return LoginResult{}, err
	}
	tok, err := s.tokens.Sign(u.ID, ds.ID)
	if err != nil {
		return LoginResult{}, err
	}
	metrics.SessionsCreated.Inc()
	s.log.Info().Str("user_id", u.ID).Str("device_id", ds.ID).Str("device", ds.DeviceInfo).Msg("login")
	return LoginResult{Token: tok, DeviceID: ds.ID, User: u, Session: ds}, nil
}

// Logout ends the actor's current device session.
func (s *AuthService) Logout(ctx context.Context, actor *auth.Actor) error {
	if _, err := requireActor(actor); err != nil {
		return err
	}
	return s.registry.RemoveSession(ctx, actor.User.ID, actor.DeviceID)
}

// LogoutAll ends every device session of the actor.
func (s *AuthService) LogoutAll(ctx context.Context, actor *auth.Actor) (int, error) {
	if _, err := requireActor(actor); err != nil {
		return 0, err
	}
	return s.registry.RemoveAllForUser(ctx, actor.User.ID)
}

func (s *AuthService) Devices(ctx context.Context, actor *auth.Actor) ([]model.DeviceSession, error) {
	if _, err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.registry.ListForUser(ctx, actor.User.ID)
}

// RemoveDevice ends one of the actor's own device sessions.
func (s *AuthService) RemoveDevice(ctx context.Context, actor *auth.Actor, deviceID string) error {
	if _, err := requireActor(actor); err != nil {
		return err
	}
	ok, err := s.registry.IsValid(ctx, actor.User.ID, deviceID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: device %q", model.ErrNotFound, deviceID)
	}
	return s.registry.RemoveSession(ctx, actor.User.ID, deviceID)
}

// Bootstrap creates the first manager and its group when no account exists yet.
// It is a no-op on a populated directory.
func (s *AuthService) Bootstrap(ctx context.Context, password string) error {
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}
	if password == "" {
		s.log.Warn().Msg("no accounts exist and no bootstrap password is configured; nobody can log in")
		return nil
	}
	admin, err := s.directory.createUser(ctx, NewUser{
		Username: BootstrapUsername,
		Password: password,
		FullName: "Administrator",
		Role:     model.RoleManager,
	})
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	g, err := s.directory.createGroup(ctx, admin.ID, BootstrapGroupName, "")
	if err != nil {
		return fmt.Errorf("bootstrap group: %w", err)
	}
	if _, err := s.store.Users().Update(ctx, admin.ID, func(u model.User) (model.User, error) {
		u.GroupID = &g.ID
		return u, nil
	}); err != nil {
		return fmt.Errorf("bootstrap group assignment: %w", err)
	}
	s.log.Info().Str("user_id", admin.ID).Str("group_id", g.ID).Msg("bootstrap manager created")
	return nil
}
