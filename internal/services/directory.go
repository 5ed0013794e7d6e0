package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mycelian/nurture-tracker/internal/auth"
	"github.com/mycelian/nurture-tracker/internal/model"
	"github.com/mycelian/nurture-tracker/internal/store"
)

// NewUser is the input for DirectoryService.CreateUser.
type NewUser struct {
	Username string
	Password string
	FullName string
	Email    string
	Role     model.Role
	GroupID  *string
}

// UserPatch carries optional changes; nil fields are left alone.
type UserPatch struct {
	FullName *string
	Email    *string
	Role     *model.Role
	IsActive *bool
	Password *string
}

// DirectoryService manages staff accounts and groups. Every operation is manager-only.
type DirectoryService struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
	cost  int
}

// DirectoryOption customises a DirectoryService.
type DirectoryOption func(*DirectoryService)

// WithPasswordCost sets the bcrypt cost used for new password hashes.
func WithPasswordCost(cost int) DirectoryOption {
	return func(s *DirectoryService) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.cost = cost
		}
	}
}

func NewDirectoryService(s store.Store, log zerolog.Logger, opts ...DirectoryOption) *DirectoryService {
	d := &DirectoryService{store: s, log: log, now: time.Now, cost: bcrypt.DefaultCost}
	for _, o := range opts {
		o(d)
	}
	return d
}

func validRole(r model.Role) bool { return r == model.RoleManager || r == model.RoleEmployee }

func (s *DirectoryService) hash(password string) ([]byte, error) {
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", model.ErrValidation)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return h, nil
}

func (s *DirectoryService) CreateUser(ctx context.Context, actor *auth.Actor, in NewUser) (model.User, error) {
	if _, err := requireManager(actor); err != nil {
		return model.User{}, err
	}
	return s.createUser(ctx, in)
}

func (s *DirectoryService) createUser(ctx context.Context, in NewUser) (model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return model.User{}, fmt.Errorf("%w: username is required", model.ErrValidation)
	}
	if !validRole(in.Role) {
		return model.User{}, fmt.Errorf("%w: unknown role %q", model.ErrValidation, in.Role)
	}
	if in.GroupID != nil {
		if _, err := s.store.Groups().Get(ctx, *in.GroupID); err != nil {
			return model.User{}, err
		}
	}
	h, err := s.hash(in.Password)
	if err != nil {
		return model.User{}, err
	}
	id, err := newID()
	if err != nil {
		return model.User{}, err
	}
	u, err := s.store.Users().Create(ctx, model.User{
		ID:        id,
		Username:  in.Username,
		FullName:  in.FullName,
		Email:     in.Email,
		Role:      in.Role,
		GroupID:   in.GroupID,
		IsActive:  true,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return model.User{}, err
	}
	if err := s.store.Credentials().Set(ctx, u.Username, h); err != nil {
		return model.User{}, err
	}
	s.log.Info().Str("user_id", u.ID).Str("role", string(u.Role)).Msg("user created")
	return u, nil
}

func (s *DirectoryService) UpdateUser(ctx context.Context, actor *auth.Actor, id string, p UserPatch) (model.User, error) {
	if _, err := requireManager(actor); err != nil {
		return model.User{}, err
	}
	if p.Role != nil && !validRole(*p.Role) {
		return model.User{}, fmt.Errorf("%w: unknown role %q", model.ErrValidation, *p.Role)
	}
	var hash []byte
	if p.Password != nil {
		h, err := s.hash(*p.Password)
		if err != nil {
			return model.User{}, err
		}
		hash = h
	}
	u, err := s.store.Users().Update(ctx, id, func(u model.User) (model.User, error) {
		if p.FullName != nil {
			u.FullName = *p.FullName
		}
		if p.Email != nil {
			u.Email = *p.Email
		}
		if p.Role != nil {
			u.Role = *p.Role
		}
		if p.IsActive != nil {
			u.IsActive = *p.IsActive
		}
		return u, nil
	})
	if err != nil {
		return model.User{}, err
	}
	if hash != nil {
		if err := s.store.Credentials().Set(ctx, u.Username, hash); err != nil {
			return model.User{}, err
		}
	}
	return u, nil
}

// DeleteUser removes the account with its credentials and device sessions.
// A manager cannot delete their own account.
func (s *DirectoryService) DeleteUser(ctx context.Context, actor *auth.Actor, id string) error {
	u, err := requireManager(actor)
	if err != nil {
		return err
	}
	if u.ID == id {
		return fmt.Errorf("%w: cannot delete the signed-in account", model.ErrConflict)
	}
	if err := s.store.Users().Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("user_id", id).Str("actor_id", u.ID).Msg("user deleted")
	return nil
}

func (s *DirectoryService) ListUsers(ctx context.Context, actor *auth.Actor) ([]model.User, error) {
	if _, err := requireManager(actor); err != nil {
		return nil, err
	}
	return s.store.Users().List(ctx)
}

func (s *DirectoryService) CreateGroup(ctx context.Context, actor *auth.Actor, name, description string) (model.Group, error) {
	u, err := requireManager(actor)
	if err != nil {
		return model.Group{}, err
	}
	return s.createGroup(ctx, u.ID, name, description)
}

func (s *DirectoryService) createGroup(ctx context.Context, managerID, name, description string) (model.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Group{}, fmt.Errorf("%w: group name is required", model.ErrValidation)
	}
	id, err := newID()
	if err != nil {
		return model.Group{}, err
	}
	return s.store.Groups().Create(ctx, model.Group{
		ID:          id,
		Name:        name,
		Description: description,
		ManagerID:   managerID,
		IsActive:    true,
		CreatedAt:   s.now().UTC(),
	})
}

func (s *DirectoryService) ListGroups(ctx context.Context, actor *auth.Actor) ([]model.Group, error) {
	if _, err := requireManager(actor); err != nil {
		return nil, err
	}
	return s.store.Groups().List(ctx)
}

// SetUserGroup assigns userID to groupID; nil clears the assignment.
func (s *DirectoryService) SetUserGroup(ctx context.Context, actor *auth.Actor, userID string, groupID *string) (model.User, error) {
	if _, err := requireManager(actor); err != nil {
		return model.User{}, err
	}
	if groupID != nil {
		if _, err := s.store.Groups().Get(ctx, *groupID); err != nil {
			return model.User{}, err
		}
	}
	return s.store.Users().Update(ctx, userID, func(u model.User) (model.User, error) {
		u.GroupID = groupID
		return u, nil
	})
}
