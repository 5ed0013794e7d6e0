// Package services implements the application operations on top of store.Store.
// Every operation takes the authenticated actor and applies the role predicates
// from internal/auth before touching data.
package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mycelian/nurture-tracker/internal/auth"
	"github.com/mycelian/nurture-tracker/internal/model"
)

// newID returns a time-ordered identifier; ids are never reused.
func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return id.String(), nil
}

func requireActor(a *auth.Actor) (model.User, error) {
	if a == nil {
		return model.User{}, model.ErrUnauthorized
	}
	return a.User, nil
}

func requireManager(a *auth.Actor) (model.User, error) {
	u, err := requireActor(a)
	if err != nil {
		return model.User{}, err
	}
	if !auth.IsManager(u) {
		return model.User{}, fmt.Errorf("%w: manager role required", model.ErrForbidden)
	}
	return u, nil
}
