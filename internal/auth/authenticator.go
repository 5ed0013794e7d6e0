package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mycelian/nurture-tracker/internal/model"
	"github.com/mycelian/nurture-tracker/internal/session"
	"github.com/mycelian/nurture-tracker/internal/store"
)

// Actor is the authenticated caller of a request.
type Actor struct {
	User     model.User
	DeviceID string
}

// Authenticator resolves bearer tokens to actors.
type Authenticator struct {
	tokens   *Tokens
	registry *session.Registry
	users    store.Users
}

func NewAuthenticator(tokens *Tokens, registry *session.Registry, users store.Users) *Authenticator {
	return &Authenticator{tokens: tokens, registry: registry, users: users}
}

// ExtractBearer returns the token from an "Authorization: Bearer <token>" header.
func ExtractBearer(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", ErrMissingToken
	}
	parts := strings.Split(h, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrInvalidToken
	}
	return parts[1], nil
}

// Authenticate verifies the token, checks that its device session still exists and
// that the account is active, then records activity on the session.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*Actor, error) {
	c, err := a.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	ok, err := a.registry.IsValid(ctx, c.UID, c.DID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionEnded
	}
	u, err := a.users.Get(ctx, c.UID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, ErrSessionEnded
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInactiveUser
	}
	if err := a.registry.Touch(ctx, c.UID, c.DID); err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	return &Actor{User: u, DeviceID: c.DID}, nil
}

type actorCtxKey struct{}

// WithActor attaches a to ctx.
func WithActor(ctx context.Context, a *Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey{}, a)
}

// ActorFromContext returns the actor attached by the authentication middleware.
func ActorFromContext(ctx context.Context) (*Actor, bool) {
	a, ok := ctx.Value(actorCtxKey{}).(*Actor)
	return a, ok && a != nil
}
