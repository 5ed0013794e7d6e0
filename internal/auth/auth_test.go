package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycelian/nurture-tracker/internal/kv/memory"
	"github.com/mycelian/nurture-tracker/internal/model"
	"github.com/mycelian/nurture-tracker/internal/session"
	"github.com/mycelian/nurture-tracker/internal/store/kvstore"
)

var (
	manager  = model.User{ID: "m1", Role: model.RoleManager, IsActive: true}
	employee = model.User{ID: "e1", Role: model.RoleEmployee, IsActive: true}
)

func TestRolePredicates(t *testing.T) {
	assert.True(t, IsManager(manager))
	assert.False(t, IsManager(employee))
	assert.True(t, IsEmployee(employee))
	assert.True(t, CanManageUsers(manager))
	assert.False(t, CanManageUsers(employee))

	own := model.Document{ID: "doc", CreatedBy: "e1"}
	other := model.Document{ID: "doc", CreatedBy: "e2"}
	assert.True(t, CanEditDocument(employee, own))
	assert.False(t, CanEditDocument(employee, other))
	assert.True(t, CanEditDocument(manager, other))
	assert.False(t, CanEditDocument(model.User{}, model.Document{}))

	list := []model.Customer{{ID: "a", OwnerID: "e1"}, {ID: "b", OwnerID: "e2"}, {ID: "c"}}
	assert.Len(t, VisibleCustomers(manager, list), 3)
	vis := VisibleCustomers(employee, list)
	require.Len(t, vis, 1)
	assert.Equal(t, "a", vis[0].ID)
}

func TestTokens_RoundTripAndTamper(t *testing.T) {
	tk, err := NewTokens("secret", time.Hour)
	require.NoError(t, err)

	s, err := tk.Sign("u1", "d1")
	require.NoError(t, err)
	c, err := tk.Parse(s)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UID)
	assert.Equal(t, "d1", c.DID)

	other, _ := NewTokens("other", time.Hour)
	_, err = other.Parse(s)
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	_, err = tk.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_Expired(t *testing.T) {
	tk, err := NewTokens("secret", time.Minute)
	require.NoError(t, err)
	issued := time.Now().Add(-time.Hour)
	tk.now = func() time.Time { return issued }
	s, err := tk.Sign("u1", "d1")
	require.NoError(t, err)

	tk.now = time.Now
	_, err = tk.Parse(s)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokens_RequiresSecret(t *testing.T) {
	_, err := NewTokens("", time.Hour)
	assert.Error(t, err)
}

func TestExtractBearer(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	_, err := ExtractBearer(r)
	assert.ErrorIs(t, err, ErrMissingToken)

	r.Header.Set("Authorization", "Basic abc")
	_, err = ExtractBearer(r)
	assert.ErrorIs(t, err, ErrInvalidToken)

	r.Header.Set("Authorization", "Bearer abc")
	tok, err := ExtractBearer(r)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)
}

func TestAuthenticate_RejectsEndedSessionAndInactiveUser(t *testing.T) {
	ctx := context.Background()
	st := kvstore.New(memory.New())
	reg := session.NewRegistry(st.Sessions(), zerolog.Nop())
	tk, _ := NewTokens("secret", time.Hour)
	a := NewAuthenticator(tk, reg, st.Users())

	_, err := st.Users().Create(ctx, employee)
	require.NoError(t, err)
	ds, err := reg.CreateSession(ctx, employee.ID, session.Signals{UserAgent: "ua"})
	require.NoError(t, err)
	tok, err := tk.Sign(employee.ID, ds.ID)
	require.NoError(t, err)

	actor, err := a.Authenticate(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, employee.ID, actor.User.ID)
	assert.Equal(t, ds.ID, actor.DeviceID)

	_, err = st.Users().Update(ctx, employee.ID, func(u model.User) (model.User, error) {
		u.IsActive = false
		return u, nil
	})
	require.NoError(t, err)
	_, err = a.Authenticate(ctx, tok)
	assert.ErrorIs(t, err, ErrInactiveUser)

	require.NoError(t, reg.RemoveSession(ctx, employee.ID, ds.ID))
	_, err = a.Authenticate(ctx, tok)
	assert.ErrorIs(t, err, ErrSessionEnded)
}

func TestActorContext(t *testing.T) {
	_, ok := ActorFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithActor(context.Background(), &Actor{User: manager, DeviceID: "d"})
	a, ok := ActorFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "m1", a.User.ID)
}
