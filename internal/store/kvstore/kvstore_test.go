package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycelian/nurture-tracker/internal/kv"
	"github.com/mycelian/nurture-tracker/internal/kv/memory"
	"github.com/mycelian/nurture-tracker/internal/model"
)

var now = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

func newStore(t *testing.T) (*Store, *memory.Store) {
	t.Helper()
	backend := memory.New()
	return New(backend), backend
}

func seedCustomer(t *testing.T, s *Store, id string) {
	t.Helper()
	ctx := context.Background()
	_, err := s.Customers().Create(ctx, model.Customer{ID: id, Name: id, CreatedAt: now, LastUpdated: now, CompletedDays: []int{}})
	require.NoError(t, err)
	_, err = s.Answers().Set(ctx, id, "day_1_q_0", "hello")
	require.NoError(t, err)
	_, err = s.Summaries().Put(ctx, model.Summary{CustomerID: id, PersonalityType: model.PersonalityMixed, Goals: "grow"})
	require.NoError(t, err)
	_, err = s.Notes().Append(ctx, id, model.ManagerNote{ID: "n-" + id, Content: "call back", Priority: model.PriorityHigh, Type: model.NoteReminder})
	require.NoError(t, err)
	_, err = s.Profiles().Put(ctx, model.Profile{CustomerID: id, PersonalityType: model.PersonalityPractical})
	require.NoError(t, err)
}

func TestCustomerDelete_CascadesToEveryDocument(t *testing.T) {
	ctx := context.Background()
	s, backend := newStore(t)
	seedCustomer(t, s, "c1")
	seedCustomer(t, s, "c2")

	require.NoError(t, s.Customers().Delete(ctx, "c1"))

	_, err := s.Customers().Get(ctx, "c1")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = s.Summaries().Get(ctx, "c1")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = s.Profiles().Get(ctx, "c1")
	assert.ErrorIs(t, err, model.ErrNotFound)
	notes, err := s.Notes().List(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, notes)
	ans, err := s.Answers().Get(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, ans)

	keys, err := backend.Keys(ctx, "")
	require.NoError(t, err)
	assert.NotContains(t, keys, kv.SummaryKey("c1"))
	assert.NotContains(t, keys, kv.NotesKey("c1"))

	// c2 untouched
	_, err = s.Summaries().Get(ctx, "c2")
	assert.NoError(t, err)
	_, err = s.Profiles().Get(ctx, "c2")
	assert.NoError(t, err)
	ans, err = s.Answers().Get(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, "hello", ans["day_1_q_0"])
}

func TestCustomerDelete_UnknownIsNotFound(t *testing.T) {
	s, _ := newStore(t)
	assert.ErrorIs(t, s.Customers().Delete(context.Background(), "nope"), model.ErrNotFound)
}

func TestCustomerUpdate_UnknownIsNotFound(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.Customers().Update(context.Background(), "nope", func(c model.Customer) (model.Customer, error) { return c, nil })
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCorruptDocument_SurfacesAsError(t *testing.T) {
	ctx := context.Background()
	s, backend := newStore(t)
	require.NoError(t, backend.Set(ctx, kv.KeyCustomers, json.RawMessage(`{not json`)))

	_, err := s.Customers().List(ctx)
	assert.ErrorIs(t, err, model.ErrCorrupt)
}

func TestNotes_AppendOrderAndDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	_, err := s.Customers().Create(ctx, model.Customer{ID: "c1", Name: "c1"})
	require.NoError(t, err)
	for _, id := range []string{"a", "b", "c"} {
		_, err := s.Notes().Append(ctx, "c1", model.ManagerNote{ID: id, Content: id})
		require.NoError(t, err)
	}
	require.NoError(t, s.Notes().Delete(ctx, "c1", "b"))
	list, err := s.Notes().List(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "c", list[1].ID)

	assert.ErrorIs(t, s.Notes().Delete(ctx, "c1", "b"), model.ErrNotFound)
}

func TestUserDelete_RemovesCredentialsAndSessions(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	_, err := s.Users().Create(ctx, model.User{ID: "u1", Username: "alice", Role: model.RoleEmployee, IsActive: true})
	require.NoError(t, err)
	_, err = s.Users().Create(ctx, model.User{ID: "u2", Username: "bob", Role: model.RoleEmployee, IsActive: true})
	require.NoError(t, err)
	require.NoError(t, s.Credentials().Set(ctx, "alice", []byte("hash-a")))
	require.NoError(t, s.Credentials().Set(ctx, "bob", []byte("hash-b")))
	_, err = s.Sessions().Update(ctx, func(_ []model.DeviceSession) ([]model.DeviceSession, error) {
		return []model.DeviceSession{{ID: "d1", UserID: "u1"}, {ID: "d2", UserID: "u2"}}, nil
	})
	require.NoError(t, err)

	require.NoError(t, s.Users().Delete(ctx, "u1"))

	_, err = s.Users().Get(ctx, "u1")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = s.Credentials().Get(ctx, "alice")
	assert.ErrorIs(t, err, model.ErrNotFound)
	h, err := s.Credentials().Get(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "hash-b", string(h))
	sess, err := s.Sessions().List(ctx)
	require.NoError(t, err)
	require.Len(t, sess, 1)
	assert.Equal(t, "d2", sess[0].ID)
}

func TestUsers_UsernameUniqueCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	_, err := s.Users().Create(ctx, model.User{ID: "u1", Username: "Alice"})
	require.NoError(t, err)
	_, err = s.Users().Create(ctx, model.User{ID: "u2", Username: "alice"})
	assert.ErrorIs(t, err, model.ErrConflict)

	got, err := s.Users().GetByUsername(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
}

func TestSnapshots_ExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src, _ := newStore(t)
	seedCustomer(t, src, "c1")

	blob, err := src.Snapshots().Export(ctx)
	require.NoError(t, err)
	assert.Contains(t, blob, kv.KeyCustomers)
	assert.Contains(t, blob, kv.SummaryKey("c1"))

	dst, _ := newStore(t)
	require.NoError(t, dst.Snapshots().Import(ctx, blob))
	c, err := dst.Customers().Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", c.Name)

	err = dst.Snapshots().Import(ctx, map[string]json.RawMessage{"x": json.RawMessage(`{`)})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestSnapshots_ImportRejectsInvalidDaySets(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	for _, days := range []string{`[1,1,1,1,1,1,1]`, `[9]`, `[0,2]`} {
		err := s.Snapshots().Import(ctx, map[string]json.RawMessage{
			kv.KeyCustomers: json.RawMessage(`[{"id":"x","completedDays":` + days + `}]`),
		})
		assert.ErrorIs(t, err, model.ErrValidation, days)
	}
	err := s.Snapshots().Import(ctx, map[string]json.RawMessage{
		kv.KeyCustomers: json.RawMessage(`[{"id":"x"},{"id":"x"}]`),
	})
	assert.ErrorIs(t, err, model.ErrValidation)

	list, err := s.Customers().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSnapshots_ImportIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	err := s.Snapshots().Import(ctx, map[string]json.RawMessage{
		kv.KeyUsers:     json.RawMessage(`[{"id":"u1","username":"alice"}]`),
		kv.KeyCustomers: json.RawMessage(`{"a":1}`),
	})
	assert.ErrorIs(t, err, model.ErrValidation)

	users, err := s.Users().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
	_, err = s.Customers().List(ctx)
	assert.NoError(t, err)
}

func TestStoredDaySetsAreNormalisedOnRead(t *testing.T) {
	ctx := context.Background()
	s, backend := newStore(t)
	require.NoError(t, backend.Set(ctx, kv.KeyCustomers,
		json.RawMessage(`[{"id":"x","completedDays":[3,1,1,1,1,1,1]},{"id":"y","completedDays":[9]}]`)))

	x, err := s.Customers().Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, x.CompletedDays)
	assert.Equal(t, model.StatusActive, x.Status())
	assert.InDelta(t, 200.0/7, x.TotalProgress(), 0.001)
	assert.Equal(t, 4, x.CurrentDay())

	y, err := s.Customers().Get(ctx, "y")
	require.NoError(t, err)
	assert.Empty(t, y.CompletedDays)
	assert.Equal(t, 1, y.CurrentDay())
	assert.Zero(t, y.TotalProgress())
}

func TestDocumentWritesRaceWithCascadeDelete(t *testing.T) {
	ctx := context.Background()
	s, backend := newStore(t)
	_, err := s.Customers().Create(ctx, model.Customer{ID: "c1", Name: "c1"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.Notes().Append(ctx, "c1", model.ManagerNote{ID: fmt.Sprint(i), Content: "x"})
			_, _ = s.Summaries().Put(ctx, model.Summary{CustomerID: "c1"})
			_, _ = s.Profiles().Put(ctx, model.Profile{CustomerID: "c1"})
			_, _ = s.Answers().Set(ctx, "c1", "day_1_q_0", "x")
		}(i)
	}
	require.NoError(t, s.Customers().Delete(ctx, "c1"))
	wg.Wait()

	keys, err := backend.Keys(ctx, "")
	require.NoError(t, err)
	assert.NotContains(t, keys, kv.SummaryKey("c1"))
	assert.NotContains(t, keys, kv.NotesKey("c1"))
	_, err = s.Profiles().Get(ctx, "c1")
	assert.ErrorIs(t, err, model.ErrNotFound)
	ans, err := s.Answers().Get(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, ans)
}
