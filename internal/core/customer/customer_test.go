package customer

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycelian/nurture-tracker/internal/model"
)

var t0 = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

func TestNew_StartsActiveOnDayOne(t *testing.T) {
	c := New("c1", "  Lan ", "u1", t0)
	assert.Equal(t, "Lan", c.Name)
	assert.Empty(t, c.CompletedDays)
	assert.Equal(t, 1, c.CurrentDay())
	assert.Equal(t, 0.0, c.TotalProgress())
	assert.Equal(t, model.StatusActive, c.Status())
	assert.Equal(t, t0, c.CreatedAt)
	assert.Equal(t, t0, c.LastUpdated)
}

func TestSetDayCompletion_DerivedFieldsTrackCompletedDays(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	c := New("c1", "Lan", "u1", t0)
	for i := 0; i < 500; i++ {
		day := rng.Intn(model.NurtureDays) + 1
		var err error
		c, err = SetDayCompletion(c, day, rng.Intn(3) > 0, t0)
		require.NoError(t, err)

		highest := 0
		seen := map[int]bool{}
		for _, d := range c.CompletedDays {
			require.False(t, seen[d], "duplicate day %d", d)
			seen[d] = true
			if d > highest {
				highest = d
			}
		}
		wantDay := highest + 1
		if wantDay > model.NurtureDays {
			wantDay = model.NurtureDays
		}
		require.InDelta(t, float64(len(c.CompletedDays))/7*100, c.TotalProgress(), 1e-9)
		require.Equal(t, len(c.CompletedDays) == 7, c.Status() == model.StatusCompleted)
		require.Equal(t, wantDay, c.CurrentDay())
		require.GreaterOrEqual(t, c.CurrentDay(), 1)
		require.LessOrEqual(t, c.CurrentDay(), 7)
	}
}

func TestSetDayCompletion_Idempotent(t *testing.T) {
	c := New("c1", "Lan", "u1", t0)
	c, err := SetDayCompletion(c, 3, true, t0)
	require.NoError(t, err)
	again, err := SetDayCompletion(c, 3, true, t0.Add(time.Minute))
	require.NoError(t, err)

	assert.Equal(t, c.CompletedDays, again.CompletedDays)
	assert.Equal(t, c.TotalProgress(), again.TotalProgress())
	assert.Equal(t, c.Status(), again.Status())
	assert.Equal(t, t0.Add(time.Minute), again.LastUpdated)
}

func TestSetDayCompletion_UnmarkAbsentDayIsNoop(t *testing.T) {
	c := New("c1", "Lan", "u1", t0)
	c, _ = SetDayCompletion(c, 1, true, t0)
	out, err := SetDayCompletion(c, 5, false, t0)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, out.CompletedDays)
	assert.Equal(t, 2, out.CurrentDay())
}

func TestSetDayCompletion_RejectsOutOfRangeDay(t *testing.T) {
	c := New("c1", "Lan", "u1", t0)
	for _, day := range []int{0, 8, -1} {
		_, err := SetDayCompletion(c, day, true, t0)
		assert.ErrorIs(t, err, model.ErrValidation, "day %d", day)
	}
}

func TestSetDayCompletion_CompletedIsReenterableAsActive(t *testing.T) {
	c := New("c1", "Lan", "u1", t0)
	for d := 1; d <= 7; d++ {
		c, _ = SetDayCompletion(c, d, true, t0)
	}
	require.Equal(t, model.StatusCompleted, c.Status())
	assert.Equal(t, 100.0, c.TotalProgress())
	assert.Equal(t, 7, c.CurrentDay())

	c, _ = SetDayCompletion(c, 4, false, t0)
	assert.Equal(t, model.StatusActive, c.Status())
	assert.Equal(t, 7, c.CurrentDay())
	assert.InDelta(t, 6.0/7*100, c.TotalProgress(), 1e-9)
}

func TestSetPotential_ValidatesScore(t *testing.T) {
	c := New("c1", "Lan", "u1", t0)
	bad := 11
	_, err := SetPotential(c, true, &bad, nil, t0)
	assert.ErrorIs(t, err, model.ErrValidation)

	good := 8
	notes := "warm lead"
	out, err := SetPotential(c, true, &good, &notes, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, out.IsPotential)
	assert.Equal(t, 8, *out.PotentialScore)
	assert.Equal(t, t0.Add(time.Hour), out.LastUpdated)
	assert.Empty(t, out.CompletedDays, "potential does not touch progress")
}

func TestSetDeposit_RejectsNegativeAmount(t *testing.T) {
	c := New("c1", "Lan", "u1", t0)
	neg := -1.0
	_, err := SetDeposit(c, true, &neg, nil, t0)
	assert.ErrorIs(t, err, model.ErrValidation)

	amt := 250.5
	out, err := SetDeposit(c, true, &amt, nil, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, out.HasDeposited)
	assert.Equal(t, t0.Add(time.Hour), out.LastUpdated)
}

func TestCustomerJSON_DerivedFieldsAreRecomputed(t *testing.T) {
	c := New("c1", "Lan", "u1", t0)
	c, _ = SetDayCompletion(c, 2, true, t0)
	c, _ = SetDayCompletion(c, 1, true, t0)

	b, err := json.Marshal(c)
	require.NoError(t, err)
	var view map[string]any
	require.NoError(t, json.Unmarshal(b, &view))
	assert.Equal(t, []any{1.0, 2.0}, view["completedDays"])
	assert.Equal(t, 3.0, view["currentDay"])
	assert.Equal(t, "active", view["status"])

	// Stale derived values in stored JSON are ignored on read.
	stale := []byte(`{"id":"c9","name":"X","completedDays":[1],"currentDay":5,"totalProgress":99,"status":"paused"}`)
	var back model.Customer
	require.NoError(t, json.Unmarshal(stale, &back))
	assert.Equal(t, 2, back.CurrentDay())
	assert.Equal(t, model.StatusActive, back.Status())
}

func TestStats(t *testing.T) {
	a := New("a", "A", "u1", t0)
	for d := 1; d <= 7; d++ {
		a, _ = SetDayCompletion(a, d, true, t0)
	}
	b := New("b", "B", "u1", t0)
	amt := 100.0
	b, _ = SetDeposit(b, true, &amt, nil, t0)
	b, _ = SetPotential(b, true, nil, nil, t0)

	st := Stats([]model.Customer{a, b})
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 1, st.Completed)
	assert.Equal(t, 1, st.Active)
	assert.Equal(t, 1, st.Potential)
	assert.Equal(t, 1, st.Deposited)
	assert.Equal(t, 100.0, st.DepositTotal)
	assert.InDelta(t, 50.0, st.AverageProgress, 1e-9)

	assert.Equal(t, model.CustomerStats{}, Stats(nil))
}
