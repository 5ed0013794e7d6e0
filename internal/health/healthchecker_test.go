package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	name    string
	healthy atomic.Int32
}

func (f *fakeChecker) Name() string                               { return f.name }
func (f *fakeChecker) IsHealthy() bool                            { return f.healthy.Load() == 1 }
func (f *fakeChecker) Start(ctx context.Context, _ time.Duration) { /* no-op */ }

type fakePinger struct{ fail atomic.Bool }

func (f *fakePinger) HealthPing(context.Context) error {
	if f.fail.Load() {
		return errors.New("down")
	}
	return nil
}

func TestServiceHealthChecker_Transitions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := &fakeChecker{name: "a"}
	b := &fakeChecker{name: "b"}
	a.healthy.Store(1)
	b.healthy.Store(1)

	svc := NewServiceHealthChecker(zerolog.Nop(), a, b)
	go svc.Start(ctx, 10*time.Millisecond)

	require.Eventually(t, svc.IsHealthy, 500*time.Millisecond, 10*time.Millisecond)

	b.healthy.Store(0)
	require.Eventually(t, func() bool { return !svc.IsHealthy() }, 500*time.Millisecond, 10*time.Millisecond)
	require.Eventually(t, func() bool { return !svc.Components()["b"] && svc.Components()["a"] }, 500*time.Millisecond, 10*time.Millisecond)

	b.healthy.Store(1)
	require.Eventually(t, svc.IsHealthy, 500*time.Millisecond, 10*time.Millisecond)
}

func TestPingChecker_Probe(t *testing.T) {
	target := &fakePinger{}
	pc := NewPingChecker("store", target, zerolog.Nop(), time.Second)
	assert.False(t, pc.IsHealthy())

	assert.True(t, pc.Probe(context.Background()))
	assert.True(t, pc.IsHealthy())

	target.fail.Store(true)
	assert.False(t, pc.Probe(context.Background()))
	assert.False(t, pc.IsHealthy())
	assert.Equal(t, "store", pc.Name())
}
