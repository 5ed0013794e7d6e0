// Package health aggregates component health into a single service flag.
package health

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// HealthChecker is implemented by component-level checkers (store backends).
type HealthChecker interface {
	Name() string
	IsHealthy() bool
	Start(ctx context.Context, interval time.Duration)
}

// ServiceHealthChecker aggregates component checkers into a single service health flag.
type ServiceHealthChecker struct {
	healthy atomic.Int32
	deps    []HealthChecker
	log     zerolog.Logger

	mu         sync.RWMutex
	components map[string]bool
}

func NewServiceHealthChecker(log zerolog.Logger, deps ...HealthChecker) *ServiceHealthChecker {
	h := &ServiceHealthChecker{deps: deps, log: log, components: map[string]bool{}}
	h.healthy.Store(0)
	return h
}

// IsHealthy returns cached service health.
func (h *ServiceHealthChecker) IsHealthy() bool { return h.healthy.Load() == 1 }

// Components returns the last observed health of each dependency by name.
func (h *ServiceHealthChecker) Components() map[string]bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]bool, len(h.components))
	for k, v := range h.components {
		out[k] = v
	}
	return out
}

// Start periodically evaluates dependency health and updates the service flag.
func (h *ServiceHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := int32(0)
	eval := func() {
		all := true
		snapshot := make(map[string]bool, len(h.deps))
		for _, c := range h.deps {
			ok := c.IsHealthy()
			snapshot[c.Name()] = ok
			if !ok {
				all = false
			}
		}
		h.mu.Lock()
		h.components = snapshot
		h.mu.Unlock()

		if all {
			h.healthy.Store(1)
		} else {
			h.healthy.Store(0)
		}
		cur := h.healthy.Load()
		if cur != prev {
			if cur == 1 {
				h.log.Info().Msg("service health: UP")
			} else {
				h.log.Error().Stack().Interface("components", snapshot).Msg("service health: DOWN")
			}
			prev = cur
		}
	}

	eval()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			eval()
		}
	}
}

// HealthPinger is a dependency that can answer a liveness probe; nil means healthy.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}

// PingChecker probes a HealthPinger on every tick and caches the result.
type PingChecker struct {
	name         string
	target       HealthPinger
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

func NewPingChecker(name string, target HealthPinger, log zerolog.Logger, probeTimeout time.Duration) *PingChecker {
	if probeTimeout <= 0 {
		probeTimeout = 2 * time.Second
	}
	return &PingChecker{name: name, target: target, log: log, probeTimeout: probeTimeout}
}

func (p *PingChecker) Name() string { return p.name }

func (p *PingChecker) IsHealthy() bool { return p.healthy.Load() == 1 }

// Start begins periodic probing; the checker reports unhealthy until the first probe succeeds.
func (p *PingChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Probe(ctx)
		}
	}
}

// Probe runs one check and records the outcome.
func (p *PingChecker) Probe(ctx context.Context) bool {
	checkCtx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()
	if err := p.target.HealthPing(checkCtx); err != nil {
		p.log.Error().Stack().Str("checker", p.name).Err(err).Msg("health check failed")
		p.healthy.Store(0)
		return false
	}
	p.healthy.Store(1)
	return true
}
