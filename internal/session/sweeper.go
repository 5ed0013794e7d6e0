package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mycelian/nurture-tracker/internal/metrics"
)

// SweeperConfig controls how often stale sessions are purged and what counts as stale.
type SweeperConfig struct {
	Interval time.Duration
	MaxAge   time.Duration
}

// Sweeper periodically runs Registry.CleanupStale.
type Sweeper struct {
	reg *Registry
	cfg SweeperConfig
	log zerolog.Logger
}

func NewSweeper(reg *Registry, cfg SweeperConfig, log zerolog.Logger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	return &Sweeper{reg: reg, cfg: cfg, log: log}
}

// Run sweeps once immediately and then on every tick until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) error {
	s.log.Info().Dur("interval", s.cfg.Interval).Dur("max_age", s.cfg.MaxAge).Msg("session sweeper starting")
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.sweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("session sweeper stopping")
			return ctx.Err()
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	n, err := s.reg.CleanupStale(ctx, s.cfg.MaxAge)
	if err != nil {
		// next tick retries
		s.log.Error().Err(err).Msg("session sweep")
		return
	}
	if n > 0 {
		metrics.SessionsSwept.Add(float64(n))
		s.log.Info().Int("removed", n).Msg("stale device sessions removed")
	}
}
