package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/mycelian/nurture-tracker/internal/config"
	"github.com/mycelian/nurture-tracker/internal/kv"
	"github.com/mycelian/nurture-tracker/internal/kv/memory"
	kvpg "github.com/mycelian/nurture-tracker/internal/kv/postgres"
	kvsqlite "github.com/mycelian/nurture-tracker/internal/kv/sqlite"
	"github.com/mycelian/nurture-tracker/internal/store/kvstore"
)

// NewKV opens the backend selected by cfg.StoreDriver. Opening is retried with
// exponential backoff for up to StoreOpenMaxElapsedSeconds so the service can start
// before its database is reachable.
func NewKV(ctx context.Context, cfg *config.Config, log zerolog.Logger) (kv.KV, error) {
	open := func() (kv.KV, error) {
		switch cfg.StoreDriver {
		case config.DriverMemory:
			return memory.New(), nil
		case config.DriverSQLite:
			return kvsqlite.New(ctx, cfg.SQLitePath)
		case config.DriverPostgres:
			db, err := kvpg.Open(cfg.PostgresDSN)
			if err != nil {
				return nil, err
			}
			s, err := kvpg.NewWithDB(ctx, db)
			if err != nil {
				_ = db.Close()
				return nil, err
			}
			return s, nil
		default:
			return nil, backoff.Permanent(fmt.Errorf("unknown STORE_DRIVER: %s", cfg.StoreDriver))
		}
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 250 * time.Millisecond
	exp.MaxInterval = 5 * time.Second
	exp.MaxElapsedTime = time.Duration(cfg.StoreOpenMaxElapsedSeconds) * time.Second
	exp.Reset()

	attempt := 0
	backend, err := backoff.RetryNotifyWithData(open, backoff.WithContext(exp, ctx), func(err error, wait time.Duration) {
		attempt++
		log.Warn().Err(err).Str("driver", cfg.StoreDriver).Int("attempt", attempt).Dur("retry_in", wait).Msg("store open failed")
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	log.Info().Str("driver", cfg.StoreDriver).Msg("store opened")
	return backend, nil
}

// NewStore opens the configured backend and wraps it in the document store.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*kvstore.Store, error) {
	backend, err := NewKV(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return kvstore.New(backend), nil
}
