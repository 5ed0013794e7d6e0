// Package nurtureservice assembles and runs the nurture tracker HTTP service.
package nurtureservice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mycelian/nurture-tracker/internal/api"
	"github.com/mycelian/nurture-tracker/internal/auth"
	"github.com/mycelian/nurture-tracker/internal/config"
	"github.com/mycelian/nurture-tracker/internal/factory"
	"github.com/mycelian/nurture-tracker/internal/health"
	"github.com/mycelian/nurture-tracker/internal/logger"
	"github.com/mycelian/nurture-tracker/internal/questionnaire"
	"github.com/mycelian/nurture-tracker/internal/services"
	"github.com/mycelian/nurture-tracker/internal/session"
	"github.com/mycelian/nurture-tracker/internal/store/kvstore"
)

const serviceName = "nurture-service"

// Run starts the nurture service HTTP server and blocks until shutdown or error.
func Run() error {
	cfg, err := config.New()
	if err != nil {
		bootLog := logger.New(serviceName)
		bootLog.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	log := newLogger(cfg)

	log.Info().
		Str("store_driver", cfg.StoreDriver).
		Int("http_port", cfg.HTTPPort).
		Int("max_device_sessions", cfg.MaxDeviceSessions).
		Msg("Nurture service starting")

	ctx, stop := newServerContext()
	defer stop()

	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store unavailable")
		return err
	}
	defer func() {
		if err := st.KV().Close(); err != nil {
			log.Error().Err(err).Msg("store close")
		}
	}()

	app, err := wire(ctx, cfg, st, log)
	if err != nil {
		return err
	}

	svcHealth := startHealthCheckers(ctx, cfg, log, st)
	app.deps.Health = svcHealth
	router := api.NewRouter(app.deps)

	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	go func() {
		if err := app.sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("session sweeper exit")
		}
	}()

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.LogFile == "" {
		return logger.New(serviceName)
	}
	return logger.NewWithFile(serviceName, logger.FileOptions{Path: cfg.LogFile})
}

type application struct {
	deps    api.Deps
	sweeper *session.Sweeper
}

// wire builds the services on top of st and runs the first-start bootstrap.
func wire(ctx context.Context, cfg *config.Config, st *kvstore.Store, log zerolog.Logger) (*application, error) {
	q, err := loadQuestionnaire(cfg)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Questionnaire unavailable")
		return nil, err
	}

	registry := session.NewRegistry(st.Sessions(), log, session.WithMaxDevices(cfg.MaxDeviceSessions))
	tokens, err := auth.NewTokens(cfg.TokenSecret, cfg.TokenTTL())
	if err != nil {
		return nil, err
	}

	customers := services.NewCustomerService(st, log)
	directory := services.NewDirectoryService(st, log)
	authSvc := services.NewAuthService(st, registry, tokens, directory, cfg.SessionMaxAge(), log)
	if err := authSvc.Bootstrap(ctx, cfg.BootstrapAdminPassword); err != nil {
		log.Error().Stack().Err(err).Msg("Bootstrap failed")
		return nil, err
	}

	return &application{
		deps: api.Deps{
			Auth:          authSvc,
			Authenticator: auth.NewAuthenticator(tokens, registry, st.Users()),
			Customers:     customers,
			Forms:         services.NewFormService(st, customers, q, log),
			Documents:     services.NewDocumentService(st, customers, log),
			Directory:     directory,
			Backup:        services.NewBackupService(st, log),
			Log:           log,
		},
		sweeper: session.NewSweeper(registry, session.SweeperConfig{
			Interval: cfg.SessionSweepInterval(),
			MaxAge:   cfg.SessionMaxAge(),
		}, log),
	}, nil
}

func loadQuestionnaire(cfg *config.Config) (*questionnaire.Questionnaire, error) {
	if cfg.QuestionnairePath == "" {
		return questionnaire.Default()
	}
	return questionnaire.Load(cfg.QuestionnairePath)
}

// startHealthCheckers starts the store checker and the service-level aggregator.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st *kvstore.Store) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := health.NewPingChecker("store", st, log, probeTimeout)
	// first probe inline so the aggregator's initial evaluation sees a result
	storeChecker.Probe(ctx)
	go storeChecker.Start(ctx, interval)

	svcHealth := health.NewServiceHealthChecker(log, storeChecker)
	go svcHealth.Start(ctx, interval)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in seconds,
// calculated as interval*2 with a minimum of 60 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

