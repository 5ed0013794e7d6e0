package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the configuration for the nurture service.
// Environment variables are parsed from the NURTURE_ prefix.
type Config struct {
	// Storage
	StoreDriver                string `envconfig:"STORE_DRIVER" default:"sqlite"`
	SQLitePath                 string `envconfig:"SQLITE_PATH" default:""`
	PostgresDSN                string `envconfig:"POSTGRES_DSN" default:""`
	StoreOpenMaxElapsedSeconds int    `envconfig:"STORE_OPEN_MAX_ELAPSED_SECONDS" default:"30"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Questionnaire YAML; empty uses the built-in script
	QuestionnairePath string `envconfig:"QUESTIONNAIRE_PATH" default:""`

	// Sessions
	MaxDeviceSessions           int    `envconfig:"MAX_DEVICE_SESSIONS" default:"3"`
	SessionMaxAgeDays           int    `envconfig:"SESSION_MAX_AGE_DAYS" default:"30"`
	SessionSweepIntervalMinutes int    `envconfig:"SESSION_SWEEP_INTERVAL_MINUTES" default:"60"`
	TokenSecret                 string `envconfig:"TOKEN_SECRET" default:""`
	TokenTTLHours               int    `envconfig:"TOKEN_TTL_HOURS" default:"12"`
	BootstrapAdminPassword      string `envconfig:"BOOTSTRAP_ADMIN_PASSWORD" default:""`

	// Health
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`

	// Optional rotating log file in addition to stdout
	LogFile string `envconfig:"LOG_FILE" default:""`
}

// ResolveDefaults validates the driver selection and fills derived values.
func (c *Config) ResolveDefaults() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			c.SQLitePath = "data/nurture.db"
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("NURTURE_POSTGRES_DSN is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER: %s", c.StoreDriver)
	}
	if c.TokenSecret == "" {
		return fmt.Errorf("NURTURE_TOKEN_SECRET is required")
	}
	if c.MaxDeviceSessions <= 0 {
		return fmt.Errorf("MAX_DEVICE_SESSIONS must be positive, got %d", c.MaxDeviceSessions)
	}
	if c.SessionMaxAgeDays <= 0 {
		return fmt.Errorf("SESSION_MAX_AGE_DAYS must be positive, got %d", c.SessionMaxAgeDays)
	}
	if c.HealthIntervalSeconds <= 0 {
		c.HealthIntervalSeconds = 30
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Example: NURTURE_STORE_DRIVER=postgres, NURTURE_HTTP_PORT=9000
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("NURTURE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("store_driver", cfg.StoreDriver).
		Str("sqlite_path", cfg.SQLitePath).
		Bool("postgres_dsn_present", cfg.PostgresDSN != "").
		Int("port", cfg.HTTPPort).
		Int("max_device_sessions", cfg.MaxDeviceSessions).
		Int("session_max_age_days", cfg.SessionMaxAgeDays).
		Str("questionnaire_path", cfg.QuestionnairePath).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates an in-memory config for tests.
func NewForTesting() *Config {
	return &Config{
		StoreDriver:                 DriverMemory,
		StoreOpenMaxElapsedSeconds:  1,
		HTTPPort:                    8080,
		MaxDeviceSessions:           3,
		SessionMaxAgeDays:           30,
		SessionSweepIntervalMinutes: 60,
		TokenSecret:                 "test-secret",
		TokenTTLHours:               1,
		HealthIntervalSeconds:       1,
		HealthProbeTimeoutSeconds:   1,
	}
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func (c *Config) SessionMaxAge() time.Duration {
	return time.Duration(c.SessionMaxAgeDays) * 24 * time.Hour
}

func (c *Config) SessionSweepInterval() time.Duration {
	return time.Duration(c.SessionSweepIntervalMinutes) * time.Minute
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}
