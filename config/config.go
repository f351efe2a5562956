package config

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port   string `env:"SERVER_PORT" envDefault:"8080" validate:"required"`

	DatabaseURL string `env:"DATABASE_URL" envDefault:"file:./scheduler.db" validate:"required"`

	DispatcherIdleIntervalSec int `env:"DISPATCHER_IDLE_INTERVAL_SEC" envDefault:"3600" validate:"min=1"`
	DispatcherErrorBackoffSec int `env:"DISPATCHER_ERROR_BACKOFF_SEC" envDefault:"5" validate:"min=1"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"required,oneof=debug info warn error"`

	// AdminAuthToken, when set, gates POST/DELETE /tasks behind a bearer
	// token. Left unset, the API runs open (single-operator/local-dev mode).
	AdminAuthToken string `env:"ADMIN_AUTH_TOKEN"`

	// Alert* configure the failure Notifier. All three must be set for
	// email alerts; otherwise failures are only logged.
	AlertResendAPIKey string `env:"ALERT_RESEND_API_KEY"`
	AlertFrom         string `env:"ALERT_FROM"`
	AlertTo           string `env:"ALERT_TO"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if _, err := strconv.ParseUint(cfg.Port, 10, 16); err != nil {
		return nil, fmt.Errorf("invalid config: SERVER_PORT %q is not a valid port: %w", cfg.Port, err)
	}

	return cfg, nil
}

// SlogLevel converts the LOG_LEVEL string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
