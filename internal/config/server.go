// Package config loads process configuration from the environment using
// the project's reflection-based env.Load, the same MONO_-prefixed
// convention and Validator-interface pattern as before, re-scoped from the
// TodoList server to the job scheduler (§6.5).
package config

import (
	"fmt"
	"time"

	"github.com/rezkam/mono/internal/env"
)

// ServerConfig holds all configuration for the server binary.
type ServerConfig struct {
	HTTP          HTTPConfig
	Storage       StorageConfig
	Scheduler     SchedulerConfig
	Observability ObservabilityConfig
	Callback      CallbackConfig
}

// CallbackConfig points at the external browser-automation endpoints the
// Executor posts through (§6.4).
type CallbackConfig struct {
	ThreadsURL      string        `env:"MONO_CALLBACK_THREADS_URL"`
	FacebookURL     string        `env:"MONO_CALLBACK_FACEBOOK_URL"`
	RequestTimeout  time.Duration `env:"MONO_CALLBACK_TIMEOUT"`
}

// WithDefaults fills zero-valued fields with their documented defaults.
func (c CallbackConfig) WithDefaults() CallbackConfig {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	return c
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port         string        `env:"MONO_HTTP_PORT"`
	ReadTimeout  time.Duration `env:"MONO_HTTP_READ_TIMEOUT"`
	WriteTimeout time.Duration `env:"MONO_HTTP_WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `env:"MONO_HTTP_IDLE_TIMEOUT"`
	MaxBodyBytes int64         `env:"MONO_HTTP_MAX_BODY_BYTES"`
}

// WithDefaults fills zero-valued fields with the documented defaults.
func (c HTTPConfig) WithDefaults() HTTPConfig {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 5 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 120 * time.Second
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 1 << 20
	}
	return c
}

// LoadServerConfig loads and validates server configuration from environment.
func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{}
	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}
	cfg.HTTP = cfg.HTTP.WithDefaults()
	cfg.Scheduler = cfg.Scheduler.WithDefaults()
	cfg.Observability = cfg.Observability.WithDefaults()
	cfg.Callback = cfg.Callback.WithDefaults()
	return cfg, nil
}
