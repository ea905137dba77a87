// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package config

import (
	"time"

	"github.com/etoile-yachts/shipshape/internal/media"
	"github.com/etoile-yachts/shipshape/internal/queue"
)

// Config is the complete runtime configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Store     StoreConfig     `koanf:"store"`
	Queue     QueueConfig     `koanf:"queue"`
	Media     MediaConfig     `koanf:"media"`
	Worker    WorkerConfig    `koanf:"worker"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig configures the admin HTTP server.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Environment gates the production safety checks: "development" or
	// "production".
	Environment string `koanf:"environment"`
}

// StoreConfig configures the document store.
type StoreConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`

	// GCInterval is how often value-log garbage collection runs.
	GCInterval     time.Duration `koanf:"gc_interval"`
	GCDiscardRatio float64       `koanf:"gc_discard_ratio"`
}

// QueueConfig configures the task queue.
type QueueConfig struct {
	// Embedded runs an in-process JetStream broker. When false, URL
	// must point at an external NATS deployment.
	Embedded bool   `koanf:"embedded"`
	URL      string `koanf:"url"`

	Server queue.ServerConfig `koanf:"server"`
	Stream queue.StreamConfig `koanf:"stream"`

	QueueGroup  string        `koanf:"queue_group"`
	DurableName string        `koanf:"durable_name"`
	AckWait     time.Duration `koanf:"ack_wait"`
	MaxDeliver  int           `koanf:"max_deliver"`
}

// PublisherConfig builds the publisher settings for the configured URL.
func (q QueueConfig) PublisherConfig() queue.PublisherConfig {
	return queue.DefaultPublisherConfig(q.URL)
}

// SubscriberConfig builds the subscriber settings for the configured URL.
func (q QueueConfig) SubscriberConfig() queue.SubscriberConfig {
	cfg := queue.DefaultSubscriberConfig(q.URL)
	if q.QueueGroup != "" {
		cfg.QueueGroup = q.QueueGroup
	}
	if q.DurableName != "" {
		cfg.DurableName = q.DurableName
	}
	if q.AckWait > 0 {
		cfg.AckWait = q.AckWait
	}
	if q.MaxDeliver > 0 {
		cfg.MaxDeliver = q.MaxDeliver
	}
	return cfg
}

// MediaConfig configures URL probing, classification and repair.
type MediaConfig struct {
	// BaseURL is the storage bucket prepended to relative asset paths.
	BaseURL string `koanf:"base_url"`

	ProbeTimeout      time.Duration `koanf:"probe_timeout"`
	ProbeWithGET      bool          `koanf:"probe_with_get"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	ProbeConcurrency  int           `koanf:"probe_concurrency"`
	StrictContentType bool          `koanf:"strict_content_type"`

	// ProbeCacheSize bounds the probe result cache; zero disables it.
	ProbeCacheSize int           `koanf:"probe_cache_size"`
	ProbeCacheTTL  time.Duration `koanf:"probe_cache_ttl"`
}

// ProberConfig builds the HTTP prober settings.
func (m MediaConfig) ProberConfig() media.ProberConfig {
	cfg := media.DefaultProberConfig()
	if m.ProbeTimeout > 0 {
		cfg.Timeout = m.ProbeTimeout
	}
	cfg.ProbeWithGET = m.ProbeWithGET
	cfg.RequestsPerSecond = m.RequestsPerSecond
	if m.Burst > 0 {
		cfg.Burst = m.Burst
	}
	return cfg
}

// ValidatorConfig builds the classifier settings.
func (m MediaConfig) ValidatorConfig() media.ValidatorConfig {
	cfg := media.DefaultValidatorConfig()
	if m.ProbeConcurrency > 0 {
		cfg.ProbeConcurrency = m.ProbeConcurrency
	}
	cfg.StrictContentType = m.StrictContentType
	return cfg
}

// ResolverConfig builds the URL repair settings. The placeholder and
// alias tables follow the marketplace conventions; only the base URL is
// operator-configurable.
func (m MediaConfig) ResolverConfig() media.ResolverConfig {
	cfg := media.DefaultResolverConfig()
	if m.BaseURL != "" {
		cfg.BaseURL = m.BaseURL
	}
	return cfg
}

// WorkerConfig configures reconciliation run execution.
type WorkerConfig struct {
	// BatchLimit caps operations per batch commit.
	BatchLimit int `koanf:"batch_limit"`
}

// SchedulerConfig configures the recurring-validation runner.
type SchedulerConfig struct {
	Enabled       bool          `koanf:"enabled"`
	CheckInterval time.Duration `koanf:"check_interval"`
}

// SecurityConfig configures admin API protection.
type SecurityConfig struct {
	// AuthDisabled skips bearer-token enforcement. Refused in
	// production environments by Validate.
	AuthDisabled bool `koanf:"auth_disabled"`

	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`

	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with production defaults. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8092,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
		},
		Store: StoreConfig{
			Path:           "/data/shipshape/store",
			InMemory:       false,
			GCInterval:     10 * time.Minute,
			GCDiscardRatio: 0.5,
		},
		Queue: QueueConfig{
			Embedded:    true,
			URL:         "nats://127.0.0.1:4222",
			Server:      queue.DefaultServerConfig(),
			Stream:      queue.DefaultStreamConfig(),
			QueueGroup:  "reconcile-workers",
			DurableName: "reconcile-worker",
			AckWait:     10 * time.Minute,
			MaxDeliver:  5,
		},
		Media: MediaConfig{
			BaseURL:           "https://storage.googleapis.com/etoile-yachts.firebasestorage.app",
			ProbeTimeout:      10 * time.Second,
			ProbeWithGET:      true,
			RequestsPerSecond: 20,
			Burst:             10,
			ProbeConcurrency:  4,
			StrictContentType: true,
			ProbeCacheSize:    4096,
			ProbeCacheTTL:     15 * time.Minute,
		},
		Worker: WorkerConfig{
			BatchLimit: 100,
		},
		Scheduler: SchedulerConfig{
			Enabled:       true,
			CheckInterval: time.Minute,
		},
		Security: SecurityConfig{
			AuthDisabled:      false,
			JWTSecret:         "",
			SessionTimeout:    24 * time.Hour,
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
			CORSOrigins:       []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
