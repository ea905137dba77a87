// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"shipshape.yaml",
	"shipshape.yml",
	"/etc/shipshape/config.yaml",
	"/etc/shipshape/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "SHIPSHAPE_CONFIG"

// envPrefix scopes environment overrides to this service.
const envPrefix = "SHIPSHAPE_"

// Load builds the configuration from layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. SHIPSHAPE_* environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env var strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"queue.stream.subjects",
}

// processSliceFields converts comma-separated strings to slices for
// known slice fields. Env vars come in as strings; YAML values are
// already slices and are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps SHIPSHAPE_* environment variable names to
// config paths. Unmapped names are dropped so unrelated environment
// variables never pollute the config.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

	envMappings := map[string]string{
		// Server
		"host":             "server.host",
		"port":             "server.port",
		"read_timeout":     "server.read_timeout",
		"write_timeout":    "server.write_timeout",
		"shutdown_timeout": "server.shutdown_timeout",
		"environment":      "server.environment",

		// Store
		"store_path":             "store.path",
		"store_in_memory":        "store.in_memory",
		"store_gc_interval":      "store.gc_interval",
		"store_gc_discard_ratio": "store.gc_discard_ratio",

		// Queue
		"queue_embedded":        "queue.embedded",
		"queue_url":             "queue.url",
		"queue_store_dir":       "queue.server.store_dir",
		"queue_host":            "queue.server.host",
		"queue_port":            "queue.server.port",
		"queue_max_mem":         "queue.server.jetstream_max_mem",
		"queue_max_store":       "queue.server.jetstream_max_store",
		"queue_stream_max_age":  "queue.stream.max_age",
		"queue_stream_max_msgs": "queue.stream.max_msgs",
		"queue_group":           "queue.queue_group",
		"queue_durable_name":    "queue.durable_name",
		"queue_ack_wait":        "queue.ack_wait",
		"queue_max_deliver":     "queue.max_deliver",

		// Media
		"media_base_url":            "media.base_url",
		"media_probe_timeout":       "media.probe_timeout",
		"media_probe_with_get":      "media.probe_with_get",
		"media_requests_per_second": "media.requests_per_second",
		"media_burst":               "media.burst",
		"media_probe_concurrency":   "media.probe_concurrency",
		"media_probe_cache_size":    "media.probe_cache_size",
		"media_strict_content_type": "media.strict_content_type",

		// Worker
		"worker_batch_limit": "worker.batch_limit",

		// Scheduler
		"scheduler_enabled":        "scheduler.enabled",
		"scheduler_check_interval": "scheduler.check_interval",

		// Security
		"auth_disabled":       "security.auth_disabled",
		"jwt_secret":          "security.jwt_secret",
		"session_timeout":     "security.session_timeout",
		"rate_limit_requests": "security.rate_limit_requests",
		"rate_limit_window":   "security.rate_limit_window",
		"rate_limit_disabled": "security.rate_limit_disabled",
		"cors_origins":        "security.cors_origins",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
