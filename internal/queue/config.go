// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

// Package queue provides the at-least-once task queue the reconciler
// schedules work through. Production runs on embedded NATS JetStream
// via Watermill; tests run on Watermill's in-process pub/sub with the
// same delivery semantics (redelivery included).
package queue

import "time"

// TaskTopic carries reconciliation task messages.
const TaskTopic = "reconcile.tasks"

// StreamName is the JetStream stream holding task messages.
const StreamName = "RECONCILE"

// ServerConfig configures the embedded NATS server.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port"`
	StoreDir          string        `koanf:"store_dir"`
	JetStreamMaxMem   int64         `koanf:"jetstream_max_mem"`
	JetStreamMaxStore int64         `koanf:"jetstream_max_store"`
	ReadyTimeout      time.Duration `koanf:"ready_timeout"`
}

// DefaultServerConfig returns defaults for single-instance deployments.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              -1, // random free port
		StoreDir:          "data/nats",
		JetStreamMaxMem:   64 * 1024 * 1024,
		JetStreamMaxStore: 1024 * 1024 * 1024,
		ReadyTimeout:      30 * time.Second,
	}
}

// StreamConfig configures the task stream.
type StreamConfig struct {
	Name            string        `koanf:"name"`
	Subjects        []string      `koanf:"subjects"`
	MaxAge          time.Duration `koanf:"max_age"`
	MaxMsgs         int64         `koanf:"max_msgs"`
	DuplicateWindow time.Duration `koanf:"duplicate_window"`
}

// DefaultStreamConfig returns the task stream defaults. The duplicate
// window backs publish-side deduplication by task ID.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Name:            StreamName,
		Subjects:        []string{"reconcile.>"},
		MaxAge:          7 * 24 * time.Hour,
		MaxMsgs:         100_000,
		DuplicateWindow: 2 * time.Minute,
	}
}

// PublisherConfig configures the task publisher.
type PublisherConfig struct {
	URL           string        `koanf:"url"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
}

// DefaultPublisherConfig returns publisher defaults for the given
// server URL.
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		URL:           url,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// SubscriberConfig configures the worker subscriber.
type SubscriberConfig struct {
	URL           string        `koanf:"url"`
	QueueGroup    string        `koanf:"queue_group"`
	DurableName   string        `koanf:"durable_name"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
	AckWait       time.Duration `koanf:"ack_wait"`
	MaxDeliver    int           `koanf:"max_deliver"`
	MaxAckPending int           `koanf:"max_ack_pending"`
	CloseTimeout  time.Duration `koanf:"close_timeout"`
}

// DefaultSubscriberConfig returns worker defaults for the given server
// URL. AckWait must exceed the longest expected run, otherwise the
// broker redelivers a task that is still being processed.
func DefaultSubscriberConfig(url string) SubscriberConfig {
	return SubscriberConfig{
		URL:           url,
		QueueGroup:    "reconcile-workers",
		DurableName:   "reconcile-worker",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		AckWait:       10 * time.Minute,
		MaxDeliver:    5,
		MaxAckPending: 16,
		CloseTimeout:  30 * time.Second,
	}
}
