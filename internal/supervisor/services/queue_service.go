// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/etoile-yachts/shipshape/internal/queue"
)

// Broker matches the embedded queue server's lifecycle methods.
// Satisfied by *queue.EmbeddedServer.
type Broker interface {
	IsRunning() bool
	Shutdown(ctx context.Context) error
}

// BrokerGuardService watches an embedded broker that was started during
// bootstrap and shuts it down when supervision ends. The broker itself
// cannot be restarted by suture (clients hold its URL), so an
// unexpected broker exit terminates the whole tree instead of
// restarting into a half-dead process.
type BrokerGuardService struct {
	broker       Broker
	pollInterval time.Duration
}

// NewBrokerGuardService creates the guard.
func NewBrokerGuardService(broker Broker) *BrokerGuardService {
	return &BrokerGuardService{broker: broker, pollInterval: 5 * time.Second}
}

// Serve implements suture.Service.
func (b *BrokerGuardService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := b.broker.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("broker shutdown failed: %w", err)
			}
			return ctx.Err()
		case <-ticker.C:
			if !b.broker.IsRunning() {
				return fmt.Errorf("embedded queue broker stopped unexpectedly: %w", suture.ErrTerminateSupervisorTree)
			}
		}
	}
}

func (b *BrokerGuardService) String() string { return "queue-broker-guard" }

// TaskConsumer matches the queue consumer's run loop. Satisfied by
// *queue.Consumer.
type TaskConsumer interface {
	Run(ctx context.Context, handler queue.TaskHandler) error
	Close() error
}

// ConsumerService runs the task consumer loop under supervision. A
// consumer crash (lost subscription, broker hiccup) is restarted by
// suture; in-flight messages redeliver after their ack wait.
type ConsumerService struct {
	consumer TaskConsumer
	handler  queue.TaskHandler
}

// NewConsumerService creates the wrapper.
func NewConsumerService(consumer TaskConsumer, handler queue.TaskHandler) *ConsumerService {
	return &ConsumerService{consumer: consumer, handler: handler}
}

// Serve implements suture.Service.
func (c *ConsumerService) Serve(ctx context.Context) error {
	err := c.consumer.Run(ctx, c.handler)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("task consumer stopped: %w", err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (c *ConsumerService) String() string { return "task-consumer" }
