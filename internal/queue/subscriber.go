// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package queue

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/etoile-yachts/shipshape/internal/models"
)

// TaskHandler processes one task delivery. Returning an error nacks
// the message and the broker redelivers it, so handlers must tolerate
// seeing the same task more than once.
type TaskHandler func(ctx context.Context, task models.TaskMessage) error

// NewNATSSubscriber creates a durable JetStream subscriber bound to the
// task stream. Queue-group consumption load-balances across instances.
func NewNATSSubscriber(cfg SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("Subscriber disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("Subscriber reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	subOpts := []natsgo.SubOpt{
		natsgo.MaxDeliver(cfg.MaxDeliver),
		natsgo.MaxAckPending(cfg.MaxAckPending),
		natsgo.AckWait(cfg.AckWait),
		natsgo.DeliverAll(),
		natsgo.BindStream(StreamName),
	}

	wmConfig := wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: 1,
		AckWaitTimeout:   cfg.AckWait,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:         false,
			AutoProvision:    false,
			AckAsync:         false,
			SubscribeOptions: subOpts,
			DurablePrefix:    cfg.DurableName,
		},
	}

	sub, err := wmNats.NewSubscriber(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create task subscriber: %w", err)
	}
	return sub, nil
}

// Consumer pulls task messages off a Watermill subscriber and feeds
// them to a handler, acking only after the handler returns nil.
type Consumer struct {
	subscriber message.Subscriber
	logger     watermill.LoggerAdapter
}

// NewConsumer wraps a subscriber for task consumption.
func NewConsumer(sub message.Subscriber, logger watermill.LoggerAdapter) *Consumer {
	return &Consumer{subscriber: sub, logger: logger}
}

// Run consumes tasks until the context is canceled. A message whose
// payload cannot decode is acked and dropped; everything else is acked
// or nacked on the handler's verdict.
func (c *Consumer) Run(ctx context.Context, handler TaskHandler) error {
	messages, err := c.subscriber.Subscribe(ctx, TaskTopic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", TaskTopic, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			c.process(ctx, msg, handler)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg *message.Message, handler TaskHandler) {
	task, err := DecodeTask(msg)
	if err != nil {
		c.logger.Error("Dropping undecodable task message", err, watermill.LogFields{
			"message_uuid": msg.UUID,
		})
		msg.Ack()
		return
	}

	if err := handler(ctx, task); err != nil {
		c.logger.Error("Task processing failed, nacking for redelivery", err, watermill.LogFields{
			"task_id": task.TaskID,
			"kind":    string(task.Kind),
		})
		msg.Nack()
		return
	}
	msg.Ack()
}

// Close shuts the subscriber down.
func (c *Consumer) Close() error {
	return c.subscriber.Close()
}
