// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package queue

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/etoile-yachts/shipshape/internal/models"
)

func TestTaskCodecRoundtrip(t *testing.T) {
	task := models.TaskMessage{
		TaskID:      "task-123",
		Kind:        models.TaskValidateCollection,
		Collections: []string{"unified_yacht_experiences"},
	}

	msg, err := EncodeTask(task)
	if err != nil {
		t.Fatalf("EncodeTask: %v", err)
	}
	if msg.UUID != task.TaskID {
		t.Errorf("message UUID = %q, want task ID", msg.UUID)
	}

	got, err := DecodeTask(msg)
	if err != nil {
		t.Fatalf("DecodeTask: %v", err)
	}
	if got.TaskID != task.TaskID || got.Kind != task.Kind || len(got.Collections) != 1 {
		t.Errorf("roundtrip = %+v", got)
	}
}

func TestEncodeTaskRetryGetsFreshDedupKey(t *testing.T) {
	task := models.TaskMessage{
		TaskID:      "task-123",
		Kind:        models.TaskValidateAll,
		Collections: []string{"unified_yacht_experiences"},
	}

	first, err := EncodeTask(task)
	if err != nil {
		t.Fatalf("EncodeTask: %v", err)
	}

	task.Attempt = 1
	retry, err := EncodeTask(task)
	if err != nil {
		t.Fatalf("EncodeTask retry: %v", err)
	}

	// JetStream dedups on the message UUID. A retried publish inside
	// the duplicate window must carry a different key or the broker
	// acks it without storing a second delivery.
	if retry.UUID == first.UUID {
		t.Fatalf("retry UUID %q matches original; broker would swallow it", retry.UUID)
	}

	got, err := DecodeTask(retry)
	if err != nil {
		t.Fatalf("DecodeTask: %v", err)
	}
	if got.TaskID != "task-123" || got.Attempt != 1 {
		t.Errorf("retry roundtrip = %+v", got)
	}
}

func TestDecodeTaskRejectsGarbage(t *testing.T) {
	if _, err := DecodeTask(message.NewMessage("x", []byte("{not json"))); err == nil {
		t.Error("garbage payload must not decode")
	}
	if _, err := DecodeTask(message.NewMessage("x", []byte(`{"kind":"validate-all"}`))); err == nil {
		t.Error("message without task id must not decode")
	}
}

func TestPublishConsumeInProc(t *testing.T) {
	logger := watermill.NopLogger{}
	pubsub := NewInProcPubSub(logger)
	defer pubsub.Close()

	consumer := NewConsumer(pubsub, logger)
	received := make(chan models.TaskMessage, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = consumer.Run(ctx, func(ctx context.Context, task models.TaskMessage) error {
			received <- task
			return nil
		})
	}()

	pub := NewPublisher(pubsub)
	task := models.TaskMessage{TaskID: "task-1", Kind: models.TaskValidateAll}
	if err := pub.PublishTask(context.Background(), task); err != nil {
		t.Fatalf("PublishTask: %v", err)
	}

	select {
	case got := <-received:
		if got.TaskID != "task-1" {
			t.Errorf("received task %q", got.TaskID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("task never delivered")
	}
}

func TestFailedHandlerTriggersRedelivery(t *testing.T) {
	logger := watermill.NopLogger{}
	pubsub := NewInProcPubSub(logger)
	defer pubsub.Close()

	consumer := NewConsumer(pubsub, logger)
	var attempts int32
	done := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = consumer.Run(ctx, func(ctx context.Context, task models.TaskMessage) error {
			if atomic.AddInt32(&attempts, 1) == 1 {
				return fmt.Errorf("transient failure")
			}
			close(done)
			return nil
		})
	}()

	pub := NewPublisher(pubsub)
	if err := pub.PublishTask(context.Background(), models.TaskMessage{TaskID: "task-redeliver", Kind: models.TaskFixRelativeURLs}); err != nil {
		t.Fatalf("PublishTask: %v", err)
	}

	select {
	case <-done:
		if got := atomic.LoadInt32(&attempts); got < 2 {
			t.Errorf("attempts = %d, want redelivery", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("nacked task never redelivered")
	}
}

func TestPublisherClosedRejectsPublish(t *testing.T) {
	pubsub := NewInProcPubSub(watermill.NopLogger{})
	pub := NewPublisher(pubsub)
	if err := pub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := pub.PublishTask(context.Background(), models.TaskMessage{TaskID: "t"}); err == nil {
		t.Error("publish on closed publisher must fail")
	}
}
