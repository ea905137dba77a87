// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package queue

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	json "github.com/goccy/go-json"

	"github.com/etoile-yachts/shipshape/internal/models"
)

// EncodeTask builds the wire message for a task. The message UUID
// doubles as the broker-level deduplication key, so it carries the
// attempt number: an operator retry inside the dedup window must not
// be swallowed as a duplicate of the original publish.
func EncodeTask(task models.TaskMessage) (*message.Message, error) {
	payload, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("encode task %s: %w", task.TaskID, err)
	}

	uuid := task.TaskID
	if task.Attempt > 0 {
		uuid = fmt.Sprintf("%s#%d", task.TaskID, task.Attempt)
	}
	msg := message.NewMessage(uuid, payload)
	msg.Metadata.Set("kind", string(task.Kind))
	return msg, nil
}

// DecodeTask parses a task message. A payload that does not decode is
// a permanent failure; redelivery cannot fix it.
func DecodeTask(msg *message.Message) (models.TaskMessage, error) {
	var task models.TaskMessage
	if err := json.Unmarshal(msg.Payload, &task); err != nil {
		return models.TaskMessage{}, fmt.Errorf("decode task message %s: %w", msg.UUID, err)
	}
	if task.TaskID == "" {
		return models.TaskMessage{}, fmt.Errorf("task message %s has no task id", msg.UUID)
	}
	return task, nil
}
