// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package queue

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// NewInProcPubSub creates an in-process pub/sub with the same
// ack/nack-redelivery contract as JetStream. Used by tests and by demo
// mode, where the embedded broker would be overkill.
func NewInProcPubSub(logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            64,
		Persistent:                     true,
		BlockPublishUntilSubscriberAck: false,
	}, logger)
}
