// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package room

import (
	"encoding/json"
	"sync/atomic"
)

// SubscriberChannelSize is the buffer size for per-subscriber event
// channels. If a subscriber's channel is full, the event is dropped
// and the subscriber is marked for resync.
const SubscriberChannelSize = 256

// Event is one outbound push frame: an event name and its JSON payload,
// encoded when the event was broadcast.
type Event struct {
	Name string
	Data json.RawMessage
}

// Subscriber is one connection's inbound event stream. The connection
// owner reads Channel and writes frames to the client.
type Subscriber struct {
	// Channel receives events. Create it with SubscriberChannelSize.
	Channel chan Event

	// Resync is set when Channel overflowed. The owner should tell the
	// client to reload the project.
	Resync atomic.Bool

	// Done is closed by the owner when the connection ends.
	Done <-chan struct{}
}

// NewSubscriber returns a subscriber with a correctly sized channel.
func NewSubscriber(done <-chan struct{}) *Subscriber {
	return &Subscriber{
		Channel: make(chan Event, SubscriberChannelSize),
		Done:    done,
	}
}

// Subscription pairs a Subscriber with the project room it joined and
// the user behind it.
type Subscription struct {
	*Subscriber
	ProjectID string
	UserName  string
}

// trySend attempts a non-blocking send. It returns false if the
// subscriber is gone and should be removed.
func trySend(subscriber *Subscriber, event Event) bool {
	select {
	case <-subscriber.Done:
		return false
	default:
	}

	select {
	case subscriber.Channel <- event:
	default:
		subscriber.Resync.Store(true)
	}
	return true
}
