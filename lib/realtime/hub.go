// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/bureau-foundation/kanban/lib/board"
	"github.com/bureau-foundation/kanban/lib/clock"
	"github.com/bureau-foundation/kanban/lib/kanban"
	"github.com/bureau-foundation/kanban/lib/presence"
	"github.com/bureau-foundation/kanban/lib/room"
)

const chatHistoryFailureText = "error: the server could not find chat history."

// Hub owns the presence registry shared by all connections.
type Hub struct {
	board    *board.Service
	rooms    *room.Manager
	presence *presence.Registry
	clock    clock.Clock
	logger   *slog.Logger
}

// NewHub creates a Hub. Panics if a collaborator is missing.
func NewHub(service *board.Service, registry *presence.Registry, clk clock.Clock, logger *slog.Logger) *Hub {
	switch {
	case service == nil:
		panic("realtime: board service is required")
	case registry == nil:
		panic("realtime: presence registry is required")
	case clk == nil:
		panic("realtime: clock is required")
	case logger == nil:
		panic("realtime: logger is required")
	}
	return &Hub{
		board:    service,
		rooms:    service.Rooms(),
		presence: registry,
		clock:    clk,
		logger:   logger,
	}
}

// Connect registers a connection. A nil identity yields a connection
// that answers every event with "must be login"; transports should
// close it right away.
func (h *Hub) Connect(identity *presence.Identity) *Connection {
	done := make(chan struct{})
	connection := &Connection{
		id:         uuid.NewString(),
		hub:        h,
		subscriber: room.NewSubscriber(done),
		done:       done,
	}
	if identity != nil {
		copied := *identity
		connection.identity = &copied
		h.presence.Connect(connection.id, copied)
		h.logger.Info("connection opened",
			"connection_id", connection.id,
			"user_name", copied.UserName,
		)
	}
	return connection
}

// Connection is one client connection.
type Connection struct {
	id         string
	hub        *Hub
	identity   *presence.Identity
	subscriber *room.Subscriber
	done       chan struct{}

	mu           sync.Mutex
	subscription *room.Subscription
	closed       bool
}

// ID identifies the connection in logs and presence.
func (c *Connection) ID() string { return c.id }

// Events streams push events for the client.
func (c *Connection) Events() <-chan room.Event { return c.subscriber.Channel }

// Done is closed by Close.
func (c *Connection) Done() <-chan struct{} { return c.done }

// TakeResync reports whether events were dropped since the last call.
func (c *Connection) TakeResync() bool {
	return c.subscriber.Resync.Swap(false)
}

// ProjectID is the joined room, empty before a join.
func (c *Connection) ProjectID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subscription == nil {
		return ""
	}
	return c.subscription.ProjectID
}

func (c *Connection) actor() board.Actor {
	return board.Actor{UserID: c.identity.UserID, UserName: c.identity.UserName}
}

// Handle dispatches one inbound event and returns its
// acknowledgement.
func (c *Connection) Handle(ctx context.Context, event string, raw json.RawMessage) board.Ack {
	if c.identity == nil {
		return board.UserFailure("must be login")
	}
	if event == EventJoinProjectRoom {
		var request joinRequest
		if err := decode(raw, &request); err != nil {
			return board.UserFailure(err.Error())
		}
		return c.join(ctx, request.ProjectID)
	}

	handler, ok := handlers[event]
	if !ok {
		return board.UserFailure("unknown event: " + event)
	}
	projectID := c.ProjectID()
	if projectID == "" {
		return board.UserFailure("must be join project room")
	}
	return handler(ctx, c, projectID, raw)
}

// join moves the connection into projectID's room. Before the ack is
// returned the joiner has been sent the chat history and the list of
// other users in the room, and the room has been told about the join.
func (c *Connection) join(ctx context.Context, projectID string) board.Ack {
	exists, err := c.hub.board.ProjectExists(ctx, projectID)
	if err != nil {
		return c.hub.board.Failure(EventJoinProjectRoom, projectID, err)
	}
	if !exists {
		return board.UserFailure("invalid projectId: " + projectID)
	}

	userName := c.identity.UserName
	subscription := &room.Subscription{
		Subscriber: c.subscriber,
		ProjectID:  projectID,
		UserName:   userName,
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return board.UserFailure("connection closed")
	}
	previous := c.subscription
	c.subscription = subscription
	c.mu.Unlock()

	if previous != nil {
		c.hub.rooms.Unsubscribe(previous)
	}
	_, others, _ := c.hub.presence.Join(c.id, projectID)
	c.hub.rooms.Subscribe(subscription)

	history, err := c.hub.board.ChatHistory(ctx, projectID)
	if err != nil {
		c.hub.logger.Error("reading chat history failed",
			"project_id", projectID,
			"connection_id", c.id,
			"error", err,
		)
		c.hub.rooms.Send(subscription, room.EventChat, kanban.ChatEntry{
			Sender:    kanban.SenderSystem,
			Content:   chatHistoryFailureText,
			Type:      kanban.ChatTypeError,
			CreatedAt: c.hub.clock.Now(),
		})
	} else {
		c.hub.rooms.Send(subscription, EventChatHistory, history)
	}

	c.hub.rooms.Broadcast(projectID, EventJoinRoom, map[string]string{"username": userName})
	c.hub.rooms.Notify(ctx, projectID, userName, "joined room")
	c.hub.rooms.Send(subscription, EventInitJoinedUsers, map[string][]string{"joinedUserNames": others})

	c.hub.logger.Info("joined room",
		"project_id", projectID,
		"connection_id", c.id,
		"user_name", userName,
	)
	return board.Success("joined room", nil)
}

// Close ends the connection. If it had joined a room, the room is
// told the user left. Idempotent.
func (c *Connection) Close(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	subscription := c.subscription
	c.subscription = nil
	c.mu.Unlock()

	close(c.done)
	if c.identity == nil {
		return
	}
	c.hub.presence.Disconnect(c.id)
	if subscription != nil {
		c.hub.rooms.Unsubscribe(subscription)
		c.hub.rooms.Broadcast(subscription.ProjectID, EventLeaveRoom, map[string]string{"username": c.identity.UserName})
		c.hub.rooms.Notify(ctx, subscription.ProjectID, c.identity.UserName, "left room")
	}
	c.hub.logger.Info("connection closed",
		"connection_id", c.id,
		"user_name", c.identity.UserName,
	)
}

func decode(raw json.RawMessage, target any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("invalid request: %v", err)
	}
	return nil
}
