// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package room

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/kanban/lib/clock"
	"github.com/bureau-foundation/kanban/lib/kanban"
)

// Outbound event names owned by this package.
const (
	EventChat = "chat"
)

// notifyFailureText is broadcast when an activity entry could not be
// persisted.
const notifyFailureText = "error: the server could not create system log."

// ChatLog persists activity entries. lib/store implements it.
type ChatLog interface {
	AppendChat(ctx context.Context, entry kanban.ChatEntry) (kanban.ChatEntry, error)
}

// Manager holds project rooms. Safe for concurrent use.
type Manager struct {
	chatLog ChatLog
	clock   clock.Clock
	logger  *slog.Logger

	mu    sync.Mutex
	rooms map[string][]*Subscription
}

// NewManager creates a room manager that records activity through
// chatLog.
func NewManager(chatLog ChatLog, clock clock.Clock, logger *slog.Logger) *Manager {
	if chatLog == nil {
		panic("room: chat log is required")
	}
	if logger == nil {
		panic("room: logger is required")
	}
	return &Manager{
		chatLog: chatLog,
		clock:   clock,
		logger:  logger,
		rooms:   make(map[string][]*Subscription),
	}
}

// Subscribe adds subscription to its project's room, creating the room
// if needed.
func (m *Manager) Subscribe(subscription *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[subscription.ProjectID] = append(m.rooms[subscription.ProjectID], subscription)
	m.logger.Debug("room subscriber added",
		"project_id", subscription.ProjectID,
		"user_name", subscription.UserName,
		"total", len(m.rooms[subscription.ProjectID]),
	)
}

// Unsubscribe removes subscription. The room is dropped when it becomes
// empty.
func (m *Manager) Unsubscribe(subscription *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()

	subscribers := m.rooms[subscription.ProjectID]
	for i, existing := range subscribers {
		if existing == subscription {
			subscribers = append(subscribers[:i], subscribers[i+1:]...)
			break
		}
	}
	if len(subscribers) == 0 {
		delete(m.rooms, subscription.ProjectID)
	} else {
		m.rooms[subscription.ProjectID] = subscribers
	}
}

// SubscriberCount returns the number of subscribers in a project's
// room.
func (m *Manager) SubscriberCount(projectID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms[projectID])
}

// Broadcast sends an event to every subscriber of projectID's room. The
// payload is encoded before the call returns, so later mutation of the
// payload's referents does not leak into the event.
func (m *Manager) Broadcast(projectID, name string, payload any) {
	event, ok := m.encode(projectID, name, payload)
	if !ok {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	subscribers := m.rooms[projectID]
	if len(subscribers) == 0 {
		return
	}
	// Reverse iteration so removals don't shift unvisited elements.
	for i := len(subscribers) - 1; i >= 0; i-- {
		if !trySend(subscribers[i].Subscriber, event) {
			subscribers = append(subscribers[:i], subscribers[i+1:]...)
		}
	}
	if len(subscribers) == 0 {
		delete(m.rooms, projectID)
	} else {
		m.rooms[projectID] = subscribers
	}
}

// Send delivers an event to one subscriber. It goes through the manager
// lock so it is ordered with broadcasts to the same room.
func (m *Manager) Send(subscription *Subscription, name string, payload any) {
	event, ok := m.encode(subscription.ProjectID, name, payload)
	if !ok {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	trySend(subscription.Subscriber, event)
}

// Notify records "actor" text in the project's activity log and
// broadcasts the entry as a chat event. It never fails: if the entry
// cannot be persisted the room receives an error chat line.
func (m *Manager) Notify(ctx context.Context, projectID, actor, text string) {
	entry := kanban.ChatEntry{
		ProjectID: projectID,
		Sender:    kanban.SenderSystem,
		Content:   `"` + actor + `" ` + text,
		Type:      kanban.ChatTypeSystem,
		CreatedAt: m.clock.Now(),
	}
	saved, err := m.chatLog.AppendChat(ctx, entry)
	if err != nil {
		m.logger.Error("persisting activity entry failed",
			"project_id", projectID,
			"actor", actor,
			"error", err,
		)
		m.Broadcast(projectID, EventChat, kanban.ChatEntry{
			Sender:    kanban.SenderSystem,
			Content:   notifyFailureText,
			Type:      kanban.ChatTypeError,
			CreatedAt: m.clock.Now(),
		})
		return
	}
	m.Broadcast(projectID, EventChat, saved)
}

func (m *Manager) encode(projectID, name string, payload any) (Event, bool) {
	data, err := json.Marshal(payload)
	if err != nil {
		m.logger.Error("encoding room event failed",
			"project_id", projectID,
			"event", name,
			"error", err,
		)
		return Event{}, false
	}
	return Event{Name: name, Data: data}, true
}
