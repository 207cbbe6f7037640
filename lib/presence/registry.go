// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package presence tracks which realtime connections are open, who is
// behind each one, and which project room each has joined.
//
// A connection moves through connected, authenticated, room-joined and
// disconnected. Connections that fail authentication are closed by the
// transport before they are ever registered, so every registered
// connection has an identity. Joining a room leaves the previous one:
// a connection is in at most one room.
//
// Presence is not deduplicated. A user with two tabs open is two
// connections and appears twice in [Registry.ActiveUserNames].
package presence

import (
	"slices"
	"sync"
)

// Identity is the authenticated user behind a connection.
type Identity struct {
	UserID   string
	UserName string
}

// Connection is the registry's view of one connection.
type Connection struct {
	ID        string
	Identity  Identity
	ProjectID string
}

// Registry is owned by the transport and shared by its connections.
// Safe for concurrent use.
type Registry struct {
	mu sync.Mutex
	// order preserves connection order for presence lists.
	order       []string
	connections map[string]*Connection
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{connections: make(map[string]*Connection)}
}

// Connect registers an authenticated connection. Registering an ID
// twice replaces the identity and clears the room.
func (r *Registry) Connect(connectionID string, identity Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.connections[connectionID]; !exists {
		r.order = append(r.order, connectionID)
	}
	r.connections[connectionID] = &Connection{ID: connectionID, Identity: identity}
}

// Join moves a connection into projectID's room. It returns the room
// the connection left (empty if none) and the user names of the other
// connections in the new room, in connection order. Only one instance
// of the joiner's own name is removed from that list, so a user's other
// connections still show up. ok is false for an unknown connection.
func (r *Registry) Join(connectionID, projectID string) (previousProjectID string, others []string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	connection, exists := r.connections[connectionID]
	if !exists {
		return "", nil, false
	}
	previousProjectID = connection.ProjectID
	connection.ProjectID = projectID

	names := r.activeUserNamesLocked(projectID)
	if index := slices.Index(names, connection.Identity.UserName); index >= 0 {
		names = slices.Delete(names, index, index+1)
	}
	return previousProjectID, names, true
}

// Leave takes a connection out of its room and returns the room it
// left.
func (r *Registry) Leave(connectionID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	connection, exists := r.connections[connectionID]
	if !exists {
		return ""
	}
	previous := connection.ProjectID
	connection.ProjectID = ""
	return previous
}

// Disconnect removes a connection and returns its final state.
func (r *Registry) Disconnect(connectionID string) (Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	connection, exists := r.connections[connectionID]
	if !exists {
		return Connection{}, false
	}
	delete(r.connections, connectionID)
	if index := slices.Index(r.order, connectionID); index >= 0 {
		r.order = slices.Delete(r.order, index, index+1)
	}
	return *connection, true
}

// Get returns a connection's current state.
func (r *Registry) Get(connectionID string) (Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	connection, exists := r.connections[connectionID]
	if !exists {
		return Connection{}, false
	}
	return *connection, true
}

// ActiveUserNames lists the user name of every connection in
// projectID's room, in connection order, duplicates included.
func (r *Registry) ActiveUserNames(projectID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeUserNamesLocked(projectID)
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.connections)
}

func (r *Registry) activeUserNamesLocked(projectID string) []string {
	names := []string{}
	for _, connectionID := range r.order {
		connection := r.connections[connectionID]
		if connection.ProjectID == projectID && projectID != "" {
			names = append(names, connection.Identity.UserName)
		}
	}
	return names
}
