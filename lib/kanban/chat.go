// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kanban

import "time"

// SenderSystem is the sender of activity entries generated by
// mutations.
const SenderSystem = "System"

// Chat entry types.
const (
	ChatTypeSystem = "system"
	ChatTypeChat   = "chat"
	ChatTypeError  = "error"
)

// ChatEntry is one line of a project's append-only activity log: either
// a user's chat message or a system notice describing a mutation.
type ChatEntry struct {
	ID        int64     `json:"id,omitempty"`
	ProjectID string    `json:"projectId,omitempty"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}
