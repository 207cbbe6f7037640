// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/kanban/lib/kanban"
)

// AppendChat stores a chat or activity entry and returns it with its
// ID assigned. A zero CreatedAt is stamped with the store clock.
func (s *Store) AppendChat(ctx context.Context, entry kanban.ChatEntry) (kanban.ChatEntry, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.clock.Now().UTC()
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return kanban.ChatEntry{}, fmt.Errorf("store: append chat: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO chat_log (project_id, sender, content, type, created_at) VALUES (?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{
			entry.ProjectID, entry.Sender, entry.Content, entry.Type, entry.CreatedAt.UnixNano(),
		}})
	if err != nil {
		return kanban.ChatEntry{}, fmt.Errorf("store: appending chat for %s: %w", entry.ProjectID, err)
	}
	entry.ID = conn.LastInsertRowID()
	return entry, nil
}

// RecentChat returns up to limit entries of a project, newest first.
func (s *Store) RecentChat(ctx context.Context, projectID string, limit int) ([]kanban.ChatEntry, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: recent chat: %w", err)
	}
	defer s.pool.Put(conn)

	entries := []kanban.ChatEntry{}
	err = sqlitex.Execute(conn,
		`SELECT id, sender, content, type, created_at FROM chat_log
		 WHERE project_id = ? ORDER BY id DESC LIMIT ?`,
		&sqlitex.ExecOptions{
			Args: []any{projectID, limit},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				entries = append(entries, kanban.ChatEntry{
					ID:        stmt.ColumnInt64(0),
					ProjectID: projectID,
					Sender:    stmt.ColumnText(1),
					Content:   stmt.ColumnText(2),
					Type:      stmt.ColumnText(3),
					CreatedAt: time.Unix(0, stmt.ColumnInt64(4)).UTC(),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("store: reading chat for %s: %w", projectID, err)
	}
	return entries, nil
}
