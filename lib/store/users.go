// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/kanban/lib/kanban"
)

// FindOrCreateUser returns the user with the login, creating it when
// absent. A non-empty avatarURL replaces the stored one.
func (s *Store) FindOrCreateUser(ctx context.Context, userName, avatarURL string) (user kanban.User, err error) {
	if userName == "" {
		return kanban.User{}, errors.New("store: user name is empty")
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return kanban.User{}, fmt.Errorf("store: find or create user: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return kanban.User{}, fmt.Errorf("store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	existing, found, err := queryUser(conn, `SELECT id, user_name, avatar_url FROM users WHERE user_name = ?`, userName)
	if err != nil {
		return kanban.User{}, err
	}
	if found {
		if avatarURL != "" && avatarURL != existing.AvatarURL {
			err = sqlitex.Execute(conn, `UPDATE users SET avatar_url = ? WHERE id = ?`,
				&sqlitex.ExecOptions{Args: []any{avatarURL, existing.ID}})
			if err != nil {
				return kanban.User{}, fmt.Errorf("store: updating avatar of %s: %w", userName, err)
			}
			existing.AvatarURL = avatarURL
		}
		return existing, nil
	}

	user = kanban.User{
		ID:        uuid.NewString(),
		UserName:  userName,
		AvatarURL: avatarURL,
	}
	err = sqlitex.Execute(conn,
		`INSERT INTO users (id, user_name, avatar_url, created_at) VALUES (?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{user.ID, user.UserName, user.AvatarURL, s.clock.Now().UnixNano()}})
	if err != nil {
		return kanban.User{}, fmt.Errorf("store: inserting user %s: %w", userName, err)
	}
	s.logger.Info("user created", "user_id", user.ID, "user_name", userName)
	return user, nil
}

// GetUser looks a user up by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (kanban.User, error) {
	return s.lookupUser(ctx, `SELECT id, user_name, avatar_url FROM users WHERE id = ?`, userID)
}

// FindUserByName looks a user up by login.
func (s *Store) FindUserByName(ctx context.Context, userName string) (kanban.User, error) {
	return s.lookupUser(ctx, `SELECT id, user_name, avatar_url FROM users WHERE user_name = ?`, userName)
}

func (s *Store) lookupUser(ctx context.Context, query, key string) (kanban.User, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return kanban.User{}, fmt.Errorf("store: lookup user: %w", err)
	}
	defer s.pool.Put(conn)

	user, found, err := queryUser(conn, query, key)
	if err != nil {
		return kanban.User{}, err
	}
	if !found {
		return kanban.User{}, fmt.Errorf("%w: %s", ErrUserNotFound, key)
	}
	return user, nil
}

func queryUser(conn *sqlite.Conn, query, key string) (user kanban.User, found bool, err error) {
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: []any{key},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			user = kanban.User{
				ID:        stmt.ColumnText(0),
				UserName:  stmt.ColumnText(1),
				AvatarURL: stmt.ColumnText(2),
			}
			found = true
			return nil
		},
	})
	if err != nil {
		return kanban.User{}, false, fmt.Errorf("store: querying user %s: %w", key, err)
	}
	return user, found, nil
}
