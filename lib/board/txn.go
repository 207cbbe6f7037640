// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bureau-foundation/kanban/lib/kanban"
	"github.com/bureau-foundation/kanban/lib/tracker"
)

// Txn is one holder of a project's slot. Its operations mutate the
// loaded project and queue their broadcasts and activity lines; the
// Service emits those after the project is saved.
//
// A Txn is only valid inside the function passed to Service.Locked.
type Txn struct {
	ctx     context.Context
	service *Service
	actor   Actor
	project *kanban.Project

	tracker      tracker.Tracker
	trackerError error
	resolved     bool

	after []func(context.Context)
}

// Project is the loaded project document. Changes made through it are
// saved when the Txn commits.
func (t *Txn) Project() *kanban.Project {
	return t.project
}

// Actor is who the Txn acts for.
func (t *Txn) Actor() Actor {
	return t.actor
}

// Tracker resolves the project's GitHub repository once per Txn.
// Returns tracker.ErrNotLinked when the project has none or the
// service has no tracker source.
func (t *Txn) Tracker() (tracker.Tracker, error) {
	if !t.resolved {
		t.resolved = true
		if t.service.trackers == nil {
			t.trackerError = tracker.ErrNotLinked
		} else {
			t.tracker, t.trackerError = t.service.trackers.ForProject(t.ctx, t.project)
		}
	}
	return t.tracker, t.trackerError
}

// FindOrCreateUser returns the global user with the login.
func (t *Txn) FindOrCreateUser(userName string) (kanban.User, error) {
	return t.service.store.FindOrCreateUser(t.ctx, userName, "")
}

// UserName resolves a user ID to its login, preferring the project's
// members. It returns the ID itself when the user is unknown.
func (t *Txn) UserName(userID string) string {
	if member := t.project.FindMemberByID(userID); member != nil {
		return member.UserName
	}
	user, err := t.service.store.GetUser(t.ctx, userID)
	if err != nil {
		return userID
	}
	return user.UserName
}

// mirrors reports whether this Txn's changes are pushed to GitHub.
func (t *Txn) mirrors() bool {
	return !t.actor.FromTracker && t.service.trackers != nil && t.project.Tracker.Mirrors()
}

func (t *Txn) broadcast(name string, payload any) {
	projectID := t.project.ID
	t.after = append(t.after, func(context.Context) {
		t.service.rooms.Broadcast(projectID, name, payload)
	})
}

func (t *Txn) notify(text string) {
	projectID := t.project.ID
	actor := t.actor.UserName
	t.after = append(t.after, func(ctx context.Context) {
		t.service.rooms.Notify(ctx, projectID, actor, text)
	})
}

// mirrorAfterCommit pushes a change to GitHub once the local change is
// saved. A failure is logged and does not affect the operation.
func (t *Txn) mirrorAfterCommit(description string, push func(context.Context, tracker.Tracker) error) {
	remote, err := t.Tracker()
	if err != nil {
		if !errors.Is(err, tracker.ErrNotLinked) {
			t.service.logger.Warn("tracker unavailable, change not mirrored",
				"project_id", t.project.ID,
				"change", description,
				"error", err,
			)
		}
		return
	}
	projectID := t.project.ID
	t.after = append(t.after, func(ctx context.Context) {
		if err := push(ctx, remote); err != nil {
			t.service.logger.Warn("mirroring change to tracker failed",
				"project_id", projectID,
				"change", description,
				"error", err,
			)
		}
	})
}

func (t *Txn) commit() error {
	changed, err := t.service.store.SaveProject(t.ctx, t.project)
	if err != nil {
		return err
	}
	if changed {
		t.service.logger.Debug("project saved",
			"project_id", t.project.ID,
			"actor", t.actor.UserName,
		)
	}
	for _, effect := range t.after {
		effect(t.ctx)
	}
	return nil
}

func (t *Txn) render(body string) (string, error) {
	html, err := t.service.markdown.Render(body)
	if err != nil {
		return "", fmt.Errorf("board: %w", err)
	}
	return html, nil
}

// jsonText renders v for activity lines. The values are plain structs
// and maps of strings and numbers, which always encode.
func jsonText(v any) string {
	data, _ := json.Marshal(v)
	return string(data)
}

// nullable maps an empty ID to JSON null.
func nullable(id string) any {
	if id == "" {
		return nil
	}
	return id
}
