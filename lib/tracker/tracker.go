// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"context"
	"errors"

	"github.com/bureau-foundation/kanban/lib/kanban"
)

// ErrNotLinked is returned by Source.ForProject when the project has
// no repository or no token for it.
var ErrNotLinked = errors.New("tracker: project is not linked to a repository")

// RemoteIssue is the subset of a tracker issue reconciliation uses.
type RemoteIssue struct {
	Number   int
	Title    string
	Body     string
	Closed   bool
	Labels   []string
	Assignee string
}

// Tracker is one linked repository.
type Tracker interface {
	// CreateIssue opens a remote issue and returns its number.
	CreateIssue(ctx context.Context, title, body string, labels []string) (int, error)

	// SetIssueClosed closes or reopens a remote issue.
	SetIssueClosed(ctx context.Context, number int, closed bool) error

	// SetIssueLabels replaces the labels of a remote issue.
	SetIssueLabels(ctx context.Context, number int, labels []string) error

	// ListLabels returns every repository label in tracker order.
	ListLabels(ctx context.Context) ([]kanban.Label, error)

	// ListIssues returns every issue, open and closed. Pull requests
	// are excluded.
	ListIssues(ctx context.Context) ([]RemoteIssue, error)

	// AvatarURL returns the avatar of a tracker user.
	AvatarURL(ctx context.Context, login string) (string, error)
}

// Source resolves the tracker of a project.
type Source interface {
	// ForProject returns the project's tracker, or ErrNotLinked.
	ForProject(ctx context.Context, project *kanban.Project) (Tracker, error)
}
