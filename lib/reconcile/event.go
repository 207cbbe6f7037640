// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"github.com/bureau-foundation/kanban/lib/kanban"
	"github.com/bureau-foundation/kanban/lib/tracker"
)

// Kind is a tracker event.
type Kind string

const (
	KindOpened     Kind = "issue-opened"
	KindClosed     Kind = "issue-closed"
	KindReopened   Kind = "issue-reopened"
	KindAssigned   Kind = "issue-assigned"
	KindUnassigned Kind = "issue-unassigned"
	KindLabeled    Kind = "issue-labeled"
	KindUnlabeled  Kind = "issue-unlabeled"
)

// KindForAction maps a GitHub "issues" webhook action to a Kind.
func KindForAction(action string) (Kind, bool) {
	switch action {
	case "opened":
		return KindOpened, true
	case "closed":
		return KindClosed, true
	case "reopened":
		return KindReopened, true
	case "assigned":
		return KindAssigned, true
	case "unassigned":
		return KindUnassigned, true
	case "labeled":
		return KindLabeled, true
	case "unlabeled":
		return KindUnlabeled, true
	default:
		return "", false
	}
}

func (k Kind) isLabel() bool {
	return k == KindLabeled || k == KindUnlabeled
}

// Event is one tracker event for a project.
type Event struct {
	Kind      Kind
	ProjectID string

	// Number is the GitHub issue number, the idempotency key.
	Number int

	// Issue is the issue as the tracker sent it with the event.
	Issue tracker.RemoteIssue

	// Assignee is the login an assigned event names.
	Assignee string

	// Label is the label a labeled or unlabeled event names.
	Label *kanban.Label
}
