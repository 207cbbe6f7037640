// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import "github.com/bureau-foundation/kanban/lib/github"

// GitHub webhook payload types. Only the fields the reconciler reads
// are decoded; the issue object has the same shape as the REST API's,
// so it reuses github.Issue.

// ghRepository is the repository the delivery came from.
type ghRepository struct {
	FullName string `json:"full_name"` // "owner/repo"
}

// ghIssuesPayload is the webhook payload for an "issues" event.
type ghIssuesPayload struct {
	Action     string       `json:"action"` // opened, closed, reopened, assigned, unassigned, labeled, unlabeled, ...
	Issue      github.Issue `json:"issue"`
	Repository ghRepository `json:"repository"`
	Sender     github.User  `json:"sender"`

	// Assignee is set for assigned and unassigned actions.
	Assignee *github.User `json:"assignee,omitempty"`

	// Label is set for labeled and unlabeled actions.
	Label *github.Label `json:"label,omitempty"`
}

// ghActionPayload reads only the action of a delivery whose event
// type is not routed, for the error message.
type ghActionPayload struct {
	Action string `json:"action"`
}
