// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package github

import "time"

// Issue states.
const (
	StateOpen   = "open"
	StateClosed = "closed"
)

// User is an account reference: issue author, assignee or webhook
// sender.
type User struct {
	Login     string `json:"login"`
	ID        int64  `json:"id,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Label is an issue label. Color is six hex digits without "#".
type Label struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Issue is the subset of an issue the board mirrors. The same shape
// appears in REST answers and in "issues" webhook payloads.
type Issue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	State     string    `json:"state"`
	HTMLURL   string    `json:"html_url,omitempty"`
	Labels    []Label   `json:"labels"`
	Assignee  *User     `json:"assignee"`
	UpdatedAt time.Time `json:"updated_at"`

	// PullRequest is set when the issue is a pull request.
	PullRequest *struct {
		URL string `json:"url"`
	} `json:"pull_request,omitempty"`
}

// IsPullRequest reports whether the issue is a pull request.
func (issue *Issue) IsPullRequest() bool {
	return issue.PullRequest != nil
}

// LabelNames returns the label names in order.
func (issue *Issue) LabelNames() []string {
	names := make([]string, len(issue.Labels))
	for i, label := range issue.Labels {
		names[i] = label.Name
	}
	return names
}

// Webhook is a repository webhook, both as listed and as created.
type Webhook struct {
	ID     int64         `json:"id,omitempty"`
	Name   string        `json:"name,omitempty"`
	Active bool          `json:"active"`
	Events []string      `json:"events"`
	Config WebhookConfig `json:"config"`
}

// WebhookConfig is the delivery configuration of a Webhook. GitHub
// masks Secret in answers.
type WebhookConfig struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Secret      string `json:"secret,omitempty"`
}
