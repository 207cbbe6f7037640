// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Repository addresses one repository through a Client.
type Repository struct {
	client *Client
	Owner  string
	Name   string
}

// Repository returns a handle on owner/name. No request is made.
func (c *Client) Repository(owner, name string) *Repository {
	return &Repository{client: c, Owner: owner, Name: name}
}

func (r *Repository) String() string {
	return r.Owner + "/" + r.Name
}

func (r *Repository) path(suffix string) string {
	return "/repos/" + url.PathEscape(r.Owner) + "/" + url.PathEscape(r.Name) + suffix
}

// NewIssue is the body of an issue creation.
type NewIssue struct {
	Title  string   `json:"title"`
	Body   string   `json:"body,omitempty"`
	Labels []string `json:"labels,omitempty"`
}

// CreateIssue opens an issue and returns it as GitHub stored it.
func (r *Repository) CreateIssue(ctx context.Context, issue NewIssue) (*Issue, error) {
	var created Issue
	if err := r.client.do(ctx, http.MethodPost, r.path("/issues"), issue, &created); err != nil {
		return nil, fmt.Errorf("creating issue in %s: %w", r, err)
	}
	return &created, nil
}

// SetIssueClosed closes or reopens an issue.
func (r *Repository) SetIssueClosed(ctx context.Context, number int, closed bool) error {
	state := StateOpen
	if closed {
		state = StateClosed
	}
	request := map[string]string{"state": state}
	if err := r.client.do(ctx, http.MethodPatch, r.path(fmt.Sprintf("/issues/%d", number)), request, nil); err != nil {
		return fmt.Errorf("setting %s#%d %s: %w", r, number, state, err)
	}
	return nil
}

// ReplaceIssueLabels sets the label list of an issue. A nil or empty
// names removes every label.
func (r *Repository) ReplaceIssueLabels(ctx context.Context, number int, names []string) error {
	if names == nil {
		names = []string{}
	}
	request := map[string][]string{"labels": names}
	if err := r.client.do(ctx, http.MethodPut, r.path(fmt.Sprintf("/issues/%d/labels", number)), request, nil); err != nil {
		return fmt.Errorf("setting labels of %s#%d: %w", r, number, err)
	}
	return nil
}

// Labels lists every label of the repository in GitHub's order.
func (r *Repository) Labels(ctx context.Context) ([]Label, error) {
	labels, err := collect[Label](ctx, r.client, r.path("/labels"), url.Values{"per_page": {pageSize}})
	if err != nil {
		return nil, fmt.Errorf("listing labels of %s: %w", r, err)
	}
	return labels, nil
}

// Issues lists issues in state "open", "closed" or "all". Pull
// requests, which the issues endpoint also returns, are dropped.
func (r *Repository) Issues(ctx context.Context, state string) ([]Issue, error) {
	query := url.Values{"state": {state}, "per_page": {pageSize}}
	all, err := collect[Issue](ctx, r.client, r.path("/issues"), query)
	if err != nil {
		return nil, fmt.Errorf("listing issues of %s: %w", r, err)
	}
	issues := all[:0]
	for _, issue := range all {
		if !issue.IsPullRequest() {
			issues = append(issues, issue)
		}
	}
	return issues, nil
}

// FindHook returns the webhook delivering to target, or nil.
func (r *Repository) FindHook(ctx context.Context, target string) (*Webhook, error) {
	hooks, err := collect[Webhook](ctx, r.client, r.path("/hooks"), nil)
	if err != nil {
		return nil, fmt.Errorf("listing webhooks of %s: %w", r, err)
	}
	for i := range hooks {
		if hooks[i].Config.URL == target {
			return &hooks[i], nil
		}
	}
	return nil, nil
}

// CreateHook installs an active JSON webhook delivering events to
// target, signed with secret when it is non-empty.
func (r *Repository) CreateHook(ctx context.Context, target, secret string, events []string) (*Webhook, error) {
	request := Webhook{
		Name:   "web",
		Active: true,
		Events: events,
		Config: WebhookConfig{URL: target, ContentType: "json", Secret: secret},
	}
	var created Webhook
	if err := r.client.do(ctx, http.MethodPost, r.path("/hooks"), request, &created); err != nil {
		return nil, fmt.Errorf("creating webhook on %s: %w", r, err)
	}
	return &created, nil
}

// User fetches a user profile by login.
func (c *Client) User(ctx context.Context, login string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(login), nil, &user); err != nil {
		return nil, fmt.Errorf("getting user %s: %w", login, err)
	}
	return &user, nil
}
