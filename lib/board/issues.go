// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/kanban/lib/kanban"
	"github.com/bureau-foundation/kanban/lib/tracker"
)

// AddIssue creates an issue. On a mirroring project a user's issue is
// only created on GitHub; it reaches the board through the tracker's
// opened webhook. A tracker number that is already on the board
// returns kanban.ErrIssueExists and changes nothing.
func (t *Txn) AddIssue(params kanban.AddIssueParams) (Ack, error) {
	if t.mirrors() {
		remote, err := t.Tracker()
		if err != nil {
			return Ack{}, err
		}
		number, err := remote.CreateIssue(t.ctx, params.Title, params.Body, params.Labels)
		if err != nil {
			return Ack{}, fmt.Errorf("board: creating tracker issue: %w", err)
		}
		t.service.logger.Info("issue created on tracker",
			"project_id", t.project.ID,
			"tracker_number", number,
		)
		t.notify("added issue via GitHub: " + params.Title)
		return Success("added issue", nil), nil
	}

	bodyHTML, err := t.render(params.Body)
	if err != nil {
		return Ack{}, err
	}
	params.BodyHTML = bodyHTML
	issue, err := t.project.AddIssue(params)
	if err != nil {
		return Ack{}, err
	}

	t.broadcast("add-issue", map[string]any{"issue": issue})
	t.notify("added issue: " + issue.Title)
	return Success("added issue", map[string]any{"issue": issue}), nil
}

// RemoveIssue deletes an issue. A user removing a linked issue on a
// mirroring project closes it on GitHub instead; the closed webhook
// then moves it to done.
func (t *Txn) RemoveIssue(issueID string) (Ack, error) {
	existing := t.project.FindIssue(issueID)
	if existing == nil {
		return Ack{}, kanban.UserErrorf("issue not found: %s", issueID)
	}

	if t.mirrors() && existing.TrackerNumber != 0 {
		remote, err := t.Tracker()
		if err != nil {
			return Ack{}, err
		}
		if err := remote.SetIssueClosed(t.ctx, existing.TrackerNumber, true); err != nil {
			return Ack{}, fmt.Errorf("board: closing tracker issue #%d: %w", existing.TrackerNumber, err)
		}
		t.notify("removed issue via GitHub: " + existing.Title)
		return Success("removed issue", nil), nil
	}

	issue, err := t.project.RemoveIssue(issueID)
	if err != nil {
		return Ack{}, err
	}
	t.broadcast("remove-issue", map[string]any{"issue": issue})
	t.notify("removed issue: " + issue.Title)
	return Success("removed issue", map[string]any{"issue": issue}), nil
}

// UpdateStage moves an issue and changes its assignee in one step.
// When a user's move crosses between open and closed stages on a
// mirroring project, the GitHub issue is closed or reopened after the
// local change is saved.
func (t *Txn) UpdateStage(issueID string, stage kanban.Stage, assignment kanban.Assignment) (Ack, error) {
	var wasClosed bool
	if existing := t.project.FindIssue(issueID); existing != nil {
		wasClosed = existing.Stage.Closed()
	}
	issue, err := t.project.UpdateStage(issueID, stage, assignment)
	if err != nil {
		return Ack{}, err
	}

	if t.mirrors() && issue.TrackerNumber != 0 && wasClosed != stage.Closed() {
		number, closed := issue.TrackerNumber, stage.Closed()
		t.mirrorAfterCommit("update-stage", func(ctx context.Context, remote tracker.Tracker) error {
			return remote.SetIssueClosed(ctx, number, closed)
		})
	}

	var assigneeName any
	if issue.AssigneeID != "" {
		assigneeName = t.UserName(issue.AssigneeID)
	}
	t.broadcast("update-stage", map[string]any{
		"issue":    issue,
		"issueId":  issueID,
		"toStage":  stage,
		"assignee": nullable(issue.AssigneeID),
	})
	t.notify("updated issue stage and assignee: " + jsonText(struct {
		Title    string       `json:"title"`
		Stage    kanban.Stage `json:"stage"`
		Assignee any          `json:"assignee"`
	}{issue.Title, stage, assigneeName}))
	return Success("updated stage", map[string]any{"issue": issue}), nil
}

func (t *Txn) UpdateIssueDetail(issueID, title, body string, cost int) (Ack, error) {
	bodyHTML, err := t.render(body)
	if err != nil {
		return Ack{}, err
	}
	issue, err := t.project.UpdateIssueDetail(issueID, title, body, bodyHTML, cost)
	if err != nil {
		return Ack{}, err
	}
	t.broadcast("update-issue-detail", map[string]any{"issue": issue, "issueId": issueID})
	t.notify("updated issue detail: " + jsonText(struct {
		Title string `json:"title"`
		Body  string `json:"body"`
		Cost  int    `json:"cost"`
	}{title, body, cost}))
	return Success("updated issue detail", map[string]any{"issue": issue}), nil
}

// UpdateIssueWorkingState starts or stops the actor's work on an
// issue.
func (t *Txn) UpdateIssueWorkingState(issueID string, isWorking bool) (Ack, error) {
	issue, err := t.project.UpdateIssueWorkingState(issueID, isWorking, t.actor.UserID, t.service.clock.Now())
	if err != nil {
		return Ack{}, err
	}
	t.broadcast("update-issue-working-state", map[string]any{
		"issue":     issue,
		"issueId":   issueID,
		"isWorking": isWorking,
	})
	if isWorking {
		t.notify("start to work: " + issue.Title)
	} else {
		t.notify("stop to work: " + issue.Title)
	}
	return Success("update issue working status", map[string]any{"issue": issue, "isWorking": isWorking}), nil
}

func (t *Txn) UpdateIssueWorkHistory(issueID string, history []kanban.WorkPeriod) (Ack, error) {
	issue, err := t.project.UpdateIssueWorkHistory(issueID, history)
	if err != nil {
		return Ack{}, err
	}
	t.broadcast("update-issue-work-history", map[string]any{"issue": issue, "workHistory": issue.WorkHistory})
	t.notify("updated work history: " + issue.Title)
	return Success("update issue work history", map[string]any{"issue": issue, "workHistory": issue.WorkHistory}), nil
}

func (t *Txn) UpdateIssuePriority(issueID, insertBeforeID string) (Ack, error) {
	issue, err := t.project.UpdateIssuePriority(issueID, insertBeforeID)
	if err != nil {
		return Ack{}, err
	}
	before := insertBeforeID
	if target := t.project.FindIssue(insertBeforeID); target != nil {
		before = target.Title
	}
	t.broadcast("update-issue-priority", map[string]any{
		"issue":                 issue,
		"issueId":               issueID,
		"insertBeforeOfIssueId": insertBeforeID,
	})
	t.notify(`updated issue priority: inserted "`+issue.Title+`" before "`+before+`"`)
	return Success("updated issue priority", map[string]any{
		"issue":                 issue,
		"insertBeforeOfIssueId": insertBeforeID,
	}), nil
}
