// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"errors"
	"fmt"
	"slices"

	"github.com/bureau-foundation/kanban/lib/kanban"
	"github.com/bureau-foundation/kanban/lib/tracker"
)

// AttachLabel attaches a defined label to an issue. Attaching a label
// the issue already has succeeds without change or broadcast.
//
// A user's change to a linked issue on a mirroring project is applied
// locally and written to GitHub before the slot is released, so the
// labeled webhook that follows finds nothing to do. If GitHub rejects
// the change the local one is discarded too.
func (t *Txn) AttachLabel(issueID, labelName string) (Ack, error) {
	issue, label, changed, err := t.project.AttachLabel(issueID, labelName)
	if err != nil {
		return Ack{}, err
	}
	return t.labelChanged("attach-label", "attached label", issue, label, changed)
}

// DetachLabel removes a label from an issue, with the same rules as
// AttachLabel.
func (t *Txn) DetachLabel(issueID, labelName string) (Ack, error) {
	issue, label, changed, err := t.project.DetachLabel(issueID, labelName)
	if err != nil {
		return Ack{}, err
	}
	return t.labelChanged("detach-label", "detached label", issue, label, changed)
}

func (t *Txn) labelChanged(event, verb string, issue kanban.Issue, label kanban.Label, changed bool) (Ack, error) {
	extra := map[string]any{"issue": issue, "label": label}
	if !changed {
		return Success(verb, extra), nil
	}

	text := verb + ": "
	if t.mirrors() && issue.TrackerNumber != 0 {
		remote, err := t.Tracker()
		if err != nil {
			return Ack{}, err
		}
		if err := remote.SetIssueLabels(t.ctx, issue.TrackerNumber, slices.Clone(issue.Labels)); err != nil {
			return Ack{}, fmt.Errorf("board: setting labels of tracker issue #%d: %w", issue.TrackerNumber, err)
		}
		text = verb + " via GitHub: "
	}

	t.broadcast(event, map[string]any{"issue": issue, "issueId": issue.ID, "label": label})
	t.notify(text + jsonText(struct {
		Title string `json:"title"`
		Label string `json:"label"`
	}{issue.Title, label.Name}))
	return Success(verb, extra), nil
}

// SyncLabelAll replaces the project's labels with the repository's,
// in repository order, and overwrites the labels of every linked issue
// with the ones it carries on GitHub.
func (t *Txn) SyncLabelAll() (Ack, error) {
	remote, err := t.Tracker()
	if errors.Is(err, tracker.ErrNotLinked) {
		return Ack{}, kanban.UserErrorf("project is not linked to a repository")
	}
	if err != nil {
		return Ack{}, err
	}
	labels, err := remote.ListLabels(t.ctx)
	if err != nil {
		return Ack{}, fmt.Errorf("board: listing tracker labels: %w", err)
	}
	issues, err := remote.ListIssues(t.ctx)
	if err != nil {
		return Ack{}, fmt.Errorf("board: listing tracker issues: %w", err)
	}

	t.project.ReplaceLabels(labels)
	updated := 0
	for _, issue := range issues {
		if t.project.SetIssueLabelsByNumber(issue.Number, issue.Labels) {
			updated++
		}
	}
	t.service.logger.Info("labels synchronized from tracker",
		"project_id", t.project.ID,
		"labels", len(labels),
		"issues", updated,
	)

	t.broadcast("sync-label-all", map[string]any{"project": t.project})
	t.notify("synchronized all labels. *** Please update this page. ***")
	return Success("done to sync label all", map[string]any{"project": t.project}), nil
}
