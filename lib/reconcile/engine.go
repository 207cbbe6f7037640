// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bureau-foundation/kanban/lib/board"
	"github.com/bureau-foundation/kanban/lib/kanban"
)

// Engine applies tracker events to projects.
type Engine struct {
	board  *board.Service
	logger *slog.Logger
}

// New creates an Engine that mutates through service.
func New(service *board.Service, logger *slog.Logger) *Engine {
	if service == nil {
		panic("reconcile: board service is required")
	}
	if logger == nil {
		panic("reconcile: logger is required")
	}
	return &Engine{board: service, logger: logger}
}

// Apply decides and performs the mutation for event while holding the
// project's slot.
func (e *Engine) Apply(ctx context.Context, event Event) Outcome {
	var outcome Outcome
	err := e.board.Locked(ctx, board.TrackerActor, event.ProjectID, func(txn *board.Txn) error {
		var err error
		outcome, err = e.decide(txn, event)
		return err
	})
	if err != nil {
		return failed(e.board.Failure(string(event.Kind), event.ProjectID, err))
	}

	e.logger.Info("tracker event reconciled",
		"project_id", event.ProjectID,
		"event_type", string(event.Kind),
		"tracker_number", event.Number,
		"changed", outcome.Changed(),
		"message", outcome.Message,
	)
	return outcome
}

func (e *Engine) decide(txn *board.Txn, event Event) (Outcome, error) {
	issue := txn.Project().FindIssueByNumber(event.Number)
	if issue == nil {
		if event.Kind.isLabel() {
			if event.Label != nil && !txn.Project().LabelMatches(*event.Label) {
				return e.resync(txn)
			}
			return unchanged(), nil
		}
		return e.opened(txn, event)
	}

	switch event.Kind {
	case KindOpened:
		return e.opened(txn, event)

	case KindClosed:
		if issue.Stage.Closed() {
			return unchanged(), nil
		}
		return appliedOrError(txn.UpdateStage(issue.ID, kanban.StageDone, kanban.KeepAssignee()))

	case KindReopened:
		if !issue.Stage.Closed() {
			return unchanged(), nil
		}
		return appliedOrError(txn.UpdateStage(issue.ID, kanban.StageIssue, kanban.KeepAssignee()))

	case KindAssigned:
		if event.Assignee == "" {
			return Outcome{}, kanban.UserErrorf("assigned event without assignee")
		}
		if issue.AssigneeID != "" && txn.UserName(issue.AssigneeID) == event.Assignee {
			return reported(MessageAlreadyAssigned), nil
		}
		user, err := txn.FindOrCreateUser(event.Assignee)
		if err != nil {
			return Outcome{}, err
		}
		return appliedOrError(txn.UpdateStage(issue.ID, kanban.StageTodo, kanban.AssignTo(user.ID)))

	case KindUnassigned:
		if issue.AssigneeID == "" {
			return unchanged(), nil
		}
		return appliedOrError(txn.UpdateStage(issue.ID, kanban.StageBacklog, kanban.Unassign()))

	case KindLabeled, KindUnlabeled:
		if event.Label == nil {
			return Outcome{}, kanban.UserErrorf("%s event without label", event.Kind)
		}
		if !txn.Project().LabelMatches(*event.Label) {
			return e.resync(txn)
		}
		attached := issue.HasLabel(event.Label.Name)
		if event.Kind == KindLabeled {
			if attached {
				return unchanged(), nil
			}
			return appliedOrError(txn.AttachLabel(issue.ID, event.Label.Name))
		}
		if !attached {
			return unchanged(), nil
		}
		return appliedOrError(txn.DetachLabel(issue.ID, event.Label.Name))

	default:
		return Outcome{}, kanban.UserErrorf("unknown event kind: %s", event.Kind)
	}
}

// opened creates the issue from the event payload. A duplicate
// delivery is reported without change.
func (e *Engine) opened(txn *board.Txn, event Event) (Outcome, error) {
	params := kanban.AddIssueParams{
		Title:         event.Issue.Title,
		Body:          event.Issue.Body,
		Stage:         kanban.StageBacklog,
		Labels:        event.Issue.Labels,
		TrackerNumber: event.Number,
	}
	if event.Issue.Assignee != "" {
		user, err := txn.FindOrCreateUser(event.Issue.Assignee)
		if err != nil {
			return Outcome{}, err
		}
		params.AssigneeID = user.ID
		params.Stage = kanban.StageTodo
	}
	if event.Issue.Closed {
		params.Stage = kanban.StageDone
	}

	ack, err := txn.AddIssue(params)
	if errors.Is(err, kanban.ErrIssueExists) {
		return reported(err.Error()), nil
	}
	if err != nil {
		return Outcome{}, err
	}
	return applied(ack), nil
}

func (e *Engine) resync(txn *board.Txn) (Outcome, error) {
	e.logger.Info("label mismatch, synchronizing all labels",
		"project_id", txn.Project().ID,
	)
	ack, err := txn.SyncLabelAll()
	if err != nil {
		return Outcome{}, err
	}
	return resynced(ack), nil
}

func appliedOrError(ack board.Ack, err error) (Outcome, error) {
	if err != nil {
		return Outcome{}, err
	}
	return applied(ack), nil
}
