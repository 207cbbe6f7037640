// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package realtime

import (
	"context"
	"encoding/json"

	"github.com/bureau-foundation/kanban/lib/board"
	"github.com/bureau-foundation/kanban/lib/kanban"
)

type handler func(ctx context.Context, c *Connection, projectID string, raw json.RawMessage) board.Ack

// handle decodes the request for an operation and runs it.
func handle[Request any](run func(ctx context.Context, c *Connection, projectID string, request Request) board.Ack) handler {
	return func(ctx context.Context, c *Connection, projectID string, raw json.RawMessage) board.Ack {
		var request Request
		if err := decode(raw, &request); err != nil {
			return board.UserFailure(err.Error())
		}
		return run(ctx, c, projectID, request)
	}
}

var handlers = map[string]handler{
	EventRemoveMember: handle(func(ctx context.Context, c *Connection, projectID string, request memberRequest) board.Ack {
		return c.hub.board.RemoveMember(ctx, c.actor(), projectID, request.UserName)
	}),
	EventAddMember: handle(func(ctx context.Context, c *Connection, projectID string, request memberRequest) board.Ack {
		return c.hub.board.AddMember(ctx, c.actor(), projectID, request.UserName)
	}),
	EventUpdateMember: handle(func(ctx context.Context, c *Connection, projectID string, request updateMemberRequest) board.Ack {
		update := kanban.MemberUpdate{WIPLimit: request.WIPLimit, Visible: request.Visible}
		return c.hub.board.UpdateMember(ctx, c.actor(), projectID, request.UserName, update)
	}),
	EventUpdateMemberOrder: handle(func(ctx context.Context, c *Connection, projectID string, request memberOrderRequest) board.Ack {
		return c.hub.board.UpdateMemberOrder(ctx, c.actor(), projectID, request.UserName, request.InsertBeforeUserName)
	}),
	EventAddIssue: handle(func(ctx context.Context, c *Connection, projectID string, request addIssueRequest) board.Ack {
		return c.hub.board.AddIssue(ctx, c.actor(), projectID, kanban.AddIssueParams{
			Title:  request.Title,
			Body:   request.Body,
			Stage:  request.Stage,
			Cost:   request.Cost,
			Labels: request.Labels,
		})
	}),
	EventRemoveIssue: handle(func(ctx context.Context, c *Connection, projectID string, request issueRequest) board.Ack {
		return c.hub.board.RemoveIssue(ctx, c.actor(), projectID, request.IssueID)
	}),
	EventUpdateStage: handle(func(ctx context.Context, c *Connection, projectID string, request updateStageRequest) board.Ack {
		return c.hub.board.UpdateStage(ctx, c.actor(), projectID, request.IssueID, request.ToStage, kanban.AssignTo(request.UserID))
	}),
	EventUpdateIssueDetail: handle(func(ctx context.Context, c *Connection, projectID string, request issueDetailRequest) board.Ack {
		return c.hub.board.UpdateIssueDetail(ctx, c.actor(), projectID, request.IssueID, request.Title, request.Body, request.Cost)
	}),
	EventUpdateIssueWorkingState: handle(func(ctx context.Context, c *Connection, projectID string, request workingStateRequest) board.Ack {
		return c.hub.board.UpdateIssueWorkingState(ctx, c.actor(), projectID, request.IssueID, request.IsWorking)
	}),
	EventUpdateIssueWorkHistory: handle(func(ctx context.Context, c *Connection, projectID string, request workHistoryRequest) board.Ack {
		return c.hub.board.UpdateIssueWorkHistory(ctx, c.actor(), projectID, request.IssueID, request.WorkHistory)
	}),
	EventUpdateIssuePriority: handle(func(ctx context.Context, c *Connection, projectID string, request priorityRequest) board.Ack {
		return c.hub.board.UpdateIssuePriority(ctx, c.actor(), projectID, request.IssueID, request.InsertBeforeID)
	}),
	EventAttachLabel: handle(func(ctx context.Context, c *Connection, projectID string, request labelRequest) board.Ack {
		return c.hub.board.AttachLabel(ctx, c.actor(), projectID, request.IssueID, request.LabelName)
	}),
	EventDetachLabel: handle(func(ctx context.Context, c *Connection, projectID string, request labelRequest) board.Ack {
		return c.hub.board.DetachLabel(ctx, c.actor(), projectID, request.IssueID, request.LabelName)
	}),
	EventChat: handle(func(ctx context.Context, c *Connection, projectID string, request chatRequest) board.Ack {
		return c.hub.board.Chat(ctx, c.actor(), projectID, request.Content)
	}),
	EventSyncLabelAll: handle(func(ctx context.Context, c *Connection, projectID string, _ struct{}) board.Ack {
		return c.hub.board.SyncLabelAll(ctx, c.actor(), projectID)
	}),
}
