// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package realtime

import "github.com/bureau-foundation/kanban/lib/kanban"

// Inbound event names.
const (
	EventJoinProjectRoom         = "join-project-room"
	EventRemoveMember            = "remove-member"
	EventAddMember               = "add-member"
	EventUpdateMember            = "update-member"
	EventUpdateMemberOrder       = "update-member-order"
	EventAddIssue                = "add-issue"
	EventRemoveIssue             = "remove-issue"
	EventUpdateStage             = "update-stage"
	EventUpdateIssueDetail       = "update-issue-detail"
	EventUpdateIssueWorkingState = "update-issue-working-state"
	EventUpdateIssueWorkHistory  = "update-issue-work-history"
	EventUpdateIssuePriority     = "update-issue-priority"
	EventAttachLabel             = "attach-label"
	EventDetachLabel             = "detach-label"
	EventChat                    = "chat"
	EventSyncLabelAll            = "sync-label-all"
)

// Outbound event names sent only by this package.
const (
	EventChatHistory     = "chat-history"
	EventJoinRoom        = "join-room"
	EventLeaveRoom       = "leave-room"
	EventInitJoinedUsers = "init-joined-users"

	// EventResync tells a client it missed events and must reload the
	// project. Transports send it when TakeResync reports true.
	EventResync = "resync"

	// EventUnauthorized is the only frame a connection without a valid
	// session token receives before the transport closes it.
	EventUnauthorized = "unauthorized"
)

type joinRequest struct {
	ProjectID string `json:"projectId"`
}

type memberRequest struct {
	UserName string `json:"userName"`
}

type updateMemberRequest struct {
	UserName string `json:"userName"`
	WIPLimit *int   `json:"wipLimit"`
	Visible  *bool  `json:"visible"`
}

type memberOrderRequest struct {
	UserName             string `json:"userName"`
	InsertBeforeUserName string `json:"insertBeforeOfUserName"`
}

type addIssueRequest struct {
	Title  string       `json:"title"`
	Body   string       `json:"body"`
	Stage  kanban.Stage `json:"stage"`
	Cost   int          `json:"cost"`
	Labels []string     `json:"labels"`
}

type issueRequest struct {
	IssueID string `json:"issueId"`
}

type updateStageRequest struct {
	IssueID string       `json:"issueId"`
	ToStage kanban.Stage `json:"toStage"`
	// UserID is the new assignee; empty unassigns.
	UserID string `json:"userId"`
}

type issueDetailRequest struct {
	IssueID string `json:"issueId"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	Cost    int    `json:"cost"`
}

type workingStateRequest struct {
	IssueID   string `json:"issueId"`
	IsWorking bool   `json:"isWorking"`
}

type workHistoryRequest struct {
	IssueID     string              `json:"issueId"`
	WorkHistory []kanban.WorkPeriod `json:"workHistory"`
}

type priorityRequest struct {
	IssueID        string `json:"issueId"`
	InsertBeforeID string `json:"insertBeforeOfIssueId"`
}

type labelRequest struct {
	IssueID   string `json:"issueId"`
	LabelName string `json:"labelName"`
}

type chatRequest struct {
	Content string `json:"content"`
}
