// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/bureau-foundation/kanban/lib/clock"
	"github.com/bureau-foundation/kanban/lib/kanban"
	"github.com/bureau-foundation/kanban/lib/markdown"
	"github.com/bureau-foundation/kanban/lib/mutationqueue"
	"github.com/bureau-foundation/kanban/lib/room"
	"github.com/bureau-foundation/kanban/lib/store"
	"github.com/bureau-foundation/kanban/lib/tracker"
)

// DefaultHistoryLimit is the number of chat entries sent on join.
const DefaultHistoryLimit = 200

// Store is the persistence the service needs. *store.Store implements
// it.
type Store interface {
	LoadProject(ctx context.Context, projectID string) (*kanban.Project, error)
	SaveProject(ctx context.Context, project *kanban.Project) (bool, error)
	ProjectExists(ctx context.Context, projectID string) (bool, error)
	FindOrCreateUser(ctx context.Context, userName, avatarURL string) (kanban.User, error)
	GetUser(ctx context.Context, userID string) (kanban.User, error)
	AppendChat(ctx context.Context, entry kanban.ChatEntry) (kanban.ChatEntry, error)
	RecentChat(ctx context.Context, projectID string, limit int) ([]kanban.ChatEntry, error)
}

// Config holds the service's collaborators.
type Config struct {
	Store Store
	Queue *mutationqueue.Queue
	Rooms *room.Manager

	// Trackers resolves a project's GitHub repository. Nil disables
	// mirroring and label resync.
	Trackers tracker.Source

	Markdown *markdown.Renderer

	// HistoryLimit bounds ChatHistory. Defaults to
	// DefaultHistoryLimit.
	HistoryLimit int

	Clock  clock.Clock
	Logger *slog.Logger
}

// Service runs board operations. Safe for concurrent use.
type Service struct {
	store        Store
	queue        *mutationqueue.Queue
	rooms        *room.Manager
	trackers     tracker.Source
	markdown     *markdown.Renderer
	historyLimit int
	clock        clock.Clock
	logger       *slog.Logger
}

// New creates a Service. Panics if a required collaborator is missing.
func New(config Config) *Service {
	switch {
	case config.Store == nil:
		panic("board: Store is required")
	case config.Queue == nil:
		panic("board: Queue is required")
	case config.Rooms == nil:
		panic("board: Rooms is required")
	case config.Clock == nil:
		panic("board: Clock is required")
	case config.Logger == nil:
		panic("board: Logger is required")
	}
	renderer := config.Markdown
	if renderer == nil {
		renderer = markdown.New()
	}
	historyLimit := config.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Service{
		store:        config.Store,
		queue:        config.Queue,
		rooms:        config.Rooms,
		trackers:     config.Trackers,
		markdown:     renderer,
		historyLimit: historyLimit,
		clock:        config.Clock,
		logger:       config.Logger,
	}
}

// Rooms returns the room manager operations broadcast through.
func (s *Service) Rooms() *room.Manager {
	return s.rooms
}

// Locked holds projectID's slot, loads the project and passes it to fn
// as a Txn. If fn returns nil the project is saved and the Txn's
// broadcasts and activity lines are emitted, still inside the slot. If
// fn fails nothing is saved or emitted.
//
// An unknown project is a *kanban.UserError wrapping
// store.ErrProjectNotFound.
func (s *Service) Locked(ctx context.Context, actor Actor, projectID string, fn func(*Txn) error) error {
	return s.queue.Do(ctx, projectID, func(ctx context.Context) error {
		project, err := s.store.LoadProject(ctx, projectID)
		if errors.Is(err, store.ErrProjectNotFound) {
			return fmt.Errorf("%w (%w)", kanban.UserErrorf("project not found: %s", projectID), err)
		}
		if err != nil {
			return err
		}

		txn := &Txn{ctx: ctx, service: s, actor: actor, project: project}
		if err := fn(txn); err != nil {
			return err
		}
		return txn.commit()
	})
}

// run executes one operation and converts its error into an Ack.
func (s *Service) run(ctx context.Context, actor Actor, projectID, operation string, op func(*Txn) (Ack, error)) Ack {
	var ack Ack
	err := s.Locked(ctx, actor, projectID, func(txn *Txn) error {
		var err error
		ack, err = op(txn)
		return err
	})
	if err != nil {
		return s.Failure(operation, projectID, err)
	}
	return ack
}

// Failure converts err into an acknowledgement, logging server errors.
func (s *Service) Failure(operation, projectID string, err error) Ack {
	var userError *kanban.UserError
	if errors.As(err, &userError) {
		s.logger.Info("operation rejected",
			"operation", operation,
			"project_id", projectID,
			"reason", userError.Message,
		)
		return UserFailure(userError.Message)
	}
	s.logger.Error("operation failed",
		"operation", operation,
		"project_id", projectID,
		"error", err,
	)
	return Ack{Status: StatusServerError, Message: err.Error()}
}

// ProjectExists reports whether projectID names a stored project.
func (s *Service) ProjectExists(ctx context.Context, projectID string) (bool, error) {
	return s.store.ProjectExists(ctx, projectID)
}

// ChatHistory returns the project's most recent activity entries in
// chronological order.
func (s *Service) ChatHistory(ctx context.Context, projectID string) ([]kanban.ChatEntry, error) {
	entries, err := s.store.RecentChat(ctx, projectID, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("board: reading chat history of %s: %w", projectID, err)
	}
	slices.Reverse(entries)
	return entries, nil
}

// Chat records a user chat message and broadcasts it to the room.
func (s *Service) Chat(ctx context.Context, actor Actor, projectID, content string) Ack {
	if strings.TrimSpace(content) == "" {
		return UserFailure("chat message is empty")
	}
	entry, err := s.store.AppendChat(ctx, kanban.ChatEntry{
		ProjectID: projectID,
		Sender:    actor.UserName,
		Content:   content,
		Type:      kanban.ChatTypeChat,
		CreatedAt: s.clock.Now(),
	})
	if err != nil {
		return s.Failure("chat", projectID, err)
	}
	s.rooms.Broadcast(projectID, room.EventChat, entry)
	return Success("sent chat", nil)
}

// Operation entry points. Each runs its Txn method under the
// project's slot.

func (s *Service) AddMember(ctx context.Context, actor Actor, projectID, userName string) Ack {
	return s.run(ctx, actor, projectID, "add-member", func(txn *Txn) (Ack, error) {
		return txn.AddMember(userName)
	})
}

func (s *Service) RemoveMember(ctx context.Context, actor Actor, projectID, userName string) Ack {
	return s.run(ctx, actor, projectID, "remove-member", func(txn *Txn) (Ack, error) {
		return txn.RemoveMember(userName)
	})
}

func (s *Service) UpdateMember(ctx context.Context, actor Actor, projectID, userName string, update kanban.MemberUpdate) Ack {
	return s.run(ctx, actor, projectID, "update-member", func(txn *Txn) (Ack, error) {
		return txn.UpdateMember(userName, update)
	})
}

func (s *Service) UpdateMemberOrder(ctx context.Context, actor Actor, projectID, userName, insertBeforeUserName string) Ack {
	return s.run(ctx, actor, projectID, "update-member-order", func(txn *Txn) (Ack, error) {
		return txn.UpdateMemberOrder(userName, insertBeforeUserName)
	})
}

// AddIssue acknowledges a duplicate tracker number as a success with
// the "issue already exists." message.
func (s *Service) AddIssue(ctx context.Context, actor Actor, projectID string, params kanban.AddIssueParams) Ack {
	return s.run(ctx, actor, projectID, "add-issue", func(txn *Txn) (Ack, error) {
		ack, err := txn.AddIssue(params)
		if errors.Is(err, kanban.ErrIssueExists) {
			return Success(err.Error(), nil), nil
		}
		return ack, err
	})
}

func (s *Service) RemoveIssue(ctx context.Context, actor Actor, projectID, issueID string) Ack {
	return s.run(ctx, actor, projectID, "remove-issue", func(txn *Txn) (Ack, error) {
		return txn.RemoveIssue(issueID)
	})
}

func (s *Service) UpdateStage(ctx context.Context, actor Actor, projectID, issueID string, stage kanban.Stage, assignment kanban.Assignment) Ack {
	return s.run(ctx, actor, projectID, "update-stage", func(txn *Txn) (Ack, error) {
		return txn.UpdateStage(issueID, stage, assignment)
	})
}

func (s *Service) UpdateIssueDetail(ctx context.Context, actor Actor, projectID, issueID, title, body string, cost int) Ack {
	return s.run(ctx, actor, projectID, "update-issue-detail", func(txn *Txn) (Ack, error) {
		return txn.UpdateIssueDetail(issueID, title, body, cost)
	})
}

func (s *Service) UpdateIssueWorkingState(ctx context.Context, actor Actor, projectID, issueID string, isWorking bool) Ack {
	return s.run(ctx, actor, projectID, "update-issue-working-state", func(txn *Txn) (Ack, error) {
		return txn.UpdateIssueWorkingState(issueID, isWorking)
	})
}

func (s *Service) UpdateIssueWorkHistory(ctx context.Context, actor Actor, projectID, issueID string, history []kanban.WorkPeriod) Ack {
	return s.run(ctx, actor, projectID, "update-issue-work-history", func(txn *Txn) (Ack, error) {
		return txn.UpdateIssueWorkHistory(issueID, history)
	})
}

func (s *Service) UpdateIssuePriority(ctx context.Context, actor Actor, projectID, issueID, insertBeforeID string) Ack {
	return s.run(ctx, actor, projectID, "update-issue-priority", func(txn *Txn) (Ack, error) {
		return txn.UpdateIssuePriority(issueID, insertBeforeID)
	})
}

func (s *Service) AttachLabel(ctx context.Context, actor Actor, projectID, issueID, labelName string) Ack {
	return s.run(ctx, actor, projectID, "attach-label", func(txn *Txn) (Ack, error) {
		return txn.AttachLabel(issueID, labelName)
	})
}

func (s *Service) DetachLabel(ctx context.Context, actor Actor, projectID, issueID, labelName string) Ack {
	return s.run(ctx, actor, projectID, "detach-label", func(txn *Txn) (Ack, error) {
		return txn.DetachLabel(issueID, labelName)
	})
}

func (s *Service) SyncLabelAll(ctx context.Context, actor Actor, projectID string) Ack {
	return s.run(ctx, actor, projectID, "sync-label-all", func(txn *Txn) (Ack, error) {
		return txn.SyncLabelAll()
	})
}
