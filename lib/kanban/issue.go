// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kanban

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// AddIssueParams describes a new issue.
type AddIssueParams struct {
	Title    string
	Body     string
	BodyHTML string
	Cost     int

	// Stage defaults to backlog when empty.
	Stage Stage

	AssigneeID string

	// Labels not defined by the project are dropped.
	Labels []string

	// TrackerNumber links the issue to a GitHub issue; 0 for none.
	TrackerNumber int

	// InsertBeforeID positions the issue ahead of an existing one. The
	// issue is appended when empty or unknown.
	InsertBeforeID string
}

// AddIssue creates an issue and inserts it into the priority order.
func (p *Project) AddIssue(params AddIssueParams) (Issue, error) {
	if params.TrackerNumber != 0 && p.FindIssueByNumber(params.TrackerNumber) != nil {
		return Issue{}, ErrIssueExists
	}
	stage := params.Stage
	if stage == "" {
		stage = StageBacklog
	}
	if !stage.Valid() {
		return Issue{}, UserErrorf("invalid stage: %s", stage)
	}

	issue := Issue{
		ID:            uuid.NewString(),
		Title:         params.Title,
		Body:          params.Body,
		BodyHTML:      params.BodyHTML,
		Cost:          params.Cost,
		Stage:         stage,
		Labels:        []string{},
		WorkHistory:   []WorkPeriod{},
		TrackerNumber: params.TrackerNumber,
	}
	if stage.Assignable() {
		issue.AssigneeID = params.AssigneeID
	}
	for _, name := range params.Labels {
		if p.FindLabel(name) != nil && !issue.HasLabel(name) {
			issue.Labels = append(issue.Labels, name)
		}
	}

	position := len(p.Issues)
	if params.InsertBeforeID != "" {
		if index := p.issueIndex(params.InsertBeforeID); index >= 0 {
			position = index
		}
	}
	p.Issues = slices.Insert(p.Issues, position, issue)
	return issue.clone(), nil
}

// RemoveIssue deletes an issue and returns it.
func (p *Project) RemoveIssue(issueID string) (Issue, error) {
	index := p.issueIndex(issueID)
	if index < 0 {
		return Issue{}, issueNotFound(issueID)
	}
	removed := p.Issues[index]
	p.Issues = slices.Delete(p.Issues, index, index+1)
	return removed, nil
}

type assignmentKind int

const (
	assignmentKeep assignmentKind = iota
	assignmentClear
	assignmentSet
)

// Assignment is the assignee half of a stage transition.
type Assignment struct {
	kind   assignmentKind
	userID string
}

// KeepAssignee leaves the current assignee in place (unless the target
// stage is backlog).
func KeepAssignee() Assignment { return Assignment{kind: assignmentKeep} }

// Unassign clears the assignee.
func Unassign() Assignment { return Assignment{kind: assignmentClear} }

// AssignTo sets the assignee. An empty userID is Unassign.
func AssignTo(userID string) Assignment {
	if userID == "" {
		return Unassign()
	}
	return Assignment{kind: assignmentSet, userID: userID}
}

// UpdateStage moves an issue to stage and applies the assignment as a
// single change. Moving to backlog always clears the assignee.
func (p *Project) UpdateStage(issueID string, stage Stage, assignment Assignment) (Issue, error) {
	if !stage.Valid() {
		return Issue{}, UserErrorf("invalid stage: %s", stage)
	}
	issue := p.FindIssue(issueID)
	if issue == nil {
		return Issue{}, issueNotFound(issueID)
	}

	issue.Stage = stage
	switch assignment.kind {
	case assignmentClear:
		issue.AssigneeID = ""
	case assignmentSet:
		issue.AssigneeID = assignment.userID
	}
	if !stage.Assignable() {
		issue.AssigneeID = ""
	}
	return issue.clone(), nil
}

// UpdateIssueDetail replaces the editable text fields of an issue.
func (p *Project) UpdateIssueDetail(issueID, title, body, bodyHTML string, cost int) (Issue, error) {
	issue := p.FindIssue(issueID)
	if issue == nil {
		return Issue{}, issueNotFound(issueID)
	}
	issue.Title = title
	issue.Body = body
	issue.BodyHTML = bodyHTML
	issue.Cost = cost
	return issue.clone(), nil
}

// UpdateIssuePriority moves an issue ahead of insertBeforeID, or to the
// end of the list when insertBeforeID is empty or unknown.
func (p *Project) UpdateIssuePriority(issueID, insertBeforeID string) (Issue, error) {
	index := p.issueIndex(issueID)
	if index < 0 {
		return Issue{}, issueNotFound(issueID)
	}
	if insertBeforeID == issueID {
		return p.Issues[index].clone(), nil
	}

	moved := p.Issues[index]
	p.Issues = slices.Delete(p.Issues, index, index+1)
	position := len(p.Issues)
	if insertBeforeID != "" {
		if target := p.issueIndex(insertBeforeID); target >= 0 {
			position = target
		}
	}
	p.Issues = slices.Insert(p.Issues, position, moved)
	return moved.clone(), nil
}

// UpdateIssueWorkingState starts or stops work on an issue. Starting
// opens a WorkPeriod for userID; stopping closes the open period.
// Setting the state it already has changes nothing.
func (p *Project) UpdateIssueWorkingState(issueID string, isWorking bool, userID string, now time.Time) (Issue, error) {
	issue := p.FindIssue(issueID)
	if issue == nil {
		return Issue{}, issueNotFound(issueID)
	}
	if issue.IsWorking == isWorking {
		return issue.clone(), nil
	}

	issue.IsWorking = isWorking
	if isWorking {
		issue.WorkHistory = append(issue.WorkHistory, WorkPeriod{UserID: userID, StartTime: now})
	} else {
		for index := len(issue.WorkHistory) - 1; index >= 0; index-- {
			if issue.WorkHistory[index].EndTime == nil {
				end := now
				issue.WorkHistory[index].EndTime = &end
				break
			}
		}
	}
	return issue.clone(), nil
}

// UpdateIssueWorkHistory replaces an issue's work history. Periods must
// not end before they start.
func (p *Project) UpdateIssueWorkHistory(issueID string, history []WorkPeriod) (Issue, error) {
	issue := p.FindIssue(issueID)
	if issue == nil {
		return Issue{}, issueNotFound(issueID)
	}
	for _, period := range history {
		if period.EndTime != nil && period.EndTime.Before(period.StartTime) {
			return Issue{}, UserErrorf("work period ends before it starts: %s", period.StartTime.Format(time.RFC3339))
		}
	}
	issue.WorkHistory = make([]WorkPeriod, len(history))
	for index, period := range history {
		issue.WorkHistory[index] = period.clone()
	}
	return issue.clone(), nil
}
