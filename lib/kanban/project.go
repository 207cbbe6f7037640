// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kanban

import (
	"slices"
	"time"
)

// Project is the unit of mutual exclusion and persistence: members,
// issues, and labels live and die with it.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"createdBy"`
	Members   []Member  `json:"members"`
	Issues    []Issue   `json:"issues"`
	Labels    []Label   `json:"labels"`
	Tracker   Tracker   `json:"github"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Tracker links a project to a GitHub repository.
type Tracker struct {
	Owner string `json:"userName,omitempty"`
	Repo  string `json:"repoName,omitempty"`

	// Sync enables mirroring of user-originated changes to the
	// repository.
	Sync bool `json:"sync"`

	// SealedToken is the repository access token encrypted to the
	// service's age identity. It is stored with the document and never
	// sent to clients.
	SealedToken string `cbor:"sealedToken,omitempty" json:"-"`
}

// Linked reports whether the project names a repository.
func (t Tracker) Linked() bool {
	return t.Owner != "" && t.Repo != ""
}

// Authorized reports whether the project carries a token for its
// repository, so the tracker can be read.
func (t Tracker) Authorized() bool {
	return t.Linked() && t.SealedToken != ""
}

// Mirrors reports whether user changes should be pushed to the
// repository.
func (t Tracker) Mirrors() bool {
	return t.Sync && t.Authorized()
}

// Issue is one card on the board.
type Issue struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	BodyHTML string `json:"bodyHtml,omitempty"`
	Cost     int    `json:"cost"`
	Stage    Stage  `json:"stage"`

	// AssigneeID is the user ID of the assignee, empty for none.
	AssigneeID string `json:"assignee,omitempty"`

	// Labels holds label names in attachment order. Every name is
	// defined in the owning project's Labels.
	Labels []string `json:"labels"`

	IsWorking   bool         `json:"isWorking"`
	WorkHistory []WorkPeriod `json:"workHistory"`

	// TrackerNumber is the GitHub issue number, 0 when the issue is not
	// linked. Non-zero numbers are unique within a project.
	TrackerNumber int `json:"trackerNumber,omitempty"`
}

// HasLabel reports whether the named label is attached.
func (i *Issue) HasLabel(name string) bool {
	return slices.Contains(i.Labels, name)
}

func (i *Issue) clone() Issue {
	copied := *i
	copied.Labels = slices.Clone(i.Labels)
	copied.WorkHistory = make([]WorkPeriod, len(i.WorkHistory))
	for index, period := range i.WorkHistory {
		copied.WorkHistory[index] = period.clone()
	}
	return copied
}

// WorkPeriod records one stretch of work on an issue. EndTime is nil
// while the period is open.
type WorkPeriod struct {
	UserID    string     `json:"userId"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
}

func (w WorkPeriod) clone() WorkPeriod {
	if w.EndTime != nil {
		end := *w.EndTime
		w.EndTime = &end
	}
	return w
}

// Member is a user on the project's board. Slice order is display
// order.
type Member struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Visible   bool   `json:"visible"`

	// WIPLimit caps the issues the member holds in the issue stage;
	// 0 means no limit.
	WIPLimit int `json:"wipLimit"`
}

// Label is a project label. Color is six hex digits without a leading
// '#', as GitHub reports it.
type Label struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// User is a global account, keyed by its GitHub login.
type User struct {
	ID        string `json:"id"`
	UserName  string `json:"userName"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// NewProject returns an empty project whose creator is its first
// member.
func NewProject(id, name string, creator User, now time.Time) *Project {
	return &Project{
		ID:        id,
		Name:      name,
		CreatedBy: creator.ID,
		Members: []Member{{
			UserID:    creator.ID,
			UserName:  creator.UserName,
			AvatarURL: creator.AvatarURL,
			Visible:   true,
		}},
		Issues:    []Issue{},
		Labels:    []Label{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy of the project. Broadcast payloads are
// snapshots taken with Clone or by encoding under the project's queue
// slot.
func (p *Project) Clone() *Project {
	copied := *p
	copied.Members = slices.Clone(p.Members)
	copied.Labels = slices.Clone(p.Labels)
	copied.Issues = make([]Issue, len(p.Issues))
	for index := range p.Issues {
		copied.Issues[index] = p.Issues[index].clone()
	}
	return &copied
}

// FindIssue returns the issue with the given ID, or nil.
func (p *Project) FindIssue(issueID string) *Issue {
	if index := p.issueIndex(issueID); index >= 0 {
		return &p.Issues[index]
	}
	return nil
}

// FindIssueByNumber returns the issue linked to the given tracker
// number, or nil. Number 0 never matches.
func (p *Project) FindIssueByNumber(number int) *Issue {
	if number == 0 {
		return nil
	}
	for index := range p.Issues {
		if p.Issues[index].TrackerNumber == number {
			return &p.Issues[index]
		}
	}
	return nil
}

// FindMember returns the member with the given user name, or nil.
func (p *Project) FindMember(userName string) *Member {
	if index := p.memberIndex(userName); index >= 0 {
		return &p.Members[index]
	}
	return nil
}

// FindMemberByID returns the member with the given user ID, or nil.
func (p *Project) FindMemberByID(userID string) *Member {
	for index := range p.Members {
		if p.Members[index].UserID == userID {
			return &p.Members[index]
		}
	}
	return nil
}

// FindLabel returns the label with the given name, or nil.
func (p *Project) FindLabel(name string) *Label {
	for index := range p.Labels {
		if p.Labels[index].Name == name {
			return &p.Labels[index]
		}
	}
	return nil
}

func (p *Project) issueIndex(issueID string) int {
	return slices.IndexFunc(p.Issues, func(issue Issue) bool { return issue.ID == issueID })
}

func (p *Project) memberIndex(userName string) int {
	return slices.IndexFunc(p.Members, func(member Member) bool { return member.UserName == userName })
}
