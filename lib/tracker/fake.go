// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/bureau-foundation/kanban/lib/kanban"
)

// Fake is an in-memory repository. It is both a Source (serving every
// authorized project) and the Tracker it returns. Safe for concurrent
// use.
type Fake struct {
	mu         sync.Mutex
	labels     []kanban.Label
	issues     map[int]RemoteIssue
	avatars    map[string]string
	failure    error
	nextNumber int
	calls      []string
}

// NewFake returns an empty repository whose first created issue is
// number 1.
func NewFake() *Fake {
	return &Fake{
		issues:     make(map[int]RemoteIssue),
		avatars:    make(map[string]string),
		nextNumber: 1,
	}
}

// SetLabels replaces the repository labels.
func (f *Fake) SetLabels(labels []kanban.Label) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.labels = slices.Clone(labels)
}

// PutIssue stores an issue as if it had been created on GitHub.
func (f *Fake) PutIssue(issue RemoteIssue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issues[issue.Number] = issue
	if issue.Number >= f.nextNumber {
		f.nextNumber = issue.Number + 1
	}
}

// Issue returns a stored issue.
func (f *Fake) Issue(number int) (RemoteIssue, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.issues[number]
	return issue, ok
}

// SetAvatar sets the avatar returned for login.
func (f *Fake) SetAvatar(login, url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.avatars[login] = url
}

// SetFailure makes every call return err. Nil restores normal
// operation.
func (f *Fake) SetFailure(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failure = err
}

// Calls returns the names of the calls made so far, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *Fake) ForProject(_ context.Context, project *kanban.Project) (Tracker, error) {
	if !project.Tracker.Authorized() {
		return nil, ErrNotLinked
	}
	return f, nil
}

func (f *Fake) begin(call string) error {
	f.calls = append(f.calls, call)
	return f.failure
}

func (f *Fake) CreateIssue(_ context.Context, title, body string, labels []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateIssue"); err != nil {
		return 0, err
	}
	number := f.nextNumber
	f.nextNumber++
	f.issues[number] = RemoteIssue{Number: number, Title: title, Body: body, Labels: slices.Clone(labels)}
	return number, nil
}

func (f *Fake) SetIssueClosed(_ context.Context, number int, closed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("SetIssueClosed"); err != nil {
		return err
	}
	issue, ok := f.issues[number]
	if !ok {
		return fmt.Errorf("tracker: fake has no issue #%d", number)
	}
	issue.Closed = closed
	f.issues[number] = issue
	return nil
}

func (f *Fake) SetIssueLabels(_ context.Context, number int, labels []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("SetIssueLabels"); err != nil {
		return err
	}
	issue, ok := f.issues[number]
	if !ok {
		return fmt.Errorf("tracker: fake has no issue #%d", number)
	}
	issue.Labels = slices.Clone(labels)
	f.issues[number] = issue
	return nil
}

func (f *Fake) ListLabels(context.Context) ([]kanban.Label, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("ListLabels"); err != nil {
		return nil, err
	}
	return slices.Clone(f.labels), nil
}

func (f *Fake) ListIssues(context.Context) ([]RemoteIssue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("ListIssues"); err != nil {
		return nil, err
	}
	issues := make([]RemoteIssue, 0, len(f.issues))
	for _, issue := range f.issues {
		issue.Labels = slices.Clone(issue.Labels)
		issues = append(issues, issue)
	}
	sort.Slice(issues, func(i, j int) bool { return issues[i].Number < issues[j].Number })
	return issues, nil
}

func (f *Fake) AvatarURL(_ context.Context, login string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("AvatarURL"); err != nil {
		return "", err
	}
	return f.avatars[login], nil
}
