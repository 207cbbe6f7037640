// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/kanban/lib/clock"
	"github.com/bureau-foundation/kanban/lib/codec"
	"github.com/bureau-foundation/kanban/lib/kanban"
	"github.com/bureau-foundation/kanban/lib/mutationqueue"
	"github.com/bureau-foundation/kanban/lib/room"
	"github.com/bureau-foundation/kanban/lib/store"
	"github.com/bureau-foundation/kanban/lib/testutil"
	"github.com/bureau-foundation/kanban/lib/tracker"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

var alice = Actor{UserID: "u-alice", UserName: "alice"}

type fixture struct {
	service   *Service
	store     *store.Store
	queue     *mutationqueue.Queue
	clock     *clock.FakeClock
	remote    *tracker.Fake
	projectID string
	events    chan room.Event
}

func newFixture(t *testing.T, linked bool) *fixture {
	t.Helper()
	fakeClock := clock.Fake(epoch)
	logger := testutil.DiscardLogger()
	documents, err := store.Open(store.Config{
		Path:        filepath.Join(t.TempDir(), "kanban.db"),
		PoolSize:    2,
		Compression: codec.CompressionZstd,
		Clock:       fakeClock,
		Logger:      logger,
	})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { documents.Close() })

	creator, err := documents.FindOrCreateUser(context.Background(), "alice", "")
	if err != nil {
		t.Fatalf("FindOrCreateUser: %v", err)
	}
	project := kanban.NewProject(testutil.UniqueID("project"), "Roadmap", creator, epoch)
	project.Labels = []kanban.Label{{Name: "bug", Color: "d73a4a"}, {Name: "docs", Color: "0075ca"}}
	if linked {
		project.Tracker = kanban.Tracker{Owner: "octo", Repo: "board", Sync: true, SealedToken: "sealed"}
	}
	if err := documents.CreateProject(context.Background(), project); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	rooms := room.NewManager(documents, fakeClock, logger)
	queue := mutationqueue.New(logger)
	remote := tracker.NewFake()
	service := New(Config{
		Store:    documents,
		Queue:    queue,
		Rooms:    rooms,
		Trackers: remote,
		Clock:    fakeClock,
		Logger:   logger,
	})

	done := make(chan struct{})
	t.Cleanup(func() { close(done) })
	subscriber := room.NewSubscriber(done)
	rooms.Subscribe(&room.Subscription{Subscriber: subscriber, ProjectID: project.ID, UserName: "watcher"})

	return &fixture{
		service:   service,
		store:     documents,
		queue:     queue,
		clock:     fakeClock,
		remote:    remote,
		projectID: project.ID,
		events:    subscriber.Channel,
	}
}

func (f *fixture) load(t *testing.T) *kanban.Project {
	t.Helper()
	project, err := f.store.LoadProject(context.Background(), f.projectID)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	return project
}

// drain returns the events broadcast so far. Operations broadcast
// before they return, so nothing is in flight.
func (f *fixture) drain() []room.Event {
	var events []room.Event
	for {
		select {
		case event := <-f.events:
			events = append(events, event)
		default:
			return events
		}
	}
}

func eventNames(events []room.Event) []string {
	names := make([]string, len(events))
	for i, event := range events {
		names[i] = event.Name
	}
	return names
}

func chatContent(t *testing.T, event room.Event) string {
	t.Helper()
	if event.Name != room.EventChat {
		t.Fatalf("event = %q, want chat", event.Name)
	}
	var entry kanban.ChatEntry
	if err := json.Unmarshal(event.Data, &entry); err != nil {
		t.Fatalf("decoding chat: %v", err)
	}
	return entry.Content
}

func requireSuccess(t *testing.T, ack Ack) {
	t.Helper()
	if !ack.OK() {
		t.Fatalf("ack = %s %q, want success", ack.Status, ack.Message)
	}
}

func (f *fixture) addIssue(t *testing.T, actor Actor, params kanban.AddIssueParams) kanban.Issue {
	t.Helper()
	ack := f.service.AddIssue(context.Background(), actor, f.projectID, params)
	requireSuccess(t, ack)
	issue, ok := ack.Extra["issue"].(kanban.Issue)
	if !ok {
		t.Fatalf("ack has no issue: %+v", ack)
	}
	f.drain()
	return issue
}

func TestAckMarshalsFlat(t *testing.T) {
	ack := Success("added member", map[string]any{"member": kanban.Member{UserName: "bob"}})
	data, err := json.Marshal(ack)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]any
	json.Unmarshal(data, &decoded)
	if decoded["status"] != "success" || decoded["message"] != "added member" {
		t.Errorf("decoded = %v", decoded)
	}
	member, ok := decoded["member"].(map[string]any)
	if !ok || member["userName"] != "bob" {
		t.Errorf("member = %v", decoded["member"])
	}
}

func TestAckUnmarshal(t *testing.T) {
	var ack Ack
	if err := json.Unmarshal([]byte(`{"status":"error","message":"must be login","issueId":"i-1"}`), &ack); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if ack.Status != StatusError || ack.Message != "must be login" {
		t.Errorf("ack = %s %q", ack.Status, ack.Message)
	}
	if raw, _ := ack.Extra["issueId"].(json.RawMessage); string(raw) != `"i-1"` {
		t.Errorf("extra issueId = %v", ack.Extra["issueId"])
	}
}

func TestAddIssue(t *testing.T) {
	f := newFixture(t, false)
	ack := f.service.AddIssue(context.Background(), alice, f.projectID, kanban.AddIssueParams{
		Title:  "Write docs",
		Body:   "**now**",
		Labels: []string{"docs", "undefined"},
	})
	requireSuccess(t, ack)
	if ack.Message != "added issue" {
		t.Errorf("message = %q, want %q", ack.Message, "added issue")
	}

	events := f.drain()
	if got := eventNames(events); !slices.Equal(got, []string{"add-issue", "chat"}) {
		t.Fatalf("events = %v, want [add-issue chat]", got)
	}
	if got, want := chatContent(t, events[1]), `"alice" added issue: Write docs`; got != want {
		t.Errorf("chat = %q, want %q", got, want)
	}

	project := f.load(t)
	if len(project.Issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(project.Issues))
	}
	issue := project.Issues[0]
	if issue.Stage != kanban.StageBacklog {
		t.Errorf("stage = %q, want backlog", issue.Stage)
	}
	if !slices.Equal(issue.Labels, []string{"docs"}) {
		t.Errorf("labels = %v, want [docs]", issue.Labels)
	}
	if !strings.Contains(issue.BodyHTML, "<strong>now</strong>") {
		t.Errorf("bodyHtml = %q", issue.BodyHTML)
	}
}

func TestAddIssueDuplicateTrackerNumber(t *testing.T) {
	f := newFixture(t, false)
	f.addIssue(t, TrackerActor, kanban.AddIssueParams{Title: "remote", TrackerNumber: 5})

	ack := f.service.AddIssue(context.Background(), TrackerActor, f.projectID, kanban.AddIssueParams{Title: "remote", TrackerNumber: 5})
	requireSuccess(t, ack)
	if ack.Message != "issue already exists." {
		t.Errorf("message = %q, want %q", ack.Message, "issue already exists.")
	}
	if events := f.drain(); len(events) != 0 {
		t.Errorf("duplicate broadcast %v", eventNames(events))
	}
	if got := len(f.load(t).Issues); got != 1 {
		t.Errorf("got %d issues, want 1", got)
	}
}

func TestTxnAddIssueReportsDuplicate(t *testing.T) {
	f := newFixture(t, false)
	f.addIssue(t, TrackerActor, kanban.AddIssueParams{Title: "remote", TrackerNumber: 5})

	err := f.service.Locked(context.Background(), TrackerActor, f.projectID, func(txn *Txn) error {
		_, err := txn.AddIssue(kanban.AddIssueParams{Title: "duplicate", TrackerNumber: 5})
		return err
	})
	if !errors.Is(err, kanban.ErrIssueExists) {
		t.Fatalf("Locked: got %v, want ErrIssueExists", err)
	}
	if got := len(f.load(t).Issues); got != 1 {
		t.Errorf("got %d issues, want 1", got)
	}
}

func TestUnknownProject(t *testing.T) {
	f := newFixture(t, false)
	ack := f.service.RemoveIssue(context.Background(), alice, "missing", "i1")
	if ack.Status != StatusError || ack.Message != "project not found: missing" {
		t.Errorf("ack = %s %q", ack.Status, ack.Message)
	}
}

func TestUserErrorLeavesProjectAlone(t *testing.T) {
	f := newFixture(t, false)
	ack := f.service.UpdateStage(context.Background(), alice, f.projectID, "nope", kanban.StageTodo, kanban.KeepAssignee())
	if ack.Status != StatusError {
		t.Fatalf("status = %q, want error", ack.Status)
	}
	if !strings.Contains(ack.Message, "issue not found") {
		t.Errorf("message = %q", ack.Message)
	}
	if events := f.drain(); len(events) != 0 {
		t.Errorf("failed operation broadcast %v", eventNames(events))
	}
}

func TestLockedFailureDiscardsChanges(t *testing.T) {
	f := newFixture(t, false)
	failure := errors.New("decided against it")
	err := f.service.Locked(context.Background(), alice, f.projectID, func(txn *Txn) error {
		if _, err := txn.AddIssue(kanban.AddIssueParams{Title: "ghost"}); err != nil {
			return err
		}
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("Locked: got %v, want %v", err, failure)
	}
	if got := len(f.load(t).Issues); got != 0 {
		t.Errorf("got %d issues, want 0", got)
	}
	if events := f.drain(); len(events) != 0 {
		t.Errorf("discarded transaction broadcast %v", eventNames(events))
	}
}

func TestUpdateStageNotifiesAssigneeName(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	requireSuccess(t, f.service.AddMember(ctx, alice, f.projectID, "bob"))
	issue := f.addIssue(t, alice, kanban.AddIssueParams{Title: "Ship it"})
	f.drain()

	bob := f.load(t).FindMember("bob")
	ack := f.service.UpdateStage(ctx, alice, f.projectID, issue.ID, kanban.StageTodo, kanban.AssignTo(bob.UserID))
	requireSuccess(t, ack)

	events := f.drain()
	if got := eventNames(events); !slices.Equal(got, []string{"update-stage", "chat"}) {
		t.Fatalf("events = %v", got)
	}
	var payload map[string]any
	json.Unmarshal(events[0].Data, &payload)
	if payload["toStage"] != "todo" || payload["assignee"] != bob.UserID || payload["issueId"] != issue.ID {
		t.Errorf("update-stage payload = %v", payload)
	}
	want := `"alice" updated issue stage and assignee: {"title":"Ship it","stage":"todo","assignee":"bob"}`
	if got := chatContent(t, events[1]); got != want {
		t.Errorf("chat = %q, want %q", got, want)
	}

	// Unassigning reports a null assignee.
	requireSuccess(t, f.service.UpdateStage(ctx, alice, f.projectID, issue.ID, kanban.StageBacklog, kanban.Unassign()))
	events = f.drain()
	want = `"alice" updated issue stage and assignee: {"title":"Ship it","stage":"backlog","assignee":null}`
	if got := chatContent(t, events[1]); got != want {
		t.Errorf("chat = %q, want %q", got, want)
	}
}

func TestAttachThenDetachInQueueOrder(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	issue := f.addIssue(t, alice, kanban.AddIssueParams{Title: "Label me"})

	// Hold the slot so both operations queue up behind it.
	release, err := f.queue.Acquire(ctx, f.projectID)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	results := make(chan string, 2)
	go func() {
		f.service.AttachLabel(ctx, alice, f.projectID, issue.ID, "bug")
		results <- "attach"
	}()
	waitPending(t, f.queue, f.projectID, 2)
	go func() {
		f.service.DetachLabel(ctx, alice, f.projectID, issue.ID, "bug")
		results <- "detach"
	}()
	waitPending(t, f.queue, f.projectID, 3)
	release()

	testutil.RequireReceive(t, results, 5*time.Second, "first operation")
	testutil.RequireReceive(t, results, 5*time.Second, "second operation")
	if labels := f.load(t).FindIssue(issue.ID).Labels; len(labels) != 0 {
		t.Errorf("labels = %v, want none", labels)
	}
	if got := eventNames(f.drain()); !slices.Equal(got, []string{"attach-label", "chat", "detach-label", "chat"}) {
		t.Errorf("events = %v", got)
	}
}

func waitPending(t *testing.T, queue *mutationqueue.Queue, projectID string, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for queue.Pending(projectID) < want {
		if time.Now().After(deadline) {
			t.Fatalf("pending = %d, want %d", queue.Pending(projectID), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestAttachLabelIdempotent(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	issue := f.addIssue(t, alice, kanban.AddIssueParams{Title: "T", Labels: []string{"bug"}})

	ack := f.service.AttachLabel(ctx, alice, f.projectID, issue.ID, "bug")
	requireSuccess(t, ack)
	if events := f.drain(); len(events) != 0 {
		t.Errorf("no-op attach broadcast %v", eventNames(events))
	}

	ack = f.service.AttachLabel(ctx, alice, f.projectID, issue.ID, "feature")
	if ack.Status != StatusError {
		t.Errorf("undefined label: status = %q, want error", ack.Status)
	}
}

func TestMemberOperations(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	requireSuccess(t, f.service.AddMember(ctx, alice, f.projectID, "bob"))
	requireSuccess(t, f.service.AddMember(ctx, alice, f.projectID, "carol"))
	f.drain()

	ack := f.service.UpdateMemberOrder(ctx, alice, f.projectID, "carol", "alice")
	requireSuccess(t, ack)
	events := f.drain()
	if got, want := chatContent(t, events[1]), `"alice" updated member order: insert "carol" before "alice"`; got != want {
		t.Errorf("chat = %q, want %q", got, want)
	}
	var names []string
	for _, member := range f.load(t).Members {
		names = append(names, member.UserName)
	}
	if !slices.Equal(names, []string{"carol", "alice", "bob"}) {
		t.Errorf("members = %v", names)
	}

	limit := 3
	requireSuccess(t, f.service.UpdateMember(ctx, alice, f.projectID, "bob", kanban.MemberUpdate{WIPLimit: &limit}))
	events = f.drain()
	if got, want := chatContent(t, events[1]), `"alice" updated member: "bob" , {"wipLimit":3}`; got != want {
		t.Errorf("chat = %q, want %q", got, want)
	}

	requireSuccess(t, f.service.RemoveMember(ctx, alice, f.projectID, "bob"))
	if f.load(t).FindMember("bob") != nil {
		t.Error("bob still a member")
	}
	if ack := f.service.AddMember(ctx, alice, f.projectID, "carol"); ack.Status != StatusError {
		t.Errorf("duplicate member: status = %q, want error", ack.Status)
	}
}

func TestAddMemberFetchesAvatar(t *testing.T) {
	f := newFixture(t, true)
	f.remote.SetAvatar("bob", "https://avatars.example/bob")

	ack := f.service.AddMember(context.Background(), alice, f.projectID, "bob")
	requireSuccess(t, ack)
	member, _ := ack.Extra["member"].(kanban.Member)
	if member.AvatarURL != "https://avatars.example/bob" {
		t.Errorf("avatar = %q", member.AvatarURL)
	}
}

func TestWorkingStateUsesActor(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	issue := f.addIssue(t, alice, kanban.AddIssueParams{Title: "Focus", Stage: kanban.StageIssue})

	requireSuccess(t, f.service.UpdateIssueWorkingState(ctx, alice, f.projectID, issue.ID, true))
	f.clock.Advance(time.Hour)
	requireSuccess(t, f.service.UpdateIssueWorkingState(ctx, alice, f.projectID, issue.ID, false))

	history := f.load(t).FindIssue(issue.ID).WorkHistory
	if len(history) != 1 || history[0].UserID != alice.UserID {
		t.Fatalf("history = %+v", history)
	}
	if history[0].EndTime == nil || history[0].EndTime.Sub(history[0].StartTime) != time.Hour {
		t.Errorf("period = %+v, want one hour", history[0])
	}
	var texts []string
	for _, event := range f.drain() {
		if event.Name == room.EventChat {
			texts = append(texts, chatContent(t, event))
		}
	}
	if !slices.Equal(texts, []string{`"alice" start to work: Focus`, `"alice" stop to work: Focus`}) {
		t.Errorf("chat = %v", texts)
	}
}

func TestUpdateIssuePriorityText(t *testing.T) {
	f := newFixture(t, false)
	first := f.addIssue(t, alice, kanban.AddIssueParams{Title: "first"})
	second := f.addIssue(t, alice, kanban.AddIssueParams{Title: "second"})

	requireSuccess(t, f.service.UpdateIssuePriority(context.Background(), alice, f.projectID, second.ID, first.ID))
	events := f.drain()
	if got, want := chatContent(t, events[1]), `"alice" updated issue priority: inserted "second" before "first"`; got != want {
		t.Errorf("chat = %q, want %q", got, want)
	}
	if f.load(t).Issues[0].ID != second.ID {
		t.Error("second issue was not moved to the front")
	}
}

func TestMirroredAddIssueCreatesRemoteOnly(t *testing.T) {
	f := newFixture(t, true)
	ack := f.service.AddIssue(context.Background(), alice, f.projectID, kanban.AddIssueParams{Title: "From the board", Labels: []string{"bug"}})
	requireSuccess(t, ack)
	if _, hasIssue := ack.Extra["issue"]; hasIssue {
		t.Error("mirrored add acknowledged a local issue")
	}

	remote, ok := f.remote.Issue(1)
	if !ok || remote.Title != "From the board" || !slices.Equal(remote.Labels, []string{"bug"}) {
		t.Fatalf("remote issue = %+v, %v", remote, ok)
	}
	if got := len(f.load(t).Issues); got != 0 {
		t.Errorf("got %d local issues, want 0 until the webhook arrives", got)
	}
	events := f.drain()
	if got := eventNames(events); !slices.Equal(got, []string{"chat"}) {
		t.Fatalf("events = %v", got)
	}
	if got, want := chatContent(t, events[0]), `"alice" added issue via GitHub: From the board`; got != want {
		t.Errorf("chat = %q, want %q", got, want)
	}
}

func TestMirroredRemoveIssueClosesRemote(t *testing.T) {
	f := newFixture(t, true)
	f.remote.PutIssue(tracker.RemoteIssue{Number: 7, Title: "linked"})
	issue := f.addIssue(t, TrackerActor, kanban.AddIssueParams{Title: "linked", TrackerNumber: 7})

	requireSuccess(t, f.service.RemoveIssue(context.Background(), alice, f.projectID, issue.ID))
	if remote, _ := f.remote.Issue(7); !remote.Closed {
		t.Error("remote issue not closed")
	}
	if f.load(t).FindIssue(issue.ID) == nil {
		t.Error("linked issue removed locally before the tracker confirmed")
	}
}

func TestMirroredUpdateStage(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	f.remote.PutIssue(tracker.RemoteIssue{Number: 3, Title: "linked"})
	issue := f.addIssue(t, TrackerActor, kanban.AddIssueParams{Title: "linked", TrackerNumber: 3})

	requireSuccess(t, f.service.UpdateStage(ctx, alice, f.projectID, issue.ID, kanban.StageDone, kanban.KeepAssignee()))
	if remote, _ := f.remote.Issue(3); !remote.Closed {
		t.Error("moving to done did not close the remote issue")
	}

	requireSuccess(t, f.service.UpdateStage(ctx, alice, f.projectID, issue.ID, kanban.StageIssue, kanban.KeepAssignee()))
	if remote, _ := f.remote.Issue(3); remote.Closed {
		t.Error("moving out of done did not reopen the remote issue")
	}

	calls := len(f.remote.Calls())
	requireSuccess(t, f.service.UpdateStage(ctx, TrackerActor, f.projectID, issue.ID, kanban.StageDone, kanban.KeepAssignee()))
	if got := len(f.remote.Calls()); got != calls {
		t.Errorf("tracker-originated change was mirrored back (%d calls, want %d)", got, calls)
	}
}

func TestMirroredStageFailureKeepsLocalChange(t *testing.T) {
	f := newFixture(t, true)
	f.remote.PutIssue(tracker.RemoteIssue{Number: 3, Title: "linked"})
	issue := f.addIssue(t, TrackerActor, kanban.AddIssueParams{Title: "linked", TrackerNumber: 3})
	f.remote.SetFailure(errors.New("github down"))

	requireSuccess(t, f.service.UpdateStage(context.Background(), alice, f.projectID, issue.ID, kanban.StageDone, kanban.KeepAssignee()))
	if stage := f.load(t).FindIssue(issue.ID).Stage; stage != kanban.StageDone {
		t.Errorf("stage = %q, want done", stage)
	}
}

func TestMirroredLabelFailureDiscardsLocalChange(t *testing.T) {
	f := newFixture(t, true)
	f.remote.PutIssue(tracker.RemoteIssue{Number: 4, Title: "linked"})
	issue := f.addIssue(t, TrackerActor, kanban.AddIssueParams{Title: "linked", TrackerNumber: 4})
	f.remote.SetFailure(errors.New("github down"))

	ack := f.service.AttachLabel(context.Background(), alice, f.projectID, issue.ID, "bug")
	if ack.Status != StatusServerError {
		t.Fatalf("status = %q, want server error", ack.Status)
	}
	if labels := f.load(t).FindIssue(issue.ID).Labels; len(labels) != 0 {
		t.Errorf("labels = %v, want none", labels)
	}
}

func TestMirroredAttachLabel(t *testing.T) {
	f := newFixture(t, true)
	f.remote.PutIssue(tracker.RemoteIssue{Number: 4, Title: "linked"})
	issue := f.addIssue(t, TrackerActor, kanban.AddIssueParams{Title: "linked", TrackerNumber: 4})

	requireSuccess(t, f.service.AttachLabel(context.Background(), alice, f.projectID, issue.ID, "bug"))
	if remote, _ := f.remote.Issue(4); !slices.Equal(remote.Labels, []string{"bug"}) {
		t.Errorf("remote labels = %v, want [bug]", remote.Labels)
	}
	events := f.drain()
	if got, want := chatContent(t, events[1]), `"alice" attached label via GitHub: {"title":"linked","label":"bug"}`; got != want {
		t.Errorf("chat = %q, want %q", got, want)
	}
}

func TestSyncLabelAll(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	linked := f.addIssue(t, TrackerActor, kanban.AddIssueParams{Title: "linked", TrackerNumber: 1, Labels: []string{"docs"}})
	local := f.addIssue(t, alice, kanban.AddIssueParams{Title: "local", Labels: []string{"docs"}})

	f.remote.SetLabels([]kanban.Label{{Name: "feature", Color: "a2eeef"}, {Name: "bug", Color: "ffffff"}})
	f.remote.PutIssue(tracker.RemoteIssue{Number: 1, Title: "linked", Labels: []string{"feature", "bug"}})

	ack := f.service.SyncLabelAll(ctx, TrackerActor, f.projectID)
	requireSuccess(t, ack)
	if ack.Message != "done to sync label all" {
		t.Errorf("message = %q", ack.Message)
	}

	project := f.load(t)
	want := []kanban.Label{{Name: "feature", Color: "a2eeef"}, {Name: "bug", Color: "ffffff"}}
	if !slices.Equal(project.Labels, want) {
		t.Errorf("labels = %v, want %v", project.Labels, want)
	}
	if got := project.FindIssue(linked.ID).Labels; !slices.Equal(got, []string{"feature", "bug"}) {
		t.Errorf("linked issue labels = %v", got)
	}
	if got := project.FindIssue(local.ID).Labels; len(got) != 0 {
		t.Errorf("local issue kept removed label: %v", got)
	}

	events := f.drain()
	if got := eventNames(events); !slices.Equal(got, []string{"sync-label-all", "chat"}) {
		t.Fatalf("events = %v", got)
	}
	if got, want := chatContent(t, events[1]), `"GitHub" synchronized all labels. *** Please update this page. ***`; got != want {
		t.Errorf("chat = %q, want %q", got, want)
	}
}

func TestSyncLabelAllUnlinked(t *testing.T) {
	f := newFixture(t, false)
	ack := f.service.SyncLabelAll(context.Background(), alice, f.projectID)
	if ack.Status != StatusError || ack.Message != "project is not linked to a repository" {
		t.Errorf("ack = %s %q", ack.Status, ack.Message)
	}
}

func TestChatHistoryChronological(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	for i := 1; i <= 205; i++ {
		requireSuccess(t, f.service.Chat(ctx, alice, f.projectID, fmt.Sprintf("message %d", i)))
		f.clock.Advance(time.Second)
	}

	history, err := f.service.ChatHistory(ctx, f.projectID)
	if err != nil {
		t.Fatalf("ChatHistory: %v", err)
	}
	if len(history) != 200 {
		t.Fatalf("got %d entries, want 200", len(history))
	}
	if history[0].Content != "message 6" || history[199].Content != "message 205" {
		t.Errorf("history runs %q .. %q, want message 6 .. message 205", history[0].Content, history[199].Content)
	}
	if history[0].Sender != "alice" || history[0].Type != kanban.ChatTypeChat {
		t.Errorf("entry = %+v", history[0])
	}
}

func TestChatRejectsEmpty(t *testing.T) {
	f := newFixture(t, false)
	if ack := f.service.Chat(context.Background(), alice, f.projectID, "   "); ack.Status != StatusError {
		t.Errorf("status = %q, want error", ack.Status)
	}
}
