// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/kanban/lib/clock"
	"github.com/bureau-foundation/kanban/lib/kanban"
	"github.com/bureau-foundation/kanban/lib/sealed"
	"github.com/bureau-foundation/kanban/lib/testutil"
)

type recordedRequest struct {
	method        string
	path          string
	query         string
	authorization string
	body          string
}

type fakeGitHub struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
}

func (f *fakeGitHub) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	body, _ := io.ReadAll(request.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		method:        request.Method,
		path:          request.URL.Path,
		query:         request.URL.RawQuery,
		authorization: request.Header.Get("Authorization"),
		body:          string(body),
	})
	status := f.status
	f.mu.Unlock()

	if status != 0 {
		writer.WriteHeader(status)
		writer.Write([]byte(`{"message":"broken"}`))
		return
	}

	writer.Header().Set("Content-Type", "application/json")
	switch {
	case request.Method == http.MethodPost && request.URL.Path == "/repos/octo/board/issues":
		writer.WriteHeader(http.StatusCreated)
		writer.Write([]byte(`{"number":501,"title":"new"}`))
	case request.Method == http.MethodGet && request.URL.Path == "/repos/octo/board/issues":
		writer.Write([]byte(`[
			{"number":1,"title":"one","body":"b","state":"open","labels":[{"name":"bug"}],"assignee":{"login":"alice"}},
			{"number":2,"title":"pr","state":"open","pull_request":{"url":"x"}},
			{"number":3,"title":"three","state":"closed","labels":[]}
		]`))
	case request.Method == http.MethodGet && request.URL.Path == "/repos/octo/board/labels":
		writer.Write([]byte(`[{"name":"bug","color":"d73a4a"},{"name":"docs","color":"0075ca"}]`))
	case request.Method == http.MethodGet && request.URL.Path == "/users/alice":
		writer.Write([]byte(`{"login":"alice","avatar_url":"https://avatars.example/alice"}`))
	default:
		writer.Write([]byte(`{}`))
	}
}

func (f *fakeGitHub) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeGitHub) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type sourceFixture struct {
	source    *GitHubSource
	fake      *fakeGitHub
	recipient string
}

func newSourceFixture(t *testing.T) *sourceFixture {
	t.Helper()
	fake := &fakeGitHub{}
	server := httptest.NewTLSServer(fake)
	t.Cleanup(server.Close)

	keypair, err := sealed.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	t.Cleanup(func() { keypair.Close() })

	source := NewGitHubSource(GitHubConfig{
		BaseURL:          server.URL,
		HTTPClient:       server.Client(),
		Identity:         keypair.PrivateKey,
		Timeout:          5 * time.Second,
		FailureThreshold: 2,
		Cooldown:         time.Minute,
		Clock:            clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		Logger:           testutil.DiscardLogger(),
	})
	t.Cleanup(source.Close)
	return &sourceFixture{source: source, fake: fake, recipient: keypair.PublicKey}
}

func (f *sourceFixture) project(t *testing.T, token string) *kanban.Project {
	t.Helper()
	sealedToken, err := sealed.Encrypt([]byte(token), []string{f.recipient})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	return &kanban.Project{
		ID: "p1",
		Tracker: kanban.Tracker{
			Owner:       "octo",
			Repo:        "board",
			Sync:        true,
			SealedToken: sealedToken,
		},
	}
}

func TestForProjectNotLinked(t *testing.T) {
	fixture := newSourceFixture(t)
	project := fixture.project(t, "ghp_token")
	project.Tracker.SealedToken = ""

	if _, err := fixture.source.ForProject(context.Background(), project); !errors.Is(err, ErrNotLinked) {
		t.Fatalf("got %v, want ErrNotLinked", err)
	}
}

func TestGitHubTrackerOperations(t *testing.T) {
	fixture := newSourceFixture(t)
	ctx := context.Background()
	tracker, err := fixture.source.ForProject(ctx, fixture.project(t, "ghp_token"))
	if err != nil {
		t.Fatalf("ForProject: %v", err)
	}

	number, err := tracker.CreateIssue(ctx, "new", "body", []string{"bug"})
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}
	if number != 501 {
		t.Errorf("number = %d, want 501", number)
	}
	if got := fixture.fake.last().authorization; got != "Bearer ghp_token" {
		t.Errorf("authorization = %q, want unsealed token", got)
	}

	if err := tracker.SetIssueClosed(ctx, 7, true); err != nil {
		t.Fatalf("SetIssueClosed: %v", err)
	}
	request := fixture.fake.last()
	var patch map[string]string
	json.Unmarshal([]byte(request.body), &patch)
	if request.method != http.MethodPatch || request.path != "/repos/octo/board/issues/7" || patch["state"] != "closed" {
		t.Errorf("close request = %s %s %s", request.method, request.path, request.body)
	}

	if err := tracker.SetIssueLabels(ctx, 7, nil); err != nil {
		t.Fatalf("SetIssueLabels: %v", err)
	}
	request = fixture.fake.last()
	if request.method != http.MethodPut || request.path != "/repos/octo/board/issues/7/labels" {
		t.Errorf("labels request = %s %s", request.method, request.path)
	}

	labels, err := tracker.ListLabels(ctx)
	if err != nil {
		t.Fatalf("ListLabels: %v", err)
	}
	want := []kanban.Label{{Name: "bug", Color: "d73a4a"}, {Name: "docs", Color: "0075ca"}}
	if !slices.Equal(labels, want) {
		t.Errorf("labels = %v, want %v", labels, want)
	}

	issues, err := tracker.ListIssues(ctx)
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("got %d issues, want 2 (pull request excluded)", len(issues))
	}
	if issues[0].Assignee != "alice" || !slices.Equal(issues[0].Labels, []string{"bug"}) || issues[0].Closed {
		t.Errorf("issue 1 = %+v", issues[0])
	}
	if !issues[1].Closed {
		t.Errorf("issue 3 should be closed: %+v", issues[1])
	}
	if query := fixture.fake.last().query; query != "per_page=100&state=all" {
		t.Errorf("list query = %q", query)
	}

	avatar, err := tracker.AvatarURL(ctx, "alice")
	if err != nil {
		t.Fatalf("AvatarURL: %v", err)
	}
	if avatar != "https://avatars.example/alice" {
		t.Errorf("avatar = %q", avatar)
	}
}

func TestForProjectRotatedToken(t *testing.T) {
	fixture := newSourceFixture(t)
	ctx := context.Background()

	first, err := fixture.source.ForProject(ctx, fixture.project(t, "ghp_old"))
	if err != nil {
		t.Fatalf("ForProject: %v", err)
	}
	second, err := fixture.source.ForProject(ctx, fixture.project(t, "ghp_new"))
	if err != nil {
		t.Fatalf("ForProject: %v", err)
	}

	if _, err := second.CreateIssue(ctx, "t", "", nil); err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}
	if got := fixture.fake.last().authorization; got != "Bearer ghp_new" {
		t.Errorf("authorization = %q, want rotated token", got)
	}

	// The old client's token was released on rotation.
	if _, err := first.CreateIssue(ctx, "t", "", nil); err == nil {
		t.Error("old tracker still authenticates after rotation")
	}
}

func TestForProjectBadSealedToken(t *testing.T) {
	fixture := newSourceFixture(t)
	project := fixture.project(t, "ghp_token")
	project.Tracker.SealedToken = "bm90IGFnZQ=="

	if _, err := fixture.source.ForProject(context.Background(), project); err == nil {
		t.Fatal("expected unseal error")
	}
}

func TestGitHubTrackerBreakerOpens(t *testing.T) {
	fixture := newSourceFixture(t)
	fixture.fake.status = http.StatusBadGateway
	ctx := context.Background()
	tracker, err := fixture.source.ForProject(ctx, fixture.project(t, "ghp_token"))
	if err != nil {
		t.Fatalf("ForProject: %v", err)
	}

	for range 2 {
		if err := tracker.SetIssueClosed(ctx, 1, true); err == nil {
			t.Fatal("expected server error")
		}
	}
	before := fixture.fake.count()
	if err := tracker.SetIssueClosed(ctx, 1, true); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("got %v, want ErrCircuitOpen", err)
	}
	if fixture.fake.count() != before {
		t.Error("request reached the server while the circuit was open")
	}
}

func TestGitHubTrackerNotFoundKeepsCircuitClosed(t *testing.T) {
	fixture := newSourceFixture(t)
	fixture.fake.status = http.StatusNotFound
	ctx := context.Background()
	tracker, err := fixture.source.ForProject(ctx, fixture.project(t, "ghp_token"))
	if err != nil {
		t.Fatalf("ForProject: %v", err)
	}
	for range 3 {
		tracker.SetIssueClosed(ctx, 1, true)
	}
	if state := fixture.source.Breaker().State(); state != "closed" {
		t.Fatalf("state = %q, want closed", state)
	}
}
