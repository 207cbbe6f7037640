// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/kanban/lib/clock"
	"github.com/bureau-foundation/kanban/lib/codec"
	"github.com/bureau-foundation/kanban/lib/github"
	"github.com/bureau-foundation/kanban/lib/process"
	"github.com/bureau-foundation/kanban/lib/sealed"
	"github.com/bureau-foundation/kanban/lib/service"
	"github.com/bureau-foundation/kanban/lib/sessiontoken"
	"github.com/bureau-foundation/kanban/lib/store"
	"github.com/bureau-foundation/kanban/lib/testutil"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type adminFixture struct {
	dir        string
	configPath string
	clock      *clock.FakeClock
	httpClient *http.Client
}

func newAdminFixture(t *testing.T, apiURL string) *adminFixture {
	t.Helper()
	dir := t.TempDir()
	if apiURL == "" {
		apiURL = "https://api.github.com"
	}
	secretPath := filepath.Join(dir, "webhook-secret")
	if err := os.WriteFile(secretPath, []byte("master-secret\n"), 0o600); err != nil {
		t.Fatalf("writing webhook secret: %v", err)
	}
	document := fmt.Sprintf(`
environment: development
paths:
  root: %[1]s
  state: %[1]s/state
  database: %[1]s/data/kanban.db
webhook:
  secret_file: %[2]s
tracker:
  api_url: %[3]s
session:
  ttl: 2h
`, dir, secretPath, apiURL)
	configPath := filepath.Join(dir, "kanban.yaml")
	if err := os.WriteFile(configPath, []byte(document), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return &adminFixture{dir: dir, configPath: configPath, clock: clock.Fake(epoch)}
}

func (f *adminFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	admin := &Admin{
		Stdout:     &stdout,
		Clock:      f.clock,
		Logger:     testutil.DiscardLogger(),
		HTTPClient: f.httpClient,
	}
	err := admin.Run(context.Background(), append([]string{"--config", f.configPath}, args...))
	return stdout.String(), err
}

func (f *adminFixture) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	output, err := f.run(t, args...)
	if err != nil {
		t.Fatalf("kanban-admin %s: %v", strings.Join(args, " "), err)
	}
	return output
}

func (f *adminFixture) openStore(t *testing.T) *store.Store {
	t.Helper()
	documents, err := store.Open(store.Config{
		Path:        filepath.Join(f.dir, "data", "kanban.db"),
		Compression: codec.CompressionZstd,
		Clock:       f.clock,
		Logger:      testutil.DiscardLogger(),
	})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { documents.Close() })
	return documents
}

func TestInitKeysIsIdempotent(t *testing.T) {
	f := newAdminFixture(t, "")

	first := f.mustRun(t, "init-keys")
	if !strings.Contains(first, "created session signing key") || !strings.Contains(first, "created tracker identity") {
		t.Errorf("first run output:\n%s", first)
	}
	if !strings.Contains(first, "tracker recipient: age1") {
		t.Errorf("first run did not print the recipient:\n%s", first)
	}

	second := f.mustRun(t, "init-keys")
	if strings.Contains(second, "created") {
		t.Errorf("second run recreated keys:\n%s", second)
	}
}

func TestCreateAndListProjects(t *testing.T) {
	f := newAdminFixture(t, "")
	projectID := strings.TrimSpace(f.mustRun(t, "create-project", "--name", "Roadmap", "--owner", "alice"))
	if projectID == "" {
		t.Fatal("create-project printed no ID")
	}

	listing := f.mustRun(t, "list-projects")
	if !strings.HasPrefix(listing, projectID+"\tRoadmap\t") {
		t.Errorf("list-projects = %q", listing)
	}

	project, err := f.openStore(t).LoadProject(context.Background(), projectID)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if len(project.Members) != 1 || project.Members[0].UserName != "alice" {
		t.Errorf("members = %+v, want alice", project.Members)
	}
}

func TestMintSession(t *testing.T) {
	f := newAdminFixture(t, "")
	if _, err := f.run(t, "mint-session", "--user", "alice"); err == nil {
		t.Fatal("mint-session without keys succeeded")
	}
	f.mustRun(t, "init-keys")

	encoded := strings.TrimSpace(f.mustRun(t, "mint-session", "--user", "alice"))
	publicKey, err := sessiontoken.LoadPublicKey(filepath.Join(f.dir, "state"))
	if err != nil {
		t.Fatalf("LoadPublicKey: %v", err)
	}
	token, err := sessiontoken.NewVerifier(publicKey, f.clock.Now).Verify(encoded)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if token.Subject != "alice" || token.UserID == "" {
		t.Errorf("token = %+v", token)
	}
	if got := time.Unix(token.ExpiresAt, 0).Sub(epoch); got != 2*time.Hour {
		t.Errorf("lifetime = %v, want the configured 2h", got)
	}

	f.clock.Advance(3 * time.Hour)
	if _, err := sessiontoken.NewVerifier(publicKey, f.clock.Now).Verify(encoded); !errors.Is(err, sessiontoken.ErrTokenExpired) {
		t.Errorf("Verify after expiry = %v, want ErrTokenExpired", err)
	}
}

func TestAddLabel(t *testing.T) {
	f := newAdminFixture(t, "")
	projectID := strings.TrimSpace(f.mustRun(t, "create-project", "--name", "Roadmap", "--owner", "alice"))

	f.mustRun(t, "add-label", "--project", projectID, "--name", "bug", "--color", "#D73A4A")
	if _, err := f.run(t, "add-label", "--project", projectID, "--name", "bug", "--color", "d73a4a"); err == nil {
		t.Error("duplicate label was accepted")
	}
	if _, err := f.run(t, "add-label", "--project", projectID, "--name", "docs", "--color", "blue"); err == nil {
		t.Error("invalid color was accepted")
	}
	if _, err := f.run(t, "add-label", "--project", "missing", "--name", "docs", "--color", "0075ca"); err == nil ||
		!strings.Contains(err.Error(), "project not found") {
		t.Errorf("unknown project error = %v", err)
	}

	project, err := f.openStore(t).LoadProject(context.Background(), projectID)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if len(project.Labels) != 1 || project.Labels[0].Color != "D73A4A" {
		t.Errorf("labels = %+v", project.Labels)
	}
}

// fakeHooks serves the repository webhook endpoints.
type fakeHooks struct {
	mu       sync.Mutex
	hooks    []github.Webhook
	created  []github.Webhook
	bearer   string
	requests int
}

func (h *fakeHooks) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests++
	h.bearer = request.Header.Get("Authorization")
	if request.URL.Path != "/repos/octo/board/hooks" {
		http.NotFound(writer, request)
		return
	}
	writer.Header().Set("Content-Type", "application/json")
	switch request.Method {
	case http.MethodGet:
		json.NewEncoder(writer).Encode(h.hooks)
	case http.MethodPost:
		var create github.Webhook
		json.NewDecoder(request.Body).Decode(&create)
		h.created = append(h.created, create)
		hook := github.Webhook{ID: int64(len(h.hooks) + 1), Active: true, Events: create.Events}
		hook.Config.URL = create.Config.URL
		h.hooks = append(h.hooks, hook)
		writer.WriteHeader(http.StatusCreated)
		json.NewEncoder(writer).Encode(hook)
	default:
		http.Error(writer, "", http.StatusMethodNotAllowed)
	}
}

func TestLinkRepository(t *testing.T) {
	hooks := &fakeHooks{}
	server := httptest.NewTLSServer(hooks)
	t.Cleanup(server.Close)

	f := newAdminFixture(t, server.URL)
	f.httpClient = server.Client()
	f.mustRun(t, "init-keys")
	projectID := strings.TrimSpace(f.mustRun(t, "create-project", "--name", "Roadmap", "--owner", "alice"))

	tokenPath := filepath.Join(f.dir, "token")
	if err := os.WriteFile(tokenPath, []byte("ghp_example\n"), 0o600); err != nil {
		t.Fatalf("writing token: %v", err)
	}
	args := []string{"link-repository", "--project", projectID, "--repo", "octo/board",
		"--token-file", tokenPath, "--webhook-url", "https://kanban.example/hooks/"}

	output := f.mustRun(t, args...)
	wantSecret, _ := service.ProjectWebhookSecret([]byte("master-secret"), projectID)
	if !strings.Contains(output, "webhook secret: "+wantSecret) {
		t.Errorf("output does not carry the derived secret:\n%s", output)
	}
	if len(hooks.created) != 1 {
		t.Fatalf("created %d webhooks, want 1", len(hooks.created))
	}
	created := hooks.created[0]
	if created.Config.URL != "https://kanban.example/hooks/"+projectID || created.Config.Secret != wantSecret {
		t.Errorf("webhook config = %+v", created.Config)
	}
	if hooks.bearer != "Bearer ghp_example" {
		t.Errorf("Authorization = %q", hooks.bearer)
	}

	project, err := f.openStore(t).LoadProject(context.Background(), projectID)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if project.Tracker.Owner != "octo" || project.Tracker.Repo != "board" || !project.Tracker.Mirrors() {
		t.Errorf("tracker = %+v", project.Tracker)
	}
	identity, err := sealed.LoadIdentity(filepath.Join(f.dir, "state"))
	if err != nil {
		t.Fatalf("LoadIdentity: %v", err)
	}
	defer identity.Close()
	token, err := sealed.Decrypt(project.Tracker.SealedToken, identity)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	defer token.Close()
	if token.String() != "ghp_example" {
		t.Errorf("sealed token = %q", token.String())
	}

	// Linking again finds the existing webhook.
	output = f.mustRun(t, args...)
	if !strings.Contains(output, "already delivers") || len(hooks.created) != 1 {
		t.Errorf("relink created another webhook:\n%s", output)
	}
}

func TestUsageErrors(t *testing.T) {
	f := newAdminFixture(t, "")
	tests := []struct {
		name string
		args []string
	}{
		{"no_command", nil},
		{"unknown_command", []string{"launch"}},
		{"missing_flag", []string{"create-project", "--name", "Roadmap"}},
		{"bad_repo", []string{"link-repository", "--project", "p", "--repo", "octo", "--token-file", "t"}},
		{"stray_argument", []string{"list-projects", "extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.run(t, tt.args...)
			var coder process.ExitCoder
			if !errors.As(err, &coder) || coder.ExitCode() != 2 {
				t.Errorf("error = %v, want a usage error", err)
			}
		})
	}
}
