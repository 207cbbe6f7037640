// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/kanban/lib/clock"
	"github.com/bureau-foundation/kanban/lib/github"
	"github.com/bureau-foundation/kanban/lib/kanban"
	"github.com/bureau-foundation/kanban/lib/sealed"
	"github.com/bureau-foundation/kanban/lib/secret"
)

// GitHubConfig configures a GitHubSource.
type GitHubConfig struct {
	// BaseURL is the REST API root. Defaults to the public API.
	BaseURL string

	// HTTPClient is passed to every github.Client. Optional.
	HTTPClient *http.Client

	// Identity is the age private key that unseals project tokens.
	// Required. The source does not take ownership.
	Identity *secret.Buffer

	// Timeout bounds each tracker call. Defaults to 10 seconds.
	Timeout time.Duration

	// FailureThreshold and Cooldown configure the shared breaker.
	FailureThreshold int
	Cooldown         time.Duration

	Clock  clock.Clock
	Logger *slog.Logger
}

// GitHubSource resolves projects to GitHub repositories.
type GitHubSource struct {
	config  GitHubConfig
	breaker *Breaker
	logger  *slog.Logger

	mu      sync.Mutex
	clients map[string]*cachedClient // project ID
}

type cachedClient struct {
	key    [32]byte
	token  *secret.Buffer
	client *github.Client
}

// NewGitHubSource creates a source. Panics if Identity, Clock or
// Logger is missing.
func NewGitHubSource(config GitHubConfig) *GitHubSource {
	if config.Identity == nil {
		panic("tracker.GitHubSource: Identity is required")
	}
	if config.Clock == nil {
		panic("tracker.GitHubSource: Clock is required")
	}
	if config.Logger == nil {
		panic("tracker.GitHubSource: Logger is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Cooldown <= 0 {
		config.Cooldown = 30 * time.Second
	}
	return &GitHubSource{
		config:  config,
		breaker: NewBreaker(config.FailureThreshold, config.Cooldown, config.Clock, config.Logger, isTrackerFailure),
		logger:  config.Logger,
		clients: make(map[string]*cachedClient),
	}
}

// ForProject returns the GitHub tracker of a project that names a
// repository and carries a sealed token. Whether changes are pushed is
// the caller's decision (kanban.Tracker.Mirrors).
func (s *GitHubSource) ForProject(ctx context.Context, project *kanban.Project) (Tracker, error) {
	if !project.Tracker.Authorized() {
		return nil, ErrNotLinked
	}
	client, err := s.client(project.ID, project.Tracker.SealedToken)
	if err != nil {
		return nil, err
	}
	return &githubTracker{
		repository: client.Repository(project.Tracker.Owner, project.Tracker.Repo),
		client:     client,
		timeout:    s.config.Timeout,
		breaker: s.breaker,
	}, nil
}

// Breaker exposes the shared breaker state for logging.
func (s *GitHubSource) Breaker() *Breaker {
	return s.breaker
}

// Close releases every cached token.
func (s *GitHubSource) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for projectID, cached := range s.clients {
		cached.token.Close()
		delete(s.clients, projectID)
	}
}

func (s *GitHubSource) client(projectID, sealedToken string) (*github.Client, error) {
	key := blake3.Sum256([]byte(sealedToken))

	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.clients[projectID]; ok {
		if cached.key == key {
			return cached.client, nil
		}
		// The project was relinked with a new token.
		cached.token.Close()
		delete(s.clients, projectID)
	}

	token, err := sealed.Decrypt(sealedToken, s.config.Identity)
	if err != nil {
		return nil, fmt.Errorf("tracker: unsealing token of project %s: %w", projectID, err)
	}
	client, err := github.New(github.Options{
		BaseURL:    s.config.BaseURL,
		Token:      token,
		HTTPClient: s.config.HTTPClient,
		Clock:      s.config.Clock,
		Logger:     s.logger.With("project_id", projectID),
	})
	if err != nil {
		token.Close()
		return nil, fmt.Errorf("tracker: %w", err)
	}
	s.clients[projectID] = &cachedClient{key: key, token: token, client: client}
	return client, nil
}

// isTrackerFailure reports whether err says the tracker is unhealthy,
// as opposed to the request being wrong.
func isTrackerFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var failure *github.ResponseError
	if errors.As(err, &failure) {
		return failure.Transient()
	}
	return true
}

type githubTracker struct {
	repository *github.Repository
	client     *github.Client
	timeout    time.Duration
	breaker    *Breaker
}

func (t *githubTracker) call(ctx context.Context, operation func(context.Context) error) error {
	return t.breaker.Do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, t.timeout)
		defer cancel()
		return operation(ctx)
	})
}

func (t *githubTracker) CreateIssue(ctx context.Context, title, body string, labels []string) (int, error) {
	var number int
	err := t.call(ctx, func(ctx context.Context) error {
		issue, err := t.repository.CreateIssue(ctx, github.NewIssue{
			Title:  title,
			Body:   body,
			Labels: labels,
		})
		if err != nil {
			return err
		}
		number = issue.Number
		return nil
	})
	return number, err
}

func (t *githubTracker) SetIssueClosed(ctx context.Context, number int, closed bool) error {
	return t.call(ctx, func(ctx context.Context) error {
		return t.repository.SetIssueClosed(ctx, number, closed)
	})
}

func (t *githubTracker) SetIssueLabels(ctx context.Context, number int, labels []string) error {
	return t.call(ctx, func(ctx context.Context) error {
		return t.repository.ReplaceIssueLabels(ctx, number, labels)
	})
}

func (t *githubTracker) ListLabels(ctx context.Context) ([]kanban.Label, error) {
	var labels []kanban.Label
	err := t.call(ctx, func(ctx context.Context) error {
		remote, err := t.repository.Labels(ctx)
		if err != nil {
			return err
		}
		labels = make([]kanban.Label, len(remote))
		for i, label := range remote {
			labels[i] = kanban.Label{Name: label.Name, Color: label.Color}
		}
		return nil
	})
	return labels, err
}

func (t *githubTracker) ListIssues(ctx context.Context) ([]RemoteIssue, error) {
	var issues []RemoteIssue
	err := t.call(ctx, func(ctx context.Context) error {
		remote, err := t.repository.Issues(ctx, "all")
		if err != nil {
			return err
		}
		issues = make([]RemoteIssue, len(remote))
		for i := range remote {
			issues[i] = FromGitHubIssue(&remote[i])
		}
		return nil
	})
	return issues, err
}

func (t *githubTracker) AvatarURL(ctx context.Context, login string) (string, error) {
	var avatarURL string
	err := t.call(ctx, func(ctx context.Context) error {
		user, err := t.client.User(ctx, login)
		if err != nil {
			return err
		}
		avatarURL = user.AvatarURL
		return nil
	})
	return avatarURL, err
}

// FromGitHubIssue converts an API or webhook issue.
func FromGitHubIssue(issue *github.Issue) RemoteIssue {
	remote := RemoteIssue{
		Number: issue.Number,
		Title:  issue.Title,
		Body:   issue.Body,
		Closed: issue.State == github.StateClosed,
		Labels: issue.LabelNames(),
	}
	if issue.Assignee != nil {
		remote.Assignee = issue.Assignee.Login
	}
	return remote
}
