// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/kanban/lib/github"
	"github.com/bureau-foundation/kanban/lib/kanban"
	"github.com/bureau-foundation/kanban/lib/sealed"
	"github.com/bureau-foundation/kanban/lib/secret"
	"github.com/bureau-foundation/kanban/lib/service"
	"github.com/bureau-foundation/kanban/lib/sessiontoken"
	"github.com/bureau-foundation/kanban/lib/store"
)

func runInitKeys(_ context.Context, a *Admin, args []string) error {
	flagSet := pflag.NewFlagSet("init-keys", pflag.ContinueOnError)
	if err := parseFlags(flagSet, args); err != nil {
		return err
	}
	stateDir := a.config.Paths.State

	_, _, generated, err := sessiontoken.LoadOrGenerateKeypair(stateDir)
	if err != nil {
		return err
	}
	if generated {
		fmt.Fprintf(a.Stdout, "created session signing key in %s\n", stateDir)
	} else {
		fmt.Fprintf(a.Stdout, "session signing key already present in %s\n", stateDir)
	}

	exists, err := sealed.KeypairExists(stateDir)
	if err != nil {
		return err
	}
	if !exists {
		keypair, err := sealed.GenerateKeypair()
		if err != nil {
			return err
		}
		defer keypair.Close()
		if err := sealed.SaveKeypair(stateDir, keypair); err != nil {
			return err
		}
		fmt.Fprintf(a.Stdout, "created tracker identity in %s\n", stateDir)
	} else {
		fmt.Fprintf(a.Stdout, "tracker identity already present in %s\n", stateDir)
	}

	recipient, err := sealed.LoadRecipient(stateDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "tracker recipient: %s\n", recipient)
	return nil
}

func runCreateProject(ctx context.Context, a *Admin, args []string) error {
	var name, owner string
	flagSet := pflag.NewFlagSet("create-project", pflag.ContinueOnError)
	flagSet.StringVar(&name, "name", "", "project name")
	flagSet.StringVar(&owner, "owner", "", "GitHub login of the first member")
	if err := parseFlags(flagSet, args); err != nil {
		return err
	}
	if err := required("create-project", map[string]string{"name": name, "owner": owner}); err != nil {
		return err
	}

	documents, err := a.openStore()
	if err != nil {
		return err
	}
	defer documents.Close()

	creator, err := documents.FindOrCreateUser(ctx, owner, "")
	if err != nil {
		return err
	}
	project := kanban.NewProject(uuid.NewString(), name, creator, a.Clock.Now())
	if err := documents.CreateProject(ctx, project); err != nil {
		return err
	}
	fmt.Fprintln(a.Stdout, project.ID)
	return nil
}

func runListProjects(ctx context.Context, a *Admin, args []string) error {
	flagSet := pflag.NewFlagSet("list-projects", pflag.ContinueOnError)
	if err := parseFlags(flagSet, args); err != nil {
		return err
	}
	documents, err := a.openStore()
	if err != nil {
		return err
	}
	defer documents.Close()

	projects, err := documents.ListProjects(ctx)
	if err != nil {
		return err
	}
	for _, project := range projects {
		fmt.Fprintf(a.Stdout, "%s\t%s\t%s\n", project.ID, project.Name, project.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

func runLinkRepository(ctx context.Context, a *Admin, args []string) error {
	var projectID, repository, tokenFile, webhookURL string
	var sync bool
	flagSet := pflag.NewFlagSet("link-repository", pflag.ContinueOnError)
	flagSet.StringVar(&projectID, "project", "", "project ID")
	flagSet.StringVar(&repository, "repo", "", "repository as owner/name")
	flagSet.StringVar(&tokenFile, "token-file", "", "file holding the repository access token, or - for stdin")
	flagSet.BoolVar(&sync, "sync", true, "mirror board changes to the repository")
	flagSet.StringVar(&webhookURL, "webhook-url", "", "public base URL of the webhook listener; when set, the repository webhook is created")
	if err := parseFlags(flagSet, args); err != nil {
		return err
	}
	if err := required("link-repository", map[string]string{
		"project": projectID, "repo": repository, "token-file": tokenFile,
	}); err != nil {
		return err
	}
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return usagef("link-repository: --repo must be owner/name, got %q", repository)
	}

	recipient, err := sealed.LoadRecipient(a.config.Paths.State)
	if err != nil {
		return fmt.Errorf("%w (run kanban-admin init-keys)", err)
	}
	token, err := secret.ReadFile(tokenFile)
	if err != nil {
		return err
	}
	defer token.Close()
	sealedToken, err := sealed.Encrypt(token.Bytes(), []string{recipient})
	if err != nil {
		return err
	}

	documents, err := a.openStore()
	if err != nil {
		return err
	}
	defer documents.Close()

	project, err := loadProject(ctx, documents, projectID)
	if err != nil {
		return err
	}
	project.Tracker = kanban.Tracker{Owner: owner, Repo: repo, Sync: sync, SealedToken: sealedToken}
	if _, err := documents.SaveProject(ctx, project); err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "linked %s to %s/%s (sync %t)\n", project.ID, owner, repo, sync)

	masterSecret, err := a.config.ReadWebhookSecret()
	if err != nil {
		return err
	}
	var webhookSecret string
	if len(masterSecret) > 0 {
		webhookSecret, err = service.ProjectWebhookSecret(masterSecret, project.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Stdout, "webhook secret: %s\n", webhookSecret)
	}
	if webhookURL == "" {
		return nil
	}

	client, err := github.New(github.Options{
		BaseURL:    a.config.Tracker.APIURL,
		Token:      token,
		HTTPClient: a.HTTPClient,
		Clock:      a.Clock,
		Logger:     a.Logger,
	})
	if err != nil {
		return err
	}
	repoClient := client.Repository(owner, repo)
	deliveryURL := strings.TrimRight(webhookURL, "/") + "/" + project.ID
	existing, err := repoClient.FindHook(ctx, deliveryURL)
	if err != nil {
		return err
	}
	if existing != nil {
		fmt.Fprintf(a.Stdout, "webhook %d already delivers to %s\n", existing.ID, deliveryURL)
		return nil
	}
	created, err := repoClient.CreateHook(ctx, deliveryURL, webhookSecret, []string{"issues"})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "created webhook %d delivering to %s\n", created.ID, deliveryURL)
	return nil
}

func runMintSession(ctx context.Context, a *Admin, args []string) error {
	var userName string
	var ttl time.Duration
	flagSet := pflag.NewFlagSet("mint-session", pflag.ContinueOnError)
	flagSet.StringVar(&userName, "user", "", "GitHub login of the user")
	flagSet.DurationVar(&ttl, "ttl", 0, "token lifetime (default: session.ttl from the config)")
	if err := parseFlags(flagSet, args); err != nil {
		return err
	}
	if err := required("mint-session", map[string]string{"user": userName}); err != nil {
		return err
	}
	if ttl == 0 {
		ttl = a.config.Session.TTL
	}
	if ttl < 0 {
		return usagef("mint-session: --ttl must be positive")
	}

	_, privateKey, err := sessiontoken.LoadKeypair(a.config.Paths.State)
	if err != nil {
		return fmt.Errorf("%w (run kanban-admin init-keys)", err)
	}

	documents, err := a.openStore()
	if err != nil {
		return err
	}
	defer documents.Close()

	user, err := documents.FindOrCreateUser(ctx, userName, "")
	if err != nil {
		return err
	}
	tokenBytes, err := sessiontoken.Mint(privateKey, sessiontoken.New(user.UserName, user.ID, a.Clock.Now(), ttl))
	if err != nil {
		return err
	}
	fmt.Fprintln(a.Stdout, sessiontoken.Encode(tokenBytes))
	return nil
}

func runAddLabel(ctx context.Context, a *Admin, args []string) error {
	var projectID, name, color string
	flagSet := pflag.NewFlagSet("add-label", pflag.ContinueOnError)
	flagSet.StringVar(&projectID, "project", "", "project ID")
	flagSet.StringVar(&name, "name", "", "label name")
	flagSet.StringVar(&color, "color", "", "six hex digits, without #")
	if err := parseFlags(flagSet, args); err != nil {
		return err
	}
	if err := required("add-label", map[string]string{"project": projectID, "name": name, "color": color}); err != nil {
		return err
	}

	documents, err := a.openStore()
	if err != nil {
		return err
	}
	defer documents.Close()

	project, err := loadProject(ctx, documents, projectID)
	if err != nil {
		return err
	}
	if err := project.AddLabel(kanban.Label{Name: name, Color: strings.TrimPrefix(color, "#")}); err != nil {
		return err
	}
	if _, err := documents.SaveProject(ctx, project); err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "added label %s to %s\n", name, project.ID)
	return nil
}

func loadProject(ctx context.Context, documents *store.Store, projectID string) (*kanban.Project, error) {
	project, err := documents.LoadProject(ctx, projectID)
	if errors.Is(err, store.ErrProjectNotFound) {
		return nil, fmt.Errorf("project not found: %s", projectID)
	}
	return project, err
}
