// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/kanban/lib/clock"
	"github.com/bureau-foundation/kanban/lib/codec"
	"github.com/bureau-foundation/kanban/lib/config"
	"github.com/bureau-foundation/kanban/lib/process"
	"github.com/bureau-foundation/kanban/lib/store"
	"github.com/bureau-foundation/kanban/lib/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	admin := &Admin{
		Stdout: os.Stdout,
		Clock:  clock.Real(),
		Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
	}
	if err := admin.Run(ctx, os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

// usageError is a command-line mistake. It exits with status 2.
type usageError struct {
	message string
}

func (e *usageError) Error() string { return e.message }
func (e *usageError) ExitCode() int { return 2 }

func usagef(format string, args ...any) error {
	return &usageError{message: fmt.Sprintf(format, args...)}
}

// command is one subcommand. run receives the arguments after the
// command name.
type command struct {
	summary string
	run     func(ctx context.Context, admin *Admin, args []string) error
}

var commands = map[string]command{
	"init-keys":       {"create the session signing key and the tracker identity", runInitKeys},
	"create-project":  {"create a project", runCreateProject},
	"list-projects":   {"print every project", runListProjects},
	"link-repository": {"link a project to a GitHub repository", runLinkRepository},
	"mint-session":    {"issue a realtime session token", runMintSession},
	"add-label":       {"define a project label", runAddLabel},
}

// Admin carries what every command needs. Tests build one directly.
type Admin struct {
	Stdout io.Writer
	Clock  clock.Clock
	Logger *slog.Logger

	// HTTPClient is used for GitHub API calls. Nil uses
	// http.DefaultClient.
	HTTPClient *http.Client

	config *config.Config
}

// Run parses the global flags and dispatches to a command.
func (a *Admin) Run(ctx context.Context, args []string) error {
	var configPath string
	var showVersion bool

	flagSet := pflag.NewFlagSet("kanban-admin", pflag.ContinueOnError)
	flagSet.SetOutput(a.Stdout)
	flagSet.StringVar(&configPath, "config", "", "path to kanban.yaml (default: $KANBAN_CONFIG)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.SetInterspersed(false)
	flagSet.Usage = func() { a.printUsage(flagSet) }
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return usagef("%v", err)
	}
	if showVersion {
		version.Fprint(a.Stdout, "kanban-admin")
		return nil
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		a.printUsage(flagSet)
		return usagef("no command given")
	}
	selected, ok := commands[rest[0]]
	if !ok {
		return usagef("unknown command %q", rest[0])
	}

	var err error
	if configPath != "" {
		a.config, err = config.LoadFile(configPath)
	} else {
		a.config, err = config.Load()
	}
	if err != nil {
		return err
	}
	if err := a.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}
	if err := a.config.EnsurePaths(); err != nil {
		return err
	}
	return selected.run(ctx, a, rest[1:])
}

func (a *Admin) printUsage(flagSet *pflag.FlagSet) {
	fmt.Fprintf(a.Stdout, "usage: kanban-admin [--config FILE] <command> [flags]\n\ncommands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(a.Stdout, "  %-16s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(a.Stdout, "\nflags:\n%s", flagSet.FlagUsages())
}

// openStore opens the configured document store. The caller closes
// it.
func (a *Admin) openStore() (*store.Store, error) {
	compression, err := codec.ParseCompression(a.config.Store.Compression)
	if err != nil {
		return nil, err
	}
	return store.Open(store.Config{
		Path:        a.config.Paths.Database,
		PoolSize:    1,
		Compression: compression,
		Clock:       a.Clock,
		Logger:      a.Logger,
	})
}

// parseFlags parses a command's flags, reporting problems as usage
// errors.
func parseFlags(flagSet *pflag.FlagSet, args []string) error {
	if err := flagSet.Parse(args); err != nil {
		return usagef("%s: %v", flagSet.Name(), err)
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return usagef("%s: unexpected arguments %v", flagSet.Name(), extra)
	}
	return nil
}

// required reports the first empty flag value as a usage error.
func required(command string, values map[string]string) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if values[name] == "" {
			return usagef("%s: --%s is required", command, name)
		}
	}
	return nil
}
