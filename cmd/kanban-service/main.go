// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/kanban/lib/board"
	"github.com/bureau-foundation/kanban/lib/clock"
	"github.com/bureau-foundation/kanban/lib/codec"
	"github.com/bureau-foundation/kanban/lib/config"
	"github.com/bureau-foundation/kanban/lib/markdown"
	"github.com/bureau-foundation/kanban/lib/mutationqueue"
	"github.com/bureau-foundation/kanban/lib/presence"
	"github.com/bureau-foundation/kanban/lib/process"
	"github.com/bureau-foundation/kanban/lib/realtime"
	"github.com/bureau-foundation/kanban/lib/reconcile"
	"github.com/bureau-foundation/kanban/lib/room"
	"github.com/bureau-foundation/kanban/lib/sealed"
	"github.com/bureau-foundation/kanban/lib/service"
	"github.com/bureau-foundation/kanban/lib/sessiontoken"
	"github.com/bureau-foundation/kanban/lib/store"
	"github.com/bureau-foundation/kanban/lib/tracker"
	"github.com/bureau-foundation/kanban/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var configPath, logLevel string
	var showVersion bool

	flagSet := pflag.NewFlagSet("kanban-service", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to kanban.yaml (default: $KANBAN_CONFIG)")
	flagSet.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		version.Print("kanban-service")
		return nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, clock.Real(), logger)
}

func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// serve wires the service together and runs both listeners until ctx
// is cancelled.
func serve(ctx context.Context, cfg *config.Config, clk clock.Clock, logger *slog.Logger) error {
	compression, err := codec.ParseCompression(cfg.Store.Compression)
	if err != nil {
		return err
	}
	documents, err := store.Open(store.Config{
		Path:        cfg.Paths.Database,
		PoolSize:    cfg.Store.PoolSize,
		Compression: compression,
		Clock:       clk,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer documents.Close()

	publicKey, err := sessiontoken.LoadPublicKey(cfg.Paths.State)
	if err != nil {
		return fmt.Errorf("%w (run kanban-admin init-keys)", err)
	}

	trackers, closeTrackers, err := openTrackers(cfg, clk, logger)
	if err != nil {
		return err
	}
	defer closeTrackers()

	masterSecret, err := cfg.ReadWebhookSecret()
	if err != nil {
		return err
	}

	rooms := room.NewManager(documents, clk, logger)
	boardService := board.New(board.Config{
		Store:        documents,
		Queue:        mutationqueue.New(logger),
		Rooms:        rooms,
		Trackers:     trackers,
		Markdown:     markdown.New(),
		HistoryLimit: cfg.Chat.HistoryLimit,
		Clock:        clk,
		Logger:       logger,
	})
	hub := realtime.NewHub(boardService, presence.NewRegistry(), clk, logger)

	channelMux := http.NewServeMux()
	channelMux.Handle("GET /socket", NewChannelHandler(ChannelConfig{
		Hub:            hub,
		Verifier:       sessiontoken.NewVerifier(publicKey, clk.Now),
		CookieName:     cfg.Realtime.CookieName,
		AllowedOrigins: cfg.Realtime.AllowedOrigins,
		Logger:         logger,
	}))
	channelMux.HandleFunc("GET /healthz", func(writer http.ResponseWriter, _ *http.Request) {
		writeJSON(writer, http.StatusOK, map[string]string{"status": "ok"})
	})

	listeners := []*service.Listener{
		service.NewListener(service.ListenerConfig{
			Name:      "realtime",
			Address:   cfg.Realtime.Address,
			Handler:   channelMux,
			Logger:    logger,
			Streaming: true,
		}),
	}
	if cfg.Webhook.Address != "" {
		listeners = append(listeners, service.NewListener(service.ListenerConfig{
			Name:    "webhook",
			Address: cfg.Webhook.Address,
			Handler: NewWebhookHandler(WebhookConfig{
				Engine:           reconcile.New(boardService, logger),
				Projects:         boardService,
				MasterSecret:     masterSecret,
				RequireSignature: cfg.Webhook.RequireSignature,
				DeliveryWindow:   cfg.Webhook.DeliveryWindow,
				ApplyTimeout:     cfg.Webhook.ApplyTimeout,
				Clock:            clk,
				Logger:           logger,
			}),
			Logger: logger,
		}))
	}

	logger.Info("kanban service running",
		"environment", string(cfg.Environment),
		"realtime_address", cfg.Realtime.Address,
		"webhook_address", cfg.Webhook.Address,
		"mirroring", trackers != nil,
		"signed_webhooks", len(masterSecret) > 0,
		"version", version.Info(),
	)
	return service.RunAll(ctx, listeners...)
}

// openTrackers loads the tracker identity and returns the GitHub
// source. Without an identity the service runs unlinked: no project
// can mirror to GitHub.
func openTrackers(cfg *config.Config, clk clock.Clock, logger *slog.Logger) (tracker.Source, func(), error) {
	identity, err := sealed.LoadIdentity(cfg.Paths.State)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("no tracker identity, GitHub mirroring disabled",
			"state_dir", cfg.Paths.State,
		)
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, err
	}

	source := tracker.NewGitHubSource(tracker.GitHubConfig{
		BaseURL:          cfg.Tracker.APIURL,
		Identity:         identity,
		Timeout:          cfg.Tracker.Timeout,
		FailureThreshold: cfg.Tracker.FailureThreshold,
		Cooldown:         cfg.Tracker.Cooldown,
		Clock:            clk,
		Logger:           logger,
	})
	return source, func() {
		source.Close()
		identity.Close()
	}, nil
}
