// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"time"
)

// Environment names a deployment. A config file may carry one section
// per environment that overrides the base values.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Config is the configuration shared by kanban-service and
// kanban-admin.
type Config struct {
	Environment Environment `yaml:"environment"`

	Paths    PathsConfig    `yaml:"paths"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Store    StoreConfig    `yaml:"store"`
	Tracker  TrackerConfig  `yaml:"tracker"`
	Session  SessionConfig  `yaml:"session"`
	Chat     ChatConfig     `yaml:"chat"`
}

type PathsConfig struct {
	Root string `yaml:"root"`

	// State holds the session signing keypair and the tracker
	// identity that unseals repository tokens.
	State string `yaml:"state"`

	// Database is the SQLite document store.
	Database string `yaml:"database"`
}

type WebhookConfig struct {
	// Address is the listener address. Empty disables webhooks.
	Address string `yaml:"address"`

	// SecretFile holds the master secret that per-project webhook
	// secrets derive from. Empty disables signature checks.
	SecretFile string `yaml:"secret_file"`

	RequireSignature bool `yaml:"require_signature"`

	// DeliveryWindow is how long delivery IDs are remembered.
	DeliveryWindow time.Duration `yaml:"delivery_window"`

	// ApplyTimeout bounds the wait for a delivery's mutation.
	ApplyTimeout time.Duration `yaml:"apply_timeout"`
}

type RealtimeConfig struct {
	Address string `yaml:"address"`

	// AllowedOrigins restricts browser origins. Empty allows all.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// CookieName is the cookie that carries the session token.
	CookieName string `yaml:"cookie_name"`
}

type StoreConfig struct {
	// Compression is none, zstd or lz4.
	Compression string `yaml:"compression"`
	PoolSize    int    `yaml:"pool_size"`
}

type TrackerConfig struct {
	APIURL           string        `yaml:"api_url"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold int           `yaml:"failure_threshold"`
	Cooldown         time.Duration `yaml:"cooldown"`
}

type SessionConfig struct {
	// TTL is the lifetime of tokens minted by kanban-admin.
	TTL time.Duration `yaml:"ttl"`
}

type ChatConfig struct {
	// HistoryLimit is how many entries a joining client receives.
	HistoryLimit int `yaml:"history_limit"`
}

// Default returns the values a config file is decoded over.
func Default() *Config {
	home, _ := os.UserHomeDir()
	root := filepath.Join(home, ".cache", "kanban")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:     root,
			State:    filepath.Join(root, "state"),
			Database: filepath.Join(root, "kanban.db"),
		},
		Webhook: WebhookConfig{
			Address:        "127.0.0.1:8081",
			DeliveryWindow: time.Hour,
			ApplyTimeout:   30 * time.Second,
		},
		Realtime: RealtimeConfig{
			Address:    "127.0.0.1:8080",
			CookieName: "kanban_session",
		},
		Store: StoreConfig{Compression: "zstd", PoolSize: 4},
		Tracker: TrackerConfig{
			APIURL:           "https://api.github.com",
			Timeout:          10 * time.Second,
			FailureThreshold: 5,
			Cooldown:         30 * time.Second,
		},
		Session: SessionConfig{TTL: 7 * 24 * time.Hour},
		Chat:    ChatConfig{HistoryLimit: 200},
	}
}
