// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var problems []error
	require := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Errorf(format, args...))
		}
	}

	require(slices.Contains([]Environment{Development, Staging, Production}, c.Environment),
		"invalid environment: %s", c.Environment)

	require(c.Paths.Root != "", "paths.root is required")
	require(c.Paths.State != "", "paths.state is required")
	require(c.Paths.Database != "", "paths.database is required")

	require(c.Realtime.Address != "", "realtime.address is required")
	require(!c.Webhook.RequireSignature || c.Webhook.SecretFile != "",
		"webhook.secret_file is required when signatures are required")
	require(c.Webhook.DeliveryWindow > 0, "webhook.delivery_window must be positive")
	require(c.Webhook.ApplyTimeout > 0, "webhook.apply_timeout must be positive")

	require(slices.Contains([]string{"none", "zstd", "lz4"}, c.Store.Compression),
		"store.compression must be none, zstd or lz4, got %q", c.Store.Compression)
	require(c.Store.PoolSize >= 1, "store.pool_size must be at least 1")

	require(c.Tracker.APIURL != "", "tracker.api_url is required")
	require(c.Tracker.Timeout > 0, "tracker.timeout must be positive")
	require(c.Tracker.FailureThreshold >= 1, "tracker.failure_threshold must be at least 1")

	require(c.Session.TTL > 0, "session.ttl must be positive")
	require(c.Chat.HistoryLimit >= 1, "chat.history_limit must be at least 1")

	return errors.Join(problems...)
}

// EnsurePaths creates the state directory and the database directory.
func (c *Config) EnsurePaths() error {
	for _, dir := range []string{c.Paths.Root, c.Paths.State, filepath.Dir(c.Paths.Database)} {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// ReadWebhookSecret returns the trimmed master webhook secret, or nil
// when no secret file is configured.
func (c *Config) ReadWebhookSecret() ([]byte, error) {
	if c.Webhook.SecretFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.Webhook.SecretFile)
	if err != nil {
		return nil, fmt.Errorf("reading webhook secret: %w", err)
	}
	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return nil, fmt.Errorf("webhook secret file %s is empty", c.Webhook.SecretFile)
	}
	return []byte(secret), nil
}
