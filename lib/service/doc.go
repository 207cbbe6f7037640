// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service holds the HTTP plumbing of kanban-service: the
// [Listener] lifecycle, delivery signatures, and the per-project
// webhook secrets derived from the operator's master secret.
package service
