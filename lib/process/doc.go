// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers for the kanban binaries.
// Fatal is the one place main writes to stderr directly, for errors
// returned before or after the structured logger exists.
package process
