// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds helpers shared by the kanban packages' tests:
// bounded channel receives that fail instead of hanging when a
// broadcast goes missing, unique identifiers, and a discard
// logger.
package testutil
