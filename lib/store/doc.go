// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package store persists kanban projects, users, and project chat
// logs in SQLite.
//
// A project is one document: the whole [kanban.Project] encoded as
// CBOR and wrapped in a [codec] compression envelope. Every mutation
// loads the document, changes it in memory, and writes it back while
// holding the project's mutation queue slot, so the store never sees
// concurrent writers for one project and needs no row-level merging.
//
// Each stored document carries a revision: the BLAKE3 digest of its
// CBOR encoding with UpdatedAt cleared. [Store.SaveProject] compares
// revisions and skips the write (and the UpdatedAt bump) when a
// mutation turned out to be a no-op.
//
// Users are global and looked up by tracker login. The chat log is
// append-only; [Store.RecentChat] reads newest first.
package store
