// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package board runs board mutations. Each operation holds the
// project's slot in the mutation queue for its whole duration: it loads
// the project document, applies the state machine from lib/kanban,
// persists the result, and only then broadcasts the change to the
// project's room and records an activity line.
//
// Callers identify themselves with an [Actor]. Changes made by a user
// on a project that mirrors to GitHub are pushed to the repository;
// changes that arrive from GitHub ([TrackerActor]) never are.
//
// Every operation answers with an [Ack] in the acknowledgement shape
// clients expect. [Service.Locked] exposes the slot itself, so the
// reconciliation engine can decide and mutate under one acquisition.
package board
