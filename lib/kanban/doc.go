// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package kanban is the board's domain model and issue state machine.
//
// A [Project] is a single document: its members, its issues (slice order
// is priority order), its label definitions, and its link to an
// external issue tracker. Every mutation is a method on *Project that
// changes the document in place and returns a copy of the affected
// entity for broadcasting.
//
// The package performs no I/O and no locking. Callers serialize
// mutations per project (see lib/mutationqueue) and persist the document
// afterward (see lib/store). Methods that need the current time take it
// as a parameter so the clock stays with the caller.
//
// # Stages
//
// Stages are totally ordered: backlog, todo, issue, done, archive.
// An assignee is meaningful only at todo or later, and every transition
// into backlog clears it. done and archive are the closed stages: the
// tracker reports them as a closed issue.
//
// # Errors
//
// Conditions the caller can correct (an unknown issue, an undefined
// label, an invalid stage) are returned as *[UserError]. Adding an issue
// whose tracker number is already linked returns [ErrIssueExists], which
// callers report as a successful no-op.
package kanban
