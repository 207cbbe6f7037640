// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tracker adapts the external issue tracker to the operations
// the kanban board needs: mirroring user changes out (create, close,
// reopen, relabel), fetching the full label and issue sets for a
// label resync, and looking up user avatars.
//
// A [Source] resolves the [Tracker] for a project. The GitHub source
// unseals the project's access token with the service's age identity,
// builds a [github.Client] around it, and caches the client keyed by
// a BLAKE3 digest of the sealed token, so a rotated token gets a new
// client while the old one is closed.
//
// Every call runs under a per-call timeout and a circuit breaker
// shared by all projects of a Source: a tracker outage fails fast
// instead of holding project queue slots for the full timeout.
package tracker
