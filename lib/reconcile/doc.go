// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package reconcile reflects GitHub issue events into board state.
//
// Webhook deliveries arrive late, out of order and more than once. The
// engine decides what each one means against the project as it is at
// the moment the event holds the project's slot, so a decision and the
// mutation it leads to can never interleave with another change:
//
//   - An event for an issue the board does not know creates it, unless
//     it is a label event.
//   - An event that would not change anything is acknowledged and
//     dropped.
//   - A label event whose label is missing locally, or has a different
//     color, replaces every label of the project with the repository's
//     set. The engine cannot tell a renamed or recolored label from an
//     unrelated one, so it does not try.
//
// Every mutation is performed as [board.TrackerActor] and is therefore
// never mirrored back to GitHub.
package reconcile
