// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package realtime binds client connections to the board. It knows
// nothing about the wire: a transport decodes inbound frames, passes
// them to [Connection.Handle], writes the returned acknowledgement,
// and writes every event from [Connection.Events] as a push frame.
//
// A connection must be authenticated and must have joined a project
// room before it can mutate anything. Joining a room leaves the
// previous one. Closing a connection tells the rest of the room that
// the user left.
package realtime
