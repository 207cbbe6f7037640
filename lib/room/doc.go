// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package room fans out board events to the connections that joined a
// project.
//
// A [Manager] keeps one subscriber list per project. [Manager.Broadcast]
// encodes its payload once, at call time, and hands the same bytes to
// every subscriber under the manager lock, so all subscribers of a
// project observe broadcasts in the order they were issued. Sends never
// block: a subscriber whose buffer is full is marked for resync and the
// event is dropped for it alone. Subscribers whose Done channel is
// closed are pruned during fan-out.
//
// [Manager.Notify] is the activity log: it persists a system chat entry
// through a [ChatLog] and broadcasts it as a chat event. Persisting can
// fail without failing the mutation that triggered it; the room gets
// an error chat line instead.
package room
