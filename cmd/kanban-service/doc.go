// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// kanban-service is the realtime kanban board server.
//
// Two listeners:
//   - Realtime: GET /socket upgrades to a websocket carrying board
//     operations and room events. Clients authenticate with a session
//     token minted by kanban-admin.
//   - Webhook: POST /{projectID} receives GitHub "issues" deliveries
//     for a linked repository (HMAC-SHA256 verified with a per-project
//     secret) and reconciles them into the board.
//
// Configuration comes from the file named by --config or
// KANBAN_CONFIG. The state directory must hold the session signing
// key; the tracker identity is optional and enables GitHub mirroring.
package main
