// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// kanban-admin manages the kanban service's state directory and
// project documents from the command line.
//
//	kanban-admin [--config FILE] <command> [flags]
//
// Commands:
//   - init-keys: create the session signing key and the age identity
//     that seals repository tokens
//   - create-project: create a project owned by a user
//   - list-projects: print every project
//   - link-repository: link a project to a GitHub repository, seal its
//     token, and configure the repository webhook
//   - mint-session: issue a realtime session token for a user
//   - add-label: define a project label
//
// Commands that change a project write the document directly. Run them
// while the project is idle; connected clients see the change on their
// next reload.
package main
