// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports the build of the kanban binaries.
//
// [GitCommit], [GitDirty], [BuildTime] and [Version] are stamped with
// -ldflags -X:
//
//	go build -ldflags "-X github.com/bureau-foundation/kanban/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Unstamped builds fall back to the VCS details the go command embeds.
// [Print] writes a binary's --version output.
package version
