// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds sensitive bytes outside the Go heap.
//
// The kanban service keeps two kinds of secret in a [Buffer]: the age
// identity that unseals tracker access tokens, and each unsealed
// access token while a GitHub client is alive. A Buffer is an anonymous
// mmap region locked into RAM (mlock) and excluded from core dumps
// (MADV_DONTDUMP). Close zeroes, unlocks, and unmaps it; any access
// after Close panics.
//
// [ReadFile] loads a secret from a file or stdin for kanban-admin.
package secret
