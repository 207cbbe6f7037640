// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package github is the GitHub REST client behind tracker mirroring
// and the admin tool's webhook setup.
//
// A [Client] holds one access token in a [secret.Buffer] and reads it
// per request. [Client.Repository] narrows it to a repository, whose
// methods cover issue creation, closing, label replacement, label and
// issue listing, and webhook installation. Listings follow Link
// pagination to the end. An exhausted rate limit window makes later
// requests wait for its reset, and a rate-limited answer is retried
// once. Conditional GETs reuse cached bodies on 304.
//
// Failures from GitHub surface as *[ResponseError].
package github
