// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package board

// Actor is who performs an operation. UserName is the name written
// into activity lines.
type Actor struct {
	UserID      string
	UserName    string
	FromTracker bool
}

// TrackerActor performs every mutation that originates in a GitHub
// webhook.
var TrackerActor = Actor{UserName: "GitHub", FromTracker: true}
