// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"testing"
	"time"
)

// RequireReceive returns the next value on ch, failing the test if
// none arrives within timeout or ch is closed. what names the awaited
// event in the failure.
//
//	event := testutil.RequireReceive(t, subscriber.Channel, 5*time.Second, "waiting for add-issue")
func RequireReceive[T any](t testing.TB, ch <-chan T, timeout time.Duration, what string) T {
	t.Helper()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case value, open := <-ch:
		if !open {
			t.Fatalf("%s: channel closed", what)
		}
		return value
	case <-timer.C:
		t.Fatalf("%s: nothing after %v", what, timeout)
		panic("unreachable")
	}
}

// RequireNoReceive fails if ch yields a value within wait. It always
// blocks for wait when the check passes.
func RequireNoReceive[T any](t testing.TB, ch <-chan T, wait time.Duration, what string) {
	t.Helper()
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case value, open := <-ch:
		if open {
			t.Fatalf("%s: got %v", what, value)
		}
	case <-timer.C:
	}
}

// RequireClosed waits up to timeout for ch to close.
//
//	testutil.RequireClosed(t, server.Ready(), 5*time.Second, "server ready")
func RequireClosed(t testing.TB, ch <-chan struct{}, timeout time.Duration, what string) {
	t.Helper()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
	case <-timer.C:
		t.Fatalf("%s: still open after %v", what, timeout)
	}
}
