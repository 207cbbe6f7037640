// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/bureau-foundation/kanban/lib/clock"
)

// quota follows the X-RateLimit-* headers. Once a response reports no
// remaining requests, later requests wait for the reset instead of
// spending a round trip on a certain 403.
type quota struct {
	clock clock.Clock

	mu             sync.Mutex
	exhaustedUntil time.Time
}

func (q *quota) observe(header http.Header) {
	remaining, err := strconv.Atoi(header.Get("X-RateLimit-Remaining"))
	if err != nil {
		return
	}
	reset, hasReset := unixHeader(header, "X-RateLimit-Reset")

	q.mu.Lock()
	defer q.mu.Unlock()
	if remaining > 0 || !hasReset {
		q.exhaustedUntil = time.Time{}
		return
	}
	q.exhaustedUntil = reset
}

func (q *quota) wait(ctx context.Context) error {
	q.mu.Lock()
	until := q.exhaustedUntil
	q.mu.Unlock()
	if until.IsZero() {
		return nil
	}
	return sleep(ctx, q.clock, until.Sub(q.clock.Now()))
}

// retryDelay reads the backoff of a rate-limited answer: Retry-After
// for secondary limits, the window reset for the primary one.
func (q *quota) retryDelay(header http.Header) time.Duration {
	if seconds, err := strconv.Atoi(header.Get("Retry-After")); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if reset, ok := unixHeader(header, "X-RateLimit-Reset"); ok {
		return max(reset.Sub(q.clock.Now()), 0)
	}
	return 0
}

func unixHeader(header http.Header, name string) (time.Time, bool) {
	seconds, err := strconv.ParseInt(header.Get(name), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(seconds, 0), true
}

func sleep(ctx context.Context, clk clock.Clock, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	select {
	case <-clk.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
