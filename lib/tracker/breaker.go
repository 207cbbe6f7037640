// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/kanban/lib/clock"
)

// ErrCircuitOpen is returned without calling the tracker while the
// breaker is open.
var ErrCircuitOpen = errors.New("tracker: circuit open after repeated failures")

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case breakerClosed:
		return "closed"
	case breakerOpen:
		return "open"
	case breakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker is a consecutive-failure circuit breaker. After threshold
// failures in a row it opens and rejects calls for cooldown; then one
// trial call is let through. Success closes it, failure reopens it.
//
// Caller errors (context cancellation by the caller, not-found
// answers) should not trip it; isFailure decides.
type Breaker struct {
	threshold int
	cooldown  time.Duration
	clock     clock.Clock
	logger    *slog.Logger
	isFailure func(error) bool

	mu       sync.Mutex
	state    breakerState
	failures int
	openedAt time.Time
	trialing bool
}

// NewBreaker creates a closed breaker.
func NewBreaker(threshold int, cooldown time.Duration, clk clock.Clock, logger *slog.Logger, isFailure func(error) bool) *Breaker {
	if threshold < 1 {
		threshold = 1
	}
	if isFailure == nil {
		isFailure = func(err error) bool { return err != nil }
	}
	return &Breaker{
		threshold: threshold,
		cooldown:  cooldown,
		clock:     clk,
		logger:    logger,
		isFailure: isFailure,
	}
}

// Do runs call unless the breaker is open.
func (b *Breaker) Do(ctx context.Context, call func(context.Context) error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := call(ctx)
	b.record(err)
	return err
}

// State reports the breaker state, for logging and tests.
func (b *Breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.String()
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerOpen:
		if b.clock.Now().Sub(b.openedAt) < b.cooldown {
			return ErrCircuitOpen
		}
		b.state = breakerHalfOpen
		b.trialing = true
		return nil
	case breakerHalfOpen:
		// One trial at a time.
		if b.trialing {
			return ErrCircuitOpen
		}
		b.trialing = true
		return nil
	default:
		return nil
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	failed := err != nil && b.isFailure(err)
	if b.state == breakerHalfOpen {
		b.trialing = false
		if failed {
			b.open()
			return
		}
		b.state = breakerClosed
		b.failures = 0
		b.logger.Info("tracker circuit closed")
		return
	}

	if !failed {
		b.failures = 0
		return
	}
	b.failures++
	if b.state == breakerClosed && b.failures >= b.threshold {
		b.open()
	}
}

func (b *Breaker) open() {
	b.state = breakerOpen
	b.openedAt = b.clock.Now()
	b.logger.Warn("tracker circuit opened",
		"consecutive_failures", b.failures,
		"cooldown", b.cooldown,
	)
}
