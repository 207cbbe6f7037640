// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the time source used by the kanban service.
//
// Components that stamp chat entries, work periods, or circuit breaker
// deadlines take a Clock instead of calling the time package. The
// service wires Real(); tests wire Fake() and move time with Advance.
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	breaker := tracker.NewBreaker(5, 30*time.Second, c, logger, isFailure)
//	c.Advance(30 * time.Second)
package clock
