// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"slices"
	"sync"
	"time"
)

// FakeClock only moves when told to. Safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	pending []alarm // ordered by deadline
	changed *sync.Cond
}

type alarm struct {
	deadline time.Time
	fire     chan time.Time
}

// Fake returns a FakeClock reading start.
func Fake(start time.Time) *FakeClock {
	c := &FakeClock{now: start}
	c.changed = sync.NewCond(&c.mu)
	return c
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	fire := make(chan time.Time, 1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if d <= 0 {
		fire <- c.now
		return fire
	}
	deadline := c.now.Add(d)
	at, _ := slices.BinarySearchFunc(c.pending, deadline, func(a alarm, t time.Time) int {
		if a.deadline.After(t) {
			return 1
		}
		return -1
	})
	c.pending = slices.Insert(c.pending, at, alarm{deadline: deadline, fire: fire})
	c.changed.Broadcast()
	return fire
}

// Advance moves the clock by d and fires the alarms that came due, in
// deadline order. Each receives the new time.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	due := 0
	for due < len(c.pending) && !c.pending[due].deadline.After(now) {
		due++
	}
	fired := slices.Clone(c.pending[:due])
	c.pending = slices.Delete(c.pending, 0, due)
	c.mu.Unlock()

	for _, a := range fired {
		a.fire <- now
	}
}

// WaitForTimers blocks until n alarms are pending. Tests call it before
// Advance when another goroutine is about to call After.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.pending) < n {
		c.changed.Wait()
	}
}
