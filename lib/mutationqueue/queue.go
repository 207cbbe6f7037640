// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mutationqueue serializes state-changing work per project.
//
// Every mutation of a project document is a read-modify-persist cycle.
// Socket events, webhook deliveries, and label resyncs can target the
// same project at the same time, so each cycle runs while holding the
// project's slot in a [Queue]. For one project, slots are granted one
// at a time in the order Acquire was called. Different projects never
// wait on each other.
//
// Acquisition is scoped: Acquire returns a release function that the
// caller defers, and [Queue.Do] wraps a task so the slot is released on
// success, on error, and on panic. A slot that is never released stalls
// its project.
package mutationqueue

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// Queue grants per-project exclusive slots in FIFO order. The zero
// value is not usable; create with New.
type Queue struct {
	logger *slog.Logger

	mu    sync.Mutex
	lines map[string]*line
}

// line is the state of one project: whether the slot is held and who
// is waiting for it. A line exists only while its slot is held.
type line struct {
	waiters []*waiter
}

type waiter struct {
	ready   chan struct{}
	granted bool
}

// New creates an empty queue.
func New(logger *slog.Logger) *Queue {
	if logger == nil {
		panic("mutationqueue: logger is required")
	}
	return &Queue{
		logger: logger,
		lines:  make(map[string]*line),
	}
}

// Acquire blocks until the caller holds projectID's slot and returns
// the function that releases it. Calling release more than once is
// harmless.
//
// If ctx ends first, the caller is removed from the line and ctx's
// error is returned. A slot granted at the same moment is passed on to
// the next waiter rather than lost.
func (q *Queue) Acquire(ctx context.Context, projectID string) (release func(), err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q.mu.Lock()
	current, held := q.lines[projectID]
	if !held {
		q.lines[projectID] = &line{}
		q.mu.Unlock()
		return q.releaser(projectID), nil
	}
	self := &waiter{ready: make(chan struct{})}
	current.waiters = append(current.waiters, self)
	q.mu.Unlock()

	select {
	case <-self.ready:
		return q.releaser(projectID), nil
	case <-ctx.Done():
	}

	q.mu.Lock()
	if self.granted {
		q.mu.Unlock()
		q.release(projectID)
		return nil, ctx.Err()
	}
	for index, candidate := range current.waiters {
		if candidate == self {
			current.waiters = append(current.waiters[:index], current.waiters[index+1:]...)
			break
		}
	}
	q.mu.Unlock()
	return nil, ctx.Err()
}

// Do runs task while holding projectID's slot. A panic inside task is
// recovered, logged with its stack, and returned as an error; the slot
// is released either way.
func (q *Queue) Do(ctx context.Context, projectID string, task func(context.Context) error) (err error) {
	release, err := q.Acquire(ctx, projectID)
	if err != nil {
		return fmt.Errorf("mutationqueue: waiting for project %s: %w", projectID, err)
	}
	defer release()
	defer func() {
		if recovered := recover(); recovered != nil {
			q.logger.Error("mutation panicked",
				"project_id", projectID,
				"panic", fmt.Sprint(recovered),
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("mutationqueue: mutation for project %s panicked: %v", projectID, recovered)
		}
	}()
	return task(ctx)
}

// Pending returns the number of callers holding or waiting for
// projectID's slot.
func (q *Queue) Pending(projectID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	current, held := q.lines[projectID]
	if !held {
		return 0
	}
	return 1 + len(current.waiters)
}

func (q *Queue) releaser(projectID string) func() {
	var once sync.Once
	return func() {
		once.Do(func() { q.release(projectID) })
	}
}

// release hands the slot to the next waiter, or drops the line when
// nobody is waiting.
func (q *Queue) release(projectID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	current, held := q.lines[projectID]
	if !held {
		return
	}
	if len(current.waiters) == 0 {
		delete(q.lines, projectID)
		return
	}
	next := current.waiters[0]
	current.waiters = current.waiters[1:]
	next.granted = true
	close(next.ready)
}
