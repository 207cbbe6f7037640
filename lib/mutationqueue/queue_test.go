// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mutationqueue

import (
	"context"
	"errors"
	"runtime"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/kanban/lib/testutil"
)

func newTestQueue() *Queue {
	return New(testutil.DiscardLogger())
}

// waitForPending spins until projectID has want holders plus waiters,
// so a test can control submission order without sleeping.
func waitForPending(t *testing.T, queue *Queue, projectID string, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for queue.Pending(projectID) != want {
		if time.Now().After(deadline) {
			t.Fatalf("Pending(%s) = %d, want %d", projectID, queue.Pending(projectID), want)
		}
		runtime.Gosched()
	}
}

func TestAcquireGrantsInSubmissionOrder(t *testing.T) {
	queue := newTestQueue()
	ctx := context.Background()

	release, err := queue.Acquire(ctx, "project")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	var mu sync.Mutex
	var order []int
	var group sync.WaitGroup
	for index := range 5 {
		group.Add(1)
		go func() {
			defer group.Done()
			err := queue.Do(ctx, "project", func(context.Context) error {
				mu.Lock()
				order = append(order, index)
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("Do %d: %v", index, err)
			}
		}()
		waitForPending(t, queue, "project", index+2)
	}

	release()
	group.Wait()

	if want := []int{0, 1, 2, 3, 4}; !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
	if pending := queue.Pending("project"); pending != 0 {
		t.Errorf("Pending after drain = %d, want 0", pending)
	}
}

func TestProjectsDoNotBlockEachOther(t *testing.T) {
	queue := newTestQueue()
	ctx := context.Background()

	releaseFirst, err := queue.Acquire(ctx, "first")
	if err != nil {
		t.Fatalf("Acquire first: %v", err)
	}
	defer releaseFirst()

	done := make(chan struct{})
	go func() {
		defer close(done)
		release, err := queue.Acquire(ctx, "second")
		if err != nil {
			t.Errorf("Acquire second: %v", err)
			return
		}
		release()
	}()
	testutil.RequireClosed(t, done, 5*time.Second, "second project blocked behind first")
}

func TestAcquireCancelledWaiterLeavesLine(t *testing.T) {
	queue := newTestQueue()

	release, err := queue.Acquire(context.Background(), "project")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		_, err := queue.Acquire(ctx, "project")
		result <- err
	}()
	waitForPending(t, queue, "project", 2)

	cancel()
	err = testutil.RequireReceive(t, result, 5*time.Second, "cancelled Acquire did not return")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	waitForPending(t, queue, "project", 1)

	release()
	if pending := queue.Pending("project"); pending != 0 {
		t.Errorf("Pending after release = %d, want 0", pending)
	}
}

func TestAcquireWithEndedContext(t *testing.T) {
	queue := newTestQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := queue.Acquire(ctx, "project"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if pending := queue.Pending("project"); pending != 0 {
		t.Errorf("Pending = %d, want 0", pending)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	queue := newTestQueue()
	ctx := context.Background()

	release, err := queue.Acquire(ctx, "project")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	second := make(chan func(), 1)
	go func() {
		next, err := queue.Acquire(ctx, "project")
		if err != nil {
			t.Errorf("second Acquire: %v", err)
			return
		}
		second <- next
	}()
	waitForPending(t, queue, "project", 2)

	third := make(chan func(), 1)
	go func() {
		next, err := queue.Acquire(ctx, "project")
		if err != nil {
			t.Errorf("third Acquire: %v", err)
			return
		}
		third <- next
	}()
	waitForPending(t, queue, "project", 3)

	release()
	release()

	releaseSecond := testutil.RequireReceive(t, second, 5*time.Second, "second waiter not granted")
	testutil.RequireNoReceive(t, third, 50*time.Millisecond, "double release granted the slot twice")

	releaseSecond()
	releaseThird := testutil.RequireReceive(t, third, 5*time.Second, "third waiter not granted")
	releaseThird()
}

func TestDoRecoversPanicAndReleases(t *testing.T) {
	queue := newTestQueue()
	ctx := context.Background()

	err := queue.Do(ctx, "project", func(context.Context) error {
		panic("boom")
	})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("err = %v, want panic error mentioning boom", err)
	}
	if pending := queue.Pending("project"); pending != 0 {
		t.Fatalf("Pending after panic = %d, want 0", pending)
	}

	ran := false
	if err := queue.Do(ctx, "project", func(context.Context) error { ran = true; return nil }); err != nil {
		t.Fatalf("Do after panic: %v", err)
	}
	if !ran {
		t.Error("project stalled after a panicking task")
	}
}

func TestDoReturnsTaskError(t *testing.T) {
	queue := newTestQueue()
	sentinel := errors.New("not found")

	err := queue.Do(context.Background(), "project", func(context.Context) error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Errorf("err = %v, want %v", err, sentinel)
	}
	if pending := queue.Pending("project"); pending != 0 {
		t.Errorf("Pending = %d, want 0", pending)
	}
}
