// Package waitqueue implements a FIFO queue of parked waiters that can be
// woken one at a time or all at once, the building block timers and other
// runtime services use to park a task until some condition becomes true.
package waitqueue

import (
	"container/list"
	"sync"
)

// Waker is the minimal wakeup callback a Subscribe caller supplies. It is
// defined locally (rather than imported from the task package) so that
// this package does not depend on task — task.Pool depends on waitqueue
// for its idle-worker parking, so the reverse import would be a cycle.
type Waker interface {
	Wake()
}

// state mirrors the queue's four-state lifecycle: empty, waiting (one or
// more parked waiters), woken (a notification is stored ahead of any
// waiter), and closed (permanently, irrecoverably done).
type state byte

const (
	stateEmpty state = iota
	stateWaiting
	stateWoken
	stateClosed
)

// ErrClosed is returned by Wait when the queue has been permanently closed.
type ErrClosed struct{}

func (ErrClosed) Error() string { return "wait queue closed" }

// WaitQueue is a queue of waiting tasks woken in first-in-first-out order,
// or all at once. Unlike a condition variable, a notification sent before
// anyone is waiting is not lost: it is stored and consumed by the next
// Wait call, matching StateInner::Woken's semantics.
type WaitQueue struct {
	mu       sync.Mutex
	st       state
	waiters  list.List // of *waiter
	wakeAlls uint64
}

type waiter struct {
	waker      Waker
	ready      chan struct{}
	wakeAllGen uint64
}

// New returns an empty, open WaitQueue.
func New() *WaitQueue {
	return &WaitQueue{st: stateEmpty}
}

// Wait blocks the calling goroutine until the queue wakes it (via Wake or
// WakeAll) or the queue is closed, in which case it returns ErrClosed.
//
// This departs from the original's poll-based Wait future (there is no
// cooperative scheduler here to resume): the calling goroutine parks on a
// channel instead, giving the same FIFO/stored-wakeup semantics without
// needing a Context to poll from.
func (q *WaitQueue) Wait() error {
	q.mu.Lock()
	switch q.st {
	case stateClosed:
		q.mu.Unlock()
		return ErrClosed{}
	case stateWoken:
		// A stored wakeup is consumed without ever enqueueing, exactly as
		// StateInner::Woken's Wait transition describes.
		q.st = stateEmpty
		q.mu.Unlock()
		return nil
	}

	w := &waiter{ready: make(chan struct{}, 1), wakeAllGen: q.wakeAlls}
	elem := q.waiters.PushBack(w)
	q.st = stateWaiting
	q.mu.Unlock()

	<-w.ready

	q.mu.Lock()
	if elem.Value != nil {
		// Unreachable in practice: Wake, WakeAll and Close all unlink a
		// waiter before signalling it, so there is nothing to clean up.
	}
	closed := q.st == stateClosed
	q.mu.Unlock()
	if closed {
		return ErrClosed{}
	}
	return nil
}

// Subscribe registers w to be notified on the next Wake/WakeAll
// without blocking the caller, for integration with a Future-style poll
// loop instead of a dedicated parked goroutine. It returns a cancel
// function that removes the registration if the caller's own cancellation
// fires first.
func (q *WaitQueue) Subscribe(w Waker) (cancel func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.st == stateWoken {
		q.st = stateEmpty
		q.mu.Unlock()
		w.Wake()
		q.mu.Lock()
		return func() {}
	}
	if q.st == stateClosed {
		q.mu.Unlock()
		w.Wake()
		q.mu.Lock()
		return func() {}
	}

	ww := &waiter{waker: w, ready: make(chan struct{}, 1), wakeAllGen: q.wakeAlls}
	elem := q.waiters.PushBack(ww)
	q.st = stateWaiting

	return func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		if elem.Value != nil {
			q.waiters.Remove(elem)
			elem.Value = nil
			if q.waiters.Len() == 0 && q.st == stateWaiting {
				q.st = stateEmpty
			}
		}
	}
}

// Wake wakes the longest-waiting waiter, if any. If the queue is empty,
// the notification is stored for the next Wait/Subscribe call instead of
// being dropped.
func (q *WaitQueue) Wake() {
	q.mu.Lock()
	front := q.waiters.Front()
	if front == nil {
		if q.st != stateClosed {
			q.st = stateWoken
		}
		q.mu.Unlock()
		return
	}
	w := front.Value.(*waiter)
	q.waiters.Remove(front)
	front.Value = nil
	if q.waiters.Len() == 0 {
		q.st = stateEmpty
	}
	q.mu.Unlock()

	wakeWaiter(w)
}

// WakeAll wakes every currently queued waiter and increments the wakeAlls
// counter. Waiters record the counter when enqueued, but nothing compares
// it; no Wait can fall between its "stored wakeup" check and its enqueue,
// since both happen under the same lock.
func (q *WaitQueue) WakeAll() {
	q.mu.Lock()
	q.wakeAlls++
	var woken []*waiter
	for e := q.waiters.Front(); e != nil; {
		next := e.Next()
		w := e.Value.(*waiter)
		q.waiters.Remove(e)
		e.Value = nil
		woken = append(woken, w)
		e = next
	}
	if q.st != stateClosed {
		q.st = stateEmpty
	}
	q.mu.Unlock()

	for _, w := range woken {
		wakeWaiter(w)
	}
}

// Close wakes every waiter permanently; all subsequent and in-flight Wait
// calls return ErrClosed.
func (q *WaitQueue) Close() {
	q.mu.Lock()
	var woken []*waiter
	for e := q.waiters.Front(); e != nil; {
		next := e.Next()
		w := e.Value.(*waiter)
		q.waiters.Remove(e)
		e.Value = nil
		woken = append(woken, w)
		e = next
	}
	q.st = stateClosed
	q.mu.Unlock()

	for _, w := range woken {
		wakeWaiter(w)
	}
}

func wakeWaiter(w *waiter) {
	if w.waker != nil {
		w.waker.Wake()
	}
	select {
	case w.ready <- struct{}{}:
	default:
	}
}
