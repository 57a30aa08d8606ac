// Package mpsc implements a multi-producer, single-consumer queue using
// Dmitry Vyukov's intrusive lock-free singly-linked-list algorithm: any
// number of producers may Enqueue concurrently without blocking, while a
// single consumer Dequeues.
package mpsc

import (
	"errors"
	"runtime"
	"sync/atomic"
	"time"
)

// Node is the intrusive link embedded in every value enqueued; the queue
// that holds a node is this package's stand-in for the original's
// `Linked` trait, since Go generics let Queue[T] own typed nodes directly
// instead of needing an unsafe to-raw-pointer conversion trait.
type Node[T any] struct {
	next atomic.Pointer[Node[T]]
	val  T
}

var (
	// ErrEmpty means TryDequeue found no element to return.
	ErrEmpty = errors.New("mpsc: queue is empty")
	// ErrInconsistent means a producer's Enqueue was observed mid-flight
	// (the head swap landed but the predecessor's next pointer hasn't
	// published yet); the caller may retry immediately, since this state
	// is guaranteed to resolve itself almost instantly.
	ErrInconsistent = errors.New("mpsc: queue is in an inconsistent state")
	// ErrBusy means another goroutine is already dequeuing, either via a
	// concurrent TryDequeue/Dequeue call or because a Consumer guard is
	// held; this is a multi-producer, single-*consumer* queue, so only
	// one dequeuing party is ever allowed at a time.
	ErrBusy = errors.New("mpsc: another consumer is active")
)

// Queue is a Vyukov intrusive MPSC queue. The zero value is not ready to
// use; construct one with New.
type Queue[T any] struct {
	head atomic.Pointer[Node[T]] // producer-side, swapped by every enqueuer
	tail *Node[T]                // consumer-only, never touched outside a held consumer slot

	// hasConsumer gates dequeue access: TryDequeue/Dequeue/Consume all
	// CAS this from false to true before touching tail, and release it
	// on return, so multiple goroutines may *call* try_dequeue-shaped
	// methods concurrently (per the spec's contention contract) even
	// though only one of them actually drains the queue at a time.
	hasConsumer atomic.Bool

	stub Node[T] // permanent placeholder breaking the empty/single-element race
}

// New returns an empty queue.
func New[T any]() *Queue[T] {
	q := &Queue[T]{}
	q.head.Store(&q.stub)
	q.tail = &q.stub
	return q
}

// Enqueue adds val to the tail of the queue. Safe to call concurrently
// from any number of goroutines; never blocks.
func (q *Queue[T]) Enqueue(val T) {
	n := &Node[T]{val: val}
	prev := q.head.Swap(n)
	prev.next.Store(n)
}

// acquireConsumer claims the single dequeuing slot, reporting false if
// another goroutine (or an outstanding Consumer guard) already holds it.
func (q *Queue[T]) acquireConsumer() bool {
	return q.hasConsumer.CompareAndSwap(false, true)
}

func (q *Queue[T]) releaseConsumer() {
	q.hasConsumer.Store(false)
}

// TryDequeue attempts to remove and return the value at the head of the
// queue without blocking. It returns ErrEmpty if the queue has nothing to
// dequeue, ErrInconsistent if a concurrent Enqueue was caught mid-flight
// (retry immediately), or ErrBusy if another goroutine is already
// dequeuing. Unlike Dequeue, any number of goroutines may call
// TryDequeue concurrently: contention is resolved by ErrBusy rather than
// by blocking.
func (q *Queue[T]) TryDequeue() (T, error) {
	var zero T
	if !q.acquireConsumer() {
		return zero, ErrBusy
	}
	defer q.releaseConsumer()
	return q.tryDequeueLocked()
}

func (q *Queue[T]) tryDequeueLocked() (T, error) {
	var zero T
	tail := q.tail
	next := tail.next.Load()

	if tail == &q.stub {
		if next == nil {
			return zero, ErrEmpty
		}
		q.tail = next
		tail = next
		next = next.next.Load()
	}

	if next != nil {
		q.tail = next
		val := tail.val
		tail.val = zero
		return val, nil
	}

	// next == nil: this may be the last real element, or a producer's
	// Swap has landed but its Store to prev.next hasn't become visible
	// yet. Vyukov's algorithm resolves this by checking against head
	// rather than spinning forever on next becoming non-nil from a
	// since-vanished producer.
	if tail != q.head.Load() {
		return zero, ErrInconsistent
	}

	// tail really is the last element with nothing queued behind it.
	// Re-link the stub after it so the next Enqueue has somewhere to
	// attach, then re-read tail.next: reclaimStub's own Store just made
	// it point at the stub, which is what finally lets us return tail's
	// value instead of losing it.
	q.reclaimStub()
	if next = tail.next.Load(); next != nil {
		q.tail = next
		val := tail.val
		tail.val = zero
		return val, nil
	}
	return zero, ErrEmpty
}

// Dequeue removes and returns the value at the head of the queue,
// blocking with exponential backoff while the queue is merely
// Inconsistent (a producer's Enqueue is caught mid-flight) and returning
// (zero, false) only once the queue is genuinely Empty. Like TryDequeue,
// any number of goroutines may call Dequeue concurrently; at most one
// proceeds past the consumer gate at a time; the rest observe ErrBusy
// internally and retry rather than surfacing it to the caller, since a
// blocking call has nothing useful to do with "someone else has it right
// now" besides wait its turn.
func (q *Queue[T]) Dequeue() (T, bool) {
	const maxBackoff = 256 * time.Microsecond
	backoff := time.Microsecond
	for {
		val, err := q.TryDequeue()
		switch {
		case err == nil:
			return val, true
		case errors.Is(err, ErrEmpty):
			var zero T
			return zero, false
		default: // ErrInconsistent (a producer is mid-Enqueue) or ErrBusy (another goroutine holds the consumer slot)
			time.Sleep(backoff)
			if backoff < maxBackoff {
				backoff *= 2
			}
		}
	}
}

// reclaimStub re-links the stub node back onto the queue after it's been
// consumed, so the queue never runs permanently empty of a placeholder to
// break the next empty/single-element race. The stub's own next pointer
// is cleared first: it still holds whatever node followed it the last
// time it was live, and leaving that stale pointer in place would let a
// later dequeue mistake it for a real successor before any producer has
// enqueued onto the reclaimed stub again.
func (q *Queue[T]) reclaimStub() {
	q.stub.next.Store(nil)
	prev := q.head.Swap(&q.stub)
	prev.next.Store(&q.stub)
}

// Consumer is a handle that holds the exclusive right to dequeue elements
// from a Queue, letting one goroutine drain many elements without paying
// the hasConsumer CAS on every single call. Obtain one with Consume;
// release it with Close so other goroutines may dequeue again.
type Consumer[T any] struct {
	q *Queue[T]
}

// Consume reserves exclusive dequeue access and returns a Consumer, or
// ErrBusy if another goroutine already holds it.
func (q *Queue[T]) Consume() (*Consumer[T], error) {
	if !q.acquireConsumer() {
		return nil, ErrBusy
	}
	return &Consumer[T]{q: q}, nil
}

// Close releases the consumer slot. Must be called exactly once.
func (c *Consumer[T]) Close() { c.q.releaseConsumer() }

// TryDequeue behaves like Queue.TryDequeue but never returns ErrBusy: the
// Consumer already holds the slot no other caller can take.
func (c *Consumer[T]) TryDequeue() (T, error) {
	return c.q.tryDequeueLocked()
}

// Dequeue behaves like Queue.Dequeue but never contends with another
// TryDequeue/Dequeue caller for the consumer slot, since the Consumer
// already holds it: the only wait it ever does is a Gosched while a
// producer's Enqueue is caught mid-flight.
func (c *Consumer[T]) Dequeue() (T, bool) {
	for {
		val, err := c.q.tryDequeueLocked()
		switch {
		case err == nil:
			return val, true
		case errors.Is(err, ErrEmpty):
			var zero T
			return zero, false
		default: // ErrInconsistent
			runtime.Gosched()
		}
	}
}

// Next implements an iterator-shaped drain: ok is false once the queue is
// empty, matching the original's Consumer: Iterator adapter.
func (c *Consumer[T]) Next() (T, bool) {
	return c.Dequeue()
}
