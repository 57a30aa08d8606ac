package mpsc

import (
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueue_singleProducer(t *testing.T) {
	q := New[int]()
	_, ok := q.Dequeue()
	require.False(t, ok)

	q.Enqueue(1)
	q.Enqueue(2)
	q.Enqueue(3)

	for _, want := range []int{1, 2, 3} {
		got, ok := q.Dequeue()
		require.True(t, ok)
		require.Equal(t, want, got)
	}
	_, ok = q.Dequeue()
	require.False(t, ok)
}

func TestQueue_multipleProducersPreserveAllElements(t *testing.T) {
	q := New[int]()
	const producers, perProducer = 8, 200

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(base*perProducer + i)
			}
		}(p)
	}
	wg.Wait()

	var got []int
	for {
		v, ok := q.Dequeue()
		if !ok {
			break
		}
		got = append(got, v)
	}

	require.Len(t, got, producers*perProducer)
	sort.Ints(got)
	for i, v := range got {
		require.Equal(t, i, v)
	}
}

func TestQueue_interleavedEnqueueDequeue(t *testing.T) {
	q := New[string]()
	q.Enqueue("a")
	v, ok := q.Dequeue()
	require.True(t, ok)
	require.Equal(t, "a", v)

	q.Enqueue("b")
	q.Enqueue("c")
	v, ok = q.Dequeue()
	require.True(t, ok)
	require.Equal(t, "b", v)

	q.Enqueue("d")
	var got []string
	for {
		v, ok := q.Dequeue()
		if !ok {
			break
		}
		got = append(got, v)
	}
	require.Equal(t, []string{"c", "d"}, got)
}

// TestQueue_tryDequeueLastElement is a regression test: the very last
// queued element, dequeued with no concurrent producer racing it, must
// be returned rather than silently dropped when the stub is reclaimed.
func TestQueue_tryDequeueLastElement(t *testing.T) {
	q := New[int]()
	q.Enqueue(1)
	q.Enqueue(2)
	q.Enqueue(3)

	for _, want := range []int{1, 2, 3} {
		got, err := q.TryDequeue()
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := q.TryDequeue()
	require.ErrorIs(t, err, ErrEmpty)
}

func TestQueue_tryDequeueEmpty(t *testing.T) {
	q := New[int]()
	_, err := q.TryDequeue()
	require.ErrorIs(t, err, ErrEmpty)
}

// TestQueue_tryDequeueInconsistent reproduces the mid-enqueue race
// directly: the queue's current tail is a real (non-stub) node whose own
// next pointer is still nil because a producer's head Swap has landed
// but its Store to the predecessor's next pointer has not yet become
// visible. The consumer must observe ErrInconsistent, distinct from both
// a value and ErrEmpty.
func TestQueue_tryDequeueInconsistent(t *testing.T) {
	q := New[int]()
	q.Enqueue(1)
	q.Enqueue(2) // q.tail will land on this node, still unreturned, below

	got, err := q.TryDequeue()
	require.NoError(t, err)
	require.Equal(t, 1, got)

	// Simulate a third producer that has Swapped head to a new node but
	// has not yet Stored the second node's next pointer.
	mid := &Node[int]{val: 3}
	q.head.Store(mid)

	_, err = q.TryDequeue()
	require.ErrorIs(t, err, ErrInconsistent)
}

// TestQueue_tryDequeueBusyWhileConsumerHeld confirms the has_consumer
// contention gate: while a Consumer guard is held, every other
// TryDequeue caller observes ErrBusy instead of racing the guard holder.
func TestQueue_tryDequeueBusyWhileConsumerHeld(t *testing.T) {
	q := New[int]()
	q.Enqueue(1)

	c, err := q.Consume()
	require.NoError(t, err)
	defer c.Close()

	_, err = q.TryDequeue()
	require.ErrorIs(t, err, ErrBusy)

	_, err = q.Consume()
	require.ErrorIs(t, err, ErrBusy)

	got, ok := c.Dequeue()
	require.True(t, ok)
	require.Equal(t, 1, got)
}

// TestQueue_consumerDrainsAndIterates exercises the Consumer guard's
// iterator-shaped Next, mirroring the original's Consumer: Iterator
// adapter.
func TestQueue_consumerDrainsAndIterates(t *testing.T) {
	q := New[int]()
	q.Enqueue(1)
	q.Enqueue(2)
	q.Enqueue(3)

	c, err := q.Consume()
	require.NoError(t, err)
	defer c.Close()

	var got []int
	for {
		v, ok := c.Next()
		if !ok {
			break
		}
		got = append(got, v)
	}
	require.Equal(t, []int{1, 2, 3}, got)
}

// TestQueue_tryDequeueConcurrentCallersContendNotCorrupt exercises the
// spec's "multiple try_dequeue callers can contend" contract: any number
// of goroutines may call TryDequeue concurrently, some observing ErrBusy,
// but every enqueued element is still delivered to exactly one caller.
func TestQueue_tryDequeueConcurrentCallersContendNotCorrupt(t *testing.T) {
	q := New[int]()
	const n = 500
	for i := 0; i < n; i++ {
		q.Enqueue(i)
	}

	var mu sync.Mutex
	var got []int
	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				v, err := q.TryDequeue()
				switch {
				case err == nil:
					mu.Lock()
					got = append(got, v)
					mu.Unlock()
				case errors.Is(err, ErrEmpty):
					return
				default: // ErrBusy or ErrInconsistent: retry
				}
			}
		}()
	}
	wg.Wait()

	require.Len(t, got, n)
	sort.Ints(got)
	for i, v := range got {
		require.Equal(t, i, v)
	}
}
