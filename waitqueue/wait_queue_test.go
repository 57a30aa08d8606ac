package waitqueue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWaitQueue_wakeStoredAheadOfWaiter(t *testing.T) {
	q := New()
	q.Wake() // nobody waiting yet: stored as StateInner::Woken

	done := make(chan struct{})
	go func() {
		require.NoError(t, q.Wait())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not consume the stored wakeup")
	}
}

func TestWaitQueue_wakeIsFIFO(t *testing.T) {
	q := New()
	var order []int
	var mu sync.Mutex
	var wg sync.WaitGroup

	started := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started <- struct{}{}
			// Give each goroutine a moment to enqueue in order.
			time.Sleep(time.Duration(i) * 10 * time.Millisecond)
			require.NoError(t, q.Wait())
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}(i)
		<-started
		time.Sleep(15 * time.Millisecond)
	}

	for i := 0; i < 3; i++ {
		time.Sleep(5 * time.Millisecond)
		q.Wake()
	}
	wg.Wait()
	require.Equal(t, []int{0, 1, 2}, order)
}

func TestWaitQueue_closeWakesEveryone(t *testing.T) {
	q := New()
	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = q.Wait()
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	q.Close()
	wg.Wait()
	for _, err := range errs {
		require.Equal(t, ErrClosed{}, err)
	}
}

type fnWaker func()

func (f fnWaker) Wake() { f() }

func TestWaitQueue_subscribeCancel(t *testing.T) {
	q := New()
	woken := make(chan struct{}, 1)
	cancel := q.Subscribe(fnWaker(func() { woken <- struct{}{} }))
	cancel()
	q.Wake() // no subscribers left; stored instead
	select {
	case <-woken:
		t.Fatal("cancelled subscriber should not be woken")
	case <-time.After(50 * time.Millisecond):
	}
}
