package fiber

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFiber_yieldRoundTrip(t *testing.T) {
	f := New(func(cx *Context, arg any) any {
		n := arg.(int)
		got := cx.Yield(n + 1)
		return got.(int) + 100
	})

	val, finished := f.Resume(1)
	require.False(t, finished)
	require.Equal(t, 2, val)

	val, finished = f.Resume(9)
	require.True(t, finished)
	require.Equal(t, 109, val)
}

func TestFiber_multipleYields(t *testing.T) {
	f := New(func(cx *Context, arg any) any {
		total := arg.(int)
		for i := 0; i < 3; i++ {
			next := cx.Yield(total)
			total += next.(int)
		}
		return total
	})

	val, finished := f.Resume(0)
	require.False(t, finished)
	require.Equal(t, 0, val)

	val, finished = f.Resume(1)
	require.False(t, finished)
	require.Equal(t, 1, val)

	val, finished = f.Resume(2)
	require.False(t, finished)
	require.Equal(t, 3, val)

	val, finished = f.Resume(4)
	require.True(t, finished)
	require.Equal(t, 7, val)
}

func TestFiber_suspendedUntilResumed(t *testing.T) {
	started := make(chan struct{})
	f := New(func(cx *Context, arg any) any {
		close(started)
		return arg
	})

	select {
	case <-started:
		t.Fatal("fiber body ran before the first Resume")
	case <-time.After(20 * time.Millisecond):
	}

	val, finished := f.Resume("go")
	require.True(t, finished)
	require.Equal(t, "go", val)
}
