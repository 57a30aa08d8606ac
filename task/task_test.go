package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type inlineSchedule struct{ polled []*Ref }

func (s *inlineSchedule) Schedule(r *Ref) {
	s.polled = append(s.polled, r)
	r.Poll()
}

type constFuture struct {
	val    int
	ready  bool
	polled int
}

func (f *constFuture) Poll(cx *Context) (int, Poll) {
	f.polled++
	if !f.ready {
		return 0, PollPending
	}
	return f.val, PollReady
}

func TestSpawn_completesImmediately(t *testing.T) {
	sched := &inlineSchedule{}
	fut := &constFuture{val: 42, ready: true}

	_, jh := Spawn[int](fut, sched)

	time.Sleep(10 * time.Millisecond)
	out, err, ok := jh.TryJoin()
	require.True(t, ok)
	require.NoError(t, err)
	require.Equal(t, 42, out)
	require.Equal(t, 1, fut.polled)
}

func TestSpawn_pendingThenWoken(t *testing.T) {
	sched := &inlineSchedule{}
	fut := &constFuture{val: 7}

	ref, jh := Spawn[int](fut, sched)
	time.Sleep(5 * time.Millisecond)

	_, _, ok := jh.TryJoin()
	require.False(t, ok)

	fut.ready = true
	ref.wakeByRef()
	time.Sleep(10 * time.Millisecond)

	out, err, ok := jh.TryJoin()
	require.True(t, ok)
	require.NoError(t, err)
	require.Equal(t, 7, out)
}

func TestState_wakeByValTransitions(t *testing.T) {
	s := NewState()
	require.Equal(t, TransitionToRunningOK, s.TransitionToRunning())
	require.False(t, s.Load().isNotified())

	// Idle (non-running, non-notified, non-complete): wakeByVal must submit.
	idle := NewState()
	idle.TransitionToRunning()
	idle.TransitionToIdle()
	require.Equal(t, NotifiedByValSubmit, idle.TransitionToNotifiedByVal())
}

// TestJoinHandle_abortBeforeFirstPoll exercises the cancel path: Abort
// before the run-queue's single dispatch ever reaches the future means
// the future's Poll is never called at all, and TryJoin observes a
// JoinErrorCancelled rather than an output.
func TestJoinHandle_abortBeforeFirstPoll(t *testing.T) {
	fut := &constFuture{val: 1}
	sched := &manualSchedule{}
	ref, jh := Spawn[int](fut, sched)

	jh.Abort()
	require.True(t, jh.t.Header.state.Load().IsCancelled())

	ref.Poll() // the pool would normally drive the queued ref through here
	require.Equal(t, 0, fut.polled)

	out, err, ok := jh.TryJoin()
	require.True(t, ok)
	require.Error(t, err)
	require.Equal(t, 0, out)

	var je *JoinError
	require.ErrorAs(t, err, &je)
	require.Equal(t, JoinErrorCancelled, je.Kind)
}

type panicFuture struct{ payload any }

func (f *panicFuture) Poll(cx *Context) (int, Poll) {
	panic(f.payload)
}

// TestJoinHandle_panicDuringPollBecomesJoinError exercises the panic
// guard around a future's Poll call: the panic must not escape the
// poller, and the join side must observe a JoinErrorPanic carrying the
// original payload.
func TestJoinHandle_panicDuringPollBecomesJoinError(t *testing.T) {
	sched := &inlineSchedule{}
	fut := &panicFuture{payload: "boom"}

	var jh *JoinHandle[int]
	require.NotPanics(t, func() {
		_, jh = Spawn[int](fut, sched)
	})

	out, err, ok := jh.TryJoin()
	require.True(t, ok)
	require.Error(t, err)
	require.Equal(t, 0, out)

	var je *JoinError
	require.ErrorAs(t, err, &je)
	require.Equal(t, JoinErrorPanic, je.Kind)
	require.Equal(t, "boom", je.Payload)
}

// TestJoinHandle_joinObservesCancellation exercises Join (not just
// TryJoin): a waiter that registered interest before the cancel arrived
// must still be woken and must see the JoinError once woken.
func TestJoinHandle_joinObservesCancellation(t *testing.T) {
	sched := &manualSchedule{}
	fut := &constFuture{val: 1}
	ref, jh := Spawn[int](fut, sched)

	woken := make(chan struct{}, 1)
	cx := &Context{Waker: wakerFunc(func() { woken <- struct{}{} })}

	_, _, p := jh.Join(cx)
	require.Equal(t, PollPending, p)

	jh.Abort()
	ref.Poll()

	select {
	case <-woken:
	case <-time.After(time.Second):
		t.Fatal("join waker was never woken after cancellation")
	}

	out, err, ok := jh.TryJoin()
	require.True(t, ok)
	require.Error(t, err)
	require.Equal(t, 0, out)
}

// manualSchedule records every Ref it is handed without polling it,
// letting a test drive Poll at its own pace instead of inline-executing
// it the way inlineSchedule does.
type manualSchedule struct{ queued []*Ref }

func (s *manualSchedule) Schedule(r *Ref) { s.queued = append(s.queued, r) }

type wakerFunc func()

func (w wakerFunc) Wake() { w() }
