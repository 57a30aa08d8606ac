package task

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// JoinErrorKind distinguishes the two ways a task can fail to produce an
// output: the future panicked while being polled, or the task was
// cancelled (via Abort) before it ever produced one.
type JoinErrorKind byte

const (
	JoinErrorPanic JoinErrorKind = iota
	JoinErrorCancelled
)

// JoinError is what a JoinHandle observes instead of an output when the
// task never resolved normally; it carries enough to attribute the
// failure back to the task that caused it, matching raw.rs's
// JoinError::panic(task_id, payload)/JoinError::cancelled(task_id).
type JoinError struct {
	TaskID  uint64
	Kind    JoinErrorKind
	Payload any
}

func (e *JoinError) Error() string {
	switch e.Kind {
	case JoinErrorCancelled:
		return fmt.Sprintf("task %d was cancelled", e.TaskID)
	default:
		return fmt.Sprintf("task %d panicked: %v", e.TaskID, e.Payload)
	}
}

var nextTaskID atomic.Uint64

// Poll is the outcome of advancing a task's future by one step.
type Poll byte

const (
	// PollPending means the future is not yet done and must be polled
	// again after it wakes its Waker.
	PollPending Poll = iota
	// PollReady means the future produced its final value.
	PollReady
)

// Waker lets a pending future's completion source notify the scheduler
// that the owning task should be polled again, without either side
// holding a reference to the other's concrete type.
type Waker interface {
	Wake()
}

// Future is the unit of work a Task drives: each call either returns the
// result or PollPending, in which case it has arranged (via some Waker
// captured from the Context) to be woken later. Futures are not expected
// to be safe for concurrent Poll calls; the scheduler enforces the
// single-poller-at-a-time invariant the State word encodes.
type Future[T any] interface {
	Poll(cx *Context) (T, Poll)
}

// Context is handed to a Future on every poll; it exposes the Waker the
// future should stash before returning Pending.
type Context struct {
	Waker Waker
}

// Schedule is how a runtime re-submits a notified task for polling. It is
// the scheduler-supplied half of the vtable's "schedule" function pointer
// in the original design.
type Schedule interface {
	Schedule(ref *Ref)
}

// Header is the type-erased, always-present part of a task: everything a
// holder of a bare *Ref needs without knowing the Future's result type.
// It plays the role the vtable-carrying Header struct plays in the
// original design, dispatching through function values instead of a
// separate vtable struct since Go has no manual vtable layout to match.
type Header struct {
	state     *State
	poll      func(*Ref)
	cancel    func(*Ref)
	dealloc   func(*Ref)
	schedule  Schedule
	mu        sync.Mutex
	waker     Waker
	completed bool
}

// Ref is a type-erased, reference-counted handle to a task, analogous to
// the original design's TaskRef: a NonNull<Header> plus the vtable it
// carries. Cloning a Ref increments the task's ref-count; dropping one
// (Release) decrements it and deallocates on the last release.
type Ref struct {
	h *Header
}

// Clone returns a new Ref sharing the same underlying task, incrementing
// its reference count.
func (r *Ref) Clone() *Ref {
	r.h.state.RefInc()
	return &Ref{h: r.h}
}

// Release drops this Ref's reference count, deallocating the task if it
// was the last one outstanding.
func (r *Ref) Release() {
	if r.h.state.RefDec() {
		r.h.dealloc(r)
	}
}

// Poll drives the task's future exactly once if it is not already running
// and not complete, matching raw.rs's poll() vtable entry: it transitions
// RUNNING, invokes the type-specific poll closure, then resolves the
// Idle/Notified race via TransitionToIdle. A task observed Cancelled at
// this transition never reaches the future at all; it is cancelled in
// place instead.
func (r *Ref) Poll() {
	switch r.h.state.TransitionToRunning() {
	case TransitionToRunningFailed:
		return
	case TransitionToRunningCancelled:
		r.h.cancel(r)
		return
	}
	r.h.poll(r)
}

// wakeByVal implements wake_by_val: the caller's Ref is consumed by this
// call (do not use it afterward).
func (r *Ref) wakeByVal() {
	switch r.h.state.TransitionToNotifiedByVal() {
	case NotifiedByValSubmit:
		r.h.schedule.Schedule(r)
		r.Release()
	case NotifiedByValDealloc:
		r.h.dealloc(r)
	case NotifiedByValDoNothing:
	}
}

// wakeByRef implements wake_by_ref: r is left valid and still owned by
// the caller afterward.
func (r *Ref) wakeByRef() {
	if r.h.state.TransitionToNotifiedByRef() == NotifiedByRefSubmit {
		r.h.schedule.Schedule(r.Clone())
	}
}

// taskWaker adapts a *Ref into the Waker interface a Future's Context
// carries, so a completion source holding only a Waker can still drive
// wake_by_val/wake_by_ref semantics without depending on the task package.
type taskWaker struct{ ref *Ref }

func (w taskWaker) Wake() { w.ref.wakeByRef() }

// Core holds the Future itself plus, once it resolves, its outcome: either
// an output value or a JoinError (panic/cancellation). It is the generic
// part raw.rs splits out of Header so that type-erased code (Ref, Header,
// the scheduler) never needs to know T.
type Core[T any] struct {
	future Future[T]
	output T
	ok     bool
	err    *JoinError
}

// Trailer holds the join side: a stored Waker for whichever JoinHandle is
// currently awaiting the output, set up the first time Join observes
// Pending.
type Trailer struct {
	mu        sync.Mutex
	joinWaker Waker
}

// task is the concrete, type-complete task object combining Header, Core,
// and Trailer, matching raw.rs's cache-line-padded Task<F, S> triple
// (padding is omitted here: Go's GC and scheduler give no placement
// control worth emulating without a measured false-sharing regression).
type task[T any] struct {
	Header
	id      uint64
	core    Core[T]
	trailer Trailer
}

// Spawn creates a new task running fut, registers it with sched for its
// first (and every subsequent) scheduling, and returns a type-erased Ref
// plus a JoinHandle[T] for observing the result.
func Spawn[T any](fut Future[T], sched Schedule) (*Ref, *JoinHandle[T]) {
	t := &task[T]{
		id: nextTaskID.Add(1),
		Header: Header{
			state:    NewState(),
			schedule: sched,
		},
		core: Core[T]{future: fut},
	}
	t.Header.poll = t.poll
	t.Header.cancel = t.cancel
	t.Header.dealloc = t.dealloc

	ref := &Ref{h: &t.Header}
	sched.Schedule(&Ref{h: &t.Header})

	return ref, &JoinHandle[T]{t: t}
}

// poll is the type-specific half of the Ref.Poll flow: it actually calls
// into the Future, records the output on completion, and resolves the
// idle/renotify race exactly as wake_by_val's Submit path expects. A panic
// escaping the future is caught here and converted into a JoinError
// instead of taking down the poller, matching raw.rs's panic-guarded
// cancel_task/poll split.
func (t *task[T]) poll(r *Ref) {
	defer func() {
		if rec := recover(); rec != nil {
			t.completeWith(nil, &JoinError{TaskID: t.id, Kind: JoinErrorPanic, Payload: rec})
		}
	}()

	cx := &Context{Waker: taskWaker{ref: r.Clone()}}
	out, p := t.core.future.Poll(cx)
	if p == PollPending {
		if t.Header.state.TransitionToIdle() == TransitionToIdleNotified {
			t.Header.schedule.Schedule(r.Clone())
		}
		return
	}

	t.completeWith(&out, nil)
}

// cancel is reached only via TransitionToRunningCancelled: the future is
// never polled at all, and the join side observes a cancelled JoinError
// instead of an output.
func (t *task[T]) cancel(r *Ref) {
	t.completeWith(nil, &JoinError{TaskID: t.id, Kind: JoinErrorCancelled})
}

// completeWith records the task's final outcome (exactly one of out/err is
// non-nil), advances the state machine to Complete, and wakes whichever
// join waker is stored, if any.
func (t *task[T]) completeWith(out *T, err *JoinError) {
	if out != nil {
		t.core.output, t.core.ok = *out, true
	} else {
		t.core.err = err
	}
	if t.Header.state.TransitionToComplete() {
		t.trailer.mu.Lock()
		w := t.trailer.joinWaker
		t.trailer.mu.Unlock()
		if w != nil {
			w.Wake()
		}
	}
}

// dealloc releases whatever resources the task holds once its ref-count
// reaches zero. Go's GC reclaims the task struct itself; this exists so
// Ref.Release has a uniform hook even though nothing manual is needed
// today, matching the vtable-entry shape raw.rs exposes.
func (t *task[T]) dealloc(*Ref) {}

// JoinHandle lets the spawner of a task observe its eventual output,
// mirroring raw.rs's join side of the Header/Trailer split.
type JoinHandle[T any] struct {
	t *task[T]
}

// TryJoin returns the task's output if it has completed, or (zero, nil,
// false) if it is still running. A completed task that panicked or was
// cancelled instead reports (zero, *JoinError, true).
func (j *JoinHandle[T]) TryJoin() (T, error, bool) {
	if !j.t.Header.state.Load().IsComplete() {
		var zero T
		return zero, nil, false
	}
	if j.t.core.err != nil {
		var zero T
		return zero, j.t.core.err, true
	}
	return j.t.core.output, nil, true
}

// Join does not block: if the task has completed it returns PollReady with
// its output or the JoinError that explains why there isn't one; otherwise
// it stores cx's Waker to be woken on completion and returns PollPending.
func (j *JoinHandle[T]) Join(cx *Context) (T, error, Poll) {
	if out, err, ok := j.TryJoin(); ok {
		return out, err, PollReady
	}
	if !j.t.Header.state.SetJoinInterest() {
		out, err, _ := j.TryJoin()
		return out, err, PollReady
	}
	j.t.trailer.mu.Lock()
	j.t.trailer.joinWaker = cx.Waker
	j.t.trailer.mu.Unlock()
	if !j.t.Header.state.SetJoinWaker() {
		out, err, _ := j.TryJoin()
		return out, err, PollReady
	}
	var zero T
	return zero, nil, PollPending
}

// Abort requests cancellation of the task by setting its Cancelled bit.
// The next Ref.Poll observes the bit at TransitionToRunning and completes
// the task with a cancelled JoinError without calling the Future. Abort
// does not interrupt a poll already in progress and does not schedule the
// task.
func (j *JoinHandle[T]) Abort() {
	j.t.Header.state.SetCancelled()
}
