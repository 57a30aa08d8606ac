// Package task implements the reference-counted, vtable-dispatched
// execution unit at the center of the runtime: a Task wraps a single
// goroutine-free, poll-driven computation and coordinates its lifecycle
// through a single atomically updated state word, matching the bit layout
// conventions of a cooperative task scheduler rather than relying on the
// Go scheduler's own goroutines for suspension.
package task

import "sync/atomic"

// bit layout of the state word: low bits are a fixed set of lifecycle
// flags, the remaining high bits are the reference count. This mirrors
// the packed discriminant+payload convention already used by
// trap.ExitCode elsewhere in this module.
const (
	stateRunning      uint64 = 1 << 0
	stateComplete     uint64 = 1 << 1
	stateNotified     uint64 = 1 << 2
	stateCancelled    uint64 = 1 << 3
	stateJoinInterest uint64 = 1 << 4
	stateJoinWaker    uint64 = 1 << 5

	lifecycleBits = 6
	lifecycleMask = (1 << lifecycleBits) - 1
	refOne        = uint64(1) << lifecycleBits
)

// initialRefCount accounts for the TaskRef returned to the spawner plus the
// implicit ref-count the scheduler holds on a freshly notified task.
const initialRefCount = 2

// State is the single atomic word backing a task's lifecycle. The zero
// value is not valid; use NewState.
type State struct {
	bits atomic.Uint64
}

// NewState returns the initial state of a freshly spawned, already-
// scheduled task: RUNNING is unset, NOTIFIED is set (it is queued for its
// first poll), and the reference count covers both the TaskRef and the
// run-queue entry.
func NewState() *State {
	s := &State{}
	s.bits.Store(stateNotified | (initialRefCount * refOne))
	return s
}

// Snapshot is a point-in-time copy of a task's lifecycle bits, returned by
// read-only queries so callers never reason about a moving target.
type Snapshot struct {
	bits uint64
}

func (s Snapshot) isRunning() bool   { return s.bits&stateRunning != 0 }
func (s Snapshot) IsComplete() bool  { return s.bits&stateComplete != 0 }
func (s Snapshot) isNotified() bool  { return s.bits&stateNotified != 0 }
func (s Snapshot) IsCancelled() bool { return s.bits&stateCancelled != 0 }
func (s Snapshot) hasJoinInterest() bool { return s.bits&stateJoinInterest != 0 }
func (s Snapshot) hasJoinWaker() bool    { return s.bits&stateJoinWaker != 0 }
func (s Snapshot) RefCount() uint64      { return s.bits >> lifecycleBits }

// Load takes a consistent snapshot of the state.
func (s *State) Load() Snapshot {
	return Snapshot{bits: s.bits.Load()}
}

// cas retries a read-modify-write until it either succeeds or the
// predicate rejects the observed snapshot (returning false).
func (s *State) cas(transition func(Snapshot) (uint64, bool)) (Snapshot, bool) {
	for {
		cur := s.bits.Load()
		next, ok := transition(Snapshot{bits: cur})
		if !ok {
			return Snapshot{bits: cur}, false
		}
		if s.bits.CompareAndSwap(cur, next) {
			return Snapshot{bits: next}, true
		}
	}
}

// TransitionToRunningResult is TransitionToRunning's outcome.
type TransitionToRunningResult byte

const (
	// TransitionToRunningOK means the task is now running and poll should
	// proceed as normal.
	TransitionToRunningOK TransitionToRunningResult = iota
	// TransitionToRunningCancelled means Cancelled was set before this
	// poll attempt; the caller must drop the future under a panic guard,
	// record a cancelled JoinError, and advance straight to Complete
	// instead of calling into the future at all.
	TransitionToRunningCancelled
	// TransitionToRunningFailed means another poller already holds the
	// running bit or the task has already completed; the caller must not
	// poll the future.
	TransitionToRunningFailed
)

// TransitionToRunning attempts to move an idle, notified task into the
// running state ahead of a poll call.
func (s *State) TransitionToRunning() TransitionToRunningResult {
	snap, ok := s.cas(func(cur Snapshot) (uint64, bool) {
		if cur.isRunning() || cur.IsComplete() {
			return 0, false
		}
		next := cur.bits | stateRunning
		next &^= stateNotified
		return next, true
	})
	if !ok {
		return TransitionToRunningFailed
	}
	if snap.IsCancelled() {
		return TransitionToRunningCancelled
	}
	return TransitionToRunningOK
}

// TransitionToIdleResult is TransitionToIdle's outcome.
type TransitionToIdleResult byte

const (
	// TransitionToIdleOK means the task is now idle and waiting on its
	// waker; no further action needed.
	TransitionToIdleOK TransitionToIdleResult = iota
	// TransitionToIdleNotified means a wake raced the poll's return and
	// the task must be rescheduled immediately instead of going idle.
	TransitionToIdleNotified
)

// TransitionToIdle clears RUNNING after a poll returns Pending, resolving
// the race against a concurrent wake that happened while the poll was in
// flight (the NOTIFIED bit, if set by a racing wake, means the caller must
// re-submit the task rather than leave it parked).
func (s *State) TransitionToIdle() TransitionToIdleResult {
	snap, _ := s.cas(func(cur Snapshot) (uint64, bool) {
		next := cur.bits &^ stateRunning
		return next, true
	})
	if snap.isNotified() {
		return TransitionToIdleNotified
	}
	return TransitionToIdleOK
}

// TransitionToComplete clears RUNNING and sets COMPLETE once the future
// has resolved (or panicked); it reports whether a join waker must be
// woken (hasJoinWaker was set). It does not change the ref-count.
func (s *State) TransitionToComplete() (mustWakeJoin bool) {
	snap, _ := s.cas(func(cur Snapshot) (uint64, bool) {
		next := (cur.bits &^ stateRunning) | stateComplete
		return next, true
	})
	return snap.hasJoinWaker()
}

// TransitionToNotifiedByVal is wake_by_val: the caller passes ownership of
// one ref-count into the transition.
type TransitionToNotifiedByVal byte

const (
	// NotifiedByValSubmit means a fresh ref-count was minted for a new
	// run-queue entry; the caller must schedule it, then drop its own ref.
	NotifiedByValSubmit TransitionToNotifiedByVal = iota
	// NotifiedByValDealloc means this was the last ref-count; the caller
	// must deallocate the task instead of scheduling it.
	NotifiedByValDealloc
	// NotifiedByValDoNothing means the task was already notified, is
	// running (NOTIFIED is then recorded for TransitionToIdle), or is
	// complete; the caller's ref-count is simply dropped.
	NotifiedByValDoNothing
)

func (s *State) TransitionToNotifiedByVal() TransitionToNotifiedByVal {
	for {
		cur := s.bits.Load()
		snap := Snapshot{bits: cur}
		if snap.IsComplete() {
			next := cur - refOne
			if refCountOf(next) == 0 {
				if s.bits.CompareAndSwap(cur, next) {
					return NotifiedByValDealloc
				}
				continue
			}
			if s.bits.CompareAndSwap(cur, next) {
				return NotifiedByValDoNothing
			}
			continue
		}
		if snap.isNotified() || snap.isRunning() {
			// A wake during a poll records NOTIFIED so that TransitionToIdle
			// re-submits the task.
			next := (cur | stateNotified) - refOne
			if s.bits.CompareAndSwap(cur, next) {
				return NotifiedByValDoNothing
			}
			continue
		}
		// Neither running nor already notified: mint a fresh ref for the
		// run-queue entry and mark notified; the caller then schedules the
		// task and drops its own ref.
		next := (cur | stateNotified) + refOne
		if s.bits.CompareAndSwap(cur, next) {
			return NotifiedByValSubmit
		}
	}
}

// TransitionToNotifiedByRef is wake_by_ref: no ref-count changes hands.
type TransitionToNotifiedByRef byte

const (
	NotifiedByRefSubmit    TransitionToNotifiedByRef = iota
	NotifiedByRefDoNothing
)

func (s *State) TransitionToNotifiedByRef() TransitionToNotifiedByRef {
	submit := false
	_, ok := s.cas(func(cur Snapshot) (uint64, bool) {
		if cur.IsComplete() || cur.isNotified() {
			return 0, false
		}
		if cur.isRunning() {
			// Record the wake for TransitionToIdle; nothing is scheduled.
			submit = false
			return cur.bits | stateNotified, true
		}
		submit = true
		return (cur.bits | stateNotified) + refOne, true
	})
	if !ok || !submit {
		return NotifiedByRefDoNothing
	}
	return NotifiedByRefSubmit
}

// SetCancelled marks the task cancelled; it does not itself wake or
// reschedule anything, matching the original's split between "record
// intent" and "act on it" steps.
func (s *State) SetCancelled() {
	for {
		cur := s.bits.Load()
		if s.bits.CompareAndSwap(cur, cur|stateCancelled) {
			return
		}
	}
}

// SetJoinInterest records that at least one JoinHandle still cares about
// the output; it returns false if the task already completed, in which
// case the caller must read the output immediately instead of waiting.
func (s *State) SetJoinInterest() bool {
	snap, ok := s.cas(func(cur Snapshot) (uint64, bool) {
		if cur.IsComplete() {
			return 0, false
		}
		return cur.bits | stateJoinInterest, true
	})
	_ = snap
	return ok
}

// SetJoinWaker records that a waker is now stored for the join side,
// returning false if the task completed concurrently (the caller must
// then read the output directly rather than trust the stored waker).
func (s *State) SetJoinWaker() bool {
	_, ok := s.cas(func(cur Snapshot) (uint64, bool) {
		if cur.IsComplete() {
			return 0, false
		}
		return cur.bits | stateJoinWaker, true
	})
	return ok
}

// RefInc increments the reference count for a new TaskRef clone.
func (s *State) RefInc() {
	s.bits.Add(refOne)
}

// RefDec decrements the reference count and reports whether it reached
// zero, meaning the caller must deallocate the task.
func (s *State) RefDec() bool {
	next := s.bits.Add(-refOne)
	return refCountOf(next) == 0
}

func refCountOf(bits uint64) uint64 {
	return bits >> lifecycleBits
}
