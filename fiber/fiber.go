// Package fiber implements cooperative stack switching as a pair of
// synchronously handed-off goroutines instead of hand-written
// architecture-specific assembly.
//
// The original design allocates a separate machine stack per fiber and
// switches to it with a naked, per-architecture trampoline (pushing a
// return address and the initial object onto the target stack, then doing
// a raw register swap — see init_stack/stack_init_trampoline). Go gives
// every goroutine its own growable stack already and forbids inline
// assembly of this kind from ordinary packages, so there is no
// idiomatic-Go equivalent of arch/x86_64_windows.rs to write: a goroutine
// blocked on an unbuffered channel IS a suspended stack switch, without
// needing TEB bookkeeping or a STACK_ALIGNMENT constant. This package
// reproduces the original's switch_and_link/switch_back control-transfer
// contract (the caller is suspended for exactly as long as the callee
// runs) on top of that substrate.
package fiber

// Fiber is a cooperative, explicitly-switched unit of execution. Unlike a
// bare goroutine, control never returns to its caller until the fiber
// itself calls Yield or returns, matching switch_and_link's "parent is
// suspended until the child switches back" contract.
type Fiber struct {
	in     chan any
	out    chan any
	done   chan struct{}
	result any
}

// Func is the body run on a fiber. cx is used to Yield control back to the
// resumer, receiving whatever value the next Resume call sends.
type Func func(cx *Context, arg any) any

// Context is the fiber-side handle passed to a running Func, analogous to
// the `sp: &mut StackPointer` the original's init_stack threads through to
// the fiber's entry point.
type Context struct {
	f *Fiber
}

// Yield suspends the running fiber, handing val back to whatever Resume
// call is currently blocked, and parks until the next Resume supplies a
// value, exactly mirroring switch_and_link's symmetric handoff.
func (cx *Context) Yield(val any) any {
	cx.f.out <- val
	return <-cx.f.in
}

// New starts fn on a dedicated goroutine, immediately suspended: fn does
// not begin running until the first Resume call, matching the original's
// deferred entry via stack_init_trampoline (the fiber's first instruction
// only executes once switch_and_link is first invoked on its stack).
func New(fn Func) *Fiber {
	f := &Fiber{
		in:   make(chan any),
		out:  make(chan any),
		done: make(chan struct{}),
	}
	go func() {
		arg := <-f.in
		cx := &Context{f: f}
		f.result = fn(cx, arg)
		close(f.done)
	}()
	return f
}

// Resume switches into the fiber, handing it arg, and blocks the calling
// goroutine until the fiber either Yields or returns. It reports the
// value the fiber yielded (or returned) and whether the fiber has now
// finished (Finished == true means subsequent Resume calls are invalid).
func (f *Fiber) Resume(arg any) (val any, finished bool) {
	f.in <- arg
	select {
	case v := <-f.out:
		return v, false
	case <-f.done:
		return f.result, true
	}
}
