// Package coroutine supplies the single stackful execution primitive the
// scheduler is built on.
//
// A bare-metal implementation of this role is an architecture-specific
// swap(arg, from, to) that saves the callee-saved registers of the
// running stack and resumes a target stack, plus a make(stack_limit,
// stack_top, entry) that paints a fresh stack so the first swap into it
// starts a trampoline calling entry — hand-written ARM/RISC-V assembly
// (see original_source/src/coroutine/*). In Go the stackful execution
// unit already exists as the goroutine, so this package does not
// allocate or paint any stack memory itself. It reduces the architecture
// contract to its essential semantics — "save control here, resume
// control there" — implemented as baton-passing over a pair of
// unbuffered channels per Context, one per direction. Exactly one side
// holds the baton at a time, which is what makes the cooperative
// scheduler single-threaded in effect even though each Context is backed
// by its own OS-scheduled goroutine.
package coroutine

// Context is the saved-execution-state handle for one stackful unit.
// The zero value is not usable; construct with Make.
type Context struct {
	resume chan any
	yield  chan any
	done   chan struct{}
}

// Make paints a fresh Context whose entry trampoline calls fn on the
// first Switch into it. fn receives the argument passed to that first
// Switch and its return value becomes the argument of the yield produced
// when fn returns: a returning entry does not itself terminate the task;
// termination is always observed by the caller as an ordinary yield, and
// it is the caller's responsibility (the scheduler) to treat a
// post-return Switch as a fault, never to Switch into the Context again.
func Make(fn func(arg any) any) *Context {
	c := &Context{
		resume: make(chan any),
		yield:  make(chan any),
		done:   make(chan struct{}),
	}
	go func() {
		arg := <-c.resume
		ret := fn(arg)
		c.yield <- ret
		close(c.done)
	}()
	return c
}

// Switch resumes to with arg and blocks the calling goroutine until to
// yields (via Yield, called from inside fn) or returns from fn. The
// value passed to Yield (or returned by fn) becomes Switch's result.
//
// Switch must never be called again on a Context after it has yielded
// its final value (fn returned) — that is the "entry returns" fault
// case, and panics, because there is no trampoline to spin in Go; the
// caller (the scheduler core) is responsible for never scheduling a
// Finished task again.
func Switch(to *Context, arg any) any {
	select {
	case <-to.done:
		panic("coroutine: switch into a context whose entry already returned")
	default:
	}
	to.resume <- arg
	return <-to.yield
}

// Yield hands control back to whichever goroutine last called Switch on
// this Context, passing val as that Switch's return value, and parks
// until the scheduler Switches back in with a new resume argument, which
// becomes Yield's return value.
func Yield(c *Context, val any) any {
	c.yield <- val
	return <-c.resume
}
