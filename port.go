package eventhub

// Port is the capability record a platform supplies to the core. There
// is exactly one implementation per build — a bare-metal MCU port, a
// hosted POSIX port (see port/posix), or a test fake — so this is a
// concrete interface rather than anything more elaborate.
type Port interface {
	// ClocksPerSec is the number of ticks per second of ClockMonotonic.
	ClocksPerSec() int64

	// ClockMonotonic returns the current tick count. Must be
	// non-decreasing for the lifetime of the process (wraparound of the
	// underlying counter is tolerated by the timer engine's
	// signed-difference comparisons). Called both inside and outside
	// the critical section, so it must never itself acquire the same
	// lock EnterCritical does.
	ClockMonotonic() Ticks

	// EnterCritical acquires the scheduler's single lock abstraction and
	// returns an opaque token to pass to ExitCritical. Bare-metal:
	// disable interrupts, return the prior interrupt mask. Hosted
	// POSIX (port/posix): lock a plain sync.Mutex, which is not
	// reentrant.
	EnterCritical() (token uint32)

	// ExitCritical releases what EnterCritical acquired.
	ExitCritical(token uint32)

	// IdleOrExternEventHandler is invoked from the main loop when the
	// ready list is empty. blocked is true when at least one timer is
	// armed, so the scheduler becomes runnable again by a known deadline;
	// the hook is expected to sleep until ExpireTimeChange's most
	// recent deadline elapses or an external producer breaks it early.
	IdleOrExternEventHandler(blocked bool)

	// ExpireTimeChange hints the idle hook that the soonest deadline has
	// changed, so a running hook can rearm its underlying OS primitive.
	// neverExpires is true when no timer is armed (the hook should sleep
	// until an external wake rather than any deadline).
	ExpireTimeChange(neverExpires bool, newDeadline Ticks)
}

// schedulerOptions is the result of applying Options to Init.
type schedulerOptions struct {
	port         Port
	clocksPerSec int64
	idleCeiling  Ticks
	debugLevel   LogLevel
}

// Option configures Init. Grounded on eventloop/options.go's functional
// options (LoopOption / loopOptionImpl).
type Option interface {
	apply(*schedulerOptions)
}

type optionFunc func(*schedulerOptions)

func (f optionFunc) apply(o *schedulerOptions) { f(o) }

// WithPort installs the platform capability record. Required — Init
// returns InvalidParam if no port is supplied.
func WithPort(p Port) Option {
	return optionFunc(func(o *schedulerOptions) { o.port = p })
}

// WithClocksPerSec overrides the tick rate the scheduler reports via the
// package-level ClocksPerSec, and the basis for the default idle
// deadline ceiling, instead of trusting the port's own ClocksPerSec.
// Useful when a port's declared rate isn't the rate application code
// should convert against (e.g. a test fake with an arbitrary tick unit).
func WithClocksPerSec(clocksPerSec int64) Option {
	return optionFunc(func(o *schedulerOptions) { o.clocksPerSec = clocksPerSec })
}

// WithIdleDeadlineCeiling overrides the clamp on how long the idle hook
// is told it may sleep when no timer is armed; default is 60 seconds of
// ticks.
func WithIdleDeadlineCeiling(ceiling Ticks) Option {
	return optionFunc(func(o *schedulerOptions) { o.idleCeiling = ceiling })
}

// WithDebugLevel sets the minimum level logged by the default logger
// installed at Init, if the caller hasn't already called SetLogger.
func WithDebugLevel(level LogLevel) Option {
	return optionFunc(func(o *schedulerOptions) { o.debugLevel = level })
}
