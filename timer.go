package eventhub

import "github.com/xiaoapeng/go-eventhub/internal/timerqueue"

// Attr is the timer attribute bitmask.
type Attr uint8

const (
	// AutoCirculation re-arms the timer on fire.
	AutoCirculation Attr = 1 << iota
	// NowTimeBase measures an auto-circulated re-arm from the actual
	// firing instant rather than from the scheduled deadline.
	NowTimeBase
)

// Timer is an Event embedded in a red-black-tree node keyed by
// expiration tick. Grounded on
// original_source/src/eh_timer.c + src/event_timer.c, restructured onto
// internal/timerqueue's generic engine instead of eh_rbtree.c's
// container_of-based intrusive node.
type Timer struct {
	event    Event
	interval Ticks
	attr     Attr
	expire   Ticks
}

// compile-time assertion *Timer satisfies timerqueue.Entry[Ticks]: the
// engine cannot be instantiated with it otherwise.
var _ = timerqueue.NewEngine[Ticks, *Timer]

func (t *Timer) Expire() Ticks         { return t.expire }
func (t *Timer) SetExpire(v Ticks)     { t.expire = v }
func (t *Timer) Interval() Ticks       { return t.interval }
func (t *Timer) AutoCirculation() bool { return t.attr&AutoCirculation != 0 }
func (t *Timer) NowTimeBase() bool     { return t.attr&NowTimeBase != 0 }

// InitTimer initializes t, giving it a usable embedded Event (for
// components that want to wait on timer expiry directly via
// WaitTimeout(t.Event(), ...), e.g. the epoll aggregator).
func InitTimer(t *Timer) {
	*t = Timer{}
	InitEvent(&t.event, "timer")
}

// Event returns the timer's embedded notification event.
func (t *Timer) Event() *Event { return &t.event }

// Clean releases t, waking any waiters on its embedded event and
// stopping it if running.
func (t *Timer) Clean() {
	t.Stop()
	t.event.Clean()
}

// SetInterval sets the re-arm duration in ticks.
func (t *Timer) SetInterval(ticks Ticks) { t.interval = ticks }

// SetAttr sets the AUTO_CIRCULATION / NOW_TIME_BASE attribute bits.
func (t *Timer) SetAttr(attr Attr) { t.attr = attr }

// Start arms t. Returns ErrBusy if t is already running.
func (t *Timer) Start() (becameLeftmost bool, err error) {
	s := globalScheduler()
	token := s.port.EnterCritical()
	defer s.port.ExitCritical(token)
	return startTimerLocked(s, t)
}

// Stop idempotently disarms t.
func (t *Timer) Stop() {
	s := globalScheduler()
	token := s.port.EnterCritical()
	defer s.port.ExitCritical(token)
	stopTimerLocked(s, t)
}

// Restart is Stop followed by Start at one locked point.
func (t *Timer) Restart() (becameLeftmost bool, err error) {
	s := globalScheduler()
	token := s.port.EnterCritical()
	defer s.port.ExitCritical(token)
	stopTimerLocked(s, t)
	return startTimerLocked(s, t)
}

// --- lock-assumed internals, used both by the public methods above and
// by event.go's wait-with-timeout path, which is already inside the
// scheduler's critical section when it calls these and must not try to
// re-enter it. The critical section is a plain non-reentrant lock; these
// Locked-suffixed functions are how callers that already hold it share
// logic with callers that don't, instead of a recursive mutex — see
// DESIGN.md. ---

func startTimerLocked(s *Scheduler, t *Timer) (becameLeftmost bool, err error) {
	now := s.port.ClockMonotonic()
	became, engErr := s.timers.Start(t, now+t.interval)
	if engErr != nil {
		return false, WrapError(Busy, engErr)
	}
	if became {
		s.port.ExpireTimeChange(false, s.timers.FirstRemaining(now, s.idleCeiling)+now)
	}
	logDebug("timer started", "interval", t.interval, "became_leftmost", became)
	return became, nil
}

func stopTimerLocked(s *Scheduler, t *Timer) {
	s.timers.Stop(t)
}

// newInternalTimeoutTimer builds the disposable internal timer used by
// WaitCondition's and EpollSet.Wait's bounded-timeout path.
func newInternalTimeoutTimer(timeout Ticks) *Timer {
	tm := &Timer{}
	InitTimer(tm)
	tm.SetInterval(timeout)
	return tm
}
