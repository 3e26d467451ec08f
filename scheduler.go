package eventhub

import (
	"sync"

	"github.com/xiaoapeng/go-eventhub/internal/coroutine"
	"github.com/xiaoapeng/go-eventhub/internal/timerqueue"
)

// Scheduler is the single process-wide run queue and timer engine.
// There is exactly one instance, reached through package-level
// functions (Create, Yield, WaitCondition, ...) rather than a handle
// threaded through every call, matching the original's single global
// `eh` instance (original_source/src/eh.c).
type Scheduler struct {
	port         Port
	clocksPerSec int64
	idleCeiling  Ticks

	readyList  List[Task]
	waitList   List[Task]
	finishList List[Task]

	current    *Task
	systemTask *Task

	timers *timerqueue.Engine[Ticks, *Timer]

	stopping bool
}

var (
	schedMu sync.Mutex
	sched   *Scheduler
)

func globalScheduler() *Scheduler {
	schedMu.Lock()
	defer schedMu.Unlock()
	return sched
}

// Init installs the process-wide scheduler. WithPort is mandatory; every
// other option has a default.
func Init(opts ...Option) error {
	schedMu.Lock()
	defer schedMu.Unlock()
	if sched != nil {
		return WrapError(InvalidState, nil)
	}
	o := schedulerOptions{debugLevel: LevelWarn}
	for _, opt := range opts {
		opt.apply(&o)
	}
	if o.port == nil {
		return WrapError(InvalidParam, nil)
	}
	if o.clocksPerSec <= 0 {
		o.clocksPerSec = o.port.ClocksPerSec()
	}
	if o.idleCeiling <= 0 {
		o.idleCeiling = defaultIdleCeilingSeconds * Ticks(o.clocksPerSec)
	}
	s := &Scheduler{
		port:         o.port,
		clocksPerSec: o.clocksPerSec,
		idleCeiling:  o.idleCeiling,
		timers:       timerqueue.NewEngine[Ticks, *Timer](),
	}
	sched = s
	globalLogger.Lock()
	if globalLogger.logger == nil {
		globalLogger.logger = NewDefaultLogger(o.debugLevel, nil)
	}
	globalLogger.Unlock()
	logDebug("scheduler initialized", "idle_ceiling", o.idleCeiling)
	return nil
}

// Deinit tears the process-wide scheduler down. Intended for tests and
// embedders that run multiple independent scheduler lifetimes in one
// process; a real target simply never calls it.
func Deinit() {
	schedMu.Lock()
	defer schedMu.Unlock()
	sched = nil
}

// wakeLocked moves t from Waiting to Ready: to the head of the ready
// list if it is the system task, to the tail otherwise. Caller must
// hold the critical section.
func (s *Scheduler) wakeLocked(t *Task) {
	if t.state != StateWaiting {
		return
	}
	s.waitList.Remove(t, taskLink)
	t.state = StateReady
	if t.systemTask {
		s.readyList.PushFront(t, taskLink)
	} else {
		s.readyList.PushBack(t, taskLink)
	}
}

// parkCurrent suspends the calling task's goroutine until the scheduler
// switches back into it. Caller must have already placed t onto the
// wait or ready list and released the critical section — this is the
// only function in the package that actually crosses the
// coroutine.Yield boundary outside of Run's own coroutine.Switch.
func (s *Scheduler) parkCurrent(t *Task) {
	coroutine.Yield(t.ctx, switchMsg{reason: reasonYield})
}

// Run is the scheduler's main loop: fire due timers, pick the next ready
// task, switch into it, handle how it came back, and idle when nothing
// is runnable. It runs on the calling
// goroutine and returns only after Stop is called.
func (s *Scheduler) Run() {
	for {
		now := s.port.ClockMonotonic()

		token := s.port.EnterCritical()
		due := s.timers.Due(now)
		s.port.ExitCritical(token)
		for _, tm := range due {
			s.fireTimer(tm, now)
		}

		token = s.port.EnterCritical()
		if s.stopping {
			s.port.ExitCritical(token)
			return
		}
		next := s.readyList.PopFront(taskLink)
		if next == nil {
			blocked := s.timers.Len() > 0
			remaining := s.timers.FirstRemaining(now, s.idleCeiling)
			s.port.ExpireTimeChange(s.timers.Len() == 0, now+remaining)
			s.port.ExitCritical(token)
			s.port.IdleOrExternEventHandler(blocked)
			continue
		}
		next.state = StateRunning
		s.current = next
		s.port.ExitCritical(token)

		arg := any(nil)
		if !next.started {
			arg = next.arg
			next.started = true
		}
		raw := coroutine.Switch(next.ctx, arg)
		msg, _ := raw.(switchMsg)

		token = s.port.EnterCritical()
		s.current = nil
		if msg.reason == reasonExit {
			next.retCode = msg.retCode
			next.state = StateFinished
			s.finishList.PushBack(next, taskLink)
		}
		s.port.ExitCritical(token)
		if msg.reason == reasonExit {
			next.joinEvent.Notify()
		}
	}
}

// fireTimer delivers one timer's expiry: notifies its embedded event,
// then re-arms it if AUTO_CIRCULATION is set.
func (s *Scheduler) fireTimer(t *Timer, now Ticks) {
	t.event.Notify()
	if !t.AutoCirculation() {
		return
	}
	token := s.port.EnterCritical()
	base := t.expire
	if t.NowTimeBase() {
		base = now
	}
	_, err := s.timers.Start(t, base+t.interval)
	s.port.ExitCritical(token)
	if err != nil {
		logWarn("timer re-arm failed", "error", err)
	}
}

// Stop requests that Run return once the current pass through the loop
// finishes. Safe to call from any task or an asynchronous producer.
func Stop() {
	s := globalScheduler()
	if s == nil {
		return
	}
	token := s.port.EnterCritical()
	s.stopping = true
	s.port.ExitCritical(token)
}

// ClocksPerSec reports the tick rate in effect for the process-wide
// scheduler, as configured by WithClocksPerSec or, absent that, the
// port's own ClocksPerSec. Lets callers convert with MsecToTicks/
// UsecToTicks without holding a reference to the Port themselves.
func ClocksPerSec() int64 {
	s := globalScheduler()
	if s == nil {
		return 0
	}
	return s.clocksPerSec
}

// Run drives the process-wide scheduler. Sugar over
// globalScheduler().Run() for callers that only ever have one scheduler
// alive, which is the common case.
func Run() error {
	s := globalScheduler()
	if s == nil {
		return WrapError(InvalidState, nil)
	}
	s.Run()
	return nil
}
