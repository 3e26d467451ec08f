package eventhub

// Event is a named, payload-less, fan-out notification primitive.
// Notify wakes every attached receptor; there is no queue, so a
// notify with nobody waiting is simply lost, by design.
//
// Grounded on original_source/src/eh_event.c / src/include/eh_event.h
// for the wait/notify protocol.
type Event struct {
	name       string
	receptors  List[Receptor]
	destroyed  bool
}

// InitEvent initializes e for use. The original's `init(e, type)` takes
// an event kind; that's folded into the zero-value Event here since Go
// has no "event kind" distinction at this layer (kind-specific behavior,
// e.g. timers, is layered on top rather than switched on internally).
func InitEvent(e *Event, name string) {
	*e = Event{name: name}
}

// Receptor is a per-waiter attachment to one Event. WaitCondition
// declares its receptors as ordinary local variables that the event's
// list borrows only for the duration of one wait call, so no task↔event
// ownership cycle forms; EpollSet instead keeps one long-lived Receptor
// inside each of its heap-allocated entries. Because the event's list
// stores a receptor's address, Go's escape analysis decides whether a
// local receptor lives on the stack or the heap, and a bounded wait also
// allocates its internal timeout Timer: a suspension point is not
// guaranteed to be heap-free.
type Receptor struct {
	link      listNode[Receptor]
	event     *Event
	wakeTask  *Task
	notifyCnt int
	attached  bool
}

func receptorLink(r *Receptor) *listNode[Receptor] { return &r.link }

func attachReceptor(e *Event, r *Receptor, waker *Task) {
	r.event = e
	r.wakeTask = waker
	r.notifyCnt = 0
	r.attached = true
	e.receptors.PushBack(r, receptorLink)
}

func detachReceptor(r *Receptor) {
	if !r.attached {
		return
	}
	r.event.receptors.Remove(r, receptorLink)
	r.attached = false
}

// Notify wakes every receptor currently attached to e: each receptor's
// notifyCnt is incremented and, the first time a given task is seen in
// this pass, that task is moved from Waiting to Ready (to the list tail
// for ordinary tasks, to the head for the system task). Safe to call
// from an asynchronous producer such as an ISR or host thread.
func (e *Event) Notify() {
	s := globalScheduler()
	token := s.port.EnterCritical()
	defer s.port.ExitCritical(token)

	woken := make(map[*Task]bool)
	e.receptors.Each(receptorLink, func(r *Receptor) {
		r.notifyCnt++
		t := r.wakeTask
		if t == nil || woken[t] {
			return
		}
		woken[t] = true
		if t.state == StateWaiting {
			s.wakeLocked(t)
		}
	})
	logDebug("event notify", "event", e.name, "woken", len(woken))
}

// Clean destroys e, waking every attached waiter with ErrEventError;
// afterward no receptor referencing e remains attached anywhere.
// Sequencing Clean after all legitimate notifiers have finished is the
// caller's responsibility.
func (e *Event) Clean() {
	s := globalScheduler()
	token := s.port.EnterCritical()
	e.destroyed = true
	var toWake []*Task
	e.receptors.Each(receptorLink, func(r *Receptor) {
		detachReceptor(r)
		if r.wakeTask != nil && r.wakeTask.state == StateWaiting {
			toWake = append(toWake, r.wakeTask)
		}
	})
	for _, t := range toWake {
		s.wakeLocked(t)
	}
	s.port.ExitCritical(token)
	logDebug("event cleaned", "event", e.name)
}

// waitResult is the outcome of one pass through the wait protocol below.
type waitResult int

const (
	waitPending waitResult = iota
	waitOk
	waitSpurious
	waitEventError
)

// WaitCondition implements the single-event conditional-wait loop: block
// until e notifies and pred (if any) is satisfied, or timeout elapses.
// pred may be nil (plain wait-for-notify); timeout is ticks, or Forever.
// A zero or positive-but-invalid timeout outside the single-event API's
// contract is the caller's concern — this function only special-cases
// Forever vs. a concrete deadline; InvalidParam on timeout<=0 (and
// timeout!=Forever) is enforced by WaitTimeout, the public thin wrapper.
func WaitCondition(e *Event, pred func() bool, timeout Ticks) error {
	t := Self()
	if t == nil {
		return WrapError(Fault, errNoCurrentTask)
	}
	s := globalScheduler()

	var r Receptor
	var tr Receptor
	var timer *Timer
	if timeout != Forever {
		timer = newInternalTimeoutTimer(timeout)
	}

	cleanup := func() {
		token := s.port.EnterCritical()
		detachReceptor(&r)
		if timer != nil {
			detachReceptor(&tr)
			stopTimerLocked(s, timer)
		}
		s.port.ExitCritical(token)
	}

	token := s.port.EnterCritical()
	attachReceptor(e, &r, t)
	if timer != nil {
		attachReceptor(&timer.event, &tr, t)
	}
	if pred != nil && pred() {
		detachReceptor(&r)
		if timer != nil {
			detachReceptor(&tr)
		}
		s.port.ExitCritical(token)
		return nil
	}
	if timer != nil {
		if _, err := startTimerLocked(s, timer); err != nil {
			s.port.ExitCritical(token)
			cleanup()
			return WrapError(Fault, err)
		}
	}
	s.port.ExitCritical(token)

	for {
		s.parkCurrent(t)

		token = s.port.EnterCritical()
		res := evaluateWait(&r, pred)
		if res == waitSpurious && timer != nil {
			// primary receptor gave no terminal answer yet; check whether
			// the one-shot timeout receptor fired in the meantime, since
			// it won't get another chance to be noticed.
			switch evaluateTimeoutReceptor(&tr) {
			case waitOk:
				s.port.ExitCritical(token)
				cleanup()
				return WrapError(Timeout, nil)
			case waitEventError:
				s.port.ExitCritical(token)
				cleanup()
				return WrapError(EventError, nil)
			}
		}
		switch res {
		case waitOk:
			s.port.ExitCritical(token)
			cleanup()
			return nil
		case waitEventError:
			s.port.ExitCritical(token)
			cleanup()
			return WrapError(EventError, nil)
		default:
			// spurious: re-arm Waiting and loop.
			t.state = StateWaiting
			s.waitList.PushBack(t, taskLink)
			s.port.ExitCritical(token)
		}
	}
}

// evaluateWait implements the three-way resolution branch for the
// primary receptor: a real notify (possibly spurious against pred), no
// notify yet, or the event was destroyed out from under the waiter.
// Caller holds the critical section.
func evaluateWait(r *Receptor, pred func() bool) waitResult {
	switch {
	case r.notifyCnt > 0 && pred == nil:
		detachReceptor(r)
		return waitOk
	case r.notifyCnt > 0 && pred != nil:
		if pred() {
			detachReceptor(r)
			return waitOk
		}
		r.notifyCnt = 0
		return waitSpurious
	case r.notifyCnt == 0 && r.attached:
		return waitSpurious
	default: // notifyCnt == 0 && !attached: destroyed under us
		return waitEventError
	}
}

// evaluateTimeoutReceptor checks whether the internal timeout receptor
// fired. Caller holds the critical section.
func evaluateTimeoutReceptor(tr *Receptor) waitResult {
	switch {
	case tr.notifyCnt > 0:
		detachReceptor(tr)
		return waitOk
	case !tr.attached:
		return waitEventError
	default:
		return waitPending
	}
}

// WaitTimeout is the thin wrapper for waiting on e with no condition
// predicate. Rejects a non-sentinel timeout <= 0 with InvalidParam; use
// the epoll aggregator for a zero-wait poll.
func WaitTimeout(e *Event, timeout Ticks) error {
	if timeout != Forever && timeout <= 0 {
		return WrapError(InvalidParam, nil)
	}
	return WaitCondition(e, nil, timeout)
}

var errNoCurrentTask = newPlainError("eventhub: no current task (call from within a task)")

type plainError string

func (p plainError) Error() string { return string(p) }

func newPlainError(s string) error { return plainError(s) }
