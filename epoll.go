package eventhub

// Affair tags why a Slot was reported by EpollSet.Wait.
type Affair int

const (
	// EventTrigger means the event notified at least once since the
	// previous Wait.
	EventTrigger Affair = iota
	// AffairError means the event was destroyed while this set held a
	// receptor on it.
	AffairError
)

func (a Affair) String() string {
	if a == AffairError {
		return "error"
	}
	return "event_trigger"
}

// Slot is one reported entry from EpollSet.Wait.
type Slot struct {
	UserData any
	Affair   Affair
}

// epollEntry is one long-lived (event, userdata) attachment, persisting
// across Wait calls until explicitly Del'd — unlike WaitCondition's
// Receptor, which lives only for the duration of one call: the set
// survives across waits until explicitly deleted.
type epollEntry struct {
	link     listNode[epollEntry]
	r        Receptor
	event    *Event
	userdata any
}

func entryLink(e *epollEntry) *listNode[epollEntry] { return &e.link }

// EpollSet aggregates many events behind one wait call. Grounded on
// event.go's Receptor/attach/detach machinery: each attached
// event gets its own persistent Receptor, and Wait folds all of their
// notifyCnt/attached state into a slot report in one pass under the
// critical section.
type EpollSet struct {
	entries List[epollEntry]
	byEvent map[*Event]*epollEntry
}

// NewEpollSet allocates an empty set.
func NewEpollSet() *EpollSet {
	return &EpollSet{byEvent: make(map[*Event]*epollEntry)}
}

// Add attaches e to the set, tagged with userdata. Returns ErrExists if
// e is already a member.
func (es *EpollSet) Add(e *Event, userdata any) error {
	if e == nil {
		return WrapError(InvalidParam, nil)
	}
	s := globalScheduler()
	token := s.port.EnterCritical()
	defer s.port.ExitCritical(token)
	if _, ok := es.byEvent[e]; ok {
		return ErrExists
	}
	entry := &epollEntry{event: e, userdata: userdata}
	attachReceptor(e, &entry.r, nil)
	es.entries.PushBack(entry, entryLink)
	es.byEvent[e] = entry
	return nil
}

// Del removes e's receptor from the set, if present.
func (es *EpollSet) Del(e *Event) {
	s := globalScheduler()
	token := s.port.EnterCritical()
	defer s.port.ExitCritical(token)
	es.delLocked(e)
}

func (es *EpollSet) delLocked(e *Event) {
	entry, ok := es.byEvent[e]
	if !ok {
		return
	}
	detachReceptor(&entry.r)
	es.entries.Remove(entry, entryLink)
	delete(es.byEvent, e)
}

// Close detaches every member. The set is left empty and reusable.
func (es *EpollSet) Close() {
	s := globalScheduler()
	token := s.port.EnterCritical()
	defer s.port.ExitCritical(token)
	es.entries.Each(entryLink, func(entry *epollEntry) {
		detachReceptor(&entry.r)
	})
	es.entries = List[epollEntry]{}
	es.byEvent = make(map[*Event]*epollEntry)
}

// collectLocked drains every entry with pending notifications or a
// destroyed backing event into slots, up to len(slots), clearing each
// drained entry's notifyCnt. Caller holds the critical section.
func (es *EpollSet) collectLocked(slots []Slot) int {
	n := 0
	es.entries.Each(entryLink, func(entry *epollEntry) {
		if n >= len(slots) {
			return
		}
		switch {
		case entry.r.notifyCnt > 0:
			slots[n] = Slot{UserData: entry.userdata, Affair: EventTrigger}
			entry.r.notifyCnt = 0
			n++
		case !entry.r.attached:
			slots[n] = Slot{UserData: entry.userdata, Affair: AffairError}
			n++
		}
	})
	return n
}

// Wait reports up to len(slots) events that have fired (or whose backing
// event was destroyed) since the previous Wait on this set, blocking for
// at most timeout ticks (Forever for no bound, 0 to poll without
// blocking).
func (es *EpollSet) Wait(slots []Slot, timeout Ticks) (int, error) {
	t := Self()
	if t == nil {
		return 0, WrapError(Fault, errNoCurrentTask)
	}
	s := globalScheduler()

	var timer *Timer
	var tr Receptor
	if timeout != Forever && timeout != 0 {
		timer = newInternalTimeoutTimer(timeout)
	}

	token := s.port.EnterCritical()
	es.entries.Each(entryLink, func(entry *epollEntry) { entry.r.wakeTask = t })
	if n := es.collectLocked(slots); n > 0 {
		s.port.ExitCritical(token)
		return n, nil
	}
	if timeout == 0 {
		s.port.ExitCritical(token)
		return 0, nil
	}
	if timer != nil {
		attachReceptor(&timer.event, &tr, t)
		if _, err := startTimerLocked(s, timer); err != nil {
			s.port.ExitCritical(token)
			return 0, WrapError(Fault, err)
		}
	}
	t.state = StateWaiting
	s.waitList.PushBack(t, taskLink)
	s.port.ExitCritical(token)

	cleanup := func() {
		token := s.port.EnterCritical()
		if timer != nil {
			detachReceptor(&tr)
			stopTimerLocked(s, timer)
		}
		s.port.ExitCritical(token)
	}

	for {
		s.parkCurrent(t)

		token = s.port.EnterCritical()
		if n := es.collectLocked(slots); n > 0 {
			s.port.ExitCritical(token)
			cleanup()
			return n, nil
		}
		if timer != nil {
			switch evaluateTimeoutReceptor(&tr) {
			case waitOk:
				s.port.ExitCritical(token)
				cleanup()
				return 0, nil
			case waitEventError:
				s.port.ExitCritical(token)
				cleanup()
				return 0, WrapError(EventError, nil)
			}
		}
		t.state = StateWaiting
		s.waitList.PushBack(t, taskLink)
		s.port.ExitCritical(token)
	}
}
