package eventhub

// Mutex is a minimal ancillary primitive built directly on Event, a
// worked example of a mutex/semaphore/flags-style primitive layered on
// events and timers rather than a full citizen of this package.
// Grounded on the wait/notify protocol of event.go; not a port of
// original_source/src/eh_mutex.c, which is a priority-inheriting
// primitive this minimal version does not attempt.
type Mutex struct {
	e      Event
	locked bool
}

// InitMutex initializes m for use.
func InitMutex(m *Mutex) {
	InitEvent(&m.e, "mutex")
	m.locked = false
}

// Lock blocks until m is free, then claims it. The claim itself happens
// inside the wait predicate, which WaitCondition only ever evaluates
// while holding the scheduler's critical section — so the check and the
// claim are atomic with respect to every other Lock/Unlock.
func (m *Mutex) Lock() error {
	return WaitCondition(&m.e, func() bool {
		if m.locked {
			return false
		}
		m.locked = true
		return true
	}, Forever)
}

// TryLock claims m without blocking, reporting whether it succeeded.
func (m *Mutex) TryLock() bool {
	s := globalScheduler()
	token := s.port.EnterCritical()
	defer s.port.ExitCritical(token)
	if m.locked {
		return false
	}
	m.locked = true
	return true
}

// Unlock releases m and wakes every waiter; only the first to re-check
// the predicate under the lock actually claims it, the rest re-park —
// same fairness the event layer already gives every conditional wait.
func (m *Mutex) Unlock() {
	s := globalScheduler()
	token := s.port.EnterCritical()
	m.locked = false
	s.port.ExitCritical(token)
	m.e.Notify()
}
