package eventhub

import (
	"sync"
	"sync/atomic"
)

// fakePort is a deterministic, manually-advanced clock Port for tests:
// the idle hook jumps straight to the next recorded deadline instead of
// actually sleeping, so scenarios involving seconds of simulated ticks
// run instantly. Grounded on the teacher's fake-clock-driven timer
// tests (eventloop's *_test.go files drive loop.now via an injected
// clock rather than real time).
//
// clock is a plain atomic, never the critical-section mutex: real clock
// hardware is readable without any lock, and ClockMonotonic is called
// both outside the critical section (Run's top of loop) and from inside
// it (startTimerLocked) — the same non-reentrant mutex cannot back both.
type fakePort struct {
	mu sync.Mutex

	clock        atomic.Int64
	neverExpires bool
	deadline     Ticks
	idleCalls    int
}

func newFakePort() *fakePort { return &fakePort{} }

func (p *fakePort) ClocksPerSec() int64 { return 1000 } // one tick = one millisecond

func (p *fakePort) ClockMonotonic() Ticks { return p.clock.Load() }

func (p *fakePort) EnterCritical() uint32 {
	p.mu.Lock()
	return 0
}

func (p *fakePort) ExitCritical(uint32) { p.mu.Unlock() }

func (p *fakePort) ExpireTimeChange(neverExpires bool, newDeadline Ticks) {
	p.neverExpires = neverExpires
	p.deadline = newDeadline
}

func (p *fakePort) IdleOrExternEventHandler(blocked bool) {
	p.mu.Lock()
	never, deadline := p.neverExpires, p.deadline
	p.idleCalls++
	p.mu.Unlock()
	if never {
		return
	}
	if now := p.clock.Load(); deadline > now {
		p.clock.Store(deadline)
	} else {
		p.clock.Add(1)
	}
}

func (p *fakePort) advance(d Ticks) { p.clock.Add(d) }
