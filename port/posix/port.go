//go:build linux

// Package posix is a reference eventhub.Port for hosted Linux builds. It
// backs the critical section with a plain mutex, the clock with
// CLOCK_MONOTONIC, and the idle hook with an epoll_wait bounded by the
// scheduler's next timer deadline and broken early by an eventfd any
// asynchronous producer can signal — the same wake-fd shape as
// eventloop/wakeup_linux.go + poller_linux.go, adapted from "wake one
// event loop" to "wake one idling scheduler".
package posix

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/xiaoapeng/go-eventhub"
)

// Port implements eventhub.Port over epoll + eventfd.
type Port struct {
	mu sync.Mutex

	epfd   int
	wakeFd int

	neverExpires bool
	deadline     eventhub.Ticks
}

// New creates a Port. Close it when the scheduler that owns it is torn
// down.
func New() (*Port, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	wakeFd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, err
	}
	ev := &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakeFd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakeFd, ev); err != nil {
		_ = unix.Close(wakeFd)
		_ = unix.Close(epfd)
		return nil, err
	}
	return &Port{epfd: epfd, wakeFd: wakeFd}, nil
}

// Close releases the epoll instance and eventfd.
func (p *Port) Close() error {
	_ = unix.Close(p.wakeFd)
	return unix.Close(p.epfd)
}

// ClocksPerSec reports one tick as one nanosecond.
func (p *Port) ClocksPerSec() int64 { return int64(time.Second) }

// ClockMonotonic reads CLOCK_MONOTONIC in nanoseconds.
func (p *Port) ClockMonotonic() eventhub.Ticks {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	return eventhub.Ticks(ts.Sec)*int64(time.Second) + eventhub.Ticks(ts.Nsec)
}

// EnterCritical locks the process-wide mutex and pings the wake-fd, so
// an idling IdleOrExternEventHandler on another goroutine (there is
// only ever one, but it may be sleeping right now) notices the state
// change promptly. The token is unused on this port; posix has no
// interrupt mask to save.
func (p *Port) EnterCritical() uint32 {
	p.mu.Lock()
	p.ping()
	return 0
}

// ExitCritical unlocks the mutex EnterCritical acquired.
func (p *Port) ExitCritical(uint32) { p.mu.Unlock() }

// ExpireTimeChange records the scheduler's next wake deadline.
func (p *Port) ExpireTimeChange(neverExpires bool, newDeadline eventhub.Ticks) {
	p.neverExpires = neverExpires
	p.deadline = newDeadline
}

// IdleOrExternEventHandler blocks in epoll_wait until the recorded
// deadline or until ping wakes it early, then drains the eventfd.
func (p *Port) IdleOrExternEventHandler(blocked bool) {
	timeoutMs := -1
	if !p.neverExpires {
		if remain := p.deadline - p.ClockMonotonic(); remain > 0 {
			timeoutMs = int(remain / int64(time.Millisecond))
		} else {
			timeoutMs = 0
		}
	} else if !blocked {
		// Nothing pending at all and no timer armed: still bound the
		// sleep, matching the idle ceiling clamp upstream already
		// applies to first_remaining_time.
		timeoutMs = 60_000
	}

	var events [1]unix.EpollEvent
	n, err := unix.EpollWait(p.epfd, events[:], timeoutMs)
	if err != nil && err != unix.EINTR {
		return
	}
	if n > 0 {
		p.drain()
	}
}

// ping is called with the mutex held, from EnterCritical. The eventfd is
// non-blocking, so the write never blocks; its error is ignored, since a
// write only fails once the counter is too large to take another one, and
// the eventfd is then already readable.
func (p *Port) ping() {
	var buf [8]byte
	buf[7] = 1
	_, _ = unix.Write(p.wakeFd, buf[:])
}

func (p *Port) drain() {
	var buf [8]byte
	for {
		if _, err := unix.Read(p.wakeFd, buf[:]); err != nil {
			return
		}
	}
}
