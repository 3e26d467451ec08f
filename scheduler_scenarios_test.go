package eventhub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startScheduler Inits a fresh scheduler on a fake clock and runs it on
// a background goroutine, returning a stop function that requests
// shutdown and waits for Run to actually return. Task bodies must never
// call testify assertions directly (they run on their own goroutine,
// and *testing.T is only safe from the goroutine running the test) —
// they report outcomes over a channel instead, which the test goroutine
// receives and asserts on.
func startScheduler(t *testing.T, port Port) (p Port, stop func()) {
	t.Helper()
	require.NoError(t, Init(WithPort(port)))
	done := make(chan struct{})
	go func() {
		_ = Run()
		close(done)
	}()
	return port, func() {
		Stop()
		<-done
		Deinit()
	}
}

// Scenario 1: sleep then exit, joined from a driver task.
func TestScenarioSleep(t *testing.T) {
	fp := newFakePort()
	_, stop := startScheduler(t, fp)
	defer stop()

	start := fp.ClockMonotonic()
	oneSec := MsecToTicks(1000, fp.ClocksPerSec())

	sleeper, err := Create("sleeper", 0, 4096, nil, func(any) int {
		_ = Sleep(oneSec)
		return 0
	})
	require.NoError(t, err)

	type joinResult struct {
		ret int
		err error
	}
	results := make(chan joinResult, 1)
	_, err = Create("joiner", 0, 4096, nil, func(any) int {
		var ret int
		err := Join(sleeper, &ret, Forever)
		results <- joinResult{ret, err}
		Stop()
		return 0
	})
	require.NoError(t, err)

	r := <-results
	elapsed := fp.ClockMonotonic() - start
	require.NoError(t, r.err)
	assert.Equal(t, 0, r.ret)
	assert.GreaterOrEqual(t, elapsed, oneSec)
}

// Scenario 2: condition wait resumes exactly once, after the third notify.
func TestScenarioConditionWait(t *testing.T) {
	fp := newFakePort()
	_, stop := startScheduler(t, fp)
	defer stop()

	var e Event
	InitEvent(&e, "counter")
	counter := 0
	resumeCount := 0

	results := make(chan error, 1)
	_, err := Create("waiter", 0, 4096, nil, func(any) int {
		err := WaitCondition(&e, func() bool { return counter >= 3 }, Forever)
		resumeCount++
		results <- err
		return 0
	})
	require.NoError(t, err)

	_, err = Create("notifier", 0, 4096, nil, func(any) int {
		for counter < 3 {
			counter++
			e.Notify()
			Yield()
		}
		Stop()
		return 0
	})
	require.NoError(t, err)

	err = <-results
	require.NoError(t, err)
	assert.Equal(t, 1, resumeCount)
	assert.Equal(t, 3, counter)
}

// Scenario 4: joining an already-finished task still returns its code.
func TestScenarioJoinAlreadyFinished(t *testing.T) {
	fp := newFakePort()
	_, stop := startScheduler(t, fp)
	defer stop()

	finisher, err := Create("finisher", 0, 4096, nil, func(any) int { return 42 })
	require.NoError(t, err)

	type joinResult struct {
		ret int
		err error
	}
	results := make(chan joinResult, 1)
	_, err = Create("late_joiner", 0, 4096, nil, func(any) int {
		Yield() // let finisher run to completion first
		Yield()
		var ret int
		err := Join(finisher, &ret, Forever)
		results <- joinResult{ret, err}
		Stop()
		return 0
	})
	require.NoError(t, err)

	r := <-results
	require.NoError(t, r.err)
	assert.Equal(t, 42, r.ret)
}

// Scenario 5: destroying an event under a waiter wakes it with EventError.
func TestScenarioEventDestroyedUnderWaiter(t *testing.T) {
	fp := newFakePort()
	_, stop := startScheduler(t, fp)
	defer stop()

	var e Event
	InitEvent(&e, "doomed")

	results := make(chan error, 1)
	_, err := Create("waiter", 0, 4096, nil, func(any) int {
		results <- WaitTimeout(&e, Forever)
		// Stop here, not from destroyer: destroyer finishes (and would
		// otherwise request shutdown) one switch before this task gets
		// to resume and observe the EventError.
		Stop()
		return 0
	})
	require.NoError(t, err)

	_, err = Create("destroyer", 0, 4096, nil, func(any) int {
		Yield() // let the waiter park first
		Yield()
		e.Clean()
		return 0
	})
	require.NoError(t, err)

	err = <-results
	assert.True(t, IsCode(err, EventError), "expected EventError, got %v", err)
}

// Scenario 6: epoll does not miss notifications that fired before wait.
func TestScenarioEpollMissPrevention(t *testing.T) {
	fp := newFakePort()
	_, stop := startScheduler(t, fp)
	defer stop()

	var e1, e2 Event
	InitEvent(&e1, "e1")
	InitEvent(&e2, "e2")
	set := NewEpollSet()
	require.NoError(t, set.Add(&e1, "e1"))
	require.NoError(t, set.Add(&e2, "e2"))

	results := make(chan []Slot, 1)
	_, err := Create("waiter", 0, 4096, nil, func(any) int {
		Yield() // let the notifier run first, with nobody in wait yet
		slots := make([]Slot, 10)
		n, err := set.Wait(slots, Forever)
		if err != nil {
			results <- nil
			return 0
		}
		results <- slots[:n]
		Stop()
		return 0
	})
	require.NoError(t, err)

	_, err = Create("notifier", 0, 4096, nil, func(any) int {
		e1.Notify()
		e2.Notify()
		return 0
	})
	require.NoError(t, err)

	got := <-results
	require.NotNil(t, got)
	assert.Len(t, got, 2)
	seen := map[string]bool{}
	for _, s := range got {
		assert.Equal(t, EventTrigger, s.Affair)
		seen[s.UserData.(string)] = true
	}
	assert.True(t, seen["e1"])
	assert.True(t, seen["e2"])
}

// Scenario 3: timer fairness under heavy notify. Three auto-circulating
// timers at 300/700/1100ms feeding one epoll set, run for 10s of
// simulated time (instant on the fake clock, since IdleOrExternEventHandler
// jumps straight to the next deadline). Expect roughly 33/14/9 firings.
func TestScenarioTimerFairness(t *testing.T) {
	fp := newFakePort()
	_, stop := startScheduler(t, fp)
	defer stop()

	periods := map[string]Ticks{"t300": 300, "t700": 700, "t1100": 1100}
	timers := map[string]*Timer{}
	set := NewEpollSet()
	for name, period := range periods {
		tm := &Timer{}
		InitTimer(tm)
		tm.SetInterval(period)
		tm.SetAttr(AutoCirculation)
		timers[name] = tm
		require.NoError(t, set.Add(tm.Event(), name))
		_, err := tm.Start()
		require.NoError(t, err)
	}

	type outcome struct {
		counts map[string]int
		errs   int
	}
	results := make(chan outcome, 1)
	start := fp.ClockMonotonic()
	_, err := Create("collector", 0, 8192, nil, func(any) int {
		counts := map[string]int{}
		errs := 0
		slots := make([]Slot, 8)
		for fp.ClockMonotonic()-start < 10_000 {
			n, err := set.Wait(slots, 10_000)
			if err != nil {
				break
			}
			for i := 0; i < n; i++ {
				if slots[i].Affair == AffairError {
					errs++
					continue
				}
				counts[slots[i].UserData.(string)]++
			}
		}
		results <- outcome{counts, errs}
		Stop()
		return 0
	})
	require.NoError(t, err)

	out := <-results
	assert.Zero(t, out.errs)
	assert.InDelta(t, 33, out.counts["t300"], 3)
	assert.InDelta(t, 14, out.counts["t700"], 3)
	assert.InDelta(t, 9, out.counts["t1100"], 3)
}
