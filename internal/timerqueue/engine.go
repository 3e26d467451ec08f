package timerqueue

import "golang.org/x/exp/constraints"

// Entry is the minimal contract the engine needs from a timer: an
// expiration tick, a re-arm interval, and the two re-arm attribute bits
// (AUTO_CIRCULATION, NOW_TIME_BASE).
type Entry[K constraints.Integer] interface {
	comparable
	Expire() K
	SetExpire(K)
	Interval() K
	AutoCirculation() bool
	NowTimeBase() bool
}

// Engine wraps Tree with the start/stop/restart/check vocabulary of a
// timer subsystem, tracking which Entry owns which tree node so
// Stop/Restart can be called with just the Entry.
type Engine[K constraints.Integer, E Entry[K]] struct {
	tree  Tree[K, E]
	nodes map[E]*Node[K, E]
}

// NewEngine constructs an empty timer engine.
func NewEngine[K constraints.Integer, E Entry[K]]() *Engine[K, E] {
	return &Engine[K, E]{nodes: make(map[E]*Node[K, E])}
}

// Running reports whether e currently has a node in the tree — the
// direct expression of the "a timer node is in the tree iff the timer
// is running" invariant.
func (eng *Engine[K, E]) Running(e E) bool {
	_, ok := eng.nodes[e]
	return ok
}

// Start inserts e, keyed by expire, provided it is not already running.
// Returns becameLeftmost=true when e is now the soonest-expiring timer,
// the signal the caller relays to the platform port via
// ExpireTimeChange.
func (eng *Engine[K, E]) Start(e E, expire K) (becameLeftmost bool, err error) {
	if eng.Running(e) {
		return false, ErrBusy
	}
	e.SetExpire(expire)
	prevLeftmost := eng.tree.Leftmost()
	n := eng.tree.Insert(expire, e)
	eng.nodes[e] = n
	return eng.tree.Leftmost() != prevLeftmost, nil
}

// Stop idempotently removes e from the tree.
func (eng *Engine[K, E]) Stop(e E) {
	n, ok := eng.nodes[e]
	if !ok {
		return
	}
	eng.tree.Delete(n)
	delete(eng.nodes, e)
}

// Restart is Stop immediately followed by Start at one logically atomic
// point (the caller is expected to hold the scheduler's critical section
// across the call, same as for Start/Stop individually).
func (eng *Engine[K, E]) Restart(e E, expire K) (becameLeftmost bool, err error) {
	eng.Stop(e)
	return eng.Start(e, expire)
}

// Due pops and returns every entry whose expiration is not after now,
// removing each from the tree (the caller re-inserts auto-circulating
// entries at their new expiration via Start). Entries are returned in
// expiration order.
func (eng *Engine[K, E]) Due(now K) []E {
	var due []E
	for {
		left := eng.tree.Leftmost()
		if left == nil || diff(left.Key(), now) > 0 {
			break
		}
		e := left.Value
		eng.tree.Delete(left)
		delete(eng.nodes, e)
		due = append(due, e)
	}
	return due
}

// FirstRemaining returns the non-negative tick count until the soonest
// expiration, or ceiling if the tree is empty or the soonest deadline is
// further away than ceiling — the clamp that keeps an idle hook with no
// other work waking periodically for maintenance.
func (eng *Engine[K, E]) FirstRemaining(now, ceiling K) K {
	left := eng.tree.Leftmost()
	if left == nil {
		return ceiling
	}
	d := diff(left.Key(), now)
	if d <= 0 {
		return 0
	}
	remaining := left.Key() - now
	if remaining > ceiling {
		return ceiling
	}
	return remaining
}

// Len reports how many timers are currently running.
func (eng *Engine[K, E]) Len() int { return eng.tree.Len() }
