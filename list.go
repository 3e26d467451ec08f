package eventhub

// An intrusive, circular, doubly-linked list — the same shape as
// original_source/src/include/eh_list.h (itself the usual Linux-kernel
// list_head). C needs container_of to get back from a bare list_head to
// its owning struct; Go does not, since List[T] stores the *T directly,
// so the node is just two typed pointers embedded by value in whatever
// it links (Task, Receptor). This backs the scheduler's ready/wait/finish
// queues and every Event's receptor list.
type listNode[T any] struct {
	next, prev *T
}

// List is a sentinel-free circular list head. The zero value is an empty
// list ready to use.
type List[T any] struct {
	head *T
}

// Empty reports whether the list has no entries.
func (l *List[T]) Empty() bool { return l.head == nil }

// PushBack inserts e at the tail of the list. e must not already be
// linked into any list — a node belongs to at most one list at a time.
func (l *List[T]) PushBack(e *T, node func(*T) *listNode[T]) {
	n := node(e)
	if l.head == nil {
		l.head = e
		n.next, n.prev = e, e
		return
	}
	first := node(l.head)
	last := first.prev
	lastNode := node(last)
	n.prev = last
	n.next = l.head
	lastNode.next = e
	first.prev = e
}

// PushFront inserts e at the head of the list — used for waking a system
// task to the head of the ready list rather than the tail.
func (l *List[T]) PushFront(e *T, node func(*T) *listNode[T]) {
	l.PushBack(e, node)
	l.head = e
}

// Remove unlinks e from the list. e must currently be a member of l.
func (l *List[T]) Remove(e *T, node func(*T) *listNode[T]) {
	n := node(e)
	if n.next == e {
		// sole element
		l.head = nil
		n.next, n.prev = nil, nil
		return
	}
	node(n.prev).next = n.next
	node(n.next).prev = n.prev
	if l.head == e {
		l.head = n.next
	}
	n.next, n.prev = nil, nil
}

// PopFront removes and returns the head of the list, or nil if empty.
func (l *List[T]) PopFront(node func(*T) *listNode[T]) *T {
	e := l.head
	if e == nil {
		return nil
	}
	l.Remove(e, node)
	return e
}

// Each calls fn for every element of the list, in order, front to back.
// fn may remove the current element from the list (it must not remove
// any other element), matching the scheduler's "wake and move" traversal
// of a receptor list.
func (l *List[T]) Each(node func(*T) *listNode[T], fn func(*T)) {
	if l.head == nil {
		return
	}
	cur := l.head
	for {
		n := node(cur)
		next := n.next
		// Read the head before fn runs: if fn removes cur while it is the
		// head, l.head moves on to next and the wrap point moves with it.
		atTail := next == l.head
		fn(cur)
		if atTail {
			return
		}
		cur = next
	}
}
