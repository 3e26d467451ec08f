// Package timerqueue implements an ordered timer engine: a red-black tree
// keyed by expiration tick, with a cached leftmost pointer so the
// soonest-expiring timer is always an O(1) lookup. Arbitrary-order
// insertion and arbitrary-element removal (Stop can be called on any
// running timer, not just the soonest) is exactly the workload a heap
// handles badly and a balanced tree handles in O(log n).
//
// Grounded on original_source/src/general/eh_rbtree.c: same
// rotation and double-red fixup structure, same leftmost-caching idea
// (there exposed as rb_first()), expressed with explicit parent pointers
// rather than C's container_of-based intrusive node, and generic over any
// integer tick type per golang.org/x/exp/constraints (see catrate/ring.go
// in the reference pack for the same generic-over-integer pattern).
package timerqueue

import "golang.org/x/exp/constraints"

type color bool

const (
	red   color = true
	black color = false
)

// Node is one tree entry. K is the tick type the tree orders by; V is the
// owning value a caller attaches (typically a *Timer pointer back to the
// timer that owns this node).
type Node[K constraints.Integer, V any] struct {
	left, right, parent *Node[K, V]
	color               color
	key                 K
	Value               V
}

// Key returns the node's ordering key (its expiration tick).
func (n *Node[K, V]) Key() K { return n.key }

// Tree is a red-black tree ordered by K, using signed-difference
// comparison (diff) rather than raw `<` so a monotonic counter that has
// wrapped around still orders correctly as long as no two live keys are
// more than half the tick space apart — the standard sequence-number
// comparison trick.
type Tree[K constraints.Integer, V any] struct {
	root     *Node[K, V]
	leftmost *Node[K, V]
	size     int
}

// Len returns the number of nodes currently in the tree.
func (t *Tree[K, V]) Len() int { return t.size }

// Leftmost returns the soonest-expiring node, or nil if the tree is empty.
func (t *Tree[K, V]) Leftmost() *Node[K, V] { return t.leftmost }

// diff returns a negative, zero, or positive value according to whether a
// sorts before, at, or after b, computed as a signed difference over K's
// own bit width so a counter that has wrapped around (e.g. a uint32 tick
// counter on a 32-bit MCU) still orders correctly as long as no two live
// keys are more than half the tick space apart. a-b is computed in K
// itself, so it wraps modulo K's width exactly like the counter does;
// reinterpreting that wrapped result as the same-width signed integer
// then gives the correct sign, the same trick TCP uses to compare
// wrapping sequence numbers. A plain a>b/a<b comparison would instead
// misorder any pair straddling a wraparound boundary.
func diff[K constraints.Integer](a, b K) int64 {
	d := a - b
	switch any(d).(type) {
	case int8, uint8:
		return int64(int8(d))
	case int16, uint16:
		return int64(int16(d))
	case int32, uint32:
		return int64(int32(d))
	default:
		return int64(d)
	}
}

// Insert places a new node with the given key and value into the tree and
// returns it. Ownership of the returned Node is the caller's: it is what
// must later be passed to Delete.
func (t *Tree[K, V]) Insert(key K, value V) *Node[K, V] {
	n := &Node[K, V]{key: key, Value: value, color: red}

	var parent *Node[K, V]
	cur := t.root
	leftmostCandidate := true
	for cur != nil {
		parent = cur
		if diff(key, cur.key) < 0 {
			cur = cur.left
		} else {
			cur = cur.right
			leftmostCandidate = false
		}
	}
	n.parent = parent
	switch {
	case parent == nil:
		t.root = n
	case diff(key, parent.key) < 0:
		parent.left = n
	default:
		parent.right = n
	}
	t.size++
	if t.leftmost == nil || leftmostCandidate {
		// n was reached by an all-left descent, so it is the new minimum;
		// rotations preserve in-order sequence, so this stays valid
		// through insertFixup without needing to be recomputed.
		t.leftmost = n
	}
	t.insertFixup(n)
	return n
}

func (t *Tree[K, V]) leftmostOf(n *Node[K, V]) *Node[K, V] {
	if n == nil {
		return nil
	}
	for n.left != nil {
		n = n.left
	}
	return n
}

func (t *Tree[K, V]) insertFixup(z *Node[K, V]) {
	for z.parent != nil && z.parent.color == red {
		parent := z.parent
		grand := parent.parent
		if grand == nil {
			break
		}
		if parent == grand.left {
			uncle := grand.right
			if uncle != nil && uncle.color == red {
				parent.color = black
				uncle.color = black
				grand.color = red
				z = grand
				continue
			}
			if z == parent.right {
				z = parent
				t.rotateLeft(z)
				parent = z.parent
			}
			parent.color = black
			grand.color = red
			t.rotateRight(grand)
		} else {
			uncle := grand.left
			if uncle != nil && uncle.color == red {
				parent.color = black
				uncle.color = black
				grand.color = red
				z = grand
				continue
			}
			if z == parent.left {
				z = parent
				t.rotateRight(z)
				parent = z.parent
			}
			parent.color = black
			grand.color = red
			t.rotateLeft(grand)
		}
	}
	t.root.color = black
}

func (t *Tree[K, V]) rotateLeft(x *Node[K, V]) {
	y := x.right
	x.right = y.left
	if y.left != nil {
		y.left.parent = x
	}
	y.parent = x.parent
	switch {
	case x.parent == nil:
		t.root = y
	case x == x.parent.left:
		x.parent.left = y
	default:
		x.parent.right = y
	}
	y.left = x
	x.parent = y
}

func (t *Tree[K, V]) rotateRight(x *Node[K, V]) {
	y := x.left
	x.left = y.right
	if y.right != nil {
		y.right.parent = x
	}
	y.parent = x.parent
	switch {
	case x.parent == nil:
		t.root = y
	case x == x.parent.right:
		x.parent.right = y
	default:
		x.parent.left = y
	}
	y.right = x
	x.parent = y
}

// Delete removes n from the tree. n must currently be a member of t
// (callers enforce this via the "node present iff running" invariant).
func (t *Tree[K, V]) Delete(n *Node[K, V]) {
	needsLeftmostRecompute := n == t.leftmost

	y := n
	yOriginalColor := y.color
	var x, xParent *Node[K, V]

	switch {
	case n.left == nil:
		x = n.right
		xParent = n.parent
		t.transplant(n, n.right)
	case n.right == nil:
		x = n.left
		xParent = n.parent
		t.transplant(n, n.left)
	default:
		y = t.leftmostOf(n.right)
		yOriginalColor = y.color
		x = y.right
		if y.parent == n {
			xParent = y
		} else {
			xParent = y.parent
			t.transplant(y, y.right)
			y.right = n.right
			y.right.parent = y
		}
		t.transplant(n, y)
		y.left = n.left
		y.left.parent = y
		y.color = n.color
	}

	if yOriginalColor == black {
		t.deleteFixup(x, xParent)
	}

	n.left, n.right, n.parent = nil, nil, nil
	t.size--

	if t.size == 0 {
		t.root = nil
		t.leftmost = nil
		return
	}
	if needsLeftmostRecompute {
		t.leftmost = t.leftmostOf(t.root)
	}
}

func (t *Tree[K, V]) transplant(u, v *Node[K, V]) {
	switch {
	case u.parent == nil:
		t.root = v
	case u == u.parent.left:
		u.parent.left = v
	default:
		u.parent.right = v
	}
	if v != nil {
		v.parent = u.parent
	}
}

func (t *Tree[K, V]) deleteFixup(x, parent *Node[K, V]) {
	for x != t.root && isBlack(x) {
		if parent == nil {
			break
		}
		if x == parent.left {
			sib := parent.right
			if sib != nil && sib.color == red {
				sib.color = black
				parent.color = red
				t.rotateLeft(parent)
				sib = parent.right
			}
			if sib == nil {
				x = parent
				parent = x.parent
				continue
			}
			if isBlack(sib.left) && isBlack(sib.right) {
				sib.color = red
				x = parent
				parent = x.parent
				continue
			}
			if isBlack(sib.right) {
				if sib.left != nil {
					sib.left.color = black
				}
				sib.color = red
				t.rotateRight(sib)
				sib = parent.right
			}
			sib.color = parent.color
			parent.color = black
			if sib.right != nil {
				sib.right.color = black
			}
			t.rotateLeft(parent)
			x = t.root
			parent = nil
		} else {
			sib := parent.left
			if sib != nil && sib.color == red {
				sib.color = black
				parent.color = red
				t.rotateRight(parent)
				sib = parent.left
			}
			if sib == nil {
				x = parent
				parent = x.parent
				continue
			}
			if isBlack(sib.right) && isBlack(sib.left) {
				sib.color = red
				x = parent
				parent = x.parent
				continue
			}
			if isBlack(sib.left) {
				if sib.right != nil {
					sib.right.color = black
				}
				sib.color = red
				t.rotateLeft(sib)
				sib = parent.left
			}
			sib.color = parent.color
			parent.color = black
			if sib.left != nil {
				sib.left.color = black
			}
			t.rotateRight(parent)
			x = t.root
			parent = nil
		}
	}
	if x != nil {
		x.color = black
	}
}

func isBlack[K constraints.Integer, V any](n *Node[K, V]) bool {
	return n == nil || n.color == black
}
