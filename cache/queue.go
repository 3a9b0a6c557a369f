package cache

import (
	"github.com/broadly/caching-map/internal/tag"
)

// Pre and post conditions (Invariants) for queue methods:
// * queue owns nodes between fakeHead and fakeTail.
// * {fakeHead, all owned nodes, fakeTail} are correct doubly linked list.
// * all nodes owned by queue have field node.owner equal to &queue
// * queue.cost equal sum of owned nodes cost.
type queue[K comparable, V any] struct {
	cost float64

	// Fake nodes. Real nodes are between them.
	// nil <- fakeHead <-> node_0 <-> ... <-> node_(n-1) <-> fakeTail -> nil
	// Such structure prevent nil checks in code.

	// fakeHead is bottom of queue. fakeHead.next is least recently used node.
	fakeHead *node[K, V]

	// fakeTail is top of queue. fakeTail.prev is most recently used node.
	fakeTail *node[K, V]
}

func newQueue[K comparable, V any]() *queue[K, V] {
	q := &queue[K, V]{}
	q.fakeHead, q.fakeTail = &node[K, V]{}, &node[K, V]{}
	link(q.fakeHead, q.fakeTail)
	return q
}

// push takes ownership of detached node and attaches it on top.
func (q *queue[K, V]) push(n *node[K, V]) {
	n.owner = q
	q.cost += n.cost
	attachOnTop(n)
}

// promote moves owned node on top.
func (q *queue[K, V]) promote(n *node[K, V]) {
	if n == q.top() {
		return
	}
	n.detach()
	attachOnTop(n)
}

// bottom returns least recently used node, or fakeTail if queue is empty.
func (q *queue[K, V]) bottom() *node[K, V] { return q.fakeHead.next }

// top returns most recently used node, or fakeHead if queue is empty.
func (q *queue[K, V]) top() *node[K, V] { return q.fakeTail.prev }

func (q *queue[K, V]) fake(n *node[K, V]) bool { return n == q.fakeHead || n == q.fakeTail }
func (q *queue[K, V]) empty() bool            { return q.fakeHead.next == q.fakeTail }

// owns returns true if n is real node of q, that is not removed yet.
func (q *queue[K, V]) owns(n *node[K, V]) bool { return n.owner == q && !q.fake(n) }

// disown detached node.
func (n *node[K, V]) disown() {
	n.owner.cost -= n.cost
	if n.owner.empty() {
		// Drop accumulated float rounding error.
		n.owner.cost = 0
	}
	n.owner = nil
}

func (n *node[K, V]) detach() {
	link(n.prev, n.next)
	if tag.Debug {
		n.prev = nil
		n.next = nil
	}
}

func link[K comparable, V any](a, b *node[K, V]) { a.next, b.prev = b, a }

func attachOnTop[K comparable, V any](n *node[K, V]) {
	link(n.owner.top(), n)
	link(n, n.owner.fakeTail)
}
