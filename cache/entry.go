package cache

import (
	"fmt"
	"math"
	"time"
)

// Unbounded limit. Cache with such limit never evicts live entries.
var Unbounded = math.Inf(1)

// noExpiry is expiresAt of nodes without TTL.
const noExpiry int64 = math.MaxInt64

const defaultCost = 1

type node[K comparable, V any] struct {
	key   K
	value V
	// pending is not nil for nodes created by read-through. value is unused then.
	pending   *Future[V]
	cost      float64
	expiresAt int64 // UnixNano.
	owner     *queue[K, V]
	prev      *node[K, V]
	next      *node[K, V]
}

func (n *node[K, V]) expired(now int64) bool { return n.expiresAt <= now }
func (n *node[K, V]) expiring() bool         { return n.expiresAt != noExpiry }

// get returns value if it is available now.
func (n *node[K, V]) get() (v V, ok bool) {
	if n.pending == nil {
		return n.value, true
	}
	return n.pending.resolved()
}

// failed returns true if node materialization is completed with error.
// Such node waits for removal by forget.
func (n *node[K, V]) failed() bool {
	return n.pending != nil && n.pending.IsComplete() && n.pending.err != nil
}

// future returns handle to node value.
func (n *node[K, V]) future() *Future[V] {
	if n.pending != nil {
		return n.pending
	}
	return resolvedFuture(n.value)
}

func (n *node[K, V]) GoString() string {
	key := func(n *node[K, V]) interface{} {
		if n == nil {
			return nil
		}
		return n.key
	}
	return fmt.Sprintf("{key:%#v, cost:%v, expiresAt:%v, pending:%v, owner:%p, prev:%v, next:%v}",
		n.key, n.cost, n.expiresAt, n.pending != nil, n.owner, key(n.prev), key(n.next))
}

var _ fmt.GoStringer = (*node[string, int])(nil)

func normalizeLimit(limit float64) float64 {
	switch {
	case math.IsNaN(limit) || math.IsInf(limit, 0):
		return Unbounded
	case limit < 0:
		return 0
	}
	return limit
}

func normalizeCost(cost float64) float64 {
	switch {
	case math.IsNaN(cost) || math.IsInf(cost, 0):
		return defaultCost
	case cost < 0:
		return 0
	}
	return cost
}

// expiresAt returns absolute expiration time for ttl set at now.
// Result saturates at noExpiry.
func expiresAt(now int64, ttl time.Duration) int64 {
	if ttl > 0 && int64(ttl) > noExpiry-now {
		return noExpiry
	}
	return now + int64(ttl)
}

// SetOption customizes single Set call.
type SetOption func(*setOptions)

type setOptions struct {
	cost   float64
	ttl    time.Duration
	hasTTL bool
}

// WithCost sets entry cost. Invalid costs are coerced: NaN and infinities become
// default cost 1, negative costs become 0.
func WithCost(cost float64) SetOption {
	return func(o *setOptions) { o.cost = normalizeCost(cost) }
}

// WithTTL sets entry time to live. Entries with non positive ttl are never stored.
func WithTTL(ttl time.Duration) SetOption {
	return func(o *setOptions) {
		o.ttl = ttl
		o.hasTTL = true
	}
}

func newSetOptions(opts []SetOption) setOptions {
	o := setOptions{cost: defaultCost}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o setOptions) expiresAt(now int64) int64 {
	if !o.hasTTL {
		return noExpiry
	}
	return expiresAt(now, o.ttl)
}
