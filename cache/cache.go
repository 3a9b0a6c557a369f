package cache

import (
	"iter"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/rcrowley/go-metrics"

	"github.com/broadly/caching-map/log"
)

// Cache is a key value map with limited total cost of entries.
// When new entry doesn't fit, expired entries are evicted first, then least recently used.
// Cache is safe for concurrent use, but all operations are serialized.
type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	limit float64
	table map[K]*node[K, V]
	// recency orders table nodes and accounts their total cost.
	recency *queue[K, V]
	// expiring is number of table nodes with TTL.
	expiring    int
	materialize Materializer[K, V]

	clock    clock.Clock
	log      log.Logger
	registry metrics.Registry
	stats    stats
}

// New creates empty cache. Limit is normalized: NaN and infinities mean Unbounded,
// negative values mean 0.
func New[K comparable, V any](limit float64, opts ...Option) *Cache[K, V] {
	o := newOptions(opts)
	return &Cache[K, V]{
		limit:    normalizeLimit(limit),
		table:    make(map[K]*node[K, V]),
		recency:  newQueue[K, V](),
		clock:    o.clock,
		log:      o.log,
		registry: o.registry,
		stats:    newStats(o.registry),
	}
}

// NewFrom creates cache and sets key value pairs from seq in order.
// The last pair becomes the most recently used.
func NewFrom[K comparable, V any](limit float64, seq iter.Seq2[K, V], opts ...Option) *Cache[K, V] {
	c := New[K, V](limit, opts...)
	for k, v := range seq {
		c.Set(k, v)
	}
	return c
}

// Clone returns cache with same limit, materializer, logger, clock and entries.
// Entries keep their cost, expiration time and recency order.
// Clone has own metrics registry. Failed materializations are not copied.
func (c *Cache[K, V]) Clone() *Cache[K, V] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	clone := New[K, V](c.limit, WithLogger(c.log), WithClock(c.clock))
	clone.materialize = c.materialize
	now := c.now()
	for n := c.recency.bottom(); !c.recency.fake(n); n = n.next {
		if n.expired(now) || n.failed() {
			continue
		}
		clone.insert(&node[K, V]{
			key:       n.key,
			value:     n.value,
			pending:   n.pending,
			cost:      n.cost,
			expiresAt: n.expiresAt,
		}, now)
		if n.pending != nil && !n.pending.IsComplete() {
			go clone.forgetOnFailure(n.key, n.pending)
		}
	}
	clone.checkInvariants()
	return clone
}

// Limit returns max total cost of entries.
func (c *Cache[K, V]) Limit() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.limit
}

// SetLimit changes limit. Entries are not evicted until next Set.
func (c *Cache[K, V]) SetLimit(limit float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.limit = normalizeLimit(limit)
}

// Cost returns total cost of entries. Includes expired entries that are not purged yet.
func (c *Cache[K, V]) Cost() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.recency.cost
}

// Len returns number of entries. Includes expired entries that are not purged yet.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.table)
}

// Metrics returns registry with cache metrics.
func (c *Cache[K, V]) Metrics() metrics.Registry { return c.registry }

// Get returns value for key and marks entry as the most recently used.
// Expired entry is deleted. Entry which value is still materializing is reported as
// missing and keeps its position.
func (c *Cache[K, V]) Get(key K) (v V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.checkInvariants()
	n, found := c.lookup(key, c.now())
	if found {
		v, ok = n.get()
	}
	if !ok {
		c.stats.misses.Inc(1)
		return
	}
	c.stats.hits.Inc(1)
	c.recency.promote(n)
	return
}

// Has returns true if there is not expired entry for key.
// Has doesn't change recency order and doesn't delete expired entries.
func (c *Cache[K, V]) Has(key K) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.table[key]
	return ok && !n.expired(c.now())
}

// Set replaces entry for key. Set returns false, if value was not stored:
// it was expired already, or its cost is greater than limit. Old entry is deleted anyway.
func (c *Cache[K, V]) Set(key K, value V, opts ...SetOption) bool {
	o := newSetOptions(opts)
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.checkInvariants()
	now := c.now()
	return c.insert(&node[K, V]{
		key:       key,
		value:     value,
		cost:      o.cost,
		expiresAt: o.expiresAt(now),
	}, now)
}

// Delete deletes entry for key. Returns true if there was one, even expired.
func (c *Cache[K, V]) Delete(key K) (deleted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.checkInvariants()
	n, ok := c.table[key]
	if !ok {
		return false
	}
	c.remove(n)
	c.updateGauges()
	return true
}

// Clear deletes all entries.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log.Debugf("Clear %v items.", len(c.table))
	c.table = make(map[K]*node[K, V])
	c.recency = newQueue[K, V]()
	c.expiring = 0
	c.updateGauges()
}

// insert removes old node for key and stores n, if it fits.
func (c *Cache[K, V]) insert(n *node[K, V], now int64) bool {
	defer c.updateGauges()
	if old, ok := c.table[n.key]; ok {
		c.log.Debugf("Remove old item %v value.", n.key)
		c.remove(old)
	}
	if n.expired(now) {
		c.log.Debugf("Skip add of expired item %v.", n.key)
		return false
	}
	if n.cost > c.limit {
		c.log.Debugf("Skip add of item %v: cost %v is greater than limit %v.", n.key, n.cost, c.limit)
		return false
	}
	c.evictTo(c.limit-n.cost, now)
	c.table[n.key] = n
	c.recency.push(n)
	if n.expiring() {
		c.expiring++
	}
	return true
}

// lookup returns not expired node for key. Expired node is deleted.
func (c *Cache[K, V]) lookup(key K, now int64) (*node[K, V], bool) {
	n, ok := c.table[key]
	if !ok {
		return nil, false
	}
	if n.expired(now) {
		c.expire(n)
		c.updateGauges()
		return nil, false
	}
	return n, true
}

// remove deletes owned node from cache.
func (c *Cache[K, V]) remove(n *node[K, V]) {
	n.detach()
	n.disown()
	delete(c.table, n.key)
	if n.expiring() {
		c.expiring--
	}
}

func (c *Cache[K, V]) updateGauges() {
	c.stats.size.Update(int64(len(c.table)))
	c.stats.cost.Update(c.recency.cost)
}

func (c *Cache[K, V]) now() int64 { return c.clock.Now().UnixNano() }
