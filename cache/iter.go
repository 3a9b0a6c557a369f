package cache

import (
	"iter"
)

// All returns sequence of key value pairs from the most recently used to the least.
// Expired entries met during iteration are deleted. Entries which values are still
// materializing are skipped. Cache is not locked while yield is called, so yield can
// use the cache. Iteration stops if the next entry is deleted or the cache is cleared
// meanwhile.
func (c *Cache[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		c.mu.Lock()
		q := c.recency
		n := q.top()
		for {
			var (
				v  V
				ok bool
			)
			n, v, ok = c.nextLive(q, n)
			if !ok {
				c.mu.Unlock()
				return
			}
			key, next := n.key, n.prev
			c.mu.Unlock()
			if !yield(key, v) {
				return
			}
			c.mu.Lock()
			n = next
		}
	}
}

// nextLive returns first available node starting from n towards bottom of q.
// Requires write lock be acquired.
func (c *Cache[K, V]) nextLive(q *queue[K, V], n *node[K, V]) (_ *node[K, V], v V, ok bool) {
	defer c.checkInvariants()
	now := c.now()
	for c.recency == q && q.owns(n) {
		if n.expired(now) {
			prev := n.prev
			c.expire(n)
			c.updateGauges()
			n = prev
			continue
		}
		if v, ok = n.get(); ok {
			return n, v, true
		}
		n = n.prev
	}
	return nil, v, false
}

// Keys returns keys in All order.
func (c *Cache[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range c.All() {
			if !yield(k) {
				return
			}
		}
	}
}

// Values returns values in All order.
func (c *Cache[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range c.All() {
			if !yield(v) {
				return
			}
		}
	}
}

// ForEach calls fn for every pair in All order.
func (c *Cache[K, V]) ForEach(fn func(key K, value V)) {
	for k, v := range c.All() {
		fn(k, v)
	}
}
