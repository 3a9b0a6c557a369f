package cache

// evictTo removes nodes until total cost is not greater than target.
// Expired nodes are removed first: they are found by table scan in its native order,
// and scan stops as soon as cost fits. If that is not enough, least recently used
// nodes are evicted.
func (c *Cache[K, V]) evictTo(target float64, now int64) {
	q := c.recency
	if q.cost <= target {
		return
	}
	if c.expiring > 0 {
		for _, n := range c.table {
			if !n.expired(now) {
				continue
			}
			c.expire(n)
			if q.cost <= target {
				return
			}
		}
	}
	for q.cost > target && !q.empty() {
		c.evict(q.bottom())
	}
}

func (c *Cache[K, V]) evict(n *node[K, V]) {
	c.log.Debugf("Item %v evicted.", n.key)
	c.stats.evictions.Inc(1)
	c.remove(n)
}

func (c *Cache[K, V]) expire(n *node[K, V]) {
	c.log.Debugf("Item %v expired.", n.key)
	c.stats.expirations.Inc(1)
	c.remove(n)
}
