package cache

import (
	"context"

	"github.com/facebookgo/stackerr"
	"github.com/pkg/errors"
)

// Materializer produces value for key missing in cache.
type Materializer[K comparable, V any] func(ctx context.Context, key K) (V, error)

// SetMaterializer sets materializer used by Load. Nil disables read-through.
func (c *Cache[K, V]) SetMaterializer(fn Materializer[K, V]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.materialize = fn
}

// Load is LoadWith using materializer set by SetMaterializer.
func (c *Cache[K, V]) Load(ctx context.Context, key K) (*Future[V], bool) {
	return c.LoadWith(ctx, key, nil)
}

// LoadWith returns Future of value for key. If there is entry for key, it is marked as
// the most recently used and its value is returned.
//
// On miss, fn (or cache materializer, if fn is nil) is called in new goroutine, and
// returned Future is stored as value with cost 1 and without TTL before Load returns.
// So concurrent loads of same key return same Future and materializer is called once.
// When materialization fails, entry is deleted unless it was replaced meanwhile, and
// Future gets the error. Materializer panics are converted to errors.
//
// Materializer gets ctx values, but not its cancellation: the Future is shared by
// all callers, so one of them giving up must not fail the others. Use Future.Await
// with own context to stop waiting.
//
// Resolved value is not stored separately: set it explicitly for custom cost or TTL.
// LoadWith returns false on miss when there is no materializer.
func (c *Cache[K, V]) LoadWith(ctx context.Context, key K, fn Materializer[K, V]) (*Future[V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.checkInvariants()
	now := c.now()
	if n, ok := c.lookup(key, now); ok {
		c.stats.hits.Inc(1)
		c.recency.promote(n)
		return n.future(), true
	}
	c.stats.misses.Inc(1)
	if fn == nil {
		fn = c.materialize
	}
	if fn == nil {
		return nil, false
	}
	c.log.Debugf("Materialize item %v.", key)
	c.stats.loads.Inc(1)
	f := newFuture[V]()
	c.insert(&node[K, V]{
		key:       key,
		pending:   f,
		cost:      defaultCost,
		expiresAt: noExpiry,
	}, now)
	go c.materializeTo(context.WithoutCancel(ctx), f, key, fn)
	return f, true
}

func (c *Cache[K, V]) materializeTo(ctx context.Context, f *Future[V], key K, fn Materializer[K, V]) {
	v, err := call(ctx, key, fn)
	if err == nil {
		f.complete(v, nil)
		return
	}
	err = errors.Wrapf(err, "materialize %v", key)
	c.mu.Lock()
	c.stats.loadErrors.Inc(1)
	c.log.Warnf("Item %v materialization failed: %v", key, err)
	c.forget(key, f)
	c.mu.Unlock()
	var zero V
	f.complete(zero, err)
}

// forgetOnFailure waits f and forgets it on failure. Used for futures which
// materialization is driven by other cache.
func (c *Cache[K, V]) forgetOnFailure(key K, f *Future[V]) {
	<-f.Done()
	if f.err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forget(key, f)
}

// forget deletes node for key, if it still holds f.
func (c *Cache[K, V]) forget(key K, f *Future[V]) {
	defer c.checkInvariants()
	n, ok := c.table[key]
	if !ok || n.pending != f {
		return
	}
	c.remove(n)
	c.updateGauges()
}

func call[K comparable, V any](ctx context.Context, key K, fn Materializer[K, V]) (v V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = stackerr.Newf("panic: %v", r)
		}
	}()
	return fn(ctx, key)
}
