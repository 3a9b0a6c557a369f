package cache

import (
	"context"
)

// Future is a handle to value that is being materialized.
// Future is completed once, after that its result never changes.
type Future[V any] struct {
	value V
	err   error
	done  chan struct{}
}

func newFuture[V any]() *Future[V] {
	return &Future[V]{done: make(chan struct{})}
}

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

func resolvedFuture[V any](v V) *Future[V] {
	return &Future[V]{value: v, done: closedChan}
}

// complete must be called exactly once.
func (f *Future[V]) complete(v V, err error) {
	f.value, f.err = v, err
	close(f.done)
}

// Await waits for the materialization to complete and returns its result.
// If ctx is done first, returns ctx error. Materialization itself is not canceled then.
func (f *Future[V]) Await(ctx context.Context) (V, error) {
	select {
	case <-f.done:
		return f.value, f.err
	default:
	}
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Done returns channel that is closed when Future is completed.
func (f *Future[V]) Done() <-chan struct{} { return f.done }

// IsComplete checks if the Future is complete without blocking.
func (f *Future[V]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// resolved returns value if the Future is completed successfully.
func (f *Future[V]) resolved() (v V, ok bool) {
	if !f.IsComplete() || f.err != nil {
		return
	}
	return f.value, true
}
