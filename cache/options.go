package cache

import (
	"github.com/benbjohnson/clock"
	"github.com/rcrowley/go-metrics"

	"github.com/broadly/caching-map/log"
)

// Option configures Cache on construction.
type Option func(*options)

type options struct {
	log      log.Logger
	clock    clock.Clock
	registry metrics.Registry
}

// WithLogger sets logger. By default cache logs nothing.
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithClock sets clock used for TTL. Useful for tests.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithMetrics sets registry for cache metrics. Metrics with same names are shared
// between caches registered in one registry.
func WithMetrics(r metrics.Registry) Option {
	return func(o *options) { o.registry = r }
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = log.NewNop()
	}
	if o.clock == nil {
		o.clock = clock.New()
	}
	if o.registry == nil {
		o.registry = metrics.NewRegistry()
	}
	return o
}
