package cache

import (
	"github.com/rcrowley/go-metrics"
)

// Metric names.
const (
	MetricHits        = "cache.hits"
	MetricMisses      = "cache.misses"
	MetricEvictions   = "cache.evictions"
	MetricExpirations = "cache.expirations"
	MetricLoads       = "cache.loads"
	MetricLoadErrors  = "cache.load_errors"
	MetricSize        = "cache.size"
	MetricCost        = "cache.cost"
)

type stats struct {
	hits        metrics.Counter
	misses      metrics.Counter
	evictions   metrics.Counter
	expirations metrics.Counter
	loads       metrics.Counter
	loadErrors  metrics.Counter
	size        metrics.Gauge
	cost        metrics.GaugeFloat64
}

func newStats(r metrics.Registry) stats {
	return stats{
		hits:        metrics.GetOrRegisterCounter(MetricHits, r),
		misses:      metrics.GetOrRegisterCounter(MetricMisses, r),
		evictions:   metrics.GetOrRegisterCounter(MetricEvictions, r),
		expirations: metrics.GetOrRegisterCounter(MetricExpirations, r),
		loads:       metrics.GetOrRegisterCounter(MetricLoads, r),
		loadErrors:  metrics.GetOrRegisterCounter(MetricLoadErrors, r),
		size:        metrics.GetOrRegisterGauge(MetricSize, r),
		cost:        metrics.GetOrRegisterGaugeFloat64(MetricCost, r),
	}
}
