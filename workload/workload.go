// Package workload runs synthetic load against cache and collects metrics.
// Key popularity is normally distributed, so there is a hot set of keys.
package workload

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/facebookgo/stackerr"
	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"

	"github.com/broadly/caching-map/cache"
	"github.com/broadly/caching-map/log"
)

type Config struct {
	// Limit of total cost. Cost of item is its value size.
	Limit float64
	// Keys is number of distinct keys.
	Keys int
	// MeanValueSize is mean size of values in bytes.
	MeanValueSize int
	// TTL of set items. Zero means no TTL.
	TTL time.Duration
	// Requests is total number of operations.
	Requests int
	// Workers is number of concurrent goroutines.
	Workers int
	// SetP and DeleteP are probabilities of set and delete operations. Others are gets.
	SetP    float64
	DeleteP float64
	// ReadThrough makes gets load missed values through cache materializer.
	ReadThrough bool
	Seed        int64
}

// Result of workload run.
type Result struct {
	Registry metrics.Registry
	Len      int
	Cost     float64
	Limit    float64
}

// Timer names.
const (
	TimerGet    = "op.get"
	TimerSet    = "op.set"
	TimerDelete = "op.delete"
)

func (conf Config) validate() error {
	switch {
	case conf.Keys <= 0:
		return stackerr.Newf("keys should be positive, got %v", conf.Keys)
	case conf.MeanValueSize <= 0:
		return stackerr.Newf("mean value size should be positive, got %v", conf.MeanValueSize)
	case conf.Workers <= 0:
		return stackerr.Newf("workers should be positive, got %v", conf.Workers)
	case conf.Requests < 0:
		return stackerr.Newf("requests should not be negative, got %v", conf.Requests)
	case conf.SetP < 0 || conf.DeleteP < 0 || conf.SetP+conf.DeleteP > 1:
		return stackerr.Newf("invalid operation probabilities: set %v, delete %v", conf.SetP, conf.DeleteP)
	}
	return nil
}

// Run runs workload and returns its metrics: cache metrics and operation timers.
func Run(ctx context.Context, l log.Logger, conf Config) (*Result, error) {
	if err := conf.validate(); err != nil {
		return nil, err
	}
	registry := metrics.NewRegistry()
	c := cache.New[string, []byte](conf.Limit, cache.WithLogger(l), cache.WithMetrics(registry))
	r := rand.New(rand.NewSource(conf.Seed))
	items := newItems(r, conf.Keys, conf.MeanValueSize)
	if conf.ReadThrough {
		c.SetMaterializer(func(_ context.Context, key string) ([]byte, error) {
			it, ok := items.byKey[key]
			if !ok {
				return nil, errors.Errorf("unknown key %q", key)
			}
			return it.value, nil
		})
	}

	getTimer := metrics.NewRegisteredTimer(TimerGet, registry)
	setTimer := metrics.NewRegisteredTimer(TimerSet, registry)
	delTimer := metrics.NewRegisteredTimer(TimerDelete, registry)

	var requests int64
	next := func() bool { return atomic.AddInt64(&requests, 1) <= int64(conf.Requests) }
	// Index normal distribution parameter.
	indexStddev := float64(conf.Keys) / 2
	itemIndex := func(r *rand.Rand) int {
		for {
			index := int(math.Abs(r.NormFloat64() * indexStddev))
			if index < conf.Keys {
				return index
			}
		}
	}

	l.Infof("Run %v requests in %v workers.", conf.Requests, conf.Workers)
	var (
		wg     sync.WaitGroup
		errMu  sync.Mutex
		runErr error
	)
	for i := 0; i < conf.Workers; i++ {
		r := rand.New(rand.NewSource(r.Int63()))
		wg.Add(1)
		go func() {
			defer wg.Done()
			for next() && ctx.Err() == nil {
				it := items.list[itemIndex(r)]
				p := r.Float64()
				switch {
				case p < conf.SetP:
					setTimer.Time(func() { it.set(c, conf.TTL) })
				case p < conf.SetP+conf.DeleteP:
					delTimer.Time(func() { c.Delete(it.key) })
				default:
					var err error
					getTimer.Time(func() { err = it.get(ctx, c, conf) })
					if err != nil {
						errMu.Lock()
						runErr = err
						errMu.Unlock()
						return
					}
				}
			}
		}()
	}
	wg.Wait()
	if runErr != nil {
		return nil, runErr
	}
	if err := ctx.Err(); err != nil {
		return nil, stackerr.Wrap(err)
	}
	return &Result{
		Registry: registry,
		Len:      c.Len(),
		Cost:     c.Cost(),
		Limit:    c.Limit(),
	}, nil
}

type item struct {
	key   string
	value []byte
}

type items struct {
	list  []*item
	byKey map[string]*item
}

func newItems(r *rand.Rand, n, meanSize int) items {
	its := items{byKey: make(map[string]*item, n)}
	for i := 0; i < n; i++ {
		it := &item{
			key:   fmt.Sprintf("key_%v", i),
			value: make([]byte, 1+r.Intn(2*meanSize)),
		}
		r.Read(it.value)
		its.list = append(its.list, it)
		its.byKey[it.key] = it
	}
	return its
}

func (it *item) set(c *cache.Cache[string, []byte], ttl time.Duration) {
	opts := []cache.SetOption{cache.WithCost(float64(len(it.value)))}
	if ttl > 0 {
		opts = append(opts, cache.WithTTL(ttl))
	}
	c.Set(it.key, it.value, opts...)
}

func (it *item) get(ctx context.Context, c *cache.Cache[string, []byte], conf Config) error {
	if !conf.ReadThrough {
		c.Get(it.key)
		return nil
	}
	f, _ := c.Load(ctx, it.key)
	if f.IsComplete() {
		_, err := f.Await(ctx)
		return err
	}
	if _, err := f.Await(ctx); err != nil {
		return err
	}
	// Loaded value has default cost. Store it with real one.
	it.set(c, conf.TTL)
	return nil
}
