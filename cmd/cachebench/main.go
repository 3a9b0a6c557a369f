// Command cachebench runs synthetic workload against cache and prints metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rcrowley/go-metrics"

	"github.com/broadly/caching-map/cmd/cachebench/config"
	"github.com/broadly/caching-map/internal/tag"
	"github.com/broadly/caching-map/internal/util"
	"github.com/broadly/caching-map/log"
	"github.com/broadly/caching-map/workload"
)

const usage = `
Config values merge rules:
1) config file value overrides default
2) command line value overrides any
Options:
`

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s", usage)
		flag.PrintDefaults()
	}
}

func main() {
	conf := parseConfig()
	l := log.NewLogger(conf.LogLevel, conf.LogDestination)
	l.Debugf("Config: %#v", conf.Workload)
	if tag.Debug {
		l.Warn("Using debug build. It has more runtime checks and large perfomance overhead.")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	start := time.Now()
	res, err := workload.Run(ctx, l, conf.Workload)
	if err != nil {
		l.Fatal("Workload error: ", util.Unwrap(err))
	}
	l.Infof("Done in %v. Items: %v, cost: %v, limit: %v.", time.Since(start), res.Len, res.Cost, res.Limit)
	metrics.WriteOnce(res.Registry, os.Stdout)
}

// parseConfig parses command flags, reads config file if any, returns merged config.
func parseConfig() config.Parsed {
	l := log.NewLogger(log.DebugLevel, os.Stderr)
	flg := parseFlags()
	conf, err := config.Load(flg.ConfigPath)
	if err != nil {
		l.Fatal("Config read error: ", util.Unwrap(err))
	}
	config.Merge(conf, &flg.Config)
	parsed, err := config.Parse(*conf)
	if err != nil {
		l.Fatal(util.Unwrap(err))
	}
	return parsed
}

type Flags struct {
	ConfigPath string
	config.Config
}

func parseFlags() Flags {
	var f Flags
	flag.StringVar(&f.ConfigPath, "config", "", "path to json config")

	def := config.Default()
	usage := func(usage string, defVal interface{}) string {
		if _, ok := defVal.(string); ok {
			usage += fmt.Sprintf(" (default %q)", defVal)
		} else {
			usage += fmt.Sprintf(" (default %v)", defVal)
		}
		return usage
	}
	flag.StringVar(&f.LogDestination, "log-destination", "", usage("log destination: stderr, stdout or file path", def.LogDestination))
	flag.StringVar(&f.LogLevel, "log-level", "", usage("log level: debug, info, warn, error, fatal", def.LogLevel))
	flag.StringVar(&f.Limit, "limit", "", usage("cache cost limit: 2g, 64m or unbounded", def.Limit))
	flag.IntVar(&f.Keys, "keys", 0, usage("number of distinct keys", def.Keys))
	flag.StringVar(&f.MeanValueSize, "mean-value-size", "", usage("mean value size: 4k, 100b", def.MeanValueSize))
	flag.StringVar(&f.TTL, "ttl", "", usage("item ttl: 1s, 100ms; empty for no ttl", def.TTL))
	flag.IntVar(&f.Requests, "requests", 0, usage("total number of requests", def.Requests))
	flag.IntVar(&f.Workers, "workers", 0, usage("number of concurrent workers", def.Workers))
	flag.Float64Var(&f.SetP, "set-p", 0, usage("set operation probability", def.SetP))
	flag.Float64Var(&f.DeleteP, "delete-p", 0, usage("delete operation probability", def.DeleteP))
	flag.BoolVar(&f.ReadThrough, "read-through", false, usage("load missed values through materializer", def.ReadThrough))
	flag.Int64Var(&f.Seed, "seed", 0, usage("random seed", def.Seed))
	flag.Parse()
	return f
}
