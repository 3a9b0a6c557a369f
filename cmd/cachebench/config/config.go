// Package config parses cachebench configuration.
// Config values merge rules:
// 1) config file value overrides default
// 2) command line value overrides any
package config

import (
	"encoding/json"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/facebookgo/stackerr"
	"github.com/pkg/errors"

	"github.com/broadly/caching-map/cache"
	"github.com/broadly/caching-map/internal/util"
	"github.com/broadly/caching-map/log"
	"github.com/broadly/caching-map/workload"
)

// Unbounded is limit value for cache without limit.
const Unbounded = "unbounded"

type Config struct {
	LogDestination string `json:"log-destination,omitempty"` // Stdout, stderr, or filepath.
	LogLevel       string `json:"log-level,omitempty"`
	// Size values 10g, 128m, 1024k, 1000000b or "unbounded".
	Limit         string `json:"limit,omitempty"`
	Keys          int    `json:"keys,omitempty"`
	MeanValueSize string `json:"mean-value-size,omitempty"`
	// Duration values 1s, 100ms. Empty means no TTL.
	TTL         string  `json:"ttl,omitempty"`
	Requests    int     `json:"requests,omitempty"`
	Workers     int     `json:"workers,omitempty"`
	SetP        float64 `json:"set-p,omitempty"`
	DeleteP     float64 `json:"delete-p,omitempty"`
	ReadThrough bool    `json:"read-through,omitempty"`
	Seed        int64   `json:"seed,omitempty"`
}

// Parsed is config ready to run.
type Parsed struct {
	LogDestination io.Writer
	LogLevel       log.Level
	Workload       workload.Config
}

func Default() *Config {
	return &Config{
		LogDestination: "stderr",
		LogLevel:       "info",
		Limit:          "64m",
		Keys:           16 << 10,
		MeanValueSize:  "4k",
		Requests:       1 << 20,
		Workers:        8,
		SetP:           0.1,
		DeleteP:        0.01,
	}
}

func Parse(conf Config) (parsed Parsed, err error) {
	parsed.LogDestination, err = logDestination(conf.LogDestination)
	if err != nil {
		err = stackerr.Newf("Log destination open error: %v", err)
		return
	}
	parsed.LogLevel, err = log.LevelFromString(conf.LogLevel)
	if err != nil {
		err = stackerr.Newf("Log level parse error: %v", err)
		return
	}
	w := &parsed.Workload
	w.Limit, err = parseLimit(conf.Limit)
	if err != nil {
		err = stackerr.Newf("Limit parse error: %v", err)
		return
	}
	var valueSize int64
	valueSize, err = parseSize(conf.MeanValueSize)
	if err != nil {
		err = stackerr.Newf("Mean value size parse error: %v", err)
		return
	}
	w.MeanValueSize = int(valueSize)
	if conf.TTL != "" {
		w.TTL, err = time.ParseDuration(conf.TTL)
		if err != nil {
			err = stackerr.Newf("TTL parse error: %v", err)
			return
		}
	}
	w.Keys = conf.Keys
	w.Requests = conf.Requests
	w.Workers = conf.Workers
	w.SetP = conf.SetP
	w.DeleteP = conf.DeleteP
	w.ReadThrough = conf.ReadThrough
	w.Seed = conf.Seed
	return
}

// Load reads JSON config file over defaults.
func Load(path string) (*Config, error) {
	conf := Default()
	if path == "" {
		return conf, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, stackerr.Wrap(err)
	}
	err = json.Unmarshal(data, conf)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return conf, nil
}

// Merge overwrites def fields with non zero override fields.
func Merge(def, override *Config) {
	defVal := reflect.ValueOf(def).Elem()
	overrideVal := reflect.ValueOf(override).Elem()
	for i, end := 0, defVal.NumField(); i < end; i++ {
		overrideVal := overrideVal.Field(i)
		if !util.IsZeroVal(overrideVal) {
			defVal.Field(i).Set(overrideVal)
		}
	}
}

func Marshal(conf *Config) []byte {
	data, err := json.Marshal(conf)
	if err != nil {
		panic(err)
	}
	return data
}

func parseLimit(s string) (float64, error) {
	if strings.EqualFold(s, Unbounded) {
		return cache.Unbounded, nil
	}
	size, err := parseSize(s)
	return float64(size), err
}

func parseSize(s string) (size int64, err error) {
	if len(s) < 2 {
		err = errors.New("Invalid size format.")
		return
	}
	sep := len(s) - 1
	sizeStr := s[:sep]
	exponentStr := s[sep:]
	var exponent uint32
	switch strings.ToLower(exponentStr) {
	case "b":
		exponent = 0
	case "k":
		exponent = 10
	case "m":
		exponent = 20
	case "g":
		exponent = 30
	default:
		err = errors.New("Invalid exponent. Only 'b', 'k', 'm', 'g' allowed.")
		return
	}
	size, err = strconv.ParseInt(sizeStr, 10, 31)
	if err != nil {
		err = errors.Wrap(err, "Size parse error")
		return
	}
	if size < 0 {
		err = errors.Errorf("Negative size %v.", s)
		return
	}
	size <<= exponent
	return
}

func logDestination(dest string) (w io.Writer, err error) {
	switch strings.ToLower(dest) {
	case "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	default:
		w, err = os.OpenFile(dest, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	}
	return
}
