package cache

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Stage names a pipeline stage whose results are memoized
type Stage string

// Stage constants
const (
	StageDerive Stage = "derive"
	StageQuery  Stage = "query"
)

// Fingerprint identifies one memoized computation. Two computations with the
// same fingerprint must produce the same result, so every input that
// influences the result belongs in it.
type Fingerprint struct {
	Stage          Stage
	DatasetVersion uint64
	Params         string // Canonical rendering of the remaining inputs
}

// String renders the fingerprint, also used as the in-flight key
func (f Fingerprint) String() string {
	return fmt.Sprintf("%s@%016x|%s", f.Stage, f.DatasetVersion, f.Params)
}

// Metrics receives cache events. Implementations must be safe for concurrent use.
type Metrics interface {
	CacheHit(stage Stage)
	CacheMiss(stage Stage)
	CacheCompute(stage Stage, d time.Duration, err error)
}

// Stats is a point-in-time view of cache activity
type Stats struct {
	Entries      int   `json:"entries"`
	Hits         int64 `json:"hits"`
	Misses       int64 `json:"misses"`
	Computations int64 `json:"computations"`
}

// Cache memoizes results by fingerprint for the life of the process.
// Concurrent callers asking for the same missing fingerprint share a single
// computation. Failed computations are not stored.
type Cache struct {
	mu      sync.RWMutex
	entries map[Fingerprint]any
	stats   Stats

	// set by RetainVersion; query results for other versions are not stored
	retained  uint64
	retaining bool

	inflight singleflight.Group
	metrics  Metrics
}

// Option configures a Cache
type Option func(*Cache)

// WithMetrics reports cache events to m
func WithMetrics(m Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// New creates an empty cache
func New(opts ...Option) *Cache {
	c := &Cache{entries: make(map[Fingerprint]any)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCompute returns the value stored under fp, computing and storing it
// first if absent. compute runs at most once per fingerprint over the cache's
// lifetime unless it fails or fp belongs to a dataset version retired by
// RetainVersion, whose results are returned but not stored.
func GetOrCompute[T any](c *Cache, fp Fingerprint, compute func() (T, error)) (T, error) {
	var zero T

	if v, ok := c.lookup(fp); ok {
		c.recordHit(fp.Stage)
		return cast[T](fp, v)
	}
	c.recordMiss(fp.Stage)

	v, err, _ := c.inflight.Do(fp.String(), func() (any, error) {
		// A caller that finished between our lookup and Do already stored it
		if v, ok := c.lookup(fp); ok {
			return v, nil
		}

		start := time.Now()
		result, err := compute()
		c.recordCompute(fp.Stage, time.Since(start), err)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.storable(fp) {
			c.entries[fp] = result
		}
		c.mu.Unlock()
		return result, nil
	})
	if err != nil {
		return zero, err
	}
	return cast[T](fp, v)
}

func cast[T any](fp Fingerprint, v any) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache: entry %s holds %T, not %T", fp, v, zero)
	}
	return t, nil
}

func (c *Cache) lookup(fp Fingerprint) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[fp]
	return v, ok
}

// Contains reports whether fp has a stored result
func (c *Cache) Contains(fp Fingerprint) bool {
	_, ok := c.lookup(fp)
	return ok
}

// RetainVersion drops every entry computed against a dataset version other
// than version and returns how many were dropped. Later query results for
// other versions are not stored; derive results are, since a new dataset is
// derived before it is retained.
func (c *Cache) RetainVersion(version uint64) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.retained = version
	c.retaining = true

	dropped := 0
	for fp := range c.entries {
		if fp.DatasetVersion != version {
			delete(c.entries, fp)
			dropped++
		}
	}
	return dropped
}

// storable reports whether a result for fp may be kept. Callers hold c.mu.
func (c *Cache) storable(fp Fingerprint) bool {
	return !c.retaining || fp.Stage == StageDerive || fp.DatasetVersion == c.retained
}

// Stats returns a snapshot of cache activity
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.stats
	s.Entries = len(c.entries)
	return s
}

func (c *Cache) recordHit(stage Stage) {
	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()
	if c.metrics != nil {
		c.metrics.CacheHit(stage)
	}
}

func (c *Cache) recordMiss(stage Stage) {
	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
	if c.metrics != nil {
		c.metrics.CacheMiss(stage)
	}
}

func (c *Cache) recordCompute(stage Stage, d time.Duration, err error) {
	c.mu.Lock()
	c.stats.Computations++
	c.mu.Unlock()
	if c.metrics != nil {
		c.metrics.CacheCompute(stage, d, err)
	}
}
