package cache

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Clock abstracts the time source so tests can control bucket rollover.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Key identifies one cached value. Bucket is the index of the time window
// the value was loaded in; a value is only served within its own bucket.
type Key struct {
	Symbol string
	Period string
	Bucket int64
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%d", k.Symbol, k.Period, k.Bucket)
}

// Cache memoizes values per (symbol, period, time-bucket).
//
// Behavior:
//   - The bucket is floor(clock.Now() / bucketSize); a value loaded in one bucket
//     is never returned once the clock crosses into the next one.
//   - Entries from previous buckets are purged whenever a new value is stored.
//   - Concurrent loads of the same key are coalesced with singleflight.
//   - Load errors are returned to every waiter and are not cached.
//   - When maxEntries > 0 and the cache is full, the store is skipped (the
//     loaded value is still returned).
type Cache[V any] struct {
	clock      Clock
	bucketSize time.Duration
	maxEntries int

	mu      sync.RWMutex
	entries map[Key]V
	group   singleflight.Group
}

// New creates a Cache. A nil clock falls back to SystemClock and a
// non-positive bucketSize to one hour.
func New[V any](clock Clock, bucketSize time.Duration, maxEntries int) *Cache[V] {
	if clock == nil {
		clock = SystemClock
	}
	if bucketSize <= 0 {
		bucketSize = time.Hour
	}
	return &Cache[V]{
		clock:      clock,
		bucketSize: bucketSize,
		maxEntries: maxEntries,
		entries:    make(map[Key]V),
	}
}

// KeyFor builds the key for symbol/period in the current bucket.
func (c *Cache[V]) KeyFor(symbol, period string) Key {
	return Key{
		Symbol: symbol,
		Period: period,
		Bucket: c.clock.Now().UnixNano() / int64(c.bucketSize),
	}
}

// Get returns the cached value for symbol/period in the current bucket.
func (c *Cache[V]) Get(symbol, period string) (V, bool) {
	key := c.KeyFor(symbol, period)
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// GetOrLoad returns the cached value or calls load and stores its result.
func (c *Cache[V]) GetOrLoad(symbol, period string, load func() (V, error)) (V, error) {
	key := c.KeyFor(symbol, period)

	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return v, nil
	}

	res, err, _ := c.group.Do(key.String(), func() (any, error) {
		loaded, err := load()
		if err != nil {
			return nil, err
		}
		c.store(key, loaded)
		return loaded, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Len reports the number of live entries.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache[V]) store(key Key, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.entries {
		if k.Bucket < key.Bucket {
			delete(c.entries, k)
		}
	}
	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		return
	}
	c.entries[key] = v
}
