package cache

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"planet-lod/internal/profiling"

	"golang.org/x/time/rate"
)

// Cache wraps a Store with a namespace and failure handling. The first read
// or write error disables it for the rest of the session: every later Get is a
// miss and every Put is dropped, so terrain generation carries on uncached.
type Cache struct {
	store     Store
	namespace string
	disabled  atomic.Bool
	warn      rate.Sometimes
}

// New wraps store. A nil store yields a cache that always misses.
func New(store Store, namespace string) *Cache {
	c := &Cache{
		store:     store,
		namespace: namespace,
		warn:      rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
	if store == nil {
		c.disabled.Store(true)
	}
	return c
}

// Namespace returns the prefix applied to every key.
func (c *Cache) Namespace() string { return c.namespace }

// Disabled reports whether the cache has stopped using its store.
func (c *Cache) Disabled() bool { return c.disabled.Load() }

func (c *Cache) key(k string) string {
	return c.namespace + ":" + k
}

// Get returns the artifact stored under k, or false on a miss.
func (c *Cache) Get(ctx context.Context, k string) ([]byte, bool) {
	if c.disabled.Load() {
		return nil, false
	}
	v, ok, err := c.store.Get(ctx, c.key(k))
	if err != nil {
		c.fail("read", k, err)
		return nil, false
	}
	if ok {
		profiling.Count("cache.hit", 1)
	} else {
		profiling.Count("cache.miss", 1)
	}
	return v, ok
}

// Put stores an artifact. It reports whether the write landed.
func (c *Cache) Put(ctx context.Context, k string, v []byte) bool {
	if c.disabled.Load() {
		return false
	}
	if err := c.store.Put(ctx, c.key(k), v); err != nil {
		c.fail("write", k, err)
		return false
	}
	return true
}

func (c *Cache) fail(op, k string, err error) {
	// A cancelled build is not a storage failure.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	if c.disabled.CompareAndSwap(false, true) {
		log.Printf("cache %s %s failed, continuing uncached: %v", op, k, err)
		return
	}
	// builds already in flight when the cache was disabled
	c.warn.Do(func() {
		log.Printf("cache %s %s failed: %v", op, k, err)
	})
}

// Close closes the underlying store.
func (c *Cache) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}
