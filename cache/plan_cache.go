package cache

import (
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

type planEntry[V any] struct {
	sig   string
	value V
}

// PlanCache holds one value per key together with the signature it was
// built for. A lookup with a different signature rebuilds the value and
// replaces the entry. Builds are single-flight per (key, signature).
type PlanCache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]planEntry[V]
	ids     map[K]string
	group   singleflight.Group
	builds  int
}

func NewPlanCache[K comparable, V any]() *PlanCache[K, V] {
	return &PlanCache[K, V]{
		entries: make(map[K]planEntry[V]),
		ids:     make(map[K]string),
	}
}

// Get returns the value cached for key if it was built for sig, and
// otherwise calls build and stores its result.
func (c *PlanCache[K, V]) Get(key K, sig string, build func() (V, error)) (V, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && e.sig == sig {
		return e.value, nil
	}

	v, err, _ := c.group.Do(c.flight(key, sig), func() (any, error) {
		c.mu.RLock()
		e, ok := c.entries[key]
		c.mu.RUnlock()
		if ok && e.sig == sig {
			return e.value, nil
		}

		value, err := build()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = planEntry[V]{sig: sig, value: value}
		c.builds++
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Signature returns the signature currently cached for key.
func (c *PlanCache[K, V]) Signature(key K) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e.sig, ok
}

// Invalidate drops the entry for key.
func (c *PlanCache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *PlanCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Builds returns how many values have been built and stored.
func (c *PlanCache[K, V]) Builds() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.builds
}

func (c *PlanCache[K, V]) flight(key K, sig string) string {
	c.mu.RLock()
	id, ok := c.ids[key]
	c.mu.RUnlock()
	if !ok {
		c.mu.Lock()
		if id, ok = c.ids[key]; !ok {
			id = strconv.Itoa(len(c.ids))
			c.ids[key] = id
		}
		c.mu.Unlock()
	}
	return id + "\x00" + sig
}
