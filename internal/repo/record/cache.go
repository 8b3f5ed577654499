package record

import "sync"

// Cache holds the most recently read or written entity per identity.
// It is owned by a single Store and safe for concurrent use.
type Cache[T any] struct {
	entries map[string]T
	m       sync.RWMutex
}

// NewCache creates an empty cache.
func NewCache[T any]() *Cache[T] {
	return &Cache[T]{entries: make(map[string]T)}
}

// Get returns the cached entity for id.
func (c *Cache[T]) Get(id string) (T, bool) {
	c.m.RLock()
	defer c.m.RUnlock()

	entity, ok := c.entries[id]

	return entity, ok
}

// Put replaces the cached entity for id.
func (c *Cache[T]) Put(id string, entity T) {
	c.m.Lock()
	defer c.m.Unlock()

	c.entries[id] = entity
}

// Forget drops id from the cache.
func (c *Cache[T]) Forget(id string) {
	c.m.Lock()
	defer c.m.Unlock()

	delete(c.entries, id)
}

// Len returns the number of cached entities.
func (c *Cache[T]) Len() int {
	c.m.RLock()
	defer c.m.RUnlock()

	return len(c.entries)
}
