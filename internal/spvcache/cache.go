// Package spvcache keeps recently compiled SPIR-V modules keyed by their
// WGSL source so that re-applying a description with unchanged shaders
// skips the compiler.
//
// Cache is safe for concurrent use and must not be copied after creation.
package spvcache

import (
	"crypto/sha256"
	"sync"
)

// DefaultCapacity is the number of modules kept by a cache created with a
// non-positive capacity.
const DefaultCapacity = 64

// Key identifies a shader source.
type Key [sha256.Size]byte

// KeyOf returns the key of a WGSL source.
func KeyOf(source string) Key {
	return sha256.Sum256([]byte(source))
}

// Cache is an LRU of compiled modules.
type Cache struct {
	mu       sync.Mutex
	entries  map[Key]*node
	order    list
	capacity int

	hits      uint64
	misses    uint64
	evictions uint64
}

type node struct {
	key   Key
	words []uint32
	prev  *node
	next  *node
}

// New creates a cache holding at most capacity modules.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		entries:  make(map[Key]*node, capacity),
		capacity: capacity,
	}
}

// Get returns the module compiled from source, if present.
// The returned slice is shared and must not be modified.
func (c *Cache) Get(source string) ([]uint32, bool) {
	key := KeyOf(source)
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.order.moveToFront(n)
	return n.words, true
}

// Put stores the module compiled from source, evicting the least recently
// used entry when the cache is full.
func (c *Cache) Put(source string, words []uint32) {
	key := KeyOf(source)
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.entries[key]; ok {
		n.words = words
		c.order.moveToFront(n)
		return
	}
	n := &node{key: key, words: words}
	c.entries[key] = n
	c.order.pushFront(n)
	for len(c.entries) > c.capacity {
		oldest := c.order.tail
		c.order.unlink(oldest)
		delete(c.entries, oldest.key)
		c.evictions++
	}
}

// GetOrCompile returns the cached module for source or runs compile and
// caches its result. Failed compilations are not cached. compile runs
// without the lock held, so concurrent misses on one source may both
// compile.
func (c *Cache) GetOrCompile(source string, compile func(string) ([]uint32, error)) ([]uint32, error) {
	if words, ok := c.Get(source); ok {
		return words, nil
	}
	words, err := compile(source)
	if err != nil {
		return nil, err
	}
	c.Put(source, words)
	return words, nil
}

// Clear drops every entry. Statistics are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]*node, c.capacity)
	c.order = list{}
}

// Len returns the number of cached modules.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the maximum number of cached modules.
func (c *Cache) Capacity() int { return c.capacity }

// Stats contains cache statistics.
type Stats struct {
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns hits / (hits + misses), or 0 before the first lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Stats returns a snapshot of the cache statistics.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Len:       len(c.entries),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
