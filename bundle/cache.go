package bundle

import (
	"context"
	"sync"
)

// CachingResolver memoizes another resolver. Misses and errors are not
// cached.
type CachingResolver struct {
	next PayloadResolver

	mu     sync.RWMutex
	items  map[string][]byte
	hits   int
	misses int
}

// NewCachingResolver wraps next.
func NewCachingResolver(next PayloadResolver) *CachingResolver {
	return &CachingResolver{
		next:  next,
		items: make(map[string][]byte),
	}
}

// Payload returns the cached payload or fetches and caches it.
func (c *CachingResolver) Payload(ctx context.Context, ref string) ([]byte, error) {
	c.mu.RLock()
	data, ok := c.items[ref]
	c.mu.RUnlock()
	if ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		// Return a copy to prevent mutation
		return append([]byte(nil), data...), nil
	}

	data, err := c.next.Payload(ctx, ref)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.misses++
	c.items[ref] = append([]byte(nil), data...)
	c.mu.Unlock()
	return data, nil
}

// Stats returns the hit and miss counts.
func (c *CachingResolver) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// Len returns the number of cached entries.
func (c *CachingResolver) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear removes all entries from the cache and resets the counters.
func (c *CachingResolver) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string][]byte)
	c.hits, c.misses = 0, 0
}
