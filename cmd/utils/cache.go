package utils

import "sync"

// FeedCache is a process-wide key-value store with read-through semantics
// left to the caller: populate on miss, reuse verbatim on hit. Writes to
// the underlying storage never touch it; the only invalidation is an
// explicit Clear.
type FeedCache struct {
    mu      sync.RWMutex
    entries map[string]interface{}
}

func NewFeedCache() *FeedCache {
    return &FeedCache{entries: make(map[string]interface{})}
}

func (c *FeedCache) Get(key string) (interface{}, bool) {
    c.mu.RLock()
    defer c.mu.RUnlock()
    value, ok := c.entries[key]
    return value, ok
}

func (c *FeedCache) Set(key string, value interface{}) {
    c.mu.Lock()
    defer c.mu.Unlock()
    c.entries[key] = value
}

// Clear drops every entry.
func (c *FeedCache) Clear() {
    c.mu.Lock()
    defer c.mu.Unlock()
    c.entries = make(map[string]interface{})
}
