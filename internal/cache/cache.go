package cache

import (
    "sync"
    "time"
)

// entry stores one payload with the time it was written.
type entry[T any] struct {
    data  T
    setAt time.Time
}

// Cache is a per-key TTL cache. Expiry only affects IsValid: Get always
// returns the last stored payload so callers can serve stale data when a
// refresh fails. Concurrency-safe.
type Cache[T any] struct {
    ttl     time.Duration
    maxKeys int
    now     func() time.Time

    mu    sync.RWMutex
    items map[string]entry[T]
}

const (
    DefaultTTL     = 10 * time.Minute
    DefaultMaxKeys = 512
)

// New creates a Cache with the given TTL. Non-positive ttl falls back to
// DefaultTTL, non-positive maxKeys to DefaultMaxKeys.
func New[T any](ttl time.Duration, maxKeys int) *Cache[T] {
    if ttl <= 0 {
        ttl = DefaultTTL
    }
    if maxKeys <= 0 {
        maxKeys = DefaultMaxKeys
    }
    return &Cache[T]{
        ttl:     ttl,
        maxKeys: maxKeys,
        now:     time.Now,
        items:   make(map[string]entry[T]),
    }
}

// Get returns the stored payload for key regardless of expiry. The second
// return is false only if no Set has ever happened for the key.
func (c *Cache[T]) Get(key string) (T, bool) {
    c.mu.RLock()
    defer c.mu.RUnlock()
    e, ok := c.items[key]
    if !ok {
        var zero T
        return zero, false
    }
    return e.data, true
}

// IsValid reports whether an entry exists and is younger than the TTL.
func (c *Cache[T]) IsValid(key string) bool {
    c.mu.RLock()
    defer c.mu.RUnlock()
    e, ok := c.items[key]
    return ok && c.now().Sub(e.setAt) < c.ttl
}

// Age returns the elapsed time since the last Set for key, 0 if absent.
func (c *Cache[T]) Age(key string) time.Duration {
    c.mu.RLock()
    defer c.mu.RUnlock()
    e, ok := c.items[key]
    if !ok {
        return 0
    }
    return c.now().Sub(e.setAt)
}

// Set overwrites the entry and its timestamp unconditionally.
// Keys are caller-supplied strings, so the map is capped: when full,
// expired entries are evicted first, then arbitrary ones.
func (c *Cache[T]) Set(key string, data T) {
    c.mu.Lock()
    defer c.mu.Unlock()
    now := c.now()
    c.items[key] = entry[T]{data: data, setAt: now}
    if len(c.items) <= c.maxKeys {
        return
    }
    for k, e := range c.items {
        if k == key {
            continue
        }
        if now.Sub(e.setAt) >= c.ttl {
            delete(c.items, k)
        }
        if len(c.items) <= c.maxKeys {
            return
        }
    }
    for k := range c.items {
        if len(c.items) <= c.maxKeys {
            return
        }
        if k == key {
            continue
        }
        delete(c.items, k)
    }
}

// Len returns the number of stored keys.
func (c *Cache[T]) Len() int {
    c.mu.RLock()
    defer c.mu.RUnlock()
    return len(c.items)
}
