package leetcode

import (
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// cachedEntry is a cached upstream result with its insertion time.
type cachedEntry struct {
	value     interface{}
	timestamp time.Time
}

// ttlCache is an LRU bounded cache whose entries also expire. lru.Cache is
// safe for concurrent use on its own.
type ttlCache struct {
	lru *lru.Cache
	now func() time.Time
}

func newTTLCache(size int, now func() time.Time) *ttlCache {
	if size <= 0 {
		size = 1
	}
	cache, _ := lru.New(size)
	return &ttlCache{lru: cache, now: now}
}

func (c *ttlCache) get(key string, ttl time.Duration) (interface{}, bool) {
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	entry := v.(cachedEntry)
	if c.now().Sub(entry.timestamp) >= ttl {
		c.lru.Remove(key)
		return nil, false
	}
	return entry.value, true
}

func (c *ttlCache) put(key string, value interface{}) {
	c.lru.Add(key, cachedEntry{value: value, timestamp: c.now()})
}
