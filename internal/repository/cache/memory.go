package cache

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 16

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

type memoryShard struct {
	mu      sync.RWMutex
	entries map[TileKey]memoryEntry
}

// MemoryCache is a sharded in-process tile cache. Sharding keeps lock
// contention down under concurrent tile requests.
type MemoryCache struct {
	shards [shardCount]*memoryShard
	ttl    time.Duration
}

var _ TileCache = (*MemoryCache)(nil)

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	c := &MemoryCache{ttl: ttl}
	for i := range c.shards {
		c.shards[i] = &memoryShard{entries: make(map[TileKey]memoryEntry)}
	}
	return c
}

func (c *MemoryCache) shard(key TileKey) *memoryShard {
	h := fnv.New32a()
	h.Write([]byte(key.String()))
	return c.shards[h.Sum32()%shardCount]
}

func (c *MemoryCache) Get(ctx context.Context, key TileKey) ([]byte, bool, error) {
	shard := c.shard(key)

	shard.mu.RLock()
	entry, ok := shard.entries[key]
	shard.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if c.ttl > 0 && time.Now().After(entry.expiresAt) {
		shard.mu.Lock()
		delete(shard.entries, key)
		shard.mu.Unlock()
		return nil, false, nil
	}

	return entry.data, true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key TileKey, data []byte) error {
	shard := c.shard(key)

	shard.mu.Lock()
	shard.entries[key] = memoryEntry{
		data:      data,
		expiresAt: time.Now().Add(c.ttl),
	}
	shard.mu.Unlock()

	return nil
}
