/*
File: cache.go
Description: The Decision Cache (DC, §4.6) — a sharded LRU keyed by
             Fingerprint, extended with per-entry TTL deadlines the
             teacher's MLAnalysisCache (ml_guard_cache.go) does not
             have, plus a ShardedGroup so concurrent requests sharing a
             fingerprint coalesce into exactly one pipeline execution.
*/

package scorecore

import (
	"container/list"
	"strconv"
	"sync"
	"time"
)

const decisionCacheShards = 64

type decisionCacheEntry struct {
	key      uint64
	decision Decision
	deadline time.Time
}

type decisionCacheShard struct {
	sync.RWMutex
	items    map[uint64]*list.Element
	lruList  *list.List
	capacity int
}

// DecisionCache is DC: bounded, sharded, TTL-expiring, single-flight
// coalesced.
type DecisionCache struct {
	shards [decisionCacheShards]*decisionCacheShard
	flight *ShardedGroup
}

// NewDecisionCache builds a cache with the given total capacity spread
// evenly across shards, mirroring NewMLAnalysisCache's per-shard split.
func NewDecisionCache(capacity int) *DecisionCache {
	c := &DecisionCache{flight: NewShardedGroup()}
	shardCap := capacity / decisionCacheShards
	if shardCap < 1 {
		shardCap = 1
	}
	for i := 0; i < decisionCacheShards; i++ {
		c.shards[i] = &decisionCacheShard{
			items:    make(map[uint64]*list.Element),
			lruList:  list.New(),
			capacity: shardCap,
		}
	}
	return c
}

func (c *DecisionCache) shardFor(key uint64) *decisionCacheShard {
	return c.shards[key%decisionCacheShards]
}

// Get returns the cached Decision for key if present and not past its
// deadline. An expired entry is treated as a miss and evicted lazily.
func (c *DecisionCache) Get(key uint64, now time.Time) (Decision, bool) {
	shard := c.shardFor(key)
	shard.Lock()
	defer shard.Unlock()

	el, ok := shard.items[key]
	if !ok {
		return Decision{}, false
	}
	entry := el.Value.(*decisionCacheEntry)
	if now.After(entry.deadline) {
		shard.lruList.Remove(el)
		delete(shard.items, key)
		return Decision{}, false
	}
	shard.lruList.MoveToFront(el)
	return entry.decision, true
}

// Add inserts or refreshes key with the given TTL, evicting the
// least-recently-used entry on overflow.
func (c *DecisionCache) Add(key uint64, decision Decision, ttl time.Duration, now time.Time) {
	shard := c.shardFor(key)
	shard.Lock()
	defer shard.Unlock()

	deadline := now.Add(ttl)
	if el, found := shard.items[key]; found {
		shard.lruList.MoveToFront(el)
		entry := el.Value.(*decisionCacheEntry)
		entry.decision = decision
		entry.deadline = deadline
		return
	}

	if shard.lruList.Len() >= shard.capacity {
		if oldest := shard.lruList.Back(); oldest != nil {
			shard.lruList.Remove(oldest)
			delete(shard.items, oldest.Value.(*decisionCacheEntry).key)
		}
	}

	entry := &decisionCacheEntry{key: key, decision: decision, deadline: deadline}
	el := shard.lruList.PushFront(entry)
	shard.items[key] = el
}

// Flush clears the entire cache.
func (c *DecisionCache) Flush() {
	for _, shard := range c.shards {
		shard.Lock()
		shard.items = make(map[uint64]*list.Element)
		shard.lruList.Init()
		shard.Unlock()
	}
}

// TTLFor returns the configured TTL for an action, per §4.6's
// per-action default (ALLOW/WARN 5m, BLOCK 15m, configurable).
func TTLFor(action Action, cfg CacheConfig) time.Duration {
	switch action {
	case ActionBlock:
		return cfg.BlockTTL
	case ActionWarn:
		return cfg.WarnTTL
	default:
		return cfg.AllowTTL
	}
}

// Coalesce runs fn under the cache's single-flight group keyed by
// fingerprint, so concurrent requests for the same key share one
// pipeline execution (§4.6).
func (c *DecisionCache) Coalesce(key uint64, fn func() (Decision, error)) (Decision, error, bool) {
	v, err, shared := c.flight.Do(strconv.FormatUint(key, 10), func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return Decision{}, err, shared
	}
	return v.(Decision), nil, shared
}
