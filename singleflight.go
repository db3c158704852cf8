/*
File: singleflight.go
Description: A sharded wrapper around singleflight.Group, adapted from
             the teacher's sharded_singleflight.go, used by DC to
             coalesce concurrent requests sharing a cache fingerprint
             (§4.6) without funneling every key through one lock.
*/

package scorecore

import (
	"hash/maphash"
	"sync"

	"golang.org/x/sync/singleflight"
)

const shardedFlightCount = 512

// ShardedGroup is a singleflight.Group sharded by key hash, so unrelated
// keys never contend on the same internal mutex.
type ShardedGroup struct {
	shards []*singleflight.Group
	seed   maphash.Seed
}

var sgPool = sync.Pool{
	New: func() any {
		return new(maphash.Hash)
	},
}

func NewShardedGroup() *ShardedGroup {
	sg := &ShardedGroup{
		shards: make([]*singleflight.Group, shardedFlightCount),
		seed:   maphash.MakeSeed(),
	}
	for i := 0; i < shardedFlightCount; i++ {
		sg.shards[i] = &singleflight.Group{}
	}
	return sg
}

func (g *ShardedGroup) getShard(key string) *singleflight.Group {
	h := sgPool.Get().(*maphash.Hash)
	h.Reset()
	h.SetSeed(g.seed)
	h.WriteString(key)
	idx := h.Sum64() & (shardedFlightCount - 1)
	sgPool.Put(h)
	return g.shards[idx]
}

func (g *ShardedGroup) Do(key string, fn func() (interface{}, error)) (v interface{}, err error, shared bool) {
	return g.getShard(key).Do(key, fn)
}

func (g *ShardedGroup) DoChan(key string, fn func() (interface{}, error)) <-chan singleflight.Result {
	return g.getShard(key).DoChan(key, fn)
}

func (g *ShardedGroup) Forget(key string) {
	g.getShard(key).Forget(key)
}
