package scorecore

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecisionCache_GetMissThenAddThenHit(t *testing.T) {
	c := NewDecisionCache(1024)
	now := time.Now()

	_, ok := c.Get(42, now)
	assert.False(t, ok)

	d := Decision{DecisionID: uuid.New(), Action: ActionAllow}
	c.Add(42, d, time.Minute, now)

	got, ok := c.Get(42, now)
	require.True(t, ok)
	assert.Equal(t, d.DecisionID, got.DecisionID)
}

func TestDecisionCache_ExpiredEntryIsEvictedOnRead(t *testing.T) {
	c := NewDecisionCache(1024)
	now := time.Now()
	d := Decision{DecisionID: uuid.New(), Action: ActionAllow}
	c.Add(1, d, time.Millisecond, now)

	_, ok := c.Get(1, now.Add(time.Second))
	assert.False(t, ok)
}

func TestDecisionCache_EvictsLeastRecentlyUsedOnOverflow(t *testing.T) {
	c := NewDecisionCache(decisionCacheShards) // shardCap == 1 per shard
	now := time.Now()

	// Force two keys into the same shard by using multiples of
	// decisionCacheShards, which all hash to shard 0.
	k1 := uint64(0)
	k2 := uint64(decisionCacheShards)
	d1 := Decision{DecisionID: uuid.New(), Action: ActionAllow}
	d2 := Decision{DecisionID: uuid.New(), Action: ActionWarn}

	c.Add(k1, d1, time.Minute, now)
	c.Add(k2, d2, time.Minute, now)

	_, ok1 := c.Get(k1, now)
	_, ok2 := c.Get(k2, now)
	assert.False(t, ok1, "k1 should have been evicted as the least-recently-used entry in its shard")
	assert.True(t, ok2)
}

func TestTTLFor(t *testing.T) {
	cfg := CacheConfig{AllowTTL: time.Minute, WarnTTL: 2 * time.Minute, BlockTTL: 3 * time.Minute}
	assert.Equal(t, cfg.AllowTTL, TTLFor(ActionAllow, cfg))
	assert.Equal(t, cfg.WarnTTL, TTLFor(ActionWarn, cfg))
	assert.Equal(t, cfg.BlockTTL, TTLFor(ActionBlock, cfg))
}

func TestDecisionCache_CoalesceSharesOneExecution(t *testing.T) {
	c := NewDecisionCache(1024)
	var calls atomic.Int64
	release := make(chan struct{})

	fn := func() (Decision, error) {
		calls.Add(1)
		<-release
		return Decision{DecisionID: uuid.New(), Action: ActionAllow}, nil
	}

	results := make(chan Decision, 2)
	for i := 0; i < 2; i++ {
		go func() {
			d, _, _ := c.Coalesce(7, fn)
			results <- d
		}()
	}

	// Give both goroutines a chance to enter Coalesce before releasing fn,
	// so the second call has a chance to find the first still in flight.
	time.Sleep(10 * time.Millisecond)
	close(release)

	d1 := <-results
	d2 := <-results

	assert.Equal(t, d1.DecisionID, d2.DecisionID)
	assert.Equal(t, int64(1), calls.Load(), "concurrent Coalesce calls for the same key should share one execution")
}
