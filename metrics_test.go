package scorecore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_SnapshotReflectsRecordedValues(t *testing.T) {
	m := NewMetrics()
	m.RecordCacheHit()
	m.RecordCacheHit()
	m.RecordCacheMiss()
	m.RecordBanditUpdate()
	m.RecordAction(ActionWarn)
	m.RecordAction(ActionWarn)
	m.RecordAction(ActionBlock)

	snap := m.Snapshot()
	assert.Equal(t, 2.0, snap.CacheHits)
	assert.Equal(t, 1.0, snap.CacheMisses)
	assert.Equal(t, 1.0, snap.BanditUpdates)
	assert.Equal(t, 2.0, snap.ActionCounts[string(ActionWarn)])
	assert.Equal(t, 1.0, snap.ActionCounts[string(ActionBlock)])
	assert.Equal(t, 0.0, snap.ActionCounts[string(ActionAllow)])
}
