package scorecore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIngestor() (*RewardIngestor, *PendingContext, *Bandit) {
	bandit := NewBandit(1.0, 1.0)
	pending := NewPendingContext(PendingContextConfig{MaxEntries: 100, TTL: time.Hour})
	ri := NewRewardIngestor(bandit, pending, 16, nil, nil)
	return ri, pending, bandit
}

func TestRewardIngestor_ApplyFeedbackUnknownDecision(t *testing.T) {
	ri, _, _ := newTestIngestor()
	resp := ri.ApplyFeedback(RewardEvent{DecisionID: uuid.New(), Reward: 1.0, Source: RewardExplicit})
	assert.False(t, resp.Accepted)
	assert.Equal(t, "unknown_decision", resp.Error)
}

func TestRewardIngestor_ApplyFeedbackAcceptsThenRejectsDuplicate(t *testing.T) {
	ri, pending, bandit := newTestIngestor()
	id := uuid.New()
	x := make([]float64, AugmentedDim)
	x[0] = 1
	pending.Put(id, ActionAllow, x, "x.test")

	resp1 := ri.ApplyFeedback(RewardEvent{DecisionID: id, Reward: 1.0, Source: RewardExplicit})
	require.True(t, resp1.Accepted)

	resp2 := ri.ApplyFeedback(RewardEvent{DecisionID: id, Reward: 1.0, Source: RewardExplicit})
	assert.False(t, resp2.Accepted)
	assert.Equal(t, "duplicate", resp2.Error)

	var allowPulls int64
	for _, s := range bandit.Stats() {
		if s.Action == ActionAllow {
			allowPulls = s.Pulls
		}
	}
	assert.Equal(t, int64(1), allowPulls, "a duplicate feedback call must not apply a second bandit update")
}

func TestRewardIngestor_RunAppliesEventsFromChannel(t *testing.T) {
	ri, pending, bandit := newTestIngestor()
	id := uuid.New()
	x := make([]float64, AugmentedDim)
	x[0] = 1
	pending.Put(id, ActionBlock, x, "x.test")

	done := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ri.Run(ctx)
		close(done)
	}()

	ri.Events() <- RewardEvent{DecisionID: id, Reward: -1.0, Source: RewardImplicit}
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	var blockPulls int64
	for _, s := range bandit.Stats() {
		if s.Action == ActionBlock {
			blockPulls = s.Pulls
		}
	}
	assert.Equal(t, int64(1), blockPulls)
}
