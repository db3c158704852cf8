package scorecore

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAugmentVector_L2Normalized(t *testing.T) {
	var fv FeatureVector
	fv[0] = 3
	fv[1] = 4
	x := AugmentVector(fv, 0)

	var sumSq float64
	for _, v := range x {
		sumSq += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSq), 1e-9)
}

func TestAugmentVector_AllZeroReturnsZero(t *testing.T) {
	var fv FeatureVector
	x := AugmentVector(fv, 0)
	for _, v := range x {
		assert.Equal(t, 0.0, v)
	}
}

func TestBandit_SelectArmTieBreaksConservative(t *testing.T) {
	b := NewBandit(1.0, 1.0)
	x := make([]float64, AugmentedDim)
	x[0] = 1

	action, stale := b.SelectArm(x)
	assert.False(t, stale)
	assert.Equal(t, ActionBlock, action, "with all arms tied at init, the tie-break favors the most conservative action")
}

func TestBandit_ApplyMovesArmTowardRewardedContext(t *testing.T) {
	b := NewBandit(0.0, 1.0)
	x := make([]float64, AugmentedDim)
	x[0] = 1

	b.Apply(ActionAllow, x, 1.0)

	stats := b.Stats()
	var allowStat ArmStat
	for _, s := range stats {
		if s.Action == ActionAllow {
			allowStat = s
		}
	}
	assert.Equal(t, int64(1), allowStat.Pulls)
	assert.InDelta(t, 1.0, allowStat.AverageReward, 1e-9)

	// With alpha = 0 the UCB is theta.x alone: the rewarded ALLOW arm
	// now scores 0.5 on x while the untouched arms score 0.
	action, _ := b.SelectArm(x)
	assert.Equal(t, ActionAllow, action)
}

func TestBandit_CheckpointRoundTrip(t *testing.T) {
	b := NewBandit(1.0, 1.0)
	x := make([]float64, AugmentedDim)
	x[0] = 1
	b.Apply(ActionWarn, x, 0.5)

	data, err := b.Checkpoint()
	require.NoError(t, err)

	b2 := NewBandit(1.0, 1.0)
	require.NoError(t, b2.Restore(data))

	stats := b2.Stats()
	for _, s := range stats {
		if s.Action == ActionWarn {
			assert.Equal(t, int64(1), s.Pulls)
			assert.InDelta(t, 0.5, s.AverageReward, 1e-9)
		}
	}
}

func TestArm_ReadConsistentMatchesDirectState(t *testing.T) {
	a := newArm(AugmentedDim, 1.0, defaultSeqLockRetries)
	x := make([]float64, AugmentedDim)
	x[0] = 1
	a.update(x, 1.0)

	ainv, b, stale := a.readConsistent()
	assert.False(t, stale)
	assert.Len(t, ainv, AugmentedDim*AugmentedDim)
	assert.Len(t, b, AugmentedDim)
	assert.Equal(t, a.Ainv, ainv)
	assert.Equal(t, a.b, b)
}
