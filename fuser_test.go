package scorecore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func defaultThresholds() ThresholdConfig {
	return ThresholdConfig{WarnThreshold: 0.5, BlockThreshold: 0.8}
}

func TestFuse_HardHitShortCircuitsToBlock(t *testing.T) {
	reasons := NewReasonSet()
	result := Fuse(FusionInput{
		HardHit:      HardIntelHit{Verdict: HardPhishing, Source: FeedAbuseCH},
		HasHardHit:   true,
		StudentScore: 0.1,
		BanditArm:    ActionAllow,
		Reasons:      reasons,
	}, defaultThresholds())

	assert.Equal(t, ActionBlock, result.Action)
	assert.False(t, result.Uncertain)
	assert.Equal(t, defaultThresholds().BlockThreshold, result.Probability)
	assert.Equal(t, "hard:abuse.ch", reasons.Slice()[0])
}

func TestFuse_SoftSignalOverridesToBlock(t *testing.T) {
	reasons := NewReasonSet()
	result := Fuse(FusionInput{
		StudentScore: 0.9,
		BanditArm:    ActionAllow,
		Reasons:      reasons,
	}, defaultThresholds())

	assert.Equal(t, ActionBlock, result.Action)
	assert.Equal(t, 0.9, result.Probability)
	assert.False(t, result.Uncertain)
}

func TestFuse_MonotonicityGuardDowngradesBlockBelowWarn(t *testing.T) {
	reasons := NewReasonSet()
	result := Fuse(FusionInput{
		StudentScore: 0.1,
		BanditArm:    ActionBlock,
		Reasons:      reasons,
	}, defaultThresholds())

	assert.Equal(t, ActionWarn, result.Action, "a bandit-chosen BLOCK below warn_threshold must be downgraded to WARN")
}

func TestFuse_MonotonicityGuardUpgradesAllowAboveWarn(t *testing.T) {
	reasons := NewReasonSet()
	result := Fuse(FusionInput{
		StudentScore: 0.6,
		BanditArm:    ActionAllow,
		Reasons:      reasons,
	}, defaultThresholds())

	assert.Equal(t, ActionWarn, result.Action, "a bandit-chosen ALLOW at or above warn_threshold must be upgraded to WARN")
	assert.True(t, result.Uncertain)
}

func TestFuse_DynDNSHitIsUncertainEvenWhenNotSevere(t *testing.T) {
	reasons := NewReasonSet()
	result := Fuse(FusionInput{
		HardHit:      HardIntelHit{Verdict: HardSuspiciousDynDNS, Source: FeedDynDNSGeneric},
		HasHardHit:   true,
		StudentScore: 0.1,
		BanditArm:    ActionAllow,
		Reasons:      reasons,
	}, defaultThresholds())

	assert.True(t, result.Uncertain)
	assert.Equal(t, ActionAllow, result.Action)
}

func TestFuse_BandContainingBothThresholdsIsUncertain(t *testing.T) {
	reasons := NewReasonSet()
	result := Fuse(FusionInput{
		StudentScore: 0.65,
		BanditArm:    ActionWarn,
		Reasons:      reasons,
	}, defaultThresholds())

	assert.True(t, result.Uncertain)
	assert.Equal(t, ActionWarn, result.Action)
}
