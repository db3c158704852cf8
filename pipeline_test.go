package scorecore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipelineTestWeights gives feature 7 (has_punycode), 8 (homoglyph) and
// 13 (login keyword) real positive weight so the end-to-end scenarios
// move p_s in the expected direction, while leaving the rest of the
// schema at zero to avoid the small bigram table's backoff noise from
// dominating ordinary English domain names.
func pipelineTestWeights() []float64 {
	w := make([]float64, FeatureCount)
	w[7] = 2.0
	w[8] = 3.0
	w[13] = 1.0
	return w
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *HardIntelGate, *RewardIngestor, *ChannelAnalyzerQueue) {
	doc := validStudentDoc()
	doc.Weights = pipelineTestWeights()
	doc.Bias = -1.0
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	student, err := ParseStudentModel(data)
	require.NoError(t, err)

	hig := NewHardIntelGate()
	registry := NewModelRegistry(student, NewBanditWithRetries(cfg.Bandit.Alpha, cfg.Bandit.Lambda, cfg.Bandit.SequenceLockRetries))
	pending := NewPendingContext(cfg.PendingContext)
	metrics := NewMetrics()
	reward := NewRewardIngestor(registry.Bandit(), pending, 64, metrics, nil)
	queue := NewChannelAnalyzerQueue(64).WithMetrics(metrics)
	router := NewUncertaintyRouter(queue, 1000, 10, nil).WithMetrics(metrics)
	sink := NewChannelSink(64).WithMetrics(metrics)

	engine := NewEngine(cfg, EngineDeps{
		Registry: registry,
		HIG:      hig,
		Cache:    NewDecisionCache(cfg.Cache.Capacity),
		Router:   router,
		Sink:     sink,
		Pending:  pending,
		Reward:   reward,
		Metrics:  metrics,
		Logger:   nil,
	})
	return engine, hig, reward, queue
}

func TestEngine_Score_CleanDomainHasNoReasonsAndLowProbability(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Deadline.Default = time.Second
	engine, hig, _, _ := newTestEngine(t, cfg)
	// Publish an (empty) feed snapshot so the gate is operational and
	// does not tag "intel_unavailable".
	hig.Reload(nil, nil)

	resp := engine.Score(context.Background(), Request{Domain: "google.com"})

	// Probability always reports p_s regardless of which action the
	// (possibly still-exploring) bandit arm settles on.
	assert.Less(t, resp.Probability, 0.5)
	assert.Empty(t, resp.Reasons)
	assert.NotEqual(t, ActionBlock, resp.Action, "a clean domain with p_s well below warn_threshold should never reach BLOCK")
}

func TestEngine_Score_TyposquatDomainWarnsWithReasons(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Deadline.Default = time.Second
	engine, _, _, _ := newTestEngine(t, cfg)

	resp := engine.Score(context.Background(), Request{Domain: "g00gle.com", URL: "https://g00gle.com/login"})

	assert.Contains(t, resp.Reasons, "login_keyword")
	found := false
	for _, r := range resp.Reasons {
		if r == "typosquat:google.com" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestEngine_Score_HomoglyphDomainFlagsHomoglyphAndPunycode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Deadline.Default = time.Second
	engine, _, _, _ := newTestEngine(t, cfg)

	resp := engine.Score(context.Background(), Request{Domain: "раypal.com"})

	assert.Contains(t, resp.Reasons, "idn_homoglyph")
	assert.Contains(t, resp.Reasons, "punycode")
}

func TestEngine_Score_HardHitBlocksWithoutAnalyzerEnqueue(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Deadline.Default = time.Second
	engine, hig, _, queue := newTestEngine(t, cfg)
	hig.Reload([]FeedEntry{{Domain: "evil.example", Verdict: HardPhishing, Source: FeedAbuseCH}}, nil)

	resp := engine.Score(context.Background(), Request{Domain: "evil.example"})

	assert.Equal(t, ActionBlock, resp.Action)
	require.NotEmpty(t, resp.Reasons)
	assert.Equal(t, "hard:abuse.ch", resp.Reasons[0])
	assert.GreaterOrEqual(t, resp.Probability, cfg.Thresholds.BlockThreshold)

	select {
	case <-queue.Tasks():
		t.Fatal("a severe hard-intel hit is already decided; it must not enqueue an analyzer task")
	default:
	}
}

func TestEngine_Feedback_DuplicateSecondCallRejected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Deadline.Default = time.Second
	engine, _, _, _ := newTestEngine(t, cfg)

	scoreResp := engine.Score(context.Background(), Request{Domain: "x.test"})
	decisionID, err := uuid.Parse(scoreResp.DecisionID)
	require.NoError(t, err)

	first := engine.Feedback(RewardEvent{DecisionID: decisionID, Reward: 1.0, Source: RewardExplicit})
	assert.True(t, first.Accepted)

	second := engine.Feedback(RewardEvent{DecisionID: decisionID, Reward: 1.0, Source: RewardExplicit})
	assert.False(t, second.Accepted)
	assert.Equal(t, "duplicate", second.Error)
}

func TestEngine_Score_DeadlineExceededReturnsDegradedAllow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Deadline.Default = 0
	engine, _, _, _ := newTestEngine(t, cfg)

	resp := engine.Score(context.Background(), Request{Domain: "x.test"})

	assert.Equal(t, ActionAllow, resp.Action)
	assert.Equal(t, 0.0, resp.Probability)
	require.Len(t, resp.Reasons, 1)
	assert.Contains(t, resp.Reasons[0], "timeout:")
}
