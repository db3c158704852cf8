/*
File: reward.go
Description: The Reward Ingestor (RI, §4.8) — a single dedicated
             goroutine draining a buffered chan RewardEvent, applying
             each to the bandit via the same ApplyFeedback path the
             synchronous feedback endpoint uses. Structurally grounded
             on the teacher's StartDynamicTuner goroutine
             (ml_guard_process.go), which owns the same "select over a
             channel plus ctx.Done()" shape; RI has no ticker since
             updates apply immediately. Because Engine.Feedback calls
             ApplyFeedback directly from the caller's own goroutine
             rather than only posting to Events(), ApplyFeedback itself
             is mutex-guarded to keep the dedup-check-then-apply
             sequence atomic across both call paths.
*/

package scorecore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const dedupWindowSize = 100000

// RewardIngestor owns all BanditState mutations. Exactly one instance
// should run per Bandit. ApplyFeedback is the single serialization
// point: Engine.Feedback calls it directly from the requesting
// goroutine (so the feedback endpoint can answer accepted/duplicate
// synchronously, §6), while Run calls the same method from its one
// worker goroutine for hosts that prefer the async channel path. Since
// both paths converge on ApplyFeedback, mu guards its dedup-check
// plus pending-context-take sequence so two concurrent callers can
// never both pass the check for the same (decision_id, source) and
// double-apply a reward (P5, I4).
type RewardIngestor struct {
	mu      sync.Mutex
	bandit  *Bandit
	pending *PendingContext
	events  chan RewardEvent
	applied *expirable.LRU[string, struct{}]
	metrics *Metrics
	logger  componentLoggerFunc
}

// NewRewardIngestor constructs an ingestor with a bounded event queue
// and a bounded dedup window for recently-applied (decision_id,source)
// pairs (§4.4: "a small bounded LRU of recently-applied keys
// suffices"). baseLogger may be nil; it defaults to the package logger
// (logger.go).
func NewRewardIngestor(bandit *Bandit, pending *PendingContext, queueCapacity int, metrics *Metrics, baseLogger *slog.Logger) *RewardIngestor {
	log := componentLogger(baseLogger, "reward_ingestor")
	return &RewardIngestor{
		bandit:  bandit,
		pending: pending,
		events:  make(chan RewardEvent, queueCapacity),
		applied: expirable.NewLRU[string, struct{}](dedupWindowSize, nil, 0),
		metrics: metrics,
		logger:  func(msg string, args ...any) { LogWarn(log, msg, args...) },
	}
}

// Events returns the channel the transport layer's feedback endpoint
// feeds.
func (r *RewardIngestor) Events() chan<- RewardEvent { return r.events }

// Run drains events until ctx is canceled, applying each to the bandit
// serially (§5: "a single dedicated worker owns all mutations of
// BanditState").
func (r *RewardIngestor) Run(ctx context.Context) {
	for {
		select {
		case ev := <-r.events:
			r.apply(ev)
		case <-ctx.Done():
			return
		}
	}
}

// dedupKey joins decision_id and source_kind, the unit §4.4 dedupes on.
func dedupKey(decisionID uuid.UUID, source RewardSource) string {
	return fmt.Sprintf("%s:%s", decisionID, source)
}

func (r *RewardIngestor) apply(ev RewardEvent) {
	resp := r.ApplyFeedback(ev)
	if !resp.Accepted {
		r.logger("reward ingestor: reward not applied", "decision_id", ev.DecisionID, "error", resp.Error)
	}
}

// ApplyFeedback is the synchronous entry point Engine.Feedback uses to
// answer the feedback call's accepted/duplicate/unknown outcome
// immediately (§6's FeedbackResponse), rather than only posting to
// Events() and finding out later. Run's channel path exists for a host
// that wants to feed rewards asynchronously instead; both paths funnel
// through this one so dedup and pending-context bookkeeping happen
// exactly once regardless of which path was used. mu makes the
// dedup-check-then-pending-take sequence atomic: without it, two
// concurrent calls for the same (decision_id, source) could both
// observe "not yet applied" and both take the pending context before
// either records the dedup key, applying the reward twice.
func (r *RewardIngestor) ApplyFeedback(ev RewardEvent) FeedbackResponse {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := dedupKey(ev.DecisionID, ev.Source)
	if _, seen := r.applied.Get(key); seen {
		return FeedbackResponse{Accepted: false, Error: "duplicate"}
	}

	arm, x, ok := r.pending.Take(ev.DecisionID)
	if !ok {
		return FeedbackResponse{Accepted: false, Error: "unknown_decision"}
	}

	r.bandit.Apply(arm, x, ev.Reward)
	r.applied.Add(key, struct{}{})
	if r.metrics != nil {
		r.metrics.RecordBanditUpdate()
	}
	return FeedbackResponse{Accepted: true}
}
