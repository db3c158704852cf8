/*
File: pending.go
Description: PendingContext (§3/§9) — joins decision_id to the
             (arm, augmented vector) pair CB selected, so RI can apply
             a later reward to the correct arm. Bounded by size and TTL
             via hashicorp/golang-lru/v2/expirable, since no pack repo
             hand-rolls a TTL map and this one is an exact fit.
*/

package scorecore

import (
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// pendingEntry is what PendingContext stores per decision.
type pendingEntry struct {
	Arm    Action
	X      []float64
	Domain string
}

// PendingContext is a TTL- and size-bounded map from decision_id to
// the bandit context needed to apply a reward later (§4.4, §9).
type PendingContext struct {
	cache *expirable.LRU[uuid.UUID, pendingEntry]
}

// NewPendingContext builds a PendingContext with the configured bounds.
func NewPendingContext(cfg PendingContextConfig) *PendingContext {
	return &PendingContext{
		cache: expirable.NewLRU[uuid.UUID, pendingEntry](cfg.MaxEntries, nil, cfg.TTL),
	}
}

// Put records the context for a freshly-minted decision.
func (p *PendingContext) Put(decisionID uuid.UUID, arm Action, x []float64, domain string) {
	p.cache.Add(decisionID, pendingEntry{Arm: arm, X: x, Domain: domain})
}

// Take looks up and removes the context for decisionID, since a reward
// is applied at most once per decision (§9, I5's "at most one bandit
// update" property P5 relies on this). The lookup and the removal are
// two separate cache operations; RewardIngestor.ApplyFeedback calls
// Take under its mutex, which keeps two callers from taking the same
// entry.
func (p *PendingContext) Take(decisionID uuid.UUID) (Action, []float64, bool) {
	entry, ok := p.cache.Peek(decisionID)
	if !ok {
		return "", nil, false
	}
	p.cache.Remove(decisionID)
	return entry.Arm, entry.X, true
}
