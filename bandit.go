/*
File: bandit.go
Description: The Contextual Bandit (CB, §4.4) — disjoint LinUCB over
             three arms (ALLOW/WARN/BLOCK), with an incremental
             Sherman-Morrison inverse update so the hot path never
             performs a full matrix inversion. Readers use a per-arm
             sequence lock (optimistic read + bounded retry) to get a
             consistent (A_a^-1, b_a) pair without blocking the single
             writer (RI); this deliberately diverges from
             original_source/engine/src/linucb.rs, which re-inverts
             A_a via nalgebra on every update.
*/

package scorecore

import (
	"encoding/json"
	"math"
	"sync"
	"sync/atomic"
)

// AugmentedDim is d = |features| + 1, the student probability appended
// to the feature vector before L2 normalization (§4.4).
const AugmentedDim = FeatureCount + 1

// defaultSeqLockRetries is the bound past which a reader falls back to
// the arm's last-published immutable snapshot when no explicit bound is
// configured (§9, resolved: exactly 3). NewBanditWithRetries lets a
// caller override this from Config.Bandit.SequenceLockRetries.
const defaultSeqLockRetries = 3

// AugmentVector builds CB's context vector: the feature vector with
// the student probability appended, then L2-normalized as a whole
// (the normalization happens after appending, per §4.4's literal
// ordering).
func AugmentVector(fv FeatureVector, studentProb float64) []float64 {
	x := make([]float64, AugmentedDim)
	copy(x, fv[:])
	x[FeatureCount] = studentProb
	var sumSq float64
	for _, v := range x {
		sumSq += v * v
	}
	if sumSq == 0 {
		return x
	}
	norm := math.Sqrt(sumSq)
	for i := range x {
		x[i] /= norm
	}
	return x
}

// armArms is the selection order used for deterministic iteration and
// for the conservative tie-break (BLOCK > WARN > ALLOW).
var armArms = [3]Action{ActionAllow, ActionWarn, ActionBlock}

func armIndex(a Action) int {
	switch a {
	case ActionWarn:
		return 1
	case ActionBlock:
		return 2
	default:
		return 0
	}
}

// armSnapshot is the immutable fallback a reader uses once it exceeds
// its arm's configured retry bound on the optimistic path.
type armSnapshot struct {
	Ainv []float64
	B    []float64
}

// arm holds one disjoint LinUCB arm's state plus the bookkeeping the
// sequence lock needs. mu serializes writers (RI is the sole writer in
// practice, but the lock costs nothing on that already-serial path and
// guards against a future second writer).
type arm struct {
	mu      sync.Mutex
	seq     atomic.Uint64
	d       int
	retries int
	Ainv    []float64 // d*d, row-major
	b       []float64 // d

	snapshot  atomic.Pointer[armSnapshot]
	pulls     atomic.Int64
	rewardSum atomic.Int64 // bits of float64, via math.Float64bits, updated under mu
}

func newArm(d int, lambda float64, retries int) *arm {
	a := &arm{d: d, retries: retries, Ainv: make([]float64, d*d), b: make([]float64, d)}
	for i := 0; i < d; i++ {
		a.Ainv[i*d+i] = 1.0 / lambda
	}
	a.snapshot.Store(&armSnapshot{Ainv: append([]float64(nil), a.Ainv...), B: append([]float64(nil), a.b...)})
	return a
}

// readConsistent returns a copy of (A^-1, b) for selection, using the
// seqlock optimistic-read-then-retry discipline; falls back to the
// last published snapshot after a.retries failed attempts (§9).
func (a *arm) readConsistent() (ainv, b []float64, stale bool) {
	for i := 0; i < a.retries; i++ {
		s1 := a.seq.Load()
		if s1&1 == 1 {
			continue
		}
		ainvCopy := append([]float64(nil), a.Ainv...)
		bCopy := append([]float64(nil), a.b...)
		s2 := a.seq.Load()
		if s1 == s2 {
			return ainvCopy, bCopy, false
		}
	}
	snap := a.snapshot.Load()
	return snap.Ainv, snap.B, true
}

// update applies the Sherman-Morrison rank-1 update for x with reward
// (§4.4). Only RI calls this.
func (a *arm) update(x []float64, reward float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.seq.Add(1) // odd: write in progress

	d := a.d
	// Av = A^-1 x
	av := make([]float64, d)
	for i := 0; i < d; i++ {
		var s float64
		for j := 0; j < d; j++ {
			s += a.Ainv[i*d+j] * x[j]
		}
		av[i] = s
	}
	var denom float64 = 1.0
	for i := 0; i < d; i++ {
		denom += x[i] * av[i]
	}
	// A^-1 <- A^-1 - (av avT) / denom
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			a.Ainv[i*d+j] -= (av[i] * av[j]) / denom
		}
	}
	for i := 0; i < d; i++ {
		a.b[i] += reward * x[i]
	}

	snap := &armSnapshot{Ainv: append([]float64(nil), a.Ainv...), B: append([]float64(nil), a.b...)}
	a.snapshot.Store(snap)

	a.pulls.Add(1)
	for {
		old := a.rewardSum.Load()
		sum := math.Float64frombits(uint64(old)) + reward
		if a.rewardSum.CompareAndSwap(old, int64(math.Float64bits(sum))) {
			break
		}
	}

	a.seq.Add(1) // even: write complete
}

// Bandit is the disjoint LinUCB contextual bandit over the three
// actions.
type Bandit struct {
	alpha float64
	arms  [3]*arm
}

// NewBandit constructs a bandit with lambda*I initial A_a per arm
// (§4.4), using the default seqlock retry bound (§9: exactly 3). Use
// NewBanditWithRetries to source the bound from Config.Bandit.SequenceLockRetries.
func NewBandit(alpha, lambda float64) *Bandit {
	return NewBanditWithRetries(alpha, lambda, defaultSeqLockRetries)
}

// NewBanditWithRetries is NewBandit with an explicit seqlock retry
// bound, wired from Config.Bandit.SequenceLockRetries so the value
// config.go declares and validates actually governs CB's reader
// fallback behavior (§9).
func NewBanditWithRetries(alpha, lambda float64, retries int) *Bandit {
	b := &Bandit{alpha: alpha}
	for i := range b.arms {
		b.arms[i] = newArm(AugmentedDim, lambda, retries)
	}
	return b
}

// SelectArm computes the UCB for every arm against x and returns the
// argmax action, breaking ties toward the more conservative action
// (BLOCK > WARN > ALLOW, §4.4). stale reports whether any arm's read
// fell back to its last-published snapshot.
func (b *Bandit) SelectArm(x []float64) (action Action, stale bool) {
	bestUCB := math.Inf(-1)
	bestIdx := 0
	for i, a := range b.arms {
		ainv, bv, s := a.readConsistent()
		if s {
			stale = true
		}
		mu, sigma := linucbScore(ainv, bv, x)
		ucb := mu + b.alpha*sigma
		if ucb > bestUCB || (ucb == bestUCB && armArms[i].severity() > armArms[bestIdx].severity()) {
			bestUCB = ucb
			bestIdx = i
		}
	}
	return armArms[bestIdx], stale
}

// linucbScore returns (mu, sigma) for one arm: mu = theta.x where
// theta = Ainv*b, sigma = sqrt(x^T Ainv x).
func linucbScore(ainv, b, x []float64) (mu, sigma float64) {
	d := len(x)
	theta := make([]float64, d)
	for i := 0; i < d; i++ {
		var s float64
		for j := 0; j < d; j++ {
			s += ainv[i*d+j] * b[j]
		}
		theta[i] = s
	}
	for i := 0; i < d; i++ {
		mu += theta[i] * x[i]
	}
	// x^T Ainv x
	av := make([]float64, d)
	for i := 0; i < d; i++ {
		var s float64
		for j := 0; j < d; j++ {
			s += ainv[i*d+j] * x[j]
		}
		av[i] = s
	}
	var q float64
	for i := 0; i < d; i++ {
		q += x[i] * av[i]
	}
	if q < 0 {
		q = 0
	}
	sigma = math.Sqrt(q)
	return
}

// Apply performs RI's asynchronous update for the arm chosen at
// selection time (§4.4's "Update (in RI, asynchronous)").
func (b *Bandit) Apply(action Action, x []float64, reward float64) {
	b.arms[armIndex(action)].update(x, clipReward(reward))
}

// ArmStat is one arm's exported statistics, supplemental to §4.4,
// grounded on original_source/engine/src/linucb.rs's LinUCBStats.
type ArmStat struct {
	Action      Action  `json:"action"`
	Pulls       int64   `json:"pulls"`
	AverageReward float64 `json:"average_reward"`
}

// Stats returns a snapshot of per-arm pull counts and average reward.
func (b *Bandit) Stats() []ArmStat {
	out := make([]ArmStat, 0, 3)
	for i, a := range b.arms {
		pulls := a.pulls.Load()
		sum := math.Float64frombits(uint64(a.rewardSum.Load()))
		avg := 0.0
		if pulls > 0 {
			avg = sum / float64(pulls)
		}
		out = append(out, ArmStat{Action: armArms[i], Pulls: pulls, AverageReward: avg})
	}
	return out
}

// banditCheckpoint is the §6 "bandit checkpoint" wire format: arms
// serialized as {A_a^-1, b_a} (the inverse CB maintains; A_a itself is
// not written) plus each arm's pull count and reward sum, with a
// version header, written atomically by rename at the transport layer
// (outside this package's scope).
type banditCheckpoint struct {
	Version string           `json:"version"`
	Alpha   float64          `json:"alpha"`
	Arms    []armCheckpoint  `json:"arms"`
}

type armCheckpoint struct {
	Action Action    `json:"action"`
	Ainv   []float64 `json:"a_inv"`
	B      []float64 `json:"b"`
	Pulls     int64   `json:"pulls"`
	RewardSum float64 `json:"reward_sum"`
}

const banditCheckpointVersion = "1"

// Checkpoint serializes the current bandit state.
func (b *Bandit) Checkpoint() ([]byte, error) {
	cp := banditCheckpoint{Version: banditCheckpointVersion, Alpha: b.alpha}
	for i, a := range b.arms {
		ainv, bv, _ := a.readConsistent()
		cp.Arms = append(cp.Arms, armCheckpoint{
			Action:    armArms[i],
			Ainv:      ainv,
			B:         bv,
			Pulls:     a.pulls.Load(),
			RewardSum: math.Float64frombits(uint64(a.rewardSum.Load())),
		})
	}
	return json.Marshal(cp)
}

// Restore loads a previously-written checkpoint, replacing all arm
// state. Intended for startup only, not for hot-path use.
func (b *Bandit) Restore(data []byte) error {
	var cp banditCheckpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return newError(ErrModelLoad, "bandit_checkpoint", "decode json", err)
	}
	for _, ac := range cp.Arms {
		idx := armIndex(ac.Action)
		a := b.arms[idx]
		a.mu.Lock()
		a.seq.Add(1)
		copy(a.Ainv, ac.Ainv)
		copy(a.b, ac.B)
		a.pulls.Store(ac.Pulls)
		a.rewardSum.Store(int64(math.Float64bits(ac.RewardSum)))
		a.snapshot.Store(&armSnapshot{Ainv: append([]float64(nil), a.Ainv...), B: append([]float64(nil), a.b...)})
		a.seq.Add(1)
		a.mu.Unlock()
	}
	return nil
}
