/*
File: types.go
Description: Shared data model for the inline scoring core — requests,
             decisions, and the records that flow between components.
*/

package scorecore

import (
	"time"

	"github.com/google/uuid"
)

// Action is the disposition returned for a scored request.
type Action string

const (
	ActionAllow Action = "ALLOW"
	ActionWarn  Action = "WARN"
	ActionBlock Action = "BLOCK"
)

// severity orders actions from least to most conservative, used by the
// bandit's tie-break rule (BLOCK > WARN > ALLOW) and by DF's monotonicity
// guards.
func (a Action) severity() int {
	switch a {
	case ActionBlock:
		return 2
	case ActionWarn:
		return 1
	default:
		return 0
	}
}

// Request is the inbound scoring request. Immutable once constructed.
type Request struct {
	Domain    string
	URL       string
	ClientTag string
}

// FeatureNames is the stable, ordered feature schema shared with the
// serialized student model. Order matters: SM's loader verifies the
// student file declares this exact order (I3).
var FeatureNames = []string{
	"length",
	"label_count",
	"digit_ratio",
	"hyphen_count",
	"shannon_entropy",
	"vowel_ratio",
	"max_label_length",
	"has_punycode",
	"idn_homoglyph_score",
	"typosquat_distance",
	"dga_ngram_score",
	"tld_risk",
	"url_path_depth",
	"url_has_login_kw",
	"url_query_len",
}

// FeatureCount is len(FeatureNames), exported for callers sizing buffers.
const FeatureCount = 15

// FeatureVector is the fixed-shape numeric output of FX. Index i
// corresponds to FeatureNames[i].
type FeatureVector [FeatureCount]float64

// Slice returns the vector as a plain slice for math helpers that want
// to append the student probability (CB's augmented context).
func (fv FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureCount)
	copy(out, fv[:])
	return out
}

// HardVerdict is the outcome of a Hard-Intel Gate lookup.
type HardVerdict int

const (
	HardClean HardVerdict = iota
	HardSuspiciousDynDNS
	HardCryptojack
	HardSpamDrop
	HardBotnet
	HardPhishing
	HardMalware
)

// severity order, most severe last; mirrors the priority list in §4.2.
var hardVerdictOrder = map[HardVerdict]int{
	HardClean:            0,
	HardSuspiciousDynDNS: 1,
	HardCryptojack:       2,
	HardSpamDrop:         3,
	HardBotnet:           4,
	HardPhishing:         5,
	HardMalware:          6,
}

func (h HardVerdict) moreSevereThan(other HardVerdict) bool {
	return hardVerdictOrder[h] > hardVerdictOrder[other]
}

// IsSevere reports whether the verdict is one of the categories that
// short-circuits DF straight to BLOCK (§4.5 step 1).
func (h HardVerdict) IsSevere() bool {
	switch h {
	case HardMalware, HardPhishing, HardBotnet, HardSpamDrop, HardCryptojack:
		return true
	default:
		return false
	}
}

func (h HardVerdict) String() string {
	switch h {
	case HardMalware:
		return "malware"
	case HardPhishing:
		return "phishing"
	case HardBotnet:
		return "botnet"
	case HardSpamDrop:
		return "spam_drop"
	case HardCryptojack:
		return "cryptojack"
	case HardSuspiciousDynDNS:
		return "suspicious_dyndns"
	default:
		return "clean"
	}
}

// HardIntelHit carries the verdict plus the feed source tag used to
// build the "hard:<source>" reason.
type HardIntelHit struct {
	Verdict HardVerdict
	Source  FeedSource
}

// ReasonSet is an ordered, deduplicated set of short symbolic tags.
type ReasonSet struct {
	seen  map[string]struct{}
	items []string
}

func NewReasonSet() *ReasonSet {
	return &ReasonSet{seen: make(map[string]struct{})}
}

// Add appends tag if not already present, preserving insertion order.
func (r *ReasonSet) Add(tag string) {
	if _, ok := r.seen[tag]; ok {
		return
	}
	r.seen[tag] = struct{}{}
	r.items = append(r.items, tag)
}

// Prepend inserts tag at the front, deduplicating.
func (r *ReasonSet) Prepend(tag string) {
	if _, ok := r.seen[tag]; ok {
		return
	}
	r.seen[tag] = struct{}{}
	r.items = append([]string{tag}, r.items...)
}

func (r *ReasonSet) Slice() []string {
	if r == nil || len(r.items) == 0 {
		return nil
	}
	out := make([]string, len(r.items))
	copy(out, r.items)
	return out
}

// Decision is the immutable result of one pipeline execution.
type Decision struct {
	DecisionID      uuid.UUID
	Timestamp       time.Time
	Domain          string
	URL             string
	Action          Action
	Probability     float64
	Reasons         []string
	FeatureSnapshot FeatureVector
	HardHit         HardVerdict
	StudentScore    float64
	BanditArm       Action
	LatencyMS       float64
	CacheHit        bool
}

// RewardSource identifies how a reward was observed.
type RewardSource string

const (
	RewardExplicit  RewardSource = "explicit"
	RewardImplicit  RewardSource = "implicit"
	RewardAutomated RewardSource = "automated"
)

// RewardEvent is inbound feedback tying a prior decision to an observed
// outcome.
type RewardEvent struct {
	DecisionID uuid.UUID
	Reward     float64
	Source     RewardSource
}

// ScoreResponse is the wire-shape response described in §6.
type ScoreResponse struct {
	Action      Action   `json:"action"`
	Probability float64  `json:"probability"`
	Reasons     []string `json:"reasons"`
	DecisionID  string   `json:"decision_id"`
	LatencyMS   float64  `json:"latency_ms"`
}

// FeedbackResponse is the wire-shape response to a feedback request.
type FeedbackResponse struct {
	Accepted bool   `json:"accepted"`
	Error    string `json:"error,omitempty"`
}

// clipReward bounds a reward to [-1, 1] per §4.4.
func clipReward(r float64) float64 {
	if r > 1 {
		return 1
	}
	if r < -1 {
		return -1
	}
	return r
}
