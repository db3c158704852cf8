/*
File: pipeline.go
Description: The Engine — wires DC -> FX -> HIG -> SM -> CB -> DF ->
             DC-insert -> response, plus the UR/sink fan-out and the
             per-request soft deadline safety valve (§5). This is the
             one file that owns cross-component sequencing; every
             component above stays independently testable.
*/

package scorecore

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Engine is the inline scoring core: one per process, shared across
// all requests.
type Engine struct {
	registry *ModelRegistry
	hig      *HardIntelGate
	cache    *DecisionCache
	router   *UncertaintyRouter
	sink     Sink
	pending  *PendingContext
	reward   *RewardIngestor
	metrics  *Metrics
	cfg      Config
	logger   componentLoggerFunc
}

// EngineDeps bundles the collaborators an Engine is built from, so
// construction doesn't take a dozen positional arguments. Logger may be
// nil; it defaults to the package logger (logger.go).
type EngineDeps struct {
	Registry *ModelRegistry
	HIG      *HardIntelGate
	Cache    *DecisionCache
	Router   *UncertaintyRouter
	Sink     Sink
	Pending  *PendingContext
	Reward   *RewardIngestor
	Metrics  *Metrics
	Logger   *slog.Logger
}

// NewEngine assembles an Engine from its collaborators and a config.
func NewEngine(cfg Config, deps EngineDeps) *Engine {
	log := componentLogger(deps.Logger, "engine")
	return &Engine{
		registry: deps.Registry,
		hig:      deps.HIG,
		cache:    deps.Cache,
		router:   deps.Router,
		sink:     deps.Sink,
		pending:  deps.Pending,
		reward:   deps.Reward,
		metrics:  deps.Metrics,
		cfg:      cfg,
		logger:   func(msg string, args ...any) { LogWarn(log, msg, args...) },
	}
}

// Score runs the full pipeline for one request (§2's data flow).
func (e *Engine) Score(ctx context.Context, req Request) ScoreResponse {
	start := time.Now()
	deadline := start.Add(e.cfg.Deadline.Default)

	if err := ValidateRequest(req); err != nil {
		return e.invalidInputResponse(start)
	}

	key := Fingerprint(req.Domain, req.URL)

	if cached, ok := e.cache.Get(key, start); ok {
		e.recordMetricsForCacheHit()
		e.emitAnalytics(cached, true)
		resp := responseFromDecision(cached)
		resp.LatencyMS = elapsedMS(start)
		return resp
	}

	decision, err, _ := e.cache.Coalesce(key, func() (Decision, error) {
		return e.runPipeline(ctx, req, start, deadline)
	})
	if err != nil {
		// runPipeline never returns an error for a degraded decision;
		// this path exists only for defensive completeness.
		return e.invalidInputResponse(start)
	}

	resp := responseFromDecision(decision)
	resp.LatencyMS = elapsedMS(start)
	return resp
}

// runPipeline is the single-flight-coalesced body: FX -> HIG -> SM ->
// CB -> DF -> cache insert -> UR/sink fan-out.
func (e *Engine) runPipeline(ctx context.Context, req Request, start, deadline time.Time) (Decision, error) {
	decisionID := uuid.New()

	if time.Now().After(deadline) {
		return e.degradedDecision(decisionID, req, start, "pipeline"), nil
	}

	fv, reasons := ExtractFeatures(req.Domain, req.URL)
	if time.Now().After(deadline) {
		return e.degradedDecision(decisionID, req, start, "features"), nil
	}

	hit, hasHit := e.hig.Evaluate(req.Domain)
	if !e.hig.Loaded() {
		reasons.Add("intel_unavailable")
	}
	if time.Now().After(deadline) {
		return e.degradedDecision(decisionID, req, start, "hard_intel"), nil
	}

	student := e.registry.CurrentStudent()
	p := student.Score(fv)
	numericAnomaly := isNaN(p)
	if numericAnomaly {
		p = 0.5
		reasons.Add("numeric_anomaly")
	}
	if time.Now().After(deadline) {
		return e.degradedDecision(decisionID, req, start, "student"), nil
	}

	x := AugmentVector(fv, p)
	banditArm := ActionAllow
	skipBanditLearning := hasHit && hit.Verdict.IsSevere()
	if !skipBanditLearning {
		arm, _ := e.registry.Bandit().SelectArm(x)
		banditArm = arm
	}
	if time.Now().After(deadline) {
		return e.degradedDecision(decisionID, req, start, "bandit"), nil
	}

	result := Fuse(FusionInput{
		HardHit:      hit,
		HasHardHit:   hasHit,
		StudentScore: p,
		BanditArm:    banditArm,
		Reasons:      reasons,
	}, e.cfg.Thresholds)

	if numericAnomaly {
		// §7: a NaN inference result always reports WARN, overriding
		// whatever DF would otherwise have fused.
		result.Action = ActionWarn
	}

	decision := Decision{
		DecisionID:      decisionID,
		Timestamp:       start,
		Domain:          req.Domain,
		URL:             req.URL,
		Action:          result.Action,
		Probability:     result.Probability,
		Reasons:         reasons.Slice(),
		FeatureSnapshot: fv,
		HardHit:         hit.Verdict,
		StudentScore:    p,
		BanditArm:       banditArm,
		LatencyMS:       elapsedMS(start),
		CacheHit:        false,
	}

	if !skipBanditLearning {
		e.pending.Put(decisionID, banditArm, x, req.Domain)
	}

	e.cache.Add(Fingerprint(req.Domain, req.URL), decision, TTLFor(decision.Action, e.cfg.Cache), start)

	if result.Uncertain {
		e.router.Route(ctx, AnalyzerTask{
			DecisionID: decisionID.String(),
			Domain:     req.Domain,
			URL:        req.URL,
			Features:   fv,
			EnqueuedAt: time.Now(),
		})
	}

	e.emitAnalytics(decision, false)
	e.recordMetrics(decision)

	return decision, nil
}

// Feedback applies a RewardEvent synchronously (§6's feedback
// endpoint), returning accepted/duplicate/unknown per P5.
func (e *Engine) Feedback(ev RewardEvent) FeedbackResponse {
	ev.Reward = clipReward(ev.Reward)
	return e.reward.ApplyFeedback(ev)
}

func (e *Engine) degradedDecision(decisionID uuid.UUID, req Request, start time.Time, stage string) Decision {
	e.logger("engine: soft deadline exceeded, returning degraded decision", "domain", req.Domain, "stage", stage)
	return Decision{
		DecisionID:  decisionID,
		Timestamp:   start,
		Domain:      req.Domain,
		URL:         req.URL,
		Action:      ActionAllow,
		Probability: 0.0,
		Reasons:     []string{"timeout:" + stage},
		LatencyMS:   elapsedMS(start),
	}
}

func (e *Engine) invalidInputResponse(start time.Time) ScoreResponse {
	action := ActionAllow
	prob := 0.0
	if e.cfg.FailClosedOnInvalidInput {
		action = ActionBlock
		prob = 1.0
	}
	e.logger("engine: rejecting invalid input", "fail_closed", e.cfg.FailClosedOnInvalidInput)
	return ScoreResponse{
		Action:      action,
		Probability: prob,
		Reasons:     []string{"invalid_input"},
		DecisionID:  uuid.New().String(),
		LatencyMS:   elapsedMS(start),
	}
}

func (e *Engine) emitAnalytics(d Decision, cacheHit bool) {
	if e.sink == nil {
		return
	}
	e.sink.Record(AnalyticsRecord{Decision: d, CacheHit: cacheHit})
}

func (e *Engine) recordMetrics(d Decision) {
	if e.metrics == nil {
		return
	}
	e.metrics.ObserveLatency(d.LatencyMS)
	e.metrics.RecordCacheMiss()
	e.metrics.RecordAction(d.Action)
}

func (e *Engine) recordMetricsForCacheHit() {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordCacheHit()
}

func responseFromDecision(d Decision) ScoreResponse {
	return ScoreResponse{
		Action:      d.Action,
		Probability: d.Probability,
		Reasons:     d.Reasons,
		DecisionID:  d.DecisionID.String(),
	}
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

func isNaN(f float64) bool {
	return f != f
}
