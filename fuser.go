/*
File: fuser.go
Description: The Decision Fuser (DF, §4.5) — combines hard-intel,
             student score, and bandit arm into one Action, with the
             monotonicity guards that keep bandit exploration confined
             to the genuinely ambiguous probability band.
*/

package scorecore

// FusionInput is everything DF needs to produce an Action (§4.5).
type FusionInput struct {
	HardHit      HardIntelHit
	HasHardHit   bool
	StudentScore float64
	BanditArm    Action
	Reasons      *ReasonSet
}

// FusionResult is DF's output: the chosen action, the reported
// probability (always p_s, per step 4), and whether the decision
// falls in the uncertainty band (step 5).
type FusionResult struct {
	Action      Action
	Probability float64
	Uncertain   bool
}

// Fuse implements §4.5's five-step procedure.
func Fuse(in FusionInput, thresholds ThresholdConfig) FusionResult {
	p := in.StudentScore

	// Step 1: hard-intel short-circuit.
	if in.HasHardHit && in.HardHit.Verdict.IsSevere() {
		in.Reasons.Prepend("hard:" + string(in.HardHit.Source))
		prob := p
		if thresholds.BlockThreshold > prob {
			prob = thresholds.BlockThreshold
		}
		return FusionResult{Action: ActionBlock, Probability: prob, Uncertain: false}
	}

	// Step 2: soft-signal override.
	if p >= thresholds.BlockThreshold {
		return FusionResult{Action: ActionBlock, Probability: p, Uncertain: false}
	}

	// Step 3: bandit-governed region, with monotonicity guards.
	action := in.BanditArm
	if p < thresholds.WarnThreshold && action == ActionBlock {
		action = ActionWarn
	}
	if p >= thresholds.WarnThreshold && action == ActionAllow {
		action = ActionWarn
	}

	// Step 5: uncertainty band.
	uncertain := (p >= thresholds.WarnThreshold && p < thresholds.BlockThreshold) ||
		(in.HasHardHit && in.HardHit.Verdict == HardSuspiciousDynDNS)

	return FusionResult{Action: action, Probability: p, Uncertain: uncertain}
}
