package checks

import (
	"sentinel/internal/history"
	"sentinel/internal/model"
	"sentinel/internal/playerctx"
)

// CombatReachParams configures CombatReachCheck.
type CombatReachParams struct {
	MaxReach    float64
	ReachBuffer float64
	MinSamples  int
}

func DefaultCombatReachParams() CombatReachParams {
	return CombatReachParams{
		MaxReach:    3.0,
		ReachBuffer: 0.1,
		MinSamples:  5,
	}
}

// CombatReachCheck flags attacks landing beyond the game's vanilla
// reach envelope, adjusted for latency-induced position staleness.
type CombatReachCheck struct {
	baseConfig
	params CombatReachParams
}

func NewCombatReachCheck(p CombatReachParams) *CombatReachCheck {
	return &CombatReachCheck{baseConfig: baseConfig{enabled: true, weight: 1.0}, params: p}
}

func (c *CombatReachCheck) Name() string     { return "combat_reach" }
func (c *CombatReachCheck) Category() string { return "combat" }

func (c *CombatReachCheck) Configure(enabled bool, weight float64, p CombatReachParams) {
	c.enabled, c.weight, c.params = enabled, weight, p
}

func (c *CombatReachCheck) Analyze(in model.CombatInput, feat model.CombatFeatures, ctx *playerctx.CombatContext) model.CheckResult {
	if !c.enabled || !in.Hit {
		return model.Clean(c.Name())
	}

	pingComp := 0.001 * float64(in.Ping)
	adjustedMax := c.params.MaxReach + c.params.ReachBuffer + pingComp

	score := 0.0
	explanation := map[string]string{}

	reach := feat.Reach
	if reach > adjustedMax {
		excess := reach - adjustedMax
		v := 3 * (excess / adjustedMax)
		score += v
		explanation["reach_excess"] = formatFloat(v)
	}

	horizMax := 3.0 + pingComp + 0.5
	if feat.HorizReach > horizMax {
		excess := feat.HorizReach - horizMax
		v := 2 * (excess / 3.0)
		score += v
		explanation["horiz_reach_excess"] = formatFloat(v)
	}

	ctx.ReachWindow.Add(reach)
	if ctx.ReachWindow.Size() >= c.params.MinSamples {
		median := ctx.ReachWindow.Median()
		mad := ctx.ReachWindow.MAD()
		if median >= 2.7 && mad < 0.3 {
			v := 0.5 * (median - 2.5) / 0.5
			score += v
			explanation["sustained_edge_reach"] = formatFloat(v)
		}
		if max := ctx.ReachWindow.Max(); max > adjustedMax {
			v := max / adjustedMax
			score += v
			explanation["window_max_excess"] = formatFloat(v)
		}
	}

	absDeltaY := absf(feat.DeltaY)
	if absDeltaY > 2 && reach > 3.0 {
		v := 0.3 * (absDeltaY - 2) * (reach - 3)
		score += v
		explanation["vertical_abuse"] = formatFloat(v)
	}

	confidence := anomalyToConfidence(score, 2.0)
	if confidence < significanceThreshold {
		return model.Clean(c.Name())
	}

	return model.CheckResult{
		Check:       c.Name(),
		Confidence:  confidence,
		Severity:    history.BoundConfidence(confidence),
		Explanation: explanation,
	}
}
