package checks

import (
	"sentinel/internal/history"
	"sentinel/internal/model"
	"sentinel/internal/playerctx"
)

// CombatAimbotParams configures CombatAimbotCheck.
type CombatAimbotParams struct {
	MinSamples       int
	MaxSnapAngle     float64 // degrees
	MinAimVariance   float64 // degrees
	MaxAimPerfection float64 // degrees
}

func DefaultCombatAimbotParams() CombatAimbotParams {
	return CombatAimbotParams{
		MinSamples:       5,
		MaxSnapAngle:     20,
		MinAimVariance:   1.0,
		MaxAimPerfection: 1.5,
	}
}

// CombatAimbotCheck detects snap-to-target aiming, suspiciously
// over-consistent aim, and impossible rotation speed.
type CombatAimbotCheck struct {
	baseConfig
	params CombatAimbotParams
}

func NewCombatAimbotCheck(p CombatAimbotParams) *CombatAimbotCheck {
	return &CombatAimbotCheck{baseConfig: baseConfig{enabled: true, weight: 1.0}, params: p}
}

func (c *CombatAimbotCheck) Name() string     { return "combat_aimbot" }
func (c *CombatAimbotCheck) Category() string { return "combat" }

func (c *CombatAimbotCheck) Configure(enabled bool, weight float64, p CombatAimbotParams) {
	c.enabled, c.weight, c.params = enabled, weight, p
}

func (c *CombatAimbotCheck) Analyze(in model.CombatInput, feat model.CombatFeatures, ctx *playerctx.CombatContext) model.CheckResult {
	if !c.enabled || ctx.AimErrorWindow.Size() < c.params.MinSamples {
		return model.Clean(c.Name())
	}

	score := 0.0
	explanation := map[string]string{}

	snap := feat.SnapAngleDeg
	aimError := feat.AimErrorDeg

	if snap > c.params.MaxSnapAngle && aimError < 2 {
		v := (snap / c.params.MaxSnapAngle) * (1 - aimError/2)
		score += v
		explanation["snap_to_target"] = formatFloat(v)
	}

	aimErrors := ctx.AimErrorWindow.ToArray()
	stdDev := history.StdDev(aimErrors)
	mean := history.Mean(aimErrors)
	if stdDev < c.params.MinAimVariance && mean < c.params.MaxAimPerfection {
		v := (1 - stdDev/c.params.MinAimVariance) * (1 - mean/c.params.MaxAimPerfection)
		score += v
		explanation["over_consistent_aim"] = formatFloat(v)
	}

	if len(aimErrors) >= 2*c.params.MinSamples {
		mad := history.MAD(aimErrors)
		if mad < 0.5 {
			v := 0.5 * (1 - mad/0.5)
			score += v
			explanation["robotic_precision"] = formatFloat(v)
		}
	}

	if in.TargetID != nil && ctx.LastTargetID != nil && *in.TargetID != *ctx.LastTargetID {
		if snap > 30 && aimError < 2 {
			v := (snap / 90) * 0.5
			score += v
			explanation["target_switch_snap"] = formatFloat(v)
		}
	}

	if in.TimeSinceLastAttackMs > 0 {
		degPerTick := (snap / float64(in.TimeSinceLastAttackMs)) * 50
		if degPerTick > 180 {
			excess := degPerTick - 180
			v := 0.3 * (excess / 180)
			score += v
			explanation["impossible_rotation"] = formatFloat(v)
		}
	}

	confidence := anomalyToConfidence(score, 1.5)
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
