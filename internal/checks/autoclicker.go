package checks

import (
	"sentinel/internal/history"
	"sentinel/internal/model"
	"sentinel/internal/playerctx"
)

// CombatAutoClickerParams configures CombatAutoClickerCheck.
type CombatAutoClickerParams struct {
	MinSamples             int
	MaxHitRate             float64
	MinAttackInterval      float64 // ms
	MaxIntervalConsistency float64 // MAD/mean ratio
}

func DefaultCombatAutoClickerParams() CombatAutoClickerParams {
	return CombatAutoClickerParams{
		MinSamples:             5,
		MaxHitRate:             0.85,
		MinAttackInterval:      100,
		MaxIntervalConsistency: 0.15,
	}
}

// CombatAutoClickerCheck detects inhuman click rate, cadence, and
// hit-rate patterns, including "look-away" hits that land without the
// attacker's aim tracking the target.
type CombatAutoClickerCheck struct {
	baseConfig
	params CombatAutoClickerParams
}

func NewCombatAutoClickerCheck(p CombatAutoClickerParams) *CombatAutoClickerCheck {
	return &CombatAutoClickerCheck{baseConfig: baseConfig{enabled: true, weight: 1.0}, params: p}
}

func (c *CombatAutoClickerCheck) Name() string     { return "combat_autoclicker" }
func (c *CombatAutoClickerCheck) Category() string { return "combat" }

func (c *CombatAutoClickerCheck) Configure(enabled bool, weight float64, p CombatAutoClickerParams) {
	c.enabled, c.weight, c.params = enabled, weight, p
}

func (c *CombatAutoClickerCheck) Analyze(in model.CombatInput, feat model.CombatFeatures, ctx *playerctx.CombatContext) model.CheckResult {
	if !c.enabled || ctx.Attacks.Size() < c.params.MinSamples {
		return model.Clean(c.Name())
	}

	score := 0.0
	explanation := map[string]string{}

	if recent := ctx.HitRateWindow.Mean(); ctx.HitRateWindow.Size() >= c.params.MinSamples && recent > c.params.MaxHitRate {
		excess := recent - c.params.MaxHitRate
		v := 2 * (excess / (1 - c.params.MaxHitRate))
		score += v
		explanation["recent_hit_rate"] = formatFloat(v)
	}

	if ctx.TotalAttacks >= int64(3*c.params.MinSamples) {
		totalHitRate := float64(ctx.TotalHits) / float64(ctx.TotalAttacks)
		if totalHitRate > 0.90 {
			v := 2 * (totalHitRate - 0.9)
			score += v
			explanation["sustained_hit_rate"] = formatFloat(v)
		}
	}

	intervals := ctx.AttackIntervalWindow.ToArray()
	meanInterval := history.Mean(intervals)
	if meanInterval > 0 {
		cps := 1000 / meanInterval
		if cps > 20 {
			v := 2.5 * (cps - 20) / 20
			score += v
			explanation["cps"] = formatFloat(v)
		}
	}

	if len(intervals) > 0 {
		minInterval := ctx.AttackIntervalWindow.Min()
		if minInterval < c.params.MinAttackInterval {
			v := (c.params.MinAttackInterval - minInterval) / c.params.MinAttackInterval
			score += v
			explanation["cooldown_violation"] = formatFloat(v)
		}

		mad := history.MAD(intervals)
		if meanInterval > 0 {
			ratio := mad / meanInterval
			if ratio < c.params.MaxIntervalConsistency {
				v := 1.5 * (1 - ratio/c.params.MaxIntervalConsistency)
				score += v
				explanation["interval_consistency"] = formatFloat(v)
			}
		}
	}

	aimError := feat.AimErrorDeg
	if in.Hit && aimError > 90 {
		v := 3 * (aimError - 90) / 90
		score += v
		explanation["look_away_hit"] = formatFloat(v)
	} else if in.Hit && aimError >= 45 && aimError <= 90 {
		v := 0.5 * (aimError - 45) / 45
		score += v
		explanation["edge_fov_hit"] = formatFloat(v)
	}

	if switches := recentTargetSwitches(ctx); switches >= 3 {
		v := 0.3 * float64(switches)
		score += v
		explanation["rapid_target_switching"] = formatFloat(v)
	}

	if ctx.TotalHits >= int64(c.params.MinSamples) {
		critRate := float64(ctx.TotalCriticals) / float64(ctx.TotalHits)
		if critRate > 0.7 {
			v := history.BoundConfidence(1.5 * (critRate - 0.5))
			score += v
			explanation["crit_over_rate"] = formatFloat(v)
		}
	}

	confidence := anomalyToConfidence(score, 1.8)
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

// recentTargetSwitches counts target switches among the last 5
// recorded attacks whose inter-attack gap is under 500ms.
func recentTargetSwitches(ctx *playerctx.CombatContext) int {
	n := ctx.Attacks.Size()
	if n > 5 {
		n = 5
	}
	switches := 0
	for age := 0; age < n-1; age++ {
		cur, ok1 := ctx.Attacks.Get(age)
		prev, ok2 := ctx.Attacks.Get(age + 1)
		if !ok1 || !ok2 {
			break
		}
		gapMs := float64(cur.NanoTime-prev.NanoTime) / 1e6
		if gapMs < 500 && !sameTarget(cur.TargetID, prev.TargetID) {
			switches++
		}
	}
	return switches
}

func sameTarget(a, b *model.PlayerID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
