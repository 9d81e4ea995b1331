package checks

import (
	"sentinel/internal/history"
	"sentinel/internal/model"
	"sentinel/internal/playerctx"
)

// PacketTimingParams configures PacketTimingCheck. Defaults follow the
// specification where it names one, and a conservative value where it
// only names the signal's shape (see the grounding ledger).
type PacketTimingParams struct {
	MinWindowSize  int
	MinDeltaMs     float64
	BurstThreshold float64 // fraction of deltas below MinDeltaMs that counts as a burst
	MaxJitterCoeff float64
	PingSkewFactor float64
}

// DefaultPacketTimingParams returns the check's default thresholds.
func DefaultPacketTimingParams() PacketTimingParams {
	return PacketTimingParams{
		MinWindowSize:  5,
		MinDeltaMs:     5.0,
		BurstThreshold: 0.3,
		MaxJitterCoeff: 3.0,
		PingSkewFactor: 0.05,
	}
}

// PacketTimingCheck detects timer manipulation, packet bursts, or
// machine-perfect packet cadence.
type PacketTimingCheck struct {
	baseConfig
	params PacketTimingParams
}

// NewPacketTimingCheck constructs an enabled check with the given params.
func NewPacketTimingCheck(p PacketTimingParams) *PacketTimingCheck {
	return &PacketTimingCheck{baseConfig: baseConfig{enabled: true, weight: 1.0}, params: p}
}

func (c *PacketTimingCheck) Name() string     { return "packet_timing" }
func (c *PacketTimingCheck) Category() string { return "timing" }

// Configure replaces the check's enablement, weight, and parameters.
func (c *PacketTimingCheck) Configure(enabled bool, weight float64, p PacketTimingParams) {
	c.enabled, c.weight, c.params = enabled, weight, p
}

func (c *PacketTimingCheck) Analyze(in model.TelemetryInput, feat model.Features, ctx *playerctx.PlayerContext) model.CheckResult {
	if !c.enabled || in.IsSpecialMovement() {
		return model.Clean(c.Name())
	}

	deltas := ctx.PacketDeltaWindow.ToArray()
	if len(deltas) < c.params.MinWindowSize {
		return model.Clean(c.Name())
	}

	score := 0.0
	explanation := map[string]string{}

	burstRatio := fractionBelow(deltas, c.params.MinDeltaMs)
	if burstRatio > c.params.BurstThreshold {
		score += 2 * burstRatio
		explanation["burst_ratio"] = formatFloat(burstRatio)
	}

	mad := history.MAD(deltas)
	if mad < 1.0 && len(deltas) >= 10 {
		score += 1 - mad
		explanation["mad"] = formatFloat(mad)
	}

	mean := history.Mean(deltas)
	stdDev := history.StdDev(deltas)
	if mean > 0 {
		ratio := stdDev / mean
		if ratio > c.params.MaxJitterCoeff {
			excess := (ratio - c.params.MaxJitterCoeff) / c.params.MaxJitterCoeff
			score += excess
			explanation["jitter_excess"] = formatFloat(excess)
		}
	}

	medianPing := ctx.PingWindow.Median()
	nominal := 50.0 + c.params.PingSkewFactor*medianPing
	medianDelta := history.Median(deltas)
	skew := absf(medianDelta-nominal) / nominal
	if skew > 0.5 {
		score += skew
		explanation["skew"] = formatFloat(skew)
	}

	confidence := anomalyToConfidence(score, 2.0)
	if confidence < significanceThreshold {
		return model.Clean(c.Name())
	}
	severity := history.BoundConfidence(score / 3)

	return model.CheckResult{
		Check:       c.Name(),
		Confidence:  confidence,
		Severity:    severity,
		Explanation: explanation,
	}
}

func fractionBelow(xs []float64, threshold float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	n := 0
	for _, x := range xs {
		if x < threshold {
			n++
		}
	}
	return float64(n) / float64(len(xs))
}
