package checks

import (
	"sentinel/internal/history"
	"sentinel/internal/model"
	"sentinel/internal/playerctx"
)

// MovementConsistencyParams configures MovementConsistencyCheck.
type MovementConsistencyParams struct {
	MaxHoriz        float64 // world units/tick
	MaxVert         float64
	AccelTolerance  float64
}

// DefaultMovementConsistencyParams returns coarse vanilla-survival
// envelopes: sprint-jump horizontal speed and elytra-free vertical
// speed, each with headroom for packet jitter.
func DefaultMovementConsistencyParams() MovementConsistencyParams {
	return MovementConsistencyParams{
		MaxHoriz:       0.42,
		MaxVert:        0.05,
		AccelTolerance: 0.6,
	}
}

// MovementConsistencyCheck detects speed and fly hacks using coarse
// physics envelopes scaled by the player's observed ping.
type MovementConsistencyCheck struct {
	baseConfig
	params MovementConsistencyParams
}

func NewMovementConsistencyCheck(p MovementConsistencyParams) *MovementConsistencyCheck {
	return &MovementConsistencyCheck{baseConfig: baseConfig{enabled: true, weight: 1.0}, params: p}
}

func (c *MovementConsistencyCheck) Name() string     { return "movement_consistency" }
func (c *MovementConsistencyCheck) Category() string { return "movement" }

func (c *MovementConsistencyCheck) Configure(enabled bool, weight float64, p MovementConsistencyParams) {
	c.enabled, c.weight, c.params = enabled, weight, p
}

func (c *MovementConsistencyCheck) Analyze(in model.TelemetryInput, feat model.Features, ctx *playerctx.PlayerContext) model.CheckResult {
	if !c.enabled || ctx.Features.Size() < 2 || in.IsSpecialMovement() {
		return model.Clean(c.Name())
	}

	medianPing := ctx.PingWindow.Median()
	p := 1 + medianPing/500

	maxHoriz := c.params.MaxHoriz * p
	maxVert := c.params.MaxVert * p
	if in.DY < 0 {
		maxVert *= 2
	}

	score := 0.0
	explanation := map[string]string{}

	if feat.HorizSpeed > maxHoriz {
		ratio := (feat.HorizSpeed - maxHoriz) / maxHoriz
		score += ratio
		explanation["horiz_excess"] = formatFloat(ratio)
	}

	vertSpeed := absf(feat.VertSpeed)
	if vertSpeed > maxVert {
		ratio := (vertSpeed - maxVert) / maxVert
		score += ratio
		explanation["vert_excess"] = formatFloat(ratio)
	}

	accelLimit := c.params.MaxHoriz * c.params.AccelTolerance * p
	horizAccelAbs := absf(feat.HorizAccel)
	if horizAccelAbs > accelLimit {
		ratio := (horizAccelAbs - accelLimit) / accelLimit
		score += ratio / 2
		explanation["accel_excess"] = formatFloat(ratio / 2)
	}

	if in.OnGround && in.DY > 0.1 {
		score += 0.5
		explanation["ground_anomaly"] = "true"
	}

	if prev, ok := ctx.Features.Peek(); ok {
		if prev.HorizSpeed > 0.2 && feat.HorizSpeed > 0.2 && horizAccelAbs > 2*prev.HorizSpeed {
			score += 0.3
			explanation["sudden_reversal"] = "true"
		}
	}

	confidence := anomalyToConfidence(score, 1.5)
	if confidence < significanceThreshold {
		return model.Clean(c.Name())
	}

	return model.CheckResult{
		Check:       c.Name(),
		Confidence:  confidence,
		Severity:    history.BoundConfidence(score / 2),
		Explanation: explanation,
	}
}
