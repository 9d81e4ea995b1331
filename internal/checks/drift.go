package checks

import (
	"math"

	"sentinel/internal/history"
	"sentinel/internal/model"
	"sentinel/internal/playerctx"
)

const gravityPerTick = 0.08

// PredictionDriftParams configures PredictionDriftCheck.
type PredictionDriftParams struct {
	MinDriftSamples   int
	MaxDriftThreshold float64
}

func DefaultPredictionDriftParams() PredictionDriftParams {
	return PredictionDriftParams{
		MinDriftSamples:   5,
		MaxDriftThreshold: 0.3,
	}
}

// PredictionDriftCheck flags sustained deviation from a simple
// linear-plus-gravity extrapolation of recent movement.
type PredictionDriftCheck struct {
	baseConfig
	params PredictionDriftParams
}

func NewPredictionDriftCheck(p PredictionDriftParams) *PredictionDriftCheck {
	return &PredictionDriftCheck{baseConfig: baseConfig{enabled: true, weight: 1.0}, params: p}
}

func (c *PredictionDriftCheck) Name() string     { return "prediction_drift" }
func (c *PredictionDriftCheck) Category() string { return "movement" }

func (c *PredictionDriftCheck) Configure(enabled bool, weight float64, p PredictionDriftParams) {
	c.enabled, c.weight, c.params = enabled, weight, p
}

func (c *PredictionDriftCheck) Analyze(in model.TelemetryInput, feat model.Features, ctx *playerctx.PlayerContext) model.CheckResult {
	minSamples := c.params.MinDriftSamples
	if !c.enabled || ctx.Telemetry.Size() < minSamples+2 || in.IsSpecialMovement() {
		return model.Clean(c.Name())
	}

	prior := ctx.Telemetry.ToArray() // oldest -> newest, excludes the current event
	n := len(prior)

	drift, ok := driftAt(in.DX, in.DY, in.DZ, prior[n-minSamples:])
	if !ok {
		return model.Clean(c.Name())
	}

	medianPing := ctx.PingWindow.Median()
	threshold := c.params.MaxDriftThreshold * (1 + medianPing/300)
	if drift <= threshold {
		return model.Clean(c.Name())
	}

	consecutive := 0
	for i := n - 1; i >= minSamples; i-- {
		priorDrift, ok := driftAt(prior[i].DX, prior[i].DY, prior[i].DZ, prior[i-minSamples:i])
		if !ok || priorDrift <= threshold/2 {
			break
		}
		consecutive++
	}

	if consecutive < minSamples {
		return model.Clean(c.Name())
	}

	score := (drift-threshold)/threshold + 0.2*float64(consecutive-minSamples)
	confidence := anomalyToConfidence(score, 2.0)
	if confidence < significanceThreshold {
		return model.Clean(c.Name())
	}

	return model.CheckResult{
		Check:      c.Name(),
		Confidence: confidence,
		Severity:   history.BoundConfidence(score / 2),
		Explanation: map[string]string{
			"drift":       formatFloat(drift),
			"threshold":   formatFloat(threshold),
			"consecutive": formatFloat(float64(consecutive)),
		},
	}
}

// driftAt predicts the motion at the indexed event from the average
// velocity of the samples preceding it and returns the 3D magnitude of
// the prediction error against the event's actual motion.
func driftAt(actualDX, actualDY, actualDZ float64, priorSamples []model.TelemetryInput) (float64, bool) {
	if len(priorSamples) == 0 {
		return 0, false
	}
	var sumDX, sumDY, sumDZ float64
	for _, s := range priorSamples {
		sumDX += s.DX
		sumDY += s.DY
		sumDZ += s.DZ
	}
	n := float64(len(priorSamples))
	avgDX, avgDY, avgDZ := sumDX/n, sumDY/n, sumDZ/n

	predDX, predDY, predDZ := avgDX, avgDY-gravityPerTick, avgDZ
	ddx := actualDX - predDX
	ddy := actualDY - predDY
	ddz := actualDZ - predDZ
	return math.Sqrt(ddx*ddx + ddy*ddy + ddz*ddz), true
}
