// Package features turns a raw telemetry event plus a player's rolling
// history into the derived quantities the checks reason about. Extract
// is a pure function of its two arguments: it reads the player's
// history but never mutates it — the engine owns when history gets
// pushed.
package features

import (
	"math"

	"sentinel/internal/history"
	"sentinel/internal/model"
	"sentinel/internal/playerctx"
)

const (
	nominalTickMs    = 50.0
	pingTickFactor   = 0.02
	lagTickDeltaNs   = int64(200 * 1_000_000) // 200ms
	jitterMaxSamples = 10
	jitterMinSamples = 5
)

// Extract derives Features for a telemetry event given the player's
// pre-event history (the event itself has not yet been pushed).
func Extract(in model.TelemetryInput, ctx *playerctx.PlayerContext) model.Features {
	horizSpeed := math.Hypot(in.DX, in.DZ)
	vertSpeed := in.DY
	speed3D := math.Sqrt(in.DX*in.DX + in.DY*in.DY + in.DZ*in.DZ)

	var horizAccel, vertAccel float64
	if prev, ok := ctx.Features.Peek(); ok {
		horizAccel = horizSpeed - prev.HorizSpeed
		vertAccel = vertSpeed - prev.VertSpeed
	}

	rotationSpeed := math.Hypot(in.DeltaYaw, in.DeltaPitch)

	var yawAccel, pitchAccel float64
	if prevTelemetry, ok := ctx.Telemetry.Peek(); ok {
		yawAccel = in.DeltaYaw - prevTelemetry.DeltaYaw
		pitchAccel = in.DeltaPitch - prevTelemetry.DeltaPitch
	}

	jitter := jitterScore(horizSpeed, ctx.Features)

	medianPing := ctx.PingWindow.Median()
	nominalInterval := nominalTickMs + pingTickFactor*medianPing
	var timingSkew float64
	if ctx.PacketDeltaWindow.Size() > 0 {
		medianDelta := ctx.PacketDeltaWindow.Median()
		timingSkew = math.Abs(medianDelta-nominalInterval) / nominalInterval
	}

	var pingNormalized float64
	if ctx.PingEWMA.Initialized() {
		pingNormalized = ctx.PingEWMA.Get()
	} else {
		pingNormalized = float64(in.Ping)
	}

	pingMad := ctx.PingWindow.MAD()
	laggingPing := pingMad > 0 && float64(in.Ping) > medianPing+3*pingMad
	laggingTick := in.TickDelta > lagTickDeltaNs
	isLagging := laggingPing || laggingTick

	return model.Features{
		HorizSpeed:     horizSpeed,
		VertSpeed:      vertSpeed,
		Speed3D:        speed3D,
		HorizAccel:     horizAccel,
		VertAccel:      vertAccel,
		RotationSpeed:  rotationSpeed,
		YawAccel:       yawAccel,
		PitchAccel:     pitchAccel,
		JitterScore:    jitter,
		TimingSkew:     timingSkew,
		PingNormalized: pingNormalized,
		IsLagging:      isLagging,
		SampleCount:    ctx.Telemetry.Size(),
	}
}

// jitterScore computes the standard-deviation of consecutive
// horizontal-speed differences across the current sample and up to
// the newest 9 historical ones (10 samples total), returning 0 if
// fewer than 5 samples are available.
func jitterScore(currentHorizSpeed float64, featHist *history.RingBuffer[model.Features]) float64 {
	n := featHist.Size()
	count := n + 1
	if count > jitterMaxSamples {
		count = jitterMaxSamples
	}
	if count < jitterMinSamples {
		return 0
	}

	samples := make([]float64, count)
	samples[0] = currentHorizSpeed
	for i := 1; i < count; i++ {
		f, _ := featHist.Get(i - 1)
		samples[i] = f.HorizSpeed
	}

	diffs := make([]float64, count-1)
	for i := 0; i < count-1; i++ {
		diffs[i] = samples[i] - samples[i+1]
	}
	return history.StdDev(diffs)
}
