// Package checks implements the six heuristic detectors: three
// movement-side (timing, movement consistency, prediction drift) and
// three combat-side (aimbot, reach, autoclicker). Every check is a
// stateless analyzer over its input plus a player's rolling history —
// state lives in playerctx, not in the check itself, so a single
// instance is safe to share across every player's ingest goroutine.
package checks

import (
	"fmt"
	"time"

	"sentinel/internal/logging"
	"sentinel/internal/metrics"
	"sentinel/internal/model"
	"sentinel/internal/playerctx"
)

// Check is the shape every detector exposes to the registry and the
// admin status surface, independent of whether it analyzes movement
// or combat events.
type Check interface {
	Name() string
	Category() string
	IsEnabled() bool
	Weight() float64
}

// MovementCheck analyzes telemetry-derived features.
type MovementCheck interface {
	Check
	Analyze(in model.TelemetryInput, feat model.Features, ctx *playerctx.PlayerContext) model.CheckResult
}

// CombatCheck analyzes attack-derived features.
type CombatCheck interface {
	Check
	Analyze(in model.CombatInput, feat model.CombatFeatures, ctx *playerctx.CombatContext) model.CheckResult
}

// Registry holds the configured set of movement and combat checks the
// engine runs per event. Order is preserved from registration, which
// keeps the admin status listing stable.
type Registry struct {
	Movement []MovementCheck
	Combat   []CombatCheck
}

// NewRegistry builds a registry from explicit check sets, letting the
// caller omit or reorder checks freely.
func NewRegistry(movement []MovementCheck, combat []CombatCheck) *Registry {
	return &Registry{Movement: movement, Combat: combat}
}

// DefaultRegistry builds the registry with all six checks at their
// default configuration.
func DefaultRegistry() *Registry {
	return NewRegistry(
		[]MovementCheck{
			NewPacketTimingCheck(DefaultPacketTimingParams()),
			NewMovementConsistencyCheck(DefaultMovementConsistencyParams()),
			NewPredictionDriftCheck(DefaultPredictionDriftParams()),
		},
		[]CombatCheck{
			NewCombatAimbotCheck(DefaultCombatAimbotParams()),
			NewCombatReachCheck(DefaultCombatReachParams()),
			NewCombatAutoClickerCheck(DefaultCombatAutoClickerParams()),
		},
	)
}

// EnabledCount reports how many checks (of either kind) are currently enabled.
func (r *Registry) EnabledCount() int {
	n := 0
	for _, c := range r.Movement {
		if c.IsEnabled() {
			n++
		}
	}
	for _, c := range r.Combat {
		if c.IsEnabled() {
			n++
		}
	}
	return n
}

// RunMovement executes every enabled movement check and collects
// results, skipping disabled checks without producing a clean result
// for them (the aggregator only ever sees checks that actually ran).
func (r *Registry) RunMovement(in model.TelemetryInput, feat model.Features, ctx *playerctx.PlayerContext) []model.CheckResult {
	results := make([]model.CheckResult, 0, len(r.Movement))
	for _, c := range r.Movement {
		if !c.IsEnabled() {
			continue
		}
		results = append(results, runMovementInstrumented(c, in, feat, ctx))
	}
	return results
}

// RunCombat executes every enabled combat check and collects results.
func (r *Registry) RunCombat(in model.CombatInput, feat model.CombatFeatures, ctx *playerctx.CombatContext) []model.CheckResult {
	results := make([]model.CheckResult, 0, len(r.Combat))
	for _, c := range r.Combat {
		if !c.IsEnabled() {
			continue
		}
		results = append(results, runCombatInstrumented(c, in, feat, ctx))
	}
	return results
}

// runMovementInstrumented wraps safeAnalyzeMovement with the per-check
// invocation, duration, and outcome metrics every check run publishes.
func runMovementInstrumented(c MovementCheck, in model.TelemetryInput, feat model.Features, ctx *playerctx.PlayerContext) model.CheckResult {
	metrics.RecordCheckInvocation(c.Name())
	start := time.Now()
	res := safeAnalyzeMovement(c, in, feat, ctx)
	metrics.RecordCheckDuration(c.Name(), time.Since(start))
	metrics.RecordCheckOutcome(c.Name(), res.Significant(significanceThreshold))
	return res
}

func runCombatInstrumented(c CombatCheck, in model.CombatInput, feat model.CombatFeatures, ctx *playerctx.CombatContext) model.CheckResult {
	metrics.RecordCheckInvocation(c.Name())
	start := time.Now()
	res := safeAnalyzeCombat(c, in, feat, ctx)
	metrics.RecordCheckDuration(c.Name(), time.Since(start))
	metrics.RecordCheckOutcome(c.Name(), res.Significant(significanceThreshold))
	return res
}

// safeAnalyzeMovement recovers from a panicking check, treating it as
// a missing (clean) result rather than failing the whole event.
func safeAnalyzeMovement(c MovementCheck, in model.TelemetryInput, feat model.Features, ctx *playerctx.PlayerContext) (res model.CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			logging.CheckFailure(c.Name(), in.Name, fmt.Errorf("panic: %v", r))
			res = model.Clean(c.Name())
		}
	}()
	return c.Analyze(in, feat, ctx)
}

func safeAnalyzeCombat(c CombatCheck, in model.CombatInput, feat model.CombatFeatures, ctx *playerctx.CombatContext) (res model.CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			logging.CheckFailure(c.Name(), in.Name, fmt.Errorf("panic: %v", r))
			res = model.Clean(c.Name())
		}
	}()
	return c.Analyze(in, feat, ctx)
}
