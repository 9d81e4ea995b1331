// Package engine orchestrates one event through the full detection
// pipeline: feature extraction, the check registry, the aggregator,
// the mitigation policy, and dispatch. It mirrors the teacher's
// Engine.ProcessAttack dispatch style — defensive guard clauses up
// front, a single linear procedure, side effects logged rather than
// propagated as errors.
package engine

import (
	"context"
	"sync"

	"sentinel/internal/aggregate"
	"sentinel/internal/analytics"
	"sentinel/internal/checks"
	"sentinel/internal/config"
	"sentinel/internal/dispatch"
	"sentinel/internal/errs"
	"sentinel/internal/features"
	"sentinel/internal/logging"
	"sentinel/internal/metrics"
	"sentinel/internal/mitigate"
	"sentinel/internal/model"
	"sentinel/internal/playerctx"
)

// Clock supplies the monotonic time the pipeline timestamps events with.
type Clock interface {
	NanoTime() int64
}

// WallClock supplies the wall-clock time the analytics uplink stamps
// records with, kept separate from the monotonic Clock used everywhere
// else in the pipeline.
type WallClock interface {
	UnixMilli() int64
}

// Engine wires every pipeline stage together and exposes the two
// ingest entry points the host game server calls per event.
type Engine struct {
	clock     Clock
	wallClock WallClock

	players *playerctx.Store[*playerctx.PlayerContext]
	combat  *playerctx.Store[*playerctx.CombatContext]

	regMu      sync.RWMutex
	registry   *checks.Registry
	aggregator *aggregate.Aggregator
	policy     *mitigate.Policy

	sink   dispatch.AlertSink
	punish dispatch.Punisher
	uplink *analytics.Uplink

	whitelist map[model.PlayerID]struct{}
}

// Status is the admin command surface's snapshot of engine health.
type Status struct {
	Running          bool
	TrackedPlayers   int
	EnabledChecks    int
	ActionConfidence float64
}

// Config bundles the collaborators an Engine needs. WallClock, Sink,
// Punisher, and Uplink may be nil (a nil Uplink disables analytics);
// every other field is required.
type Config struct {
	Clock      Clock
	WallClock  WallClock
	Players    *playerctx.Store[*playerctx.PlayerContext]
	Combat     *playerctx.Store[*playerctx.CombatContext]
	Registry   *checks.Registry
	Aggregator *aggregate.Aggregator
	Policy     *mitigate.Policy
	Sink       dispatch.AlertSink
	Punisher   dispatch.Punisher
	Uplink     *analytics.Uplink
}

// New constructs an Engine from its collaborators.
func New(cfg Config) *Engine {
	return &Engine{
		clock:      cfg.Clock,
		wallClock:  cfg.WallClock,
		players:    cfg.Players,
		combat:     cfg.Combat,
		registry:   cfg.Registry,
		aggregator: cfg.Aggregator,
		policy:     cfg.Policy,
		sink:       cfg.Sink,
		punish:     cfg.Punisher,
		uplink:     cfg.Uplink,
		whitelist:  make(map[model.PlayerID]struct{}),
	}
}

// currentRegistry returns the active check registry, safe to call
// concurrently with Reload swapping it out.
func (e *Engine) currentRegistry() *checks.Registry {
	e.regMu.RLock()
	defer e.regMu.RUnlock()
	return e.registry
}

// Reload rebuilds the check registry from cfg and reconfigures the
// aggregator and mitigation policy in place, without dropping any
// in-flight player state. Safe to call concurrently with the ingest path.
func (e *Engine) Reload(cfg config.EngineConfig) error {
	registry := cfg.Checks.BuildRegistry()

	e.regMu.Lock()
	e.registry = registry
	e.regMu.Unlock()

	e.aggregator.Configure(cfg.AggregatorParams())
	e.policy.Configure(cfg.MitigationParams())
	return nil
}

// Status reports a snapshot of engine health for the admin command surface.
func (e *Engine) Status() Status {
	return Status{
		Running:          true,
		TrackedPlayers:   e.players.Len(),
		EnabledChecks:    e.currentRegistry().EnabledCount(),
		ActionConfidence: e.aggregator.Params().ActionConfidence,
	}
}

// Exempt adds a player id to the mitigation policy's whitelist, exempting
// every future violation from dispatch without affecting ingest.
func (e *Engine) Exempt(id model.PlayerID) {
	e.policy.Whitelist(id)
}

// Unexempt removes a player id from the mitigation policy's whitelist.
func (e *Engine) Unexempt(id model.PlayerID) {
	e.policy.Unwhitelist(id)
}

// Whitelist marks a player id as exempt from ingest entirely — the
// engine's own early-reject, distinct from the mitigation policy's
// whitelist gate which only short-circuits after a violation forms.
func (e *Engine) Whitelist(id model.PlayerID) {
	e.whitelist[id] = struct{}{}
}

func (e *Engine) isWhitelisted(id model.PlayerID) bool {
	_, ok := e.whitelist[id]
	return ok
}

// IngestTelemetry runs one movement event through the full pipeline.
func (e *Engine) IngestTelemetry(in model.TelemetryInput) {
	if e.isWhitelisted(in.PlayerID) {
		return
	}

	ctx := e.players.GetOrCreate(in.PlayerID, in.Name)
	metrics.UpdateTrackedPlayers(e.players.Len())

	feat := features.Extract(in, ctx)

	if feat.IsLagging {
		e.policy.MarkLagExempt(ctx, e.clock.NanoTime())
		e.pushTelemetryHistory(in, feat, ctx)
		return
	}

	results := e.currentRegistry().RunMovement(in, feat, ctx)
	e.pushTelemetryHistory(in, feat, ctx)

	e.finish(in.PlayerID, in.Name, results, ctx, in.NanoTime, in.Ping)
}

// pushTelemetryHistory appends the event to history after extraction
// and check execution, so both only ever see prior events.
func (e *Engine) pushTelemetryHistory(in model.TelemetryInput, feat model.Features, ctx *playerctx.PlayerContext) {
	ctx.Telemetry.Push(in)
	ctx.Features.Push(feat)
	ctx.PingWindow.Add(float64(in.Ping))
	if in.TickDelta > 0 {
		ctx.PacketDeltaWindow.Add(float64(in.TickDelta) / 1e6)
	}
	ctx.PingEWMA.Update(float64(in.Ping))
	ctx.HorizSpeedEWMA.Update(feat.HorizSpeed)
	ctx.HorizAccelEWMA.Update(feat.HorizAccel)
	ctx.LastTelemetryNanos = in.NanoTime
}

// IngestCombat runs one attack event through the full pipeline.
func (e *Engine) IngestCombat(in model.CombatInput) {
	if e.isWhitelisted(in.PlayerID) {
		return
	}

	playerCtx := e.players.GetOrCreate(in.PlayerID, in.Name)
	combatCtx := e.combat.GetOrCreate(in.PlayerID, in.Name)
	metrics.UpdateTrackedPlayers(e.players.Len())

	feat := features.ExtractCombat(in, combatCtx)
	results := e.currentRegistry().RunCombat(in, feat, combatCtx)
	e.pushCombatHistory(in, feat, combatCtx)

	e.finish(in.PlayerID, in.Name, results, playerCtx, in.NanoTime, in.Ping)
}

func (e *Engine) pushCombatHistory(in model.CombatInput, feat model.CombatFeatures, ctx *playerctx.CombatContext) {
	ctx.Attacks.Push(in)
	ctx.AimErrorWindow.Add(feat.AimErrorDeg)
	ctx.SnapAngleWindow.Add(feat.SnapAngleDeg)
	ctx.AimErrorEWMA.Update(feat.AimErrorDeg)
	if in.TimeSinceLastAttackMs > 0 {
		ctx.AttackIntervalWindow.Add(float64(in.TimeSinceLastAttackMs))
	}

	hitValue := 0.0
	if in.Hit {
		hitValue = 1.0
		ctx.TotalHits++
	}
	ctx.HitRateWindow.Add(hitValue)
	ctx.TotalAttacks++
	if in.Critical {
		ctx.TotalCriticals++
	}

	if in.TargetID != nil {
		if ctx.LastTargetID != nil && *ctx.LastTargetID == *in.TargetID {
			ctx.ConsecutiveTargetHits++
		} else {
			ctx.ConsecutiveTargetHits = 1
		}
		id := *in.TargetID
		ctx.LastTargetID = &id
	}
}

// finish runs the aggregator and, on a violation, the mitigation
// policy and dispatch — shared by both ingest entry points.
func (e *Engine) finish(id model.PlayerID, name string, results []model.CheckResult, ctx *playerctx.PlayerContext, nanoTime, ping int64) {
	violation, ok := e.aggregator.Fuse(id, name, results, nanoTime, ping)
	if !ok {
		return
	}
	metrics.RecordViolation(violation.Category)

	decision := e.policy.Evaluate(violation, ctx, e.clock.NanoTime())
	e.dispatchDecision(decision)
}

func (e *Engine) dispatchDecision(d model.Decision) {
	metrics.RecordDecision(d.Action.String())
	if d.Action == model.DecisionNone {
		return
	}

	if e.sink != nil {
		e.sink.Alert(d)
	}

	if e.uplink != nil && d.Violation != nil {
		wallMs := int64(0)
		if e.wallClock != nil {
			wallMs = e.wallClock.UnixMilli()
		}
		e.uplink.Offer(analytics.NewRecord(*d.Violation, wallMs))
	}

	if d.Action == model.DecisionPunish && e.punish != nil {
		go func() {
			if err := e.punish.Punish(context.Background(), d); err != nil {
				logging.DispatchFailure("punisher", errs.NewDispatchError("punisher", err))
			}
		}()
	}
}
