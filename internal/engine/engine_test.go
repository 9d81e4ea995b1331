package engine

import (
	"testing"

	"github.com/google/uuid"

	"sentinel/internal/aggregate"
	"sentinel/internal/checks"
	"sentinel/internal/clock"
	"sentinel/internal/mitigate"
	"sentinel/internal/model"
	"sentinel/internal/playerctx"
)

type captureSink struct {
	decisions []model.Decision
}

func (c *captureSink) Alert(d model.Decision) {
	c.decisions = append(c.decisions, d)
}

func (c *captureSink) last() (model.Decision, bool) {
	if len(c.decisions) == 0 {
		return model.Decision{}, false
	}
	return c.decisions[len(c.decisions)-1], true
}

func newTestEngine() (*Engine, *captureSink, *clock.MockClock) {
	mc := clock.NewMockClock(0)
	players := playerctx.NewPlayerStore(playerctx.DefaultConfig())
	combat := playerctx.NewCombatStore(playerctx.DefaultConfig())
	sink := &captureSink{}
	e := New(Config{
		Clock:      mc,
		Players:    players,
		Combat:     combat,
		Registry:   checks.DefaultRegistry(),
		Aggregator: aggregate.NewAggregator(aggregate.DefaultParams()),
		Policy:     mitigate.NewPolicy(mitigate.DefaultParams(), nil),
		Sink:       sink,
	})
	return e, sink, mc
}

const tick50ms = int64(50_000_000)

func TestScenarioS1StationaryStandingNeverAlerts(t *testing.T) {
	e, sink, mc := newTestEngine()
	id := uuid.New()

	for i := 0; i < 40; i++ {
		mc.Advance(50_000_000)
		e.IngestTelemetry(model.TelemetryInput{
			PlayerID: id, Name: "steve", OnGround: true,
			Ping: 20, NanoTime: mc.NanoTime(), TickDelta: tick50ms,
		})
	}

	if len(sink.decisions) != 0 {
		t.Fatalf("stationary standing should never produce a decision, got %d", len(sink.decisions))
	}
}

func TestScenarioS3SingleSpeedBurstDoesNotAlert(t *testing.T) {
	e, sink, mc := newTestEngine()
	id := uuid.New()

	for i := 0; i < 30; i++ {
		mc.Advance(50_000_000)
		e.IngestTelemetry(model.TelemetryInput{
			PlayerID: id, Name: "steve", DX: 0.28,
			Ping: 20, NanoTime: mc.NanoTime(), TickDelta: tick50ms,
		})
	}

	mc.Advance(50_000_000)
	e.IngestTelemetry(model.TelemetryInput{
		PlayerID: id, Name: "steve", DX: 1.5,
		Ping: 20, NanoTime: mc.NanoTime(), TickDelta: tick50ms,
	})

	if len(sink.decisions) != 0 {
		t.Fatal("a single speed-burst event should not clear the action-confidence gate")
	}
}

func TestScenarioS4SustainedFlyAlerts(t *testing.T) {
	e, sink, mc := newTestEngine()
	id := uuid.New()

	for i := 0; i < 20; i++ {
		mc.Advance(50_000_000)
		e.IngestTelemetry(model.TelemetryInput{
			PlayerID: id, Name: "steve", DY: 0.6, OnGround: false,
			Ping: 20, NanoTime: mc.NanoTime(), TickDelta: tick50ms,
		})
	}

	d, ok := sink.last()
	if !ok {
		t.Fatal("sustained high vertical speed should eventually produce a decision")
	}
	if d.Action != model.DecisionAlert && d.Action != model.DecisionPunish {
		t.Fatalf("expected ALERT or PUNISH for sustained fly, got %v", d.Action)
	}
}

func TestScenarioS6TeleportGraceSuppressesAlert(t *testing.T) {
	e, sink, mc := newTestEngine()
	id := uuid.New()
	ctx := e.players.GetOrCreate(id, "steve")
	ctx.Teleporting = true

	mc.Advance(50_000_000)
	e.IngestTelemetry(model.TelemetryInput{
		PlayerID: id, Name: "steve", DX: 50,
		Ping: 20, NanoTime: mc.NanoTime(), TickDelta: tick50ms,
	})

	if len(sink.decisions) != 0 {
		t.Fatal("a teleporting player's telemetry jump should never alert")
	}
}

func TestScenarioS7CooldownSuppressesRepeatAlerts(t *testing.T) {
	e, sink, mc := newTestEngine()
	id := uuid.New()

	fly := func() {
		mc.Advance(50_000_000)
		e.IngestTelemetry(model.TelemetryInput{
			PlayerID: id, Name: "steve", DY: 0.6, OnGround: false,
			Ping: 20, NanoTime: mc.NanoTime(), TickDelta: tick50ms,
		})
	}

	for i := 0; i < 20; i++ {
		fly()
	}
	firstCount := len(sink.decisions)
	if firstCount == 0 {
		t.Fatal("expected the first sustained burst to alert")
	}

	// 500ms later: still well inside the 1500ms cooldown.
	mc.Advance(500_000_000)
	fly()
	if len(sink.decisions) != firstCount {
		t.Fatal("a repeat violation inside the cooldown window should not alert again")
	}

	// Advance well past the cooldown and try again.
	mc.Advance(1_600_000_000)
	fly()
	if len(sink.decisions) <= firstCount {
		t.Fatal("a violation after the cooldown expires should alert again")
	}
}

func TestScenarioS8LagSpikeSkipsChecks(t *testing.T) {
	e, sink, mc := newTestEngine()
	id := uuid.New()

	mc.Advance(50_000_000)
	e.IngestTelemetry(model.TelemetryInput{
		PlayerID: id, Name: "steve", DX: 1000, // would otherwise be an obvious speed hack
		Ping: 20, NanoTime: mc.NanoTime(), TickDelta: 300_000_000, // 300ms, over the lag threshold
	})

	if len(sink.decisions) != 0 {
		t.Fatal("a lagging event should mark lag-exempt and skip checks entirely, never alerting")
	}

	ctx, _ := e.players.Get(id)
	if ctx.ExemptUntilNanos == 0 {
		t.Fatal("a lagging event should set an exemption window via markLagExempt")
	}
}

func TestScenarioS5PerfectAimAlerts(t *testing.T) {
	e, sink, mc := newTestEngine()
	attacker := uuid.New()

	for i := 0; i < 15; i++ {
		target := uuid.New()
		mc.Advance(50_000_000)
		e.IngestCombat(model.CombatInput{
			PlayerID: attacker, Name: "steve",
			AttackerX: 0, AttackerY: 0, AttackerZ: 0,
			TargetX: 0, TargetY: 0, TargetZ: 10,
			TargetID: &target,
			// AttackYaw/Pitch near-perfect aim at the target, snapped
			// from a wildly different pre-attack orientation.
			PreAttackYaw: 170, PreAttackPitch: 80,
			AttackYaw: 0, AttackPitch: 0,
			TimeSinceLastAttackMs: 40,
			Hit:                   true,
			NanoTime:              mc.NanoTime(),
			Ping:                  20,
		})
	}

	d, ok := sink.last()
	if !ok {
		t.Fatal("a sustained pattern of huge snaps landing with near-zero aim error should alert")
	}
	if d.Action != model.DecisionAlert && d.Action != model.DecisionPunish {
		t.Fatalf("expected ALERT or PUNISH for perfect-aim pattern, got %v", d.Action)
	}
}
