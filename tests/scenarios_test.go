// Package tests holds cross-package integration scenarios that exercise
// the detection pipeline the way an embedding game server would: through
// engine.New's public Config and the Ingest*/lifecycle entry points only,
// never reaching into an internal package's unexported state.
package tests

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"sentinel/internal/aggregate"
	"sentinel/internal/checks"
	"sentinel/internal/clock"
	"sentinel/internal/engine"
	"sentinel/internal/lifecycle"
	"sentinel/internal/mitigate"
	"sentinel/internal/model"
	"sentinel/internal/playerctx"
)

// captureSink is safe for concurrent use since the stress scenario
// drives many players' ingest goroutines against one engine.
type captureSink struct {
	mu        sync.Mutex
	decisions []model.Decision
}

func (c *captureSink) Alert(d model.Decision) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decisions = append(c.decisions, d)
}

func (c *captureSink) last() (model.Decision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.decisions) == 0 {
		return model.Decision{}, false
	}
	return c.decisions[len(c.decisions)-1], true
}

type harness struct {
	engine *engine.Engine
	hooks  *lifecycle.Hooks
	sink   *captureSink
	clock  *clock.MockClock
}

func newHarness() *harness {
	mc := clock.NewMockClock(0)
	players := playerctx.NewPlayerStore(playerctx.DefaultConfig())
	combat := playerctx.NewCombatStore(playerctx.DefaultConfig())
	policy := mitigate.NewPolicy(mitigate.DefaultParams(), nil)
	sink := &captureSink{}

	e := engine.New(engine.Config{
		Clock:      mc,
		Players:    players,
		Combat:     combat,
		Registry:   checks.DefaultRegistry(),
		Aggregator: aggregate.NewAggregator(aggregate.DefaultParams()),
		Policy:     policy,
		Sink:       sink,
	})

	hooks := lifecycle.NewHooks(lifecycle.DefaultParams(), mc, players, combat, policy)

	return &harness{engine: e, hooks: hooks, sink: sink, clock: mc}
}

const tick50ms = int64(50_000_000)

// S1: 40 stationary events, 50ms apart, never alerts.
func TestScenarioS1StationaryStanding(t *testing.T) {
	h := newHarness()
	id := uuid.New()

	for i := 0; i < 40; i++ {
		h.clock.Advance(tick50ms)
		h.engine.IngestTelemetry(model.TelemetryInput{
			PlayerID: id, Name: "steve", OnGround: true,
			Ping: 20, NanoTime: h.clock.NanoTime(), TickDelta: tick50ms,
		})
	}

	if len(h.sink.decisions) != 0 {
		t.Fatalf("stationary standing should never produce a decision, got %d", len(h.sink.decisions))
	}
}

// S2: a normal sprint speed (0.28 b/tick, below the 0.8 cap) stays clean.
func TestScenarioS2NormalSprintStaysClean(t *testing.T) {
	h := newHarness()
	id := uuid.New()

	for i := 0; i < 30; i++ {
		h.clock.Advance(tick50ms)
		h.engine.IngestTelemetry(model.TelemetryInput{
			PlayerID: id, Name: "steve", DX: 0.28,
			Ping: 20, NanoTime: h.clock.NanoTime(), TickDelta: tick50ms,
		})
	}

	if len(h.sink.decisions) != 0 {
		t.Fatalf("a sustained normal sprint should never produce a decision, got %d", len(h.sink.decisions))
	}
}

// S3: a single speed burst after 30 normal events raises confidence but
// does not itself clear the action-confidence gate.
func TestScenarioS3SingleSpeedBurstDoesNotAlert(t *testing.T) {
	h := newHarness()
	id := uuid.New()

	for i := 0; i < 30; i++ {
		h.clock.Advance(tick50ms)
		h.engine.IngestTelemetry(model.TelemetryInput{
			PlayerID: id, Name: "steve", DX: 0.28,
			Ping: 20, NanoTime: h.clock.NanoTime(), TickDelta: tick50ms,
		})
	}

	h.clock.Advance(tick50ms)
	h.engine.IngestTelemetry(model.TelemetryInput{
		PlayerID: id, Name: "steve", DX: 1.5,
		Ping: 20, NanoTime: h.clock.NanoTime(), TickDelta: tick50ms,
	})

	if len(h.sink.decisions) != 0 {
		t.Fatal("a single speed-burst event should not clear the action-confidence gate")
	}
}

// S4: 20 events of sustained flight alert.
func TestScenarioS4SustainedFlyAlerts(t *testing.T) {
	h := newHarness()
	id := uuid.New()

	for i := 0; i < 20; i++ {
		h.clock.Advance(tick50ms)
		h.engine.IngestTelemetry(model.TelemetryInput{
			PlayerID: id, Name: "steve", DY: 0.6, OnGround: false,
			Ping: 20, NanoTime: h.clock.NanoTime(), TickDelta: tick50ms,
		})
	}

	d, ok := h.sink.last()
	if !ok {
		t.Fatal("sustained high vertical speed should eventually produce a decision")
	}
	if d.Action != model.DecisionAlert && d.Action != model.DecisionPunish {
		t.Fatalf("expected ALERT or PUNISH for sustained fly, got %v", d.Action)
	}
}

// S5: a sustained pattern of huge snaps landing with near-zero aim error alerts.
func TestScenarioS5PerfectAimAlerts(t *testing.T) {
	h := newHarness()
	attacker := uuid.New()

	for i := 0; i < 15; i++ {
		target := uuid.New()
		h.clock.Advance(tick50ms)
		h.engine.IngestCombat(model.CombatInput{
			PlayerID: attacker, Name: "steve",
			AttackerX: 0, AttackerY: 0, AttackerZ: 0,
			TargetX: 0, TargetY: 0, TargetZ: 10,
			TargetID:     &target,
			PreAttackYaw: 170, PreAttackPitch: 80,
			AttackYaw: 0, AttackPitch: 0,
			TimeSinceLastAttackMs: 40,
			Hit:                   true,
			NanoTime:              h.clock.NanoTime(),
			Ping:                  20,
		})
	}

	d, ok := h.sink.last()
	if !ok {
		t.Fatal("a sustained pattern of huge snaps landing with near-zero aim error should alert")
	}
	if d.Action != model.DecisionAlert && d.Action != model.DecisionPunish {
		t.Fatalf("expected ALERT or PUNISH for perfect-aim pattern, got %v", d.Action)
	}
}

// S6: a teleport grace window suppresses an otherwise obvious telemetry jump.
func TestScenarioS6TeleportGraceSuppressesAlert(t *testing.T) {
	h := newHarness()
	id := uuid.New()

	// Establish a context via a join hook, then teleport, the way the
	// embedding server's own event callbacks would.
	h.hooks.Join(id, "steve", playerctx.DefaultConfig())
	h.hooks.Teleport(id)

	h.clock.Advance(tick50ms)
	h.engine.IngestTelemetry(model.TelemetryInput{
		PlayerID: id, Name: "steve", DX: 50,
		Ping: 20, NanoTime: h.clock.NanoTime(), TickDelta: tick50ms,
	})

	if len(h.sink.decisions) != 0 {
		t.Fatal("a teleporting player's telemetry jump should never alert")
	}
}

// S7: a repeat alert-worthy event inside the cooldown window is suppressed,
// and fires again once the cooldown has passed.
func TestScenarioS7CooldownSuppressesRepeatAlerts(t *testing.T) {
	h := newHarness()
	id := uuid.New()

	fly := func() {
		h.clock.Advance(tick50ms)
		h.engine.IngestTelemetry(model.TelemetryInput{
			PlayerID: id, Name: "steve", DY: 0.6, OnGround: false,
			Ping: 20, NanoTime: h.clock.NanoTime(), TickDelta: tick50ms,
		})
	}

	for i := 0; i < 20; i++ {
		fly()
	}
	firstCount := len(h.sink.decisions)
	if firstCount == 0 {
		t.Fatal("expected the first sustained burst to alert")
	}

	h.clock.Advance(500_000_000)
	fly()
	if len(h.sink.decisions) != firstCount {
		t.Fatal("a repeat violation inside the cooldown window should not alert again")
	}

	h.clock.Advance(1_600_000_000)
	fly()
	if len(h.sink.decisions) <= firstCount {
		t.Fatal("a violation after the cooldown expires should alert again")
	}
}

// S8: a lag spike marks the player lag-exempt and skips checks entirely.
func TestScenarioS8LagSpikeSkipsChecks(t *testing.T) {
	h := newHarness()
	id := uuid.New()

	h.clock.Advance(tick50ms)
	h.engine.IngestTelemetry(model.TelemetryInput{
		PlayerID: id, Name: "steve", DX: 1000,
		Ping: 20, NanoTime: h.clock.NanoTime(), TickDelta: 300_000_000,
	})

	if len(h.sink.decisions) != 0 {
		t.Fatal("a lagging event should mark lag-exempt and skip checks entirely, never alerting")
	}
}

// TestStressManyPlayersSustainedLoad drives a large population through
// the full pipeline concurrently, modeled on the teacher's sustained-load
// stress harness but scaled to this pipeline's event-driven ingest.
func TestStressManyPlayersSustainedLoad(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	h := newHarness()
	const players = 200
	const eventsPerPlayer = 50

	ids := make([]uuid.UUID, players)
	for i := range ids {
		ids[i] = uuid.New()
	}

	done := make(chan struct{})
	for _, id := range ids {
		go func(id uuid.UUID) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < eventsPerPlayer; i++ {
				h.engine.IngestTelemetry(model.TelemetryInput{
					PlayerID: id, Name: "steve", DX: 0.1, OnGround: true,
					Ping: 20, NanoTime: time.Now().UnixNano(), TickDelta: tick50ms,
				})
			}
		}(id)
	}

	for range ids {
		<-done
	}
}
