// Package lifecycle wires player join/quit/teleport/world-change
// events into the context store and mitigation policy's exemption
// flags, scheduling the clears with time.AfterFunc the way the
// teacher schedules its own deferred cleanup work.
package lifecycle

import (
	"time"

	"sentinel/internal/mitigate"
	"sentinel/internal/model"
	"sentinel/internal/playerctx"
)

// Params configures the lifecycle hooks' grace windows.
type Params struct {
	JoinExemptionMs     int64
	TeleportExemptionMs int64
}

// DefaultParams returns the specification's default grace windows.
func DefaultParams() Params {
	return Params{
		JoinExemptionMs:     1000,
		TeleportExemptionMs: 500,
	}
}

// Clock supplies the current monotonic time for scheduling decisions.
type Clock interface {
	NanoTime() int64
}

// Hooks binds the player store and mitigation policy the engine must
// update in response to join/quit/teleport/world-change events.
type Hooks struct {
	params  Params
	clock   Clock
	players *playerctx.Store[*playerctx.PlayerContext]
	combat  *playerctx.Store[*playerctx.CombatContext]
	policy  *mitigate.Policy
}

// NewHooks constructs a Hooks bound to the given stores and policy.
func NewHooks(p Params, clock Clock, players *playerctx.Store[*playerctx.PlayerContext], combat *playerctx.Store[*playerctx.CombatContext], policy *mitigate.Policy) *Hooks {
	return &Hooks{params: p, clock: clock, players: players, combat: combat, policy: policy}
}

// Configure replaces the hooks' grace windows.
func (h *Hooks) Configure(p Params) {
	h.params = p
}

// Join creates a fresh context for the player and schedules the
// recent-join exemption flag to clear after JoinExemptionMs.
func (h *Hooks) Join(id model.PlayerID, name string, cfg playerctx.Config) {
	ctx := h.players.GetOrCreate(id, name)
	ctx.RecentJoin = true
	h.combat.GetOrCreate(id, name)

	time.AfterFunc(time.Duration(h.params.JoinExemptionMs)*time.Millisecond, func() {
		if c, ok := h.players.Get(id); ok {
			h.policy.SetRecentJoin(c, false, h.clock.NanoTime())
		}
	})
}

// Quit destroys the player's context and releases ingest state.
func (h *Hooks) Quit(id model.PlayerID) {
	h.players.Remove(id)
	h.combat.Remove(id)
}

// Teleport sets the teleporting flag and schedules its clear (which,
// on firing, marks a short exemption window via the policy).
func (h *Hooks) Teleport(id model.PlayerID) {
	ctx, ok := h.players.Get(id)
	if !ok {
		return
	}
	ctx.Teleporting = true

	time.AfterFunc(time.Duration(h.params.TeleportExemptionMs)*time.Millisecond, func() {
		if c, ok := h.players.Get(id); ok {
			h.policy.SetTeleporting(c, false, h.clock.NanoTime())
		}
	})
}

// WorldChange sets the worldChanging flag, resets the context's
// histories immediately, and schedules the flag's clear.
func (h *Hooks) WorldChange(id model.PlayerID) {
	ctx, ok := h.players.Get(id)
	if !ok {
		return
	}
	ctx.WorldChanging = true
	ctx.Reset()

	if cc, ok := h.combat.Get(id); ok {
		cc.Reset()
	}

	time.AfterFunc(time.Duration(h.params.TeleportExemptionMs)*time.Millisecond, func() {
		if c, ok := h.players.Get(id); ok {
			h.policy.SetWorldChanging(c, false, h.clock.NanoTime())
		}
	})
}
