// Package mitigate implements the exemption, cooldown, and punishment
// gate that turns a Violation into a Decision. Every marker operation
// a lifecycle hook needs (exemption windows, flag setters) lives here
// alongside the gate itself, since both read and write the same
// per-player timing state.
package mitigate

import (
	"sync"

	"sentinel/internal/model"
	"sentinel/internal/playerctx"
)

// Params configures the mitigation policy's windows and thresholds.
type Params struct {
	ExemptionMs int64
	CooldownMs  int64
	LagGraceMs  int64

	PunishmentEnabled   bool
	PunishmentThreshold float64
	FlagOnly            bool

	// Whitelist lists player ids configured as permanently exempt.
	// Reconfigured wholesale on every Configure call; ids an operator
	// added at runtime via Policy.Whitelist live separately and survive
	// a reload that doesn't mention them.
	Whitelist []model.PlayerID

	ExemptCreative  bool
	ExemptSpectator bool

	BypassCapability string // empty disables the capability bypass
}

// DefaultParams returns the specification's default policy.
func DefaultParams() Params {
	return Params{
		ExemptionMs:         250,
		CooldownMs:          1500,
		LagGraceMs:          500,
		PunishmentEnabled:   true,
		PunishmentThreshold: 0.999,
		FlagOnly:            false,
		ExemptCreative:      true,
		ExemptSpectator:     true,
	}
}

// Capabilities reports whether a player holds a named bypass
// capability; callers supply their own permission backend.
type Capabilities interface {
	HasCapability(id model.PlayerID, capability string) bool
}

// Policy evaluates violations against exemption/cooldown state.
type Policy struct {
	mu sync.RWMutex

	params Params

	// configWhitelist holds the ids from params.Whitelist, replaced
	// wholesale on every Configure call. adminWhitelist holds ids added
	// or removed at runtime through Whitelist/Unwhitelist and is never
	// touched by Configure, so a reload can't silently un-exempt a
	// player an operator exempted by hand.
	configWhitelist map[model.PlayerID]struct{}
	adminWhitelist  map[model.PlayerID]struct{}

	caps Capabilities
}

// NewPolicy constructs a Policy with the given params and capability backend.
func NewPolicy(p Params, caps Capabilities) *Policy {
	return &Policy{
		params:          p,
		configWhitelist: whitelistSet(p.Whitelist),
		adminWhitelist:  make(map[model.PlayerID]struct{}),
		caps:            caps,
	}
}

func whitelistSet(ids []model.PlayerID) map[model.PlayerID]struct{} {
	set := make(map[model.PlayerID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Configure replaces the policy's parameters, safe to call concurrently
// with Evaluate (an admin reload races the ingest path on every player).
// The configured whitelist is reconciled into the policy's exemption set
// so entries under exemptions.whitelist actually take effect.
func (p *Policy) Configure(params Params) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.params = params
	p.configWhitelist = whitelistSet(params.Whitelist)
}

// Whitelist adds a player id to the whitelist, exempting it from every decision.
func (p *Policy) Whitelist(id model.PlayerID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.adminWhitelist[id] = struct{}{}
}

// Unwhitelist removes a player id from the whitelist.
func (p *Policy) Unwhitelist(id model.PlayerID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.adminWhitelist, id)
}

func (p *Policy) isWhitelisted(id model.PlayerID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if _, ok := p.configWhitelist[id]; ok {
		return true
	}
	_, ok := p.adminWhitelist[id]
	return ok
}

// Evaluate runs the five-step gate order against v and ctx, mutating
// ctx's timing fields and counters on pass-through.
func (p *Policy) Evaluate(v model.Violation, ctx *playerctx.PlayerContext, now int64) model.Decision {
	if p.isWhitelisted(v.PlayerID) {
		return model.NoneDecision("whitelisted")
	}

	p.mu.RLock()
	params := p.params
	p.mu.RUnlock()

	if p.caps != nil && params.BypassCapability != "" && p.caps.HasCapability(v.PlayerID, params.BypassCapability) {
		return model.NoneDecision("bypass_capability")
	}
	if ctx.Gamemode == model.GamemodeCreative && params.ExemptCreative {
		return model.NoneDecision("exempt_creative")
	}
	if ctx.Gamemode == model.GamemodeSpectator && params.ExemptSpectator {
		return model.NoneDecision("exempt_spectator")
	}
	if now < ctx.ExemptUntilNanos || ctx.FlagsExempt() {
		return model.NoneDecision("exempt_window")
	}
	if now < ctx.CooldownUntilNanos {
		return model.NoneDecision("cooldown")
	}

	ctx.CooldownUntilNanos = now + params.CooldownMs*int64(1_000_000)
	ctx.LastAlertNanos = now
	ctx.TotalViolations++
	ctx.RecentViolations++

	if params.FlagOnly {
		return model.Decision{Action: model.DecisionFlag, Violation: &v, Reason: "flag_only"}
	}
	if params.PunishmentEnabled && v.Confidence >= params.PunishmentThreshold {
		return model.Decision{Action: model.DecisionPunish, Violation: &v, Reason: "punishment_threshold"}
	}
	return model.Decision{Action: model.DecisionAlert, Violation: &v, Reason: "alert"}
}

// MarkExempt sets a short exemption window to absorb transient noise
// around lifecycle transitions (teleport/world-change clears).
func (p *Policy) MarkExempt(ctx *playerctx.PlayerContext, now int64) {
	p.mu.RLock()
	ms := p.params.ExemptionMs
	p.mu.RUnlock()
	ctx.ExemptUntilNanos = now + ms*int64(1_000_000)
}

// MarkLagExempt sets a longer exemption window used when a player's
// connection is lagging badly enough to make their telemetry unreliable.
func (p *Policy) MarkLagExempt(ctx *playerctx.PlayerContext, now int64) {
	p.mu.RLock()
	ms := p.params.LagGraceMs
	p.mu.RUnlock()
	ctx.ExemptUntilNanos = now + ms*int64(1_000_000)
}

// SetTeleporting sets or clears the teleporting flag. Clearing marks a
// short exemption window to absorb the resulting telemetry jump.
func (p *Policy) SetTeleporting(ctx *playerctx.PlayerContext, teleporting bool, now int64) {
	ctx.Teleporting = teleporting
	if !teleporting {
		p.MarkExempt(ctx, now)
	}
}

// SetWorldChanging sets or clears the worldChanging flag, with the
// same clear-time exemption behavior as SetTeleporting.
func (p *Policy) SetWorldChanging(ctx *playerctx.PlayerContext, changing bool, now int64) {
	ctx.WorldChanging = changing
	if !changing {
		p.MarkExempt(ctx, now)
	}
}

// SetRecentJoin sets or clears the recentJoin flag, with the same
// clear-time exemption behavior as SetTeleporting.
func (p *Policy) SetRecentJoin(ctx *playerctx.PlayerContext, recent bool, now int64) {
	ctx.RecentJoin = recent
	if !recent {
		p.MarkExempt(ctx, now)
	}
}
