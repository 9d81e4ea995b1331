// Package model defines the immutable data types that flow through the
// detection pipeline: telemetry/combat inputs, derived features, check
// results, violations, and decisions. None of these types carry behavior
// beyond simple accessors — they are the wire between packages.
package model

import "github.com/google/uuid"

// PlayerID is the opaque 128-bit identity every context, check result,
// and decision is keyed by.
type PlayerID = uuid.UUID

// Gamemode is the host game's reported player mode, used by the
// mitigation policy's creative/spectator exemption gate.
type Gamemode int

const (
	GamemodeSurvival Gamemode = iota
	GamemodeCreative
	GamemodeSpectator
	GamemodeAdventure
)

// TelemetryInput is an immutable snapshot of a single movement event.
type TelemetryInput struct {
	PlayerID PlayerID
	Name     string

	DX, DY, DZ float64

	Yaw, Pitch           float64
	DeltaYaw, DeltaPitch float64 // normalized to [-180, 180]

	OnGround    bool
	InVehicle   bool
	Teleporting bool
	Swimming    bool
	Gliding     bool
	Climbing    bool

	Ping       int64 // round-trip latency, ms
	NanoTime   int64 // monotonic timestamp
	TickDelta  int64 // ns since previous event for this player (0 for first)
}

// IsSpecialMovement reports whether any flag other than OnGround is set,
// marking the event as subject to physics overrides rather than the
// normal movement envelopes.
func (t TelemetryInput) IsSpecialMovement() bool {
	return t.InVehicle || t.Teleporting || t.Swimming || t.Gliding || t.Climbing
}

// CombatInput is an immutable snapshot of a single attack event.
type CombatInput struct {
	PlayerID PlayerID
	Name     string

	AttackerX, AttackerY, AttackerZ float64
	AttackYaw, AttackPitch          float64

	// PreAttackYaw/Pitch are the attacker's rotation one frame earlier,
	// used for snap-angle detection.
	PreAttackYaw, PreAttackPitch float64

	TargetX, TargetY, TargetZ float64
	TargetID                  *PlayerID // nil if no player target

	Hit      bool
	Critical bool
	Damage   int

	TimeSinceLastAttackMs int64
	Ping                  int64
	NanoTime              int64
}

// Features is the immutable set of derived quantities computed per event.
type Features struct {
	HorizSpeed, VertSpeed, Speed3D float64
	HorizAccel, VertAccel         float64
	RotationSpeed                 float64
	YawAccel, PitchAccel          float64
	JitterScore                   float64
	TimingSkew                    float64
	PingNormalized                float64
	IsLagging                     bool
	SampleCount                   int
}

// CombatFeatures is the immutable set of derived quantities computed
// per attack event: angular aim error, frame-to-frame snap angle, and
// the attacker-to-target reach distances the combat checks analyze.
type CombatFeatures struct {
	AimErrorDeg  float64
	SnapAngleDeg float64
	Reach        float64
	HorizReach   float64
	DeltaY       float64
}

// CheckResult is the immutable output of a single check for a single
// event. A clean result has Confidence 0 and an empty Explanation.
type CheckResult struct {
	Check       string
	Confidence  float64
	Severity    float64
	Explanation map[string]string
}

// Clean returns the canonical empty result for a check that did not fire.
func Clean(check string) CheckResult {
	return CheckResult{Check: check, Confidence: 0, Severity: 0, Explanation: map[string]string{}}
}

// Significant reports whether this result clears the aggregator's
// significance threshold.
func (r CheckResult) Significant(threshold float64) bool {
	return r.Confidence > threshold
}

// Violation is the immutable fused output of one event's significant
// check results.
type Violation struct {
	PlayerID PlayerID
	Name     string

	Category   string // name of the highest-confidence contributing check
	Confidence float64
	Severity   float64

	NanoTime int64
	Ping     int64

	Contributors []CheckResult
	Explanation  map[string]string // first-writer-wins merge across contributors
}

// DecisionAction is the closed set of actions the mitigation policy may
// emit, represented as a sum type rather than an inheritance hierarchy.
type DecisionAction int

const (
	DecisionNone DecisionAction = iota
	DecisionFlag
	DecisionAlert
	DecisionPunish
)

func (a DecisionAction) String() string {
	switch a {
	case DecisionNone:
		return "NONE"
	case DecisionFlag:
		return "FLAG"
	case DecisionAlert:
		return "ALERT"
	case DecisionPunish:
		return "PUNISH"
	default:
		return "UNKNOWN"
	}
}

// Decision is the mitigation policy's output for one violation candidate.
// NONE carries no violation.
type Decision struct {
	Action    DecisionAction
	Violation *Violation
	Reason    string
}

// NoneDecision builds the canonical NONE decision with a reason.
func NoneDecision(reason string) Decision {
	return Decision{Action: DecisionNone, Reason: reason}
}
