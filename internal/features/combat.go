package features

import (
	"math"

	"sentinel/internal/model"
	"sentinel/internal/playerctx"
)

// ExtractCombat derives the angular and spatial quantities the combat
// checks analyze from a raw attack event. Like Extract, it is a pure
// function of its arguments — it never mutates ctx.
func ExtractCombat(in model.CombatInput, ctx *playerctx.CombatContext) model.CombatFeatures {
	_ = ctx // reserved for history-dependent combat features

	targetYaw, targetPitch := targetYawPitch(in)
	aimError := angleBetweenYawPitch(in.AttackYaw, in.AttackPitch, targetYaw, targetPitch)
	snap := angleBetweenYawPitch(in.PreAttackYaw, in.PreAttackPitch, in.AttackYaw, in.AttackPitch)

	dx := in.TargetX - in.AttackerX
	dy := in.TargetY - in.AttackerY
	dz := in.TargetZ - in.AttackerZ

	return model.CombatFeatures{
		AimErrorDeg:  aimError,
		SnapAngleDeg: snap,
		Reach:        math.Sqrt(dx*dx + dy*dy + dz*dz),
		HorizReach:   math.Hypot(dx, dz),
		DeltaY:       dy,
	}
}

// targetYawPitch returns the yaw/pitch that would perfectly aim at the
// target from the attacker's position.
func targetYawPitch(in model.CombatInput) (yaw, pitch float64) {
	dx := in.TargetX - in.AttackerX
	dy := in.TargetY - in.AttackerY
	dz := in.TargetZ - in.AttackerZ

	horiz := math.Hypot(dx, dz)
	yaw = radToDeg(math.Atan2(-dx, dz))
	pitch = radToDeg(-math.Atan2(dy, horiz))
	return yaw, pitch
}

// angleBetweenYawPitch returns the angle in degrees between the two
// look directions described by (yaw1, pitch1) and (yaw2, pitch2).
func angleBetweenYawPitch(yaw1, pitch1, yaw2, pitch2 float64) float64 {
	v1 := lookVector(yaw1, pitch1)
	v2 := lookVector(yaw2, pitch2)
	dot := v1[0]*v2[0] + v1[1]*v2[1] + v1[2]*v2[2]
	if dot > 1 {
		dot = 1
	} else if dot < -1 {
		dot = -1
	}
	return radToDeg(math.Acos(dot))
}

// lookVector converts a yaw/pitch pair (degrees) into a unit look
// direction using the game's yaw-around-Y, pitch-around-X convention.
func lookVector(yawDeg, pitchDeg float64) [3]float64 {
	yaw := degToRad(yawDeg)
	pitch := degToRad(pitchDeg)
	cosPitch := math.Cos(pitch)
	return [3]float64{
		-math.Sin(yaw) * cosPitch,
		-math.Sin(pitch),
		math.Cos(yaw) * cosPitch,
	}
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }
func radToDeg(r float64) float64 { return r * 180 / math.Pi }
