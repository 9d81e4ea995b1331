package features

import (
	"math"
	"testing"

	"github.com/google/uuid"

	"sentinel/internal/model"
	"sentinel/internal/playerctx"
)

func TestExtractCombatPerfectAimHasZeroError(t *testing.T) {
	ctx := playerctx.NewCombatContext(uuid.New(), "steve", playerctx.DefaultConfig())
	in := model.CombatInput{
		AttackerX: 0, AttackerY: 0, AttackerZ: 0,
		TargetX: 0, TargetY: 0, TargetZ: 10,
	}
	targetYaw, targetPitch := targetYawPitch(in)
	in.AttackYaw = targetYaw
	in.AttackPitch = targetPitch
	in.PreAttackYaw = targetYaw
	in.PreAttackPitch = targetPitch

	f := ExtractCombat(in, ctx)
	if math.Abs(f.AimErrorDeg) > 1e-6 {
		t.Fatalf("AimErrorDeg = %v, want ~0 for perfect aim", f.AimErrorDeg)
	}
	if math.Abs(f.SnapAngleDeg) > 1e-6 {
		t.Fatalf("SnapAngleDeg = %v, want ~0 for identical pre/post aim", f.SnapAngleDeg)
	}
	if math.Abs(f.Reach-10) > 1e-6 {
		t.Fatalf("Reach = %v, want 10", f.Reach)
	}
}

func TestExtractCombatSnapAngleDetectsRotation(t *testing.T) {
	ctx := playerctx.NewCombatContext(uuid.New(), "steve", playerctx.DefaultConfig())
	in := model.CombatInput{
		PreAttackYaw: 0, PreAttackPitch: 0,
		AttackYaw: 90, AttackPitch: 0,
		TargetX: 1, TargetZ: 1,
	}
	f := ExtractCombat(in, ctx)
	if f.SnapAngleDeg < 80 || f.SnapAngleDeg > 100 {
		t.Fatalf("SnapAngleDeg = %v, want ~90", f.SnapAngleDeg)
	}
}

func TestExtractCombatReachComponents(t *testing.T) {
	ctx := playerctx.NewCombatContext(uuid.New(), "steve", playerctx.DefaultConfig())
	in := model.CombatInput{
		AttackerX: 0, AttackerY: 0, AttackerZ: 0,
		TargetX: 3, TargetY: 4, TargetZ: 0,
	}
	f := ExtractCombat(in, ctx)
	if math.Abs(f.Reach-5) > 1e-6 {
		t.Fatalf("Reach = %v, want 5", f.Reach)
	}
	if math.Abs(f.HorizReach-3) > 1e-6 {
		t.Fatalf("HorizReach = %v, want 3", f.HorizReach)
	}
	if math.Abs(f.DeltaY-4) > 1e-6 {
		t.Fatalf("DeltaY = %v, want 4", f.DeltaY)
	}
}
