package checks

import (
	"testing"

	"sentinel/internal/model"
)

func TestCombatAutoClickerCheckCleanUnderMinSamples(t *testing.T) {
	c := NewCombatAutoClickerCheck(DefaultCombatAutoClickerParams())
	ctx := newCombatCtx()
	res := c.Analyze(model.CombatInput{}, model.CombatFeatures{}, ctx)
	if res.Confidence != 0 {
		t.Fatal("expected clean result under minimum combat history")
	}
}

func TestCombatAutoClickerCheckDetectsHighCPS(t *testing.T) {
	c := NewCombatAutoClickerCheck(DefaultCombatAutoClickerParams())
	ctx := newCombatCtx()
	for i := 0; i < 6; i++ {
		ctx.Attacks.Push(model.CombatInput{})
		ctx.AttackIntervalWindow.Add(20) // 50 CPS
	}
	res := c.Analyze(model.CombatInput{}, model.CombatFeatures{}, ctx)
	if res.Confidence <= 0 {
		t.Fatal("50 clicks-per-second cadence should trip the autoclicker check")
	}
}

func TestCombatAutoClickerCheckDetectsLookAwayHit(t *testing.T) {
	c := NewCombatAutoClickerCheck(DefaultCombatAutoClickerParams())
	ctx := newCombatCtx()
	for i := 0; i < 6; i++ {
		ctx.Attacks.Push(model.CombatInput{})
	}
	res := c.Analyze(model.CombatInput{Hit: true}, model.CombatFeatures{AimErrorDeg: 120}, ctx)
	if res.Confidence <= 0 {
		t.Fatal("a hit landing 120 degrees off the attacker's aim should trip the check")
	}
}
