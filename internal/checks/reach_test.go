package checks

import (
	"testing"

	"sentinel/internal/model"
)

func TestCombatReachCheckCleanOnMiss(t *testing.T) {
	c := NewCombatReachCheck(DefaultCombatReachParams())
	ctx := newCombatCtx()
	res := c.Analyze(model.CombatInput{Hit: false}, model.CombatFeatures{Reach: 10}, ctx)
	if res.Confidence != 0 {
		t.Fatal("reach check should only analyze hits")
	}
}

func TestCombatReachCheckFlagsExcessiveReach(t *testing.T) {
	c := NewCombatReachCheck(DefaultCombatReachParams())
	ctx := newCombatCtx()
	res := c.Analyze(model.CombatInput{Hit: true, Ping: 50}, model.CombatFeatures{Reach: 8, HorizReach: 8}, ctx)
	if res.Confidence <= 0 {
		t.Fatal("an 8-block reach hit should trip the reach check")
	}
}

func TestCombatReachCheckCleanAtVanillaRange(t *testing.T) {
	c := NewCombatReachCheck(DefaultCombatReachParams())
	ctx := newCombatCtx()
	res := c.Analyze(model.CombatInput{Hit: true, Ping: 20}, model.CombatFeatures{Reach: 2.8, HorizReach: 2.5}, ctx)
	if res.Confidence != 0 {
		t.Fatal("a vanilla-range hit should not trip the reach check")
	}
}
