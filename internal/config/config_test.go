package config

import (
	"testing"

	"github.com/google/uuid"
)

func TestValidateClampsThresholdsInto01(t *testing.T) {
	cfg := Default()
	cfg.Thresholds.ActionConfidence = 1.5
	cfg.Thresholds.MinSeverity = -0.2
	cfg.Actions.Punishment.Threshold = 2.0

	got, errs := Validate(cfg)
	if len(errs) != 3 {
		t.Fatalf("expected 3 clamp warnings, got %d: %v", len(errs), errs)
	}
	if got.Thresholds.ActionConfidence != 1 {
		t.Errorf("action_confidence: expected clamp to 1, got %v", got.Thresholds.ActionConfidence)
	}
	if got.Thresholds.MinSeverity != 0 {
		t.Errorf("min_severity: expected clamp to 0, got %v", got.Thresholds.MinSeverity)
	}
	if got.Actions.Punishment.Threshold != 1 {
		t.Errorf("punishment.threshold: expected clamp to 1, got %v", got.Actions.Punishment.Threshold)
	}
}

func TestValidateAcceptsInRangeThresholdsUnchanged(t *testing.T) {
	cfg := Default()
	got, errs := Validate(cfg)
	if len(errs) != 0 {
		t.Fatalf("expected no warnings for default config, got %v", errs)
	}
	if got.Thresholds.ActionConfidence != 0.997 {
		t.Errorf("expected action_confidence untouched, got %v", got.Thresholds.ActionConfidence)
	}
}

func TestValidateResetsInvalidEWMAAlpha(t *testing.T) {
	for _, bad := range []float64{0, -1, 1.5} {
		cfg := Default()
		cfg.History.EWMAAlpha = bad
		got, errs := Validate(cfg)
		if len(errs) == 0 {
			t.Fatalf("ewma_alpha=%v: expected a warning", bad)
		}
		if got.History.EWMAAlpha != 0.3 {
			t.Errorf("ewma_alpha=%v: expected reset to 0.3, got %v", bad, got.History.EWMAAlpha)
		}
	}
}

func TestValidateResetsNonPositiveHistorySizes(t *testing.T) {
	cfg := Default()
	cfg.History.Size = 0
	cfg.History.MedianWindow = -5

	got, errs := Validate(cfg)
	if len(errs) != 2 {
		t.Fatalf("expected 2 warnings, got %d: %v", len(errs), errs)
	}
	if got.History.Size != 64 {
		t.Errorf("expected history.size reset to 64, got %d", got.History.Size)
	}
	if got.History.MedianWindow != 20 {
		t.Errorf("expected median_window reset to 20, got %d", got.History.MedianWindow)
	}
}

func TestValidateFallsBackToFlagOnlyForUnknownPunishmentType(t *testing.T) {
	cfg := Default()
	cfg.Actions.Punishment.Type = "BAN_FOREVER"

	got, errs := Validate(cfg)
	if len(errs) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(errs), errs)
	}
	if got.Actions.Punishment.Type != PunishmentFlagOnly {
		t.Errorf("expected fallback to FLAG_ONLY, got %q", got.Actions.Punishment.Type)
	}
}

func TestValidateKeepsKnownPunishmentTypes(t *testing.T) {
	for _, pt := range []PunishmentType{PunishmentKick, PunishmentTempMute, PunishmentFlagOnly} {
		cfg := Default()
		cfg.Actions.Punishment.Type = pt
		got, errs := Validate(cfg)
		if len(errs) != 0 {
			t.Fatalf("type %q: expected no warnings, got %v", pt, errs)
		}
		if got.Actions.Punishment.Type != pt {
			t.Errorf("expected type %q preserved, got %q", pt, got.Actions.Punishment.Type)
		}
	}
}

func TestValidateSkipsEmptyAndMalformedWhitelistEntries(t *testing.T) {
	valid := uuid.New().String()
	cfg := Default()
	cfg.Exemptions.Whitelist = []string{valid, "", "not-a-uuid"}

	got, errs := Validate(cfg)
	if len(errs) != 2 {
		t.Fatalf("expected 2 warnings (empty + malformed), got %d: %v", len(errs), errs)
	}
	if len(got.Exemptions.Whitelist) != 1 || got.Exemptions.Whitelist[0] != valid {
		t.Fatalf("expected only the valid entry to survive, got %v", got.Exemptions.Whitelist)
	}
}

func TestValidateCanonicalizesWhitelistEntries(t *testing.T) {
	id := uuid.New()
	upper := "{" + id.String() + "}" // uuid.Parse accepts braced form too
	cfg := Default()
	cfg.Exemptions.Whitelist = []string{upper}

	got, errs := Validate(cfg)
	if len(errs) != 0 {
		t.Fatalf("expected no warnings for a valid (if unusually formatted) uuid, got %v", errs)
	}
	if len(got.Exemptions.Whitelist) != 1 || got.Exemptions.Whitelist[0] != id.String() {
		t.Fatalf("expected canonical form %q, got %v", id.String(), got.Exemptions.Whitelist)
	}
}

func TestMitigationParamsCarriesValidatedWhitelist(t *testing.T) {
	id := uuid.New()
	cfg := Default()
	cfg.Exemptions.Whitelist = []string{id.String(), "garbage"}

	validated, _ := Validate(cfg)
	params := validated.MitigationParams()

	if len(params.Whitelist) != 1 || params.Whitelist[0].String() != id.String() {
		t.Fatalf("expected MitigationParams to carry exactly the validated whitelist, got %v", params.Whitelist)
	}
}

func TestValidateClampsCheckWeightsInto0And10(t *testing.T) {
	cfg := Default()
	cfg.Checks.PacketTiming.Weight = -3
	cfg.Checks.CombatAutoClicker.Weight = 99

	got, errs := Validate(cfg)
	if len(errs) != 2 {
		t.Fatalf("expected 2 clamp warnings, got %d: %v", len(errs), errs)
	}
	if got.Checks.PacketTiming.Weight != 0 {
		t.Errorf("expected packet_timing weight clamped to 0, got %v", got.Checks.PacketTiming.Weight)
	}
	if got.Checks.CombatAutoClicker.Weight != 10 {
		t.Errorf("expected autoclicker weight clamped to 10, got %v", got.Checks.CombatAutoClicker.Weight)
	}
}

func TestAggregatorParamsDerivesFromThresholds(t *testing.T) {
	cfg := Default()
	params := cfg.AggregatorParams()
	if params.ActionConfidence != cfg.Thresholds.ActionConfidence {
		t.Errorf("expected ActionConfidence %v, got %v", cfg.Thresholds.ActionConfidence, params.ActionConfidence)
	}
	if params.MinSeverity != cfg.Thresholds.MinSeverity {
		t.Errorf("expected MinSeverity %v, got %v", cfg.Thresholds.MinSeverity, params.MinSeverity)
	}
}

func TestBuildRegistryHonorsDisabledChecks(t *testing.T) {
	cfg := Default()
	cfg.Checks.PacketTiming.Enabled = false

	reg := cfg.Checks.BuildRegistry()
	if reg.EnabledCount() != 5 {
		t.Fatalf("expected 5 enabled checks with packet_timing disabled, got %d", reg.EnabledCount())
	}
}

func TestLoadWithoutPathReturnsValidatedDefaults(t *testing.T) {
	cfg, errs := Load("")
	if len(errs) != 0 {
		t.Fatalf("expected no warnings loading bare defaults, got %v", errs)
	}
	if cfg.Thresholds.ActionConfidence != 0.997 {
		t.Errorf("expected default action_confidence, got %v", cfg.Thresholds.ActionConfidence)
	}
}
