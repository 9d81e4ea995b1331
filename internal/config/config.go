// Package config provides centralized configuration management for the
// detection engine: the thresholds, windows, history sizing, check
// toggles and parameters, and action policy the engine runs with.
//
// Per-check parameter defaults come from the checks package's
// Default*Params functions. Process settings such as the config path,
// admin port, analytics path and punish webhook are read from the
// environment by cmd/server, not by this package.
package config

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"sentinel/internal/aggregate"
	"sentinel/internal/checks"
	"sentinel/internal/errs"
	"sentinel/internal/mitigate"
	"sentinel/internal/model"
	"sentinel/internal/playerctx"
)

// =============================================================================
// THRESHOLDS & WINDOWS
// =============================================================================

// ThresholdsConfig holds the aggregator's confidence/severity gates.
type ThresholdsConfig struct {
	ActionConfidence float64 `mapstructure:"action_confidence"`
	MinSeverity      float64 `mapstructure:"min_severity"`
}

// WindowsConfig holds the mitigation policy's exemption and cooldown durations, in ms.
type WindowsConfig struct {
	ExemptionMs int64 `mapstructure:"exemption_ms"`
	CooldownMs  int64 `mapstructure:"cooldown_ms"`
	LagGraceMs  int64 `mapstructure:"lag_grace_ms"`
}

// HistoryConfig holds the per-player context's ring buffer and rolling-stat sizing.
type HistoryConfig struct {
	Size         int     `mapstructure:"size"`
	MedianWindow int     `mapstructure:"median_window"`
	EWMAAlpha    float64 `mapstructure:"ewma_alpha"`
}

// =============================================================================
// PER-CHECK CONFIGURATION
// =============================================================================

// CheckToggle is the enabled/weight pair every check carries, independent
// of its check-specific parameters.
type CheckToggle struct {
	Enabled bool    `mapstructure:"enabled"`
	Weight  float64 `mapstructure:"weight"`
}

// ChecksConfig bundles every check's toggle and parameters.
type ChecksConfig struct {
	PacketTiming struct {
		CheckToggle `mapstructure:",squash"`
		Params      checks.PacketTimingParams `mapstructure:",squash"`
	} `mapstructure:"packet_timing"`

	MovementConsistency struct {
		CheckToggle `mapstructure:",squash"`
		Params      checks.MovementConsistencyParams `mapstructure:",squash"`
	} `mapstructure:"movement_consistency"`

	PredictionDrift struct {
		CheckToggle `mapstructure:",squash"`
		Params      checks.PredictionDriftParams `mapstructure:",squash"`
	} `mapstructure:"prediction_drift"`

	CombatAimbot struct {
		CheckToggle `mapstructure:",squash"`
		Params      checks.CombatAimbotParams `mapstructure:",squash"`
	} `mapstructure:"combat_aimbot"`

	CombatReach struct {
		CheckToggle `mapstructure:",squash"`
		Params      checks.CombatReachParams `mapstructure:",squash"`
	} `mapstructure:"combat_reach"`

	CombatAutoClicker struct {
		CheckToggle `mapstructure:",squash"`
		Params      checks.CombatAutoClickerParams `mapstructure:",squash"`
	} `mapstructure:"combat_autoclicker"`
}

// BuildRegistry constructs a fresh checks.Registry from this configuration,
// applying each check's configured toggle and parameters.
func (c ChecksConfig) BuildRegistry() *checks.Registry {
	pt := checks.NewPacketTimingCheck(c.PacketTiming.Params)
	pt.Configure(c.PacketTiming.Enabled, c.PacketTiming.Weight, c.PacketTiming.Params)

	mv := checks.NewMovementConsistencyCheck(c.MovementConsistency.Params)
	mv.Configure(c.MovementConsistency.Enabled, c.MovementConsistency.Weight, c.MovementConsistency.Params)

	dr := checks.NewPredictionDriftCheck(c.PredictionDrift.Params)
	dr.Configure(c.PredictionDrift.Enabled, c.PredictionDrift.Weight, c.PredictionDrift.Params)

	ab := checks.NewCombatAimbotCheck(c.CombatAimbot.Params)
	ab.Configure(c.CombatAimbot.Enabled, c.CombatAimbot.Weight, c.CombatAimbot.Params)

	rc := checks.NewCombatReachCheck(c.CombatReach.Params)
	rc.Configure(c.CombatReach.Enabled, c.CombatReach.Weight, c.CombatReach.Params)

	ac := checks.NewCombatAutoClickerCheck(c.CombatAutoClicker.Params)
	ac.Configure(c.CombatAutoClicker.Enabled, c.CombatAutoClicker.Weight, c.CombatAutoClicker.Params)

	return checks.NewRegistry(
		[]checks.MovementCheck{pt, mv, dr},
		[]checks.CombatCheck{ab, rc, ac},
	)
}

// =============================================================================
// ACTIONS
// =============================================================================

// AlertsConfig holds how an ALERT decision is formatted for dispatch.
type AlertsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Format  string `mapstructure:"format"`
}

// PunishmentType is the closed set of punishment actions the mitigation
// layer can be configured to take once the punishment-confidence gate clears.
type PunishmentType string

const (
	PunishmentKick     PunishmentType = "KICK"
	PunishmentTempMute PunishmentType = "TEMP_MUTE"
	PunishmentFlagOnly PunishmentType = "FLAG_ONLY"
)

func (t PunishmentType) valid() bool {
	switch t {
	case PunishmentKick, PunishmentTempMute, PunishmentFlagOnly:
		return true
	default:
		return false
	}
}

// PunishmentConfig holds the mitigation policy's punishment gate and action type.
type PunishmentConfig struct {
	Enabled   bool           `mapstructure:"enabled"`
	Type      PunishmentType `mapstructure:"type"`
	DelayMs   int64          `mapstructure:"delay_ms"`
	Threshold float64        `mapstructure:"threshold"`
}

// ExemptionsConfig holds the mitigation policy's whitelist and bypass gates.
type ExemptionsConfig struct {
	Whitelist        []string `mapstructure:"whitelist"`
	BypassPermission string   `mapstructure:"bypass_permission"`
	ExemptCreative   bool     `mapstructure:"exempt_creative"`
	ExemptSpectator  bool     `mapstructure:"exempt_spectator"`
}

// =============================================================================
// COMPLETE ENGINE CONFIGURATION
// =============================================================================

// EngineConfig holds the complete detection-engine configuration: every
// flat key named in the external-interfaces configuration surface.
type EngineConfig struct {
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	Windows    WindowsConfig    `mapstructure:"windows"`
	History    HistoryConfig    `mapstructure:"history"`
	Checks     ChecksConfig     `mapstructure:"checks"`
	Actions    struct {
		Alerts     AlertsConfig     `mapstructure:"alerts"`
		Punishment PunishmentConfig `mapstructure:"punishment"`
	} `mapstructure:"actions"`
	Exemptions ExemptionsConfig `mapstructure:"exemptions"`
}

// Default returns the complete default configuration.
func Default() EngineConfig {
	var cfg EngineConfig
	cfg.Thresholds = ThresholdsConfig{ActionConfidence: 0.997, MinSeverity: 0.3}
	cfg.Windows = WindowsConfig{ExemptionMs: 250, CooldownMs: 1500, LagGraceMs: 500}
	cfg.History = HistoryConfig{Size: 64, MedianWindow: 20, EWMAAlpha: 0.3}

	cfg.Checks.PacketTiming.Enabled = true
	cfg.Checks.PacketTiming.Weight = 1.0
	cfg.Checks.PacketTiming.Params = checks.DefaultPacketTimingParams()

	cfg.Checks.MovementConsistency.Enabled = true
	cfg.Checks.MovementConsistency.Weight = 1.0
	cfg.Checks.MovementConsistency.Params = checks.DefaultMovementConsistencyParams()

	cfg.Checks.PredictionDrift.Enabled = true
	cfg.Checks.PredictionDrift.Weight = 1.0
	cfg.Checks.PredictionDrift.Params = checks.DefaultPredictionDriftParams()

	cfg.Checks.CombatAimbot.Enabled = true
	cfg.Checks.CombatAimbot.Weight = 1.0
	cfg.Checks.CombatAimbot.Params = checks.DefaultCombatAimbotParams()

	cfg.Checks.CombatReach.Enabled = true
	cfg.Checks.CombatReach.Weight = 1.0
	cfg.Checks.CombatReach.Params = checks.DefaultCombatReachParams()

	cfg.Checks.CombatAutoClicker.Enabled = true
	cfg.Checks.CombatAutoClicker.Weight = 1.0
	cfg.Checks.CombatAutoClicker.Params = checks.DefaultCombatAutoClickerParams()

	cfg.Actions.Alerts = AlertsConfig{
		Enabled: true,
		Format:  "{player} flagged for {category} (confidence={confidence}, severity={severity}) {explanation}",
	}
	cfg.Actions.Punishment = PunishmentConfig{
		Enabled:   true,
		Type:      PunishmentFlagOnly,
		DelayMs:   0,
		Threshold: 0.999,
	}

	cfg.Exemptions = ExemptionsConfig{
		ExemptCreative:  true,
		ExemptSpectator: true,
	}

	return cfg
}

// FileLoader re-reads configuration from a fixed path on every call,
// letting the admin reload endpoint pick up edits to the config file
// without restarting the process.
type FileLoader struct {
	Path string
}

// Load implements the reload endpoint's ConfigLoader interface.
func (f FileLoader) Load() (EngineConfig, []error) {
	return Load(f.Path)
}

// Load reads defaults, then an optional config file, then environment
// variables, in that order of increasing precedence, using viper's
// layered-source model the way the rest of the pack's config loaders do.
// path may be empty, in which case only defaults and the environment apply.
func Load(path string) (EngineConfig, []error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SENTINEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Default()
	bindDefaults(v, def)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return def, []error{errs.NewConfigurationError("config_file", path, err)}
		}
	}

	// Start from the full default struct (including per-check parameter
	// fields viper has no registered key for) so Unmarshal only overwrites
	// what a config file or environment variable actually sets.
	cfg := def
	if err := v.Unmarshal(&cfg); err != nil {
		return def, []error{errs.NewConfigurationError("unmarshal", path, err)}
	}

	// The median window and EWMA smoothing factor are configured under the
	// stats.* keys registered in bindDefaults, not under history.*.
	cfg.History.MedianWindow = v.GetInt("stats.median_window")
	cfg.History.EWMAAlpha = v.GetFloat64("stats.ewma_alpha")

	return Validate(cfg)
}

// Validate clamps and rejects implausible values per the error-handling
// design: invalid entries are skipped with a warning rather than failing
// startup, and numeric fields are clamped into their valid ranges.
func Validate(cfg EngineConfig) (EngineConfig, []error) {
	var errsOut []error

	clamp01 := func(field string, v *float64) {
		if *v < 0 || *v > 1 {
			errsOut = append(errsOut, errs.NewConfigurationError(field, *v, fmt.Errorf("out of [0,1] range")))
			if *v > 1 {
				*v = 1
			}
			if *v < 0 {
				*v = 0
			}
		}
	}
	clamp01("thresholds.action_confidence", &cfg.Thresholds.ActionConfidence)
	clamp01("thresholds.min_severity", &cfg.Thresholds.MinSeverity)
	clamp01("actions.punishment.threshold", &cfg.Actions.Punishment.Threshold)

	if cfg.History.EWMAAlpha <= 0 || cfg.History.EWMAAlpha > 1 {
		errsOut = append(errsOut, errs.NewConfigurationError("stats.ewma_alpha", cfg.History.EWMAAlpha, fmt.Errorf("must be in (0,1]")))
		cfg.History.EWMAAlpha = 0.3
	}
	if cfg.History.Size <= 0 {
		errsOut = append(errsOut, errs.NewConfigurationError("history.size", cfg.History.Size, fmt.Errorf("must be positive")))
		cfg.History.Size = 64
	}
	if cfg.History.MedianWindow <= 0 {
		errsOut = append(errsOut, errs.NewConfigurationError("stats.median_window", cfg.History.MedianWindow, fmt.Errorf("must be positive")))
		cfg.History.MedianWindow = 20
	}

	if cfg.Actions.Punishment.Type != "" && !cfg.Actions.Punishment.Type.valid() {
		errsOut = append(errsOut, errs.NewConfigurationError("actions.punishment.type", cfg.Actions.Punishment.Type, fmt.Errorf("unknown enum value")))
		cfg.Actions.Punishment.Type = PunishmentFlagOnly
	}

	validWhitelist := make([]string, 0, len(cfg.Exemptions.Whitelist))
	for _, id := range cfg.Exemptions.Whitelist {
		if id == "" {
			errsOut = append(errsOut, errs.NewConfigurationError("exemptions.whitelist", id, fmt.Errorf("empty entry skipped")))
			continue
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			errsOut = append(errsOut, errs.NewConfigurationError("exemptions.whitelist", id, fmt.Errorf("malformed player id skipped: %w", err)))
			continue
		}
		validWhitelist = append(validWhitelist, parsed.String())
	}
	cfg.Exemptions.Whitelist = validWhitelist

	clampWeight := func(field string, w *float64) {
		if *w < 0 {
			*w = 0
			errsOut = append(errsOut, errs.NewConfigurationError(field, *w, fmt.Errorf("weight clamped to 0")))
		}
		if *w > 10 {
			*w = 10
			errsOut = append(errsOut, errs.NewConfigurationError(field, *w, fmt.Errorf("weight clamped to 10")))
		}
	}
	clampWeight("checks.packet_timing.weight", &cfg.Checks.PacketTiming.Weight)
	clampWeight("checks.movement_consistency.weight", &cfg.Checks.MovementConsistency.Weight)
	clampWeight("checks.prediction_drift.weight", &cfg.Checks.PredictionDrift.Weight)
	clampWeight("checks.combat_aimbot.weight", &cfg.Checks.CombatAimbot.Weight)
	clampWeight("checks.combat_reach.weight", &cfg.Checks.CombatReach.Weight)
	clampWeight("checks.combat_autoclicker.weight", &cfg.Checks.CombatAutoClicker.Weight)

	return cfg, errsOut
}

// AggregatorParams derives the aggregator's configuration from the engine config.
func (c EngineConfig) AggregatorParams() aggregate.Params {
	return aggregate.Params{
		ActionConfidence: c.Thresholds.ActionConfidence,
		MinSeverity:      c.Thresholds.MinSeverity,
	}
}

// MitigationParams derives the mitigation policy's configuration from the engine config.
func (c EngineConfig) MitigationParams() mitigate.Params {
	whitelist := make([]model.PlayerID, 0, len(c.Exemptions.Whitelist))
	for _, id := range c.Exemptions.Whitelist {
		// Validate has already parsed and re-canonicalized every surviving
		// entry, so this only fails if MitigationParams is called on an
		// EngineConfig that bypassed Validate.
		if parsed, err := uuid.Parse(id); err == nil {
			whitelist = append(whitelist, model.PlayerID(parsed))
		}
	}

	return mitigate.Params{
		ExemptionMs:         c.Windows.ExemptionMs,
		CooldownMs:          c.Windows.CooldownMs,
		LagGraceMs:          c.Windows.LagGraceMs,
		PunishmentEnabled:   c.Actions.Punishment.Enabled,
		PunishmentThreshold: c.Actions.Punishment.Threshold,
		FlagOnly:            c.Actions.Punishment.Type == PunishmentFlagOnly,
		Whitelist:           whitelist,
		ExemptCreative:      c.Exemptions.ExemptCreative,
		ExemptSpectator:     c.Exemptions.ExemptSpectator,
		BypassCapability:    c.Exemptions.BypassPermission,
	}
}

// PlayerContextConfig derives the per-player ring-buffer/rolling-window sizing from the engine config.
func (c EngineConfig) PlayerContextConfig() playerctx.Config {
	return playerctx.Config{
		HistorySize: c.History.Size,
		WindowSize:  c.History.MedianWindow,
		EWMAAlpha:   c.History.EWMAAlpha,
	}
}

// bindDefaults registers every default value with viper so AutomaticEnv
// and an absent config file still resolve to Default()'s values.
func bindDefaults(v *viper.Viper, def EngineConfig) {
	v.SetDefault("thresholds.action_confidence", def.Thresholds.ActionConfidence)
	v.SetDefault("thresholds.min_severity", def.Thresholds.MinSeverity)
	v.SetDefault("windows.exemption_ms", def.Windows.ExemptionMs)
	v.SetDefault("windows.cooldown_ms", def.Windows.CooldownMs)
	v.SetDefault("windows.lag_grace_ms", def.Windows.LagGraceMs)
	v.SetDefault("history.size", def.History.Size)
	v.SetDefault("stats.median_window", def.History.MedianWindow)
	v.SetDefault("stats.ewma_alpha", def.History.EWMAAlpha)

	v.SetDefault("checks.packet_timing.enabled", def.Checks.PacketTiming.Enabled)
	v.SetDefault("checks.packet_timing.weight", def.Checks.PacketTiming.Weight)
	v.SetDefault("checks.movement_consistency.enabled", def.Checks.MovementConsistency.Enabled)
	v.SetDefault("checks.movement_consistency.weight", def.Checks.MovementConsistency.Weight)
	v.SetDefault("checks.prediction_drift.enabled", def.Checks.PredictionDrift.Enabled)
	v.SetDefault("checks.prediction_drift.weight", def.Checks.PredictionDrift.Weight)
	v.SetDefault("checks.combat_aimbot.enabled", def.Checks.CombatAimbot.Enabled)
	v.SetDefault("checks.combat_aimbot.weight", def.Checks.CombatAimbot.Weight)
	v.SetDefault("checks.combat_reach.enabled", def.Checks.CombatReach.Enabled)
	v.SetDefault("checks.combat_reach.weight", def.Checks.CombatReach.Weight)
	v.SetDefault("checks.combat_autoclicker.enabled", def.Checks.CombatAutoClicker.Enabled)
	v.SetDefault("checks.combat_autoclicker.weight", def.Checks.CombatAutoClicker.Weight)

	v.SetDefault("actions.alerts.enabled", def.Actions.Alerts.Enabled)
	v.SetDefault("actions.alerts.format", def.Actions.Alerts.Format)
	v.SetDefault("actions.punishment.enabled", def.Actions.Punishment.Enabled)
	v.SetDefault("actions.punishment.type", string(def.Actions.Punishment.Type))
	v.SetDefault("actions.punishment.delay_ms", def.Actions.Punishment.DelayMs)
	v.SetDefault("actions.punishment.threshold", def.Actions.Punishment.Threshold)

	v.SetDefault("exemptions.whitelist", def.Exemptions.Whitelist)
	v.SetDefault("exemptions.bypass_permission", def.Exemptions.BypassPermission)
	v.SetDefault("exemptions.exempt_creative", def.Exemptions.ExemptCreative)
	v.SetDefault("exemptions.exempt_spectator", def.Exemptions.ExemptSpectator)
}
