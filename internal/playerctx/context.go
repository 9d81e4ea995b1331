// Package playerctx owns the per-player mutable state: telemetry/feature
// history, rolling windows, EWMA trackers, and the timing/flag/counter
// fields the mitigation policy and lifecycle hooks read and write.
//
// A PlayerContext is single-owner: exactly one ingest goroutine mutates a
// given player's context at a time (the scheduling model's "single
// ingest owner" guarantee, analogous to the teacher's Engine.mu-guarded
// per-tick player loop, except here ownership is per-player rather than
// global). The Store mapping id->context is the only structure that must
// itself be concurrency-safe across readers; it is a map guarded by a
// sync.RWMutex.
package playerctx

import (
	"sync"

	"sentinel/internal/history"
	"sentinel/internal/model"
)

// Config controls the sizing of every history structure a context owns.
type Config struct {
	HistorySize   int // telemetry/feature/combat ring buffer capacity
	WindowSize    int // rolling window capacity (ping, packet delta, aim, reach, ...)
	EWMAAlpha     float64
}

// DefaultConfig returns the specification's default sizing.
func DefaultConfig() Config {
	return Config{
		HistorySize: 64,
		WindowSize:  20,
		EWMAAlpha:   0.3,
	}
}

// PlayerContext holds all movement-side history and state for one player.
type PlayerContext struct {
	ID   model.PlayerID
	Name string

	cfg Config

	Telemetry *history.RingBuffer[model.TelemetryInput]
	Features  *history.RingBuffer[model.Features]

	PingWindow       *history.RollingWindow
	PacketDeltaWindow *history.RollingWindow

	PingEWMA        *history.EWMA
	HorizSpeedEWMA  *history.EWMA
	HorizAccelEWMA  *history.EWMA

	LastTelemetryNanos int64
	LastAlertNanos     int64
	ExemptUntilNanos   int64
	CooldownUntilNanos int64

	Teleporting   bool
	WorldChanging bool
	RecentJoin    bool

	Gamemode model.Gamemode

	TotalViolations   int64
	RecentViolations  int64
}

// NewPlayerContext constructs a context with the given sizing config.
func NewPlayerContext(id model.PlayerID, name string, cfg Config) *PlayerContext {
	return &PlayerContext{
		ID:                id,
		Name:              name,
		cfg:               cfg,
		Telemetry:         history.NewRingBuffer[model.TelemetryInput](cfg.HistorySize),
		Features:          history.NewRingBuffer[model.Features](cfg.HistorySize),
		PingWindow:        history.NewRollingWindow(cfg.WindowSize),
		PacketDeltaWindow: history.NewRollingWindow(cfg.WindowSize),
		PingEWMA:          history.NewEWMA(cfg.EWMAAlpha),
		HorizSpeedEWMA:    history.NewEWMA(cfg.EWMAAlpha),
		HorizAccelEWMA:    history.NewEWMA(cfg.EWMAAlpha),
	}
}

// Reset clears all histories and counters, as performed on a world
// change. Timing scalars and flags are left untouched by the caller's
// discretion (lifecycle hooks set them explicitly around a reset).
func (c *PlayerContext) Reset() {
	c.Telemetry.Clear()
	c.Features.Clear()
	c.PingWindow.Clear()
	c.PacketDeltaWindow.Clear()
	c.PingEWMA.Reset()
	c.HorizSpeedEWMA.Reset()
	c.HorizAccelEWMA.Reset()
	c.TotalViolations = 0
	c.RecentViolations = 0
}

// FlagsExempt reports whether the player is currently inside an exemption
// window by any of the gate's own-state conditions (step 4 of the
// mitigation policy ordering is evaluated by the caller against `now`;
// this helper covers the flag-only portion).
func (c *PlayerContext) FlagsExempt() bool {
	return c.Teleporting || c.WorldChanging || c.RecentJoin
}

// CombatContext holds combat-side history and state for one player,
// analogous to PlayerContext but for attack events.
type CombatContext struct {
	ID   model.PlayerID
	Name string

	Attacks *history.RingBuffer[model.CombatInput]

	AimErrorWindow     *history.RollingWindow
	SnapAngleWindow    *history.RollingWindow
	ReachWindow        *history.RollingWindow
	AttackIntervalWindow *history.RollingWindow
	HitRateWindow      *history.RollingWindow

	AimErrorEWMA *history.EWMA

	TotalAttacks   int64
	TotalHits      int64
	TotalCriticals int64

	LastTargetID          *model.PlayerID
	ConsecutiveTargetHits int
}

// NewCombatContext constructs a combat context with the given sizing config.
func NewCombatContext(id model.PlayerID, name string, cfg Config) *CombatContext {
	return &CombatContext{
		ID:                   id,
		Name:                 name,
		Attacks:              history.NewRingBuffer[model.CombatInput](cfg.HistorySize),
		AimErrorWindow:       history.NewRollingWindow(cfg.WindowSize),
		SnapAngleWindow:      history.NewRollingWindow(cfg.WindowSize),
		ReachWindow:          history.NewRollingWindow(cfg.WindowSize),
		AttackIntervalWindow: history.NewRollingWindow(cfg.WindowSize),
		HitRateWindow:        history.NewRollingWindow(cfg.WindowSize),
		AimErrorEWMA:         history.NewEWMA(cfg.EWMAAlpha),
	}
}

// Reset clears all combat history and counters.
func (c *CombatContext) Reset() {
	c.Attacks.Clear()
	c.AimErrorWindow.Clear()
	c.SnapAngleWindow.Clear()
	c.ReachWindow.Clear()
	c.AttackIntervalWindow.Clear()
	c.HitRateWindow.Clear()
	c.AimErrorEWMA.Reset()
	c.TotalAttacks = 0
	c.TotalHits = 0
	c.TotalCriticals = 0
	c.LastTargetID = nil
	c.ConsecutiveTargetHits = 0
}

// Store is a concurrency-safe mapping from player id to context. It is
// safe for multiple readers; mutation of an individual context's fields
// is serialized by that player's single ingest owner, not by the Store.
type Store[T any] struct {
	mu   sync.RWMutex
	data map[model.PlayerID]T
	new  func(model.PlayerID, string) T
}

// NewStore creates a Store whose GetOrCreate uses newFn to build a fresh
// entry on first access for a player.
func NewStore[T any](newFn func(model.PlayerID, string) T) *Store[T] {
	return &Store[T]{
		data: make(map[model.PlayerID]T),
		new:  newFn,
	}
}

// GetOrCreate returns the existing entry for id, or lazily constructs one.
func (s *Store[T]) GetOrCreate(id model.PlayerID, name string) T {
	s.mu.RLock()
	if v, ok := s.data[id]; ok {
		s.mu.RUnlock()
		return v
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.data[id]; ok {
		return v
	}
	v := s.new(id, name)
	s.data[id] = v
	return v
}

// Get returns the entry for id if it exists.
func (s *Store[T]) Get(id model.PlayerID) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[id]
	return v, ok
}

// Remove destroys the entry for id, if any.
func (s *Store[T]) Remove(id model.PlayerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
}

// Clear removes every entry.
func (s *Store[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[model.PlayerID]T)
}

// Len returns the number of tracked entries.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// NewPlayerStore builds the concrete Store for PlayerContext.
func NewPlayerStore(cfg Config) *Store[*PlayerContext] {
	return NewStore[*PlayerContext](func(id model.PlayerID, name string) *PlayerContext {
		return NewPlayerContext(id, name, cfg)
	})
}

// NewCombatStore builds the concrete Store for CombatContext.
func NewCombatStore(cfg Config) *Store[*CombatContext] {
	return NewStore[*CombatContext](func(id model.PlayerID, name string) *CombatContext {
		return NewCombatContext(id, name, cfg)
	})
}
