// Package logging provides the engine's structured, low-volume log lines.
//
// The hot path never logs per-event; only decisions, check errors, and
// lifecycle transitions get a line, mirroring the teacher's discipline of
// logging joins/kills/respawns but never every tick.
package logging

import "log"

// Decision logs a non-NONE decision for a player.
func Decision(player, category, action, reason string) {
	log.Printf("🛡️ [%s] %s -> %s (%s)", player, category, action, reason)
}

// CheckFailure logs a recovered check panic or error.
func CheckFailure(check, player string, err error) {
	log.Printf("⚠️ check %q failed for %s: %v", check, player, err)
}

// DispatchFailure logs an alert/punishment dispatch failure.
func DispatchFailure(sink string, err error) {
	log.Printf("⚠️ dispatch %q failed: %v", sink, err)
}

// Dropped logs an analytics uplink drop.
func Dropped(reason string, total uint64) {
	log.Printf("🚫 analytics drop (%s), total dropped=%d", reason, total)
}

// Lifecycle logs a join/quit/teleport/world-change transition.
func Lifecycle(event, player string) {
	log.Printf("👤 %s: %s", event, player)
}

// Config logs a configuration reload summary.
func Config(msg string) {
	log.Printf("⚙️ %s", msg)
}

// Info logs a generic informational line.
func Info(format string, args ...interface{}) {
	log.Printf("ℹ️ "+format, args...)
}

// Warn logs a generic warning line.
func Warn(format string, args ...interface{}) {
	log.Printf("⚠️ "+format, args...)
}
