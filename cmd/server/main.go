// Command server runs the detection engine's admin surface — the
// status/reload/exempt endpoints, Prometheus metrics, and the admin
// WebSocket that broadcasts decisions as they're dispatched. The
// detection pipeline itself is a library: the hosting game server
// process embeds internal/engine directly and calls
// Engine.IngestTelemetry / Engine.IngestCombat per event from its own
// single-ingest-owner-per-player event loop. This binary wires the
// pipeline up and exposes the operator-facing surfaces around it.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sentinel/internal/aggregate"
	"sentinel/internal/analytics"
	"sentinel/internal/api"
	"sentinel/internal/clock"
	"sentinel/internal/config"
	"sentinel/internal/dispatch"
	"sentinel/internal/engine"
	"sentinel/internal/mitigate"
	"sentinel/internal/playerctx"
)

func main() {
	log.Println("sentinel detection engine starting")

	configPath := getEnvWithDefault("SENTINEL_CONFIG_PATH", "")
	loader := config.FileLoader{Path: configPath}
	cfg, warnings := loader.Load()
	for _, w := range warnings {
		log.Printf("config warning: %v", w)
	}

	sysClock := clock.NewSystemClock()

	players := playerctx.NewPlayerStore(cfg.PlayerContextConfig())
	combat := playerctx.NewCombatStore(cfg.PlayerContextConfig())

	registry := cfg.Checks.BuildRegistry()
	aggregator := aggregate.NewAggregator(cfg.AggregatorParams())
	policy := mitigate.NewPolicy(cfg.MitigationParams(), nil)

	var uplink *analytics.Uplink
	analyticsPath := getEnvWithDefault("SENTINEL_ANALYTICS_PATH", "")
	if analyticsPath != "" {
		f, err := os.OpenFile(analyticsPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Printf("analytics uplink disabled: %v", err)
		} else {
			uplink = analytics.NewUplink(f)
			uplink.Start()
			log.Printf("analytics uplink: %s", analyticsPath)
		}
	}

	debugCfg := api.DefaultObservabilityConfig()
	if os.Getenv("SENTINEL_DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(debugCfg); err != nil {
			log.Printf("debug server disabled: %v", err)
		}
	}

	// The WebSocket hub is constructed before the engine so the same
	// hub instance can back both the dispatch sink the engine calls on
	// the hot path and the admin API server the operator connects to.
	hub := api.NewWebSocketHub()

	sinks := dispatch.MultiSink{
		dispatch.NewConsoleSink(),
		dispatch.NewWebSocketSink(hub),
	}

	var punisher dispatch.Punisher = dispatch.NewNoopPunisher()
	if webhookURL := getEnvWithDefault("SENTINEL_PUNISH_WEBHOOK_URL", ""); webhookURL != "" {
		punisher = dispatch.NewWebhookPunisher(webhookURL)
	}

	eng := engine.New(engine.Config{
		Clock:      sysClock,
		WallClock:  wallClock{},
		Players:    players,
		Combat:     combat,
		Registry:   registry,
		Aggregator: aggregator,
		Policy:     policy,
		Sink:       sinks,
		Punisher:   punisher,
		Uplink:     uplink,
	})

	server := api.NewServerWithHub(eng, loader, hub)

	addr := ":" + getEnvWithDefault("SENTINEL_ADMIN_PORT", "9090")
	go func() {
		log.Printf("admin API on http://localhost%s", addr)
		if err := server.Start(addr); err != nil {
			log.Fatalf("admin API failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("ready, press Ctrl+C to stop")
	<-quit

	log.Println("shutting down")
	server.Stop()
	if uplink != nil {
		uplink.Stop()
	}
	log.Println("stopped")
}

// wallClock supplies wall-clock milliseconds for analytics timestamps,
// kept distinct from the monotonic clock used everywhere else in the
// pipeline.
type wallClock struct{}

func (wallClock) UnixMilli() int64 {
	return time.Now().UnixMilli()
}

func getEnvWithDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
