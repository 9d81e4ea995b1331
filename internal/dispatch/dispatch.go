// Package dispatch delivers a Decision to the outside world: alert
// sinks (console, websocket broadcast) and punishment executors
// (no-op, webhook). Both are small interfaces so the engine can be
// wired against fakes in tests without touching a real transport.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"sentinel/internal/logging"
	"sentinel/internal/model"
)

// AlertSink receives every ALERT/FLAG/PUNISH decision for delivery to
// operators. Implementations must not block the calling goroutine for
// long; the engine calls sinks synchronously on the ingest path.
type AlertSink interface {
	Alert(d model.Decision)
}

// ConsoleSink logs decisions through the package's structured logger.
// It is the always-on default sink, grounded on the teacher's
// console-logging conventions for every other subsystem.
type ConsoleSink struct{}

func NewConsoleSink() ConsoleSink { return ConsoleSink{} }

func (ConsoleSink) Alert(d model.Decision) {
	if d.Violation == nil {
		return
	}
	logging.Decision(d.Violation.Name, d.Violation.Category, d.Action.String(), d.Reason)
}

// Broadcaster is satisfied by the admin API's websocket hub; dispatch
// depends only on this narrow interface so it never imports the API
// package.
type Broadcaster interface {
	Broadcast(event string, data interface{})
}

// WebSocketSink forwards every decision to connected admin clients.
type WebSocketSink struct {
	hub Broadcaster
}

func NewWebSocketSink(hub Broadcaster) WebSocketSink {
	return WebSocketSink{hub: hub}
}

func (s WebSocketSink) Alert(d model.Decision) {
	if d.Violation == nil || s.hub == nil {
		return
	}
	s.hub.Broadcast("decision", map[string]interface{}{
		"player":     d.Violation.Name,
		"category":   d.Violation.Category,
		"confidence": d.Violation.Confidence,
		"severity":   d.Violation.Severity,
		"action":     d.Action.String(),
	})
}

// MultiSink fans one decision out to several sinks.
type MultiSink []AlertSink

func (m MultiSink) Alert(d model.Decision) {
	for _, s := range m {
		s.Alert(d)
	}
}

// Punisher carries out a PUNISH decision against the host game server.
type Punisher interface {
	Punish(ctx context.Context, d model.Decision) error
}

// NoopPunisher records nothing and does nothing; it is the safe
// default when no punishment executor is configured.
type NoopPunisher struct{}

func NewNoopPunisher() NoopPunisher { return NoopPunisher{} }

func (NoopPunisher) Punish(ctx context.Context, d model.Decision) error { return nil }

// WebhookPunisher posts the decision as JSON to a configured URL,
// letting the host game server own the actual kick/mute/ban logic.
type WebhookPunisher struct {
	URL    string
	Client *http.Client
}

// NewWebhookPunisher constructs a punisher posting to url with a
// bounded-timeout HTTP client.
func NewWebhookPunisher(url string) *WebhookPunisher {
	return &WebhookPunisher{
		URL:    url,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

type webhookPayload struct {
	PlayerUUID string  `json:"player_uuid"`
	PlayerName string  `json:"player_name"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Action     string  `json:"action"`
}

func (p *WebhookPunisher) Punish(ctx context.Context, d model.Decision) error {
	if d.Violation == nil {
		return nil
	}
	payload := webhookPayload{
		PlayerUUID: d.Violation.PlayerID.String(),
		PlayerName: d.Violation.Name,
		Category:   d.Violation.Category,
		Confidence: d.Violation.Confidence,
		Action:     d.Action.String(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}
