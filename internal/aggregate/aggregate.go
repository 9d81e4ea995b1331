// Package aggregate fuses the per-check results for one event into at
// most one Violation, applying the significance and action-confidence
// gates that keep low-signal noise from ever reaching mitigation.
package aggregate

import (
	"sync"

	"sentinel/internal/model"
)

const significanceThreshold = 0.1

// Params configures the aggregator's decision gate.
type Params struct {
	ActionConfidence float64
	MinSeverity      float64
}

// DefaultParams returns the specification's default gate.
func DefaultParams() Params {
	return Params{
		ActionConfidence: 0.997,
		MinSeverity:      0.3,
	}
}

// Aggregator fuses check results into violations under a fixed set of params.
type Aggregator struct {
	mu     sync.RWMutex
	params Params
}

// NewAggregator constructs an Aggregator with the given params.
func NewAggregator(p Params) *Aggregator {
	return &Aggregator{params: p}
}

// Configure replaces the aggregator's gate parameters, safe to call
// concurrently with Fuse (an admin reload races the ingest path).
func (a *Aggregator) Configure(p Params) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.params = p
}

// Params returns the aggregator's current gate parameters.
func (a *Aggregator) Params() Params {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.params
}

// Fuse applies the significance filter, max-confidence/severity fusion,
// and the action-confidence gate to one event's check results. It
// returns (violation, true) when a violation clears every gate, or
// (zero, false) otherwise.
func (a *Aggregator) Fuse(playerID model.PlayerID, name string, results []model.CheckResult, nanoTime, ping int64) (model.Violation, bool) {
	significant := make([]model.CheckResult, 0, len(results))
	for _, r := range results {
		if r.Significant(significanceThreshold) {
			significant = append(significant, r)
		}
	}
	if len(significant) == 0 {
		return model.Violation{}, false
	}

	maxConf := 0.0
	maxSev := 0.0
	primary := ""
	for _, r := range significant {
		if r.Confidence > maxConf {
			maxConf = r.Confidence
			primary = r.Check
		}
		if r.Severity > maxSev {
			maxSev = r.Severity
		}
	}

	a.mu.RLock()
	params := a.params
	a.mu.RUnlock()

	if maxConf < params.ActionConfidence || maxSev < params.MinSeverity {
		return model.Violation{}, false
	}

	explanation := map[string]string{}
	for _, r := range significant {
		for k, v := range r.Explanation {
			if _, exists := explanation[k]; !exists {
				explanation[k] = v
			}
		}
	}

	return model.Violation{
		PlayerID:     playerID,
		Name:         name,
		Category:     primary,
		Confidence:   maxConf,
		Severity:     maxSev,
		NanoTime:     nanoTime,
		Ping:         ping,
		Contributors: significant,
		Explanation:  explanation,
	}, true
}

// FuseWeighted is an experimental alternative fusion strategy offered
// for tuning; the decision gate in Fuse never calls it.
func FuseWeighted(results []model.CheckResult, weights map[string]float64) float64 {
	confs := make([]float64, len(results))
	ws := make([]float64, len(results))
	for i, r := range results {
		confs[i] = r.Confidence
		w, ok := weights[r.Check]
		if !ok {
			w = 1.0
		}
		ws[i] = w
	}
	return fuseWeighted(confs, ws)
}

func fuseWeighted(confs, weights []float64) float64 {
	if len(confs) != len(weights) || len(confs) == 0 {
		return 0
	}
	var total, sum float64
	for i := range confs {
		total += weights[i]
		sum += confs[i] * weights[i]
	}
	if total <= 0 {
		return 0
	}
	return sum / total
}
