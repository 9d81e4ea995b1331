package checks

import "sentinel/internal/history"

// significanceThreshold mirrors the aggregator's own cutoff: a check
// that can't clear it is reported as clean rather than as a low-weight
// signal, keeping explanation maps free of noise. It also labels each
// run's metric outcome as clean or significant.
const significanceThreshold = 0.1

// baseConfig is embedded by every concrete check and carries the two
// knobs every check shares: whether it runs at all, and how much its
// confidence counts if the aggregator ever uses weighted fusion.
type baseConfig struct {
	enabled bool
	weight  float64
}

func (b baseConfig) IsEnabled() bool { return b.enabled }
func (b baseConfig) Weight() float64 { return b.weight }

// anomalyToConfidence is the shared score-to-confidence bridge every
// check uses, re-exported here so check files don't reach into
// history directly for this one function.
func anomalyToConfidence(score, scale float64) float64 {
	return history.AnomalyToConfidence(score, scale)
}
