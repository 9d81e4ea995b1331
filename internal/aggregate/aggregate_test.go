package aggregate

import (
	"testing"

	"github.com/google/uuid"

	"sentinel/internal/model"
)

func TestFuseReturnsFalseWhenNothingSignificant(t *testing.T) {
	a := NewAggregator(DefaultParams())
	results := []model.CheckResult{model.Clean("movement_consistency"), model.Clean("packet_timing")}
	_, ok := a.Fuse(uuid.New(), "steve", results, 0, 0)
	if ok {
		t.Fatal("all-clean results should never produce a violation")
	}
}

func TestFuseGatesOnActionConfidence(t *testing.T) {
	a := NewAggregator(DefaultParams())
	results := []model.CheckResult{
		{Check: "movement_consistency", Confidence: 0.5, Severity: 0.9, Explanation: map[string]string{}},
	}
	_, ok := a.Fuse(uuid.New(), "steve", results, 0, 0)
	if ok {
		t.Fatal("confidence below actionConfidence should not produce a violation")
	}
}

func TestFuseGatesOnMinSeverity(t *testing.T) {
	a := NewAggregator(DefaultParams())
	results := []model.CheckResult{
		{Check: "movement_consistency", Confidence: 0.999, Severity: 0.1, Explanation: map[string]string{}},
	}
	_, ok := a.Fuse(uuid.New(), "steve", results, 0, 0)
	if ok {
		t.Fatal("severity below minSeverity should not produce a violation")
	}
}

func TestFuseProducesViolationWithPrimaryCategory(t *testing.T) {
	a := NewAggregator(DefaultParams())
	results := []model.CheckResult{
		{Check: "movement_consistency", Confidence: 0.998, Severity: 0.9, Explanation: map[string]string{"a": "1"}},
		{Check: "packet_timing", Confidence: 0.3, Severity: 0.5, Explanation: map[string]string{"b": "2"}},
	}
	id := uuid.New()
	v, ok := a.Fuse(id, "steve", results, 12345, 40)
	if !ok {
		t.Fatal("expected a violation")
	}
	if v.Category != "movement_consistency" {
		t.Fatalf("Category = %q, want movement_consistency (highest confidence)", v.Category)
	}
	if v.Confidence != 0.998 {
		t.Fatalf("Confidence = %v, want 0.998", v.Confidence)
	}
	if v.PlayerID != id {
		t.Fatal("PlayerID should be carried through")
	}
	if v.Explanation["a"] != "1" {
		t.Fatal("explanation from contributing checks should be merged")
	}
}

func TestFuseWeightedExperimentalHelper(t *testing.T) {
	results := []model.CheckResult{
		{Check: "a", Confidence: 1.0},
		{Check: "b", Confidence: 0.0},
	}
	got := FuseWeighted(results, map[string]float64{"a": 3, "b": 1})
	if got < 0.74 || got > 0.76 {
		t.Fatalf("FuseWeighted = %v, want ~0.75", got)
	}
}
