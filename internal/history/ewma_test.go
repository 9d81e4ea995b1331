package history

import (
	"math"
	"testing"
)

func TestEWMAUninitializedReturnsZero(t *testing.T) {
	e := NewEWMA(0.3)
	if got := e.Get(); got != 0 {
		t.Fatalf("Get() on fresh EWMA = %v, want 0", got)
	}
	if e.Initialized() {
		t.Fatal("fresh EWMA should not be initialized")
	}
}

func TestEWMAFirstUpdateExact(t *testing.T) {
	e := NewEWMA(0.3)
	e.Update(42)
	if got := e.Get(); got != 42 {
		t.Fatalf("first Update() then Get() = %v, want 42", got)
	}
}

func TestEWMAConvergesTowardNewValue(t *testing.T) {
	e := NewEWMA(0.3)
	e.Update(0)
	prevDist := math.Abs(e.Get() - 100)
	for i := 0; i < 10; i++ {
		e.Update(100)
		dist := math.Abs(e.Get() - 100)
		if dist > prevDist {
			t.Fatalf("distance to target grew: %v -> %v", prevDist, dist)
		}
		prevDist = dist
	}
	if e.Get() < 90 {
		t.Fatalf("EWMA should have converged close to 100, got %v", e.Get())
	}
}

func TestEWMAResetReturnsToUninitialized(t *testing.T) {
	e := NewEWMA(0.5)
	e.Update(5)
	e.Reset()
	if e.Initialized() {
		t.Fatal("Reset() should clear initialized flag")
	}
	if got := e.Get(); got != 0 {
		t.Fatalf("Get() after Reset() = %v, want 0", got)
	}
}

func TestEWMAAlphaClamped(t *testing.T) {
	e := NewEWMA(5) // out of (0,1], should clamp to 1
	e.Update(1)
	e.Update(10)
	if got := e.Get(); got != 10 {
		t.Fatalf("alpha=1 EWMA should track exactly, got %v", got)
	}
}
