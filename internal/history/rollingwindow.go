package history

import "sync"

// RollingWindow is a fixed-capacity circular buffer of float64 samples
// providing O(n) descriptive statistics. Empty-window statistics return 0.
type RollingWindow struct {
	mu       sync.Mutex
	data     []float64
	capacity int
	size     int
	head     int
}

// NewRollingWindow creates a window with the given capacity (clamped to
// at least 1).
func NewRollingWindow(capacity int) *RollingWindow {
	if capacity < 1 {
		capacity = 1
	}
	return &RollingWindow{
		data:     make([]float64, capacity),
		capacity: capacity,
		head:     -1,
	}
}

// Add appends a sample, overwriting the oldest once full.
func (w *RollingWindow) Add(v float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.head = (w.head + 1) % w.capacity
	w.data[w.head] = v
	if w.size < w.capacity {
		w.size++
	}
}

// ToArray returns a freshly-allocated oldest->newest snapshot.
func (w *RollingWindow) ToArray() []float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *RollingWindow) snapshotLocked() []float64 {
	out := make([]float64, w.size)
	for i := 0; i < w.size; i++ {
		age := w.size - 1 - i
		idx := (w.head - age + w.capacity) % w.capacity
		out[i] = w.data[idx]
	}
	return out
}

// Clear empties the window.
func (w *RollingWindow) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.size = 0
	w.head = -1
}

// Size returns the number of stored samples.
func (w *RollingWindow) Size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Median returns the median of the currently stored samples, or 0 if empty.
func (w *RollingWindow) Median() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return median(w.snapshotLocked())
}

// MAD returns the median absolute deviation, or 0 if empty.
func (w *RollingWindow) MAD() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return mad(w.snapshotLocked())
}

// Mean returns the arithmetic mean, or 0 if empty.
func (w *RollingWindow) Mean() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return mean(w.snapshotLocked())
}

// StdDev returns the sample (Bessel-corrected) standard deviation, or 0
// if fewer than 2 samples.
func (w *RollingWindow) StdDev() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return stdDev(w.snapshotLocked())
}

// Min returns the minimum sample, or 0 if empty.
func (w *RollingWindow) Min() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	vals := w.snapshotLocked()
	if len(vals) == 0 {
		return 0
	}
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Max returns the maximum sample, or 0 if empty.
func (w *RollingWindow) Max() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	vals := w.snapshotLocked()
	if len(vals) == 0 {
		return 0
	}
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
