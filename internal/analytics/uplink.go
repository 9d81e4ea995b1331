// Package analytics implements the bounded, non-blocking violation
// uplink: a single background writer drains a capacity-1000 queue and
// serializes each violation as one newline-delimited JSON object,
// modeled on the teacher's bounded circular-buffer event log but
// simplified to a buffered channel since the uplink has exactly one
// writer goroutine rather than the teacher's multi-producer design.
package analytics

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"sentinel/internal/logging"
	"sentinel/internal/metrics"
	"sentinel/internal/model"
)

const queueCapacity = 1000

// Record is the analytics wire format: one JSON object per violation.
type Record struct {
	Type        string  `json:"type"`
	PlayerUUID  string  `json:"player_uuid"`
	PlayerName  string  `json:"player_name"`
	Category    string  `json:"category"`
	Confidence  float64 `json:"confidence"`
	Severity    float64 `json:"severity"`
	TimestampMs int64   `json:"timestamp"`
}

// NewRecord builds the wire record for a violation, using nowUnixMs as
// the emitted timestamp (the violation's own NanoTime is monotonic,
// not wall-clock, so callers pass the wall time explicitly).
func NewRecord(v model.Violation, nowUnixMs int64) Record {
	return Record{
		Type:        "violation",
		PlayerUUID:  v.PlayerID.String(),
		PlayerName:  v.Name,
		Category:    v.Category,
		Confidence:  v.Confidence,
		Severity:    v.Severity,
		TimestampMs: nowUnixMs,
	}
}

// Uplink is a bounded, non-blocking async writer. Offer never blocks
// the caller: if the queue is full, the record is dropped and counted
// rather than applying backpressure to the detection pipeline.
type Uplink struct {
	out   io.Writer
	queue chan Record

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	totalCount   uint64
	droppedCount uint64
}

// NewUplink constructs an Uplink writing newline-delimited JSON to out.
func NewUplink(out io.Writer) *Uplink {
	return &Uplink{
		out:      out,
		queue:    make(chan Record, queueCapacity),
		stopChan: make(chan struct{}),
	}
}

// Start launches the background writer goroutine. Safe to call once;
// subsequent calls are no-ops while already running.
func (u *Uplink) Start() {
	if u.running.Load() {
		return
	}
	u.running.Store(true)
	u.wg.Add(1)
	go u.writeLoop()
}

// Stop drains and shuts down the writer, waiting up to 5 seconds for
// the background goroutine to exit.
func (u *Uplink) Stop() {
	u.stopOnce.Do(func() {
		u.running.Store(false)
		close(u.stopChan)

		done := make(chan struct{})
		go func() {
			u.wg.Wait()
			close(done)
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		select {
		case <-done:
		case <-ctx.Done():
			logging.Warn("analytics uplink stop timed out waiting for writer to drain")
		}
	})
}

// Offer enqueues a record without blocking. It returns false if the
// uplink isn't running (nothing is counted) or if the queue is full, in
// which case the record is dropped and the drop counter incremented.
func (u *Uplink) Offer(r Record) bool {
	if !u.running.Load() {
		return false
	}
	select {
	case u.queue <- r:
		atomic.AddUint64(&u.totalCount, 1)
		return true
	default:
		atomic.AddUint64(&u.droppedCount, 1)
		metrics.RecordAnalyticsDropped()
		logging.Dropped("analytics_queue_full", atomic.LoadUint64(&u.droppedCount))
		return false
	}
}

func (u *Uplink) writeLoop() {
	defer u.wg.Done()
	enc := json.NewEncoder(u.out)
	for {
		select {
		case r := <-u.queue:
			if err := enc.Encode(r); err != nil {
				logging.Warn("analytics uplink encode failed: %v", err)
			}
		case <-u.stopChan:
			for {
				select {
				case r := <-u.queue:
					_ = enc.Encode(r)
				default:
					return
				}
			}
		}
	}
}

// Stats reports the uplink's counters for the admin status surface.
type Stats struct {
	Total   uint64
	Dropped uint64
	Pending int
}

func (u *Uplink) Stats() Stats {
	return Stats{
		Total:   atomic.LoadUint64(&u.totalCount),
		Dropped: atomic.LoadUint64(&u.droppedCount),
		Pending: len(u.queue),
	}
}
