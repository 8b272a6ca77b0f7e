// Package progress throttles byte-count samples from a streaming transfer
// into rate-annotated observer callbacks.
package progress

import (
	"time"
)

// UnknownTotal is passed to observers when the server declared no length.
const UnknownTotal int64 = -1

// DefaultInterval is the minimum time between emitted samples.
const DefaultInterval = 100 * time.Millisecond

// epsilon floors the elapsed time used for rate computation so very short
// intervals cannot divide by zero.
const epsilon = time.Millisecond

// Func observes a transfer: cumulative bytes written, total bytes
// (UnknownTotal when the server did not declare one), and the instantaneous
// rate in bytes per second. Invoked synchronously on the streaming loop.
type Func func(written, total int64, rate float64)

// Options configures a Reporter.
type Options struct {
	// Callback receives samples. A nil callback disables reporting.
	Callback Func

	// Total is the declared total size, UnknownTotal if the server sent none.
	Total int64

	// Start seeds the cumulative counter, e.g. with resumed bytes.
	Start int64

	// Interval is the minimum time between samples. Default: 100ms.
	Interval time.Duration
}

// Reporter accumulates chunk byte counts and invokes the observer at most
// once per interval, plus one unconditional final sample.
type Reporter struct {
	opts        Options
	written     int64
	anchorTime  time.Time
	anchorBytes int64
}

func NewReporter(opts Options) *Reporter {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Total <= 0 {
		opts.Total = UnknownTotal
	}
	return &Reporter{
		opts:        opts,
		written:     opts.Start,
		anchorTime:  time.Now(),
		anchorBytes: opts.Start,
	}
}

// Written reports the cumulative byte count including the start offset.
func (r *Reporter) Written() int64 {
	return r.written
}

// Add records n streamed bytes and emits a sample if the throttle interval
// has elapsed.
func (r *Reporter) Add(n int) {
	r.written += int64(n)
	if r.opts.Callback == nil {
		return
	}
	now := time.Now()
	if now.Sub(r.anchorTime) < r.opts.Interval {
		return
	}
	r.emit(now)
}

// Finish emits the terminal sample regardless of the throttle interval, so
// observers see a final rate even for transfers shorter than one interval.
func (r *Reporter) Finish() {
	if r.opts.Callback == nil {
		return
	}
	r.emit(time.Now())
}

func (r *Reporter) emit(now time.Time) {
	elapsed := now.Sub(r.anchorTime)
	if elapsed < epsilon {
		elapsed = epsilon
	}
	rate := float64(r.written-r.anchorBytes) / elapsed.Seconds()
	r.opts.Callback(r.written, r.opts.Total, rate)
	r.anchorTime = now
	r.anchorBytes = r.written
}
