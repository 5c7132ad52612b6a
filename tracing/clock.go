package tracing

import "time"

// processStart anchors the monotonic clock used for span timestamps and for
// otlpexport's epochStartMs bridging. time.Since(processStart) carries the
// monotonic reading embedded in time.Time, so wall-clock adjustments (NTP,
// manual clock changes) don't skew elapsed-time math.
var processStart = time.Now()

// nowMonoNanos returns nanoseconds elapsed since process start, monotonic.
func nowMonoNanos() int64 {
	return time.Since(processStart).Nanoseconds()
}

// MonoNowNanos exposes nowMonoNanos for otlpexport's epochStartMs
// computation (wallClockMsNow − monotonicNowMs).
func MonoNowNanos() int64 {
	return nowMonoNanos()
}
