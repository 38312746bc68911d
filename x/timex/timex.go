package timex

import "time"

var epoch = time.Now()

// Millis returns a monotonically increasing millisecond counter.
// The zero point is process start, not the wall clock, so the counter
// survives wall-clock adjustments.
func Millis() int64 { return int64(time.Since(epoch) / time.Millisecond) }

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }
