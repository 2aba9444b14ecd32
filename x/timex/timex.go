package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

var epoch = time.Now()

// MonoMs returns milliseconds since process start from the monotonic clock.
// Unlike NowMs it never steps backwards when the wall clock is adjusted.
func MonoMs() int64 { return time.Since(epoch).Milliseconds() }

// Millis converts a millisecond count to a Duration.
func Millis[T ~int | ~int32 | ~int64 | ~uint16 | ~uint32](ms T) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
