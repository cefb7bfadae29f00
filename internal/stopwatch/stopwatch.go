package stopwatch

import "time"

// Stopwatch measures wall-clock time from a monotonic start instant.
type Stopwatch struct {
	start time.Time
}

func Start() Stopwatch {
	return Stopwatch{start: time.Now()}
}

func (s Stopwatch) Elapsed() time.Duration {
	return time.Since(s.start)
}

// Nanoseconds flattens d into seconds*1e9 + sub-second nanoseconds.
// Negative durations clamp to zero.
func Nanoseconds(d time.Duration) uint64 {
	if d < 0 {
		return 0
	}
	secs := uint64(d / time.Second)
	sub := uint64(d % time.Second)
	return secs*1_000_000_000 + sub
}
