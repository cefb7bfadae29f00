// Package cycles reads a monotonic CPU cycle counter.
//
// On amd64 this is the time-stamp counter. Other architectures fall back to
// monotonic nanoseconds since process start, which is still monotonic but
// counts time rather than cycles.
package cycles

// Counter returns the current counter value. Only differences between two
// readings on the same machine are meaningful.
type Counter func() uint64

// Read is the platform counter.
func Read() uint64 { return read() }

// Source names the hardware or software behind Read.
func Source() string { return source }
