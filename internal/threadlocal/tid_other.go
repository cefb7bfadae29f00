//go:build !linux

package threadlocal

import "sync/atomic"

var nextID atomic.Int64

// Without a portable gettid, each Pin gets its own id. Isolation still holds
// because a pinned goroutine owns its OS thread until Release.
func threadID() int { return int(nextID.Add(1)) }
