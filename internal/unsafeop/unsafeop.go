// Package unsafeop is the only place in the harness allowed to touch raw
// memory addresses.
//
// Reading an address that is not mapped has an undefined and usually fatal
// outcome: with Read the Go runtime aborts the whole process with an
// "unexpected fault address" error, and nothing can recover it. That abort
// is the point of the page fault probe, which is the single holder of a
// Capability. No other probe receives one.
package unsafeop

import (
	"fmt"
	"runtime/debug"
	"unsafe"
)

// Capability grants raw memory reads.
type Capability struct {
	_ struct{}
}

// Grant hands out a Capability. Call it only where a probe is wired up.
func Grant() *Capability { return &Capability{} }

// Read loads one byte from addr. An invalid addr crashes the process.
//
//go:noinline
func (c *Capability) Read(addr uintptr) byte {
	return *(*byte)(unsafe.Pointer(addr))
}

// FaultError describes a memory fault the runtime turned into a panic.
type FaultError struct {
	Addr  uintptr
	Cause string
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("fault at %#x: %s", e.Addr, e.Cause)
}

// TryRead is Read with faults turned into a *FaultError instead of a crash.
// It only affects the calling goroutine. Panics that are not memory faults
// are re-raised.
func (c *Capability) TryRead(addr uintptr) (v byte, err error) {
	prev := debug.SetPanicOnFault(true)
	defer debug.SetPanicOnFault(prev)
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		f, ok := r.(interface{ Addr() uintptr })
		if !ok {
			panic(r)
		}
		err = &FaultError{Addr: f.Addr(), Cause: fmt.Sprint(r)}
	}()
	return c.Read(addr), nil
}
