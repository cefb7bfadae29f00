package probe

import (
	"errors"
	"fmt"
	"io"

	"github.com/hamed0406/bengreen/internal/unsafeop"
)

// DefaultFaultAddr is never mapped in a user process on the targets we probe.
const DefaultFaultAddr uintptr = 0xDEADC0DE

// PageFault reads Addr from a fresh worker goroutine.
//
// In the default mode the read is unguarded and the runtime aborts the whole
// process with a fault. That crash is the expected result: it shows the OS
// delivered the fault. With Trap set the fault is caught in the worker and
// the probe passes once the fault address comes back.
type PageFault struct {
	Addr uintptr
	Trap bool
	Out  io.Writer

	mem *unsafeop.Capability
}

func (p *PageFault) Name() string { return "page_fault" }

func (p *PageFault) Run() error {
	if p.mem == nil {
		return errors.New("no memory capability")
	}

	errc := make(chan error, 1)
	go func() {
		if !p.Trap {
			fmt.Fprintf(p.Out, "%X\n", p.mem.Read(p.Addr))
			errc <- nil
			return
		}
		v, err := p.mem.TryRead(p.Addr)
		var fe *unsafeop.FaultError
		if !errors.As(err, &fe) {
			errc <- fmt.Errorf("read of %#x returned %X without a fault", p.Addr, v)
			return
		}
		fmt.Fprintf(p.Out, "%v\n", fe)
		errc <- nil
	}()
	return <-errc
}
