// Package probe holds the diagnostic routines the harness can run. Each
// probe exercises one primitive of the operating environment and reports
// success or a descriptive error.
package probe

import (
	"io"
	"math"
	"sync"

	"github.com/hamed0406/bengreen/internal/config"
	"github.com/hamed0406/bengreen/internal/cycles"
	"github.com/hamed0406/bengreen/internal/registry"
	"github.com/hamed0406/bengreen/internal/unsafeop"
)

// Probe is one named diagnostic routine.
type Probe interface {
	Name() string
	Run() error
}

// Deps are the collaborators probes print to and are configured from.
type Deps struct {
	// Out receives the probes' own diagnostic lines.
	Out    io.Writer
	Config config.Probes
}

// Defaults builds the standard probe set in listing order.
func Defaults(d Deps) []Probe {
	out := &lockedWriter{w: d.Out}
	c := d.Config
	return []Probe{
		&FSRoundTrip{
			Root:    c.FSRoot,
			Dir:     DefaultFSDir,
			File:    DefaultFSFile,
			Payload: []byte(DefaultFSPayload),
			Cleanup: c.FSCleanup,
		},
		&PageFault{
			Addr: DefaultFaultAddr,
			Trap: c.FaultMode == config.FaultModeTrap,
			Out:  out,
			mem:  unsafeop.Grant(),
		},
		&Switch{
			Yields:  c.SwitchYields,
			Counter: cycles.Read,
			Out:     out,
		},
		&TCPFin{
			Endpoint:    c.TCPEndpoint,
			Payload:     []byte(DefaultTCPPayload),
			DialTimeout: c.TCPDialTimeout,
		},
		&FanOut{
			Workers:  c.ThreadWorkers,
			Children: c.ThreadChildren,
			Preempt:  c.ThreadPreempt,
			Shell:    c.ThreadShell,
			Out:      out,
		},
		NewTLS(0, math.MaxUint64),
	}
}

// Register adds probes to b in the given order.
func Register(b *registry.Builder, probes ...Probe) *registry.Builder {
	for _, p := range probes {
		b.Register(p.Name(), p.Run)
	}
	return b
}

// lockedWriter serialises writes from concurrent workers and child
// processes sharing one output stream.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return len(p), nil
	}
	return l.w.Write(p)
}
