package probe

import (
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/bengreen/internal/cycles"
)

// Switch has the caller and one worker each yield the processor Yields
// times, bracketing the exchange with the cycle counter.
type Switch struct {
	Yields  int
	Counter cycles.Counter
	Out     io.Writer
}

func (p *Switch) Name() string { return "switch" }

func (p *Switch) Run() error {
	counter := p.Counter
	if counter == nil {
		counter = cycles.Read
	}
	start := counter()

	var g errgroup.Group
	var j int
	g.Go(func() error {
		for j < p.Yields {
			runtime.Gosched()
			j++
		}
		return nil
	})

	i := 0
	for i < p.Yields {
		runtime.Gosched()
		i++
	}

	if err := g.Wait(); err != nil {
		return err
	}

	end := counter()
	var delta uint64
	if end > start {
		delta = end - start
	}
	fmt.Fprintf(p.Out, "P %d C %d T %d\n", i, j, delta)
	return nil
}
