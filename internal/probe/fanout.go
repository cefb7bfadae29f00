package probe

import (
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/multierr"
)

// FanOut first hogs the CPU for Preempt, then starts Workers goroutines.
// Each worker starts Children goroutines that each run one shell command,
// runs a command of its own, and joins its children. Every goroutine and
// child process is joined before Run returns.
type FanOut struct {
	Workers  int
	Children int
	Preempt  time.Duration
	Shell    string
	Out      io.Writer
}

func (p *FanOut) Name() string { return "thread" }

func (p *FanOut) Run() error {
	var (
		mu   sync.Mutex
		errs error
	)
	record := func(err error) {
		mu.Lock()
		errs = multierr.Append(errs, err)
		mu.Unlock()
	}

	fmt.Fprintln(p.Out, "Trying to stop benOS microkernel...")
	spin(p.Preempt)
	fmt.Fprintln(p.Out, "benOS microkernel preempted!")

	fmt.Fprintln(p.Out, "Trying to kill benOS microkernel...")

	var workers sync.WaitGroup
	for i := 0; i < p.Workers; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()

			var children sync.WaitGroup
			for j := 0; j < p.Children; j++ {
				children.Add(1)
				go func() {
					defer children.Done()
					record(p.sh(fmt.Sprintf("echo %d:%d", i, j)))
				}()
			}

			record(p.sh(fmt.Sprintf("echo %d", i)))
			children.Wait()
		}()
	}
	workers.Wait()

	if errs != nil {
		return errs
	}

	fmt.Fprintln(p.Out, "benOS microkernel survived thread test!")
	return nil
}

// spin busy-waits without yielding so the scheduler has to preempt it.
func spin(d time.Duration) {
	start := time.Now()
	for time.Since(start) < d {
	}
}

func (p *FanOut) sh(script string) error {
	cmd := exec.Command(p.Shell, "-c", script)
	cmd.Stdout = p.Out
	cmd.Stderr = p.Out
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn %q: %w", script, err)
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait %q: %w", script, err)
	}
	return nil
}
