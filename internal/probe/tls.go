package probe

import (
	"fmt"

	"github.com/hamed0406/bengreen/internal/threadlocal"
)

// TLS checks that per-thread cells start at their declared value on every
// thread and that one thread's changes never show up on another.
type TLS struct {
	Zero *threadlocal.Key
	Full *threadlocal.Key
}

func NewTLS(zeroInit, fullInit uint64) *TLS {
	return &TLS{
		Zero: threadlocal.NewKey("zero", zeroInit),
		Full: threadlocal.NewKey("non-zero", fullInit),
	}
}

func (p *TLS) Name() string { return "tls" }

func (p *TLS) Run() error {
	caller := threadlocal.Pin()
	defer caller.Release()

	if err := p.check(caller); err != nil {
		return fmt.Errorf("calling thread: %w", err)
	}

	// The calling thread now holds mutated values; a new thread must not see them.
	errc := make(chan error, 1)
	go func() {
		th := threadlocal.Pin()
		defer th.Release()
		errc <- p.check(th)
	}()
	if err := <-errc; err != nil {
		return fmt.Errorf("worker thread: %w", err)
	}

	if v := caller.Load(p.Zero); v != p.Zero.Initial()+1 {
		return fmt.Errorf("calling thread: %s cell changed to %#x by worker", p.Zero.Name(), v)
	}
	if v := caller.Load(p.Full); v != p.Full.Initial()-1 {
		return fmt.Errorf("calling thread: %s cell changed to %#x by worker", p.Full.Name(), v)
	}
	return nil
}

// check expects th to hold initial values, then increments Zero and
// decrements Full.
func (p *TLS) check(th *threadlocal.Thread) error {
	if err := expect(p.Zero, th.Load(p.Zero), p.Zero.Initial()); err != nil {
		return err
	}
	if err := expect(p.Zero, th.Add(p.Zero, 1), p.Zero.Initial()+1); err != nil {
		return err
	}
	if err := expect(p.Full, th.Load(p.Full), p.Full.Initial()); err != nil {
		return err
	}
	return expect(p.Full, th.Sub(p.Full, 1), p.Full.Initial()-1)
}

func expect(k *threadlocal.Key, got, want uint64) error {
	if got != want {
		return fmt.Errorf("%s cell is %#x, want %#x", k.Name(), got, want)
	}
	return nil
}
