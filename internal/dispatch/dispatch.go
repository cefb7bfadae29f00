// Package dispatch resolves requested probe names against the registry and
// runs them one at a time.
//
// An unknown name stops the whole invocation with ExitUnknownProbe. A probe
// that fails is reported and the run carries on; probe failure never changes
// the exit status.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/bengreen/internal/domain"
	"github.com/hamed0406/bengreen/internal/metrics"
	"github.com/hamed0406/bengreen/internal/notify"
	"github.com/hamed0406/bengreen/internal/registry"
	"github.com/hamed0406/bengreen/internal/report"
	"github.com/hamed0406/bengreen/internal/stopwatch"
)

const (
	ExitOK           = 0
	ExitUnknownProbe = 1
)

const notifyTimeout = 10 * time.Second

type Dispatcher struct {
	Logger   *zap.Logger
	Registry *registry.Registry
	Reporter *report.Reporter

	// Optional.
	Metrics  *metrics.Metrics
	Notifier notify.Notifier

	// held for the duration of every probe call
	mu sync.Mutex
}

func New(l *zap.Logger, reg *registry.Registry, rep *report.Reporter) *Dispatcher {
	if l == nil {
		l = zap.NewNop()
	}
	return &Dispatcher{Logger: l, Registry: reg, Reporter: rep}
}

// Run executes names in order and returns the process exit status. With no
// names it lists the registry instead.
func (d *Dispatcher) Run(names []string) int {
	if len(names) == 0 {
		d.Reporter.List(d.Registry.All())
		return ExitOK
	}

	for _, name := range names {
		fn, ok := d.Registry.Lookup(name)
		if !ok {
			d.Reporter.NotFound(name)
			d.Metrics.Unknown()
			d.Logger.Warn("probe_not_found", zap.String("probe", name))
			return ExitUnknownProbe
		}

		out := d.invoke(name, fn)
		d.Reporter.Result(name, out)
	}
	return ExitOK
}

// RunOne runs a single probe without writing to the report stream. The
// boolean is false when name is not registered.
func (d *Dispatcher) RunOne(name string) (domain.Outcome, bool) {
	fn, ok := d.Registry.Lookup(name)
	if !ok {
		d.Metrics.Unknown()
		d.Logger.Warn("probe_not_found", zap.String("probe", name))
		return domain.Outcome{}, false
	}
	return d.invoke(name, fn), true
}

func (d *Dispatcher) invoke(name string, fn registry.ProbeFn) domain.Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.Logger.Debug("probe_start", zap.String("probe", name))
	sw := stopwatch.Start()
	err := fn()
	elapsed := sw.Elapsed()

	var out domain.Outcome
	if err != nil {
		out = domain.Failed(err.Error(), elapsed)
		d.Logger.Warn("probe_failed",
			zap.String("probe", name),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		d.notifyFailure(name, out)
	} else {
		out = domain.Passed(elapsed)
		d.Logger.Info("probe_passed",
			zap.String("probe", name),
			zap.Uint64("elapsed_ns", stopwatch.Nanoseconds(elapsed)),
		)
	}
	d.Metrics.Observe(name, out)
	return out
}

func (d *Dispatcher) notifyFailure(name string, out domain.Outcome) {
	if d.Notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	title := fmt.Sprintf("%s: %s failed", d.Reporter.Label, name)
	if err := d.Notifier.Send(ctx, title, out.Message); err != nil {
		d.Logger.Warn("notify_error", zap.String("probe", name), zap.Error(err))
	}
}
