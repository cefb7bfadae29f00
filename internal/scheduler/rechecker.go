package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/bengreen/internal/domain"
	"github.com/hamed0406/bengreen/internal/repo"
)

// ProbeRunner runs one named probe; *dispatch.Dispatcher satisfies it.
type ProbeRunner interface {
	RunOne(name string) (domain.Outcome, bool)
}

// Rechecker re-runs a fixed list of probes on an interval inside the API
// server and records each run. Probes still run one at a time, in order.
type Rechecker struct {
	Logger   *zap.Logger
	Runner   ProbeRunner
	Runs     repo.RunStore
	Probes   []string
	Interval time.Duration
}

func NewRechecker(
	logger *zap.Logger,
	runner ProbeRunner,
	runs repo.RunStore,
	probes []string,
	interval time.Duration,
) *Rechecker {
	if interval < 0 {
		interval = 0
	}
	return &Rechecker{
		Logger:   logger,
		Runner:   runner,
		Runs:     runs,
		Probes:   probes,
		Interval: interval,
	}
}

// Run starts the loop. It does an immediate pass, then runs each tick.
// Stops when ctx is cancelled.
func (r *Rechecker) Run(ctx context.Context) {
	if r.Interval == 0 || len(r.Probes) == 0 {
		r.Logger.Info("rechecker_disabled")
		return
	}
	t := time.NewTicker(r.Interval)
	defer t.Stop()

	r.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			r.Logger.Info("rechecker_stopped")
			return
		case <-t.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Rechecker) runOnce(ctx context.Context) {
	for _, name := range r.Probes {
		if ctx.Err() != nil {
			return
		}
		started := time.Now().UTC()
		out, ok := r.Runner.RunOne(name)
		if !ok {
			r.Logger.Warn("rechecker_unknown_probe", zap.String("probe", name))
			continue
		}
		run := &domain.Run{
			Probe:      name,
			Outcome:    out,
			StartedAt:  started,
			FinishedAt: time.Now().UTC(),
		}
		if err := r.Runs.Append(ctx, run); err != nil {
			r.Logger.Warn("rechecker_append_error",
				zap.String("probe", name),
				zap.Error(err),
			)
			continue
		}
		r.Logger.Debug("rechecker_checked",
			zap.String("probe", name),
			zap.String("status", string(out.Status)),
			zap.Duration("elapsed", out.Duration),
			zap.String("message", out.Message),
		)
	}
}
