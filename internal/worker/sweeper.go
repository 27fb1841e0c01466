// Package worker runs the periodic loan maintenance sweep.
package worker

import (
	"context"
	"log/slog"
	"time"

	"sfd-loan-engine/internal/metrics"
	"sfd-loan-engine/internal/usecase/reminder"
)

type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (*reminder.SweepResult, error)
}

// Runner calls Sweep once at start and then every interval until the
// context ends. A failed run is logged and retried on the next tick.
type Runner struct {
	sweeper  Sweeper
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewRunner(s Sweeper, interval time.Duration, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{sweeper: s, interval: interval, logger: logger, now: time.Now}
}

func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("starting loan sweeper", "interval", r.interval.String())
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("loan sweeper stopping")
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep and reports whether it fully succeeded.
func (r *Runner) RunOnce(ctx context.Context) bool {
	start := r.now()
	res, err := r.sweeper.Sweep(ctx, start)
	if err != nil {
		metrics.SweepRuns.WithLabelValues("error").Inc()
		r.logger.Error("loan sweep failed", "error", err)
	} else {
		metrics.SweepRuns.WithLabelValues("ok").Inc()
	}
	if res != nil {
		r.logger.Info("loan sweep finished",
			"due_reminders", len(res.Due),
			"defaulted", res.Defaulted,
			"released_reservations", res.Released,
			"took", time.Since(start).String())
		for _, d := range res.Due {
			r.logger.Debug("reminder due", "loan_id", d.LoanID, "sfd_id", d.SfdID, "due_date", d.DueDate)
		}
	}
	return err == nil
}
