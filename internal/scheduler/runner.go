package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/alerting"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/notify"
)

// notifyTimeout bounds run-report delivery after a run.
const notifyTimeout = 30 * time.Second

// Runner performs one bounded generation run and reports it to operators.
type Runner struct {
	gen       *alerting.Generator
	notifiers []notify.Notifier
	timeout   time.Duration
	logger    *slog.Logger
}

// NewRunner creates a runner. A zero timeout means runs are bounded only by
// the caller's context.
func NewRunner(gen *alerting.Generator, notifiers []notify.Notifier, timeout time.Duration, logger *slog.Logger) *Runner {
	return &Runner{gen: gen, notifiers: notifiers, timeout: timeout, logger: logger}
}

// RunOnce runs the generator and dispatches a run summary. It returns the
// generator's report and error; notifier failures are only logged.
func (r *Runner) RunOnce(ctx context.Context) (*alerting.Report, error) {
	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	report, err := r.gen.Run(runCtx)
	if report != nil && report.Err() != nil {
		r.logger.Warn("alert generation had failures", "failed", report.Totals().Failed)
	}

	if len(r.notifiers) > 0 {
		// Deliver the summary even when the run was cancelled.
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if nerr := notify.Dispatch(nctx, r.notifiers, notify.Summarize(report, err)); nerr != nil {
			r.logger.Error("send run report", "error", nerr)
		}
	}
	return report, err
}
