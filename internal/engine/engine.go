package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/shinji-kodama/docker-revive/internal/model"
	"github.com/shinji-kodama/docker-revive/internal/notify"
)

// Starter issues a start command for a named container. Satisfied by
// *docker.Client in production and by fakes in tests.
type Starter interface {
	StartContainer(ctx context.Context, name string) error
}

// Engine processes a container snapshot and produces a RunSummary plus
// one outcome notification per container.
type Engine struct {
	// Starter issues start commands.
	Starter Starter

	// Notifier receives per-container outcome lines and the final
	// summary/advisory.
	Notifier notify.Notifier

	// Logger receives the same outcomes as durable log lines.
	Logger *slog.Logger

	// Pause is the fixed delay after each processed container. It keeps
	// interleaved console and log writes ordered and is not needed for
	// correctness; tests set it to zero.
	Pause time.Duration

	// Sleep is injectable for tests. Nil means time.Sleep.
	Sleep func(time.Duration)
}

// decision captures the classification of one container before any side
// effect happens.
type decision struct {
	// start is true when a start command should be issued.
	start bool

	// outcome is the final bucket when start is false. Ignored when
	// start is true — the start attempt's result decides between
	// started and failed.
	outcome model.Outcome

	// reason is the human-readable explanation carried into the
	// notification and log line.
	reason string
}

// decide classifies a single container. This is the whole restart
// policy-matrix in one place, applied independently per container:
//
//  1. unmanaged policy → skip
//  2. already running → nothing to do
//  3. always → start
//  4. unless-stopped: start when forced, or when the last exit was a
//     known non-zero code (a crash rather than a deliberate stop).
//     A zero or unknown exit code means Docker itself would not have
//     restarted the container, so neither does this tool.
func decide(rec model.ContainerRecord, force bool) decision {
	if !rec.Policy.Managed() {
		return decision{
			outcome: model.OutcomeSkipped,
			reason:  "restart policy " + rec.Policy.String() + " is not managed",
		}
	}

	if rec.Running {
		return decision{
			outcome: model.OutcomeAlreadyRunning,
			reason:  "restart policy already satisfied",
		}
	}

	if rec.Policy == model.PolicyAlways {
		return decision{start: true, reason: "policy always, not running"}
	}

	// From here: unless-stopped, not running.
	if force {
		return decision{start: true, reason: "policy unless-stopped, forced"}
	}
	if rec.ExitCodeKnown && rec.ExitCode != 0 {
		return decision{start: true, reason: "policy unless-stopped, last exit was a crash"}
	}

	return decision{
		outcome: model.OutcomeSkipped,
		reason:  "policy unless-stopped, looks deliberately stopped",
	}
}

// Process runs the decision algorithm over the snapshot in enumeration
// order and returns the aggregate summary. Order does not affect
// correctness, only output ordering. Start failures are per-item
// recoverable: they are counted and logged, and processing continues.
func (e *Engine) Process(ctx context.Context, records []model.ContainerRecord, force bool) model.RunSummary {
	sleep := e.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var summary model.RunSummary

	for _, rec := range records {
		outcome, reason := e.processOne(ctx, rec, force)
		summary.Record(outcome)

		e.Notifier.Infof("%s: %s (%s)", rec.Name, outcome, reason)
		e.Logger.Info("container processed",
			"container", rec.Name,
			"policy", rec.Policy,
			"outcome", outcome,
			"reason", reason)

		if e.Pause > 0 {
			sleep(e.Pause)
		}
	}

	e.Notifier.Infof("Summary: %s", summary.String())
	e.Logger.Info("run complete",
		"started", summary.Started,
		"already_running", summary.AlreadyRunning,
		"skipped", summary.Skipped,
		"failed", summary.Failed)

	if summary.NothingRevived() {
		// Informational, not an error: a host with no managed
		// containers exits 0.
		e.Notifier.Infof("No eligible containers were found or started.")
		e.Logger.Info("no eligible containers")
	}

	return summary
}

// processOne classifies one container and performs the start side effect
// when the decision calls for it.
func (e *Engine) processOne(ctx context.Context, rec model.ContainerRecord, force bool) (model.Outcome, string) {
	d := decide(rec, force)
	if !d.start {
		return d.outcome, d.reason
	}

	if err := e.Starter.StartContainer(ctx, rec.Name); err != nil {
		e.Logger.Error("start command failed", "container", rec.Name, "error", err)
		return model.OutcomeFailed, "start command failed: " + err.Error()
	}
	return model.OutcomeStarted, d.reason
}
