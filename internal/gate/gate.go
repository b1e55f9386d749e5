package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shinji-kodama/docker-revive/internal/notify"
)

// Sentinel errors returned by Await. Callers treat both as fatal: no
// container is processed after a gate failure.
var (
	// ErrUnavailable is returned when retry is disabled and a required
	// check failed its single poll pass.
	ErrUnavailable = errors.New("required tool not available")

	// ErrTimedOut is returned when retry is enabled and the wait budget
	// was exhausted before every check in the group passed.
	ErrTimedOut = errors.New("timed out waiting for required tools")
)

// Probe is a side-effect-free boolean readiness test, e.g. "does the
// Docker daemon respond to a ping".
type Probe func(ctx context.Context) bool

// Check pairs a probe with a human-readable label used in progress
// notifications and log lines.
type Check struct {
	Label string
	Probe Probe
}

// Group is an ordered list of checks that must all pass before the gate
// advances. Order matters: a later check is only probed once all earlier
// checks in the group have passed in the current iteration.
type Group struct {
	Name   string
	Checks []Check
}

// WaitState tracks one group's wait accounting. It is recomputed per
// group invocation; the runtime group and the query group never share
// elapsed time or retry counts.
type WaitState struct {
	// Elapsed is the accumulated sleep time across retry iterations.
	Elapsed time.Duration

	// Retries is the number of sleep-then-reprobe iterations performed.
	Retries int

	// Deadline is the wait budget this group was given.
	Deadline time.Duration
}

// Gate polls readiness groups until they pass or the budget runs out.
type Gate struct {
	// RetryEnabled selects between a single poll pass and the
	// sleep-and-reprobe loop.
	RetryEnabled bool

	// RetryInterval is the sleep between poll iterations.
	RetryInterval time.Duration

	// MaxWait is the per-group wait budget.
	MaxWait time.Duration

	// Notifier receives progress lines: retry ticks, newly available
	// tools, group readiness and timeouts.
	Notifier notify.Notifier

	// Logger receives the same transitions as durable log lines.
	Logger *slog.Logger

	// Sleep is the suspension primitive, injectable so tests run
	// without real waiting. Nil means time.Sleep.
	Sleep func(time.Duration)
}

// Await polls a single group until every check passes, the budget is
// exhausted, or — with retry disabled — the first pass fails. The
// returned WaitState is valid in all cases and reports how long the
// group was waited on.
func (g *Gate) Await(ctx context.Context, group Group) (WaitState, error) {
	state := WaitState{Deadline: g.MaxWait}
	satisfied := make([]bool, len(group.Checks))

	sleep := g.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	for {
		pending := g.poll(ctx, group, satisfied)
		if pending == "" {
			g.Notifier.Infof("All %s checks passed.", group.Name)
			g.Logger.Info("readiness group ready", "group", group.Name,
				"retries", state.Retries, "elapsed", state.Elapsed)
			return state, nil
		}

		if !g.RetryEnabled {
			g.Logger.Error("required tool missing and retry disabled",
				"group", group.Name, "check", pending)
			return state, fmt.Errorf("%s: %w", pending, ErrUnavailable)
		}

		if state.Elapsed >= g.MaxWait {
			g.Notifier.Infof("Gave up waiting for %s after %s.", pending, state.Elapsed)
			g.Logger.Error("readiness group timed out", "group", group.Name,
				"check", pending, "retries", state.Retries, "elapsed", state.Elapsed)
			return state, fmt.Errorf("%s after %s (%d retries): %w",
				pending, state.Elapsed, state.Retries, ErrTimedOut)
		}

		sleep(g.RetryInterval)
		state.Elapsed += g.RetryInterval
		state.Retries++
		g.Notifier.Infof("Waiting for %s... (retry %d, %s/%s)",
			pending, state.Retries, state.Elapsed, g.MaxWait)
	}
}

// poll runs one iteration over the group's checks in declared order.
// Checks already satisfied in a previous iteration are not re-probed.
// It returns the label of the first unsatisfied check, or "" when the
// whole group has passed. On the first failure the iteration stops, so
// later checks are never probed before their predecessors hold.
func (g *Gate) poll(ctx context.Context, group Group, satisfied []bool) string {
	for i, check := range group.Checks {
		if satisfied[i] {
			continue
		}
		if !check.Probe(ctx) {
			return check.Label
		}
		satisfied[i] = true
		g.Notifier.Infof("%s is available.", check.Label)
		g.Logger.Info("tool available", "group", group.Name, "check", check.Label)
	}
	return ""
}

// AwaitAll runs the groups sequentially, each with an independent
// WaitState and the full wait budget. The first failure aborts — a
// later group is never probed after an earlier one failed.
func (g *Gate) AwaitAll(ctx context.Context, groups []Group) error {
	for _, group := range groups {
		if _, err := g.Await(ctx, group); err != nil {
			return err
		}
	}
	return nil
}
