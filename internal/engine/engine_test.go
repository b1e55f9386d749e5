package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/docker-revive/internal/model"
)

// fakeStarter records start attempts and fails for the container names
// listed in failFor.
type fakeStarter struct {
	started []string
	failFor map[string]bool
}

func (f *fakeStarter) StartContainer(_ context.Context, name string) error {
	f.started = append(f.started, name)
	if f.failFor[name] {
		return errors.New("daemon refused the start")
	}
	return nil
}

// silentNotifier satisfies notify.Notifier while recording nothing but
// the line count, which the advisory tests need.
type silentNotifier struct {
	lines []string
}

func (s *silentNotifier) Infof(format string, args ...any) {
	s.lines = append(s.lines, fmt.Sprintf(format, args...))
}

func (s *silentNotifier) Warnf(format string, args ...any) {
	s.lines = append(s.lines, fmt.Sprintf(format, args...))
}

// newTestEngine wires an Engine with a fake starter, a recording
// notifier, a discard logger and no pause.
func newTestEngine(failFor map[string]bool) (*Engine, *fakeStarter, *silentNotifier) {
	starter := &fakeStarter{failFor: failFor}
	notifier := &silentNotifier{}
	e := &Engine{
		Starter:  starter,
		Notifier: notifier,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return e, starter, notifier
}

// rec is a shorthand constructor for snapshot records.
func rec(name string, policy model.RestartPolicy, running bool, exitCode int, exitKnown bool) model.ContainerRecord {
	return model.ContainerRecord{
		Name:          name,
		Policy:        policy,
		Running:       running,
		ExitCode:      exitCode,
		ExitCodeKnown: exitKnown,
	}
}

// TestProcess_AlwaysPolicyStoppedContainerIsStarted covers the basic
// restore case: policy=always, not running → a start is attempted and
// succeeds.
func TestProcess_AlwaysPolicyStoppedContainerIsStarted(t *testing.T) {
	e, starter, _ := newTestEngine(nil)

	summary := e.Process(context.Background(), []model.ContainerRecord{
		rec("web", model.PolicyAlways, false, 0, true),
	}, false)

	assert.Equal(t, []string{"web"}, starter.started, "a start must be issued for web")
	assert.Equal(t, 1, summary.Started)
	assert.Equal(t, 1, summary.Total())
}

// TestProcess_UnlessStoppedCleanExitIsSkipped verifies the conservative
// default: unless-stopped with a clean exit and no force looks like a
// deliberate stop and must not be started.
func TestProcess_UnlessStoppedCleanExitIsSkipped(t *testing.T) {
	e, starter, _ := newTestEngine(nil)

	summary := e.Process(context.Background(), []model.ContainerRecord{
		rec("db", model.PolicyUnlessStopped, false, 0, true),
	}, false)

	assert.Empty(t, starter.started, "no start may be attempted for a deliberate stop")
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Started)
}

// TestProcess_UnlessStoppedCrashExitIsStarted verifies the crash
// heuristic: a known non-zero exit code (here 137, SIGKILL) counts as a
// crash, so the restart guarantee is honored without force.
func TestProcess_UnlessStoppedCrashExitIsStarted(t *testing.T) {
	e, starter, _ := newTestEngine(nil)

	summary := e.Process(context.Background(), []model.ContainerRecord{
		rec("db", model.PolicyUnlessStopped, false, 137, true),
	}, false)

	assert.Equal(t, []string{"db"}, starter.started)
	assert.Equal(t, 1, summary.Started)
}

// TestProcess_UnlessStoppedForcedIsStarted verifies that force overrides
// the deliberate-stop heuristic.
func TestProcess_UnlessStoppedForcedIsStarted(t *testing.T) {
	e, starter, _ := newTestEngine(nil)

	summary := e.Process(context.Background(), []model.ContainerRecord{
		rec("db", model.PolicyUnlessStopped, false, 0, true),
	}, true)

	assert.Equal(t, []string{"db"}, starter.started)
	assert.Equal(t, 1, summary.Started)
}

// TestProcess_UnmanagedPolicyIsSkipped verifies step 1 of the decision
// algorithm: an unmanaged policy is skipped regardless of running state
// or exit code.
func TestProcess_UnmanagedPolicyIsSkipped(t *testing.T) {
	e, starter, _ := newTestEngine(nil)

	summary := e.Process(context.Background(), []model.ContainerRecord{
		rec("cache", model.PolicyOther, false, 1, true),
	}, true)

	assert.Empty(t, starter.started,
		"no start may be attempted for an unmanaged policy, even with force")
	assert.Equal(t, 1, summary.Skipped)
}

// TestProcess_RunningContainersAreAlreadyRunning verifies step 2: a
// running container lands in the already-running bucket regardless of
// policy or force.
func TestProcess_RunningContainersAreAlreadyRunning(t *testing.T) {
	e, starter, _ := newTestEngine(nil)

	summary := e.Process(context.Background(), []model.ContainerRecord{
		rec("web", model.PolicyAlways, true, 0, true),
		rec("db", model.PolicyUnlessStopped, true, 1, true),
	}, true)

	assert.Empty(t, starter.started)
	assert.Equal(t, 2, summary.AlreadyRunning)
}

// TestProcess_StartFailureIsRecordedAndProcessingContinues verifies the
// per-item error taxonomy: a failing start command is counted as failed
// and the remaining containers are still processed.
func TestProcess_StartFailureIsRecordedAndProcessingContinues(t *testing.T) {
	e, starter, _ := newTestEngine(map[string]bool{"web": true})

	summary := e.Process(context.Background(), []model.ContainerRecord{
		rec("web", model.PolicyAlways, false, 0, true),
		rec("api", model.PolicyAlways, false, 0, true),
	}, false)

	require.Equal(t, []string{"web", "api"}, starter.started,
		"the failure on web must not stop processing of api")
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Started)
	assert.Equal(t, 2, summary.Total())
}

// TestProcess_BucketsSumToTotal verifies the summary invariant over a
// mixed snapshot: every container lands in exactly one bucket and the
// counters sum to the container count.
func TestProcess_BucketsSumToTotal(t *testing.T) {
	e, _, _ := newTestEngine(map[string]bool{"broken": true})

	records := []model.ContainerRecord{
		rec("web", model.PolicyAlways, false, 0, true),           // started
		rec("broken", model.PolicyAlways, false, 1, true),        // failed
		rec("db", model.PolicyUnlessStopped, false, 0, true),     // skipped (clean exit)
		rec("worker", model.PolicyUnlessStopped, false, 2, true), // started (crash)
		rec("cache", model.PolicyOther, false, 0, false),         // skipped (unmanaged)
		rec("proxy", model.PolicyAlways, true, 0, true),          // already running
	}

	summary := e.Process(context.Background(), records, false)

	assert.Equal(t, 2, summary.Started)
	assert.Equal(t, 1, summary.AlreadyRunning)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, len(records), summary.Total(),
		"buckets must be mutually exclusive and sum to the container count")
}

// TestProcess_EmptySnapshotRaisesAdvisory verifies the zero-container
// case: an all-zero summary and the advisory notice, with no error.
func TestProcess_EmptySnapshotRaisesAdvisory(t *testing.T) {
	e, starter, notifier := newTestEngine(nil)

	summary := e.Process(context.Background(), nil, false)

	assert.Empty(t, starter.started)
	assert.Zero(t, summary.Total())
	assert.Contains(t, notifier.lines, "No eligible containers were found or started.",
		"the advisory notice must be emitted when nothing was revived")
}

// TestProcess_AdvisoryNotRaisedWhenSomethingRan verifies the advisory is
// suppressed as soon as anything was started or found running.
func TestProcess_AdvisoryNotRaisedWhenSomethingRan(t *testing.T) {
	e, _, notifier := newTestEngine(nil)

	e.Process(context.Background(), []model.ContainerRecord{
		rec("proxy", model.PolicyAlways, true, 0, true),
	}, false)

	assert.NotContains(t, notifier.lines, "No eligible containers were found or started.")
}

// TestProcess_PausesBetweenContainers verifies the fixed inter-container
// pause is honored once per container through the injected sleep.
func TestProcess_PausesBetweenContainers(t *testing.T) {
	e, _, _ := newTestEngine(nil)
	e.Pause = 100 * time.Millisecond

	var slept []time.Duration
	e.Sleep = func(d time.Duration) { slept = append(slept, d) }

	e.Process(context.Background(), []model.ContainerRecord{
		rec("web", model.PolicyAlways, false, 0, true),
		rec("db", model.PolicyOther, false, 0, true),
	}, false)

	assert.Equal(t, []time.Duration{100 * time.Millisecond, 100 * time.Millisecond}, slept)
}

// TestDecide_UnknownExitCodeIsTreatedAsDeliberateStop verifies the
// heuristic's unknown branch directly: an unknown exit code without
// force must not trigger a start.
func TestDecide_UnknownExitCodeIsTreatedAsDeliberateStop(t *testing.T) {
	d := decide(rec("db", model.PolicyUnlessStopped, false, 0, false), false)

	assert.False(t, d.start)
	assert.Equal(t, model.OutcomeSkipped, d.outcome)
}

// TestDecide_AlwaysIgnoresExitCode verifies that policy=always starts
// regardless of what the last exit looked like.
func TestDecide_AlwaysIgnoresExitCode(t *testing.T) {
	for _, exit := range []int{0, 1, 137} {
		d := decide(rec("web", model.PolicyAlways, false, exit, true), false)
		assert.True(t, d.start, "always must start regardless of exit code %d", exit)
	}
}
