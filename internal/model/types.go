package model

import (
	"fmt"
	"strings"
)

// RestartPolicy classifies a container's Docker restart policy for the
// purposes of the restore pass. Only "always" and "unless-stopped" are
// managed by this tool; every other value (including "no", "on-failure"
// and an empty policy) is collapsed into PolicyOther and left alone.
type RestartPolicy string

const (
	// PolicyAlways means Docker should keep the container running at all
	// times. Containers with this policy are unconditionally eligible for
	// a restart when found stopped.
	PolicyAlways RestartPolicy = "always"

	// PolicyUnlessStopped means Docker restarts the container unless it
	// was deliberately stopped by the user. Whether a stopped container
	// with this policy is restarted depends on its last exit code and the
	// force flag.
	PolicyUnlessStopped RestartPolicy = "unless-stopped"

	// PolicyOther covers every restart policy this tool does not manage
	// ("no", "on-failure", empty). Such containers are always skipped.
	PolicyOther RestartPolicy = "other"
)

// ParseRestartPolicy maps a raw Docker restart policy name onto the
// three-way classification used by the decision engine. Unlike the parse
// helpers for closed enums, this never fails: unknown values are by
// definition unmanaged and map to PolicyOther.
func ParseRestartPolicy(s string) RestartPolicy {
	switch RestartPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyAlways:
		return PolicyAlways
	case PolicyUnlessStopped:
		return PolicyUnlessStopped
	default:
		return PolicyOther
	}
}

// String returns the string representation of the policy,
// satisfying fmt.Stringer for CLI output and logging.
func (p RestartPolicy) String() string {
	return string(p)
}

// Managed reports whether containers with this policy fall under the
// tool's restart guarantee.
func (p RestartPolicy) Managed() bool {
	return p == PolicyAlways || p == PolicyUnlessStopped
}

// ContainerRecord is a read-only snapshot of a single container, fetched
// fresh from the Docker API at the start of a run. The engine never
// mutates a record; issuing a start changes the container's real state
// out-of-band, which is not re-observed within the same run.
type ContainerRecord struct {
	// Name is the container name, unique per Docker daemon instance.
	// The Docker API's leading "/" prefix is already stripped.
	Name string `json:"name"`

	// Policy is the classified restart policy.
	Policy RestartPolicy `json:"policy"`

	// Running reports whether the container was running at snapshot time.
	Running bool `json:"running"`

	// ExitCode is the exit code of the container's last run. Only
	// meaningful when ExitCodeKnown is true.
	ExitCode int `json:"exitCode"`

	// ExitCodeKnown is false when the exit status could not be
	// determined (e.g. the inspect response carried no state). An
	// unknown exit code is treated like a clean exit by the
	// unless-stopped heuristic.
	ExitCodeKnown bool `json:"exitCodeKnown"`
}

// Outcome is the bucket a container lands in after the decision engine
// has processed it. Every container is classified into exactly one
// outcome; the buckets are mutually exclusive and sum to the total
// container count in RunSummary.
type Outcome string

const (
	// OutcomeStarted means a start command was issued and succeeded.
	OutcomeStarted Outcome = "started"

	// OutcomeAlreadyRunning means the container was running at snapshot
	// time, so the restart policy is already satisfied.
	OutcomeAlreadyRunning Outcome = "already-running"

	// OutcomeSkipped means no start was attempted: either the policy is
	// not managed by this tool, or an unless-stopped container looked
	// deliberately stopped.
	OutcomeSkipped Outcome = "skipped"

	// OutcomeFailed means a start command was issued but returned an
	// error. This is recorded per container and never aborts the run.
	OutcomeFailed Outcome = "failed"
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	return string(o)
}

// RunSummary accumulates per-container outcomes over one restore pass.
// Counters only ever increase; the summary is reported once after the
// last container has been processed.
type RunSummary struct {
	Started        int `json:"started"`
	AlreadyRunning int `json:"alreadyRunning"`
	Skipped        int `json:"skipped"`
	Failed         int `json:"failed"`
}

// Record increments the counter for the given outcome. Unknown outcome
// values are counted as skipped so the bucket-sum invariant holds even
// under a programming error upstream.
func (s *RunSummary) Record(o Outcome) {
	switch o {
	case OutcomeStarted:
		s.Started++
	case OutcomeAlreadyRunning:
		s.AlreadyRunning++
	case OutcomeFailed:
		s.Failed++
	default:
		s.Skipped++
	}
}

// Total returns the number of containers processed. By construction this
// equals Started+AlreadyRunning+Skipped+Failed.
func (s *RunSummary) Total() int {
	return s.Started + s.AlreadyRunning + s.Skipped + s.Failed
}

// NothingRevived reports whether the run neither started a container nor
// found one already running. The caller raises an advisory notice in
// this case — it is informational, not an error.
func (s *RunSummary) NothingRevived() bool {
	return s.Started == 0 && s.AlreadyRunning == 0
}

// String renders the summary as a single human-readable line for the
// end-of-run report.
func (s *RunSummary) String() string {
	return fmt.Sprintf("started %d, already running %d, skipped %d, failed %d (total %d)",
		s.Started, s.AlreadyRunning, s.Skipped, s.Failed, s.Total())
}

// ExitCode defines the CLI exit codes. Scripts and boot hooks use these
// to determine whether the restore pass ran at all.
type ExitCode int

const (
	// ExitSuccess indicates normal completion, including the "no
	// containers found" and "nothing eligible" cases.
	ExitSuccess ExitCode = 0

	// ExitFatal indicates the run aborted before any container was
	// processed: a required tool was absent with retry disabled, the
	// availability gate timed out, or the configuration was invalid.
	ExitFatal ExitCode = 1
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
