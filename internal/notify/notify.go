// Package notify defines the notification sink for live, human-readable
// progress output.
//
// The availability gate and the decision engine report progress through
// the Notifier interface rather than writing to stdout directly. This
// keeps the components testable (tests substitute a recording fake) and
// keeps the console format in one place. Durable logging is a separate
// concern handled by internal/logging; callers that want both write to
// both sinks explicitly.
package notify

import (
	"fmt"
	"io"
	"os"
)

// Notifier accepts human-readable progress, outcome and summary lines
// for live display. Implementations must be safe for strictly
// sequential use; no concurrent callers exist in this tool.
type Notifier interface {
	// Infof reports normal progress (gate ticks, outcomes, summary).
	Infof(format string, args ...any)

	// Warnf reports degraded-but-continuing conditions, such as the log
	// sink falling back to a secondary location.
	Warnf(format string, args ...any)
}

// Console is the production Notifier. Info lines go to Out (stdout by
// default) and warnings to Err (stderr), so that piping stdout captures
// only the run report.
type Console struct {
	Out io.Writer
	Err io.Writer
}

// NewConsole returns a Console writing to the process's stdout/stderr.
func NewConsole() *Console {
	return &Console{Out: os.Stdout, Err: os.Stderr}
}

// Infof writes a single line to the console's Out writer.
func (c *Console) Infof(format string, args ...any) {
	fmt.Fprintf(c.Out, format+"\n", args...)
}

// Warnf writes a single "Warning:" prefixed line to the Err writer.
func (c *Console) Warnf(format string, args ...any) {
	fmt.Fprintf(c.Err, "Warning: "+format+"\n", args...)
}
