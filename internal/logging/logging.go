// Package logging sets up the durable log sink for docker-revive.
//
// The log is an append-only text file of timestamped lines, written
// through log/slog. Failures to open the log never abort a run: the
// sink degrades from the configured path to a fallback file in the
// system temp directory, and from there to a discard handler that
// disables logging for the remainder of the run.
//
// Size bookkeeping happens exactly once, at sink creation: if the
// existing file exceeds the configured threshold it is truncated
// (recreated) before the run appends to it. There is no rotation during
// a run — a single pass writes far less than any sane threshold.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// fallbackFileName is the log file name used inside os.TempDir() when
// the configured path cannot be opened.
const fallbackFileName = "docker-revive.log"

// Options configures the log sink.
type Options struct {
	// Path is the primary log file location. Empty selects the fallback
	// location directly.
	Path string

	// MaxSizeBytes is the truncation threshold checked once at startup.
	// Zero or negative disables the size check.
	MaxSizeBytes int64

	// Disabled turns logging off entirely; the returned logger discards
	// everything.
	Disabled bool

	// Verbose lowers the handler level from Info to Debug.
	Verbose bool
}

// Sink is the durable log destination for one run. Close must be called
// when the run finishes; it is a no-op for disabled sinks.
type Sink struct {
	// Logger is ready for use and already tagged with a unique run_id,
	// so lines from interleaved runs (e.g. two boots in quick
	// succession appending to the same file) can be told apart.
	Logger *slog.Logger

	// Path is the file actually written to, empty when logging is
	// disabled.
	Path string

	// Fallback is true when the primary path was unwritable and the
	// temp-dir fallback is in use. The caller surfaces this as a
	// warning on the notification sink.
	Fallback bool

	// Disabled is true when neither location could be opened (or
	// logging was turned off by configuration).
	Disabled bool

	file *os.File
}

// Close flushes and closes the underlying file, if any.
func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

// New builds the log sink for a run. It never returns an error — log
// sink trouble is a degraded condition, not a fatal one — which is why
// the degradation state is carried on the Sink for the caller to report.
func New(opts Options) *Sink {
	if opts.Disabled {
		return &Sink{Logger: discardLogger(), Disabled: true}
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	// Try the primary location first, then the temp-dir fallback.
	// An empty primary path goes straight to the fallback.
	fallbackPath := filepath.Join(os.TempDir(), fallbackFileName)

	if opts.Path != "" {
		if f, err := openLogFile(opts.Path, opts.MaxSizeBytes); err == nil {
			return newFileSink(f, opts.Path, false, level)
		}
	}

	if f, err := openLogFile(fallbackPath, opts.MaxSizeBytes); err == nil {
		return newFileSink(f, fallbackPath, opts.Path != "", level)
	}

	// Both locations failed: logging is disabled for this run, but the
	// run itself continues.
	return &Sink{Logger: discardLogger(), Disabled: true}
}

// newFileSink wraps an open file in a Sink with a text handler and a
// fresh run_id attribute.
func newFileSink(f *os.File, path string, fallback bool, level slog.Level) *Sink {
	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler).With("run_id", uuid.NewString())
	return &Sink{Logger: logger, Path: path, Fallback: fallback, file: f}
}

// openLogFile performs the startup size bookkeeping and opens the file
// for appending. When the existing file exceeds maxSize it is removed
// first, so the run starts against a fresh file.
func openLogFile(path string, maxSize int64) (*os.File, error) {
	if maxSize > 0 {
		if info, err := os.Stat(path); err == nil && info.Size() > maxSize {
			// Remove rather than truncate-in-place so a permission
			// problem on the old file surfaces as an open error below.
			_ = os.Remove(path)
		}
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

// discardLogger returns a logger whose output goes nowhere. Using a real
// handler (rather than a nil logger) keeps every call site unconditional.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
