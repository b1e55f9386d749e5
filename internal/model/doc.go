// Package model defines the domain types and value objects for the
// docker-revive CLI.
//
// This package contains pure data structures with no external dependencies.
// All entities (ContainerRecord, RunSummary, Outcome, etc.) are transient
// representations reconstructed from Docker API queries at runtime — the
// tool performs a single pass and persists no state between runs.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
