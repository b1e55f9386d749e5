// Package engine implements the restart decision engine: the
// per-container classification that decides which stopped containers
// get a start command during a restore pass.
//
// Processing is strictly sequential. Each container is classified into
// exactly one outcome bucket (started, already-running, skipped,
// failed); a failing start command is recorded and processing continues
// with the next container. The engine runs to completion once begun —
// there is no cancellation beyond the context plumbed into individual
// start calls.
package engine
