// Package gate implements the availability gate: readiness polling that
// ensures required tools and services exist before the restore pass runs.
//
// Readiness checks are organized into ordered groups. Within a group a
// later check is only probed once every earlier check has passed in the
// current poll iteration — probing daemon reachability is undefined while
// the Docker endpoint itself is absent. Groups run back-to-back, each
// with its own elapsed-time and retry accounting and its own wait budget.
//
// With retry disabled the gate performs exactly one poll pass and any
// unsatisfied check is fatal. With retry enabled it sleeps, re-probes
// only the checks not yet satisfied, and gives up once the accumulated
// elapsed time reaches the configured maximum.
package gate
