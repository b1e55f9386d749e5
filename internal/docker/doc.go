// Package docker provides Docker Engine API access for the docker-revive
// CLI.
//
// This package handles:
//   - lazy client initialization with automatic socket detection
//     (Linux, macOS, Windows), so the availability gate can poll for the
//     endpoint appearing during boot
//   - daemon reachability and metadata-query readiness probes
//   - the point-in-time container snapshot (list + inspect) consumed by
//     the decision engine
//   - issuing start commands for individual containers
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
package docker
