// probes.go wires the gate's readiness groups to the Docker access
// layer.
//
// Two groups run back-to-back. The "runtime" group establishes that a
// Docker endpoint exists and the daemon answers pings; the "query" group
// establishes that structured container metadata can actually be
// retrieved. They are separate because a daemon accepts pings before its
// container store is usable, and each deserves its own wait budget.
package gate

import (
	"context"

	"github.com/shinji-kodama/docker-revive/internal/docker"
)

// DefaultGroups returns the readiness groups for a restore pass against
// the given client, in the order they must be awaited.
func DefaultGroups(c *docker.Client) []Group {
	return []Group{
		{
			Name: "runtime",
			Checks: []Check{
				{
					Label: "Docker endpoint",
					Probe: func(ctx context.Context) bool {
						return c.EndpointAvailable()
					},
				},
				{
					Label: "Docker daemon",
					Probe: func(ctx context.Context) bool {
						return c.Ping(ctx) == nil
					},
				},
			},
		},
		{
			Name: "query",
			Checks: []Check{
				{
					Label: "Container metadata query",
					Probe: func(ctx context.Context) bool {
						return c.QueryReady(ctx)
					},
				},
			},
		},
	}
}
