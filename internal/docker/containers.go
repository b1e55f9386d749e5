// containers.go implements the container snapshot and the start command
// for the docker-revive CLI.
//
// The snapshot is a point-in-time view: a ContainerList for the full set
// (including stopped containers) followed by one ContainerInspect per
// container to obtain the restart policy and last exit code, neither of
// which the list endpoint exposes. The engine's decisions are based
// entirely on this snapshot; the side effect of a start changing a
// container's real state is not re-observed within the run.
package docker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/docker/docker/api/types/container"

	"github.com/shinji-kodama/docker-revive/internal/model"
)

// QueryReady reports whether structured container metadata can be
// retrieved from the daemon. This backs the gate's second readiness
// group: a daemon can answer pings while its container store is still
// loading, and the restore pass is pointless until listing works.
//
// The probe asks for a single entry; it does not care about the result,
// only that the query path works end to end.
func (c *Client) QueryReady(ctx context.Context) bool {
	if err := c.connect(); err != nil {
		return false
	}
	_, err := c.inner.ContainerList(ctx, container.ListOptions{All: true, Limit: 1})
	return err == nil
}

// Snapshot fetches the current state of all containers known to the
// daemon and maps them into domain records.
//
// A failed inspect for an individual container does not abort the
// snapshot: the container is recorded with PolicyOther and an unknown
// exit code — the engine then skips it — and a warning is logged. Only
// a failure of the list itself is returned as an error.
func (c *Client) Snapshot(ctx context.Context, logger *slog.Logger) ([]model.ContainerRecord, error) {
	if err := c.connect(); err != nil {
		return nil, err
	}

	summaries, err := c.inner.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	records := make([]model.ContainerRecord, 0, len(summaries))
	for _, s := range summaries {
		name := summaryName(s)

		inspect, err := c.inner.ContainerInspect(ctx, s.ID)
		if err != nil {
			logger.Warn("container inspect failed, treating as unmanaged",
				"container", name, "error", err)
			records = append(records, model.ContainerRecord{
				Name:   name,
				Policy: model.PolicyOther,
			})
			continue
		}

		records = append(records, inspectToRecord(name, inspect))
	}

	return records, nil
}

// summaryName extracts a display name from a list entry. Docker returns
// names as a slice with a leading "/" that is an API artifact, not part
// of the user-visible name. Containers somehow lacking a name fall back
// to the short ID.
func summaryName(s container.Summary) string {
	if len(s.Names) > 0 {
		return strings.TrimPrefix(s.Names[0], "/")
	}
	if len(s.ID) >= 12 {
		return s.ID[:12]
	}
	return s.ID
}

// inspectToRecord maps an inspect response into a domain record. This is
// a pure mapping function with no side effects.
//
// The exit code is marked unknown when the response carries no state
// block; the unless-stopped heuristic then treats the container as
// deliberately stopped.
func inspectToRecord(name string, inspect container.InspectResponse) model.ContainerRecord {
	rec := model.ContainerRecord{Name: name}

	if inspect.HostConfig != nil {
		rec.Policy = model.ParseRestartPolicy(string(inspect.HostConfig.RestartPolicy.Name))
	} else {
		rec.Policy = model.PolicyOther
	}

	if inspect.State != nil {
		rec.Running = inspect.State.Running
		rec.ExitCode = inspect.State.ExitCode
		rec.ExitCodeKnown = true
	}

	return rec
}

// StartContainer attempts to transition the named container to running.
// Docker resolves container names as well as IDs, so the engine can work
// with the human-readable names from the snapshot.
func (c *Client) StartContainer(ctx context.Context, name string) error {
	if err := c.connect(); err != nil {
		return err
	}
	if err := c.inner.ContainerStart(ctx, name, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container %q: %w", name, err)
	}
	return nil
}
