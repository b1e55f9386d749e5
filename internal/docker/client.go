package docker

import (
	"context"
	"fmt"
	"net"
	"os"
	"runtime"
	"time"

	"github.com/docker/docker/client"
)

// defaultPingTimeout is the maximum duration to wait for a Docker daemon
// response during a Ping probe. 5 seconds covers Docker Desktop on
// macOS, which answers noticeably slower than native Linux Docker.
const defaultPingTimeout = 5 * time.Second

// Client wraps the Docker Engine SDK client. Unlike a conventional
// wrapper it connects lazily: at boot time the Docker socket may not
// exist yet, and the availability gate needs to construct the client
// first and poll for the endpoint afterwards. All methods that talk to
// the daemon establish the connection on first use.
type Client struct {
	// inner is the underlying Docker SDK client, nil until the first
	// successful connect.
	inner *client.Client
}

// NewClient returns an unconnected client. It never fails; endpoint
// resolution and connection errors surface from the probe methods and
// from the first daemon operation.
func NewClient() *Client {
	return &Client{}
}

// EndpointAvailable reports whether a Docker endpoint can currently be
// resolved: either DOCKER_HOST is set, or a known socket path exists for
// this platform. This is the gate's first readiness check — probing
// daemon reachability is meaningless before an endpoint exists.
func (c *Client) EndpointAvailable() bool {
	_, err := resolveEndpoint()
	return err == nil
}

// Ping verifies that the Docker daemon is reachable and responsive,
// connecting first if necessary. It sends a lightweight ping request and
// waits up to defaultPingTimeout for a response.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.connect(); err != nil {
		return err
	}

	// Bound the ping so a paused or wedged daemon cannot hang the gate
	// iteration beyond one timeout.
	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if _, err := c.inner.Ping(pingCtx); err != nil {
		return fmt.Errorf("docker daemon is not responding: %w", err)
	}
	return nil
}

// connect resolves the endpoint and creates the SDK client. It is
// idempotent; subsequent calls after a successful connect return nil
// immediately. The tool is strictly single-threaded, so no locking is
// needed here.
func (c *Client) connect() error {
	if c.inner != nil {
		return nil
	}

	host, err := resolveEndpoint()
	if err != nil {
		return err
	}

	// WithAPIVersionNegotiation lets the SDK match whatever daemon
	// version is running, instead of pinning one API version.
	inner, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return fmt.Errorf("failed to create Docker client for host %q: %w", host, err)
	}

	c.inner = inner
	return nil
}

// resolveEndpoint determines the Docker connection string for the
// current platform.
//
// The resolution order is:
//  1. DOCKER_HOST environment variable (used as-is when set)
//  2. Platform-specific default socket paths:
//     - Linux: /var/run/docker.sock
//     - macOS: /var/run/docker.sock, then ~/.docker/run/docker.sock
//     - Windows: npipe:////./pipe/docker_engine
//
// Existence is checked rather than connectivity, because existence
// checks are cheap and the Ping probe handles the rest.
func resolveEndpoint() (string, error) {
	if host := os.Getenv("DOCKER_HOST"); host != "" {
		return host, nil
	}

	switch runtime.GOOS {
	case "linux":
		return firstUnixSocket([]string{
			"/var/run/docker.sock",
		})

	case "darwin":
		// Newer Docker Desktop versions place the socket under the
		// user's home directory and may not create the /var/run symlink.
		paths := []string{"/var/run/docker.sock"}
		if home, err := os.UserHomeDir(); err == nil {
			paths = append(paths, home+"/.docker/run/docker.sock")
		}
		return firstUnixSocket(paths)

	case "windows":
		// Named pipes cannot be os.Stat'ed; a brief dial is the only
		// way to check the pipe exists.
		pipePath := `//./pipe/docker_engine`
		conn, err := net.DialTimeout("pipe", pipePath, 1*time.Second)
		if err != nil {
			return "", fmt.Errorf("Docker named pipe not found at %s: %w", pipePath, err)
		}
		conn.Close()
		return "npipe://" + pipePath, nil

	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// firstUnixSocket returns the Docker host URI for the first socket path
// that exists on the filesystem, checked in preference order.
func firstUnixSocket(paths []string) (string, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return "unix://" + path, nil
		}
	}
	return "", fmt.Errorf("Docker socket not found at any of: %v", paths)
}

// Close releases all resources held by the Docker client. Safe to call
// multiple times and before any connection was made.
func (c *Client) Close() error {
	if c.inner != nil {
		return c.inner.Close()
	}
	return nil
}
