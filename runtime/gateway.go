package runtime

import (
	"context"
	"io"
	"time"
)

// Gateway is the controller's only door to the deployment: the container
// runtime, the database running inside it and the host filesystem backing
// it. Engines depend on this interface, never on docker directly.
type Gateway interface {
	// StartService brings up the full service (all containers).
	StartService(ctx context.Context) error

	// StopService halts the full service, dependent processes included.
	StopService(ctx context.Context) error

	// StartDependency brings up a single named dependency and nothing else.
	StartDependency(ctx context.Context, service string) error

	// RunInDatabase executes command inside the database container, wiring
	// its stdin and stdout to the given streams. Either stream may be nil.
	RunInDatabase(ctx context.Context, stdin io.Reader, stdout io.Writer, command ...string) error

	// ProbeReadiness reports whether the named dependency accepts work
	// within timeout. Failure and timeout are false, never an error.
	ProbeReadiness(ctx context.Context, service string, timeout time.Duration) bool

	// ProbeHTTPEndpoint reports whether url answers a GET successfully
	// within timeout. Failure and timeout are false, never an error.
	ProbeHTTPEndpoint(ctx context.Context, url string, timeout time.Duration) bool

	// ProcessRunning reports whether the application service is running.
	ProcessRunning(ctx context.Context) (bool, error)

	// DiskUsagePercent returns the utilization of the filesystem backing
	// path as a 0-100 percentage.
	DiskUsagePercent(path string) (int, error)
}
