package runtime

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// runner executes one command, wiring the given streams. Swapped out in
// tests to capture argv without a docker daemon.
type runner func(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, name string, args ...string) error

func execRunner(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

type ComposeParams struct {
	ComposeFile string // optional -f argument
	Project     string // optional -p argument
	AppService  string
	DBService   string
	DBUser      string
	Logger      zerolog.Logger
}

// NewComposeGateway returns a Gateway backed by the docker compose CLI.
func NewComposeGateway(params ComposeParams) *ComposeGateway {
	return &ComposeGateway{
		composeFile: params.ComposeFile,
		project:     params.Project,
		appService:  params.AppService,
		dbService:   params.DBService,
		dbUser:      params.DBUser,
		logger:      params.Logger.With().Str("component", "compose").Logger(),
		run:         execRunner,
	}
}

type ComposeGateway struct {
	composeFile string
	project     string
	appService  string
	dbService   string
	dbUser      string
	logger      zerolog.Logger
	run         runner
}

var _ Gateway = (*ComposeGateway)(nil)

func (g *ComposeGateway) composeArgs(args ...string) []string {
	base := []string{"compose"}
	if g.composeFile != "" {
		base = append(base, "-f", g.composeFile)
	}
	if g.project != "" {
		base = append(base, "-p", g.project)
	}
	return append(base, args...)
}

func (g *ComposeGateway) compose(ctx context.Context, stdin io.Reader, stdout io.Writer, args ...string) error {
	full := g.composeArgs(args...)
	g.logger.Debug().Strs("args", full).Msg("docker compose")

	stderr := &bytes.Buffer{}
	if err := g.run(ctx, stdin, stdout, stderr, "docker", full...); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("docker compose %s: %w: %s", args[0], err, msg)
		}
		return fmt.Errorf("docker compose %s: %w", args[0], err)
	}
	return nil
}

func (g *ComposeGateway) StartService(ctx context.Context) error {
	return g.compose(ctx, nil, nil, "up", "-d")
}

func (g *ComposeGateway) StopService(ctx context.Context) error {
	return g.compose(ctx, nil, nil, "stop")
}

func (g *ComposeGateway) StartDependency(ctx context.Context, service string) error {
	return g.compose(ctx, nil, nil, "up", "-d", service)
}

func (g *ComposeGateway) RunInDatabase(ctx context.Context, stdin io.Reader, stdout io.Writer, command ...string) error {
	args := append([]string{"exec", "-T", g.dbService}, command...)
	return g.compose(ctx, stdin, stdout, args...)
}

func (g *ComposeGateway) ProbeReadiness(ctx context.Context, service string, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := g.compose(ctx, nil, nil, "exec", "-T", service, "pg_isready", "-U", g.dbUser)
	if err != nil {
		g.logger.Debug().Err(err).Str("service", service).Msg("dependency not ready")
		return false
	}
	return true
}

func (g *ComposeGateway) ProbeHTTPEndpoint(ctx context.Context, url string, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		g.logger.Debug().Err(err).Str("url", url).Msg("endpoint probe failed")
		return false
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	return resp.StatusCode < http.StatusBadRequest
}

func (g *ComposeGateway) ProcessRunning(ctx context.Context) (bool, error) {
	out := &bytes.Buffer{}
	if err := g.compose(ctx, nil, out, "ps", "--services", "--status", "running"); err != nil {
		return false, err
	}

	for _, line := range strings.Split(out.String(), "\n") {
		if strings.TrimSpace(line) == g.appService {
			return true, nil
		}
	}
	return false, nil
}

func (g *ComposeGateway) DiskUsagePercent(path string) (int, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}

	// Same arithmetic as df: space reserved for root does not count as
	// available to the writers we care about.
	used := stat.Blocks - stat.Bfree
	total := used + stat.Bavail
	if total == 0 {
		return 0, nil
	}
	return int(used * 100 / total), nil
}
