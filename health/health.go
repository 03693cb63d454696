package health

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/plain-stack/stackctl/runtime"
)

// Check names, in report order.
const (
	CheckProcess  = "ProcessUp"
	CheckEndpoint = "EndpointUp"
	CheckDatabase = "DatabaseReady"
	CheckDisk     = "DiskOK"
)

type CheckResult struct {
	Name   string
	Passed bool
	Detail string
}

func (r CheckResult) MarshalZerologObject(e *zerolog.Event) {
	e.Str("check", r.Name).Bool("passed", r.Passed).Str("detail", r.Detail)
}

// Report is one health snapshot. It is recomputed in full on every call
// and carries no history.
type Report struct {
	Checks []CheckResult
}

// Healthy is the AND-reduction over all checks. No weighting: a service
// healthy on three of four axes is not actionable without knowing which
// axis failed, so any failing check fails the report.
func (r Report) Healthy() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

type Params struct {
	Gateway       runtime.Gateway
	DBService     string
	EndpointURL   string
	ProbeTimeout  time.Duration
	DiskPath      string
	DiskThreshold int
	Logger        zerolog.Logger
}

func NewAggregator(params Params) *Aggregator {
	if params.ProbeTimeout == 0 {
		params.ProbeTimeout = 5 * time.Second
	}
	if params.DiskThreshold == 0 {
		params.DiskThreshold = 80
	}

	return &Aggregator{
		gateway:       params.Gateway,
		dbService:     params.DBService,
		endpointURL:   params.EndpointURL,
		probeTimeout:  params.ProbeTimeout,
		diskPath:      params.DiskPath,
		diskThreshold: params.DiskThreshold,
		logger:        params.Logger.With().Str("component", "health").Logger(),
	}
}

type Aggregator struct {
	gateway       runtime.Gateway
	dbService     string
	endpointURL   string
	probeTimeout  time.Duration
	diskPath      string
	diskThreshold int
	logger        zerolog.Logger
}

// CheckHealth runs all four checks regardless of each other's outcome, so
// every report carries complete information. Probe failures and timeouts
// are failed checks, never errors.
func (a *Aggregator) CheckHealth(ctx context.Context) Report {
	report := Report{Checks: []CheckResult{
		a.checkProcess(ctx),
		a.checkEndpoint(ctx),
		a.checkDatabase(ctx),
		a.checkDisk(),
	}}

	for _, check := range report.Checks {
		a.logger.Debug().Object("result", check).Msg("health check")
	}
	return report
}

func (a *Aggregator) checkProcess(ctx context.Context) CheckResult {
	running, err := a.gateway.ProcessRunning(ctx)
	if err != nil {
		return CheckResult{Name: CheckProcess, Detail: fmt.Sprintf("could not query runtime: %v", err)}
	}
	if !running {
		return CheckResult{Name: CheckProcess, Detail: "service processes not running"}
	}
	return CheckResult{Name: CheckProcess, Passed: true, Detail: "service processes running"}
}

func (a *Aggregator) checkEndpoint(ctx context.Context) CheckResult {
	if a.gateway.ProbeHTTPEndpoint(ctx, a.endpointURL, a.probeTimeout) {
		return CheckResult{
			Name:   CheckEndpoint,
			Passed: true,
			Detail: fmt.Sprintf("%s responded within %s", a.endpointURL, a.probeTimeout),
		}
	}
	return CheckResult{
		Name:   CheckEndpoint,
		Detail: fmt.Sprintf("%s did not respond within %s", a.endpointURL, a.probeTimeout),
	}
}

func (a *Aggregator) checkDatabase(ctx context.Context) CheckResult {
	if a.gateway.ProbeReadiness(ctx, a.dbService, a.probeTimeout) {
		return CheckResult{Name: CheckDatabase, Passed: true, Detail: "database accepting connections"}
	}
	return CheckResult{
		Name:   CheckDatabase,
		Detail: fmt.Sprintf("database not ready within %s", a.probeTimeout),
	}
}

// checkDisk always reports the numeric percentage, passing or not, so a
// low-but-passing value stays visible to callers.
func (a *Aggregator) checkDisk() CheckResult {
	pct, err := a.gateway.DiskUsagePercent(a.diskPath)
	if err != nil {
		return CheckResult{Name: CheckDisk, Detail: fmt.Sprintf("could not read disk usage: %v", err)}
	}
	return CheckResult{
		Name:   CheckDisk,
		Passed: pct < a.diskThreshold,
		Detail: fmt.Sprintf("%d%% used (threshold %d%%)", pct, a.diskThreshold),
	}
}
