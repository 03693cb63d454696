package health_test

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plain-stack/stackctl/health"
)

// stubGateway answers every probe from fixed fields.
type stubGateway struct {
	running    bool
	runningErr error
	endpointUp bool
	dbReady    bool
	diskPct    int
	diskErr    error
}

func (s *stubGateway) StartService(context.Context) error              { return nil }
func (s *stubGateway) StopService(context.Context) error               { return nil }
func (s *stubGateway) StartDependency(context.Context, string) error   { return nil }

func (s *stubGateway) RunInDatabase(context.Context, io.Reader, io.Writer, ...string) error {
	return nil
}

func (s *stubGateway) ProbeReadiness(context.Context, string, time.Duration) bool {
	return s.dbReady
}

func (s *stubGateway) ProbeHTTPEndpoint(context.Context, string, time.Duration) bool {
	return s.endpointUp
}

func (s *stubGateway) ProcessRunning(context.Context) (bool, error) {
	return s.running, s.runningErr
}

func (s *stubGateway) DiskUsagePercent(string) (int, error) {
	return s.diskPct, s.diskErr
}

func newAggregator(gateway *stubGateway) *health.Aggregator {
	return health.NewAggregator(health.Params{
		Gateway:       gateway,
		DBService:     "db",
		EndpointURL:   "http://localhost:8080/healthz",
		ProbeTimeout:  time.Second,
		DiskPath:      "/srv/app/data",
		DiskThreshold: 80,
		Logger:        zerolog.Nop(),
	})
}

// Exhaustive truth table over all 2^4 outcome combinations: the report is
// healthy iff every single check passed.
func TestCheckHealth_TruthTable(t *testing.T) {
	for mask := 0; mask < 16; mask++ {
		process := mask&1 != 0
		endpoint := mask&2 != 0
		database := mask&4 != 0
		disk := mask&8 != 0

		t.Run(fmt.Sprintf("process=%v endpoint=%v database=%v disk=%v", process, endpoint, database, disk), func(t *testing.T) {
			gateway := &stubGateway{
				running:    process,
				endpointUp: endpoint,
				dbReady:    database,
				diskPct:    10,
			}
			if !disk {
				gateway.diskPct = 95
			}

			report := newAggregator(gateway).CheckHealth(context.Background())

			// Every report is complete: all four checks ran, in order,
			// regardless of outcomes.
			require.Len(t, report.Checks, 4)
			assert.Equal(t, health.CheckProcess, report.Checks[0].Name)
			assert.Equal(t, health.CheckEndpoint, report.Checks[1].Name)
			assert.Equal(t, health.CheckDatabase, report.Checks[2].Name)
			assert.Equal(t, health.CheckDisk, report.Checks[3].Name)

			assert.Equal(t, process, report.Checks[0].Passed)
			assert.Equal(t, endpoint, report.Checks[1].Passed)
			assert.Equal(t, database, report.Checks[2].Passed)
			assert.Equal(t, disk, report.Checks[3].Passed)

			assert.Equal(t, process && endpoint && database && disk, report.Healthy())
		})
	}
}

func TestCheckHealth_DiskDetailAlwaysHasPercentage(t *testing.T) {
	testCases := []struct {
		name    string
		pct     int
		passed  bool
		detail  string
	}{
		{name: "low and passing", pct: 12, passed: true, detail: "12% used (threshold 80%)"},
		{name: "near threshold", pct: 79, passed: true, detail: "79% used (threshold 80%)"},
		{name: "at threshold", pct: 80, passed: false, detail: "80% used (threshold 80%)"},
		{name: "failing", pct: 97, passed: false, detail: "97% used (threshold 80%)"},
		{name: "empty disk", pct: 0, passed: true, detail: "0% used (threshold 80%)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway := &stubGateway{running: true, endpointUp: true, dbReady: true, diskPct: tc.pct}
			report := newAggregator(gateway).CheckHealth(context.Background())

			disk := report.Checks[3]
			assert.Equal(t, tc.passed, disk.Passed)
			assert.Equal(t, tc.detail, disk.Detail, "percentage must be visible whether passing or not")
		})
	}
}

func TestCheckHealth_GatewayErrorsAreFailedChecks(t *testing.T) {
	gateway := &stubGateway{
		runningErr: assert.AnError,
		endpointUp: true,
		dbReady:    true,
		diskErr:    assert.AnError,
	}

	report := newAggregator(gateway).CheckHealth(context.Background())

	require.Len(t, report.Checks, 4, "errors must not short-circuit the remaining checks")
	assert.False(t, report.Checks[0].Passed)
	assert.Contains(t, report.Checks[0].Detail, "could not query runtime")
	assert.False(t, report.Checks[3].Passed)
	assert.False(t, report.Healthy())
}

func TestNewAggregator_Defaults(t *testing.T) {
	gateway := &stubGateway{running: true, endpointUp: true, dbReady: true, diskPct: 79}
	agg := health.NewAggregator(health.Params{Gateway: gateway, Logger: zerolog.Nop()})

	// Default threshold of 80: 79% still passes.
	report := agg.CheckHealth(context.Background())
	assert.True(t, report.Checks[3].Passed)
	assert.Contains(t, report.Checks[3].Detail, "threshold 80%")
}
