package restore

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/plain-stack/stackctl/fileutils"
	"github.com/plain-stack/stackctl/runtime"
	"github.com/plain-stack/stackctl/snapshot"
)

// ErrConfirmationDeclined is the normal abort path out of the Confirming
// gate: nothing was changed and nothing is wrong.
var ErrConfirmationDeclined = errors.New("restore not confirmed")

// DependencyTimeoutError reports a dependency that did not become ready
// within its bound. The service is intentionally left stopped; guessing
// and restoring into a database of unknown state would be worse.
type DependencyTimeoutError struct {
	Dependency string
	Timeout    time.Duration
}

func (e *DependencyTimeoutError) Error() string {
	return fmt.Sprintf("%s did not become ready within %s; service left stopped", e.Dependency, e.Timeout)
}

// FailureError is an irrecoverable restore failure past the confirmation
// gate: the operation died in Stage, the service is left stopped and
// recovery is operator-driven. There is no automatic rollback; a
// partially-restored running service is more dangerous than a stopped,
// clearly-broken one.
type FailureError struct {
	Stage State
	Err   error
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("restore failed in stage %s: %v; service left stopped", e.Stage, e.Err)
}

func (e *FailureError) Unwrap() error { return e.Err }

type Params struct {
	Gateway       runtime.Gateway
	Confirm       Confirmer
	BackupDir     string
	DataDir       string
	DBService     string
	DBUser        string
	DBName        string
	ReadyTimeout  time.Duration
	ReadyInterval time.Duration
	Logger        zerolog.Logger
}

func NewEngine(params Params) *Engine {
	if params.Confirm == nil {
		// No gate wired in means nothing may proceed.
		params.Confirm = func(string) (bool, error) { return false, nil }
	}
	if params.ReadyTimeout == 0 {
		params.ReadyTimeout = 60 * time.Second
	}
	if params.ReadyInterval == 0 {
		params.ReadyInterval = 2 * time.Second
	}

	return &Engine{
		gateway:       params.Gateway,
		confirm:       params.Confirm,
		backupDir:     params.BackupDir,
		dataDir:       params.DataDir,
		dbService:     params.DBService,
		dbUser:        params.DBUser,
		dbName:        params.DBName,
		readyTimeout:  params.ReadyTimeout,
		readyInterval: params.ReadyInterval,
		state:         Idle,
		logger:        params.Logger.With().Str("component", "restore").Logger(),
	}
}

type Engine struct {
	gateway       runtime.Gateway
	confirm       Confirmer
	backupDir     string
	dataDir       string
	dbService     string
	dbUser        string
	dbName        string
	readyTimeout  time.Duration
	readyInterval time.Duration
	state         State
	logger        zerolog.Logger
}

// State returns the stage the engine is currently in, or the stage the
// last restore ended in.
func (e *Engine) State() State {
	return e.state
}

func (e *Engine) setState(s State) {
	e.state = s
	e.logger.Debug().Str("state", s.String()).Msg("restore state")
}

// RestoreBackup replays the backup set identified by ts into the
// deployment. Destructive: it overwrites all current service data.
//
// The order is fixed: validate, confirm, stop everything, restore the
// database and wait for it, only then replace the data directory, then
// restart. The database goes first so that a database failure never also
// costs the file-level data.
func (e *Engine) RestoreBackup(ctx context.Context, ts string) error {
	e.setState(Validating)
	set, err := snapshot.Resolve(e.backupDir, ts)
	if err != nil {
		e.setState(Aborted)
		return fmt.Errorf("backup set not restorable: %w", err)
	}

	e.setState(Confirming)
	ok, err := e.confirm(fmt.Sprintf(
		"Restore backup %s? This overwrites ALL current service data and cannot be undone", ts))
	if err != nil {
		e.setState(Aborted)
		return fmt.Errorf("could not read confirmation: %w", err)
	}
	if !ok {
		e.setState(Aborted)
		e.logger.Info().Str("timestamp", ts).Msg("restore declined, nothing changed")
		return ErrConfirmationDeclined
	}

	// No writer may observe a half-restored state, so everything halts
	// before any data is touched.
	e.logger.Info().Str("timestamp", ts).Msg("stopping service")
	if err := e.gateway.StopService(ctx); err != nil {
		return fmt.Errorf("could not stop service: %w", err)
	}
	e.setState(Stopped)

	e.setState(DatabaseRestoring)
	if err := e.gateway.StartDependency(ctx, e.dbService); err != nil {
		return &FailureError{Stage: DatabaseRestoring, Err: err}
	}
	if err := e.waitDatabaseReady(ctx); err != nil {
		return err
	}
	if err := e.replayDump(ctx, set.DatabaseDump.Path); err != nil {
		return &FailureError{Stage: DatabaseRestoring, Err: err}
	}
	e.setState(DatabaseReady)
	e.logger.Info().Str("timestamp", ts).Msg("database restored")

	// Destructive and irreversible from here on.
	e.setState(FilesRestoring)
	if err := fileutils.ClearDir(e.dataDir); err != nil {
		return &FailureError{Stage: FilesRestoring, Err: err}
	}
	if err := extractArchive(ctx, set.FileArchive.Path, e.dataDir); err != nil {
		return &FailureError{Stage: FilesRestoring, Err: err}
	}
	e.logger.Info().Str("timestamp", ts).Str("dest", e.dataDir).Msg("data directory restored")

	e.setState(Restarting)
	if err := e.gateway.StartService(ctx); err != nil {
		return &FailureError{Stage: Restarting, Err: err}
	}

	e.setState(Idle)
	return nil
}

// waitDatabaseReady probes once per interval until the fixed bound is
// spent. Each probe is itself bounded by the interval.
func (e *Engine) waitDatabaseReady(ctx context.Context) error {
	attempts := int(e.readyTimeout / e.readyInterval)
	if e.readyTimeout%e.readyInterval != 0 {
		attempts++
	}
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		if e.gateway.ProbeReadiness(ctx, e.dbService, e.readyInterval) {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.readyInterval):
		}
	}

	e.logger.Error().
		Str("dependency", e.dbService).
		Dur("timeout", e.readyTimeout).
		Msg("database did not become ready")
	return &DependencyTimeoutError{Dependency: e.dbService, Timeout: e.readyTimeout}
}

func (e *Engine) replayDump(ctx context.Context, path string) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open dump: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("could not read dump: %w", err)
	}
	defer func() {
		err = errors.Join(err, gz.Close())
	}()

	if err := e.gateway.RunInDatabase(ctx, gz, io.Discard,
		"psql", "-U", e.dbUser, "-d", e.dbName, "-v", "ON_ERROR_STOP=1"); err != nil {
		return fmt.Errorf("psql replay: %w", err)
	}
	return nil
}
