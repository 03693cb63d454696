package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/plain-stack/stackctl/catalog"
	"github.com/plain-stack/stackctl/fileutils"
	"github.com/plain-stack/stackctl/runtime"
	"github.com/plain-stack/stackctl/snapshot"
)

// Params carries everything the engine needs at construction.
type Params struct {
	Gateway   runtime.Gateway
	Catalog   *catalog.Catalog // optional
	BackupDir string
	DataDir   string
	EnvFile   string
	DBUser    string
	DBName    string
	Logger    zerolog.Logger
}

func NewEngine(params Params, opts ...Option) *Engine {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &Engine{
		gateway:   params.Gateway,
		cat:       params.Catalog,
		backupDir: params.BackupDir,
		dataDir:   params.DataDir,
		envFile:   params.EnvFile,
		dbUser:    params.DBUser,
		dbName:    params.DBName,
		now:       o.now,
		logger:    params.Logger.With().Str("component", "backup").Logger(),
	}
}

type Engine struct {
	gateway   runtime.Gateway
	cat       *catalog.Catalog
	backupDir string
	dataDir   string
	envFile   string
	dbUser    string
	dbName    string
	now       func() time.Time
	logger    zerolog.Logger
}

// PartialFailureError reports a backup that failed partway through. The
// artifacts written before the failure are kept on disk for inspection,
// never deleted.
type PartialFailureError struct {
	Timestamp string
	Step      string
	Existing  []string
	Err       error
}

func (e *PartialFailureError) Error() string {
	if len(e.Existing) == 0 {
		return fmt.Sprintf("backup %s: %s failed: %v (no artifacts written)",
			e.Timestamp, e.Step, e.Err)
	}
	return fmt.Sprintf("backup %s: %s failed: %v (kept partial artifacts: %s)",
		e.Timestamp, e.Step, e.Err, strings.Join(e.Existing, ", "))
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// CreateBackup produces one timestamped backup set: compressed database
// dump, compressed archive of the data directory, verbatim copy of the env
// file. The timestamp is generated once up front so the artifacts correlate
// even when wall-clock time advances mid-operation.
//
// The service keeps running throughout, so the dump and the archive are
// only mutually consistent when nothing writes between the two steps.
// Callers needing hard consistency must stop the service first.
func (e *Engine) CreateBackup(ctx context.Context) (*snapshot.Set, error) {
	ts := snapshot.NewTimestamp(e.now())
	logger := e.logger.With().Str("timestamp", ts).Logger()

	startTime := time.Now()
	logger.Info().Str("dest", e.backupDir).Msg("starting backup")
	defer func() {
		tookSeconds := time.Since(startTime).Seconds()
		if ctx.Err() != nil {
			logger.Info().Float64("seconds", tookSeconds).Msg("backup cancelled")
		} else {
			logger.Info().Float64("seconds", tookSeconds).Msg("backup done")
		}
	}()

	if err := fileutils.EnsureDir(e.backupDir); err != nil {
		return nil, fmt.Errorf("could not create backup directory: %w", err)
	}
	if err := fileutils.VerifyWritable(e.backupDir); err != nil {
		return nil, fmt.Errorf("backup directory must be writable: %w", err)
	}

	set := &snapshot.Set{Timestamp: ts}

	dumpPath := filepath.Join(e.backupDir, snapshot.DumpName(ts))
	if err := e.dumpDatabase(ctx, dumpPath); err != nil {
		return nil, e.failStep(ctx, ts, "database dump", err)
	}
	set.DatabaseDump = artifactAt(dumpPath)
	logger.Info().Str("path", dumpPath).Int64("size", set.DatabaseDump.Size).Msg("database dump written")

	archivePath := filepath.Join(e.backupDir, snapshot.ArchiveName(ts))
	if err := e.archiveDataDir(ctx, archivePath); err != nil {
		return nil, e.failStep(ctx, ts, "file archive", err)
	}
	set.FileArchive = artifactAt(archivePath)
	logger.Info().Str("path", archivePath).Int64("size", set.FileArchive.Size).Msg("data directory archived")

	envPath := filepath.Join(e.backupDir, snapshot.EnvName(ts))
	if err := fileutils.CopyFile(e.envFile, envPath); err != nil {
		return nil, e.failStep(ctx, ts, "config snapshot", err)
	}
	set.ConfigSnapshot = artifactAt(envPath)
	logger.Info().Str("path", envPath).Msg("config snapshot written")

	if e.cat != nil {
		rec := catalog.Record{
			Timestamp:          set.Timestamp,
			DatabaseDumpPath:   set.DatabaseDump.Path,
			FileArchivePath:    set.FileArchive.Path,
			ConfigSnapshotPath: set.ConfigSnapshot.Path,
			DatabaseDumpSize:   set.DatabaseDump.Size,
			FileArchiveSize:    set.FileArchive.Size,
			Complete:           true,
		}
		if err := e.cat.Record(ctx, rec); err != nil {
			// The artifacts exist; a catalog miss does not fail the backup.
			logger.Error().Err(err).Msg("could not record backup set in catalog")
		}
	}

	return set, nil
}

// dumpDatabase streams a logical dump from the running database straight
// through gzip to disk, so peak disk usage stays near the compressed size.
// The dump carries --clean --if-exists, making restore a pure replay.
func (e *Engine) dumpDatabase(ctx context.Context, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create dump file: %w", err)
	}

	gz := gzip.NewWriter(out)
	dumpErr := e.gateway.RunInDatabase(ctx, nil, gz,
		"pg_dump", "--clean", "--if-exists", "-U", e.dbUser, e.dbName)

	closeErr := errors.Join(gz.Close(), out.Close())
	if dumpErr != nil {
		return fmt.Errorf("pg_dump: %w", dumpErr)
	}
	return closeErr
}

func (e *Engine) archiveDataDir(ctx context.Context, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create archive file: %w", err)
	}

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	walkErr := filepath.Walk(e.dataDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, err := filepath.Rel(e.dataDir, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)

		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(p)
		if err != nil {
			return err
		}
		_, copyErr := io.Copy(tw, f)
		return errors.Join(copyErr, f.Close())
	})

	closeErr := errors.Join(tw.Close(), gz.Close(), out.Close())
	if walkErr != nil {
		return fmt.Errorf("archive %s: %w", e.dataDir, walkErr)
	}
	return closeErr
}

// failStep reports which step failed and which artifacts exist. Partial
// artifacts are deliberately left on disk: auto-deleting them would hide
// the evidence an operator needs.
func (e *Engine) failStep(ctx context.Context, ts, step string, err error) error {
	existing := e.existingArtifacts(ts)

	e.logger.Error().Err(err).
		Str("timestamp", ts).
		Str("step", step).
		Strs("artifacts", existing).
		Msg("backup step failed, partial artifacts kept")

	if e.cat != nil {
		rec := catalog.Record{Timestamp: ts, FailedStep: step}
		for _, name := range existing {
			switch name {
			case snapshot.DumpName(ts):
				rec.DatabaseDumpPath = filepath.Join(e.backupDir, name)
			case snapshot.ArchiveName(ts):
				rec.FileArchivePath = filepath.Join(e.backupDir, name)
			case snapshot.EnvName(ts):
				rec.ConfigSnapshotPath = filepath.Join(e.backupDir, name)
			}
		}
		if recErr := e.cat.Record(ctx, rec); recErr != nil {
			e.logger.Error().Err(recErr).Msg("could not record failed backup in catalog")
		}
	}

	return &PartialFailureError{Timestamp: ts, Step: step, Existing: existing, Err: err}
}

func (e *Engine) existingArtifacts(ts string) []string {
	var existing []string
	for _, name := range []string{snapshot.DumpName(ts), snapshot.ArchiveName(ts), snapshot.EnvName(ts)} {
		if _, err := os.Stat(filepath.Join(e.backupDir, name)); err == nil {
			existing = append(existing, name)
		}
	}
	return existing
}

func artifactAt(path string) snapshot.Artifact {
	artifact := snapshot.Artifact{Path: path}
	if info, err := os.Stat(path); err == nil {
		artifact.Size = info.Size()
	}
	return artifact
}
