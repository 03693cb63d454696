package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// TimestampFormat is the second-resolution identifier shared by the three
// artifacts of a backup set (UTC).
const TimestampFormat = "20060102_150405"

const (
	dumpPrefix    = "database_"
	archivePrefix = "files_"
	envPrefix     = "env_"

	dumpSuffix    = ".sql.gz"
	archiveSuffix = ".tar.gz"
)

// NewTimestamp formats t as a set identifier.
func NewTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// ParseTimestamp returns an error if ts is not a well-formed set identifier.
func ParseTimestamp(ts string) error {
	_, err := time.Parse(TimestampFormat, ts)
	return err
}

// Artifact file names under the backup root. Any external tool producing
// the same names is interoperable.
func DumpName(ts string) string    { return dumpPrefix + ts + dumpSuffix }
func ArchiveName(ts string) string { return archivePrefix + ts + archiveSuffix }
func EnvName(ts string) string     { return envPrefix + ts }

type Artifact struct {
	Path string
	Size int64
}

// Set is one backup set: the compressed database dump, the compressed
// data-directory archive and the plain env snapshot, correlated by a
// single timestamp. Immutable once written.
type Set struct {
	Timestamp      string
	DatabaseDump   Artifact
	FileArchive    Artifact
	ConfigSnapshot Artifact
}

// NotFoundError means no artifact at all exists for the timestamp.
type NotFoundError struct {
	Timestamp string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("backup set %s not found", e.Timestamp)
}

// IncompleteSetError means some but not all artifacts exist. Such a set is
// corrupt and must never be offered for restore; the artifacts that do
// exist are left in place as evidence.
type IncompleteSetError struct {
	Timestamp string
	Present   []string
	Missing   []string
}

func (e *IncompleteSetError) Error() string {
	return fmt.Sprintf("backup set %s is incomplete: missing %s (present: %s)",
		e.Timestamp, strings.Join(e.Missing, ", "), strings.Join(e.Present, ", "))
}

// Resolve looks up the backup set identified by ts under dir. All three
// artifacts must exist for the set to be valid.
func Resolve(dir, ts string) (*Set, error) {
	if err := ParseTimestamp(ts); err != nil {
		return nil, fmt.Errorf("invalid backup timestamp %q: %w", ts, err)
	}

	set := &Set{Timestamp: ts}
	var present, missing []string

	for _, member := range []struct {
		name     string
		artifact *Artifact
	}{
		{DumpName(ts), &set.DatabaseDump},
		{ArchiveName(ts), &set.FileArchive},
		{EnvName(ts), &set.ConfigSnapshot},
	} {
		path := filepath.Join(dir, member.name)
		info, err := os.Stat(path)
		if err != nil {
			missing = append(missing, member.name)
			continue
		}
		present = append(present, member.name)
		member.artifact.Path = path
		member.artifact.Size = info.Size()
	}

	switch {
	case len(present) == 0:
		return nil, &NotFoundError{Timestamp: ts}
	case len(missing) > 0:
		return nil, &IncompleteSetError{Timestamp: ts, Present: present, Missing: missing}
	}
	return set, nil
}

// Info describes one timestamp found under the backup root.
type Info struct {
	Timestamp string
	Size      int64 // total bytes across the artifacts that exist
	Complete  bool
	Missing   []string
}

// List scans dir and groups artifacts by timestamp, newest first.
// Incomplete sets are included and flagged, never hidden.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	seen := map[string]struct{}{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ts, ok := timestampOf(entry.Name()); ok {
			seen[ts] = struct{}{}
		}
	}

	infos := make([]Info, 0, len(seen))
	for ts := range seen {
		info := Info{Timestamp: ts, Complete: true}

		set, err := Resolve(dir, ts)
		var incomplete *IncompleteSetError
		switch {
		case err == nil:
			info.Size = set.DatabaseDump.Size + set.FileArchive.Size + set.ConfigSnapshot.Size
		case errors.As(err, &incomplete):
			info.Complete = false
			info.Missing = incomplete.Missing
			for _, name := range incomplete.Present {
				if st, statErr := os.Stat(filepath.Join(dir, name)); statErr == nil {
					info.Size += st.Size()
				}
			}
		default:
			return nil, err
		}

		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Timestamp > infos[j].Timestamp })
	return infos, nil
}

func timestampOf(name string) (string, bool) {
	var ts string
	switch {
	case strings.HasPrefix(name, dumpPrefix) && strings.HasSuffix(name, dumpSuffix):
		ts = strings.TrimSuffix(strings.TrimPrefix(name, dumpPrefix), dumpSuffix)
	case strings.HasPrefix(name, archivePrefix) && strings.HasSuffix(name, archiveSuffix):
		ts = strings.TrimSuffix(strings.TrimPrefix(name, archivePrefix), archiveSuffix)
	case strings.HasPrefix(name, envPrefix):
		ts = strings.TrimPrefix(name, envPrefix)
	default:
		return "", false
	}
	if ParseTimestamp(ts) != nil {
		return "", false
	}
	return ts, true
}
