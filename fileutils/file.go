package fileutils

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// VerifyWritable returns nil if dirPath is a directory and is writable.
func VerifyWritable(dirPath string) error {
	fil, err := os.CreateTemp(dirPath, "")
	if err != nil {
		return err
	}
	err = fil.Close()
	if err != nil {
		return err
	}
	err = os.Remove(fil.Name())
	if err != nil {
		return err
	}
	return nil
}

// EnsureDir creates dirPath and any missing parents. Idempotent.
func EnsureDir(dirPath string) error {
	return os.MkdirAll(dirPath, 0o755)
}

// CopyFile copies src to dst verbatim, carrying over the source file mode.
// dst is truncated if it already exists.
func CopyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, in.Close())
	}()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	_, copyErr := io.Copy(out, in)
	return errors.Join(copyErr, out.Close())
}

// ClearDir removes everything inside dirPath but keeps the directory
// itself (and its permissions) in place.
func ClearDir(dirPath string) error {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dirPath, entry.Name())); err != nil {
			return fmt.Errorf("could not remove %s: %w", entry.Name(), err)
		}
	}
	return nil
}
