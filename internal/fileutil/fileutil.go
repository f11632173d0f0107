// Package fileutil provides crash-safe file writers.
package fileutil

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// AtomicFile buffers writes into a temporary sibling of the destination and
// renames it into place on Commit. Until Commit succeeds the destination is
// untouched.
type AtomicFile struct {
	path string
	tmp  *os.File
	w    *bufio.Writer
	done bool
}

// CreateAtomic opens a temporary file in the destination directory.
func CreateAtomic(path string) (*AtomicFile, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file for %s: %w", path, err)
	}
	return &AtomicFile{path: path, tmp: tmp, w: bufio.NewWriter(tmp)}, nil
}

// Path reports the final destination.
func (f *AtomicFile) Path() string { return f.path }

func (f *AtomicFile) Write(p []byte) (int, error) {
	return f.w.Write(p)
}

// WriteString writes s to the buffered temp file.
func (f *AtomicFile) WriteString(s string) (int, error) {
	return f.w.WriteString(s)
}

// Commit flushes, syncs, and renames the temp file over the destination.
// On failure the temp file is removed.
func (f *AtomicFile) Commit() error {
	if f.done {
		return errors.New("atomic file already finished")
	}
	f.done = true
	name := f.tmp.Name()
	if err := f.w.Flush(); err != nil {
		_ = f.tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("flush %s: %w", f.path, err)
	}
	if err := f.tmp.Sync(); err != nil {
		_ = f.tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("sync %s: %w", f.path, err)
	}
	if err := f.tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("close %s: %w", f.path, err)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("chmod %s: %w", f.path, err)
	}
	if err := os.Rename(name, f.path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("rename into %s: %w", f.path, err)
	}
	return nil
}

// Abort discards the temp file. It is safe to call after Commit, which makes
// it suitable for defer.
func (f *AtomicFile) Abort() {
	if f.done {
		return
	}
	f.done = true
	_ = f.tmp.Close()
	_ = os.Remove(f.tmp.Name())
}

// WriteLinesAtomic writes each line terminated by "\n" to path atomically.
func WriteLinesAtomic(path string, lines []string) error {
	f, err := CreateAtomic(path)
	if err != nil {
		return err
	}
	defer f.Abort()
	for _, line := range lines {
		if _, err := f.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return f.Commit()
}

// CopyAtomic copies src to dst through an AtomicFile, so dst is either the
// previous content or a complete copy.
func CopyAtomic(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()
	f, err := CreateAtomic(dst)
	if err != nil {
		return err
	}
	defer f.Abort()
	if _, err := io.Copy(f, in); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return f.Commit()
}
